package router

import (
	"github.com/gin-gonic/gin"

	"harvest_hub_v2_202601/internal/controller"
	"harvest_hub_v2_202601/internal/middleware"
)

// Controllers 路由依赖的控制器集合
type Controllers struct {
	Auth    *controller.AuthController
	Listing *controller.ListingController
}

// SetupRouter 创建引擎并注册所有路由
func SetupRouter(ctrls *Controllers) *gin.Engine {
	r := gin.Default()
	InitRoutes(r, ctrls)
	return r
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, ctrls *Controllers) {
	// user 用户组
	user := r.Group("/user")
	{
		// POST /user/signup
		user.POST("/signup", ctrls.Auth.Signup)

		// POST /user/login
		user.POST("/login", ctrls.Auth.Login)
	}

	// product 商品组，全部需要登录
	product := r.Group("/product")
	product.Use(middleware.JWTAuth())
	{
		// POST /product/create-order 农户发布商品
		product.POST("/create-order", ctrls.Listing.CreateListing)

		// PUT /product/verify/:id 管理员审核
		product.PUT("/verify/:id", ctrls.Listing.VerifyListing)

		// GET /product/pending 审核队列
		product.GET("/pending", ctrls.Listing.GetPendingListings)

		// GET /product/get-all-products
		product.GET("/get-all-products", ctrls.Listing.GetListings)

		// GET /product/get-specific-product/:id
		product.GET("/get-specific-product/:id", ctrls.Listing.GetListing)
	}
}
