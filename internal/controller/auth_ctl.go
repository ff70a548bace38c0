package controller

import (
	"github.com/gin-gonic/gin"

	"harvest_hub_v2_202601/internal/api/dto"
	"harvest_hub_v2_202601/internal/service"
)

type AuthController struct {
	authService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// Signup 用户注册
// @Summary 注册（Farmer/Buyer，Admin 不可注册）
// @Tags Auth
// @Success 201 {object} dto.AuthResponse
// @Router /user/signup [post]
func (ctrl *AuthController) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	result, err := ctrl.authService.Signup(c.Request.Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		PhoneNo:  req.PhoneNo,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(201, gin.H{
		"code":    0,
		"message": "success",
		"data": dto.AuthResponse{
			Token: result.Token,
			User:  dto.ToUserInfo(result.User),
		},
	})
}

// Login 用户登录
// @Summary 登录
// @Tags Auth
// @Success 200 {object} dto.AuthResponse
// @Router /user/login [post]
func (ctrl *AuthController) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	result, err := ctrl.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data": dto.AuthResponse{
			Token: result.Token,
			User:  dto.ToUserInfo(result.User),
		},
	})
}
