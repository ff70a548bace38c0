package controller

import (
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"harvest_hub_v2_202601/internal/api/dto"
	"harvest_hub_v2_202601/internal/middleware"
	"harvest_hub_v2_202601/internal/model"
	"harvest_hub_v2_202601/internal/repository"
	"harvest_hub_v2_202601/internal/service"
)

type ListingController struct {
	listingService    *service.ListingService
	moderationService *service.ModerationService
}

func NewListingController(listingService *service.ListingService, moderationService *service.ModerationService) *ListingController {
	return &ListingController{
		listingService:    listingService,
		moderationService: moderationService,
	}
}

// ==================== 发布接口 ====================

// CreateListing 农户发布商品
// @Summary 发布竞拍商品（multipart，恰好 3 张图片）
// @Tags Listing
// @Accept multipart/form-data
// @Success 201 {object} dto.ListingResp
// @Router /product/create-order [post]
func (ctrl *ListingController) CreateListing(c *gin.Context) {
	var req dto.CreateListingReq
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	// 解析时间字段
	times := make([]time.Time, 0, 4)
	for _, raw := range []string{req.SaleStart, req.SaleEnd, req.BidStart, req.BidEnd} {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(400, gin.H{"code": 400, "message": "时间格式错误，需为 RFC3339: " + raw})
			return
		}
		times = append(times, parsed)
	}

	// 取出图片文件
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "缺少图片文件"})
		return
	}
	fileHeaders := form.File["images"]

	files := make([]service.UploadFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			c.JSON(400, gin.H{"code": 400, "message": "图片读取失败"})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(400, gin.H{"code": 400, "message": "图片读取失败"})
			return
		}
		files = append(files, service.UploadFile{
			Data:        data,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
		})
	}

	actor := middleware.CurrentActor(c)
	input := service.CreateListingInput{
		Name:          req.Name,
		Description:   req.Description,
		StartingPrice: req.StartingPrice,
		Quantity:      req.Quantity,
		SaleStart:     times[0],
		SaleEnd:       times[1],
		BidStart:      times[2],
		BidEnd:        times[3],
	}

	listing, err := ctrl.listingService.CreateListing(c.Request.Context(), actor, input, files)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(201, gin.H{
		"code":    0,
		"message": "success",
		"data":    dto.ToListingResp(listing),
	})
}

// ==================== 查询接口 ====================

// GetListings 获取商品列表
// @Summary 获取商品列表（按创建时间倒序）
// @Tags Listing
// @Param status query string false "审核状态筛选"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} dto.ListingListResp
// @Router /product/get-all-products [get]
func (ctrl *ListingController) GetListings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	farmerID, _ := strconv.ParseInt(c.Query("farmer_id"), 10, 64)

	filter := repository.ListingFilter{
		FarmerID:      farmerID,
		Status:        model.ListingStatus(c.Query("status")),
		BiddingStatus: model.BiddingStatus(c.Query("bidding_status")),
		Page:          page,
		PageSize:      pageSize,
	}

	listings, total, err := ctrl.listingService.ListListings(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	respList := make([]dto.ListingResp, 0, len(listings))
	for _, l := range listings {
		respList = append(respList, dto.ToListingResp(&l))
	}

	c.JSON(200, dto.ListingListResp{
		Code:     0,
		Message:  "success",
		Data:     respList,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// GetListing 获取商品详情
// @Summary 获取单个商品详情
// @Tags Listing
// @Param id path int true "商品ID"
// @Success 200 {object} dto.ListingResp
// @Router /product/get-specific-product/{id} [get]
func (ctrl *ListingController) GetListing(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的商品ID"})
		return
	}

	listing, err := ctrl.listingService.GetListing(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    dto.ToListingResp(listing),
	})
}

// ==================== 审核接口 ====================

// VerifyListing 管理员审核商品
// @Summary 审核裁决（Accept/Reject，一次性）
// @Tags Listing
// @Param id path int true "商品ID"
// @Success 200 {object} dto.ListingResp
// @Router /product/verify/{id} [put]
func (ctrl *ListingController) VerifyListing(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的商品ID"})
		return
	}

	var req dto.ModerateListingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	actor := middleware.CurrentActor(c)
	listing, err := ctrl.moderationService.Moderate(
		c.Request.Context(),
		actor,
		id,
		service.ModerationAction(req.Action),
		req.RejectionReason,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    dto.ToListingResp(listing),
	})
}

// GetPendingListings 审核队列
// @Summary 获取待审核商品
// @Tags Listing
// @Success 200 {object} dto.ListingListResp
// @Router /product/pending [get]
func (ctrl *ListingController) GetPendingListings(c *gin.Context) {
	listings, err := ctrl.moderationService.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respList := make([]dto.ListingResp, 0, len(listings))
	for _, l := range listings {
		respList = append(respList, dto.ToListingResp(&l))
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    respList,
	})
}
