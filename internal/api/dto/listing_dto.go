package dto

import (
	"time"

	"harvest_hub_v2_202601/internal/model"
)

// ==================== 请求 DTO ====================

// CreateListingReq 发布商品请求（multipart 表单字段，图片文件另取）
type CreateListingReq struct {
	Name          string  `form:"name" binding:"required,max=255"`
	Description   string  `form:"description" binding:"required"`
	StartingPrice float64 `form:"starting_price" binding:"gte=0"`
	Quantity      int     `form:"quantity" binding:"required,gte=1"`

	// RFC3339 时间字符串，controller 负责解析
	SaleStart string `form:"sale_start" binding:"required"`
	SaleEnd   string `form:"sale_end" binding:"required"`
	BidStart  string `form:"bid_start" binding:"required"`
	BidEnd    string `form:"bid_end" binding:"required"`
}

// ModerateListingReq 审核裁决请求
type ModerateListingReq struct {
	Action          string `json:"action" binding:"required"` // Accept | Reject
	RejectionReason string `json:"rejection_reason"`
}

// ==================== 响应 DTO ====================

// ListingResp 商品响应
type ListingResp struct {
	ID              int64     `json:"id"`
	FarmerID        int64     `json:"farmer_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	StartingPrice   float64   `json:"starting_price"`
	Quantity        int       `json:"quantity"`
	TotalBidAmount  float64   `json:"total_bid_amount"`
	SaleStart       time.Time `json:"sale_start"`
	SaleEnd         time.Time `json:"sale_end"`
	BidStart        time.Time `json:"bid_start"`
	BidEnd          time.Time `json:"bid_end"`
	Status          string    `json:"status"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	Quality         string    `json:"quality"`
	BiddingStatus   string    `json:"bidding_status"`
	Images          []string  `json:"images"`
	CreatedAt       time.Time `json:"created_at"`
}

// ToListingResp Model -> 响应 DTO
func ToListingResp(l *model.Listing) ListingResp {
	return ListingResp{
		ID:              l.ID,
		FarmerID:        l.FarmerID,
		Name:            l.Name,
		Description:     l.Description,
		StartingPrice:   l.StartingPrice,
		Quantity:        l.Quantity,
		TotalBidAmount:  l.TotalBidAmount,
		SaleStart:       l.SaleStart,
		SaleEnd:         l.SaleEnd,
		BidStart:        l.BidStart,
		BidEnd:          l.BidEnd,
		Status:          string(l.Status),
		RejectionReason: l.RejectionReason,
		Quality:         l.Quality,
		BiddingStatus:   string(l.BiddingStatus),
		Images:          l.Images,
		CreatedAt:       l.CreatedAt,
	}
}

// ListingListResp 商品列表响应
type ListingListResp struct {
	Code     int           `json:"code"`
	Message  string        `json:"message"`
	Data     []ListingResp `json:"data"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}
