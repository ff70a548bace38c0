package model

import (
	"time"

	"github.com/lib/pq"
)

// ==================== 状态枚举 ====================

// ListingStatus 审核状态（管理员裁决，只能离开 Pending 一次）
type ListingStatus string

const (
	ListingStatusPending  ListingStatus = "Pending"
	ListingStatusAccepted ListingStatus = "Accepted"
	ListingStatusRejected ListingStatus = "Rejected"
)

// BiddingStatus 竞拍状态（由时间推导，不允许外部直接设置）
type BiddingStatus string

const (
	BiddingStatusUpcoming BiddingStatus = "Upcoming"
	BiddingStatusActive   BiddingStatus = "Active"
	BiddingStatusEnded    BiddingStatus = "Ended"
)

// 质检标记
const (
	QualityNotVerified = "Not-Verified"
	QualityVerified    = "Verified"
)

// RequiredImageCount 每个商品必须恰好 3 张图片
const RequiredImageCount = 3

// ==================== Listing 模型 ====================

// Listing 农户发布的竞拍商品
type Listing struct {
	BaseModel

	// --- 归属 ---
	FarmerID int64 `gorm:"index:idx_farmer_status;not null" json:"farmer_id"` // 创建后不可变更
	Farmer   *User `gorm:"foreignKey:FarmerID" json:"farmer,omitempty"`

	// --- 商品基本信息 ---
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text;not null" json:"description"`

	// --- 价格与数量 ---
	StartingPrice  float64 `gorm:"not null" json:"starting_price"`
	Quantity       int     `gorm:"not null" json:"quantity"`
	TotalBidAmount float64 `json:"total_bid_amount"` // 创建时计算 = StartingPrice * Quantity

	// --- 时间窗口 ---
	SaleStart time.Time `gorm:"not null" json:"sale_start"`
	SaleEnd   time.Time `gorm:"not null" json:"sale_end"`
	BidStart  time.Time `gorm:"index;not null" json:"bid_start"`
	BidEnd    time.Time `gorm:"index;not null" json:"bid_end"`

	// --- 审核轴 ---
	Status          ListingStatus `gorm:"size:20;default:'Pending';index:idx_farmer_status" json:"status"`
	RejectionReason string        `gorm:"size:500" json:"rejection_reason,omitempty"`
	VerifiedBy      int64         `gorm:"default:0" json:"verified_by,omitempty"` // 裁决管理员 ID，仅 Accepted 时写入
	Quality         string        `gorm:"size:20;default:'Not-Verified'" json:"quality"`

	// --- 竞拍轴 ---
	BiddingStatus BiddingStatus `gorm:"size:20;index:idx_bidding_end,priority:1" json:"bidding_status"`

	// --- 图片 (Postgres Array，恰好 3 个外部 URL) ---
	Images pq.StringArray `gorm:"type:text[]" json:"images"`

	// --- 最高出价快照（结算流程未实现，仅占位） ---
	HighestBidderID  int64      `gorm:"default:0" json:"highest_bidder_id,omitempty"`
	HighestBidAmount float64    `gorm:"default:0" json:"highest_bid_amount,omitempty"`
	HighestBidAt     *time.Time `json:"highest_bid_at,omitempty"`
	BidProcessed     bool       `gorm:"default:false" json:"bid_processed"`
}

func (Listing) TableName() string {
	return "listings"
}

// ==================== 竞拍状态推导 ====================

// DeriveBiddingStatus 根据当前时间推导竞拍状态
// 区间为左闭右开：now == BidStart 即 Active，now == BidEnd 即 Ended
// 纯函数，重复执行结果不变
func DeriveBiddingStatus(now, bidStart, bidEnd time.Time) BiddingStatus {
	switch {
	case now.Before(bidStart):
		return BiddingStatusUpcoming
	case now.Before(bidEnd):
		return BiddingStatusActive
	default:
		return BiddingStatusEnded
	}
}

// ValidBiddingStatus 判断存量数据里的状态是否合法
func ValidBiddingStatus(s BiddingStatus) bool {
	switch s {
	case BiddingStatusUpcoming, BiddingStatusActive, BiddingStatusEnded:
		return true
	}
	return false
}
