package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"harvest_hub_v2_202601/internal/model"
)

// ==================== 接口定义 ====================

// ListingRepository 商品仓储接口
type ListingRepository interface {
	// 基础 CRUD
	Create(ctx context.Context, listing *model.Listing) error
	GetByID(ctx context.Context, id int64) (*model.Listing, error)
	List(ctx context.Context, filter ListingFilter) ([]model.Listing, int64, error)

	// 审核队列
	ListPending(ctx context.Context) ([]model.Listing, error)

	// 竞拍状态对账（定时任务的选择查询）
	ListNeedingBiddingStatusUpdate(ctx context.Context, now time.Time) ([]model.Listing, error)
	// 按字段批量写回，map 为 id -> 新状态；单条原子即可，不要求跨行事务
	BatchUpdateBiddingStatus(ctx context.Context, updates map[int64]model.BiddingStatus) error

	// 审核裁决：仅当 status 仍为 Pending 时更新，返回影响行数
	UpdateModerationIfPending(ctx context.Context, id int64, fields map[string]interface{}) (int64, error)

	// 事务
	WithTx(tx *gorm.DB) ListingRepository
	Transaction(ctx context.Context, fn func(txRepo ListingRepository) error) error
}

// ==================== 过滤条件 ====================

// ListingFilter 商品列表过滤条件
type ListingFilter struct {
	FarmerID      int64
	Status        model.ListingStatus
	BiddingStatus model.BiddingStatus
	Page          int
	PageSize      int
}

// ==================== 仓储实现 ====================

type listingRepo struct {
	db *gorm.DB
}

// NewListingRepository 创建商品仓储
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepo{db: db}
}

func (r *listingRepo) Create(ctx context.Context, listing *model.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

// GetByID 查不到时返回 (nil, nil)，由 service 层决定如何上抛
func (r *listingRepo) GetByID(ctx context.Context, id int64) (*model.Listing, error) {
	var listing model.Listing
	err := r.db.WithContext(ctx).First(&listing, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepo) List(ctx context.Context, filter ListingFilter) ([]model.Listing, int64, error) {
	var listings []model.Listing
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Listing{})

	if filter.FarmerID > 0 {
		query = query.Where("farmer_id = ?", filter.FarmerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.BiddingStatus != "" {
		query = query.Where("bidding_status = ?", filter.BiddingStatus)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	offset := (filter.Page - 1) * filter.PageSize
	err := query.
		Order("created_at DESC").
		Limit(filter.PageSize).
		Offset(offset).
		Find(&listings).Error

	return listings, total, err
}

func (r *listingRepo) ListPending(ctx context.Context) ([]model.Listing, error) {
	var listings []model.Listing
	err := r.db.WithContext(ctx).
		Where("status = ?", model.ListingStatusPending).
		Order("created_at ASC").
		Find(&listings).Error
	return listings, err
}

// ListNeedingBiddingStatusUpdate 选出存储状态与当前时间不一致的商品：
//   - Active 但竞拍已结束 (bid_end <= now)
//   - Upcoming 但竞拍已开始 (bid_start <= now)
//   - 状态值不在合法枚举内的脏数据
func (r *listingRepo) ListNeedingBiddingStatusUpdate(ctx context.Context, now time.Time) ([]model.Listing, error) {
	var listings []model.Listing
	err := r.db.WithContext(ctx).
		Where("(bidding_status = ? AND bid_end <= ?)", model.BiddingStatusActive, now).
		Or("(bidding_status = ? AND bid_start <= ?)", model.BiddingStatusUpcoming, now).
		Or("bidding_status NOT IN ?", []model.BiddingStatus{
			model.BiddingStatusUpcoming,
			model.BiddingStatusActive,
			model.BiddingStatusEnded,
		}).
		Find(&listings).Error
	return listings, err
}

// BatchUpdateBiddingStatus 只更新 bidding_status 单字段，避免覆盖并发中的审核字段
func (r *listingRepo) BatchUpdateBiddingStatus(ctx context.Context, updates map[int64]model.BiddingStatus) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, status := range updates {
			if err := tx.Model(&model.Listing{}).
				Where("id = ?", id).
				Update("bidding_status", status).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateModerationIfPending 条件更新，status 不再是 Pending 时影响行数为 0
// 并发的两次裁决只会有一次成功
func (r *listingRepo) UpdateModerationIfPending(ctx context.Context, id int64, fields map[string]interface{}) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("id = ? AND status = ?", id, model.ListingStatusPending).
		Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *listingRepo) WithTx(tx *gorm.DB) ListingRepository {
	return &listingRepo{db: tx}
}

func (r *listingRepo) Transaction(ctx context.Context, fn func(txRepo ListingRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
