package service

import (
	"context"
	"fmt"
	"time"

	"harvest_hub_v2_202601/internal/apperr"
	"harvest_hub_v2_202601/internal/model"
	"harvest_hub_v2_202601/internal/repository"
	"harvest_hub_v2_202601/pkg/utils"
)

// ==================== ListingService ====================

// ListingService 商品发布与竞拍状态生命周期
type ListingService struct {
	ListingRepo repository.ListingRepository
	Storage     *StorageService
	Policy      *WindowPolicy

	// 可注入的时钟，测试时固定时间
	now func() time.Time
}

// NewListingService 工厂方法
func NewListingService(listingRepo repository.ListingRepository, storage *StorageService, policy *WindowPolicy) *ListingService {
	if policy == nil {
		policy = DefaultWindowPolicy()
	}
	return &ListingService{
		ListingRepo: listingRepo,
		Storage:     storage,
		Policy:      policy,
		now:         time.Now,
	}
}

// SetClock 覆盖时钟（仅测试）
func (s *ListingService) SetClock(now func() time.Time) {
	s.now = now
}

// ==================== 创建 ====================

// CreateListingInput 创建商品入参（时间已在 DTO 层解析）
type CreateListingInput struct {
	Name          string
	Description   string
	StartingPrice float64
	Quantity      int
	SaleStart     time.Time
	SaleEnd       time.Time
	BidStart      time.Time
	BidEnd        time.Time
}

// CreateListing 农户发布商品
// 校验 -> 全量上传图片 -> 计算派生字段 -> 落库，任何一步失败都不产生部分状态
func (s *ListingService) CreateListing(ctx context.Context, actor model.Actor, input CreateListingInput, images []UploadFile) (*model.Listing, error) {
	if actor.Role != model.RoleFarmer {
		return nil, apperr.Authorization("只有农户可以发布商品")
	}

	if len(images) != model.RequiredImageCount {
		return nil, apperr.Validation(apperr.CodeImageCountInvalid,
			fmt.Sprintf("必须上传 %d 张图片，实际 %d 张", model.RequiredImageCount, len(images)))
	}
	for i, img := range images {
		if !utils.IsImage(img.Data, img.ContentType) {
			return nil, apperr.Validation(apperr.CodeImageTypeInvalid,
				fmt.Sprintf("第 %d 个文件不是有效图片", i+1))
		}
	}

	if input.Name == "" || input.Description == "" {
		return nil, apperr.Validation(apperr.CodeMissingField, "商品名称和描述为必填")
	}
	if input.StartingPrice < 0 {
		return nil, apperr.Validation(apperr.CodeMissingField, "起拍价不能为负数")
	}
	if input.Quantity < 1 {
		return nil, apperr.Validation(apperr.CodeMissingField, "数量至少为 1")
	}

	now := s.now()
	if err := s.Policy.ValidateWindows(now, input.SaleStart, input.SaleEnd, input.BidStart, input.BidEnd); err != nil {
		return nil, err
	}

	// 全有或全无的批量上传，失败时内部已回滚
	urls, err := s.Storage.UploadBatch(ctx, images)
	if err != nil {
		return nil, err
	}

	listing := &model.Listing{
		FarmerID:       actor.UserID,
		Name:           input.Name,
		Description:    input.Description,
		StartingPrice:  input.StartingPrice,
		Quantity:       input.Quantity,
		TotalBidAmount: input.StartingPrice * float64(input.Quantity),
		SaleStart:      input.SaleStart,
		SaleEnd:        input.SaleEnd,
		BidStart:       input.BidStart,
		BidEnd:         input.BidEnd,
		Status:         model.ListingStatusPending,
		Quality:        model.QualityNotVerified,
		BiddingStatus:  model.DeriveBiddingStatus(now, input.BidStart, input.BidEnd),
		Images:         urls,
	}

	if err := s.ListingRepo.Create(ctx, listing); err != nil {
		// 落库失败同样不留下图片
		s.Storage.rollback(ctx, urls)
		return nil, apperr.Internal("商品保存失败", err)
	}

	return listing, nil
}

// ==================== 查询 ====================

// GetListing 商品详情
func (s *ListingService) GetListing(ctx context.Context, id int64) (*model.Listing, error) {
	listing, err := s.ListingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("商品查询失败", err)
	}
	if listing == nil {
		return nil, apperr.NotFound(apperr.CodeListingNotFound, "商品不存在")
	}
	return listing, nil
}

// ListListings 商品列表，按创建时间倒序
func (s *ListingService) ListListings(ctx context.Context, filter repository.ListingFilter) ([]model.Listing, int64, error) {
	listings, total, err := s.ListingRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Internal("商品列表查询失败", err)
	}
	return listings, total, nil
}

// ==================== 竞拍状态对账（定时任务核心） ====================

// ReconcileBiddingStatuses 扫描存储状态与当前时间不一致的商品并批量纠正
// 只写回状态确实变化的行，幂等：同一时刻重复执行第二次不会再写任何行
// 返回本轮纠正的条数
func (s *ListingService) ReconcileBiddingStatuses(ctx context.Context, now time.Time) (int, error) {
	listings, err := s.ListingRepo.ListNeedingBiddingStatusUpdate(ctx, now)
	if err != nil {
		return 0, apperr.Internal("对账查询失败", err)
	}

	updates := make(map[int64]model.BiddingStatus, len(listings))
	for _, l := range listings {
		newStatus := model.DeriveBiddingStatus(now, l.BidStart, l.BidEnd)
		if newStatus != l.BiddingStatus {
			updates[l.ID] = newStatus
		}
	}

	if len(updates) == 0 {
		return 0, nil
	}

	if err := s.ListingRepo.BatchUpdateBiddingStatus(ctx, updates); err != nil {
		return 0, apperr.Internal("对账批量写回失败", err)
	}

	return len(updates), nil
}
