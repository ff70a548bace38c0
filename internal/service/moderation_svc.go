package service

import (
	"context"
	"strings"

	"harvest_hub_v2_202601/internal/apperr"
	"harvest_hub_v2_202601/internal/model"
	"harvest_hub_v2_202601/internal/repository"
)

// ==================== 审核动作 ====================

type ModerationAction string

const (
	ActionAccept ModerationAction = "Accept"
	ActionReject ModerationAction = "Reject"
)

// ==================== ModerationService ====================

// ModerationService 管理员审核流程
// 状态只能离开 Pending 一次，靠条件更新兜底并发
type ModerationService struct {
	ListingRepo repository.ListingRepository
}

// NewModerationService 工厂方法
func NewModerationService(listingRepo repository.ListingRepository) *ModerationService {
	return &ModerationService{ListingRepo: listingRepo}
}

// Moderate 裁决一个待审核商品
// 成功时恰好一次写库；任何失败都不产生可见的部分变更
func (s *ModerationService) Moderate(ctx context.Context, actor model.Actor, listingID int64, action ModerationAction, reason string) (*model.Listing, error) {
	if actor.Role != model.RoleAdmin {
		return nil, apperr.Authorization("只有管理员可以审核商品")
	}

	listing, err := s.ListingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, apperr.Internal("商品查询失败", err)
	}
	if listing == nil {
		return nil, apperr.NotFound(apperr.CodeListingNotFound, "商品不存在")
	}
	if listing.Status != model.ListingStatusPending {
		return nil, apperr.Conflict(apperr.CodeAlreadyDecided, "该商品已完成审核，不能重复裁决")
	}

	var fields map[string]interface{}
	switch action {
	case ActionAccept:
		fields = map[string]interface{}{
			"status":      model.ListingStatusAccepted,
			"verified_by": actor.UserID,
			"quality":     model.QualityVerified,
		}
	case ActionReject:
		if strings.TrimSpace(reason) == "" {
			return nil, apperr.Validation(apperr.CodeMissingRejectionReason, "驳回必须填写原因")
		}
		fields = map[string]interface{}{
			"status":           model.ListingStatusRejected,
			"rejection_reason": reason,
		}
	default:
		return nil, apperr.Validation(apperr.CodeInvalidAction, "action 只能是 Accept 或 Reject")
	}

	rows, err := s.ListingRepo.UpdateModerationIfPending(ctx, listingID, fields)
	if err != nil {
		return nil, apperr.Internal("审核结果保存失败", err)
	}
	if rows == 0 {
		// 读到 Pending 之后被并发裁决抢先，按冲突处理
		return nil, apperr.Conflict(apperr.CodeAlreadyDecided, "该商品已完成审核，不能重复裁决")
	}

	updated, err := s.ListingRepo.GetByID(ctx, listingID)
	if err != nil || updated == nil {
		return nil, apperr.Internal("审核后回读失败", err)
	}
	return updated, nil
}

// ListPending 审核队列
func (s *ModerationService) ListPending(ctx context.Context) ([]model.Listing, error) {
	listings, err := s.ListingRepo.ListPending(ctx)
	if err != nil {
		return nil, apperr.Internal("审核队列查询失败", err)
	}
	return listings, nil
}
