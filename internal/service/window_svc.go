package service

import (
	"fmt"
	"time"

	"harvest_hub_v2_202601/internal/apperr"
)

// ==================== 时间窗口策略 ====================

// WindowPolicy 销售/竞拍窗口的边界配置
// 所有校验边界集中在这里，调整政策不需要动校验逻辑
type WindowPolicy struct {
	MinSaleDuration time.Duration // 销售窗口下限
	MaxSaleDuration time.Duration // 销售窗口上限
	MinBidDuration  time.Duration // 竞拍窗口下限
	MaxBidDuration  time.Duration // 竞拍窗口上限
}

// DefaultWindowPolicy 默认策略：销售 24-72 小时，竞拍 10-60 分钟
func DefaultWindowPolicy() *WindowPolicy {
	return &WindowPolicy{
		MinSaleDuration: 24 * time.Hour,
		MaxSaleDuration: 72 * time.Hour,
		MinBidDuration:  10 * time.Minute,
		MaxBidDuration:  60 * time.Minute,
	}
}

// ==================== 窗口校验 ====================

// ValidateWindows 校验销售窗口与竞拍窗口
// 按固定顺序短路返回第一个失败项，错误码与顺序是对外契约的一部分：
//  1. 四个时间均必填
//  2. saleStart 必须在当前时间之后
//  3. saleEnd 必须晚于 saleStart
//  4. 销售时长在 [MinSaleDuration, MaxSaleDuration] 内（含边界）
//  5. 竞拍窗口完整落在销售窗口内（含边界）
//  6. 竞拍时长在 [MinBidDuration, MaxBidDuration] 内（含边界）
func (p *WindowPolicy) ValidateWindows(now, saleStart, saleEnd, bidStart, bidEnd time.Time) error {
	if saleStart.IsZero() || saleEnd.IsZero() || bidStart.IsZero() || bidEnd.IsZero() {
		return apperr.Validation(apperr.CodeMissingField, "销售与竞拍的起止时间均为必填")
	}

	if !saleStart.After(now) {
		return apperr.Validation(apperr.CodeSaleStartNotFuture, "销售开始时间必须晚于当前时间")
	}

	if !saleEnd.After(saleStart) {
		return apperr.Validation(apperr.CodeSaleEndBeforeStart, "销售结束时间必须晚于开始时间")
	}

	saleDuration := saleEnd.Sub(saleStart)
	if saleDuration < p.MinSaleDuration || saleDuration > p.MaxSaleDuration {
		return apperr.Validation(apperr.CodeSaleDurationOutOfRange,
			fmt.Sprintf("销售时长必须在 %v 到 %v 之间", p.MinSaleDuration, p.MaxSaleDuration))
	}

	if bidStart.Before(saleStart) || bidEnd.After(saleEnd) {
		return apperr.Validation(apperr.CodeBidWindowOutsideSale, "竞拍窗口必须完整落在销售窗口内")
	}

	bidDuration := bidEnd.Sub(bidStart)
	if bidDuration < p.MinBidDuration || bidDuration > p.MaxBidDuration {
		return apperr.Validation(apperr.CodeBidDurationOutOfRange,
			fmt.Sprintf("竞拍时长必须在 %v 到 %v 之间", p.MinBidDuration, p.MaxBidDuration))
	}

	return nil
}
