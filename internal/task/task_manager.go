package task

import (
	"context"
	"errors"
	"log"
	"time"

	"harvest_hub_v2_202601/internal/service"
)

// ErrTaskDisabled 任务未启用
var ErrTaskDisabled = errors.New("任务未启用")

// ==================== TaskManager 后台任务管理器 ====================

// TaskManager 统一管理后台任务
// 管理范围：竞拍状态对账
type TaskManager struct {
	biddingTask *BiddingStatusTask
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	ListingService *service.ListingService
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	// 竞拍状态对账
	SweepEnabled     bool
	SweepSpec        string
	SweepTickTimeout time.Duration
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		SweepEnabled:     true,
		SweepSpec:        "0 * * * * *", // 每分钟整点
		SweepTickTimeout: 50 * time.Second,
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tm := &TaskManager{}

	if cfg.SweepEnabled && deps.ListingService != nil {
		tm.biddingTask = NewBiddingStatusTask(deps.ListingService)
		tm.biddingTask.SetSchedule(cfg.SweepSpec, cfg.SweepTickTimeout)
	}

	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有任务
func (tm *TaskManager) Start() {
	log.Println("[TaskManager] 正在启动后台任务...")

	if tm.biddingTask != nil {
		tm.biddingTask.Start()
	}

	log.Println("[TaskManager] 后台任务已全部启动")
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	log.Println("[TaskManager] 正在停止后台任务...")

	if tm.biddingTask != nil {
		tm.biddingTask.Stop()
	}

	log.Println("[TaskManager] 后台任务已全部停止")
}

// ==================== 手动触发接口 ====================

// TriggerSweep 立即执行一轮竞拍状态对账
func (tm *TaskManager) TriggerSweep(ctx context.Context) (int, error) {
	if tm.biddingTask == nil {
		return 0, ErrTaskDisabled
	}
	return tm.biddingTask.ListingService.ReconcileBiddingStatuses(ctx, time.Now())
}
