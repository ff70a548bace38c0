package task

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"harvest_hub_v2_202601/internal/service"
)

// ==================== 竞拍状态对账任务 ====================

// BiddingStatusTask 周期性纠正所有商品的竞拍状态
// 全进程单实例；对账天然幂等，多实例部署时重复执行也无害
type BiddingStatusTask struct {
	ListingService *service.ListingService
	Cron           *cron.Cron

	spec        string        // cron 表达式
	tickTimeout time.Duration // 单轮超时
	running     atomic.Bool   // 上一轮未结束时跳过本轮，不排队
}

// NewBiddingStatusTask 创建对账任务，默认每分钟整点执行
func NewBiddingStatusTask(listingService *service.ListingService) *BiddingStatusTask {
	return &BiddingStatusTask{
		ListingService: listingService,
		Cron:           cron.New(cron.WithSeconds()), // 支持秒级控制
		spec:           "0 * * * * *",                // 每分钟
		tickTimeout:    50 * time.Second,             // 必须小于调度间隔
	}
}

// SetSchedule 覆盖调度参数
func (t *BiddingStatusTask) SetSchedule(spec string, tickTimeout time.Duration) {
	t.spec = spec
	t.tickTimeout = tickTimeout
}

// Start 启动定时任务
func (t *BiddingStatusTask) Start() {
	// 首次执行，修复停机期间积压的过期状态
	go func() {
		log.Println("[Task] 服务启动，正在执行首次竞拍状态对账...")
		t.RunOnce()
	}()

	_, err := t.Cron.AddFunc(t.spec, func() {
		t.RunOnce()
	})
	if err != nil {
		log.Fatalf("无法启动竞拍状态对账任务: %v", err)
	}

	t.Cron.Start()
	log.Printf("竞拍状态对账任务已启动 (%s)", t.spec)
}

// Stop 停止定时任务，等待进行中的一轮结束
func (t *BiddingStatusTask) Stop() {
	ctx := t.Cron.Stop()
	<-ctx.Done()
	log.Println("[Task] 竞拍状态对账任务已停止")
}

// RunOnce 执行一轮对账
// 失败只记日志，下一轮独立重试；调度器本身永不崩溃
func (t *BiddingStatusTask) RunOnce() {
	// 上一轮还没跑完就跳过，避免重叠执行
	if !t.running.CompareAndSwap(false, true) {
		log.Println("[Cron] 上一轮对账尚未结束，本轮跳过")
		return
	}
	defer t.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), t.tickTimeout)
	defer cancel()

	changed, err := t.ListingService.ReconcileBiddingStatuses(ctx, time.Now())
	if err != nil {
		log.Printf("[Cron] 竞拍状态对账失败: %v", err)
		return
	}
	if changed > 0 {
		log.Printf("[Cron] 本轮对账纠正 %d 条竞拍状态", changed)
	}
}
