package repository

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"harvest_hub_v2_202601/internal/model"
)

// 测试用影子模型：与 listings 表同名，images 用 text 存储以兼容 sqlite
type testListing struct {
	ID               int64 `gorm:"primary_key;AUTO_INCREMENT"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`
	FarmerID         int64
	Name             string
	Description      string
	StartingPrice    float64
	Quantity         int
	TotalBidAmount   float64
	SaleStart        time.Time
	SaleEnd          time.Time
	BidStart         time.Time
	BidEnd           time.Time
	Status           string `gorm:"default:'Pending'"`
	RejectionReason  string
	VerifiedBy       int64
	Quality          string `gorm:"default:'Not-Verified'"`
	BiddingStatus    string
	Images           string `gorm:"type:text"`
	HighestBidderID  int64
	HighestBidAmount float64
	HighestBidAt     *time.Time
	BidProcessed     bool
}

func (testListing) TableName() string { return "listings" }

func setupListingTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	if err := db.AutoMigrate(&testListing{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

func newTestListing(farmerID int64, biddingStatus model.BiddingStatus, bidStart, bidEnd time.Time) *model.Listing {
	return &model.Listing{
		FarmerID:      farmerID,
		Name:          "有机西红柿",
		Description:   "现摘现发",
		StartingPrice: 12.5,
		Quantity:      100,
		SaleStart:     bidStart.Add(-time.Hour),
		SaleEnd:       bidEnd.Add(24 * time.Hour),
		BidStart:      bidStart,
		BidEnd:        bidEnd,
		Status:        model.ListingStatusPending,
		Quality:       model.QualityNotVerified,
		BiddingStatus: biddingStatus,
		Images:        []string{"https://img.test/1.jpg", "https://img.test/2.jpg", "https://img.test/3.jpg"},
	}
}

// ==================== 基础 CRUD ====================

func TestListingRepo_CreateAndGet(t *testing.T) {
	db := setupListingTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	now := time.Now()
	listing := newTestListing(1, model.BiddingStatusUpcoming, now.Add(49*time.Hour), now.Add(49*time.Hour+30*time.Minute))
	if err := repo.Create(ctx, listing); err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}
	if listing.ID == 0 {
		t.Fatal("创建后应回填 ID")
	}

	got, err := repo.GetByID(ctx, listing.ID)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if got == nil {
		t.Fatal("应查到刚创建的商品")
	}
	if got.Status != model.ListingStatusPending {
		t.Fatalf("默认审核状态应为 Pending，实际 %s", got.Status)
	}
	if len(got.Images) != model.RequiredImageCount {
		t.Fatalf("图片数量 = %d，期望 %d", len(got.Images), model.RequiredImageCount)
	}
}

func TestListingRepo_GetByID_NotFound(t *testing.T) {
	db := setupListingTestDB(t)
	repo := NewListingRepository(db)

	got, err := repo.GetByID(context.Background(), 9999)
	if err != nil {
		t.Fatalf("不存在的 ID 不应报错: %v", err)
	}
	if got != nil {
		t.Fatal("不存在的 ID 应返回 nil")
	}
}

// ==================== 对账选择查询 ====================

func TestListingRepo_ListNeedingBiddingStatusUpdate(t *testing.T) {
	db := setupListingTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// ① Active 且已到结束时间 —— 应选中
	stale1 := newTestListing(1, model.BiddingStatusActive, now.Add(-time.Hour), now.Add(-30*time.Minute))
	// ② Upcoming 且已到开始时间 —— 应选中
	stale2 := newTestListing(1, model.BiddingStatusUpcoming, now.Add(-10*time.Minute), now.Add(20*time.Minute))
	// ③ 非法状态值 —— 应选中
	dirty := newTestListing(2, model.BiddingStatus("Bidding Ended"), now.Add(-2*time.Hour), now.Add(-time.Hour))
	// ④ Active 且仍在窗口内 —— 不应选中
	fresh := newTestListing(2, model.BiddingStatusActive, now.Add(-5*time.Minute), now.Add(25*time.Minute))
	// ⑤ Upcoming 且未开始 —— 不应选中
	future := newTestListing(3, model.BiddingStatusUpcoming, now.Add(time.Hour), now.Add(90*time.Minute))

	for _, l := range []*model.Listing{stale1, stale2, dirty, fresh, future} {
		if err := repo.Create(ctx, l); err != nil {
			t.Fatalf("准备数据失败: %v", err)
		}
	}

	got, err := repo.ListNeedingBiddingStatusUpdate(ctx, now)
	if err != nil {
		t.Fatalf("对账查询失败: %v", err)
	}

	wantIDs := map[int64]bool{stale1.ID: true, stale2.ID: true, dirty.ID: true}
	if len(got) != len(wantIDs) {
		t.Fatalf("选中 %d 条，期望 %d 条", len(got), len(wantIDs))
	}
	for _, l := range got {
		if !wantIDs[l.ID] {
			t.Fatalf("不应选中 id=%d (status=%s)", l.ID, l.BiddingStatus)
		}
	}
}

// 边界：now 恰好等于 bid_end 的 Active 商品必须被选中
func TestListingRepo_SelectAtExactBidEnd(t *testing.T) {
	db := setupListingTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	l := newTestListing(1, model.BiddingStatusActive, now.Add(-30*time.Minute), now)
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("准备数据失败: %v", err)
	}

	got, err := repo.ListNeedingBiddingStatusUpdate(ctx, now)
	if err != nil {
		t.Fatalf("对账查询失败: %v", err)
	}
	if len(got) != 1 || got[0].ID != l.ID {
		t.Fatalf("bid_end == now 的 Active 商品应被选中, got=%v", got)
	}
}

// ==================== 批量状态写回 ====================

func TestListingRepo_BatchUpdateBiddingStatus(t *testing.T) {
	db := setupListingTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	l1 := newTestListing(1, model.BiddingStatusActive, now.Add(-time.Hour), now.Add(-30*time.Minute))
	l2 := newTestListing(1, model.BiddingStatusUpcoming, now.Add(-10*time.Minute), now.Add(20*time.Minute))
	untouched := newTestListing(2, model.BiddingStatusUpcoming, now.Add(time.Hour), now.Add(90*time.Minute))
	for _, l := range []*model.Listing{l1, l2, untouched} {
		if err := repo.Create(ctx, l); err != nil {
			t.Fatalf("准备数据失败: %v", err)
		}
	}

	err := repo.BatchUpdateBiddingStatus(ctx, map[int64]model.BiddingStatus{
		l1.ID: model.BiddingStatusEnded,
		l2.ID: model.BiddingStatusActive,
	})
	if err != nil {
		t.Fatalf("批量更新失败: %v", err)
	}

	got1, _ := repo.GetByID(ctx, l1.ID)
	got2, _ := repo.GetByID(ctx, l2.ID)
	got3, _ := repo.GetByID(ctx, untouched.ID)

	if got1.BiddingStatus != model.BiddingStatusEnded {
		t.Fatalf("l1 状态 = %s，期望 Ended", got1.BiddingStatus)
	}
	if got2.BiddingStatus != model.BiddingStatusActive {
		t.Fatalf("l2 状态 = %s，期望 Active", got2.BiddingStatus)
	}
	if got3.BiddingStatus != model.BiddingStatusUpcoming {
		t.Fatalf("未纳入批量的商品状态不应变化，实际 %s", got3.BiddingStatus)
	}

	// 批量写回只动 bidding_status，审核字段不能被覆盖
	if got1.Status != model.ListingStatusPending {
		t.Fatalf("审核状态被批量写回污染: %s", got1.Status)
	}

	// 空 map 应当是无操作
	if err := repo.BatchUpdateBiddingStatus(ctx, nil); err != nil {
		t.Fatalf("空批量应为 no-op: %v", err)
	}
}

// ==================== 一次性裁决 ====================

func TestListingRepo_UpdateModerationIfPending(t *testing.T) {
	db := setupListingTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	l := newTestListing(1, model.BiddingStatusUpcoming, now.Add(time.Hour), now.Add(90*time.Minute))
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("准备数据失败: %v", err)
	}

	// 第一次裁决：成功，影响 1 行
	rows, err := repo.UpdateModerationIfPending(ctx, l.ID, map[string]interface{}{
		"status":      model.ListingStatusAccepted,
		"verified_by": int64(42),
		"quality":     model.QualityVerified,
	})
	if err != nil {
		t.Fatalf("裁决更新失败: %v", err)
	}
	if rows != 1 {
		t.Fatalf("首次裁决影响行数 = %d，期望 1", rows)
	}

	// 第二次裁决：Pending 前置条件不再成立，影响 0 行
	rows, err = repo.UpdateModerationIfPending(ctx, l.ID, map[string]interface{}{
		"status":           model.ListingStatusRejected,
		"rejection_reason": "重复裁决",
	})
	if err != nil {
		t.Fatalf("二次裁决不应报底层错误: %v", err)
	}
	if rows != 0 {
		t.Fatalf("二次裁决影响行数 = %d，期望 0", rows)
	}

	got, _ := repo.GetByID(ctx, l.ID)
	if got.Status != model.ListingStatusAccepted || got.VerifiedBy != 42 || got.Quality != model.QualityVerified {
		t.Fatalf("首次裁决结果被覆盖: %+v", got)
	}
}
