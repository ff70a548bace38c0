package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"harvest_hub_v2_202601/internal/middleware"
	"harvest_hub_v2_202601/internal/model"
	"harvest_hub_v2_202601/internal/repository"
	"harvest_hub_v2_202601/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==================== 测试模型 ====================

// 影子模型：与 listings 表同构，images 用 text 兼容 sqlite
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

// ==================== 假存储 ====================

type fakeProvider struct {
	uploaded []string
}

func (f *fakeProvider) Upload(ctx context.Context, data []byte, filename string, contentType string) (string, error) {
	url := fmt.Sprintf("https://blob.test/%s", filename)
	f.uploaded = append(f.uploaded, url)
	return url, nil
}

func (f *fakeProvider) Delete(ctx context.Context, url string) error {
	return nil
}

// ==================== 环境搭建 ====================

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
}

func setupListingEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&testListing{}, &model.User{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	listingRepo := repository.NewListingRepository(db)
	storage := service.NewStorageServiceWith(&fakeProvider{})
	listingSvc := service.NewListingService(listingRepo, storage, service.DefaultWindowPolicy())
	moderationSvc := service.NewModerationService(listingRepo)

	ctrl := NewListingController(listingSvc, moderationSvc)

	r := gin.New()
	product := r.Group("/product")
	product.Use(middleware.JWTAuth())
	{
		product.POST("/create-order", ctrl.CreateListing)
		product.PUT("/verify/:id", ctrl.VerifyListing)
		product.GET("/pending", ctrl.GetPendingListings)
		product.GET("/get-all-products", ctrl.GetListings)
		product.GET("/get-specific-product/:id", ctrl.GetListing)
	}

	return &testEnv{router: r, db: db}
}

func tokenFor(t *testing.T, userID int64, name, role string) string {
	token, err := middleware.GenerateAccessToken(userID, name, role)
	if err != nil {
		t.Fatalf("签发测试 token 失败: %v", err)
	}
	return token
}

func doJSON(r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// jpegBytes 带 JPEG 魔数的小文件
func jpegBytes() []byte {
	return []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
}

// buildCreateForm 构造合法发布表单，imageCount 张图片
func buildCreateForm(t *testing.T, imageCount int) (*bytes.Buffer, string) {
	now := time.Now()
	fields := map[string]string{
		"name":           "有机脐橙",
		"description":    "现摘现发",
		"starting_price": "12.5",
		"quantity":       "100",
		"sale_start":     now.Add(2 * time.Hour).Format(time.RFC3339),
		"sale_end":       now.Add(2*time.Hour + 48*time.Hour).Format(time.RFC3339),
		"bid_start":      now.Add(3 * time.Hour).Format(time.RFC3339),
		"bid_end":        now.Add(3*time.Hour + 30*time.Minute).Format(time.RFC3339),
	}

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("写表单字段失败: %v", err)
		}
	}
	for i := 0; i < imageCount; i++ {
		fw, err := mw.CreateFormFile("images", fmt.Sprintf("img_%d.jpg", i))
		if err != nil {
			t.Fatalf("写图片文件失败: %v", err)
		}
		fw.Write(jpegBytes())
	}
	mw.Close()
	return buf, mw.FormDataContentType()
}

func doMultipart(r http.Handler, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", "/product/create-order", body)
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ==================== 认证测试 ====================

func TestCreateListing_NoToken(t *testing.T) {
	env := setupListingEnv(t)

	body, contentType := buildCreateForm(t, 3)
	w := doMultipart(env.router, "", body, contentType)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// ==================== 发布测试 ====================

func TestCreateListing_OK(t *testing.T) {
	env := setupListingEnv(t)
	token := tokenFor(t, 1, "farmer", model.RoleFarmer)

	body, contentType := buildCreateForm(t, 3)
	w := doMultipart(env.router, token, body, contentType)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, float64(0), resp["code"])
	assert.Equal(t, "success", resp["message"])

	data := resp["data"].(map[string]interface{})
	assert.Equal(t, string(model.ListingStatusPending), data["status"])
	assert.Len(t, data["images"], 3)
}

func TestCreateListing_WrongImageCount(t *testing.T) {
	env := setupListingEnv(t)
	token := tokenFor(t, 1, "farmer", model.RoleFarmer)

	body, contentType := buildCreateForm(t, 2)
	w := doMultipart(env.router, token, body, contentType)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateListing_NotFarmer(t *testing.T) {
	env := setupListingEnv(t)
	token := tokenFor(t, 9, "buyer", model.RoleBuyer)

	body, contentType := buildCreateForm(t, 3)
	w := doMultipart(env.router, token, body, contentType)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

// ==================== 查询测试 ====================

func TestGetListing_InvalidID(t *testing.T) {
	env := setupListingEnv(t)
	token := tokenFor(t, 9, "buyer", model.RoleBuyer)

	tests := []struct {
		name       string
		id         string
		wantStatus int
	}{
		{"无效ID: abc", "abc", http.StatusBadRequest},
		{"无效ID: 0", "0", http.StatusBadRequest},
		{"不存在的ID", "9999", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(env.router, "GET", "/product/get-specific-product/"+tt.id, token, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestGetListings_ResponseFormat(t *testing.T) {
	env := setupListingEnv(t)
	token := tokenFor(t, 9, "buyer", model.RoleBuyer)

	w := doJSON(env.router, "GET", "/product/get-all-products?page=2&page_size=10", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, float64(0), resp["code"])
	assert.Equal(t, float64(2), resp["page"])
	assert.Equal(t, float64(10), resp["page_size"])
}

// ==================== 审核测试 ====================

// seedPending 直接落一条待审核记录
func seedPending(t *testing.T, db *gorm.DB) int64 {
	now := time.Now()
	l := &testListing{
		FarmerID:      1,
		Name:          "苹果",
		Description:   "脆甜",
		StartingPrice: 5,
		Quantity:      10,
		SaleStart:     now.Add(2 * time.Hour),
		SaleEnd:       now.Add(50 * time.Hour),
		BidStart:      now.Add(3 * time.Hour),
		BidEnd:        now.Add(3*time.Hour + 30*time.Minute),
		Status:        string(model.ListingStatusPending),
		Quality:       model.QualityNotVerified,
		BiddingStatus: string(model.BiddingStatusUpcoming),
		Images:        `{"https://blob.test/a.jpg"}`,
	}
	if err := db.Create(l).Error; err != nil {
		t.Fatalf("预置数据失败: %v", err)
	}
	return l.ID
}

func TestVerifyListing_InvalidID(t *testing.T) {
	env := setupListingEnv(t)
	token := tokenFor(t, 2, "admin", model.RoleAdmin)

	w := doJSON(env.router, "PUT", "/product/verify/abc", token, map[string]string{"action": "Accept"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyListing_Accept(t *testing.T) {
	env := setupListingEnv(t)
	id := seedPending(t, env.db)
	token := tokenFor(t, 2, "admin", model.RoleAdmin)

	w := doJSON(env.router, "PUT", fmt.Sprintf("/product/verify/%d", id), token,
		map[string]string{"action": "Accept"})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, string(model.ListingStatusAccepted), data["status"])
	assert.Equal(t, model.QualityVerified, data["quality"])
}

func TestVerifyListing_NotAdmin(t *testing.T) {
	env := setupListingEnv(t)
	id := seedPending(t, env.db)
	token := tokenFor(t, 1, "farmer", model.RoleFarmer)

	w := doJSON(env.router, "PUT", fmt.Sprintf("/product/verify/%d", id), token,
		map[string]string{"action": "Accept"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestVerifyListing_SecondDecisionConflicts(t *testing.T) {
	env := setupListingEnv(t)
	id := seedPending(t, env.db)
	token := tokenFor(t, 2, "admin", model.RoleAdmin)

	w := doJSON(env.router, "PUT", fmt.Sprintf("/product/verify/%d", id), token,
		map[string]string{"action": "Accept"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(env.router, "PUT", fmt.Sprintf("/product/verify/%d", id), token,
		map[string]string{"action": "Reject", "rejection_reason": "资质存疑"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetPendingListings(t *testing.T) {
	env := setupListingEnv(t)
	seedPending(t, env.db)
	token := tokenFor(t, 2, "admin", model.RoleAdmin)

	w := doJSON(env.router, "GET", "/product/pending", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	data := resp["data"].([]interface{})
	assert.Len(t, data, 1)
}
