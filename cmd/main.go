package main

import (
	"context"
	"errors"
	"harvest_hub_v2_202601/internal/controller"
	"harvest_hub_v2_202601/internal/middleware"
	"harvest_hub_v2_202601/internal/model"
	"harvest_hub_v2_202601/internal/repository"
	"harvest_hub_v2_202601/internal/router"
	"harvest_hub_v2_202601/internal/service"
	"harvest_hub_v2_202601/internal/task"
	"harvest_hub_v2_202601/pkg/database"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 0. 加载 .env（不存在时忽略，线上走真实环境变量）
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 1. 初始化数据库
	db := initDatabase()

	// 2. 初始化依赖
	deps := initDependencies(db)

	// 3. 启动定时任务
	taskManager := initTasks(deps)
	defer taskManager.Stop()

	// 4. 初始化路由
	r := router.SetupRouter(deps.Controllers)

	// 5. 启动服务
	startServer(r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
}

// Repositories 仓库集合
type Repositories struct {
	Listing repository.ListingRepository
	User    repository.UserRepository
}

// Services 服务集合
type Services struct {
	Auth       *service.AuthService
	Listing    *service.ListingService
	Moderation *service.ModerationService
	Storage    *service.StorageService
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase() *gorm.DB {
	dsn := getEnv("DATABASE_DSN",
		"host=localhost user=postgres password=postgres dbname=harvest_hub port=5432 sslmode=disable")
	debug := getEnv("DB_DEBUG", "false") == "true"

	return database.InitDB(dsn, debug,
		&model.User{},
		&model.Listing{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- JWT 配置 --------
	jwtCfg := middleware.DefaultJWTConfig()
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		jwtCfg.SecretKey = secret
	}
	middleware.SetJWTConfig(jwtCfg)

	// -------- Repo 层 --------
	repos := &Repositories{
		Listing: repository.NewListingRepository(db),
		User:    repository.NewUserRepository(db),
	}

	// -------- 业务服务 --------
	storageSvc := initStorageService()

	services := &Services{
		Auth:       service.NewAuthService(repos.User),
		Listing:    service.NewListingService(repos.Listing, storageSvc, service.DefaultWindowPolicy()),
		Moderation: service.NewModerationService(repos.Listing),
		Storage:    storageSvc,
	}

	// -------- Controller 层 --------
	controllers := &router.Controllers{
		Auth:    controller.NewAuthController(services.Auth),
		Listing: controller.NewListingController(services.Listing, services.Moderation),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
	}
}

// initStorageService 初始化存储服务
func initStorageService() *service.StorageService {
	storageSvc, err := service.NewStorageService(&service.StorageConfig{
		Provider:  getEnv("STORAGE_PROVIDER", "cloudinary"),
		Bucket:    getEnv("AWS_BUCKET", ""),
		Region:    getEnv("AWS_REGION", ""),
		AccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
		SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
		Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
		CDNDomain: getEnv("STORAGE_CDN_DOMAIN", ""),
		BasePath:  getEnv("STORAGE_BASE_PATH", "harvest-hub"),
		CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
	})
	if err != nil {
		log.Fatalf("存储服务初始化失败: %v", err)
	}
	return storageSvc
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(deps *Dependencies) *task.TaskManager {
	cfg := task.DefaultConfig()
	cfg.SweepEnabled = getEnv("SWEEP_ENABLED", "true") == "true"
	if spec := os.Getenv("SWEEP_CRON_SPEC"); spec != "" {
		cfg.SweepSpec = spec
	}
	if v := os.Getenv("SWEEP_TICK_TIMEOUT_SEC"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			cfg.SweepTickTimeout = time.Duration(sec) * time.Second
		}
	}

	tm := task.NewTaskManager(&task.TaskManagerDeps{
		ListingService: deps.Services.Listing,
	}, cfg)
	tm.Start()

	log.Println("定时任务已启动")
	return tm
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine) {
	port := getEnv("SERVER_PORT", "8080")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
