package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cj_dropship_v1_202608/internal/controller"
	"cj_dropship_v1_202608/internal/model"
	"cj_dropship_v1_202608/internal/repository"
	"cj_dropship_v1_202608/internal/router"
	"cj_dropship_v1_202608/internal/service"
	"cj_dropship_v1_202608/internal/task"
	"cj_dropship_v1_202608/pkg/cache"
	"cj_dropship_v1_202608/pkg/cj"
	"cj_dropship_v1_202608/pkg/database"
)

func main() {
	// 1. 初始化数据库
	db := initDatabase()

	// 2. 初始化依赖
	deps := initDependencies(db)

	// 3. 启动定时任务
	deps.TaskManager.Start()
	defer deps.TaskManager.Stop()

	// 4. 初始化路由
	r := router.SetupRouter(deps.Controllers)

	// 5. 启动服务
	startServer(r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Cache       *cache.TieredCache
	CJClient    *cj.Client
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
	TaskManager *task.TaskManager
}

// Repositories 仓库集合
type Repositories struct {
	Product  repository.ProductRepository
	Variant  repository.VariantRepository
	Order    repository.OrderMappingRepository
	Dispute  repository.DisputeRepository
	Sourcing repository.SourcingRepository
	Webhook  repository.WebhookRepository
}

// Services 服务集合
type Services struct {
	Catalog   *service.CatalogService
	Import    *service.ImportService
	OrderSync *service.OrderSyncService
	Dispute   *service.DisputeService
	Sourcing  *service.SourcingService
	Webhook   *service.WebhookService
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase() *gorm.DB {
	dsn := getEnv("DATABASE_DSN",
		"host=localhost user=postgres password=postgres dbname=cj_dropship port=5432 sslmode=disable")
	return database.InitDB(dsn,
		// Product
		&model.Product{}, &model.ProductVariant{},
		// Order
		&model.OrderMapping{},
		// Dispute
		&model.DisputeRecord{}, &model.DisputeItem{},
		// Sourcing
		&model.SourcingRequest{},
		// Webhook
		&model.WebhookMessage{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	repos := &Repositories{
		Product:  repository.NewProductRepository(db),
		Variant:  repository.NewVariantRepository(db),
		Order:    repository.NewOrderMappingRepository(db),
		Dispute:  repository.NewDisputeRepository(db),
		Sourcing: repository.NewSourcingRepository(db),
		Webhook:  repository.NewWebhookRepository(db),
	}

	// -------- 基础设施 --------
	tieredCache := cache.NewTieredCache()
	cjClient := cj.NewClient(&cj.Config{
		BaseURL:     getEnv("CJ_BASE_URL", ""),
		AccessToken: getEnv("CJ_ACCESS_TOKEN", ""),
		TierQPS:     getEnvFloat("CJ_TIER_QPS", 1),
	})

	// -------- 业务服务 --------
	services := &Services{}
	services.Catalog = service.NewCatalogService(cjClient, tieredCache)
	services.Import = service.NewImportService(repos.Product, repos.Variant, services.Catalog)
	services.OrderSync = service.NewOrderSyncService(repos.Order, cjClient)
	services.Dispute = service.NewDisputeService(repos.Dispute, repos.Order, cjClient)
	services.Sourcing = service.NewSourcingService(repos.Sourcing, cjClient, services.Import)
	services.Webhook = service.NewWebhookService(
		repos.Webhook, repos.Product, repos.Variant, repos.Order,
		services.OrderSync, services.Import, services.Catalog,
	)

	// -------- Controller 层 --------
	controllers := &router.Controllers{
		Webhook:  controller.NewWebhookController(services.Webhook),
		Product:  controller.NewProductController(services.Import, services.Catalog, repos.Product, repos.Variant),
		Order:    controller.NewOrderController(services.OrderSync),
		Dispute:  controller.NewDisputeController(services.Dispute),
		Sourcing: controller.NewSourcingController(services.Sourcing),
		Cache:    controller.NewCacheController(tieredCache),
	}

	// -------- 定时任务 --------
	taskManager := task.NewTaskManager(&task.TaskManagerDeps{
		OrderReconciler:   services.OrderSync,
		SourcingRefresher: services.Sourcing,
		Cache:             tieredCache,
	}, nil)
	controllers.Task = controller.NewTaskController(taskManager)

	return &Dependencies{
		DB:          db,
		Cache:       tieredCache,
		CJClient:    cjClient,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
		TaskManager: taskManager,
	}
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
