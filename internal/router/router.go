package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cj_dropship_v1_202608/internal/controller"
	"cj_dropship_v1_202608/internal/middleware"
)

// Controllers 控制器集合
type Controllers struct {
	Webhook  *controller.WebhookController
	Product  *controller.ProductController
	Order    *controller.OrderController
	Dispute  *controller.DisputeController
	Sourcing *controller.SourcingController
	Cache    *controller.CacheController
	Task     *controller.TaskController
}

// SetupRouter 创建并注册所有路由
func SetupRouter(ctls *Controllers) *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		// CJ 推送入口
		webhooks := api.Group("/webhooks")
		{
			// POST /api/webhooks/cj
			webhooks.POST("/cj", ctls.Webhook.Receive)
			webhooks.GET("", ctls.Webhook.List)
			webhooks.GET("/stats", ctls.Webhook.Stats)
		}

		// CJ 目录查询（走缓存）
		cj := api.Group("/cj")
		{
			cj.GET("/products/search", ctls.Product.Search)
			cj.GET("/products/:pid", ctls.Product.Detail)
			cj.GET("/variants/:vid/stock", ctls.Product.Stock)
		}

		// 本地商品与导入
		products := api.Group("/products")
		{
			products.GET("", ctls.Product.List)
			products.GET("/:id", ctls.Product.Get)
			products.POST("/import",
				middleware.GlobalSyncRateLimit(middleware.SyncTypeProduct, 0),
				ctls.Product.Import,
			)
			products.POST("/prepare", ctls.Product.Prepare)
		}

		// 订单映射与对账
		orders := api.Group("/orders")
		{
			orders.GET("", ctls.Order.List)
			orders.GET("/:id", ctls.Order.Get)
			orders.POST("", ctls.Order.Create)
			orders.POST("/:id/confirm", ctls.Order.Confirm)
			orders.POST("/:id/cancel", ctls.Order.Cancel)
			// 手动对账走冷却限流，防止打爆 CJ 配额
			orders.POST("/:id/sync",
				middleware.SyncRateLimit(middleware.SyncTypeOrder, 0),
				ctls.Order.Sync,
			)
			orders.POST("/sync",
				middleware.GlobalSyncRateLimit(middleware.SyncTypeOrder, 0),
				ctls.Order.SyncAll,
			)
		}

		// 售后纠纷
		disputes := api.Group("/disputes")
		{
			disputes.GET("", ctls.Dispute.List)
			disputes.GET("/analytics", ctls.Dispute.Analytics)
			disputes.GET("/:id", ctls.Dispute.Get)
			disputes.GET("/cj/:disputeId", ctls.Dispute.GetByCJID)
			disputes.POST("", ctls.Dispute.Create)
			disputes.POST("/:id/cancel", ctls.Dispute.Cancel)
			disputes.POST("/:id/refresh", ctls.Dispute.Refresh)
		}

		// 选品寻源
		sourcing := api.Group("/sourcing")
		{
			sourcing.GET("", ctls.Sourcing.List)
			sourcing.GET("/:id", ctls.Sourcing.Get)
			sourcing.POST("", ctls.Sourcing.Create)
			sourcing.POST("/:id/refresh",
				middleware.SyncRateLimit(middleware.SyncTypeSourcing, 0),
				ctls.Sourcing.Refresh,
			)
			sourcing.POST("/refresh",
				middleware.GlobalSyncRateLimit(middleware.SyncTypeSourcing, 0),
				ctls.Sourcing.RefreshAll,
			)
			sourcing.POST("/:id/import", ctls.Sourcing.Import)
		}

		// 后台任务运维
		tasks := api.Group("/tasks")
		{
			tasks.GET("", ctls.Task.Status)
			tasks.POST("/orders/sync", ctls.Task.SyncAllOrders)
			tasks.POST("/orders/:id/sync", ctls.Task.SyncOrder)
			tasks.POST("/sourcing/refresh", ctls.Task.RefreshSourcing)
		}

		// 缓存运维
		cacheGroup := api.Group("/cache")
		{
			cacheGroup.GET("/stats", ctls.Cache.Stats)
			cacheGroup.POST("/clean", ctls.Cache.Clean)
			cacheGroup.POST("/flush", ctls.Cache.Flush)
			cacheGroup.POST("/stats/reset", ctls.Cache.ResetStats)
		}
	}

	return r
}
