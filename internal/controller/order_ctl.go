package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cj_dropship_v1_202608/internal/api/dto"
	"cj_dropship_v1_202608/internal/service"
)

// OrderController 订单映射与对账
type OrderController struct {
	svc *service.OrderSyncService
}

// NewOrderController 创建订单控制器
func NewOrderController(svc *service.OrderSyncService) *OrderController {
	return &OrderController{svc: svc}
}

// ==================== 下单与操作 ====================

// Create 把本地订单推送到 CJ 下单
// POST /api/orders
func (c *OrderController) Create(ctx *gin.Context) {
	var req dto.CreateCJOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := c.svc.CreateCJOrder(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": resp})
}

// Confirm 支付 CJ 订单
// POST /api/orders/:id/confirm
func (c *OrderController) Confirm(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}

	if err := c.svc.ConfirmOrder(ctx.Request.Context(), id); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"code": 200, "message": "订单已支付"})
}

// Cancel 取消 CJ 订单
// POST /api/orders/:id/cancel
func (c *OrderController) Cancel(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}

	if err := c.svc.CancelOrder(ctx.Request.Context(), id); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"code": 200, "message": "订单已取消"})
}

// ==================== 对账 ====================

// Sync 对账单个订单
// POST /api/orders/:id/sync
func (c *OrderController) Sync(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}

	changed, err := c.svc.SyncOrder(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "订单映射不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"changed": changed}})
}

// SyncAll 对账所有未到终态的订单
// POST /api/orders/sync
func (c *OrderController) SyncAll(ctx *gin.Context) {
	summary, err := c.svc.SyncAllOrders(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": summary})
}

// ==================== 查询 ====================

// List 订单映射列表
// GET /api/orders
func (c *OrderController) List(ctx *gin.Context) {
	var req dto.ListMappingsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := c.svc.ListMappings(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": resp})
}

// Get 订单映射详情
// GET /api/orders/:id
func (c *OrderController) Get(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}

	vo, err := c.svc.GetMapping(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "订单映射不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": vo})
}

// ==================== 工具函数 ====================

func parseID(ctx *gin.Context, key string) int64 {
	id, err := strconv.ParseInt(ctx.Param(key), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的 ID"})
		return 0
	}
	return id
}
