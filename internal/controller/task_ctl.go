package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cj_dropship_v1_202608/internal/task"
)

// TaskController 后台任务运维
type TaskController struct {
	tasks *task.TaskManager
}

// NewTaskController 创建任务控制器
func NewTaskController(tm *task.TaskManager) *TaskController {
	return &TaskController{tasks: tm}
}

// ==================== Handler 实现 ====================

// Status 各任务启用状态
// GET /api/tasks
func (c *TaskController) Status(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"data": c.tasks.Status()})
}

// SyncOrder 立即对账单个订单，不等定时周期
// POST /api/tasks/orders/:id/sync
func (c *TaskController) SyncOrder(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}

	advanced, err := c.tasks.TriggerOrderSync(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, task.ErrTaskDisabled) {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "订单对账任务未启用"})
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "订单映射不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"advanced": advanced}})
}

// SyncAllOrders 立即触发一轮全量订单对账（异步）
// POST /api/tasks/orders/sync
func (c *TaskController) SyncAllOrders(ctx *gin.Context) {
	if err := c.tasks.TriggerAllOrdersSync(); err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "订单对账任务未启用"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"triggered": true}})
}

// RefreshSourcing 立即触发一轮寻源刷新（异步）
// POST /api/tasks/sourcing/refresh
func (c *TaskController) RefreshSourcing(ctx *gin.Context) {
	if err := c.tasks.TriggerSourcingRefresh(); err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "寻源刷新任务未启用"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"triggered": true}})
}
