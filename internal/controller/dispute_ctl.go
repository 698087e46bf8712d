package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cj_dropship_v1_202608/internal/api/dto"
	"cj_dropship_v1_202608/internal/service"
)

// DisputeController 售后纠纷
type DisputeController struct {
	svc *service.DisputeService
}

// NewDisputeController 创建纠纷控制器
func NewDisputeController(svc *service.DisputeService) *DisputeController {
	return &DisputeController{svc: svc}
}

// ==================== Handler 实现 ====================

// Create 创建纠纷
// POST /api/disputes
func (c *DisputeController) Create(ctx *gin.Context) {
	var req dto.CreateDisputeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := c.svc.CreateDispute(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": resp})
}

// Cancel 取消纠纷
// POST /api/disputes/:id/cancel
func (c *DisputeController) Cancel(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}

	if err := c.svc.CancelDispute(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "纠纷不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"code": 200, "message": "纠纷已取消"})
}

// Refresh 从 CJ 回刷纠纷处理结果
// POST /api/disputes/:id/refresh
func (c *DisputeController) Refresh(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}

	vo, err := c.svc.RefreshFromRemote(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "纠纷不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": vo})
}

// Get 纠纷详情
// GET /api/disputes/:id
func (c *DisputeController) Get(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}

	vo, err := c.svc.GetDispute(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "纠纷不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": vo})
}

// GetByCJID 按 CJ 纠纷号查详情
// GET /api/disputes/cj/:disputeId
func (c *DisputeController) GetByCJID(ctx *gin.Context) {
	disputeID := ctx.Param("disputeId")

	vo, err := c.svc.GetDisputeByCJID(ctx.Request.Context(), disputeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "纠纷不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": vo})
}

// List 纠纷列表
// GET /api/disputes
func (c *DisputeController) List(ctx *gin.Context) {
	var req dto.ListDisputesRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := c.svc.ListDisputes(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": resp})
}

// Analytics 纠纷聚合统计
// GET /api/disputes/analytics
func (c *DisputeController) Analytics(ctx *gin.Context) {
	resp, err := c.svc.GetAnalytics(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": resp})
}
