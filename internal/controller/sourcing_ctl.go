package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cj_dropship_v1_202608/internal/api/dto"
	"cj_dropship_v1_202608/internal/service"
)

// SourcingController 选品寻源
type SourcingController struct {
	svc *service.SourcingService
}

// NewSourcingController 创建寻源控制器
func NewSourcingController(svc *service.SourcingService) *SourcingController {
	return &SourcingController{svc: svc}
}

// ==================== Handler 实现 ====================

// Create 创建寻源请求
// POST /api/sourcing
func (c *SourcingController) Create(ctx *gin.Context) {
	var req dto.CreateSourcingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vo, err := c.svc.CreateSourcing(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": vo})
}

// Refresh 刷新单个寻源请求
// POST /api/sourcing/:id/refresh
func (c *SourcingController) Refresh(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}

	vo, err := c.svc.Refresh(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "寻源请求不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": vo})
}

// RefreshAll 批量刷新所有未到终态的寻源请求
// POST /api/sourcing/refresh
func (c *SourcingController) RefreshAll(ctx *gin.Context) {
	resp, err := c.svc.RefreshAll(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": resp})
}

// Import 把寻源命中的商品导入本地
// POST /api/sourcing/:id/import
func (c *SourcingController) Import(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}

	var req dto.ImportSourcingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := c.svc.ImportResult(ctx.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "寻源请求不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": resp})
}

// Get 寻源请求详情
// GET /api/sourcing/:id
func (c *SourcingController) Get(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}

	vo, err := c.svc.GetSourcing(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "寻源请求不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": vo})
}

// List 寻源请求列表
// GET /api/sourcing
func (c *SourcingController) List(ctx *gin.Context) {
	var req dto.ListSourcingRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := c.svc.ListSourcing(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": resp})
}
