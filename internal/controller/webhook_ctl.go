package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cj_dropship_v1_202608/internal/api/dto"
	"cj_dropship_v1_202608/internal/service"
)

// WebhookController CJ 推送接收
type WebhookController struct {
	svc *service.WebhookService
}

// NewWebhookController 创建推送控制器
func NewWebhookController(svc *service.WebhookService) *WebhookController {
	return &WebhookController{svc: svc}
}

// ==================== Handler 实现 ====================

// Receive 接收 CJ 推送
// POST /api/webhooks/cj
// 除了报文完全解析不了，其余情况一律回 200：
// CJ 对非 200 会无限重投，业务失败记在消息记录里人工处理
func (c *WebhookController) Receive(ctx *gin.Context) {
	var req dto.WebhookRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "报文格式错误: " + err.Error()})
		return
	}

	ack, err := c.svc.Ingest(ctx.Request.Context(), &req)
	if err != nil {
		// 基础设施错误（落库失败等），让 CJ 重投
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": ack})
}

// List 推送消息列表
// GET /api/webhooks
func (c *WebhookController) List(ctx *gin.Context) {
	var req dto.ListWebhooksRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := c.svc.ListMessages(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": resp})
}

// Stats 各状态消息数
// GET /api/webhooks/stats
func (c *WebhookController) Stats(ctx *gin.Context) {
	counts, err := c.svc.CountByStatus(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": counts})
}
