package dto

import (
	"encoding/json"
	"time"
)

// ==================== Webhook 请求 ====================

// WebhookRequest CJ 推送报文
// messageId 偶尔缺失（CJ 侧历史问题），缺失时服务端补一个本地 ID
type WebhookRequest struct {
	MessageID string          `json:"messageId"`
	Type      string          `json:"type" binding:"required"`
	Params    json.RawMessage `json:"params"`
}

// WebhookAck 推送处理回执
// CJ 只看 HTTP 200；详细结果供排查用
type WebhookAck struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"` // 命中幂等短路
	Result    string `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ==================== Webhook 消息列表 ====================

// ListWebhooksRequest 消息列表查询
type ListWebhooksRequest struct {
	Type     string `form:"type"`
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// WebhookMessageVO 消息视图
type WebhookMessageVO struct {
	ID           int64      `json:"id"`
	MessageID    string     `json:"message_id"`
	Type         string     `json:"type"`
	Status       string     `json:"status"`
	Result       string     `json:"result"`
	ErrorMsg     string     `json:"error_msg"`
	ProcessingMs int64      `json:"processing_ms"`
	Attempts     int        `json:"attempts"`
	ReceivedAt   time.Time  `json:"received_at"`
	ProcessedAt  *time.Time `json:"processed_at"`
}

// ListWebhooksResponse 消息列表
type ListWebhooksResponse struct {
	Total int64              `json:"total"`
	List  []WebhookMessageVO `json:"list"`
}
