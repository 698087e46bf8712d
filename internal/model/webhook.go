package model

import (
	"time"

	"gorm.io/datatypes"
)

// ==================== Webhook 消息常量 ====================

// WebhookType 推送消息类型
const (
	WebhookTypeProduct   = "PRODUCT"
	WebhookTypeVariant   = "VARIANT"
	WebhookTypeStock     = "STOCK"
	WebhookTypeOrder     = "ORDER"
	WebhookTypeLogistics = "LOGISTICS"
)

// WebhookStatus 消息处理状态
// RECEIVED → PROCESSED | ERROR，只允许一次迁移，之后不可变
const (
	WebhookStatusReceived  = "RECEIVED"
	WebhookStatusProcessed = "PROCESSED"
	WebhookStatusError     = "ERROR"
)

// IsKnownWebhookType 是否已知消息类型
func IsKnownWebhookType(t string) bool {
	switch t {
	case WebhookTypeProduct, WebhookTypeVariant, WebhookTypeStock,
		WebhookTypeOrder, WebhookTypeLogistics:
		return true
	}
	return false
}

// ==================== WebhookMessage 推送消息 ====================

// WebhookMessage CJ 推送消息
// MessageID 全局唯一：CJ 是 at-least-once 投递，重复投递在这里短路，
// 终态消息不会被二次派发
type WebhookMessage struct {
	BaseModel

	// --- CJ 身份字段 ---
	MessageID string `gorm:"size:128;uniqueIndex;not null"`
	Type      string `gorm:"size:20;index;not null"`

	// --- 原始报文 ---
	Payload datatypes.JSON `gorm:"type:jsonb"`

	// --- 处理结果 ---
	Status       string `gorm:"size:20;index;default:RECEIVED"`
	Result       string `gorm:"type:text"` // 成功时的变更摘要
	ErrorMsg     string `gorm:"type:text"` // 失败原因（含可恢复标识，如 pid=xxx）
	ProcessingMs int64  `gorm:"default:0"`
	Attempts     int    `gorm:"default:1"` // 投递次数，重复投递只加计数不重新派发

	// --- 时间 ---
	ReceivedAt    time.Time
	ProcessedAt   *time.Time
	LastAttemptAt *time.Time
}

func (*WebhookMessage) TableName() string {
	return "webhook_messages"
}

// IsTerminal 是否已到终态
func (m *WebhookMessage) IsTerminal() bool {
	return m.Status == WebhookStatusProcessed || m.Status == WebhookStatusError
}
