package model

import (
	"time"

	"github.com/lib/pq"
)

// ==================== 纠纷状态常量 ====================

// DisputeStatus 纠纷状态
const (
	DisputeStatusOpen       = "open"       // 已提交
	DisputeStatusProcessing = "processing" // CJ 处理中
	DisputeStatusResolved   = "resolved"   // 已解决
	DisputeStatusRejected   = "rejected"   // 已驳回
	DisputeStatusCancelled  = "cancelled"  // 已取消
)

// IsTerminalDisputeStatus 是否终态（终态后不允许取消）
func IsTerminalDisputeStatus(status string) bool {
	return status == DisputeStatusResolved ||
		status == DisputeStatusRejected ||
		status == DisputeStatusCancelled
}

// FinallyDeal 期望处理方式
const (
	FinallyDealRefund  = 1 // 退款
	FinallyDealReissue = 2 // 补发
	FinallyDealReject  = 3 // 拒绝
)

// DisputeMessageMaxLen 纠纷描述上限（CJ 侧限制）
const DisputeMessageMaxLen = 500

// ==================== DisputeRecord 售后纠纷 ====================

// DisputeRecord 售后纠纷
// 创建后只读，唯一的写路径是取消（且仅限非终态）
type DisputeRecord struct {
	BaseModel

	// --- CJ 身份字段 ---
	CJDisputeID string `gorm:"size:64;uniqueIndex"`

	// --- 订单关联 ---
	OrderMappingID int64  `gorm:"index"`
	CJOrderID      string `gorm:"size:64;index"`
	CJOrderNum     string `gorm:"size:64;index"`

	// --- 纠纷内容 ---
	Status        string `gorm:"size:20;index;default:open"`
	DisputeReason string `gorm:"size:255"`
	FinallyDeal   int    `gorm:"index"` // 1:退款 2:补发 3:拒绝
	Message       string `gorm:"size:500"`

	// --- 金额（分为单位存储）---
	RefundAmount      int64
	ReplacementAmount int64

	// --- 补发 ---
	ResendOrderID string `gorm:"size:64"`

	// --- 凭证 ---
	ImageURLs pq.StringArray `gorm:"type:text[]"`
	VideoURL  string         `gorm:"size:500"`

	// --- 时间 ---
	ResolvedAt  *time.Time
	CancelledAt *time.Time

	// --- 关联 ---
	Items []DisputeItem `gorm:"foreignKey:DisputeID"`
}

func (*DisputeRecord) TableName() string {
	return "dispute_records"
}

// GetRefund 获取退款金额（元）
func (d *DisputeRecord) GetRefund() float64 {
	return float64(d.RefundAmount) / 100
}

// CanCancel 是否可以取消
func (d *DisputeRecord) CanCancel() bool {
	return !IsTerminalDisputeStatus(d.Status)
}

// ==================== DisputeItem 纠纷商品行 ====================

// DisputeItem 纠纷涉及的商品行
type DisputeItem struct {
	BaseModel

	DisputeID int64          `gorm:"index;not null"`
	Dispute   *DisputeRecord `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	// CJ 侧商品标识
	CJProductID string `gorm:"size:64"`
	CJVariantID string `gorm:"size:64;index"`
	LineItemID  string `gorm:"size:64"`

	Quantity    int `gorm:"default:1"`
	PriceAmount int64 // 单价（分）
}

func (*DisputeItem) TableName() string {
	return "dispute_items"
}
