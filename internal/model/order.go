package model

import (
	"time"

	"gorm.io/datatypes"
)

// ==================== 订单映射状态常量 ====================

// OrderMappingStatus 本地订单映射状态
const (
	OrderMapStatusCreated   = "created"   // 已在 CJ 创建
	OrderMapStatusPaid      = "paid"      // 已支付
	OrderMapStatusShipped   = "shipped"   // 已发货
	OrderMapStatusDelivered = "delivered" // 已签收
	OrderMapStatusError     = "error"     // 异常
	OrderMapStatusCancelled = "cancelled" // 已取消
)

// 正向推进顺序 created → paid → shipped → delivered
// error / cancelled 可从任意非终态进入
var orderStatusRank = map[string]int{
	OrderMapStatusCreated:   1,
	OrderMapStatusPaid:      2,
	OrderMapStatusShipped:   3,
	OrderMapStatusDelivered: 4,
}

// OrderStatusRank 返回状态在推进顺序上的位置，非推进链状态返回 0
func OrderStatusRank(status string) int {
	return orderStatusRank[status]
}

// IsTerminalOrderStatus 是否终态
func IsTerminalOrderStatus(status string) bool {
	return status == OrderMapStatusDelivered ||
		status == OrderMapStatusError ||
		status == OrderMapStatusCancelled
}

// CanAdvanceOrderStatus 判断状态迁移是否允许
// 拉取和推送并发竞争时只允许前进，不允许回退；
// cancelled / error 是显式逃逸路径，任何非终态都可进入
func CanAdvanceOrderStatus(from, to string) bool {
	if from == to {
		return false
	}
	if IsTerminalOrderStatus(from) {
		return false
	}
	if to == OrderMapStatusCancelled || to == OrderMapStatusError {
		return true
	}
	return OrderStatusRank(to) > OrderStatusRank(from)
}

// MapRemoteOrderStatus 把 CJ 订单状态归一到本地状态
func MapRemoteOrderStatus(remote string) string {
	switch remote {
	case "CREATED", "UNPAID", "IN_CART":
		return OrderMapStatusCreated
	case "PAID", "UNSHIPPED":
		return OrderMapStatusPaid
	case "SHIPPED":
		return OrderMapStatusShipped
	case "DELIVERED":
		return OrderMapStatusDelivered
	case "CANCELLED":
		return OrderMapStatusCancelled
	case "ERROR":
		return OrderMapStatusError
	default:
		return ""
	}
}

// ==================== OrderMapping 本地订单 ↔ CJ 订单映射 ====================

// OrderMapping 本地订单与 CJ 订单的映射
// 一个本地订单至多一条映射（下单前没有，下单后恰好一条）
type OrderMapping struct {
	BaseModel

	// --- 本地订单 ---
	LocalOrderID    int64  `gorm:"uniqueIndex;not null"`
	LocalOrderNum   string `gorm:"size:64;index"`

	// --- CJ 身份字段 ---
	CJOrderID  string `gorm:"size:64;uniqueIndex"`
	CJOrderNum string `gorm:"size:64;index"`

	// --- 状态 ---
	Status string `gorm:"size:20;index;default:created"`

	// --- 物流 ---
	TrackNumber  string `gorm:"size:64;index"`
	LogisticName string `gorm:"size:64"`

	// --- CJ 侧金额（分为单位存储）---
	ProductAmount  int64
	PostageAmount  int64
	DiscountAmount int64
	TotalAmount    int64
	Currency       string `gorm:"size:10;default:USD"`

	// --- 同步信息 ---
	LastSyncedAt *time.Time
	RawData      datatypes.JSON `gorm:"type:jsonb"` // CJ 订单原始数据

	// --- 异常信息 ---
	ErrorMsg string `gorm:"type:text"`
}

func (*OrderMapping) TableName() string {
	return "order_mappings"
}

// GetTotal 获取 CJ 订单总额（元）
func (m *OrderMapping) GetTotal() float64 {
	return float64(m.TotalAmount) / 100
}

// GetPostage 获取运费（元）
func (m *OrderMapping) GetPostage() float64 {
	return float64(m.PostageAmount) / 100
}
