package model

import "time"

// ==================== 寻源请求状态常量 ====================

// SourcingStatus 寻源请求状态
const (
	SourcingStatusPending    = "pending"    // 已创建，未查询过
	SourcingStatusProcessing = "processing" // 已提交 CJ，等待匹配
	SourcingStatusFound      = "found"      // 已匹配到商品（终态）
	SourcingStatusFailed     = "failed"     // 匹配失败（终态）
)

// IsTerminalSourcingStatus 是否终态
func IsTerminalSourcingStatus(status string) bool {
	return status == SourcingStatusFound || status == SourcingStatusFailed
}

// ==================== SourcingRequest 寻源请求 ====================

// SourcingRequest 选品寻源请求
// 生命周期: pending → processing →（found | failed）→ 可选 imported
// found 之后才允许导入，且 Imported 只置一次，重复导入是空操作
type SourcingRequest struct {
	BaseModel

	// --- 本地编号 ---
	RequestNum string `gorm:"size:64;uniqueIndex"`

	// --- CJ 身份字段（远端受理后才有）---
	CJSourcingID string `gorm:"size:64;index"`

	// --- 请求内容 ---
	ProductName  string  `gorm:"size:500;not null"`
	ProductImage string  `gorm:"size:500"`
	SourceURL    string  `gorm:"size:500"`
	TargetPrice  float64 `gorm:"default:0"`
	Remark       string  `gorm:"size:500"`

	// --- 状态 ---
	Status string `gorm:"size:20;index;default:pending"`

	// --- 匹配结果 ---
	ResolvedPid      string  `gorm:"size:64"`
	ResolvedVid      string  `gorm:"size:64"`
	ResolvedPrice    float64 `gorm:"default:0"`
	FailReason       string  `gorm:"size:500"`

	// --- 导入 ---
	Imported       bool  `gorm:"default:false"`
	LocalProductID int64 `gorm:"default:0"`

	// --- 时间 ---
	LastCheckedAt *time.Time
	FoundAt       *time.Time
}

func (*SourcingRequest) TableName() string {
	return "sourcing_requests"
}

// CanImport 是否可以导入
func (s *SourcingRequest) CanImport() bool {
	return s.Status == SourcingStatusFound && !s.Imported && s.ResolvedPid != ""
}
