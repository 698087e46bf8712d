package model

import (
	"gorm.io/datatypes"
)

// ==================== 商品状态常量 ====================

// ProductStatus 本地商品状态
const (
	ProductStatusDraft     = "draft"     // 草稿（刚导入）
	ProductStatusAvailable = "available" // 可上架
	ProductStatusSelected  = "selected"  // 已选品
	ProductStatusImported  = "imported"  // 已导入店铺
	ProductStatusActive    = "active"    // 在售
	ProductStatusRejected  = "rejected"  // 已淘汰
)

// ==================== Product 本地商品 ====================

// Product 本地商品
// CJProductID 是去重键：非空值在未删除的行里至多出现一次，
// 同一个 CJ 商品反复导入只会命中更新路径，不会产生第二行
type Product struct {
	BaseModel

	// --- CJ 身份字段 ---
	CJProductID string `gorm:"size:64;uniqueIndex:uidx_products_cj_pid,where:cj_product_id <> ''"`
	CJSku       string `gorm:"size:100;index"`

	// --- 商品基本信息 ---
	Name         string `gorm:"size:500"`
	Image        string `gorm:"size:500"`
	Description  string `gorm:"type:text"`
	SourceURL    string `gorm:"size:500"`
	CategoryID   int64  `gorm:"index"`
	CategoryName string `gorm:"size:255"`
	Status       string `gorm:"size:20;index;default:draft"`

	// --- 价格（分为单位存储）---
	// RemotePriceAmount 是 CJ 售价，PriceAmount 是按毛利率算出的本地售价
	RemotePriceAmount int64
	PriceAmount       int64
	Margin            float64 `gorm:"default:0"`
	Currency          string  `gorm:"size:10;default:USD"`

	// --- 同步信息 ---
	WeightGram   float64
	RawData      datatypes.JSON `gorm:"type:jsonb"` // CJ 原始详情
	LastSyncedAt *int64         `gorm:"column:last_synced_at"`

	// --- 关联 ---
	Variants []ProductVariant `gorm:"foreignKey:ProductID"`
}

func (*Product) TableName() string {
	return "products"
}

// GetPrice 获取本地售价（元）
func (p *Product) GetPrice() float64 {
	return float64(p.PriceAmount) / 100
}

// GetRemotePrice 获取 CJ 售价（元）
func (p *Product) GetRemotePrice() float64 {
	return float64(p.RemotePriceAmount) / 100
}

// ==================== ProductVariant 商品变体 ====================

// ProductVariant 商品变体
// (ProductID, CJVariantID) 唯一：同一个远端变体在一个商品下只有一行，
// 重复导入/推送都走 upsert
type ProductVariant struct {
	BaseModel

	// --- 关联 ---
	ProductID int64    `gorm:"not null;uniqueIndex:uidx_variants_cj_vid"`
	Product   *Product `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	// --- CJ 身份标识 ---
	CJVariantID string `gorm:"size:64;not null;uniqueIndex:uidx_variants_cj_vid"`

	// --- 规格 ---
	SKU        string         `gorm:"size:100;index"`
	VariantKey string         `gorm:"size:255"` // 规格组合，如 "Black-S"
	Image      string         `gorm:"size:500"`
	RawProps   datatypes.JSON `gorm:"type:jsonb"` // CJ 原始变体数据

	// --- 价格与库存 ---
	RemotePriceAmount int64
	PriceAmount       int64
	Stock             int `gorm:"default:0"`

	// --- 生命周期 ---
	// 最近一次全量拉取中消失的变体置为 false（软下架），不物理删除
	IsActive bool `gorm:"default:true"`
}

func (*ProductVariant) TableName() string {
	return "product_variants"
}
