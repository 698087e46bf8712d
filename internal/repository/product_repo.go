package repository

import (
	"context"

	"cj_dropship_v1_202608/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ==================== 过滤条件 ====================

// ProductFilter 商品过滤条件
type ProductFilter struct {
	Status     string
	CategoryID int64
	CJSku      string
	Keyword    string
	Page       int
	PageSize   int
}

// ==================== ProductRepository 商品仓库 ====================

// ProductRepository 商品仓库接口
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	GetByCJProductID(ctx context.Context, pid string) (*model.Product, error)
	GetByIDWithVariants(ctx context.Context, id int64) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)
	Update(ctx context.Context, product *model.Product) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error

	// UpsertByCJProductID 按 CJ 商品 ID 插入或更新
	// 依赖 cj_product_id 唯一索引：并发导入同一 pid 时，后到的写入
	// 落到冲突更新路径，不会产生第二行
	UpsertByCJProductID(ctx context.Context, product *model.Product) error
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) GetByCJProductID(ctx context.Context, pid string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).Where("cj_product_id = ?", pid).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) GetByIDWithVariants(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Product{})

	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.CategoryID > 0 {
		db = db.Where("category_id = ?", filter.CategoryID)
	}
	if filter.CJSku != "" {
		db = db.Where("cj_sku = ?", filter.CJSku)
	}
	if filter.Keyword != "" {
		keyword := "%" + filter.Keyword + "%"
		db = db.Where("name LIKE ? OR cj_sku LIKE ?", keyword, keyword)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	err := db.
		Order("created_at DESC").
		Limit(filter.PageSize).
		Offset((filter.Page - 1) * filter.PageSize).
		Find(&products).Error

	return products, total, err
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *productRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(fields).Error
}

func (r *productRepository) UpsertByCJProductID(ctx context.Context, product *model.Product) error {
	// 冲突目标是部分唯一索引，谓词必须和索引定义逐字一致，
	// 带占位符的谓词匹配不上索引
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cj_product_id"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "cj_product_id <> ''"},
		}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "image", "description", "category_id", "category_name",
			"remote_price_amount", "price_amount", "margin",
			"weight_gram", "raw_data", "last_synced_at", "updated_at",
		}),
	}).Create(product).Error
}

// ==================== VariantRepository 变体仓库 ====================

// VariantRepository 变体仓库接口
type VariantRepository interface {
	GetByProductID(ctx context.Context, productID int64) ([]model.ProductVariant, error)
	GetByCJVariantID(ctx context.Context, vid string) (*model.ProductVariant, error)
	Upsert(ctx context.Context, variant *model.ProductVariant) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error

	// DeactivateMissing 软下架最近一次拉取中消失的变体
	// keepVids 为空时不做任何操作（避免把全部变体误下架）
	DeactivateMissing(ctx context.Context, productID int64, keepVids []string) (int64, error)
}

type variantRepository struct {
	db *gorm.DB
}

// NewVariantRepository 创建变体仓库
func NewVariantRepository(db *gorm.DB) VariantRepository {
	return &variantRepository{db: db}
}

func (r *variantRepository) GetByProductID(ctx context.Context, productID int64) ([]model.ProductVariant, error) {
	var variants []model.ProductVariant
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id ASC").
		Find(&variants).Error
	return variants, err
}

func (r *variantRepository) GetByCJVariantID(ctx context.Context, vid string) (*model.ProductVariant, error) {
	var variant model.ProductVariant
	err := r.db.WithContext(ctx).Where("cj_variant_id = ?", vid).First(&variant).Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *variantRepository) Upsert(ctx context.Context, variant *model.ProductVariant) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}, {Name: "cj_variant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sku", "variant_key", "image", "raw_props",
			"remote_price_amount", "price_amount", "stock",
			"is_active", "updated_at",
		}),
	}).Create(variant).Error
}

func (r *variantRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.ProductVariant{}).Where("id = ?", id).Updates(fields).Error
}

func (r *variantRepository) DeactivateMissing(ctx context.Context, productID int64, keepVids []string) (int64, error) {
	if len(keepVids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&model.ProductVariant{}).
		Where("product_id = ?", productID).
		Where("cj_variant_id NOT IN ?", keepVids).
		Where("is_active = ?", true).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}
