package repository

import (
	"context"

	"cj_dropship_v1_202608/internal/model"

	"gorm.io/gorm"
)

// ==================== 过滤条件 ====================

// OrderMappingFilter 订单映射过滤条件
type OrderMappingFilter struct {
	Status      string
	CJOrderID   string
	TrackNumber string
	Keyword     string
	Page        int
	PageSize    int
}

// ==================== OrderMappingRepository 订单映射仓库 ====================

// OrderMappingRepository 订单映射仓库接口
type OrderMappingRepository interface {
	Create(ctx context.Context, mapping *model.OrderMapping) error
	GetByID(ctx context.Context, id int64) (*model.OrderMapping, error)
	GetByLocalOrderID(ctx context.Context, localOrderID int64) (*model.OrderMapping, error)
	GetByCJOrderID(ctx context.Context, cjOrderID string) (*model.OrderMapping, error)
	List(ctx context.Context, filter OrderMappingFilter) ([]model.OrderMapping, int64, error)
	Update(ctx context.Context, mapping *model.OrderMapping) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error

	// AdvanceStatus 单调推进状态
	// WHERE 条件里带上当前状态做 CAS，并发时只有一个写者能赢；
	// 返回 RowsAffected 供调用方判断是否真的发生了迁移
	AdvanceStatus(ctx context.Context, id int64, from, to string, extra map[string]interface{}) (int64, error)

	// GetNonTerminal 拉取所有未到终态的映射（定时同步任务用）
	GetNonTerminal(ctx context.Context, limit int) ([]model.OrderMapping, error)
}

type orderMappingRepository struct {
	db *gorm.DB
}

// NewOrderMappingRepository 创建订单映射仓库
func NewOrderMappingRepository(db *gorm.DB) OrderMappingRepository {
	return &orderMappingRepository{db: db}
}

func (r *orderMappingRepository) Create(ctx context.Context, mapping *model.OrderMapping) error {
	return r.db.WithContext(ctx).Create(mapping).Error
}

func (r *orderMappingRepository) GetByID(ctx context.Context, id int64) (*model.OrderMapping, error) {
	var mapping model.OrderMapping
	err := r.db.WithContext(ctx).First(&mapping, id).Error
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

func (r *orderMappingRepository) GetByLocalOrderID(ctx context.Context, localOrderID int64) (*model.OrderMapping, error) {
	var mapping model.OrderMapping
	err := r.db.WithContext(ctx).Where("local_order_id = ?", localOrderID).First(&mapping).Error
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

func (r *orderMappingRepository) GetByCJOrderID(ctx context.Context, cjOrderID string) (*model.OrderMapping, error) {
	var mapping model.OrderMapping
	err := r.db.WithContext(ctx).Where("cj_order_id = ?", cjOrderID).First(&mapping).Error
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

func (r *orderMappingRepository) List(ctx context.Context, filter OrderMappingFilter) ([]model.OrderMapping, int64, error) {
	var mappings []model.OrderMapping
	var total int64

	db := r.db.WithContext(ctx).Model(&model.OrderMapping{})

	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.CJOrderID != "" {
		db = db.Where("cj_order_id = ?", filter.CJOrderID)
	}
	if filter.TrackNumber != "" {
		db = db.Where("track_number = ?", filter.TrackNumber)
	}
	if filter.Keyword != "" {
		keyword := "%" + filter.Keyword + "%"
		db = db.Where("cj_order_num LIKE ? OR local_order_num LIKE ?", keyword, keyword)
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
		Find(&mappings).Error

	return mappings, total, err
}

func (r *orderMappingRepository) Update(ctx context.Context, mapping *model.OrderMapping) error {
	return r.db.WithContext(ctx).Save(mapping).Error
}

func (r *orderMappingRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.OrderMapping{}).Where("id = ?", id).Updates(fields).Error
}

func (r *orderMappingRepository) AdvanceStatus(ctx context.Context, id int64, from, to string, extra map[string]interface{}) (int64, error) {
	fields := map[string]interface{}{
		"status": to,
	}
	for k, v := range extra {
		fields[k] = v
	}

	result := r.db.WithContext(ctx).Model(&model.OrderMapping{}).
		Where("id = ?", id).
		Where("status = ?", from).
		Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *orderMappingRepository) GetNonTerminal(ctx context.Context, limit int) ([]model.OrderMapping, error) {
	if limit <= 0 {
		limit = 200
	}
	var mappings []model.OrderMapping
	err := r.db.WithContext(ctx).
		Where("status NOT IN ?", []string{
			model.OrderMapStatusDelivered,
			model.OrderMapStatusError,
			model.OrderMapStatusCancelled,
		}).
		Order("last_synced_at ASC NULLS FIRST").
		Limit(limit).
		Find(&mappings).Error
	return mappings, err
}
