package repository

import (
	"context"

	"cj_dropship_v1_202608/internal/model"

	"gorm.io/gorm"
)

// ==================== 过滤条件 ====================

// SourcingFilter 寻源请求过滤条件
type SourcingFilter struct {
	Status   string
	Keyword  string
	Page     int
	PageSize int
}

// ==================== SourcingRepository 寻源请求仓库 ====================

// SourcingRepository 寻源请求仓库接口
type SourcingRepository interface {
	Create(ctx context.Context, req *model.SourcingRequest) error
	GetByID(ctx context.Context, id int64) (*model.SourcingRequest, error)
	GetByCJSourcingID(ctx context.Context, sourcingID string) (*model.SourcingRequest, error)
	List(ctx context.Context, filter SourcingFilter) ([]model.SourcingRequest, int64, error)
	Update(ctx context.Context, req *model.SourcingRequest) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error

	// GetNonTerminal 所有未到终态的请求（refresh-all 用）
	GetNonTerminal(ctx context.Context, limit int) ([]model.SourcingRequest, error)

	// MarkImported 一次性置位导入标志
	// WHERE imported = false 做 CAS：并发导入只有一个调用方能置位成功
	MarkImported(ctx context.Context, id int64, localProductID int64) (int64, error)
}

type sourcingRepository struct {
	db *gorm.DB
}

// NewSourcingRepository 创建寻源请求仓库
func NewSourcingRepository(db *gorm.DB) SourcingRepository {
	return &sourcingRepository{db: db}
}

func (r *sourcingRepository) Create(ctx context.Context, req *model.SourcingRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *sourcingRepository) GetByID(ctx context.Context, id int64) (*model.SourcingRequest, error) {
	var req model.SourcingRequest
	err := r.db.WithContext(ctx).First(&req, id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *sourcingRepository) GetByCJSourcingID(ctx context.Context, sourcingID string) (*model.SourcingRequest, error) {
	var req model.SourcingRequest
	err := r.db.WithContext(ctx).Where("cj_sourcing_id = ?", sourcingID).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *sourcingRepository) List(ctx context.Context, filter SourcingFilter) ([]model.SourcingRequest, int64, error) {
	var reqs []model.SourcingRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.SourcingRequest{})

	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Keyword != "" {
		keyword := "%" + filter.Keyword + "%"
		db = db.Where("product_name LIKE ? OR request_num LIKE ?", keyword, keyword)
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
		Find(&reqs).Error

	return reqs, total, err
}

func (r *sourcingRepository) Update(ctx context.Context, req *model.SourcingRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

func (r *sourcingRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.SourcingRequest{}).Where("id = ?", id).Updates(fields).Error
}

func (r *sourcingRepository) GetNonTerminal(ctx context.Context, limit int) ([]model.SourcingRequest, error) {
	if limit <= 0 {
		limit = 200
	}
	var reqs []model.SourcingRequest
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{
			model.SourcingStatusPending,
			model.SourcingStatusProcessing,
		}).
		Order("created_at ASC").
		Limit(limit).
		Find(&reqs).Error
	return reqs, err
}

func (r *sourcingRepository) MarkImported(ctx context.Context, id int64, localProductID int64) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.SourcingRequest{}).
		Where("id = ?", id).
		Where("imported = ?", false).
		Updates(map[string]interface{}{
			"imported":         true,
			"local_product_id": localProductID,
		})
	return result.RowsAffected, result.Error
}
