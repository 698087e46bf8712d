package repository

import (
	"context"

	"cj_dropship_v1_202608/internal/model"

	"gorm.io/gorm"
)

// ==================== 过滤条件 ====================

// DisputeFilter 纠纷过滤条件
type DisputeFilter struct {
	CJOrderID   string
	CJOrderNum  string
	CJDisputeID string
	Status      string
	Page        int
	PageSize    int
}

// ==================== 统计 ====================

// DisputeAnalytics 纠纷聚合统计
type DisputeAnalytics struct {
	TotalDisputes      int64
	RefundCount        int64 // finallyDeal=1
	ReissueCount       int64 // finallyDeal=2
	RejectCount        int64 // finallyDeal=3
	TotalRefundAmount  int64 // 仅统计 finallyDeal=1（分）
	TotalReissueAmount int64 // 仅统计 finallyDeal=2（分）
	ByStatus           map[string]int64
}

// ==================== DisputeRepository 纠纷仓库 ====================

// DisputeRepository 纠纷仓库接口
type DisputeRepository interface {
	// CreateWithItems 纠纷主记录和商品行在一个事务里落库
	CreateWithItems(ctx context.Context, dispute *model.DisputeRecord, items []model.DisputeItem) error
	GetByID(ctx context.Context, id int64) (*model.DisputeRecord, error)
	GetByCJDisputeID(ctx context.Context, disputeID string) (*model.DisputeRecord, error)
	GetByIDWithItems(ctx context.Context, id int64) (*model.DisputeRecord, error)
	List(ctx context.Context, filter DisputeFilter) ([]model.DisputeRecord, int64, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	GetAnalytics(ctx context.Context) (*DisputeAnalytics, error)
}

type disputeRepository struct {
	db *gorm.DB
}

// NewDisputeRepository 创建纠纷仓库
func NewDisputeRepository(db *gorm.DB) DisputeRepository {
	return &disputeRepository{db: db}
}

func (r *disputeRepository) CreateWithItems(ctx context.Context, dispute *model.DisputeRecord, items []model.DisputeItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(dispute).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].DisputeID = dispute.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *disputeRepository) GetByID(ctx context.Context, id int64) (*model.DisputeRecord, error) {
	var dispute model.DisputeRecord
	err := r.db.WithContext(ctx).First(&dispute, id).Error
	if err != nil {
		return nil, err
	}
	return &dispute, nil
}

func (r *disputeRepository) GetByCJDisputeID(ctx context.Context, disputeID string) (*model.DisputeRecord, error) {
	var dispute model.DisputeRecord
	err := r.db.WithContext(ctx).Where("cj_dispute_id = ?", disputeID).First(&dispute).Error
	if err != nil {
		return nil, err
	}
	return &dispute, nil
}

func (r *disputeRepository) GetByIDWithItems(ctx context.Context, id int64) (*model.DisputeRecord, error) {
	var dispute model.DisputeRecord
	err := r.db.WithContext(ctx).Preload("Items").First(&dispute, id).Error
	if err != nil {
		return nil, err
	}
	return &dispute, nil
}

func (r *disputeRepository) List(ctx context.Context, filter DisputeFilter) ([]model.DisputeRecord, int64, error) {
	var disputes []model.DisputeRecord
	var total int64

	db := r.db.WithContext(ctx).Model(&model.DisputeRecord{})

	if filter.CJOrderID != "" {
		db = db.Where("cj_order_id = ?", filter.CJOrderID)
	}
	if filter.CJOrderNum != "" {
		db = db.Where("cj_order_num = ?", filter.CJOrderNum)
	}
	if filter.CJDisputeID != "" {
		db = db.Where("cj_dispute_id = ?", filter.CJDisputeID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
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
		Preload("Items").
		Order("created_at DESC").
		Limit(filter.PageSize).
		Offset((filter.Page - 1) * filter.PageSize).
		Find(&disputes).Error

	return disputes, total, err
}

func (r *disputeRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.DisputeRecord{}).Where("id = ?", id).Updates(fields).Error
}

func (r *disputeRepository) GetAnalytics(ctx context.Context) (*DisputeAnalytics, error) {
	analytics := &DisputeAnalytics{ByStatus: make(map[string]int64)}

	db := r.db.WithContext(ctx).Model(&model.DisputeRecord{})

	if err := db.Count(&analytics.TotalDisputes).Error; err != nil {
		return nil, err
	}

	// 按期望处理方式聚合：数量 + 对应金额
	type dealAgg struct {
		FinallyDeal int
		Count       int64
		Refund      int64
		Replacement int64
	}
	var dealRows []dealAgg
	if err := r.db.WithContext(ctx).Model(&model.DisputeRecord{}).
		Select("finally_deal, COUNT(*) as count, COALESCE(SUM(refund_amount), 0) as refund, COALESCE(SUM(replacement_amount), 0) as replacement").
		Group("finally_deal").
		Scan(&dealRows).Error; err != nil {
		return nil, err
	}

	for _, row := range dealRows {
		switch row.FinallyDeal {
		case model.FinallyDealRefund:
			analytics.RefundCount = row.Count
			analytics.TotalRefundAmount = row.Refund
		case model.FinallyDealReissue:
			analytics.ReissueCount = row.Count
			analytics.TotalReissueAmount = row.Replacement
		case model.FinallyDealReject:
			analytics.RejectCount = row.Count
		}
	}

	// 按状态聚合
	type statusAgg struct {
		Status string
		Count  int64
	}
	var statusRows []statusAgg
	if err := r.db.WithContext(ctx).Model(&model.DisputeRecord{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&statusRows).Error; err != nil {
		return nil, err
	}
	for _, row := range statusRows {
		analytics.ByStatus[row.Status] = row.Count
	}

	return analytics, nil
}
