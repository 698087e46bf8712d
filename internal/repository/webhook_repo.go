package repository

import (
	"context"
	"time"

	"cj_dropship_v1_202608/internal/model"

	"gorm.io/gorm"
)

// ==================== 过滤条件 ====================

// WebhookFilter 推送消息过滤条件
type WebhookFilter struct {
	Type     string
	Status   string
	Page     int
	PageSize int
}

// ==================== WebhookRepository 推送消息仓库 ====================

// WebhookRepository 推送消息仓库接口
// status 字段只有这里会写：RECEIVED 落库后，恰好一次迁移到 PROCESSED 或 ERROR
type WebhookRepository interface {
	Create(ctx context.Context, msg *model.WebhookMessage) error
	GetByMessageID(ctx context.Context, messageID string) (*model.WebhookMessage, error)
	List(ctx context.Context, filter WebhookFilter) ([]model.WebhookMessage, int64, error)

	// MarkProcessed / MarkError 只在 RECEIVED 状态上生效（CAS 保证单次迁移）
	MarkProcessed(ctx context.Context, id int64, result string, processingMs int64) error
	MarkError(ctx context.Context, id int64, errMsg string, processingMs int64) error

	// IncrementAttempts 重复投递时只加计数，不触碰 status
	IncrementAttempts(ctx context.Context, id int64) error

	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type webhookRepository struct {
	db *gorm.DB
}

// NewWebhookRepository 创建推送消息仓库
func NewWebhookRepository(db *gorm.DB) WebhookRepository {
	return &webhookRepository{db: db}
}

func (r *webhookRepository) Create(ctx context.Context, msg *model.WebhookMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *webhookRepository) GetByMessageID(ctx context.Context, messageID string) (*model.WebhookMessage, error) {
	var msg model.WebhookMessage
	err := r.db.WithContext(ctx).Where("message_id = ?", messageID).First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *webhookRepository) List(ctx context.Context, filter WebhookFilter) ([]model.WebhookMessage, int64, error) {
	var msgs []model.WebhookMessage
	var total int64

	db := r.db.WithContext(ctx).Model(&model.WebhookMessage{})

	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
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
		Order("received_at DESC").
		Limit(filter.PageSize).
		Offset((filter.Page - 1) * filter.PageSize).
		Find(&msgs).Error

	return msgs, total, err
}

func (r *webhookRepository) MarkProcessed(ctx context.Context, id int64, result string, processingMs int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.WebhookMessage{}).
		Where("id = ?", id).
		Where("status = ?", model.WebhookStatusReceived).
		Updates(map[string]interface{}{
			"status":        model.WebhookStatusProcessed,
			"result":        result,
			"processing_ms": processingMs,
			"processed_at":  &now,
		}).Error
}

func (r *webhookRepository) MarkError(ctx context.Context, id int64, errMsg string, processingMs int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.WebhookMessage{}).
		Where("id = ?", id).
		Where("status = ?", model.WebhookStatusReceived).
		Updates(map[string]interface{}{
			"status":        model.WebhookStatusError,
			"error_msg":     errMsg,
			"processing_ms": processingMs,
			"processed_at":  &now,
		}).Error
}

func (r *webhookRepository) IncrementAttempts(ctx context.Context, id int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.WebhookMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":        gorm.Expr("attempts + 1"),
			"last_attempt_at": &now,
		}).Error
}

func (r *webhookRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusAgg struct {
		Status string
		Count  int64
	}
	var rows []statusAgg
	err := r.db.WithContext(ctx).Model(&model.WebhookMessage{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
