package task

import (
	"context"
	"log"
	"time"

	"cj_dropship_v1_202608/pkg/cache"
)

// ==================== TaskManager 业务同步任务管理器 ====================

// TaskManager 统一管理后台任务
// 管理范围：订单对账、寻源轮询、缓存清理
type TaskManager struct {
	orderTask    *OrderSyncTask
	sourcingTask *SourcingRefreshTask
	cacheTask    *CacheCleanTask
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	OrderReconciler   OrderReconciler
	SourcingRefresher SourcingRefresher
	Cache             *cache.TieredCache
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	// 订单对账
	OrderEnabled bool
	OrderSpec    string
	OrderTimeout time.Duration

	// 寻源轮询
	SourcingEnabled bool
	SourcingSpec    string
	SourcingTimeout time.Duration

	// 缓存清理
	CacheCleanEnabled bool
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		OrderEnabled:      true,
		SourcingEnabled:   true,
		CacheCleanEnabled: true,
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tm := &TaskManager{}

	if cfg.OrderEnabled && deps.OrderReconciler != nil {
		tm.orderTask = NewOrderSyncTask(deps.OrderReconciler)
		if cfg.OrderSpec != "" {
			tm.orderTask.SetSchedule(cfg.OrderSpec, cfg.OrderTimeout)
		}
	}

	if cfg.SourcingEnabled && deps.SourcingRefresher != nil {
		tm.sourcingTask = NewSourcingRefreshTask(deps.SourcingRefresher)
		if cfg.SourcingSpec != "" {
			tm.sourcingTask.SetSchedule(cfg.SourcingSpec, cfg.SourcingTimeout)
		}
	}

	if cfg.CacheCleanEnabled && deps.Cache != nil {
		tm.cacheTask = NewCacheCleanTask(deps.Cache)
	}

	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有任务
func (tm *TaskManager) Start() {
	log.Println("[TaskManager] 正在启动后台任务...")

	if tm.orderTask != nil {
		tm.orderTask.Start()
	}
	if tm.sourcingTask != nil {
		tm.sourcingTask.Start()
	}
	if tm.cacheTask != nil {
		tm.cacheTask.Start()
	}

	log.Println("[TaskManager] 后台任务已全部启动")
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	log.Println("[TaskManager] 正在停止后台任务...")

	if tm.orderTask != nil {
		tm.orderTask.Stop()
	}
	if tm.sourcingTask != nil {
		tm.sourcingTask.Stop()
	}
	if tm.cacheTask != nil {
		tm.cacheTask.Stop()
	}

	log.Println("[TaskManager] 后台任务已全部停止")
}

// ==================== 手动触发接口 ====================

// TriggerOrderSync 触发单个订单对账
func (tm *TaskManager) TriggerOrderSync(ctx context.Context, mappingID int64) (bool, error) {
	if tm.orderTask == nil {
		return false, ErrTaskDisabled
	}
	return tm.orderTask.SyncOrderNow(ctx, mappingID)
}

// TriggerAllOrdersSync 触发所有订单对账
func (tm *TaskManager) TriggerAllOrdersSync() error {
	if tm.orderTask == nil {
		return ErrTaskDisabled
	}
	tm.orderTask.SyncAllNow()
	return nil
}

// TriggerSourcingRefresh 触发寻源刷新
func (tm *TaskManager) TriggerSourcingRefresh() error {
	if tm.sourcingTask == nil {
		return ErrTaskDisabled
	}
	tm.sourcingTask.RefreshNow()
	return nil
}

// ==================== 状态查询 ====================

// Status 获取任务启用状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"order":       tm.orderTask != nil,
		"sourcing":    tm.sourcingTask != nil,
		"cache_clean": tm.cacheTask != nil,
	}
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
)
