package task

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"cj_dropship_v1_202608/internal/api/dto"
)

// ==================== 外部依赖接口 ====================

// OrderReconciler 订单对账接口
type OrderReconciler interface {
	SyncOrder(ctx context.Context, mappingID int64) (bool, error)
	SyncAllOrders(ctx context.Context) (*dto.SyncSummaryResponse, error)
}

// ==================== OrderSyncTask 订单对账任务 ====================

// OrderSyncTask 定时对账所有未到终态的订单
// webhook 丢消息时对账兜底，保证本地状态最终追上 CJ
type OrderSyncTask struct {
	reconciler OrderReconciler
	cron       *cron.Cron

	spec    string
	timeout time.Duration
	running int32 // 上一轮还没跑完时跳过本轮
}

// NewOrderSyncTask 创建订单对账任务
func NewOrderSyncTask(reconciler OrderReconciler) *OrderSyncTask {
	return &OrderSyncTask{
		reconciler: reconciler,
		cron:       cron.New(cron.WithSeconds()),
		spec:       "0 0/10 * * * *", // 每 10 分钟
		timeout:    8 * time.Minute,
	}
}

// SetSchedule 覆盖默认调度参数
func (t *OrderSyncTask) SetSchedule(spec string, timeout time.Duration) {
	t.spec = spec
	t.timeout = timeout
}

// Start 启动定时任务
func (t *OrderSyncTask) Start() {
	_, err := t.cron.AddFunc(t.spec, func() {
		t.runOnce()
	})
	if err != nil {
		log.Fatalf("[OrderSyncTask] 无法启动订单对账任务: %v", err)
	}

	t.cron.Start()
	log.Println("[OrderSyncTask] 订单对账任务已启动")
}

// Stop 停止定时任务
func (t *OrderSyncTask) Stop() {
	t.cron.Stop()
	log.Println("[OrderSyncTask] 已停止")
}

func (t *OrderSyncTask) runOnce() {
	if !atomic.CompareAndSwapInt32(&t.running, 0, 1) {
		log.Println("[OrderSyncTask] 上一轮对账未结束，跳过本轮")
		return
	}
	defer atomic.StoreInt32(&t.running, 0)

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	summary, err := t.reconciler.SyncAllOrders(ctx)
	if err != nil {
		log.Printf("[OrderSyncTask] 对账轮次失败: %v", err)
		return
	}
	log.Printf("[OrderSyncTask] 对账轮次完成 updated=%d unchanged=%d failed=%d",
		summary.Updated, summary.Unchanged, summary.Failed)
}

// ==================== 手动触发 ====================

// SyncAllNow 立即异步触发一轮对账
func (t *OrderSyncTask) SyncAllNow() {
	go t.runOnce()
}

// SyncOrderNow 立即对账单个订单
func (t *OrderSyncTask) SyncOrderNow(ctx context.Context, mappingID int64) (bool, error) {
	return t.reconciler.SyncOrder(ctx, mappingID)
}
