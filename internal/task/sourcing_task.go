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

// SourcingRefresher 寻源刷新接口
type SourcingRefresher interface {
	RefreshAll(ctx context.Context) (*dto.RefreshAllResponse, error)
}

// ==================== SourcingRefreshTask 寻源轮询任务 ====================

// SourcingRefreshTask 定时轮询未到终态的寻源请求
// CJ 寻源没有推送，只能轮询
type SourcingRefreshTask struct {
	refresher SourcingRefresher
	cron      *cron.Cron

	spec    string
	timeout time.Duration
	running int32
}

// NewSourcingRefreshTask 创建寻源轮询任务
func NewSourcingRefreshTask(refresher SourcingRefresher) *SourcingRefreshTask {
	return &SourcingRefreshTask{
		refresher: refresher,
		cron:      cron.New(cron.WithSeconds()),
		spec:      "0 0/15 * * * *", // 每 15 分钟
		timeout:   10 * time.Minute,
	}
}

// SetSchedule 覆盖默认调度参数
func (t *SourcingRefreshTask) SetSchedule(spec string, timeout time.Duration) {
	t.spec = spec
	t.timeout = timeout
}

// Start 启动定时任务
func (t *SourcingRefreshTask) Start() {
	_, err := t.cron.AddFunc(t.spec, func() {
		t.runOnce()
	})
	if err != nil {
		log.Fatalf("[SourcingRefreshTask] 无法启动寻源轮询任务: %v", err)
	}

	t.cron.Start()
	log.Println("[SourcingRefreshTask] 寻源轮询任务已启动")
}

// Stop 停止定时任务
func (t *SourcingRefreshTask) Stop() {
	t.cron.Stop()
	log.Println("[SourcingRefreshTask] 已停止")
}

func (t *SourcingRefreshTask) runOnce() {
	if !atomic.CompareAndSwapInt32(&t.running, 0, 1) {
		log.Println("[SourcingRefreshTask] 上一轮刷新未结束，跳过本轮")
		return
	}
	defer atomic.StoreInt32(&t.running, 0)

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	resp, err := t.refresher.RefreshAll(ctx)
	if err != nil {
		log.Printf("[SourcingRefreshTask] 刷新轮次失败: %v", err)
		return
	}
	log.Printf("[SourcingRefreshTask] 刷新轮次完成 checked=%d found=%d pending=%d failed=%d",
		resp.Checked, resp.Found, resp.Pending, resp.Failed)
}

// ==================== 手动触发 ====================

// RefreshNow 立即异步触发一轮刷新
func (t *SourcingRefreshTask) RefreshNow() {
	go t.runOnce()
}
