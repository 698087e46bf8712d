package task

import (
	"log"

	"github.com/robfig/cron/v3"

	"cj_dropship_v1_202608/pkg/cache"
)

// ==================== CacheCleanTask 缓存清理任务 ====================

// CacheCleanTask 定时清理过期缓存条目
// 读路径是惰性删除，长期没人读的 key 靠这里回收内存
type CacheCleanTask struct {
	cache *cache.TieredCache
	cron  *cron.Cron
	spec  string
}

// NewCacheCleanTask 创建缓存清理任务
func NewCacheCleanTask(c *cache.TieredCache) *CacheCleanTask {
	return &CacheCleanTask{
		cache: c,
		cron:  cron.New(cron.WithSeconds()),
		spec:  "0 0/5 * * * *", // 每 5 分钟
	}
}

// Start 启动定时任务
func (t *CacheCleanTask) Start() {
	_, err := t.cron.AddFunc(t.spec, func() {
		removed := t.cache.InvalidateExpired()
		if removed > 0 {
			log.Printf("[CacheCleanTask] 清理过期条目 removed=%d", removed)
		}
	})
	if err != nil {
		log.Fatalf("[CacheCleanTask] 无法启动缓存清理任务: %v", err)
	}

	t.cron.Start()
	log.Println("[CacheCleanTask] 缓存清理任务已启动")
}

// Stop 停止定时任务
func (t *CacheCleanTask) Stop() {
	t.cron.Stop()
	log.Println("[CacheCleanTask] 已停止")
}
