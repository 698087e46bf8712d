package cache

import (
	"sync"
	"time"
)

// ==================== 分区定义 ====================

// Partition 缓存分区，按查询类型划分
type Partition string

const (
	PartitionSearch Partition = "search" // 商品搜索结果
	PartitionDetail Partition = "detail" // 商品详情
	PartitionStock  Partition = "stock"  // 库存查询
)

// 各分区 TTL 按数据变化频率设定
// 搜索结果变化慢，库存变化快；TTL 是在数据新鲜度和 CJ 接口限流之间做权衡
var partitionTTLs = map[Partition]time.Duration{
	PartitionSearch: 5 * time.Minute,
	PartitionDetail: 15 * time.Minute,
	PartitionStock:  2 * time.Minute,
}

// TTLFor 返回分区的 TTL
func TTLFor(p Partition) time.Duration {
	if ttl, ok := partitionTTLs[p]; ok {
		return ttl
	}
	return 5 * time.Minute
}

// IsValidPartition 是否已知分区
func IsValidPartition(p Partition) bool {
	_, ok := partitionTTLs[p]
	return ok
}

// ==================== 缓存条目 ====================

type cacheItem struct {
	value     interface{}
	createdAt time.Time
	expiresAt time.Time
}

// ==================== 分区存储 ====================

type partitionStore struct {
	mu     sync.RWMutex
	items  map[string]cacheItem
	hits   int64
	misses int64
}

func newPartitionStore() *partitionStore {
	return &partitionStore{items: make(map[string]cacheItem)}
}

// ==================== TieredCache 多级 TTL 缓存 ====================

// PartitionStats 分区命中统计快照
type PartitionStats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Size    int     `json:"size"`
	HitRate float64 `json:"hit_rate"`
}

// TieredCache CJ 查询结果的内存缓存
// 纯性能优化，不保证正确性：缓存失效时调用方必须回源 CJ 接口
type TieredCache struct {
	stores map[Partition]*partitionStore

	// 可注入时钟，测试时用假时钟验证 TTL 边界
	now func() time.Time
}

// NewTieredCache 创建缓存
func NewTieredCache() *TieredCache {
	return NewTieredCacheWithClock(time.Now)
}

// NewTieredCacheWithClock 创建缓存（指定时钟）
func NewTieredCacheWithClock(now func() time.Time) *TieredCache {
	stores := make(map[Partition]*partitionStore, len(partitionTTLs))
	for p := range partitionTTLs {
		stores[p] = newPartitionStore()
	}
	return &TieredCache{stores: stores, now: now}
}

// Get 读取缓存
// 过期条目视为未命中并惰性删除；Get 本身不回源
func (c *TieredCache) Get(p Partition, key string) (interface{}, bool) {
	store, ok := c.stores[p]
	if !ok {
		return nil, false
	}

	store.mu.RLock()
	item, found := store.items[key]
	store.mu.RUnlock()

	if !found {
		store.mu.Lock()
		store.misses++
		store.mu.Unlock()
		return nil, false
	}

	if !c.now().Before(item.expiresAt) {
		// 惰性删除：只清理本次命中的过期 key，全量清理走 InvalidateExpired
		store.mu.Lock()
		if cur, ok := store.items[key]; ok && cur.expiresAt.Equal(item.expiresAt) {
			delete(store.items, key)
		}
		store.misses++
		store.mu.Unlock()
		return nil, false
	}

	store.mu.Lock()
	store.hits++
	store.mu.Unlock()
	return item.value, true
}

// Put 写入缓存，TTL 取分区默认值
func (c *TieredCache) Put(p Partition, key string, value interface{}) {
	c.PutWithTTL(p, key, value, TTLFor(p))
}

// PutWithTTL 写入缓存（指定 TTL）
func (c *TieredCache) PutWithTTL(p Partition, key string, value interface{}, ttl time.Duration) {
	store, ok := c.stores[p]
	if !ok {
		return
	}

	now := c.now()
	store.mu.Lock()
	store.items[key] = cacheItem{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	store.mu.Unlock()
}

// InvalidateExpired 清理所有分区的过期条目，返回清理数量
// 可与读操作并发调用
func (c *TieredCache) InvalidateExpired() int {
	removed := 0
	now := c.now()

	for _, store := range c.stores {
		store.mu.Lock()
		for key, item := range store.items {
			if !now.Before(item.expiresAt) {
				delete(store.items, key)
				removed++
			}
		}
		store.mu.Unlock()
	}

	return removed
}

// Delete 删除单个条目，常用于写后主动失效
func (c *TieredCache) Delete(p Partition, key string) {
	store, ok := c.stores[p]
	if !ok {
		return
	}
	store.mu.Lock()
	delete(store.items, key)
	store.mu.Unlock()
}

// Flush 清空指定分区
func (c *TieredCache) Flush(p Partition) {
	store, ok := c.stores[p]
	if !ok {
		return
	}
	store.mu.Lock()
	store.items = make(map[string]cacheItem)
	store.mu.Unlock()
}

// FlushAll 清空全部分区（不重置统计）
func (c *TieredCache) FlushAll() {
	for p := range c.stores {
		c.Flush(p)
	}
}

// Stats 返回各分区统计快照
func (c *TieredCache) Stats() map[Partition]PartitionStats {
	out := make(map[Partition]PartitionStats, len(c.stores))
	for p, store := range c.stores {
		store.mu.RLock()
		stats := PartitionStats{
			Hits:   store.hits,
			Misses: store.misses,
			Size:   len(store.items),
		}
		store.mu.RUnlock()

		if total := stats.Hits + stats.Misses; total > 0 {
			stats.HitRate = float64(stats.Hits) / float64(total)
		}
		out[p] = stats
	}
	return out
}

// ResetStats 重置命中计数（运维操作，业务逻辑不依赖）
func (c *TieredCache) ResetStats() {
	for _, store := range c.stores {
		store.mu.Lock()
		store.hits = 0
		store.misses = 0
		store.mu.Unlock()
	}
}
