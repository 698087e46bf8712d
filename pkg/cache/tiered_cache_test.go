package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeClock 手动推进的假时钟
type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{cur: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(d)
}

func TestPartitionTTLs(t *testing.T) {
	cases := []struct {
		partition Partition
		ttl       time.Duration
	}{
		{PartitionSearch, 5 * time.Minute},
		{PartitionDetail, 15 * time.Minute},
		{PartitionStock, 2 * time.Minute},
	}
	for _, tc := range cases {
		if got := TTLFor(tc.partition); got != tc.ttl {
			t.Errorf("分区 %s TTL 期望 %v，实际 %v", tc.partition, tc.ttl, got)
		}
	}
	// 未知分区给默认 TTL，不 panic
	if got := TTLFor(Partition("unknown")); got != 5*time.Minute {
		t.Errorf("未知分区默认 TTL 错误: %v", got)
	}
	if IsValidPartition("unknown") {
		t.Error("unknown 不应是合法分区")
	}
	if !IsValidPartition(PartitionStock) {
		t.Error("stock 应是合法分区")
	}
}

func TestExpiryAtTTLBoundary(t *testing.T) {
	clock := newFakeClock()
	c := NewTieredCacheWithClock(clock.Now)

	c.Put(PartitionStock, "vid:V1", 42)

	// TTL 内命中
	clock.Advance(2*time.Minute - time.Second)
	if v, ok := c.Get(PartitionStock, "vid:V1"); !ok || v.(int) != 42 {
		t.Fatalf("TTL 内应命中: %v %v", v, ok)
	}

	// 恰好到期即失效（expiresAt 不含端点）
	clock.Advance(time.Second)
	if _, ok := c.Get(PartitionStock, "vid:V1"); ok {
		t.Error("到期的条目不应命中")
	}
	// 惰性删除后条目消失
	if stats := c.Stats()[PartitionStock]; stats.Size != 0 {
		t.Errorf("过期条目应被惰性删除，size=%d", stats.Size)
	}
}

func TestPartitionsExpireIndependently(t *testing.T) {
	clock := newFakeClock()
	c := NewTieredCacheWithClock(clock.Now)

	c.Put(PartitionSearch, "k", "s")
	c.Put(PartitionDetail, "k", "d")
	c.Put(PartitionStock, "k", "st")

	// 6 分钟后：stock（2m）和 search（5m）过期，detail（15m）仍在
	clock.Advance(6 * time.Minute)
	if _, ok := c.Get(PartitionStock, "k"); ok {
		t.Error("stock 分区应已过期")
	}
	if _, ok := c.Get(PartitionSearch, "k"); ok {
		t.Error("search 分区应已过期")
	}
	if v, ok := c.Get(PartitionDetail, "k"); !ok || v.(string) != "d" {
		t.Error("detail 分区应仍然有效")
	}
}

func TestHitMissStats(t *testing.T) {
	clock := newFakeClock()
	c := NewTieredCacheWithClock(clock.Now)

	c.Put(PartitionDetail, "pid:P1", "x")
	c.Get(PartitionDetail, "pid:P1")    // hit
	c.Get(PartitionDetail, "pid:P1")    // hit
	c.Get(PartitionDetail, "pid:GHOST") // miss

	stats := c.Stats()[PartitionDetail]
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("命中统计错误: hits=%d misses=%d", stats.Hits, stats.Misses)
	}
	if stats.HitRate < 0.66 || stats.HitRate > 0.67 {
		t.Errorf("命中率错误: %f", stats.HitRate)
	}

	// 过期条目按 miss 计
	clock.Advance(16 * time.Minute)
	c.Get(PartitionDetail, "pid:P1")
	stats = c.Stats()[PartitionDetail]
	if stats.Misses != 2 {
		t.Errorf("过期应计入 miss: %d", stats.Misses)
	}

	c.ResetStats()
	stats = c.Stats()[PartitionDetail]
	if stats.Hits != 0 || stats.Misses != 0 {
		t.Errorf("重置后计数应归零: %+v", stats)
	}
}

func TestInvalidateExpired(t *testing.T) {
	clock := newFakeClock()
	c := NewTieredCacheWithClock(clock.Now)

	c.Put(PartitionStock, "v1", 1)
	c.Put(PartitionStock, "v2", 2)
	c.Put(PartitionDetail, "p1", 3)

	// 3 分钟后只有 stock 的两条过期
	clock.Advance(3 * time.Minute)
	if removed := c.InvalidateExpired(); removed != 2 {
		t.Errorf("应清理 2 条，实际 %d", removed)
	}
	if removed := c.InvalidateExpired(); removed != 0 {
		t.Errorf("重复清理应为 0，实际 %d", removed)
	}
	if stats := c.Stats()[PartitionDetail]; stats.Size != 1 {
		t.Errorf("未过期条目不应被清理: size=%d", stats.Size)
	}
}

func TestDeleteAndFlush(t *testing.T) {
	c := NewTieredCache()

	c.Put(PartitionDetail, "p1", 1)
	c.Put(PartitionDetail, "p2", 2)
	c.Put(PartitionSearch, "s1", 3)

	c.Delete(PartitionDetail, "p1")
	if _, ok := c.Get(PartitionDetail, "p1"); ok {
		t.Error("删除后不应命中")
	}
	if _, ok := c.Get(PartitionDetail, "p2"); !ok {
		t.Error("删除只应影响指定 key")
	}

	c.Flush(PartitionDetail)
	if stats := c.Stats()[PartitionDetail]; stats.Size != 0 {
		t.Errorf("Flush 后分区应为空: %d", stats.Size)
	}
	if _, ok := c.Get(PartitionSearch, "s1"); !ok {
		t.Error("Flush 不应影响其他分区")
	}

	c.FlushAll()
	for p, stats := range c.Stats() {
		if stats.Size != 0 {
			t.Errorf("FlushAll 后分区 %s 应为空: %d", p, stats.Size)
		}
	}
}

func TestUnknownPartitionIsNoop(t *testing.T) {
	c := NewTieredCache()
	c.Put(Partition("bogus"), "k", 1)
	if _, ok := c.Get(Partition("bogus"), "k"); ok {
		t.Error("未知分区不应存储任何东西")
	}
	c.Delete(Partition("bogus"), "k")
	c.Flush(Partition("bogus"))
}

func TestConcurrentAccess(t *testing.T) {
	c := NewTieredCache()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", i%20)
				c.Put(PartitionStock, key, g)
				c.Get(PartitionStock, key)
				if i%50 == 0 {
					c.InvalidateExpired()
				}
			}
		}(g)
	}
	wg.Wait()

	if stats := c.Stats()[PartitionStock]; stats.Size > 20 {
		t.Errorf("key 空间应有界: %d", stats.Size)
	}
}
