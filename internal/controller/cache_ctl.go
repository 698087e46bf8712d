package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cj_dropship_v1_202608/pkg/cache"
)

// CacheController 缓存运维接口
type CacheController struct {
	cache *cache.TieredCache
}

// NewCacheController 创建缓存控制器
func NewCacheController(c *cache.TieredCache) *CacheController {
	return &CacheController{cache: c}
}

// ==================== Handler 实现 ====================

// Stats 各分区命中率统计
// GET /api/cache/stats
func (c *CacheController) Stats(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"data": c.cache.Stats()})
}

// Clean 清理过期条目
// POST /api/cache/clean
func (c *CacheController) Clean(ctx *gin.Context) {
	removed := c.cache.InvalidateExpired()
	ctx.JSON(http.StatusOK, gin.H{"code": 200, "message": "过期条目已清理", "data": gin.H{"removed": removed}})
}

// Flush 清空指定分区（不带 partition 参数时清空全部）
// POST /api/cache/flush
func (c *CacheController) Flush(ctx *gin.Context) {
	partition := ctx.Query("partition")
	if partition == "" {
		c.cache.FlushAll()
		ctx.JSON(http.StatusOK, gin.H{"code": 200, "message": "全部分区已清空"})
		return
	}

	p := cache.Partition(partition)
	if !cache.IsValidPartition(p) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "未知分区: " + partition})
		return
	}
	c.cache.Flush(p)
	ctx.JSON(http.StatusOK, gin.H{"code": 200, "message": "分区已清空", "data": gin.H{"partition": partition}})
}

// ResetStats 重置命中率统计
// POST /api/cache/stats/reset
func (c *CacheController) ResetStats(ctx *gin.Context) {
	c.cache.ResetStats()
	ctx.JSON(http.StatusOK, gin.H{"code": 200, "message": "统计已重置"})
}
