package service

import (
	"context"
	"fmt"

	"cj_dropship_v1_202608/pkg/cache"
	"cj_dropship_v1_202608/pkg/cj"
)

// ==================== 商品目录查询服务 ====================

// CatalogService CJ 目录读路径，带分区缓存
// 缓存未命中或缓存被禁用时直接打远端，结果回填
type CatalogService struct {
	api   SupplierAPI
	cache *cache.TieredCache
}

func NewCatalogService(api SupplierAPI, c *cache.TieredCache) *CatalogService {
	return &CatalogService{api: api, cache: c}
}

// SearchProducts 搜索商品（search 分区，TTL 5 分钟）
func (s *CatalogService) SearchProducts(ctx context.Context, keyword, categoryID string, pageNum, pageSize int) (*cj.ProductSearchPage, error) {
	if pageNum <= 0 {
		pageNum = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 20
	}
	key := fmt.Sprintf("search:%s:%s:%d:%d", keyword, categoryID, pageNum, pageSize)
	if s.cache != nil {
		if v, ok := s.cache.Get(cache.PartitionSearch, key); ok {
			return v.(*cj.ProductSearchPage), nil
		}
	}
	page, err := s.api.SearchProducts(ctx, keyword, categoryID, pageNum, pageSize)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Put(cache.PartitionSearch, key, page)
	}
	return page, nil
}

// QueryProduct 商品详情（detail 分区，TTL 15 分钟）
func (s *CatalogService) QueryProduct(ctx context.Context, pid string) (*cj.ProductDetailDTO, error) {
	key := "detail:" + pid
	if s.cache != nil {
		if v, ok := s.cache.Get(cache.PartitionDetail, key); ok {
			return v.(*cj.ProductDetailDTO), nil
		}
	}
	detail, err := s.api.QueryProduct(ctx, pid)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Put(cache.PartitionDetail, key, detail)
	}
	return detail, nil
}

// StockByVid 变体库存（stock 分区，TTL 2 分钟）
func (s *CatalogService) StockByVid(ctx context.Context, vid string) ([]cj.StockDTO, error) {
	key := "stock:" + vid
	if s.cache != nil {
		if v, ok := s.cache.Get(cache.PartitionStock, key); ok {
			return v.([]cj.StockDTO), nil
		}
	}
	stocks, err := s.api.StockByVid(ctx, vid)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Put(cache.PartitionStock, key, stocks)
	}
	return stocks, nil
}

// InvalidateProduct 商品变更后主动失效详情缓存
func (s *CatalogService) InvalidateProduct(pid string) {
	if s.cache != nil {
		s.cache.Delete(cache.PartitionDetail, "detail:"+pid)
	}
}

// InvalidateStock 库存变更后主动失效库存缓存
func (s *CatalogService) InvalidateStock(vid string) {
	if s.cache != nil {
		s.cache.Delete(cache.PartitionStock, "stock:"+vid)
	}
}
