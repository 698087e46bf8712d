package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"gorm.io/gorm"

	"cj_dropship_v1_202608/internal/api/dto"
	"cj_dropship_v1_202608/internal/model"
	"cj_dropship_v1_202608/internal/repository"
	"cj_dropship_v1_202608/pkg/cj"
	"cj_dropship_v1_202608/pkg/utils"
)

// ==================== 商品导入服务 ====================

// ImportService 把 CJ 商品落成本地商品
// 以 pid 为幂等键：同一个 pid 并发/重复导入最终只有一行商品，
// 后写的请求命中更新路径
type ImportService struct {
	productRepo repository.ProductRepository
	variantRepo repository.VariantRepository
	catalog     *CatalogService
	locks       *utils.KeyedLock
}

func NewImportService(
	productRepo repository.ProductRepository,
	variantRepo repository.VariantRepository,
	catalog *CatalogService,
) *ImportService {
	return &ImportService{
		productRepo: productRepo,
		variantRepo: variantRepo,
		catalog:     catalog,
		locks:       utils.NewKeyedLock(),
	}
}

// ImportProduct 导入（或刷新）一个 CJ 商品
// 拉远端详情 → 清洗 → upsert 商品 → upsert 变体 → 软下架消失的变体
func (s *ImportService) ImportProduct(ctx context.Context, req *dto.ImportProductRequest) (*dto.ImportProductResponse, error) {
	if req.Pid == "" {
		return nil, errors.New("pid 不能为空")
	}

	// 同一个 pid 的导入串行化，避免并发拉详情 + 写库互相踩
	unlock := s.locks.Lock("import:pid:" + req.Pid)
	defer unlock()

	detail, err := s.catalog.QueryProduct(ctx, req.Pid)
	if err != nil {
		return nil, fmt.Errorf("拉取 CJ 商品详情失败: %w", err)
	}

	variants, err := NormalizeVariants(detail)
	if err != nil {
		return nil, fmt.Errorf("解析变体失败: %w", err)
	}

	existing, err := s.productRepo.GetByCJProductID(ctx, req.Pid)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	updated := existing != nil

	product := s.buildProduct(detail, req, existing)
	if err := s.productRepo.UpsertByCJProductID(ctx, product); err != nil {
		return nil, fmt.Errorf("商品落库失败: %w", err)
	}
	// 并发导入时 upsert 可能落在别人先建的行上，回读拿准 ID
	saved, err := s.productRepo.GetByCJProductID(ctx, req.Pid)
	if err != nil {
		return nil, err
	}

	// 变体选择器只影响导入哪些，不影响下架判断：
	// 下架以"最新一次拉取里还在不在"为准
	keepVids := make([]string, 0, len(variants))
	imported := 0
	selector := toSet(req.VariantIDs)
	for i := range variants {
		v := &variants[i]
		keepVids = append(keepVids, v.Vid)
		if len(selector) > 0 {
			if _, ok := selector[v.Vid]; !ok {
				continue
			}
		}
		if err := s.upsertVariant(ctx, saved.ID, v, req.Margin); err != nil {
			return nil, fmt.Errorf("变体 %s 落库失败: %w", v.Vid, err)
		}
		imported++
	}

	deactivated, err := s.variantRepo.DeactivateMissing(ctx, saved.ID, keepVids)
	if err != nil {
		return nil, fmt.Errorf("软下架变体失败: %w", err)
	}

	log.Printf("[Import] 商品导入完成 pid=%s productId=%d variants=%d deactivated=%d updated=%v",
		req.Pid, saved.ID, imported, deactivated, updated)

	return &dto.ImportProductResponse{
		ProductID:    saved.ID,
		CJProductID:  saved.CJProductID,
		Status:       saved.Status,
		VariantCount: imported,
		Deactivated:  int(deactivated),
		Updated:      updated,
	}, nil
}

// PrepareDraft 预备草稿商品
// pid 尚未导入时走完整导入管线落成 draft；已存在时不刷新任何字段，
// 直接返回现有商品。按 pid 幂等，可以放心重复调用
func (s *ImportService) PrepareDraft(ctx context.Context, req *dto.PrepareDraftRequest) (*dto.ImportProductResponse, error) {
	if req.Pid == "" {
		return nil, errors.New("pid 不能为空")
	}

	existing, err := s.productRepo.GetByCJProductID(ctx, req.Pid)
	if err == nil {
		return &dto.ImportProductResponse{
			ProductID:   existing.ID,
			CJProductID: existing.CJProductID,
			Status:      existing.Status,
			Updated:     true,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return s.ImportProduct(ctx, &dto.ImportProductRequest{
		Pid:        req.Pid,
		CategoryID: req.CategoryID,
		Margin:     req.Margin,
	})
}

// LookupByPid 按 CJ pid 查本地商品，找不到时兜底按 SKU 查
// 给 webhook 解析父商品用
func (s *ImportService) LookupByPid(ctx context.Context, pid, sku string) (*model.Product, error) {
	product, err := s.productRepo.GetByCJProductID(ctx, pid)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if sku == "" {
		return nil, err
	}
	// 历史数据可能没回填 pid，按 SKU 再找一遍
	products, _, lerr := s.productRepo.List(ctx, repository.ProductFilter{CJSku: sku, PageSize: 1})
	if lerr != nil {
		return nil, lerr
	}
	if len(products) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &products[0], nil
}

// buildProduct 由远端详情组装本地商品
// 已存在时保留本地编辑过的字段（状态、分类、毛利率）
func (s *ImportService) buildProduct(detail *cj.ProductDetailDTO, req *dto.ImportProductRequest, existing *model.Product) *model.Product {
	name := utils.CleanText(detail.ProductNameEn)
	if name == "" {
		name = utils.CleanText(detail.ProductName)
	}

	margin := req.Margin
	status := model.ProductStatusDraft
	categoryID := req.CategoryID
	if existing != nil {
		status = existing.Status
		if margin == 0 {
			margin = existing.Margin
		}
		if categoryID == 0 {
			categoryID = existing.CategoryID
		}
	}

	raw, _ := json.Marshal(detail)
	now := time.Now().Unix()
	return &model.Product{
		CJProductID:       detail.Pid,
		CJSku:             detail.ProductSku,
		Name:              name,
		Image:             detail.ProductImage,
		Description:       utils.CleanText(detail.Description),
		CategoryID:        categoryID,
		CategoryName:      detail.CategoryName,
		Status:            status,
		RemotePriceAmount: toCents(detail.SellPrice),
		PriceAmount:       priceWithMargin(detail.SellPrice, margin),
		Margin:            margin,
		WeightGram:        detail.ProductWeight,
		RawData:           raw,
		LastSyncedAt:      &now,
	}
}

func (s *ImportService) upsertVariant(ctx context.Context, productID int64, v *cj.VariantDTO, margin float64) error {
	raw, _ := json.Marshal(v)
	return s.variantRepo.Upsert(ctx, &model.ProductVariant{
		ProductID:         productID,
		CJVariantID:       v.Vid,
		SKU:               v.VariantSku,
		VariantKey:        utils.CleanText(v.VariantKey),
		Image:             v.VariantImage,
		RawProps:          raw,
		RemotePriceAmount: toCents(v.VariantSellPrice),
		PriceAmount:       priceWithMargin(v.VariantSellPrice, margin),
		Stock:             v.VariantStock,
		IsActive:          true,
	})
}

// ==================== 变体表示收敛 ====================

// NormalizeVariants 把两种远端变体表示收敛成统一的结构化列表
// 新商品走 Variants 字段，老商品只有 variantsJson 内联字符串，
// 两条路径产出的本地变体必须一致
func NormalizeVariants(detail *cj.ProductDetailDTO) ([]cj.VariantDTO, error) {
	if len(detail.Variants) > 0 {
		return detail.Variants, nil
	}
	if detail.VariantsJSON == "" {
		return nil, nil
	}

	var legacy []cj.LegacyVariantDTO
	if err := json.Unmarshal([]byte(detail.VariantsJSON), &legacy); err != nil {
		return nil, fmt.Errorf("variantsJson 格式错误: %w", err)
	}

	out := make([]cj.VariantDTO, 0, len(legacy))
	for _, lv := range legacy {
		out = append(out, cj.VariantDTO{
			Vid:              lv.Vid,
			Pid:              detail.Pid,
			VariantSku:       lv.SKU,
			VariantKey:       lv.Key,
			VariantImage:     lv.Image,
			VariantSellPrice: lv.Price,
			VariantStock:     lv.Stock,
		})
	}
	return out, nil
}

// ==================== 金额换算 ====================

// toCents 元转分，四舍五入
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// priceWithMargin 按毛利率算本地售价（分）
func priceWithMargin(remote float64, margin float64) int64 {
	return int64(math.Round(remote * (1 + margin) * 100))
}

func toSet(ids []string) map[string]struct{} {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// formatCents 分转元字符串，日志用
func formatCents(amount int64) string {
	return strconv.FormatFloat(float64(amount)/100, 'f', 2, 64)
}
