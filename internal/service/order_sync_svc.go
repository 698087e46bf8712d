package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"cj_dropship_v1_202608/internal/api/dto"
	"cj_dropship_v1_202608/internal/model"
	"cj_dropship_v1_202608/internal/repository"
	"cj_dropship_v1_202608/pkg/cj"
	"cj_dropship_v1_202608/pkg/utils"
)

// ==================== 订单同步服务 ====================

// 批量同步参数
const (
	syncBatchLimit      = 500              // 单轮最多处理的映射数
	syncPerOrderTimeout = 15 * time.Second // 单个订单的远端调用预算
)

// OrderSyncService 订单映射的写入与对账
// 状态只会单调前进（created → paid → shipped → delivered），
// cancelled / error 可从任意非终态逃逸进入；
// 推送和拉取并发到达时由 AdvanceStatus 的 CAS 保证只有一个写者赢
type OrderSyncService struct {
	orderRepo repository.OrderMappingRepository
	api       SupplierAPI
	locks     *utils.KeyedLock
}

func NewOrderSyncService(orderRepo repository.OrderMappingRepository, api SupplierAPI) *OrderSyncService {
	return &OrderSyncService{
		orderRepo: orderRepo,
		api:       api,
		locks:     utils.NewKeyedLock(),
	}
}

// ==================== 下单 ====================

// CreateCJOrder 把本地订单推送到 CJ 下单
// 按 LocalOrderID 幂等：已有映射直接返回，不会重复下单
func (s *OrderSyncService) CreateCJOrder(ctx context.Context, req *dto.CreateCJOrderRequest) (*dto.CreateCJOrderResponse, error) {
	unlock := s.locks.Lock(fmt.Sprintf("order:local:%d", req.LocalOrderID))
	defer unlock()

	existing, err := s.orderRepo.GetByLocalOrderID(ctx, req.LocalOrderID)
	if err == nil {
		log.Printf("[OrderSync] 本地订单已有映射，跳过下单 localOrderId=%d cjOrderId=%s",
			req.LocalOrderID, existing.CJOrderID)
		return &dto.CreateCJOrderResponse{
			MappingID:  existing.ID,
			CJOrderID:  existing.CJOrderID,
			CJOrderNum: existing.CJOrderNum,
			Status:     existing.Status,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	orderNum := req.LocalOrderNum
	if orderNum == "" {
		orderNum = fmt.Sprintf("LOCAL-%d", req.LocalOrderID)
	}

	products := make([]cj.OrderProductParam, 0, len(req.Products))
	for _, p := range req.Products {
		products = append(products, cj.OrderProductParam{Vid: p.Vid, Quantity: p.Quantity})
	}

	result, err := s.api.CreateOrder(ctx, &cj.CreateOrderRequest{
		OrderNumber:          orderNum,
		ShippingZip:          req.Zip,
		ShippingCountryCode:  req.CountryCode,
		ShippingProvince:     req.Province,
		ShippingCity:         req.City,
		ShippingAddress:      req.Address,
		ShippingCustomerName: req.CustomerName,
		ShippingPhone:        req.Phone,
		Remark:               req.Remark,
		LogisticName:         req.LogisticName,
		Products:             products,
	})
	if err != nil {
		return nil, fmt.Errorf("CJ 下单失败: %w", err)
	}

	mapping := &model.OrderMapping{
		LocalOrderID:  req.LocalOrderID,
		LocalOrderNum: orderNum,
		CJOrderID:     result.OrderID,
		CJOrderNum:    result.OrderNum,
		Status:        model.OrderMapStatusCreated,
	}
	if err := s.orderRepo.Create(ctx, mapping); err != nil {
		return nil, fmt.Errorf("订单映射落库失败: %w", err)
	}

	log.Printf("[OrderSync] CJ 下单成功 localOrderId=%d cjOrderId=%s cjOrderNum=%s",
		req.LocalOrderID, result.OrderID, result.OrderNum)

	return &dto.CreateCJOrderResponse{
		MappingID:  mapping.ID,
		CJOrderID:  mapping.CJOrderID,
		CJOrderNum: mapping.CJOrderNum,
		Status:     mapping.Status,
	}, nil
}

// ConfirmOrder 支付 CJ 订单（余额支付）
func (s *OrderSyncService) ConfirmOrder(ctx context.Context, mappingID int64) error {
	mapping, err := s.orderRepo.GetByID(ctx, mappingID)
	if err != nil {
		return err
	}
	if mapping.Status != model.OrderMapStatusCreated {
		return fmt.Errorf("订单状态 %s 不允许支付", mapping.Status)
	}
	if err := s.api.ConfirmOrder(ctx, mapping.CJOrderID); err != nil {
		return fmt.Errorf("CJ 支付失败: %w", err)
	}
	_, err = s.ApplyRemoteStatus(ctx, mapping, model.OrderMapStatusPaid, nil)
	return err
}

// CancelOrder 取消 CJ 订单（仅未发货可取消）
func (s *OrderSyncService) CancelOrder(ctx context.Context, mappingID int64) error {
	mapping, err := s.orderRepo.GetByID(ctx, mappingID)
	if err != nil {
		return err
	}
	if model.IsTerminalOrderStatus(mapping.Status) {
		return fmt.Errorf("订单已是终态 %s，不可取消", mapping.Status)
	}
	if model.OrderStatusRank(mapping.Status) >= model.OrderStatusRank(model.OrderMapStatusShipped) {
		return errors.New("订单已发货，不可取消")
	}
	if err := s.api.DeleteOrder(ctx, mapping.CJOrderID); err != nil {
		return fmt.Errorf("CJ 取消订单失败: %w", err)
	}
	_, err = s.ApplyRemoteStatus(ctx, mapping, model.OrderMapStatusCancelled, nil)
	return err
}

// ==================== 状态合并 ====================

// ApplyRemoteStatus 把一条远端状态合并进映射
// 只前进不回退：目标状态不比当前新时，仅合并非状态字段（运单号等）。
// 返回是否发生了状态迁移。webhook 和定时对账共用这一个入口，
// 保证两条路径的合并规则完全一致
func (s *OrderSyncService) ApplyRemoteStatus(ctx context.Context, mapping *model.OrderMapping, newStatus string, extra map[string]interface{}) (bool, error) {
	now := time.Now()
	fields := map[string]interface{}{"last_synced_at": now}
	for k, v := range extra {
		fields[k] = v
	}

	if newStatus != "" && model.CanAdvanceOrderStatus(mapping.Status, newStatus) {
		affected, err := s.orderRepo.AdvanceStatus(ctx, mapping.ID, mapping.Status, newStatus, fields)
		if err != nil {
			return false, err
		}
		if affected > 0 {
			log.Printf("[OrderSync] 订单状态推进 cjOrderId=%s %s → %s",
				mapping.CJOrderID, mapping.Status, newStatus)
			mapping.Status = newStatus
			return true, nil
		}
		// CAS 输了：并发写者先一步改了状态，回读后按新基线重试一次
		fresh, err := s.orderRepo.GetByID(ctx, mapping.ID)
		if err != nil {
			return false, err
		}
		*mapping = *fresh
		if model.CanAdvanceOrderStatus(mapping.Status, newStatus) {
			affected, err = s.orderRepo.AdvanceStatus(ctx, mapping.ID, mapping.Status, newStatus, fields)
			if err != nil {
				return false, err
			}
			if affected > 0 {
				mapping.Status = newStatus
				return true, nil
			}
		}
	}

	// 状态没变或不允许推进：仅刷新非状态字段
	if len(fields) > 0 {
		if err := s.orderRepo.UpdateFields(ctx, mapping.ID, fields); err != nil {
			return false, err
		}
	}
	return false, nil
}

// ==================== 对账 ====================

// SyncOrder 对账单个订单：拉远端详情并合并进本地映射
// 返回是否发生了状态迁移
func (s *OrderSyncService) SyncOrder(ctx context.Context, mappingID int64) (bool, error) {
	mapping, err := s.orderRepo.GetByID(ctx, mappingID)
	if err != nil {
		return false, err
	}
	if model.IsTerminalOrderStatus(mapping.Status) {
		return false, nil
	}
	return s.syncMapping(ctx, mapping)
}

func (s *OrderSyncService) syncMapping(ctx context.Context, mapping *model.OrderMapping) (bool, error) {
	unlock := s.locks.Lock("order:cj:" + mapping.CJOrderID)
	defer unlock()

	detail, err := s.api.QueryOrder(ctx, mapping.CJOrderID)
	if err != nil {
		return false, fmt.Errorf("拉取 CJ 订单失败 cjOrderId=%s: %w", mapping.CJOrderID, err)
	}

	raw, _ := json.Marshal(detail)
	extra := map[string]interface{}{
		"product_amount":  toCents(detail.ProductAmount),
		"postage_amount":  toCents(detail.PostageAmount),
		"discount_amount": toCents(detail.DiscountAmount),
		"total_amount":    toCents(detail.OrderAmount),
		"raw_data":        raw,
	}
	if detail.TrackNumber != "" {
		extra["track_number"] = detail.TrackNumber
	}
	if detail.LogisticName != "" {
		extra["logistic_name"] = detail.LogisticName
	}

	return s.ApplyRemoteStatus(ctx, mapping, model.MapRemoteOrderStatus(detail.OrderStatus), extra)
}

// SyncAllOrders 对账所有未到终态的订单
// 单个订单失败只计数，不中断整批
func (s *OrderSyncService) SyncAllOrders(ctx context.Context) (*dto.SyncSummaryResponse, error) {
	mappings, err := s.orderRepo.GetNonTerminal(ctx, syncBatchLimit)
	if err != nil {
		return nil, err
	}

	summary := &dto.SyncSummaryResponse{}
	for i := range mappings {
		m := &mappings[i]
		itemCtx, cancel := context.WithTimeout(ctx, syncPerOrderTimeout)
		changed, err := s.syncMapping(itemCtx, m)
		cancel()

		switch {
		case err != nil:
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("cjOrderId=%s: %v", m.CJOrderID, err))
			log.Printf("[OrderSync] 对账失败 cjOrderId=%s err=%v", m.CJOrderID, err)
		case changed:
			summary.Updated++
		default:
			summary.Unchanged++
		}

		if ctx.Err() != nil {
			break
		}
	}

	log.Printf("[OrderSync] 批量对账完成 total=%d updated=%d unchanged=%d failed=%d",
		len(mappings), summary.Updated, summary.Unchanged, summary.Failed)
	return summary, nil
}

// ==================== 查询 ====================

// GetMapping 查询订单映射
func (s *OrderSyncService) GetMapping(ctx context.Context, id int64) (*dto.OrderMappingVO, error) {
	mapping, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	vo := toMappingVO(mapping)
	return &vo, nil
}

// ListMappings 订单映射列表
func (s *OrderSyncService) ListMappings(ctx context.Context, req *dto.ListMappingsRequest) (*dto.ListMappingsResponse, error) {
	mappings, total, err := s.orderRepo.List(ctx, repository.OrderMappingFilter{
		Status:   req.Status,
		Keyword:  req.Keyword,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, err
	}

	list := make([]dto.OrderMappingVO, 0, len(mappings))
	for i := range mappings {
		list = append(list, toMappingVO(&mappings[i]))
	}
	return &dto.ListMappingsResponse{Total: total, List: list}, nil
}

func toMappingVO(m *model.OrderMapping) dto.OrderMappingVO {
	return dto.OrderMappingVO{
		ID:            m.ID,
		LocalOrderID:  m.LocalOrderID,
		LocalOrderNum: m.LocalOrderNum,
		CJOrderID:     m.CJOrderID,
		CJOrderNum:    m.CJOrderNum,
		Status:        m.Status,
		TrackNumber:   m.TrackNumber,
		LogisticName:  m.LogisticName,
		ProductAmount: float64(m.ProductAmount) / 100,
		PostageAmount: m.GetPostage(),
		TotalAmount:   m.GetTotal(),
		Currency:      m.Currency,
		LastSyncedAt:  m.LastSyncedAt,
		CreatedAt:     m.CreatedAt,
	}
}
