package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"cj_dropship_v1_202608/internal/api/dto"
	"cj_dropship_v1_202608/internal/model"
	"cj_dropship_v1_202608/internal/repository"
	"cj_dropship_v1_202608/pkg/utils"
)

// ==================== Webhook 接收服务 ====================

// WebhookService 接收并派发 CJ 推送
// CJ 是 at-least-once 投递：messageId 做全局去重，重复投递直接
// 返回首次处理结果；消息状态 RECEIVED → PROCESSED|ERROR 只迁移一次
type WebhookService struct {
	webhookRepo repository.WebhookRepository
	productRepo repository.ProductRepository
	variantRepo repository.VariantRepository
	orderRepo   repository.OrderMappingRepository
	orderSync   *OrderSyncService
	importSvc   *ImportService
	catalog     *CatalogService
	locks       *utils.KeyedLock
}

func NewWebhookService(
	webhookRepo repository.WebhookRepository,
	productRepo repository.ProductRepository,
	variantRepo repository.VariantRepository,
	orderRepo repository.OrderMappingRepository,
	orderSync *OrderSyncService,
	importSvc *ImportService,
	catalog *CatalogService,
) *WebhookService {
	return &WebhookService{
		webhookRepo: webhookRepo,
		productRepo: productRepo,
		variantRepo: variantRepo,
		orderRepo:   orderRepo,
		orderSync:   orderSync,
		importSvc:   importSvc,
		catalog:     catalog,
		locks:       utils.NewKeyedLock(),
	}
}

// ==================== 入口 ====================

// Ingest 接收一条推送
// 全程不向 CJ 返回非 200（控制器层保证），处理结果落在消息记录上
func (s *WebhookService) Ingest(ctx context.Context, req *dto.WebhookRequest) (*dto.WebhookAck, error) {
	messageID := strings.TrimSpace(req.MessageID)
	if messageID == "" {
		// CJ 偶发漏 messageId，补本地 ID 保证记录可追溯（不参与去重）
		messageID = "local-" + uuid.NewString()
		log.Printf("[Webhook] 报文缺失 messageId，补发本地 ID %s type=%s", messageID, req.Type)
	}

	// 同一个 messageId 串行化，并发重复投递只有一个进入处理
	unlock := s.locks.Lock("webhook:" + messageID)
	defer unlock()

	existing, err := s.webhookRepo.GetByMessageID(ctx, messageID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		if err := s.webhookRepo.IncrementAttempts(ctx, existing.ID); err != nil {
			return nil, err
		}
		if existing.Status != model.WebhookStatusReceived {
			// 已有终态：返回首次处理结果，不重新派发
			log.Printf("[Webhook] 重复投递 messageId=%s status=%s attempts=%d",
				messageID, existing.Status, existing.Attempts+1)
			return &dto.WebhookAck{
				MessageID: messageID,
				Status:    existing.Status,
				Duplicate: true,
				Result:    existing.Result,
				Error:     existing.ErrorMsg,
			}, nil
		}
		// 上次处理中途挂了，消息卡在 received，借这次投递补一遍派发
		log.Printf("[Webhook] 消息滞留 received，重新派发 messageId=%s attempts=%d",
			messageID, existing.Attempts+1)
		return s.process(ctx, existing.ID, messageID, req.Type, req.Params)
	}

	msg := &model.WebhookMessage{
		MessageID:  messageID,
		Type:       req.Type,
		Payload:    datatypesJSON(req.Params),
		Status:     model.WebhookStatusReceived,
		ReceivedAt: time.Now(),
	}
	if err := s.webhookRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("消息落库失败: %w", err)
	}
	return s.process(ctx, msg.ID, messageID, req.Type, req.Params)
}

// process 派发并把结果落到消息记录上
func (s *WebhookService) process(ctx context.Context, msgID int64, messageID, msgType string, params json.RawMessage) (*dto.WebhookAck, error) {
	start := time.Now()
	result, perr := s.dispatch(ctx, msgType, params)
	elapsed := time.Since(start).Milliseconds()

	if perr != nil {
		if err := s.webhookRepo.MarkError(ctx, msgID, perr.Error(), elapsed); err != nil {
			return nil, err
		}
		log.Printf("[Webhook] 处理失败 messageId=%s type=%s err=%v", messageID, msgType, perr)
		return &dto.WebhookAck{
			MessageID: messageID,
			Status:    model.WebhookStatusError,
			Error:     perr.Error(),
		}, nil
	}

	if err := s.webhookRepo.MarkProcessed(ctx, msgID, result, elapsed); err != nil {
		return nil, err
	}
	log.Printf("[Webhook] 处理完成 messageId=%s type=%s cost=%dms result=%s",
		messageID, msgType, elapsed, result)
	return &dto.WebhookAck{
		MessageID: messageID,
		Status:    model.WebhookStatusProcessed,
		Result:    result,
	}, nil
}

// dispatch 按类型派发
// 未知类型按错误落账，方便 CJ 新增类型后排查
func (s *WebhookService) dispatch(ctx context.Context, msgType string, params json.RawMessage) (string, error) {
	switch msgType {
	case model.WebhookTypeProduct:
		return s.handleProduct(ctx, params)
	case model.WebhookTypeVariant:
		return s.handleVariant(ctx, params)
	case model.WebhookTypeStock:
		return s.handleStock(ctx, params)
	case model.WebhookTypeOrder:
		return s.handleOrder(ctx, params)
	case model.WebhookTypeLogistics:
		return s.handleLogistics(ctx, params)
	default:
		return "", fmt.Errorf("未知消息类型: %s", msgType)
	}
}

// ==================== 商品推送 ====================

type productPayload struct {
	Pid           utils.FlexString `json:"pid"`
	ProductSku    utils.FlexString `json:"productSku"`
	ProductNameEn utils.FlexString `json:"productNameEn"`
	ProductImage  utils.FlexString `json:"productImage"`
	Description   utils.FlexString `json:"description"`
	SellPrice     utils.FlexString `json:"sellPrice"`
	Status        utils.FlexString `json:"status"`
}

func (s *WebhookService) handleProduct(ctx context.Context, params json.RawMessage) (string, error) {
	var p productPayload
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("商品报文解析失败: %w", err)
	}
	pid := p.Pid.String()
	if pid == "" {
		return "", errors.New("商品报文缺失 pid")
	}

	product, err := s.importSvc.LookupByPid(ctx, pid, p.ProductSku.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 带上 pid，人工或重放时可按 pid 补导入
			return "", fmt.Errorf("本地商品不存在 pid=%s", pid)
		}
		return "", err
	}

	fields := map[string]interface{}{}
	var changed []string
	if name := p.ProductNameEn.String(); name != "" && name != product.Name {
		fields["name"] = name
		changed = append(changed, "name")
	}
	if img := p.ProductImage.Raw(); img != "" && img != product.Image {
		fields["image"] = img
		changed = append(changed, "image")
	}
	if desc := p.Description.String(); desc != "" && desc != product.Description {
		fields["description"] = desc
		changed = append(changed, "description")
	}
	if price := p.SellPrice.Float(); price > 0 {
		cents := toCents(price)
		if cents != product.RemotePriceAmount {
			fields["remote_price_amount"] = cents
			fields["price_amount"] = priceWithMargin(price, product.Margin)
			changed = append(changed, "price")
		}
	}

	if len(fields) == 0 {
		return "无字段变更", nil
	}
	fields["last_synced_at"] = time.Now().Unix()
	if err := s.productRepo.UpdateFields(ctx, product.ID, fields); err != nil {
		return "", err
	}
	s.catalog.InvalidateProduct(pid)
	return "更新字段: " + strings.Join(changed, ","), nil
}

// ==================== 变体推送 ====================

type variantPayload struct {
	Pid              utils.FlexString `json:"pid"`
	Vid              utils.FlexString `json:"vid"`
	VariantSku       utils.FlexString `json:"variantSku"`
	VariantKey       utils.FlexString `json:"variantKey"`
	VariantImage     utils.FlexString `json:"variantImage"`
	VariantSellPrice utils.FlexString `json:"variantSellPrice"`
	VariantStock     utils.FlexString `json:"variantStock"`
}

func (s *WebhookService) handleVariant(ctx context.Context, params json.RawMessage) (string, error) {
	var p variantPayload
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("变体报文解析失败: %w", err)
	}
	pid := p.Pid.String()
	vid := p.Vid.String()
	if pid == "" || vid == "" {
		return "", errors.New("变体报文缺失 pid 或 vid")
	}

	product, err := s.importSvc.LookupByPid(ctx, pid, "")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("父商品不存在 pid=%s", pid)
		}
		return "", err
	}

	price := p.VariantSellPrice.Float()
	variant := &model.ProductVariant{
		ProductID:         product.ID,
		CJVariantID:       vid,
		SKU:               p.VariantSku.String(),
		VariantKey:        p.VariantKey.String(),
		Image:             p.VariantImage.Raw(),
		RawProps:          datatypesJSON(params),
		RemotePriceAmount: toCents(price),
		PriceAmount:       priceWithMargin(price, product.Margin),
		Stock:             p.VariantStock.Int(),
		IsActive:          true,
	}
	if err := s.variantRepo.Upsert(ctx, variant); err != nil {
		return "", err
	}
	s.catalog.InvalidateProduct(pid)
	s.catalog.InvalidateStock(vid)
	return fmt.Sprintf("变体已更新 vid=%s", vid), nil
}

// ==================== 库存推送 ====================

type stockItemPayload struct {
	Vid        utils.FlexString `json:"vid"`
	StorageNum utils.FlexString `json:"storageNum"`
}

type stockPayload struct {
	Stocks []stockItemPayload `json:"stocks"`
	// 单条形态：{vid, storageNum} 直接平铺在 params 上
	Vid        utils.FlexString `json:"vid"`
	StorageNum utils.FlexString `json:"storageNum"`
}

func (s *WebhookService) handleStock(ctx context.Context, params json.RawMessage) (string, error) {
	var p stockPayload
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("库存报文解析失败: %w", err)
	}
	items := p.Stocks
	if len(items) == 0 && p.Vid != "" {
		items = []stockItemPayload{{Vid: p.Vid, StorageNum: p.StorageNum}}
	}
	if len(items) == 0 {
		return "", errors.New("库存报文为空")
	}

	// 部分变体不存在不算整条失败：能更新的都更新，缺失的记在摘要里
	updated := 0
	var missing []string
	for _, item := range items {
		vid := item.Vid.String()
		if vid == "" {
			continue
		}
		variant, err := s.variantRepo.GetByCJVariantID(ctx, vid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				missing = append(missing, vid)
				continue
			}
			return "", err
		}
		if err := s.variantRepo.UpdateFields(ctx, variant.ID, map[string]interface{}{
			"stock": item.StorageNum.Int(),
		}); err != nil {
			return "", err
		}
		s.catalog.InvalidateStock(vid)
		updated++
	}

	result := fmt.Sprintf("库存更新 updated=%d", updated)
	if len(missing) > 0 {
		result += fmt.Sprintf(" missing=%d (vid=%s)", len(missing), strings.Join(missing, ","))
	}
	return result, nil
}

// ==================== 订单推送 ====================

type orderPayload struct {
	// 订单号历史上有两种键名，两个都收
	OrderID      utils.FlexString `json:"orderId"`
	CJOrderID    utils.FlexString `json:"cjOrderId"`
	OrderNum     utils.FlexString `json:"orderNum"`
	OrderStatus  utils.FlexString `json:"orderStatus"`
	TrackNumber  utils.FlexString `json:"trackNumber"`
	LogisticName utils.FlexString `json:"logisticName"`
}

func (p *orderPayload) orderID() string {
	if s := p.CJOrderID.String(); s != "" {
		return s
	}
	return p.OrderID.String()
}

func (s *WebhookService) handleOrder(ctx context.Context, params json.RawMessage) (string, error) {
	var p orderPayload
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("订单报文解析失败: %w", err)
	}
	cjOrderID := p.orderID()
	if cjOrderID == "" {
		return "", errors.New("订单报文缺失 cjOrderId")
	}

	mapping, err := s.orderRepo.GetByCJOrderID(ctx, cjOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("订单映射不存在 cjOrderId=%s", cjOrderID)
		}
		return "", err
	}

	extra := map[string]interface{}{}
	if tn := p.TrackNumber.String(); tn != "" {
		extra["track_number"] = tn
	}
	if ln := p.LogisticName.String(); ln != "" {
		extra["logistic_name"] = ln
	}

	newStatus := model.MapRemoteOrderStatus(p.OrderStatus.String())
	advanced, err := s.orderSync.ApplyRemoteStatus(ctx, mapping, newStatus, extra)
	if err != nil {
		return "", err
	}
	if advanced {
		return fmt.Sprintf("订单状态 → %s", newStatus), nil
	}
	// 乱序/迟到的推送：状态不回退，仅合并了非状态字段
	return fmt.Sprintf("状态未变更（当前 %s，收到 %s）", mapping.Status, p.OrderStatus.String()), nil
}

// ==================== 物流推送 ====================

type logisticsPayload struct {
	OrderID      utils.FlexString `json:"orderId"`
	CJOrderID    utils.FlexString `json:"cjOrderId"`
	TrackNumber  utils.FlexString `json:"trackNumber"`
	LogisticName utils.FlexString `json:"logisticName"`
}

func (p *logisticsPayload) orderID() string {
	if s := p.CJOrderID.String(); s != "" {
		return s
	}
	return p.OrderID.String()
}

func (s *WebhookService) handleLogistics(ctx context.Context, params json.RawMessage) (string, error) {
	var p logisticsPayload
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("物流报文解析失败: %w", err)
	}
	cjOrderID := p.orderID()
	if cjOrderID == "" {
		return "", errors.New("物流报文缺失 cjOrderId")
	}

	mapping, err := s.orderRepo.GetByCJOrderID(ctx, cjOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("订单映射不存在 cjOrderId=%s", cjOrderID)
		}
		return "", err
	}

	extra := map[string]interface{}{}
	if tn := p.TrackNumber.String(); tn != "" {
		extra["track_number"] = tn
	}
	if ln := p.LogisticName.String(); ln != "" {
		extra["logistic_name"] = ln
	}
	if len(extra) == 0 {
		return "物流报文无有效字段", nil
	}

	// 运单号是 last-write-wins，物流推送本身不推进状态
	if _, err := s.orderSync.ApplyRemoteStatus(ctx, mapping, "", extra); err != nil {
		return "", err
	}
	return fmt.Sprintf("物流已更新 trackNumber=%s", p.TrackNumber.String()), nil
}

// datatypesJSON 原始报文转 jsonb 列，空报文存 null
func datatypesJSON(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(raw)
}

// ==================== 查询 ====================

// ListMessages 消息列表
func (s *WebhookService) ListMessages(ctx context.Context, req *dto.ListWebhooksRequest) (*dto.ListWebhooksResponse, error) {
	messages, total, err := s.webhookRepo.List(ctx, repository.WebhookFilter{
		Type:     req.Type,
		Status:   req.Status,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, err
	}

	list := make([]dto.WebhookMessageVO, 0, len(messages))
	for i := range messages {
		m := &messages[i]
		list = append(list, dto.WebhookMessageVO{
			ID:           m.ID,
			MessageID:    m.MessageID,
			Type:         m.Type,
			Status:       m.Status,
			Result:       m.Result,
			ErrorMsg:     m.ErrorMsg,
			ProcessingMs: m.ProcessingMs,
			Attempts:     m.Attempts,
			ReceivedAt:   m.ReceivedAt,
			ProcessedAt:  m.ProcessedAt,
		})
	}
	return &dto.ListWebhooksResponse{Total: total, List: list}, nil
}

// CountByStatus 各状态消息数
func (s *WebhookService) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return s.webhookRepo.CountByStatus(ctx)
}
