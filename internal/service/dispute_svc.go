package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"cj_dropship_v1_202608/internal/api/dto"
	"cj_dropship_v1_202608/internal/model"
	"cj_dropship_v1_202608/internal/repository"
	"cj_dropship_v1_202608/pkg/cj"
)

// ==================== 售后纠纷服务 ====================

// DisputeService 售后纠纷的创建、取消与统计
// 校验不通过的纠纷不落库也不打远端；远端创建成功后才写本地记录
type DisputeService struct {
	disputeRepo repository.DisputeRepository
	orderRepo   repository.OrderMappingRepository
	api         SupplierAPI
}

func NewDisputeService(
	disputeRepo repository.DisputeRepository,
	orderRepo repository.OrderMappingRepository,
	api SupplierAPI,
) *DisputeService {
	return &DisputeService{
		disputeRepo: disputeRepo,
		orderRepo:   orderRepo,
		api:         api,
	}
}

// ==================== 创建 ====================

// CreateDispute 创建纠纷
// 校验：描述必填且 ≤500 字；至少一个商品行；每行价格必须 >0
// （CJ 接口对 0 价行会静默收下然后按 0 退款，必须在这里拦住）
func (s *DisputeService) CreateDispute(ctx context.Context, req *dto.CreateDisputeRequest) (*dto.CreateDisputeResponse, error) {
	if err := validateDisputeRequest(req); err != nil {
		return nil, err
	}

	mapping, err := s.orderRepo.GetByCJOrderID(ctx, req.CJOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("CJ 订单不存在 cjOrderId=%s", req.CJOrderID)
		}
		return nil, err
	}

	items := make([]cj.DisputeItemParam, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, cj.DisputeItemParam{
			LineItemID: item.LineItemID,
			Vid:        item.CJVariantID,
			Quantity:   item.Quantity,
			Price:      item.Price,
		})
	}

	result, err := s.api.CreateDispute(ctx, &cj.CreateDisputeRequest{
		OrderID:       req.CJOrderID,
		DisputeReason: req.DisputeReason,
		ExpectType:    req.FinallyDeal,
		Message:       req.Message,
		ImageURLs:     req.ImageURLs,
		VideoURL:      req.VideoURL,
		Items:         items,
	})
	if err != nil {
		return nil, fmt.Errorf("CJ 创建纠纷失败: %w", err)
	}

	// 涉及金额 = Σ 数量 × 单价，按期望处理方式记到对应科目
	var total int64
	for _, item := range req.Items {
		total += int64(item.Quantity) * toCents(item.Price)
	}
	record := &model.DisputeRecord{
		CJDisputeID:    result.DisputeID,
		OrderMappingID: mapping.ID,
		CJOrderID:      mapping.CJOrderID,
		CJOrderNum:     mapping.CJOrderNum,
		Status:         model.DisputeStatusOpen,
		DisputeReason:  req.DisputeReason,
		FinallyDeal:    req.FinallyDeal,
		Message:        req.Message,
		ImageURLs:      req.ImageURLs,
		VideoURL:       req.VideoURL,
	}
	switch req.FinallyDeal {
	case model.FinallyDealRefund:
		record.RefundAmount = total
	case model.FinallyDealReissue:
		record.ReplacementAmount = total
	}

	modelItems := make([]model.DisputeItem, 0, len(req.Items))
	for _, item := range req.Items {
		modelItems = append(modelItems, model.DisputeItem{
			CJProductID: item.CJProductID,
			CJVariantID: item.CJVariantID,
			LineItemID:  item.LineItemID,
			Quantity:    item.Quantity,
			PriceAmount: toCents(item.Price),
		})
	}

	if err := s.disputeRepo.CreateWithItems(ctx, record, modelItems); err != nil {
		return nil, fmt.Errorf("纠纷落库失败: %w", err)
	}

	log.Printf("[Dispute] 纠纷创建成功 cjDisputeId=%s cjOrderId=%s finallyDeal=%d amount=%s",
		result.DisputeID, req.CJOrderID, req.FinallyDeal, formatCents(total))

	return &dto.CreateDisputeResponse{
		DisputeID:   record.ID,
		CJDisputeID: record.CJDisputeID,
		Status:      record.Status,
	}, nil
}

func validateDisputeRequest(req *dto.CreateDisputeRequest) error {
	if req.Message == "" {
		return errors.New("纠纷描述不能为空")
	}
	if len([]rune(req.Message)) > model.DisputeMessageMaxLen {
		return fmt.Errorf("纠纷描述超长，最多 %d 字", model.DisputeMessageMaxLen)
	}
	if len(req.Items) == 0 {
		return errors.New("至少选择一个商品行")
	}
	for i, item := range req.Items {
		if item.Price <= 0 {
			return fmt.Errorf("第 %d 行商品缺少价格 vid=%s", i+1, item.CJVariantID)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("第 %d 行商品数量无效 vid=%s", i+1, item.CJVariantID)
		}
	}
	return nil
}

// ==================== 取消 ====================

// CancelDispute 取消纠纷，仅限非终态
func (s *DisputeService) CancelDispute(ctx context.Context, id int64) error {
	record, err := s.disputeRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !record.CanCancel() {
		return fmt.Errorf("纠纷已是终态 %s，不可取消", record.Status)
	}

	if err := s.api.CancelDispute(ctx, record.CJDisputeID); err != nil {
		return fmt.Errorf("CJ 取消纠纷失败: %w", err)
	}

	now := time.Now()
	if err := s.disputeRepo.UpdateFields(ctx, id, map[string]interface{}{
		"status":       model.DisputeStatusCancelled,
		"cancelled_at": now,
	}); err != nil {
		return err
	}
	log.Printf("[Dispute] 纠纷已取消 cjDisputeId=%s", record.CJDisputeID)
	return nil
}

// ==================== 远端回刷 ====================

// RefreshFromRemote 从 CJ 回刷纠纷处理结果
// 远端在补发后又取消纠纷时，只回写纠纷自身的状态，
// 已经记下的补发订单映射保持不动
func (s *DisputeService) RefreshFromRemote(ctx context.Context, id int64) (*dto.DisputeVO, error) {
	record, err := s.disputeRepo.GetByIDWithItems(ctx, id)
	if err != nil {
		return nil, err
	}
	if model.IsTerminalDisputeStatus(record.Status) {
		vo := s.toVO(record)
		return &vo, nil
	}

	page, err := s.api.ListDisputes(ctx, record.CJOrderID, 1, 50)
	if err != nil {
		return nil, fmt.Errorf("拉取 CJ 纠纷失败: %w", err)
	}

	var remote *cj.DisputeDTO
	for i := range page.List {
		if page.List[i].DisputeID == record.CJDisputeID {
			remote = &page.List[i]
			break
		}
	}
	if remote == nil {
		vo := s.toVO(record)
		return &vo, nil
	}

	fields := map[string]interface{}{}
	if status := mapRemoteDisputeStatus(remote.DisputeStatus); status != "" && status != record.Status {
		fields["status"] = status
		record.Status = status
		if status == model.DisputeStatusResolved || status == model.DisputeStatusRejected {
			now := time.Now()
			fields["resolved_at"] = now
		}
	}
	if remote.RefundAmount > 0 {
		fields["refund_amount"] = toCents(remote.RefundAmount)
		record.RefundAmount = toCents(remote.RefundAmount)
	}
	if remote.ReplacementAmount > 0 {
		fields["replacement_amount"] = toCents(remote.ReplacementAmount)
		record.ReplacementAmount = toCents(remote.ReplacementAmount)
	}
	if remote.ResendOrderID != "" && record.ResendOrderID == "" {
		fields["resend_order_id"] = remote.ResendOrderID
		record.ResendOrderID = remote.ResendOrderID
	}

	if len(fields) > 0 {
		if err := s.disputeRepo.UpdateFields(ctx, record.ID, fields); err != nil {
			return nil, err
		}
		log.Printf("[Dispute] 纠纷回刷 cjDisputeId=%s status=%s", record.CJDisputeID, record.Status)
	}

	vo := s.toVO(record)
	return &vo, nil
}

// mapRemoteDisputeStatus 归一 CJ 纠纷状态
func mapRemoteDisputeStatus(remote string) string {
	switch remote {
	case "OPEN", "CREATED":
		return model.DisputeStatusOpen
	case "PROCESSING", "IN_PROGRESS":
		return model.DisputeStatusProcessing
	case "RESOLVED", "AGREED", "FINISHED":
		return model.DisputeStatusResolved
	case "REJECTED", "REFUSED":
		return model.DisputeStatusRejected
	case "CANCELLED":
		return model.DisputeStatusCancelled
	default:
		return ""
	}
}

// ==================== 查询与统计 ====================

// GetDispute 纠纷详情（含商品行）
func (s *DisputeService) GetDispute(ctx context.Context, id int64) (*dto.DisputeVO, error) {
	record, err := s.disputeRepo.GetByIDWithItems(ctx, id)
	if err != nil {
		return nil, err
	}
	vo := s.toVO(record)
	return &vo, nil
}

// GetDisputeByCJID 按 CJ 纠纷号查详情
// 对着 CJ 后台工单排查时只有对方的纠纷号，不用先翻本地列表
func (s *DisputeService) GetDisputeByCJID(ctx context.Context, cjDisputeID string) (*dto.DisputeVO, error) {
	record, err := s.disputeRepo.GetByCJDisputeID(ctx, cjDisputeID)
	if err != nil {
		return nil, err
	}
	return s.GetDispute(ctx, record.ID)
}

// ListDisputes 纠纷列表
func (s *DisputeService) ListDisputes(ctx context.Context, req *dto.ListDisputesRequest) (*dto.ListDisputesResponse, error) {
	records, total, err := s.disputeRepo.List(ctx, repository.DisputeFilter{
		CJOrderID:   req.CJOrderID,
		CJOrderNum:  req.CJOrderNum,
		CJDisputeID: req.CJDisputeID,
		Status:      req.Status,
		Page:        req.Page,
		PageSize:    req.PageSize,
	})
	if err != nil {
		return nil, err
	}

	list := make([]dto.DisputeVO, 0, len(records))
	for i := range records {
		list = append(list, s.toVO(&records[i]))
	}
	return &dto.ListDisputesResponse{Total: total, List: list}, nil
}

// GetAnalytics 纠纷聚合统计
// 退款金额只算期望退款的纠纷，补发金额只算期望补发的
func (s *DisputeService) GetAnalytics(ctx context.Context) (*dto.DisputeAnalyticsResponse, error) {
	analytics, err := s.disputeRepo.GetAnalytics(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.DisputeAnalyticsResponse{
		TotalDisputes:      analytics.TotalDisputes,
		RefundCount:        analytics.RefundCount,
		ReissueCount:       analytics.ReissueCount,
		RejectCount:        analytics.RejectCount,
		TotalRefundAmount:  float64(analytics.TotalRefundAmount) / 100,
		TotalReissueAmount: float64(analytics.TotalReissueAmount) / 100,
		ByStatus:           analytics.ByStatus,
	}, nil
}

func (s *DisputeService) toVO(record *model.DisputeRecord) dto.DisputeVO {
	items := make([]dto.DisputeItemVO, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, dto.DisputeItemVO{
			CJProductID: item.CJProductID,
			CJVariantID: item.CJVariantID,
			LineItemID:  item.LineItemID,
			Quantity:    item.Quantity,
			Price:       float64(item.PriceAmount) / 100,
		})
	}
	return dto.DisputeVO{
		ID:                record.ID,
		CJDisputeID:       record.CJDisputeID,
		CJOrderID:         record.CJOrderID,
		CJOrderNum:        record.CJOrderNum,
		Status:            record.Status,
		DisputeReason:     record.DisputeReason,
		FinallyDeal:       record.FinallyDeal,
		Message:           record.Message,
		RefundAmount:      record.GetRefund(),
		ReplacementAmount: float64(record.ReplacementAmount) / 100,
		ResendOrderID:     record.ResendOrderID,
		ImageURLs:         record.ImageURLs,
		Items:             items,
		CreatedAt:         record.CreatedAt,
	}
}
