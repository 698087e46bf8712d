package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"

	"cj_dropship_v1_202608/internal/api/dto"
	"cj_dropship_v1_202608/internal/model"
	"cj_dropship_v1_202608/internal/repository"
	"cj_dropship_v1_202608/pkg/cj"
)

type disputeFixture struct {
	svc         *DisputeService
	db          *gorm.DB
	disputeRepo repository.DisputeRepository
	orderRepo   repository.OrderMappingRepository
	api         *fakeSupplier
}

func newDisputeFixture(t *testing.T) *disputeFixture {
	t.Helper()
	db := setupTestDB(t)
	disputeRepo := repository.NewDisputeRepository(db)
	orderRepo := repository.NewOrderMappingRepository(db)

	api := &fakeSupplier{
		createDisputeFn: func(ctx context.Context, req *cj.CreateDisputeRequest) (*cj.CreateDisputeResult, error) {
			return &cj.CreateDisputeResult{DisputeID: "CJD-1"}, nil
		},
		cancelDisputeFn: func(ctx context.Context, disputeID string) error { return nil },
	}

	f := &disputeFixture{
		svc:         NewDisputeService(disputeRepo, orderRepo, api),
		db:          db,
		disputeRepo: disputeRepo,
		orderRepo:   orderRepo,
		api:         api,
	}

	mapping := &model.OrderMapping{LocalOrderID: 1, CJOrderID: "CJO-1", CJOrderNum: "N-1", Status: model.OrderMapStatusDelivered}
	if err := orderRepo.Create(context.Background(), mapping); err != nil {
		t.Fatalf("准备订单映射失败: %v", err)
	}
	return f
}

func validDisputeRequest() *dto.CreateDisputeRequest {
	return &dto.CreateDisputeRequest{
		CJOrderID:     "CJO-1",
		DisputeReason: "damaged",
		FinallyDeal:   model.FinallyDealRefund,
		Message:       "商品破损，申请退款",
		Items: []dto.DisputeItemReq{
			{CJVariantID: "V1", Quantity: 2, Price: 5.5},
			{CJVariantID: "V2", Quantity: 1, Price: 3},
		},
	}
}

// ==================== 校验 ====================

func TestCreateDispute_RejectsItemWithoutPrice(t *testing.T) {
	f := newDisputeFixture(t)

	req := validDisputeRequest()
	req.Items[1].Price = 0

	_, err := f.svc.CreateDispute(context.Background(), req)
	if err == nil {
		t.Fatal("缺价格的商品行应被拒绝")
	}
	if !strings.Contains(err.Error(), "V2") {
		t.Errorf("错误应指明具体商品行: %v", err)
	}

	// 校验失败不允许落库
	var count int64
	f.db.Model(&model.DisputeRecord{}).Count(&count)
	if count != 0 {
		t.Errorf("校验失败不应落库，实际 %d 条", count)
	}
}

func TestCreateDispute_RejectsOverlongMessage(t *testing.T) {
	f := newDisputeFixture(t)

	req := validDisputeRequest()
	req.Message = strings.Repeat("长", model.DisputeMessageMaxLen+1)

	if _, err := f.svc.CreateDispute(context.Background(), req); err == nil {
		t.Error("超长描述应被拒绝")
	}
}

func TestCreateDispute_MessageAtLimitOK(t *testing.T) {
	f := newDisputeFixture(t)

	req := validDisputeRequest()
	req.Message = strings.Repeat("长", model.DisputeMessageMaxLen)

	if _, err := f.svc.CreateDispute(context.Background(), req); err != nil {
		t.Errorf("恰好 %d 字的描述应通过: %v", model.DisputeMessageMaxLen, err)
	}
}

func TestCreateDispute_RejectsEmptyItems(t *testing.T) {
	f := newDisputeFixture(t)

	req := validDisputeRequest()
	req.Items = nil

	if _, err := f.svc.CreateDispute(context.Background(), req); err == nil {
		t.Error("空商品行应被拒绝")
	}
}

func TestCreateDispute_RejectsUnknownOrder(t *testing.T) {
	f := newDisputeFixture(t)

	req := validDisputeRequest()
	req.CJOrderID = "GHOST"

	if _, err := f.svc.CreateDispute(context.Background(), req); err == nil {
		t.Error("订单不存在应被拒绝")
	}
}

// ==================== 创建与金额 ====================

func TestCreateDispute_PersistsRefundAmount(t *testing.T) {
	f := newDisputeFixture(t)

	resp, err := f.svc.CreateDispute(context.Background(), validDisputeRequest())
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if resp.CJDisputeID != "CJD-1" {
		t.Errorf("远端纠纷 ID 错误: %s", resp.CJDisputeID)
	}

	record, err := f.disputeRepo.GetByIDWithItems(context.Background(), resp.DisputeID)
	if err != nil {
		t.Fatalf("查询纠纷失败: %v", err)
	}
	// 2*5.50 + 1*3.00 = 14.00
	if record.RefundAmount != 1400 {
		t.Errorf("退款金额期望 1400 分，实际 %d", record.RefundAmount)
	}
	if record.ReplacementAmount != 0 {
		t.Errorf("期望退款的纠纷不应有补发金额: %d", record.ReplacementAmount)
	}
	if len(record.Items) != 2 {
		t.Errorf("商品行应随主记录落库: %d", len(record.Items))
	}
}

func TestCreateDispute_ReissueGoesToReplacementAmount(t *testing.T) {
	f := newDisputeFixture(t)

	req := validDisputeRequest()
	req.FinallyDeal = model.FinallyDealReissue

	resp, err := f.svc.CreateDispute(context.Background(), req)
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	record, _ := f.disputeRepo.GetByID(context.Background(), resp.DisputeID)
	if record.ReplacementAmount != 1400 || record.RefundAmount != 0 {
		t.Errorf("期望补发的纠纷金额记错科目: refund=%d replacement=%d",
			record.RefundAmount, record.ReplacementAmount)
	}
}

// ==================== 取消 ====================

func TestCancelDispute_TerminalRejected(t *testing.T) {
	f := newDisputeFixture(t)

	resp, err := f.svc.CreateDispute(context.Background(), validDisputeRequest())
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if err := f.disputeRepo.UpdateFields(context.Background(), resp.DisputeID,
		map[string]interface{}{"status": model.DisputeStatusResolved}); err != nil {
		t.Fatalf("准备终态失败: %v", err)
	}

	if err := f.svc.CancelDispute(context.Background(), resp.DisputeID); err == nil {
		t.Error("终态纠纷不应允许取消")
	}
}

func TestCancelDispute_OpenSucceeds(t *testing.T) {
	f := newDisputeFixture(t)

	resp, _ := f.svc.CreateDispute(context.Background(), validDisputeRequest())
	if err := f.svc.CancelDispute(context.Background(), resp.DisputeID); err != nil {
		t.Fatalf("取消失败: %v", err)
	}

	record, _ := f.disputeRepo.GetByID(context.Background(), resp.DisputeID)
	if record.Status != model.DisputeStatusCancelled {
		t.Errorf("期望 cancelled，实际 %s", record.Status)
	}
	if record.CancelledAt == nil {
		t.Error("取消时间应被记录")
	}
}

// ==================== 远端回刷 ====================

func TestRefreshFromRemote_CancelAfterReissueKeepsResend(t *testing.T) {
	f := newDisputeFixture(t)

	req := validDisputeRequest()
	req.FinallyDeal = model.FinallyDealReissue
	resp, _ := f.svc.CreateDispute(context.Background(), req)

	// 第一次回刷：远端已补发
	f.api.listDisputesFn = func(ctx context.Context, orderID string, pageNum, pageSize int) (*cj.DisputeListPage, error) {
		return &cj.DisputeListPage{List: []cj.DisputeDTO{{
			DisputeID:     "CJD-1",
			DisputeStatus: "PROCESSING",
			ResendOrderID: "CJO-RESEND",
		}}}, nil
	}
	if _, err := f.svc.RefreshFromRemote(context.Background(), resp.DisputeID); err != nil {
		t.Fatalf("回刷失败: %v", err)
	}

	// 第二次回刷：远端又把纠纷取消了，补发订单号必须保留
	f.api.listDisputesFn = func(ctx context.Context, orderID string, pageNum, pageSize int) (*cj.DisputeListPage, error) {
		return &cj.DisputeListPage{List: []cj.DisputeDTO{{
			DisputeID:     "CJD-1",
			DisputeStatus: "CANCELLED",
		}}}, nil
	}
	vo, err := f.svc.RefreshFromRemote(context.Background(), resp.DisputeID)
	if err != nil {
		t.Fatalf("回刷失败: %v", err)
	}
	if vo.Status != model.DisputeStatusCancelled {
		t.Errorf("期望 cancelled，实际 %s", vo.Status)
	}
	if vo.ResendOrderID != "CJO-RESEND" {
		t.Errorf("远端取消后补发订单记录应保持不动: %q", vo.ResendOrderID)
	}
}

// ==================== 统计 ====================

func TestDisputeAnalytics(t *testing.T) {
	f := newDisputeFixture(t)

	// 两笔退款 + 一笔补发 + 一笔拒绝
	for i, deal := range []int{
		model.FinallyDealRefund, model.FinallyDealRefund,
		model.FinallyDealReissue, model.FinallyDealReject,
	} {
		req := validDisputeRequest()
		req.FinallyDeal = deal
		cjID := "CJD-" + strings.Repeat("x", i+1)
		f.api.createDisputeFn = func(ctx context.Context, r *cj.CreateDisputeRequest) (*cj.CreateDisputeResult, error) {
			return &cj.CreateDisputeResult{DisputeID: cjID}, nil
		}
		if _, err := f.svc.CreateDispute(context.Background(), req); err != nil {
			t.Fatalf("创建失败: %v", err)
		}
	}

	analytics, err := f.svc.GetAnalytics(context.Background())
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if analytics.TotalDisputes != 4 {
		t.Errorf("纠纷总数期望 4，实际 %d", analytics.TotalDisputes)
	}
	if analytics.RefundCount != 2 || analytics.ReissueCount != 1 || analytics.RejectCount != 1 {
		t.Errorf("按期望处理方式计数错误: %+v", analytics)
	}
	// 退款金额只算期望退款的：2 × 14.00
	if analytics.TotalRefundAmount != 28 {
		t.Errorf("退款总额期望 28.00，实际 %.2f", analytics.TotalRefundAmount)
	}
	if analytics.TotalReissueAmount != 14 {
		t.Errorf("补发总额期望 14.00，实际 %.2f", analytics.TotalReissueAmount)
	}
	if analytics.ByStatus[model.DisputeStatusOpen] != 4 {
		t.Errorf("按状态计数错误: %+v", analytics.ByStatus)
	}
}

// ==================== 按 CJ 纠纷号查询 ====================

func TestGetDisputeByCJID(t *testing.T) {
	f := newDisputeFixture(t)

	resp, err := f.svc.CreateDispute(context.Background(), validDisputeRequest())
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	vo, err := f.svc.GetDisputeByCJID(context.Background(), "CJD-1")
	if err != nil {
		t.Fatalf("按 CJ 纠纷号查询失败: %v", err)
	}
	if vo.ID != resp.DisputeID {
		t.Errorf("应命中同一条纠纷: %d vs %d", vo.ID, resp.DisputeID)
	}
	if len(vo.Items) == 0 {
		t.Error("详情应带商品行")
	}

	if _, err := f.svc.GetDisputeByCJID(context.Background(), "CJD-GHOST"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("不存在的纠纷号应返回 record not found，实际 %v", err)
	}
}
