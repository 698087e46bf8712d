package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"cj_dropship_v1_202608/internal/api/dto"
	"cj_dropship_v1_202608/internal/model"
	"cj_dropship_v1_202608/internal/repository"
	"cj_dropship_v1_202608/pkg/cj"
)

type sourcingFixture struct {
	svc          *SourcingService
	sourcingRepo repository.SourcingRepository
	productRepo  repository.ProductRepository
	api          *fakeSupplier
}

func newSourcingFixture(t *testing.T) *sourcingFixture {
	t.Helper()
	db := setupTestDB(t)
	sourcingRepo := repository.NewSourcingRepository(db)
	productRepo := repository.NewProductRepository(db)
	variantRepo := repository.NewVariantRepository(db)

	api := &fakeSupplier{
		createSourcingFn: func(ctx context.Context, req *cj.CreateSourcingRequest) (*cj.CreateSourcingResult, error) {
			return &cj.CreateSourcingResult{SourcingID: "CJS-1"}, nil
		},
	}
	importSvc := NewImportService(productRepo, variantRepo, NewCatalogService(api, nil))

	return &sourcingFixture{
		svc:          NewSourcingService(sourcingRepo, api, importSvc),
		sourcingRepo: sourcingRepo,
		productRepo:  productRepo,
		api:          api,
	}
}

func (f *sourcingFixture) create(t *testing.T) *dto.SourcingVO {
	t.Helper()
	vo, err := f.svc.CreateSourcing(context.Background(), &dto.CreateSourcingRequest{
		ProductName: "Ceramic Mug",
		TargetPrice: 3.5,
	})
	if err != nil {
		t.Fatalf("创建寻源请求失败: %v", err)
	}
	return vo
}

// ==================== 创建 ====================

func TestCreateSourcing_RejectsBlankName(t *testing.T) {
	f := newSourcingFixture(t)

	_, err := f.svc.CreateSourcing(context.Background(), &dto.CreateSourcingRequest{ProductName: "   "})
	if err == nil {
		t.Error("空商品名应被拒绝")
	}
}

func TestCreateSourcing_StartsPending(t *testing.T) {
	f := newSourcingFixture(t)

	vo := f.create(t)
	if vo.Status != model.SourcingStatusPending {
		t.Errorf("新请求应为 pending，实际 %s", vo.Status)
	}
	if vo.CJSourcingID != "CJS-1" {
		t.Errorf("远端寻源 ID 错误: %s", vo.CJSourcingID)
	}
	if !strings.HasPrefix(vo.RequestNum, "SR") {
		t.Errorf("请求编号前缀错误: %s", vo.RequestNum)
	}
}

// ==================== 刷新 ====================

func TestRefresh_PendingMovesToProcessing(t *testing.T) {
	f := newSourcingFixture(t)
	vo := f.create(t)

	f.api.querySourcingFn = func(ctx context.Context, sourcingID string) (*cj.SourcingResultDTO, error) {
		return &cj.SourcingResultDTO{SourcingID: sourcingID, Status: cj.RemoteSourcingPending}, nil
	}

	fresh, err := f.svc.Refresh(context.Background(), vo.ID)
	if err != nil {
		t.Fatalf("刷新失败: %v", err)
	}
	if fresh.Status != model.SourcingStatusProcessing {
		t.Errorf("首次查询后应为 processing，实际 %s", fresh.Status)
	}
	if fresh.LastCheckedAt == nil {
		t.Error("最近查询时间应被记录")
	}
}

func TestRefresh_FoundRecordsResolution(t *testing.T) {
	f := newSourcingFixture(t)
	vo := f.create(t)

	f.api.querySourcingFn = func(ctx context.Context, sourcingID string) (*cj.SourcingResultDTO, error) {
		return &cj.SourcingResultDTO{
			SourcingID: sourcingID,
			Status:     cj.RemoteSourcingFound,
			Pid:        "P-HIT",
			Vid:        "V-HIT",
			SellPrice:  2.99,
		}, nil
	}

	fresh, err := f.svc.Refresh(context.Background(), vo.ID)
	if err != nil {
		t.Fatalf("刷新失败: %v", err)
	}
	if fresh.Status != model.SourcingStatusFound {
		t.Errorf("期望 found，实际 %s", fresh.Status)
	}
	if fresh.ResolvedPid != "P-HIT" || fresh.ResolvedVid != "V-HIT" || fresh.ResolvedPrice != 2.99 {
		t.Errorf("命中结果记录错误: pid=%s vid=%s price=%.2f",
			fresh.ResolvedPid, fresh.ResolvedVid, fresh.ResolvedPrice)
	}
	if fresh.FoundAt == nil {
		t.Error("命中时间应被记录")
	}
}

func TestRefresh_FailedRecordsReason(t *testing.T) {
	f := newSourcingFixture(t)
	vo := f.create(t)

	f.api.querySourcingFn = func(ctx context.Context, sourcingID string) (*cj.SourcingResultDTO, error) {
		return &cj.SourcingResultDTO{SourcingID: sourcingID, Status: cj.RemoteSourcingFailed, Remark: "无货源"}, nil
	}

	fresh, err := f.svc.Refresh(context.Background(), vo.ID)
	if err != nil {
		t.Fatalf("刷新失败: %v", err)
	}
	if fresh.Status != model.SourcingStatusFailed {
		t.Errorf("期望 failed，实际 %s", fresh.Status)
	}
	if fresh.FailReason != "无货源" {
		t.Errorf("失败原因记录错误: %s", fresh.FailReason)
	}
}

func TestRefresh_TerminalSkipsRemote(t *testing.T) {
	f := newSourcingFixture(t)
	vo := f.create(t)

	f.api.querySourcingFn = func(ctx context.Context, sourcingID string) (*cj.SourcingResultDTO, error) {
		return &cj.SourcingResultDTO{SourcingID: sourcingID, Status: cj.RemoteSourcingFailed, Remark: "无货源"}, nil
	}
	if _, err := f.svc.Refresh(context.Background(), vo.ID); err != nil {
		t.Fatalf("刷新失败: %v", err)
	}

	// 到终态后不再打远端
	f.api.querySourcingFn = func(ctx context.Context, sourcingID string) (*cj.SourcingResultDTO, error) {
		t.Error("终态请求不应再查询远端")
		return nil, errNotStubbed
	}
	fresh, err := f.svc.Refresh(context.Background(), vo.ID)
	if err != nil {
		t.Fatalf("刷新失败: %v", err)
	}
	if fresh.Status != model.SourcingStatusFailed {
		t.Errorf("终态不应改变: %s", fresh.Status)
	}
}

func TestRefreshAll_ContinuesPastFailures(t *testing.T) {
	f := newSourcingFixture(t)

	cjIDs := []string{"CJS-A", "CJS-BAD", "CJS-C"}
	for _, id := range cjIDs {
		cjID := id
		f.api.createSourcingFn = func(ctx context.Context, req *cj.CreateSourcingRequest) (*cj.CreateSourcingResult, error) {
			return &cj.CreateSourcingResult{SourcingID: cjID}, nil
		}
		f.create(t)
	}

	f.api.querySourcingFn = func(ctx context.Context, sourcingID string) (*cj.SourcingResultDTO, error) {
		switch sourcingID {
		case "CJS-BAD":
			return nil, errors.New("remote timeout")
		case "CJS-A":
			return &cj.SourcingResultDTO{SourcingID: sourcingID, Status: cj.RemoteSourcingFound, Pid: "P1", Vid: "V1", SellPrice: 1}, nil
		default:
			return &cj.SourcingResultDTO{SourcingID: sourcingID, Status: cj.RemoteSourcingPending}, nil
		}
	}

	resp, err := f.svc.RefreshAll(context.Background())
	if err != nil {
		t.Fatalf("批量刷新失败: %v", err)
	}
	if resp.Checked != 3 {
		t.Errorf("应检查 3 个请求，实际 %d", resp.Checked)
	}
	if resp.Found != 1 || resp.Pending != 1 || resp.Failed != 1 {
		t.Errorf("计数错误: %+v", resp)
	}
	if len(resp.Errors) != 1 || !strings.Contains(resp.Errors[0], "remote timeout") {
		t.Errorf("单项错误应被记录: %v", resp.Errors)
	}
}

// ==================== 导入 ====================

func (f *sourcingFixture) createFound(t *testing.T) *dto.SourcingVO {
	t.Helper()
	vo := f.create(t)
	f.api.querySourcingFn = func(ctx context.Context, sourcingID string) (*cj.SourcingResultDTO, error) {
		return &cj.SourcingResultDTO{
			SourcingID: sourcingID,
			Status:     cj.RemoteSourcingFound,
			Pid:        "P001",
			Vid:        "V001",
			SellPrice:  12.5,
		}, nil
	}
	f.api.queryProductFn = func(ctx context.Context, pid string) (*cj.ProductDetailDTO, error) {
		return structuredDetail(), nil
	}
	fresh, err := f.svc.Refresh(context.Background(), vo.ID)
	if err != nil {
		t.Fatalf("刷新失败: %v", err)
	}
	return fresh
}

func TestImportResult_ImportsOnce(t *testing.T) {
	f := newSourcingFixture(t)
	vo := f.createFound(t)

	resp, err := f.svc.ImportResult(context.Background(), vo.ID, &dto.ImportSourcingRequest{Margin: 0.2})
	if err != nil {
		t.Fatalf("导入失败: %v", err)
	}
	if resp.AlreadyImported {
		t.Error("首次导入不应标记为重复")
	}
	if resp.ProductID == 0 || resp.CJProductID != "P001" {
		t.Errorf("导入结果错误: %+v", resp)
	}

	product, err := f.productRepo.GetByCJProductID(context.Background(), "P001")
	if err != nil {
		t.Fatalf("查询导入商品失败: %v", err)
	}
	if product.ID != resp.ProductID {
		t.Errorf("本地商品 ID 不一致: %d vs %d", product.ID, resp.ProductID)
	}

	// 第二次导入拿到空操作结果
	again, err := f.svc.ImportResult(context.Background(), vo.ID, &dto.ImportSourcingRequest{})
	if err != nil {
		t.Fatalf("重复导入应为空操作: %v", err)
	}
	if !again.AlreadyImported || again.ProductID != resp.ProductID {
		t.Errorf("重复导入结果错误: %+v", again)
	}
}

func TestImportResult_RejectsNonFound(t *testing.T) {
	f := newSourcingFixture(t)
	vo := f.create(t)

	if _, err := f.svc.ImportResult(context.Background(), vo.ID, &dto.ImportSourcingRequest{}); err == nil {
		t.Error("未命中的请求不应允许导入")
	}
}

func TestImportResult_ConcurrentSingleWinner(t *testing.T) {
	f := newSourcingFixture(t)
	vo := f.createFound(t)

	const n = 6
	var wg sync.WaitGroup
	results := make([]*dto.ImportSourcingResponse, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.ImportResult(context.Background(), vo.ID, &dto.ImportSourcingRequest{})
		}(i)
	}
	wg.Wait()

	winners := 0
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("并发导入第 %d 个失败: %v", i, errs[i])
		}
		if !results[i].AlreadyImported {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("导入标志应只置位一次，赢家数 %d", winners)
	}

	products, total, err := f.productRepo.List(context.Background(), repository.ProductFilter{})
	if err != nil {
		t.Fatalf("查询商品失败: %v", err)
	}
	if total != 1 || len(products) != 1 {
		t.Errorf("并发导入只应产生一个商品，实际 %d", total)
	}
}
