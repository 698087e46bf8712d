package service

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cj_dropship_v1_202608/internal/model"
	"cj_dropship_v1_202608/pkg/cj"
)

// ==================== 测试辅助 ====================

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	// :memory: 数据库是连接级的，连接池必须锁定单连接
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(
		&model.Product{}, &model.ProductVariant{},
		&model.OrderMapping{},
		&model.DisputeRecord{}, &model.DisputeItem{},
		&model.SourcingRequest{},
		&model.WebhookMessage{},
	); err != nil {
		t.Fatalf("建表失败: %v", err)
	}
	return db
}

// ==================== fakeSupplier 可编程的 CJ 假客户端 ====================

// fakeSupplier 按需注入方法实现，未注入的方法返回 errNotStubbed
type fakeSupplier struct {
	searchFn         func(ctx context.Context, keyword, categoryID string, pageNum, pageSize int) (*cj.ProductSearchPage, error)
	queryProductFn   func(ctx context.Context, pid string) (*cj.ProductDetailDTO, error)
	queryVariantsFn  func(ctx context.Context, pid string) ([]cj.VariantDTO, error)
	stockFn          func(ctx context.Context, vid string) ([]cj.StockDTO, error)
	createOrderFn    func(ctx context.Context, req *cj.CreateOrderRequest) (*cj.CreateOrderResult, error)
	queryOrderFn     func(ctx context.Context, cjOrderID string) (*cj.OrderDetailDTO, error)
	confirmOrderFn   func(ctx context.Context, cjOrderID string) error
	deleteOrderFn    func(ctx context.Context, cjOrderID string) error
	createDisputeFn  func(ctx context.Context, req *cj.CreateDisputeRequest) (*cj.CreateDisputeResult, error)
	cancelDisputeFn  func(ctx context.Context, disputeID string) error
	listDisputesFn   func(ctx context.Context, orderID string, pageNum, pageSize int) (*cj.DisputeListPage, error)
	createSourcingFn func(ctx context.Context, req *cj.CreateSourcingRequest) (*cj.CreateSourcingResult, error)
	querySourcingFn  func(ctx context.Context, sourcingID string) (*cj.SourcingResultDTO, error)
}

var errNotStubbed = errors.New("方法未注入实现")

func (f *fakeSupplier) SearchProducts(ctx context.Context, keyword, categoryID string, pageNum, pageSize int) (*cj.ProductSearchPage, error) {
	if f.searchFn == nil {
		return nil, errNotStubbed
	}
	return f.searchFn(ctx, keyword, categoryID, pageNum, pageSize)
}

func (f *fakeSupplier) QueryProduct(ctx context.Context, pid string) (*cj.ProductDetailDTO, error) {
	if f.queryProductFn == nil {
		return nil, errNotStubbed
	}
	return f.queryProductFn(ctx, pid)
}

func (f *fakeSupplier) QueryVariants(ctx context.Context, pid string) ([]cj.VariantDTO, error) {
	if f.queryVariantsFn == nil {
		return nil, errNotStubbed
	}
	return f.queryVariantsFn(ctx, pid)
}

func (f *fakeSupplier) StockByVid(ctx context.Context, vid string) ([]cj.StockDTO, error) {
	if f.stockFn == nil {
		return nil, errNotStubbed
	}
	return f.stockFn(ctx, vid)
}

func (f *fakeSupplier) CreateOrder(ctx context.Context, req *cj.CreateOrderRequest) (*cj.CreateOrderResult, error) {
	if f.createOrderFn == nil {
		return nil, errNotStubbed
	}
	return f.createOrderFn(ctx, req)
}

func (f *fakeSupplier) QueryOrder(ctx context.Context, cjOrderID string) (*cj.OrderDetailDTO, error) {
	if f.queryOrderFn == nil {
		return nil, errNotStubbed
	}
	return f.queryOrderFn(ctx, cjOrderID)
}

func (f *fakeSupplier) ConfirmOrder(ctx context.Context, cjOrderID string) error {
	if f.confirmOrderFn == nil {
		return errNotStubbed
	}
	return f.confirmOrderFn(ctx, cjOrderID)
}

func (f *fakeSupplier) DeleteOrder(ctx context.Context, cjOrderID string) error {
	if f.deleteOrderFn == nil {
		return errNotStubbed
	}
	return f.deleteOrderFn(ctx, cjOrderID)
}

func (f *fakeSupplier) CreateDispute(ctx context.Context, req *cj.CreateDisputeRequest) (*cj.CreateDisputeResult, error) {
	if f.createDisputeFn == nil {
		return nil, errNotStubbed
	}
	return f.createDisputeFn(ctx, req)
}

func (f *fakeSupplier) CancelDispute(ctx context.Context, disputeID string) error {
	if f.cancelDisputeFn == nil {
		return errNotStubbed
	}
	return f.cancelDisputeFn(ctx, disputeID)
}

func (f *fakeSupplier) ListDisputes(ctx context.Context, orderID string, pageNum, pageSize int) (*cj.DisputeListPage, error) {
	if f.listDisputesFn == nil {
		return nil, errNotStubbed
	}
	return f.listDisputesFn(ctx, orderID, pageNum, pageSize)
}

func (f *fakeSupplier) CreateSourcing(ctx context.Context, req *cj.CreateSourcingRequest) (*cj.CreateSourcingResult, error) {
	if f.createSourcingFn == nil {
		return nil, errNotStubbed
	}
	return f.createSourcingFn(ctx, req)
}

func (f *fakeSupplier) QuerySourcing(ctx context.Context, sourcingID string) (*cj.SourcingResultDTO, error) {
	if f.querySourcingFn == nil {
		return nil, errNotStubbed
	}
	return f.querySourcingFn(ctx, sourcingID)
}
