package service

import (
	"context"

	"cj_dropship_v1_202608/pkg/cj"
)

// ==================== 依赖接口 ====================

// SupplierAPI CJ 开放平台能力集
// 取 *cj.Client 的子集做接口，业务层和测试只依赖这一层
type SupplierAPI interface {
	SearchProducts(ctx context.Context, keyword, categoryID string, pageNum, pageSize int) (*cj.ProductSearchPage, error)
	QueryProduct(ctx context.Context, pid string) (*cj.ProductDetailDTO, error)
	QueryVariants(ctx context.Context, pid string) ([]cj.VariantDTO, error)
	StockByVid(ctx context.Context, vid string) ([]cj.StockDTO, error)

	CreateOrder(ctx context.Context, req *cj.CreateOrderRequest) (*cj.CreateOrderResult, error)
	QueryOrder(ctx context.Context, cjOrderID string) (*cj.OrderDetailDTO, error)
	ConfirmOrder(ctx context.Context, cjOrderID string) error
	DeleteOrder(ctx context.Context, cjOrderID string) error

	CreateDispute(ctx context.Context, req *cj.CreateDisputeRequest) (*cj.CreateDisputeResult, error)
	CancelDispute(ctx context.Context, disputeID string) error
	ListDisputes(ctx context.Context, orderID string, pageNum, pageSize int) (*cj.DisputeListPage, error)

	CreateSourcing(ctx context.Context, req *cj.CreateSourcingRequest) (*cj.CreateSourcingResult, error)
	QuerySourcing(ctx context.Context, sourcingID string) (*cj.SourcingResultDTO, error)
}

var _ SupplierAPI = (*cj.Client)(nil)
