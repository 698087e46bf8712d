package cj

import "encoding/json"

// ==========================================
// DTO: 用于接收 CJ 开放平台 API 返回的原始 JSON 数据
// ==========================================

// Response CJ 统一响应信封
// 业务成功的标志是 result=true 且 code=200
type Response struct {
	Code      int             `json:"code"`
	Result    bool            `json:"result"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"requestId"`
}

// ==================== 分类 ====================

// CategoryDTO 商品分类（三级树）
type CategoryDTO struct {
	CategoryFirstID    string                `json:"categoryFirstId"`
	CategoryFirstName  string                `json:"categoryFirstName"`
	CategoryFirstList  []CategorySecondDTO   `json:"categoryFirstList"`
}

type CategorySecondDTO struct {
	CategorySecondID   string             `json:"categorySecondId"`
	CategorySecondName string             `json:"categorySecondName"`
	CategorySecondList []CategoryThirdDTO `json:"categorySecondList"`
}

type CategoryThirdDTO struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
}

// ==================== 商品搜索 ====================

// ProductSearchPage 商品搜索分页结果
type ProductSearchPage struct {
	PageNum  int                 `json:"pageNum"`
	PageSize int                 `json:"pageSize"`
	Total    int                 `json:"total"`
	List     []ProductSummaryDTO `json:"list"`
}

// ProductSummaryDTO 搜索列表中的商品摘要
type ProductSummaryDTO struct {
	Pid           string  `json:"pid"`
	ProductNameEn string  `json:"productNameEn"`
	ProductSku    string  `json:"productSku"`
	ProductImage  string  `json:"productImage"`
	ProductWeight float64 `json:"productWeight"`
	ProductType   string  `json:"productType"`
	CategoryID    string  `json:"categoryId"`
	CategoryName  string  `json:"categoryName"`
	SellPrice     float64 `json:"sellPrice"`
	ListedNum     int     `json:"listedNum"`
}

// ==================== 商品详情 ====================

// ProductDetailDTO 商品详情
// Variants 是新版结构化变体列表；VariantsJSON 是旧版内联 JSON 字符串，
// 老商品只有后者，两种表示都必须能还原出同样的本地变体
type ProductDetailDTO struct {
	Pid           string       `json:"pid"`
	ProductNameEn string       `json:"productNameEn"`
	ProductName   string       `json:"productName"`
	ProductSku    string       `json:"productSku"`
	ProductImage  string       `json:"productImage"`
	ProductWeight float64      `json:"productWeight"`
	CategoryID    string       `json:"categoryId"`
	CategoryName  string       `json:"categoryName"`
	SellPrice     float64      `json:"sellPrice"`
	Description   string       `json:"description"`
	Status        string       `json:"status"`
	Variants      []VariantDTO `json:"variants"`
	VariantsJSON  string       `json:"variantsJson"` // 旧版内联变体
}

// VariantDTO 结构化变体
type VariantDTO struct {
	Vid              string  `json:"vid"`
	Pid              string  `json:"pid"`
	VariantName      string  `json:"variantName"`
	VariantNameEn    string  `json:"variantNameEn"`
	VariantSku       string  `json:"variantSku"`
	VariantImage     string  `json:"variantImage"`
	VariantKey       string  `json:"variantKey"` // 规格组合，如 "Black-S"
	VariantSellPrice float64 `json:"variantSellPrice"`
	VariantWeight    float64 `json:"variantWeight"`
	VariantStock     int     `json:"variantStock"`
}

// LegacyVariantDTO 旧版内联变体的字段（variantsJson 字符串内的结构）
type LegacyVariantDTO struct {
	Vid   string  `json:"vid"`
	SKU   string  `json:"sku"`
	Key   string  `json:"key"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
	Image string  `json:"image"`
}

// ==================== 库存 ====================

// StockDTO 按仓库维度的库存
type StockDTO struct {
	Vid         string `json:"vid"`
	AreaID      string `json:"areaId"`
	AreaEn      string `json:"areaEn"`
	CountryCode string `json:"countryCode"`
	StorageNum  int    `json:"storageNum"`
}

// ==================== 订单 ====================

// CJ 订单状态（远端枚举）
const (
	RemoteOrderCreated   = "CREATED"
	RemoteOrderUnpaid    = "UNPAID"
	RemoteOrderPaid      = "PAID"
	RemoteOrderUnshipped = "UNSHIPPED"
	RemoteOrderShipped   = "SHIPPED"
	RemoteOrderDelivered = "DELIVERED"
	RemoteOrderCancelled = "CANCELLED"
	RemoteOrderError     = "ERROR"
)

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	OrderNumber   string              `json:"orderNumber"`
	ShippingZip   string              `json:"shippingZip"`
	ShippingCountryCode string        `json:"shippingCountryCode"`
	ShippingProvince    string        `json:"shippingProvince"`
	ShippingCity        string        `json:"shippingCity"`
	ShippingAddress     string        `json:"shippingAddress"`
	ShippingCustomerName string       `json:"shippingCustomerName"`
	ShippingPhone       string        `json:"shippingPhone"`
	Remark        string              `json:"remark,omitempty"`
	LogisticName  string              `json:"logisticName,omitempty"`
	FromCountryCode string            `json:"fromCountryCode,omitempty"`
	Products      []OrderProductParam `json:"products"`
}

// OrderProductParam 下单商品行
type OrderProductParam struct {
	Vid      string `json:"vid"`
	Quantity int    `json:"quantity"`
}

// CreateOrderResult 下单结果
type CreateOrderResult struct {
	OrderID  string `json:"orderId"`
	OrderNum string `json:"orderNum"`
}

// OrderDetailDTO 订单详情
type OrderDetailDTO struct {
	OrderID        string  `json:"orderId"`
	OrderNum       string  `json:"orderNum"`
	OrderStatus    string  `json:"orderStatus"`
	TrackNumber    string  `json:"trackNumber"`
	LogisticName   string  `json:"logisticName"`
	ProductAmount  float64 `json:"productAmount"`
	PostageAmount  float64 `json:"postageAmount"`
	DiscountAmount float64 `json:"discountAmount"`
	OrderAmount    float64 `json:"orderAmount"`
	CreateDate     string  `json:"createDate"`
	PaymentDate    string  `json:"paymentDate"`
}

// ==================== 售后纠纷 ====================

// 期望处理方式 finallyDeal
const (
	DealRefund  = 1 // 退款
	DealReissue = 2 // 补发
	DealReject  = 3 // 拒绝
)

// CreateDisputeRequest 创建纠纷请求
type CreateDisputeRequest struct {
	OrderID       string             `json:"orderId"`
	DisputeReason string             `json:"disputeReason"`
	ExpectType    int                `json:"expectType"` // finallyDeal 期望值
	Message       string             `json:"messageText"`
	ImageURLs     []string           `json:"imageUrls,omitempty"`
	VideoURL      string             `json:"videoUrl,omitempty"`
	Items         []DisputeItemParam `json:"productInfoList"`
}

// DisputeItemParam 纠纷商品行
type DisputeItemParam struct {
	LineItemID string  `json:"lineItemId"`
	Vid        string  `json:"vid"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
}

// CreateDisputeResult 创建纠纷结果
type CreateDisputeResult struct {
	DisputeID string `json:"disputeId"`
}

// DisputeDTO 纠纷详情
type DisputeDTO struct {
	DisputeID         string  `json:"disputeId"`
	OrderID           string  `json:"orderId"`
	OrderNumber       string  `json:"orderNumber"`
	DisputeStatus     string  `json:"disputeStatus"`
	DisputeReason     string  `json:"disputeReason"`
	FinallyDeal       int     `json:"finallyDeal"`
	RefundAmount      float64 `json:"refundAmount"`
	ReplacementAmount float64 `json:"replacementAmount"`
	ResendOrderID     string  `json:"resendOrderId"`
	CreateDate        string  `json:"createDate"`
}

// DisputeListPage 纠纷分页
type DisputeListPage struct {
	PageNum  int          `json:"pageNum"`
	PageSize int          `json:"pageSize"`
	Total    int          `json:"total"`
	List     []DisputeDTO `json:"list"`
}

// ==================== 选品寻源 ====================

// CreateSourcingRequest 创建寻源请求
type CreateSourcingRequest struct {
	ProductName  string  `json:"productName"`
	ProductImage string  `json:"productImage"`
	ProductURL   string  `json:"productUrl,omitempty"`
	TargetPrice  float64 `json:"targetPrice,omitempty"`
	Remark       string  `json:"remark,omitempty"`
}

// CreateSourcingResult 创建寻源结果
type CreateSourcingResult struct {
	SourcingID string `json:"sourcingId"`
}

// CJ 寻源状态（远端枚举）
const (
	RemoteSourcingPending = "PENDING"
	RemoteSourcingFound   = "FOUND"
	RemoteSourcingFailed  = "FAILED"
)

// SourcingResultDTO 寻源查询结果
type SourcingResultDTO struct {
	SourcingID string  `json:"sourcingId"`
	Status     string  `json:"status"`
	Pid        string  `json:"pid"`
	Vid        string  `json:"vid"`
	SellPrice  float64 `json:"sellPrice"`
	Remark     string  `json:"remark"`
}
