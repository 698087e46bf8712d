package dto

import "time"

// ==================== 订单同步 ====================

// SyncSummaryResponse 同步结果汇总（单个或批量通用）
type SyncSummaryResponse struct {
	Updated   int      `json:"updated"`
	Unchanged int      `json:"unchanged"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// ==================== CJ 下单 ====================

// CreateCJOrderRequest 把本地订单推送到 CJ
type CreateCJOrderRequest struct {
	LocalOrderID  int64  `json:"local_order_id" binding:"required"`
	LocalOrderNum string `json:"local_order_num"`

	// 收件信息
	CustomerName string `json:"customer_name" binding:"required"`
	Phone        string `json:"phone"`
	CountryCode  string `json:"country_code" binding:"required"`
	Province     string `json:"province"`
	City         string `json:"city"`
	Address      string `json:"address" binding:"required"`
	Zip          string `json:"zip"`

	LogisticName string `json:"logistic_name"`
	Remark       string `json:"remark"`

	Products []CJOrderProductReq `json:"products" binding:"required,min=1,dive"`
}

// CJOrderProductReq 下单商品行
type CJOrderProductReq struct {
	Vid      string `json:"vid" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

// CreateCJOrderResponse 下单结果
type CreateCJOrderResponse struct {
	MappingID  int64  `json:"mapping_id"`
	CJOrderID  string `json:"cj_order_id"`
	CJOrderNum string `json:"cj_order_num"`
	Status     string `json:"status"`
}

// ==================== 映射列表 ====================

// ListMappingsRequest 订单映射列表查询
type ListMappingsRequest struct {
	Status   string `form:"status"`
	Keyword  string `form:"keyword"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// OrderMappingVO 订单映射视图
type OrderMappingVO struct {
	ID            int64      `json:"id"`
	LocalOrderID  int64      `json:"local_order_id"`
	LocalOrderNum string     `json:"local_order_num"`
	CJOrderID     string     `json:"cj_order_id"`
	CJOrderNum    string     `json:"cj_order_num"`
	Status        string     `json:"status"`
	TrackNumber   string     `json:"track_number"`
	LogisticName  string     `json:"logistic_name"`
	ProductAmount float64    `json:"product_amount"`
	PostageAmount float64    `json:"postage_amount"`
	TotalAmount   float64    `json:"total_amount"`
	Currency      string     `json:"currency"`
	LastSyncedAt  *time.Time `json:"last_synced_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ListMappingsResponse 订单映射列表
type ListMappingsResponse struct {
	Total int64            `json:"total"`
	List  []OrderMappingVO `json:"list"`
}
