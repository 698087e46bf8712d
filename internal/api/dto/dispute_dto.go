package dto

import "time"

// ==================== 创建纠纷 ====================

// CreateDisputeRequest 创建售后纠纷
// 校验规则：描述必填且 ≤500 字；至少选一个商品行；每行必须带价格
type CreateDisputeRequest struct {
	CJOrderID     string              `json:"cj_order_id" binding:"required"`
	DisputeReason string              `json:"dispute_reason" binding:"required"`
	FinallyDeal   int                 `json:"finally_deal" binding:"required,oneof=1 2 3"`
	Message       string              `json:"message" binding:"required,max=500"`
	ImageURLs     []string            `json:"image_urls"`
	VideoURL      string              `json:"video_url"`
	Items         []DisputeItemReq    `json:"items" binding:"required,min=1,dive"`
}

// DisputeItemReq 纠纷商品行
type DisputeItemReq struct {
	CJProductID string  `json:"cj_product_id"`
	CJVariantID string  `json:"cj_variant_id" binding:"required"`
	LineItemID  string  `json:"line_item_id"`
	Quantity    int     `json:"quantity" binding:"required,min=1"`
	Price       float64 `json:"price"` // 必须 >0，服务层校验（0 是缺价格的典型症状）
}

// CreateDisputeResponse 创建结果
type CreateDisputeResponse struct {
	DisputeID   int64  `json:"dispute_id"`
	CJDisputeID string `json:"cj_dispute_id"`
	Status      string `json:"status"`
}

// ==================== 纠纷列表 ====================

// ListDisputesRequest 纠纷列表查询
type ListDisputesRequest struct {
	CJOrderID   string `form:"cj_order_id"`
	CJOrderNum  string `form:"cj_order_num"`
	CJDisputeID string `form:"cj_dispute_id"`
	Status      string `form:"status"`
	Page        int    `form:"page"`
	PageSize    int    `form:"page_size"`
}

// DisputeVO 纠纷视图
type DisputeVO struct {
	ID                int64           `json:"id"`
	CJDisputeID       string          `json:"cj_dispute_id"`
	CJOrderID         string          `json:"cj_order_id"`
	CJOrderNum        string          `json:"cj_order_num"`
	Status            string          `json:"status"`
	DisputeReason     string          `json:"dispute_reason"`
	FinallyDeal       int             `json:"finally_deal"`
	Message           string          `json:"message"`
	RefundAmount      float64         `json:"refund_amount"`
	ReplacementAmount float64         `json:"replacement_amount"`
	ResendOrderID     string          `json:"resend_order_id"`
	ImageURLs         []string        `json:"image_urls"`
	Items             []DisputeItemVO `json:"items"`
	CreatedAt         time.Time       `json:"created_at"`
}

// DisputeItemVO 纠纷商品行视图
type DisputeItemVO struct {
	CJProductID string  `json:"cj_product_id"`
	CJVariantID string  `json:"cj_variant_id"`
	LineItemID  string  `json:"line_item_id"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// ListDisputesResponse 纠纷列表
type ListDisputesResponse struct {
	Total int64       `json:"total"`
	List  []DisputeVO `json:"list"`
}

// ==================== 纠纷统计 ====================

// DisputeAnalyticsResponse 纠纷聚合统计
type DisputeAnalyticsResponse struct {
	TotalDisputes      int64            `json:"total_disputes"`
	RefundCount        int64            `json:"refund_count"`
	ReissueCount       int64            `json:"reissue_count"`
	RejectCount        int64            `json:"reject_count"`
	TotalRefundAmount  float64          `json:"total_refund_amount"`
	TotalReissueAmount float64          `json:"total_reissue_amount"`
	ByStatus           map[string]int64 `json:"by_status"`
}
