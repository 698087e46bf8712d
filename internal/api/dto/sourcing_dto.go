package dto

import "time"

// ==================== 寻源请求 ====================

// CreateSourcingRequest 创建寻源请求
type CreateSourcingRequest struct {
	ProductName  string  `json:"product_name" binding:"required"`
	ProductImage string  `json:"product_image"`
	SourceURL    string  `json:"source_url"`
	TargetPrice  float64 `json:"target_price" binding:"min=0"`
	Remark       string  `json:"remark" binding:"max=500"`
}

// SourcingVO 寻源请求视图
type SourcingVO struct {
	ID            int64      `json:"id"`
	RequestNum    string     `json:"request_num"`
	CJSourcingID  string     `json:"cj_sourcing_id"`
	ProductName   string     `json:"product_name"`
	ProductImage  string     `json:"product_image"`
	TargetPrice   float64    `json:"target_price"`
	Status        string     `json:"status"`
	ResolvedPid   string     `json:"resolved_pid"`
	ResolvedVid   string     `json:"resolved_vid"`
	ResolvedPrice float64    `json:"resolved_price"`
	FailReason    string     `json:"fail_reason"`
	Imported      bool       `json:"imported"`
	LocalProductID int64     `json:"local_product_id"`
	LastCheckedAt *time.Time `json:"last_checked_at"`
	FoundAt       *time.Time `json:"found_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ListSourcingRequest 寻源列表查询
type ListSourcingRequest struct {
	Status   string `form:"status"`
	Keyword  string `form:"keyword"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// ListSourcingResponse 寻源列表
type ListSourcingResponse struct {
	Total int64        `json:"total"`
	List  []SourcingVO `json:"list"`
}

// ==================== 批量刷新 ====================

// RefreshAllResponse 批量刷新结果
// 单项失败不会中断批次，逐项结果在 Errors 里
type RefreshAllResponse struct {
	Checked int      `json:"checked"`
	Found   int      `json:"found"`
	Pending int      `json:"pending"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// ==================== 寻源结果导入 ====================

// ImportSourcingRequest 把寻源结果导入本地商品
type ImportSourcingRequest struct {
	CategoryID int64   `json:"category_id"`
	Margin     float64 `json:"margin" binding:"min=0"`
}

// ImportSourcingResponse 导入结果
type ImportSourcingResponse struct {
	ProductID       int64  `json:"product_id"`
	CJProductID     string `json:"cj_product_id"`
	AlreadyImported bool   `json:"already_imported"` // true = 此前已导入，本次为空操作
}
