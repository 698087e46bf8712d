package dto

// ==================== 商品导入 ====================

// ImportProductRequest 从 CJ 导入商品
// 按 pid 幂等：重复导入同一个 pid 走更新路径
type ImportProductRequest struct {
	Pid        string   `json:"pid" binding:"required"`
	VariantIDs []string `json:"variant_ids"` // 为空导入全部变体
	CategoryID int64    `json:"category_id"`
	Margin     float64  `json:"margin" binding:"min=0"` // 毛利率，如 0.3 = 加价 30%
}

// ImportProductResponse 导入结果
type ImportProductResponse struct {
	ProductID    int64  `json:"product_id"`
	CJProductID  string `json:"cj_product_id"`
	Status       string `json:"status"`
	VariantCount int    `json:"variant_count"`
	Deactivated  int    `json:"deactivated"` // 本次软下架的变体数
	Updated      bool   `json:"updated"`     // true = 命中更新路径
}

// PrepareDraftRequest 预备草稿商品
// 首次 prepare 时分类和毛利率参与导入，已存在的商品不被覆盖
type PrepareDraftRequest struct {
	Pid        string  `json:"pid" binding:"required"`
	CategoryID int64   `json:"category_id"`
	Margin     float64 `json:"margin" binding:"min=0"`
}

// ==================== CJ 查询透传（走缓存）====================

// SearchProductsRequest 搜索 CJ 商品
type SearchProductsRequest struct {
	Keyword    string `form:"keyword"`
	CategoryID string `form:"category_id"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}
