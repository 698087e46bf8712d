package cj

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://developers.cjdropshipping.com/api2.0/v1"

// ==================== 配置 ====================

// Config CJ 客户端配置
type Config struct {
	BaseURL     string
	AccessToken string
	// TierQPS 账户等级对应的限速（1~6 请求/秒）
	// 超速会让 CJ 对整个账户限流，所以限速器是进程级共享的
	TierQPS    float64
	Timeout    time.Duration
	MaxRetries int
}

// ==================== 错误类型 ====================

// APIError CJ 返回的业务错误
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("CJ 业务错误 [%d]: %s", e.Code, e.Message)
}

// CJ 限流错误码
const codeTooManyRequests = 429

// IsRateLimited 是否为限流错误
func (e *APIError) IsRateLimited() bool {
	return e.Code == codeTooManyRequests
}

// ==================== Client ====================

// Client CJ 开放平台客户端
// 所有方法共享同一个令牌桶限速器；瞬时错误（限流/网络超时/5xx）
// 在客户端内部退避重试，重试耗尽后才把最后一个错误抛给调用方
type Client struct {
	http       *resty.Client
	limiter    *rate.Limiter
	maxRetries int
}

// NewClient 创建 CJ 客户端
func NewClient(cfg *Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.TierQPS <= 0 {
		cfg.TierQPS = 1 // 默认最低档
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("CJ-Access-Token", cfg.AccessToken).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:       httpClient,
		limiter:    rate.NewLimiter(rate.Limit(cfg.TierQPS), 1),
		maxRetries: cfg.MaxRetries,
	}
}

// ==================== 请求底座 ====================

// do 统一请求入口：限速 → 发送 → 信封解析 → 瞬时错误重试
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) error {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			// 指数退避：500ms, 1s, 2s...
			backoff := 500 * time.Millisecond << (attempt - 1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		// 进程级限速，所有调用方排队
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		retryable, err := c.doOnce(ctx, method, path, query, body, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
	}

	return fmt.Errorf("CJ 请求重试耗尽: %w", lastErr)
}

// doOnce 单次请求，返回 (是否可重试, 错误)
func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) (bool, error) {
	var envelope Response

	req := c.http.R().
		SetContext(ctx).
		SetResult(&envelope)
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		// 网络层错误：可重试
		return true, fmt.Errorf("网络请求发送失败: %w", err)
	}

	// HTTP 层限流和服务端错误：可重试
	if resp.StatusCode() == 429 || resp.StatusCode() >= 500 {
		return true, fmt.Errorf("CJ 接口异常 (Status %d): %s", resp.StatusCode(), resp.String())
	}
	if resp.StatusCode() >= 400 {
		return false, fmt.Errorf("CJ 请求被拒绝 (Status %d): %s", resp.StatusCode(), resp.String())
	}

	// 业务信封
	if !envelope.Result || envelope.Code != 200 {
		apiErr := &APIError{Code: envelope.Code, Message: envelope.Message}
		// CJ 把账户级限流放在业务码里返回
		return apiErr.IsRateLimited(), apiErr
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return false, fmt.Errorf("解析 CJ 响应失败: %w", err)
		}
	}
	return false, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, "GET", path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.do(ctx, "POST", path, nil, body, out)
}

// ==================== 分类 / 商品 ====================

// GetCategories 获取分类树
func (c *Client) GetCategories(ctx context.Context) ([]CategoryDTO, error) {
	var out []CategoryDTO
	if err := c.get(ctx, "/product/getCategory", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchProducts 搜索商品
func (c *Client) SearchProducts(ctx context.Context, keyword, categoryID string, pageNum, pageSize int) (*ProductSearchPage, error) {
	if pageNum <= 0 {
		pageNum = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	query := url.Values{}
	query.Set("pageNum", fmt.Sprint(pageNum))
	query.Set("pageSize", fmt.Sprint(pageSize))
	if keyword != "" {
		query.Set("productNameEn", keyword)
	}
	if categoryID != "" {
		query.Set("categoryId", categoryID)
	}

	var out ProductSearchPage
	if err := c.get(ctx, "/product/list", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QueryProduct 查询商品详情
func (c *Client) QueryProduct(ctx context.Context, pid string) (*ProductDetailDTO, error) {
	query := url.Values{}
	query.Set("pid", pid)

	var out ProductDetailDTO
	if err := c.get(ctx, "/product/query", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QueryVariants 查询商品变体列表
func (c *Client) QueryVariants(ctx context.Context, pid string) ([]VariantDTO, error) {
	query := url.Values{}
	query.Set("pid", pid)

	var out []VariantDTO
	if err := c.get(ctx, "/product/variant/query", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StockByVid 按变体查询各仓库存
func (c *Client) StockByVid(ctx context.Context, vid string) ([]StockDTO, error) {
	query := url.Values{}
	query.Set("vid", vid)

	var out []StockDTO
	if err := c.get(ctx, "/product/stock/queryByVid", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ==================== 订单 ====================

// CreateOrder 创建 CJ 订单
func (c *Client) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResult, error) {
	var out CreateOrderResult
	if err := c.post(ctx, "/shopping/order/createOrderV2", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QueryOrder 查询 CJ 订单详情
func (c *Client) QueryOrder(ctx context.Context, cjOrderID string) (*OrderDetailDTO, error) {
	query := url.Values{}
	query.Set("orderId", cjOrderID)

	var out OrderDetailDTO
	if err := c.get(ctx, "/shopping/order/getOrderDetail", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmOrder 确认（支付）CJ 订单
func (c *Client) ConfirmOrder(ctx context.Context, cjOrderID string) error {
	body := map[string]string{"orderId": cjOrderID}
	return c.post(ctx, "/shopping/pay/payBalance", body, nil)
}

// DeleteOrder 删除未确认的 CJ 订单
func (c *Client) DeleteOrder(ctx context.Context, cjOrderID string) error {
	body := map[string]string{"orderId": cjOrderID}
	return c.post(ctx, "/shopping/order/deleteOrder", body, nil)
}

// ==================== 售后纠纷 ====================

// CreateDispute 创建纠纷
func (c *Client) CreateDispute(ctx context.Context, req *CreateDisputeRequest) (*CreateDisputeResult, error) {
	var out CreateDisputeResult
	if err := c.post(ctx, "/disputes/create", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelDispute 取消纠纷
func (c *Client) CancelDispute(ctx context.Context, disputeID string) error {
	body := map[string]string{"disputeId": disputeID}
	return c.post(ctx, "/disputes/cancel", body, nil)
}

// ListDisputes 查询纠纷列表
func (c *Client) ListDisputes(ctx context.Context, orderID string, pageNum, pageSize int) (*DisputeListPage, error) {
	if pageNum <= 0 {
		pageNum = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	query := url.Values{}
	query.Set("pageNum", fmt.Sprint(pageNum))
	query.Set("pageSize", fmt.Sprint(pageSize))
	if orderID != "" {
		query.Set("orderId", orderID)
	}

	var out DisputeListPage
	if err := c.get(ctx, "/disputes/getDisputeList", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ==================== 选品寻源 ====================

// CreateSourcing 创建寻源请求
func (c *Client) CreateSourcing(ctx context.Context, req *CreateSourcingRequest) (*CreateSourcingResult, error) {
	var out CreateSourcingResult
	if err := c.post(ctx, "/sourcing/create", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QuerySourcing 查询寻源结果
func (c *Client) QuerySourcing(ctx context.Context, sourcingID string) (*SourcingResultDTO, error) {
	query := url.Values{}
	query.Set("sourceId", sourcingID)

	var out SourcingResultDTO
	if err := c.get(ctx, "/sourcing/query", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
