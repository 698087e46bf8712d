package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cj_dropship_v1_202608/internal/model"
	"cj_dropship_v1_202608/internal/repository"
	"cj_dropship_v1_202608/internal/service"
	"cj_dropship_v1_202608/pkg/cj"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==================== 测试辅助 ====================

// stubSupplier 推送链路不需要打 CJ 接口，所有方法直接报错
type stubSupplier struct{}

var errStubSupplier = errors.New("测试桩不支持远端调用")

func (stubSupplier) SearchProducts(context.Context, string, string, int, int) (*cj.ProductSearchPage, error) {
	return nil, errStubSupplier
}
func (stubSupplier) QueryProduct(context.Context, string) (*cj.ProductDetailDTO, error) {
	return nil, errStubSupplier
}
func (stubSupplier) QueryVariants(context.Context, string) ([]cj.VariantDTO, error) {
	return nil, errStubSupplier
}
func (stubSupplier) StockByVid(context.Context, string) ([]cj.StockDTO, error) {
	return nil, errStubSupplier
}
func (stubSupplier) CreateOrder(context.Context, *cj.CreateOrderRequest) (*cj.CreateOrderResult, error) {
	return nil, errStubSupplier
}
func (stubSupplier) QueryOrder(context.Context, string) (*cj.OrderDetailDTO, error) {
	return nil, errStubSupplier
}
func (stubSupplier) ConfirmOrder(context.Context, string) error { return errStubSupplier }
func (stubSupplier) DeleteOrder(context.Context, string) error  { return errStubSupplier }
func (stubSupplier) CreateDispute(context.Context, *cj.CreateDisputeRequest) (*cj.CreateDisputeResult, error) {
	return nil, errStubSupplier
}
func (stubSupplier) CancelDispute(context.Context, string) error { return errStubSupplier }
func (stubSupplier) ListDisputes(context.Context, string, int, int) (*cj.DisputeListPage, error) {
	return nil, errStubSupplier
}
func (stubSupplier) CreateSourcing(context.Context, *cj.CreateSourcingRequest) (*cj.CreateSourcingResult, error) {
	return nil, errStubSupplier
}
func (stubSupplier) QuerySourcing(context.Context, string) (*cj.SourcingResultDTO, error) {
	return nil, errStubSupplier
}

func setupWebhookRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(
		&model.Product{}, &model.ProductVariant{},
		&model.OrderMapping{}, &model.WebhookMessage{},
	); err != nil {
		t.Fatalf("建表失败: %v", err)
	}

	webhookRepo := repository.NewWebhookRepository(db)
	productRepo := repository.NewProductRepository(db)
	variantRepo := repository.NewVariantRepository(db)
	orderRepo := repository.NewOrderMappingRepository(db)

	var api stubSupplier
	catalog := service.NewCatalogService(api, nil)
	importSvc := service.NewImportService(productRepo, variantRepo, catalog)
	orderSync := service.NewOrderSyncService(orderRepo, api)
	svc := service.NewWebhookService(webhookRepo, productRepo, variantRepo, orderRepo, orderSync, importSvc, catalog)

	ctl := NewWebhookController(svc)
	r := gin.New()
	r.POST("/api/webhooks/cj", ctl.Receive)
	r.GET("/api/webhooks", ctl.List)
	r.GET("/api/webhooks/stats", ctl.Stats)
	return r, db
}

func postJSON(r http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	switch v := body.(type) {
	case string:
		reqBody = bytes.NewBufferString(v)
	default:
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	}

	req, _ := http.NewRequest(http.MethodPost, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func getJSON(r http.Handler, path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func ackData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("回执解析失败: %v (%s)", err, w.Body.String())
	}
	return resp.Data
}

// ==================== 接收推送 ====================

func TestWebhookReceive_MalformedBody(t *testing.T) {
	r, _ := setupWebhookRouter(t)

	w := postJSON(r, "/api/webhooks/cj", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookReceive_MissingType(t *testing.T) {
	r, _ := setupWebhookRouter(t)

	w := postJSON(r, "/api/webhooks/cj", map[string]interface{}{"messageId": "M1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookReceive_StockUpdate(t *testing.T) {
	r, db := setupWebhookRouter(t)

	product := &model.Product{CJProductID: "P001", Name: "Earbuds", Status: model.ProductStatusActive}
	assert.NoError(t, db.Create(product).Error)
	variant := &model.ProductVariant{ProductID: product.ID, CJVariantID: "V001", Stock: 10, IsActive: true}
	assert.NoError(t, db.Create(variant).Error)

	w := postJSON(r, "/api/webhooks/cj", map[string]interface{}{
		"messageId": "M-STOCK-1",
		"type":      model.WebhookTypeStock,
		"params":    map[string]interface{}{"vid": "V001", "storageNum": 55},
	})
	assert.Equal(t, http.StatusOK, w.Code)

	data := ackData(t, w)
	assert.Equal(t, model.WebhookStatusProcessed, data["status"])
	assert.Equal(t, false, data["duplicate"])

	var fresh model.ProductVariant
	assert.NoError(t, db.Where("cj_variant_id = ?", "V001").First(&fresh).Error)
	assert.Equal(t, 55, fresh.Stock)
}

func TestWebhookReceive_DuplicateAcked(t *testing.T) {
	r, db := setupWebhookRouter(t)

	product := &model.Product{CJProductID: "P001", Name: "Earbuds", Status: model.ProductStatusActive}
	assert.NoError(t, db.Create(product).Error)
	variant := &model.ProductVariant{ProductID: product.ID, CJVariantID: "V001", Stock: 10, IsActive: true}
	assert.NoError(t, db.Create(variant).Error)

	body := map[string]interface{}{
		"messageId": "M-DUP",
		"type":      model.WebhookTypeStock,
		"params":    map[string]interface{}{"vid": "V001", "storageNum": 20},
	}
	first := postJSON(r, "/api/webhooks/cj", body)
	assert.Equal(t, http.StatusOK, first.Code)

	// 重投：200 + duplicate 标记，库存不再动
	db.Model(&model.ProductVariant{}).Where("cj_variant_id = ?", "V001").Update("stock", 99)
	second := postJSON(r, "/api/webhooks/cj", body)
	assert.Equal(t, http.StatusOK, second.Code)
	data := ackData(t, second)
	assert.Equal(t, true, data["duplicate"])

	var fresh model.ProductVariant
	db.Where("cj_variant_id = ?", "V001").First(&fresh)
	assert.Equal(t, 99, fresh.Stock)
}

func TestWebhookReceive_BusinessFailureStill200(t *testing.T) {
	r, _ := setupWebhookRouter(t)

	// 订单映射不存在：业务失败记在消息上，但必须回 200 阻止 CJ 重投
	w := postJSON(r, "/api/webhooks/cj", map[string]interface{}{
		"messageId": "M-NOORDER",
		"type":      model.WebhookTypeOrder,
		"params":    map[string]interface{}{"cjOrderId": "GHOST", "orderStatus": "SHIPPED"},
	})
	assert.Equal(t, http.StatusOK, w.Code)
	data := ackData(t, w)
	assert.Equal(t, model.WebhookStatusError, data["status"])
	assert.Contains(t, data["error"], "GHOST")
}

// ==================== 列表与统计 ====================

func TestWebhookListAndStats(t *testing.T) {
	r, _ := setupWebhookRouter(t)

	postJSON(r, "/api/webhooks/cj", map[string]interface{}{
		"messageId": "M-1",
		"type":      model.WebhookTypeOrder,
		"params":    map[string]interface{}{"cjOrderId": "GHOST"},
	})

	w := getJSON(r, "/api/webhooks?status="+model.WebhookStatusError)
	assert.Equal(t, http.StatusOK, w.Code)
	var listResp struct {
		Data struct {
			Total int64 `json:"total"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Equal(t, int64(1), listResp.Data.Total)

	w = getJSON(r, "/api/webhooks/stats")
	assert.Equal(t, http.StatusOK, w.Code)
	var statsResp struct {
		Data map[string]int64 `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &statsResp))
	assert.Equal(t, int64(1), statsResp.Data[model.WebhookStatusError])
}
