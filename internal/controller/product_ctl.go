package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cj_dropship_v1_202608/internal/api/dto"
	"cj_dropship_v1_202608/internal/repository"
	"cj_dropship_v1_202608/internal/service"
)

// ProductController 商品导入与 CJ 目录查询
type ProductController struct {
	importSvc   *service.ImportService
	catalog     *service.CatalogService
	productRepo repository.ProductRepository
	variantRepo repository.VariantRepository
}

// NewProductController 创建商品控制器
func NewProductController(
	importSvc *service.ImportService,
	catalog *service.CatalogService,
	productRepo repository.ProductRepository,
	variantRepo repository.VariantRepository,
) *ProductController {
	return &ProductController{
		importSvc:   importSvc,
		catalog:     catalog,
		productRepo: productRepo,
		variantRepo: variantRepo,
	}
}

// ==================== CJ 目录查询（走缓存）====================

// Search 搜索 CJ 商品
// GET /api/cj/products/search
func (c *ProductController) Search(ctx *gin.Context) {
	var req dto.SearchProductsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := c.catalog.SearchProducts(ctx.Request.Context(), req.Keyword, req.CategoryID, req.Page, req.PageSize)
	if err != nil {
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": page})
}

// Detail CJ 商品详情
// GET /api/cj/products/:pid
func (c *ProductController) Detail(ctx *gin.Context) {
	pid := ctx.Param("pid")
	if pid == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "pid 不能为空"})
		return
	}

	detail, err := c.catalog.QueryProduct(ctx.Request.Context(), pid)
	if err != nil {
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": detail})
}

// Stock 变体库存
// GET /api/cj/variants/:vid/stock
func (c *ProductController) Stock(ctx *gin.Context) {
	vid := ctx.Param("vid")
	if vid == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "vid 不能为空"})
		return
	}

	stocks, err := c.catalog.StockByVid(ctx.Request.Context(), vid)
	if err != nil {
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": stocks})
}

// ==================== 导入 ====================

// Import 导入 CJ 商品
// POST /api/products/import
func (c *ProductController) Import(ctx *gin.Context) {
	var req dto.ImportProductRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := c.importSvc.ImportProduct(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": resp})
}

// Prepare 预备草稿商品（不存在则导入为 draft，存在则原样返回）
// POST /api/products/prepare
func (c *ProductController) Prepare(ctx *gin.Context) {
	var req dto.PrepareDraftRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := c.importSvc.PrepareDraft(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": resp})
}

// ==================== 本地商品 ====================

// List 本地商品列表
// GET /api/products
func (c *ProductController) List(ctx *gin.Context) {
	filter := repository.ProductFilter{
		Status:  ctx.Query("status"),
		Keyword: ctx.Query("keyword"),
	}
	filter.Page, _ = strconv.Atoi(ctx.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(ctx.DefaultQuery("page_size", "20"))
	if cid, err := strconv.ParseInt(ctx.Query("category_id"), 10, 64); err == nil {
		filter.CategoryID = cid
	}

	products, total, err := c.productRepo.List(ctx.Request.Context(), filter)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"total": total, "list": products}})
}

// Get 本地商品详情（含变体）
// GET /api/products/:id
func (c *ProductController) Get(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}

	product, err := c.productRepo.GetByIDWithVariants(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "商品不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": product})
}
