package admin

import (
	"errors"
	"net/http"
	"strconv"

	"novamall/internal/constants"
	"novamall/internal/service"
	"novamall/internal/types"
	"novamall/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ProductAdminHandler 商品管理处理器
type ProductAdminHandler struct {
	productService *service.ProductService
	logger         *logger.Logger
}

// NewProductAdminHandler 创建商品管理处理器
func NewProductAdminHandler(productService *service.ProductService, logger *logger.Logger) *ProductAdminHandler {
	return &ProductAdminHandler{productService: productService, logger: logger}
}

func (h *ProductAdminHandler) respondProductError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": err.Error()})
	case errors.Is(err, service.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"code": 409, "msg": err.Error()})
	default:
		h.logger.Error("商品管理操作失败", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": constants.ErrInternalServer})
	}
}

// ListProducts 获取全部商品（含下架）
func (h *ProductAdminHandler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	products, total, err := h.productService.ListAll(c.Request.Context(), c.Query("keyword"), page, pageSize)
	if err != nil {
		h.respondProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  "success",
		"data": gin.H{
			"products":  products,
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		},
	})
}

// CreateProduct 创建商品
func (h *ProductAdminHandler) CreateProduct(c *gin.Context) {
	var req types.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": 422, "msg": constants.ErrInvalidParams})
		return
	}

	product, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		h.respondProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": constants.SuccessCreate, "data": product})
}

// UpdateProduct 更新商品
func (h *ProductAdminHandler) UpdateProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": 422, "msg": constants.ErrInvalidParams})
		return
	}
	var req types.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": 422, "msg": constants.ErrInvalidParams})
		return
	}

	product, err := h.productService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.respondProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "success", "data": product})
}

// AdjustStock 调整商品库存
func (h *ProductAdminHandler) AdjustStock(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": 422, "msg": constants.ErrInvalidParams})
		return
	}
	var req types.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": 422, "msg": constants.ErrInvalidParams})
		return
	}

	product, err := h.productService.AdjustStock(c.Request.Context(), id, req.Delta)
	if err != nil {
		h.respondProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "success", "data": product})
}
