package handler

import (
	"net/http"
	"strconv"

	"novamall/internal/service"
	"novamall/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ProductHandler 商品处理器
type ProductHandler struct {
	productService *service.ProductService
	logger         *logger.Logger
}

// NewProductHandler 创建商品处理器
func NewProductHandler(productService *service.ProductService, logger *logger.Logger) *ProductHandler {
	return &ProductHandler{productService: productService, logger: logger}
}

// pageParams 解析分页查询参数
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// List 获取上架商品列表，支持关键词搜索和分页
func (h *ProductHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	keyword := c.Query("keyword")

	products, total, err := h.productService.List(c.Request.Context(), keyword, page, pageSize)
	if err != nil {
		h.logger.Error("获取商品列表失败", "error", err)
		respondError(c, err)
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

// Get 获取商品详情
func (h *ProductHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondBindError(c, err)
		return
	}

	product, err := h.productService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "success", "data": product})
}
