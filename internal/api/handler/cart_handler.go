package handler

import (
	"net/http"

	"novamall/internal/service"
	"novamall/internal/types"
	"novamall/pkg/logger"

	"github.com/gin-gonic/gin"
)

// CartHandler 购物车处理器，登录用户与游客共用
type CartHandler struct {
	cartService *service.CartService
	logger      *logger.Logger
}

// NewCartHandler 创建购物车处理器
func NewCartHandler(cartService *service.CartService, logger *logger.Logger) *CartHandler {
	return &CartHandler{cartService: cartService, logger: logger}
}

// owner 解析购物车归属，与下单、支付共用同一套买家身份
func (h *CartHandler) owner(c *gin.Context) service.CartOwner {
	owner, _ := resolveBuyer(c)
	return owner
}

// Get 获取购物车内容
func (h *CartHandler) Get(c *gin.Context) {
	lines, err := h.cartService.List(c.Request.Context(), h.owner(c))
	if err != nil {
		h.logger.Error("获取购物车失败", "error", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "success", "data": gin.H{"items": lines}})
}

// AddItem 添加商品到购物车，相同商品和规格时合并数量
func (h *CartHandler) AddItem(c *gin.Context) {
	var req types.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := h.cartService.AddItem(c.Request.Context(), h.owner(c), req.ProductID, req.Quantity, req.VariantOptions)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "success", "data": item})
}

// UpdateItem 修改购物车行项目数量
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req types.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := h.cartService.UpdateQuantity(c.Request.Context(), h.owner(c), c.Param("item"), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "success", "data": item})
}

// RemoveItem 删除购物车行项目
func (h *CartHandler) RemoveItem(c *gin.Context) {
	if err := h.cartService.RemoveItem(c.Request.Context(), h.owner(c), c.Param("item")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "success"})
}

// Clear 清空购物车
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.cartService.Clear(c.Request.Context(), h.owner(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "success"})
}
