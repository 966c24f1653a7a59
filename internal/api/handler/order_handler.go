package handler

import (
	"net/http"

	"novamall/internal/service"
	"novamall/internal/types"
	"novamall/pkg/logger"

	"github.com/gin-gonic/gin"
)

// OrderHandler 订单处理器
type OrderHandler struct {
	orderService *service.OrderService
	logger       *logger.Logger
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(orderService *service.OrderService, logger *logger.Logger) *OrderHandler {
	return &OrderHandler{orderService: orderService, logger: logger}
}

// Create 从当前购物车创建订单，登录用户与游客共用
func (h *OrderHandler) Create(c *gin.Context) {
	owner, user := resolveBuyer(c)
	var req types.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.orderService.Checkout(c.Request.Context(), owner, user, req)
	if err != nil {
		h.logger.Warn("创建订单失败", "error", err, "cart_key", owner.Key())
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "success", "data": order})
}

// List 获取当前用户的订单列表
func (h *OrderHandler) List(c *gin.Context) {
	user, _ := currentUser(c)
	page, pageSize := pageParams(c)

	orders, total, err := h.orderService.ListByUser(c.Request.Context(), user.ID, page, pageSize)
	if err != nil {
		h.logger.Error("获取订单列表失败", "error", err, "user_id", user.ID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  "success",
		"data": gin.H{
			"orders":    orders,
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		},
	})
}

// Get 获取订单详情及订单项
func (h *OrderHandler) Get(c *gin.Context) {
	user, _ := currentUser(c)

	order, items, err := h.orderService.GetForUser(c.Request.Context(), user.ID, c.Param("order_no"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  "success",
		"data": gin.H{"order": order, "items": items},
	})
}

// Cancel 取消待处理订单，已扣减的库存随之恢复
func (h *OrderHandler) Cancel(c *gin.Context) {
	user, _ := currentUser(c)

	order, err := h.orderService.Cancel(c.Request.Context(), user.ID, c.Param("order_no"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "success", "data": order})
}
