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

// OrderAdminHandler 订单管理处理器
type OrderAdminHandler struct {
	orderService *service.OrderService
	logger       *logger.Logger
}

// NewOrderAdminHandler 创建订单管理处理器
func NewOrderAdminHandler(orderService *service.OrderService, logger *logger.Logger) *OrderAdminHandler {
	return &OrderAdminHandler{orderService: orderService, logger: logger}
}

// ListOrders 获取全部订单，支持按状态过滤
func (h *OrderAdminHandler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	status := c.Query("status")

	orders, total, err := h.orderService.ListAll(c.Request.Context(), status, page, pageSize)
	if err != nil {
		h.logger.Error("获取订单列表失败", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": constants.ErrInternalServer})
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

// UpdateOrderStatus 变更订单状态，仅允许状态机定义的迁移
func (h *OrderAdminHandler) UpdateOrderStatus(c *gin.Context) {
	var req types.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": 422, "msg": constants.ErrInvalidParams})
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), c.Param("order_no"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": err.Error()})
		case errors.Is(err, service.ErrInvalidTransition):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"code": 422, "msg": err.Error()})
		default:
			h.logger.Error("变更订单状态失败", "error", err, "order_no", c.Param("order_no"))
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": constants.ErrInternalServer})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "success", "data": order})
}
