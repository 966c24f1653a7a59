package apis

import (
	"novamall/internal/api/handler"

	"github.com/gin-gonic/gin"
)

// RegisterAddressRoutes 注册收货地址路由
func RegisterAddressRoutes(router *gin.RouterGroup, addressHandler *handler.AddressHandler) {
	addresses := router.Group("/addresses")
	{
		addresses.GET("", addressHandler.List)
		addresses.POST("", addressHandler.Create)
		addresses.POST("/:id", addressHandler.Update)
		addresses.DELETE("/:id", addressHandler.Delete)
	}
}

// RegisterOrderRoutes 注册仅限登录用户的订单查询路由
// 下单与支付发起在购物车路由组，游客同样可用
func RegisterOrderRoutes(router *gin.RouterGroup, orderHandler *handler.OrderHandler, paymentHandler *handler.PaymentHandler) {
	orders := router.Group("/orders")
	{
		orders.GET("", orderHandler.List)
		orders.GET("/:order_no", orderHandler.Get)
		orders.POST("/:order_no/cancel", orderHandler.Cancel)
		orders.GET("/:order_no/payments", paymentHandler.ListForOrder)
	}
}

// RegisterWebhookRoutes 注册支付网关Webhook公开路由
func RegisterWebhookRoutes(router *gin.RouterGroup, paymentHandler *handler.PaymentHandler) {
	router.POST("/webhooks/:provider", paymentHandler.Webhook)
}
