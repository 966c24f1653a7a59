package apis

import (
	"novamall/internal/api/handler"

	"github.com/gin-gonic/gin"
)

// RegisterPublicRoutes 注册不需要认证的路由
func RegisterPublicRoutes(
	router *gin.RouterGroup,
	userHandler *handler.UserHandler,
	productHandler *handler.ProductHandler,
	paymentHandler *handler.PaymentHandler,
) {
	RegisterUserPublicRoutes(router, userHandler)
	RegisterProductRoutes(router, productHandler)
	RegisterWebhookRoutes(router, paymentHandler)
}

// RegisterAuthRoutes 注册需要认证的路由
func RegisterAuthRoutes(
	router *gin.RouterGroup,
	userHandler *handler.UserHandler,
	addressHandler *handler.AddressHandler,
	orderHandler *handler.OrderHandler,
	paymentHandler *handler.PaymentHandler,
) {
	RegisterUserAuthRoutes(router, userHandler)
	RegisterAddressRoutes(router, addressHandler)
	RegisterOrderRoutes(router, orderHandler, paymentHandler)
}

// RegisterCartRoutes 注册购物车、下单与支付发起路由，登录用户与游客共用
func RegisterCartRoutes(
	router *gin.RouterGroup,
	cartHandler *handler.CartHandler,
	couponHandler *handler.CouponHandler,
	orderHandler *handler.OrderHandler,
	paymentHandler *handler.PaymentHandler,
) {
	cart := router.Group("/cart")
	{
		cart.GET("", cartHandler.Get)
		cart.POST("/items", cartHandler.AddItem)
		cart.POST("/items/:item", cartHandler.UpdateItem)
		cart.DELETE("/items/:item", cartHandler.RemoveItem)
		cart.DELETE("", cartHandler.Clear)
	}

	// 优惠券预校验基于当前购物车小计
	router.POST("/coupons/validate", couponHandler.Validate)

	// 游客凭X-Session-ID会话下单并发起支付
	router.POST("/orders", orderHandler.Create)

	payments := router.Group("/payments")
	{
		payments.POST("/intent", paymentHandler.CreateIntent)
		payments.POST("/confirm", paymentHandler.Confirm)
	}
}
