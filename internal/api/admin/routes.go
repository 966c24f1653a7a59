package admin

import (
	"github.com/gin-gonic/gin"
)

// RegisterAdminRoutes 注册管理员API路由
func RegisterAdminRoutes(router *gin.RouterGroup, orderAdminHandler *OrderAdminHandler, productAdminHandler *ProductAdminHandler, couponAdminHandler *CouponAdminHandler) {
	// 订单管理路由
	orders := router.Group("/orders")
	{
		orders.GET("", orderAdminHandler.ListOrders)
		orders.POST("/:order_no/status", orderAdminHandler.UpdateOrderStatus)
	}

	// 商品管理路由
	products := router.Group("/products")
	{
		products.GET("", productAdminHandler.ListProducts)
		products.POST("", productAdminHandler.CreateProduct)
		products.POST("/:id", productAdminHandler.UpdateProduct)
		products.POST("/:id/stock", productAdminHandler.AdjustStock)
	}

	// 优惠券管理路由
	coupons := router.Group("/coupons")
	{
		coupons.GET("", couponAdminHandler.ListCoupons)
		coupons.POST("", couponAdminHandler.CreateCoupon)
		coupons.POST("/:code", couponAdminHandler.UpdateCoupon)
	}
}
