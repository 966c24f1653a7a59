package apis

import (
	"novamall/internal/api/handler"

	"github.com/gin-gonic/gin"
)

// RegisterProductRoutes 注册商品公开路由
func RegisterProductRoutes(router *gin.RouterGroup, productHandler *handler.ProductHandler) {
	products := router.Group("/products")
	{
		products.GET("", productHandler.List)
		products.GET("/:id", productHandler.Get)
	}
}
