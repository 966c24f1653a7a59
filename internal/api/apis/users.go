package apis

import (
	"novamall/internal/api/handler"

	"github.com/gin-gonic/gin"
)

// RegisterUserPublicRoutes 注册用户公开路由
func RegisterUserPublicRoutes(router *gin.RouterGroup, userHandler *handler.UserHandler) {
	users := router.Group("/users")
	{
		users.POST("/register", userHandler.Register)
		users.POST("/login", userHandler.Login)
	}
}

// RegisterUserAuthRoutes 注册用户认证路由
func RegisterUserAuthRoutes(router *gin.RouterGroup, userHandler *handler.UserHandler) {
	router.GET("/users/profile", userHandler.Profile)
}
