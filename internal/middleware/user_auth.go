package middleware

import (
	"net/http"

	"novamall/internal/constants"
	"novamall/internal/service"

	"github.com/gin-gonic/gin"
)

// UserAuth 用户认证中间件
func UserAuth(userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从请求头获取Token
		token := c.GetHeader("Authorization")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": constants.ErrUnauthorized})
			c.Abort()
			return
		}

		// 验证Token
		user, err := userService.GetByToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": constants.ErrInvalidToken})
			c.Abort()
			return
		}

		// 检查账号是否被禁用
		if user.Status != 0 {
			c.JSON(http.StatusForbidden, gin.H{"code": 403, "msg": constants.ErrAccountDisabled})
			c.Abort()
			return
		}

		// 将用户存储到上下文中，供后续处理使用
		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}

// OptionalUserAuth 可选认证中间件，购物车等接口允许游客访问
// 携带有效Token时注入用户，否则不拦截请求
func OptionalUserAuth(userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token != "" {
			user, err := userService.GetByToken(c.Request.Context(), token)
			if err == nil && user.Status == 0 {
				c.Set("user", user)
				c.Set("user_id", user.ID)
			}
		}
		c.Next()
	}
}
