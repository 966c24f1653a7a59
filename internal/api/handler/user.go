package handler

import (
	"net/http"

	"novamall/internal/constants"
	"novamall/internal/service"
	"novamall/internal/types"
	"novamall/pkg/logger"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户处理器
type UserHandler struct {
	userService service.UserService
	logger      *logger.Logger
}

// NewUserHandler 创建用户处理器
func NewUserHandler(userService service.UserService, logger *logger.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

// Register 用户注册
func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.logger.Warn("用户注册失败", "username", req.Username, "error", err)
		c.JSON(http.StatusConflict, gin.H{"code": 409, "msg": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  constants.SuccessRegister,
		"data": gin.H{"user": user, "token": user.Token},
	})
}

// Login 用户登录，支持用户名或邮箱
func (h *UserHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.userService.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": constants.ErrAuthFailed})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  constants.SuccessLogin,
		"data": gin.H{"user": user, "token": user.Token},
	})
}

// Profile 获取当前用户信息
func (h *UserHandler) Profile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": constants.ErrUnauthorized})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "success", "data": user})
}
