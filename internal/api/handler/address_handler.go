package handler

import (
	"net/http"
	"strconv"

	"novamall/internal/constants"
	"novamall/internal/service"
	"novamall/internal/types"
	"novamall/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AddressHandler 收货地址处理器
type AddressHandler struct {
	addressService *service.AddressService
	logger         *logger.Logger
}

// NewAddressHandler 创建地址处理器
func NewAddressHandler(addressService *service.AddressService, logger *logger.Logger) *AddressHandler {
	return &AddressHandler{addressService: addressService, logger: logger}
}

// List 获取当前用户的地址列表
func (h *AddressHandler) List(c *gin.Context) {
	user, _ := currentUser(c)
	addresses, err := h.addressService.List(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("获取地址列表失败", "error", err, "user_id", user.ID)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "success", "data": gin.H{"addresses": addresses}})
}

// Create 创建地址
func (h *AddressHandler) Create(c *gin.Context) {
	user, _ := currentUser(c)
	var req types.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	address, err := h.addressService.Create(c.Request.Context(), user.ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": constants.SuccessCreate, "data": address})
}

// Update 更新地址
func (h *AddressHandler) Update(c *gin.Context) {
	user, _ := currentUser(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondBindError(c, err)
		return
	}
	var req types.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	address, err := h.addressService.Update(c.Request.Context(), user.ID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "success", "data": address})
}

// Delete 删除地址
func (h *AddressHandler) Delete(c *gin.Context) {
	user, _ := currentUser(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.addressService.Delete(c.Request.Context(), user.ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "success"})
}
