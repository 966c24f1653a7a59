package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"novamall/internal/constants"
	"novamall/internal/model"
	"novamall/internal/service"
	"novamall/internal/types"
	"novamall/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CouponAdminHandler 优惠券管理处理器
type CouponAdminHandler struct {
	couponService *service.CouponService
	logger        *logger.Logger
}

// NewCouponAdminHandler 创建优惠券管理处理器
func NewCouponAdminHandler(couponService *service.CouponService, logger *logger.Logger) *CouponAdminHandler {
	return &CouponAdminHandler{couponService: couponService, logger: logger}
}

// couponFromRequest 将请求体转换为优惠券模型，金额与时间字段做显式解析
func couponFromRequest(req types.CouponRequest) (*model.Coupon, error) {
	value, err := decimal.NewFromString(req.Value)
	if err != nil {
		return nil, fmt.Errorf("无效的优惠券面值: %w", err)
	}
	coupon := &model.Coupon{
		Code:       req.Code,
		Type:       req.Type,
		Value:      value,
		UsageLimit: req.UsageLimit,
		IsActive:   true,
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}
	if req.MaxDiscountAmount != "" {
		max, err := decimal.NewFromString(req.MaxDiscountAmount)
		if err != nil {
			return nil, fmt.Errorf("无效的折扣上限: %w", err)
		}
		coupon.MaxDiscountAmount = &max
	}
	if req.MinOrderAmount != "" {
		min, err := decimal.NewFromString(req.MinOrderAmount)
		if err != nil {
			return nil, fmt.Errorf("无效的使用门槛: %w", err)
		}
		coupon.MinOrderAmount = min
	}
	if coupon.StartsAt, err = time.Parse(time.RFC3339, req.StartsAt); err != nil {
		return nil, fmt.Errorf("无效的生效时间: %w", err)
	}
	if coupon.ExpiresAt, err = time.Parse(time.RFC3339, req.ExpiresAt); err != nil {
		return nil, fmt.Errorf("无效的过期时间: %w", err)
	}
	return coupon, nil
}

// ListCoupons 获取优惠券列表
func (h *CouponAdminHandler) ListCoupons(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	coupons, total, err := h.couponService.List(c.Request.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("获取优惠券列表失败", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": constants.ErrInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  "success",
		"data": gin.H{
			"coupons":   coupons,
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		},
	})
}

// CreateCoupon 创建优惠券
func (h *CouponAdminHandler) CreateCoupon(c *gin.Context) {
	var req types.CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": 422, "msg": constants.ErrInvalidParams})
		return
	}

	coupon, err := couponFromRequest(req)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": 422, "msg": err.Error()})
		return
	}
	if err := h.couponService.Create(c.Request.Context(), coupon); err != nil {
		h.logger.Error("创建优惠券失败", "error", err, "code", req.Code)
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": constants.ErrInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": constants.SuccessCreate, "data": coupon})
}

// UpdateCoupon 更新优惠券
func (h *CouponAdminHandler) UpdateCoupon(c *gin.Context) {
	var req types.CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": 422, "msg": constants.ErrInvalidParams})
		return
	}

	existing, err := h.couponService.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": err.Error()})
			return
		}
		h.logger.Error("查询优惠券失败", "error", err, "code", c.Param("code"))
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": constants.ErrInternalServer})
		return
	}

	coupon, err := couponFromRequest(req)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": 422, "msg": err.Error()})
		return
	}
	coupon.ID = existing.ID
	if err := h.couponService.Update(c.Request.Context(), coupon); err != nil {
		h.logger.Error("更新优惠券失败", "error", err, "code", req.Code)
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": constants.ErrInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "success", "data": coupon})
}
