package handler

import (
	"net/http"

	"novamall/internal/service"
	"novamall/internal/types"
	"novamall/pkg/logger"

	"github.com/gin-gonic/gin"
)

// CouponHandler 优惠券处理器
type CouponHandler struct {
	couponService *service.CouponService
	cartService   *service.CartService
	pricing       *service.PricingService
	logger        *logger.Logger
}

// NewCouponHandler 创建优惠券处理器
func NewCouponHandler(couponService *service.CouponService, cartService *service.CartService, pricing *service.PricingService, logger *logger.Logger) *CouponHandler {
	return &CouponHandler{
		couponService: couponService,
		cartService:   cartService,
		pricing:       pricing,
		logger:        logger,
	}
}

// Validate 验证优惠券对当前购物车是否可用，返回预估折扣
func (h *CouponHandler) Validate(c *gin.Context) {
	var req types.ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	owner, _ := resolveBuyer(c)
	lines, err := h.cartService.List(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	totals, err := h.pricing.Calculate(lines, nil)
	if err != nil {
		respondError(c, err)
		return
	}

	coupon, discount, err := h.couponService.Resolve(c.Request.Context(), req.Code, totals.Subtotal)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  "success",
		"data": gin.H{
			"coupon":   coupon,
			"subtotal": totals.Subtotal,
			"discount": discount,
		},
	})
}
