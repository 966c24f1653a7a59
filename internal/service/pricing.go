package service

import (
	"errors"
	"time"

	"novamall/internal/model"

	"github.com/shopspring/decimal"
)

// PricingConfig 计价配置
type PricingConfig struct {
	TaxRate       decimal.Decimal // 税率
	ShippingFlat  decimal.Decimal // 基础运费
	ShippingPerKg decimal.Decimal // 每公斤附加运费
}

// Totals 订单金额明细
// 恒等式 Total = Subtotal + Tax + Shipping - Discount 在计算时成立并随订单落库
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// PricingService 计价服务，无状态
type PricingService struct {
	cfg PricingConfig
}

// NewPricingService 创建计价服务
func NewPricingService(cfg PricingConfig) *PricingService {
	return &PricingService{cfg: cfg}
}

// Calculate 根据购物车行与优惠券计算订单金额
// coupon为nil时不产生折扣
func (s *PricingService) Calculate(lines []model.CartLine, coupon *model.Coupon) (Totals, error) {
	subtotal := decimal.Zero
	weight := decimal.Zero
	for _, line := range lines {
		qty := decimal.NewFromInt(int64(line.Item.Quantity))
		subtotal = subtotal.Add(line.Item.UnitPrice.Mul(qty))
		weight = weight.Add(line.Product.WeightKg.Mul(qty))
	}
	subtotal = subtotal.Round(2)

	tax := subtotal.Mul(s.cfg.TaxRate).Round(2)
	shipping := s.cfg.ShippingFlat.Add(weight.Mul(s.cfg.ShippingPerKg)).Round(2)

	discount := decimal.Zero
	if coupon != nil {
		var err error
		discount, err = s.Discount(subtotal, coupon)
		if err != nil {
			return Totals{}, err
		}
	}

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Discount: discount,
		Total:    subtotal.Add(tax).Add(shipping).Sub(discount),
	}, nil
}

// Discount 按优惠券规则计算折扣金额
// 百分比折扣受max_discount_amount上限约束，固定折扣不超过小计
func (s *PricingService) Discount(subtotal decimal.Decimal, coupon *model.Coupon) (decimal.Decimal, error) {
	switch coupon.Type {
	case model.CouponTypePercentage:
		discount := subtotal.Mul(coupon.Value).Div(decimal.NewFromInt(100)).Round(2)
		if coupon.MaxDiscountAmount != nil && discount.GreaterThan(*coupon.MaxDiscountAmount) {
			discount = *coupon.MaxDiscountAmount
		}
		return discount, nil
	case model.CouponTypeFixed:
		if coupon.Value.GreaterThan(subtotal) {
			return subtotal, nil
		}
		return coupon.Value, nil
	default:
		return decimal.Zero, errors.New("未知的优惠券类型: " + coupon.Type)
	}
}

// ValidateCoupon 校验优惠券当前是否可用于给定小计
func ValidateCoupon(coupon *model.Coupon, subtotal decimal.Decimal, now time.Time) error {
	if !coupon.IsActive {
		return ErrCouponInactive
	}
	if now.Before(coupon.StartsAt) {
		return ErrCouponNotStarted
	}
	if now.After(coupon.ExpiresAt) {
		return ErrCouponExpired
	}
	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return ErrCouponExhausted
	}
	if subtotal.LessThan(coupon.MinOrderAmount) {
		return ErrCouponMinNotMet
	}
	return nil
}
