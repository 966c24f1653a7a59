package service

import (
	"testing"
	"time"

	"novamall/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPricing() *PricingService {
	return NewPricingService(PricingConfig{
		TaxRate:       decimal.NewFromFloat(0.10),
		ShippingFlat:  decimal.NewFromFloat(5.99),
		ShippingPerKg: decimal.NewFromFloat(0.50),
	})
}

func cartLine(price string, weight string, qty int) model.CartLine {
	return model.CartLine{
		Item: model.CartItem{
			ProductID: 1,
			Quantity:  qty,
			UnitPrice: decimal.RequireFromString(price),
		},
		Product: model.Product{
			ID:       1,
			Price:    decimal.RequireFromString(price),
			WeightKg: decimal.RequireFromString(weight),
			Stock:    100,
			IsActive: true,
		},
	}
}

func TestCalculateReferenceCase(t *testing.T) {
	// 小计100.00、重量2kg：税10.00、运费6.99，总计116.99
	pricing := newTestPricing()

	totals, err := pricing.Calculate([]model.CartLine{cartLine("50.00", "1.0", 2)}, nil)
	require.NoError(t, err)

	assert.Equal(t, "100.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "10.00", totals.Tax.StringFixed(2))
	assert.Equal(t, "6.99", totals.Shipping.StringFixed(2))
	assert.Equal(t, "0.00", totals.Discount.StringFixed(2))
	assert.Equal(t, "116.99", totals.Total.StringFixed(2))
}

func TestCalculateTotalIdentity(t *testing.T) {
	pricing := newTestPricing()
	coupon := &model.Coupon{
		Type:  model.CouponTypePercentage,
		Value: decimal.NewFromInt(15),
	}

	lines := []model.CartLine{
		cartLine("19.99", "0.25", 3),
		cartLine("7.50", "1.2", 1),
	}
	totals, err := pricing.Calculate(lines, coupon)
	require.NoError(t, err)

	sum := totals.Subtotal.Add(totals.Tax).Add(totals.Shipping).Sub(totals.Discount)
	assert.True(t, totals.Total.Equal(sum), "总额应满足恒等式: got %s want %s", totals.Total, sum)
}

func TestDiscount(t *testing.T) {
	pricing := newTestPricing()
	maxDiscount := decimal.RequireFromString("10.00")

	tests := []struct {
		name     string
		subtotal string
		coupon   *model.Coupon
		want     string
	}{
		{
			name:     "百分比折扣",
			subtotal: "80.00",
			coupon:   &model.Coupon{Type: model.CouponTypePercentage, Value: decimal.NewFromInt(10)},
			want:     "8.00",
		},
		{
			name:     "百分比折扣受上限约束",
			subtotal: "500.00",
			coupon:   &model.Coupon{Type: model.CouponTypePercentage, Value: decimal.NewFromInt(20), MaxDiscountAmount: &maxDiscount},
			want:     "10.00",
		},
		{
			name:     "固定折扣",
			subtotal: "80.00",
			coupon:   &model.Coupon{Type: model.CouponTypeFixed, Value: decimal.NewFromInt(5)},
			want:     "5.00",
		},
		{
			name:     "固定折扣不超过小计",
			subtotal: "3.00",
			coupon:   &model.Coupon{Type: model.CouponTypeFixed, Value: decimal.NewFromInt(5)},
			want:     "3.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pricing.Discount(decimal.RequireFromString(tt.subtotal), tt.coupon)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestDiscountUnknownType(t *testing.T) {
	pricing := newTestPricing()
	_, err := pricing.Discount(decimal.NewFromInt(100), &model.Coupon{Type: "bogus"})
	assert.Error(t, err)
}

func TestValidateCoupon(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	base := model.Coupon{
		Code:           "SUMMER",
		Type:           model.CouponTypePercentage,
		Value:          decimal.NewFromInt(10),
		MinOrderAmount: decimal.NewFromInt(50),
		StartsAt:       now.AddDate(0, -1, 0),
		ExpiresAt:      now.AddDate(0, 1, 0),
		IsActive:       true,
	}

	tests := []struct {
		name    string
		mutate  func(c *model.Coupon)
		wantErr error
	}{
		{name: "可用", mutate: func(c *model.Coupon) {}, wantErr: nil},
		{name: "未启用", mutate: func(c *model.Coupon) { c.IsActive = false }, wantErr: ErrCouponInactive},
		{name: "未到生效时间", mutate: func(c *model.Coupon) { c.StartsAt = now.AddDate(0, 0, 1) }, wantErr: ErrCouponNotStarted},
		{name: "已过期", mutate: func(c *model.Coupon) { c.ExpiresAt = now.AddDate(0, 0, -1) }, wantErr: ErrCouponExpired},
		{name: "已用完", mutate: func(c *model.Coupon) { c.UsageLimit = 5; c.UsedCount = 5 }, wantErr: ErrCouponExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coupon := base
			tt.mutate(&coupon)
			err := ValidateCoupon(&coupon, decimal.NewFromInt(100), now)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCouponMinOrder(t *testing.T) {
	now := time.Now()
	coupon := &model.Coupon{
		Type:           model.CouponTypeFixed,
		Value:          decimal.NewFromInt(5),
		MinOrderAmount: decimal.NewFromInt(50),
		StartsAt:       now.AddDate(0, -1, 0),
		ExpiresAt:      now.AddDate(0, 1, 0),
		IsActive:       true,
	}

	assert.ErrorIs(t, ValidateCoupon(coupon, decimal.NewFromInt(49), now), ErrCouponMinNotMet)
	assert.NoError(t, ValidateCoupon(coupon, decimal.NewFromInt(50), now))
}
