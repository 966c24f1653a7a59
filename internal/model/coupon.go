package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 优惠券类型
const (
	CouponTypePercentage = "percentage" // 按比例折扣
	CouponTypeFixed      = "fixed"      // 固定金额折扣
)

// Coupon 优惠券模型
type Coupon struct {
	ID                uint64           `db:"id" json:"id"`
	Code              string           `db:"code" json:"code"`
	Type              string           `db:"type" json:"type"`
	Value             decimal.Decimal  `db:"value" json:"value"`
	MaxDiscountAmount *decimal.Decimal `db:"max_discount_amount" json:"max_discount_amount,omitempty"` // 百分比折扣上限，可为空
	MinOrderAmount    decimal.Decimal  `db:"min_order_amount" json:"min_order_amount"`
	UsageLimit        int              `db:"usage_limit" json:"usage_limit"` // 0表示不限次数
	UsedCount         int              `db:"used_count" json:"used_count"`
	StartsAt          time.Time        `db:"starts_at" json:"starts_at"`
	ExpiresAt         time.Time        `db:"expires_at" json:"expires_at"`
	IsActive          bool             `db:"is_active" json:"is_active"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updated_at"`
}
