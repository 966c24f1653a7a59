package model

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// 订单状态
const (
	OrderStatusPending    = "pending"    // 待处理
	OrderStatusProcessing = "processing" // 处理中
	OrderStatusShipped    = "shipped"    // 已发货
	OrderStatusDelivered  = "delivered"  // 已送达
	OrderStatusCancelled  = "cancelled"  // 已取消
	OrderStatusRefunded   = "refunded"   // 已退款
)

// 订单支付状态
const (
	PaymentStatusPending       = "pending"        // 待支付
	PaymentStatusPaid          = "paid"           // 已支付
	PaymentStatusFailed        = "failed"         // 支付失败
	PaymentStatusRefunded      = "refunded"       // 已退款
	PaymentStatusPartiallyPaid = "partially_paid" // 部分支付
)

// Order 订单模型
type Order struct {
	ID              uint64          `db:"id" json:"id"`
	OrderNo         string          `db:"order_no" json:"order_no"`
	UserID          sql.NullInt64   `db:"user_id" json:"user_id,omitempty"` // 游客订单为空
	GuestSession    sql.NullString  `db:"guest_session" json:"-"`
	Status          string          `db:"status" json:"status"`
	PaymentStatus   string          `db:"payment_status" json:"payment_status"`
	PaymentMethod   string          `db:"payment_method" json:"payment_method"` // 下单时选择的支付网关
	Subtotal        decimal.Decimal `db:"subtotal" json:"subtotal"`
	TaxAmount       decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	ShippingCost    decimal.Decimal `db:"shipping_cost" json:"shipping_cost"`
	DiscountAmount  decimal.Decimal `db:"discount_amount" json:"discount_amount"`
	TotalAmount     decimal.Decimal `db:"total_amount" json:"total_amount"`
	Currency        string          `db:"currency" json:"currency"`
	CouponCode      sql.NullString  `db:"coupon_code" json:"coupon_code,omitempty"`
	ShippingAddress string          `db:"shipping_address" json:"shipping_address"` // 下单时的地址快照JSON
	BillingAddress  string          `db:"billing_address" json:"billing_address"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
	PaidAt          sql.NullTime    `db:"paid_at" json:"paid_at,omitempty"`
	ShippedAt       sql.NullTime    `db:"shipped_at" json:"shipped_at,omitempty"`
	DeliveredAt     sql.NullTime    `db:"delivered_at" json:"delivered_at,omitempty"`
	CancelledAt     sql.NullTime    `db:"cancelled_at" json:"cancelled_at,omitempty"`
	RefundedAt      sql.NullTime    `db:"refunded_at" json:"refunded_at,omitempty"`
}

// OrderItem 订单项模型，保存下单时的商品快照
type OrderItem struct {
	ID           uint64          `db:"id" json:"id"`
	OrderID      uint64          `db:"order_id" json:"order_id"`
	ProductID    uint64          `db:"product_id" json:"product_id"`
	ProductSku   string          `db:"product_sku" json:"product_sku"`
	ProductName  string          `db:"product_name" json:"product_name"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unit_price"`
	Quantity     int             `db:"quantity" json:"quantity"`
	LineTotal    decimal.Decimal `db:"line_total" json:"line_total"`
	VariantsJSON sql.NullString  `db:"variants_json" json:"variants_json,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
