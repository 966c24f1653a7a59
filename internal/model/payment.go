package model

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// 支付单状态，pending为唯一非终态
const (
	PaymentPending   = "pending"   // 待支付
	PaymentCompleted = "completed" // 支付完成
	PaymentFailed    = "failed"    // 支付失败
)

// Payment 支付单模型，一个订单允许多次支付尝试
type Payment struct {
	ID               uint64          `db:"id" json:"id"`
	PaymentNo        string          `db:"payment_no" json:"payment_no"`
	OrderID          uint64          `db:"order_id" json:"order_id"`
	UserID           sql.NullInt64   `db:"user_id" json:"user_id,omitempty"`
	Gateway          string          `db:"gateway" json:"gateway"`
	GatewayPaymentID sql.NullString  `db:"gateway_payment_id" json:"gateway_payment_id,omitempty"`
	Status           string          `db:"status" json:"status"`
	Amount           decimal.Decimal `db:"amount" json:"amount"`
	Currency         string          `db:"currency" json:"currency"`
	GatewayData      sql.NullString  `db:"gateway_data" json:"gateway_data,omitempty"` // 网关原始响应JSON
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
	CompletedAt      sql.NullTime    `db:"completed_at" json:"completed_at,omitempty"`
}

// IsTerminal 判断支付单是否已到终态
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentCompleted || p.Status == PaymentFailed
}
