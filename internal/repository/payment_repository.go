package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"novamall/internal/model"

	"github.com/jmoiron/sqlx"
)

// PaymentRepository 支付单存储库
type PaymentRepository struct {
	db *sqlx.DB
	tx *sqlx.Tx
}

// NewPaymentRepository 创建支付单存储库
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// BeginTx 开始一个新的事务
func (r *PaymentRepository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, nil)
}

// WithTx 返回一个在事务上下文中操作的支付单存储库
func (r *PaymentRepository) WithTx(tx *sqlx.Tx) *PaymentRepository {
	return &PaymentRepository{db: r.db, tx: tx}
}

// q 返回当前执行器，优先使用事务
func (r *PaymentRepository) q() sqlx.ExtContext {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// Create 创建支付单
func (r *PaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	query := `INSERT INTO payments (
			payment_no, order_id, user_id, gateway, gateway_payment_id, status,
			amount, currency, gateway_data, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	result, err := r.q().ExecContext(ctx, query,
		payment.PaymentNo, payment.OrderID, payment.UserID, payment.Gateway,
		payment.GatewayPaymentID, payment.Status, payment.Amount, payment.Currency, payment.GatewayData)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	payment.ID = uint64(id)
	return nil
}

// GetByPaymentNo 根据支付单号获取支付单
func (r *PaymentRepository) GetByPaymentNo(ctx context.Context, paymentNo string) (*model.Payment, error) {
	var payment model.Payment
	err := sqlx.GetContext(ctx, r.q(), &payment, `SELECT * FROM payments WHERE payment_no = ?`, paymentNo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByGatewayPaymentID 根据网关支付ID获取支付单，Webhook路径的查找入口
func (r *PaymentRepository) GetByGatewayPaymentID(ctx context.Context, gateway, gatewayPaymentID string) (*model.Payment, error) {
	var payment model.Payment
	query := `SELECT * FROM payments WHERE gateway = ? AND gateway_payment_id = ?`
	err := sqlx.GetContext(ctx, r.q(), &payment, query, gateway, gatewayPaymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListByOrder 获取订单的所有支付尝试
func (r *PaymentRepository) ListByOrder(ctx context.Context, orderID uint64) ([]model.Payment, error) {
	var payments []model.Payment
	query := `SELECT * FROM payments WHERE order_id = ? ORDER BY created_at DESC`
	err := sqlx.SelectContext(ctx, r.q(), &payments, query, orderID)
	return payments, err
}

// AttachGatewayRef 写入网关支付ID与原始响应
func (r *PaymentRepository) AttachGatewayRef(ctx context.Context, paymentID uint64, gatewayPaymentID, gatewayData string) error {
	query := `UPDATE payments
		SET gateway_payment_id = ?, gateway_data = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	nullRef := sql.NullString{String: gatewayPaymentID, Valid: gatewayPaymentID != ""}
	nullData := sql.NullString{String: gatewayData, Valid: gatewayData != ""}
	_, err := r.q().ExecContext(ctx, query, nullRef, nullData, paymentID)
	return err
}

// UpdateStatus 更新支付单状态，完成时记录完成时间
func (r *PaymentRepository) UpdateStatus(ctx context.Context, paymentID uint64, status, gatewayData string) error {
	var completedAt sql.NullTime
	if status == model.PaymentCompleted {
		completedAt = sql.NullTime{Time: time.Now(), Valid: true}
	}
	nullData := sql.NullString{String: gatewayData, Valid: gatewayData != ""}

	query := `UPDATE payments
		SET status = ?, gateway_data = COALESCE(?, gateway_data), completed_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	_, err := r.q().ExecContext(ctx, query, status, nullData, completedAt, paymentID)
	return err
}
