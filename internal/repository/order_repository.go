package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"novamall/internal/model"

	"github.com/jmoiron/sqlx"
)

// OrderRepository 订单存储库
type OrderRepository struct {
	db *sqlx.DB
	tx *sqlx.Tx
}

// NewOrderRepository 创建订单存储库
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// BeginTx 开始一个新的事务
func (r *OrderRepository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, nil)
}

// WithTx 返回一个在事务上下文中操作的订单存储库
func (r *OrderRepository) WithTx(tx *sqlx.Tx) *OrderRepository {
	return &OrderRepository{db: r.db, tx: tx}
}

// q 返回当前执行器，优先使用事务
func (r *OrderRepository) q() sqlx.ExtContext {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// Create 创建订单
func (r *OrderRepository) Create(ctx context.Context, order *model.Order) error {
	query := `INSERT INTO orders (
			order_no, user_id, guest_session, status, payment_status, payment_method,
			subtotal, tax_amount, shipping_cost, discount_amount, total_amount,
			currency, coupon_code, shipping_address, billing_address, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	result, err := r.q().ExecContext(ctx, query,
		order.OrderNo, order.UserID, order.GuestSession, order.Status, order.PaymentStatus, order.PaymentMethod,
		order.Subtotal, order.TaxAmount, order.ShippingCost, order.DiscountAmount, order.TotalAmount,
		order.Currency, order.CouponCode, order.ShippingAddress, order.BillingAddress)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	order.ID = uint64(id)
	return nil
}

// CreateItems 批量创建订单项
func (r *OrderRepository) CreateItems(ctx context.Context, items []model.OrderItem) error {
	query := `INSERT INTO order_items (
			order_id, product_id, product_sku, product_name, unit_price, quantity, line_total, variants_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`
	for i := range items {
		item := &items[i]
		result, err := r.q().ExecContext(ctx, query,
			item.OrderID, item.ProductID, item.ProductSku, item.ProductName,
			item.UnitPrice, item.Quantity, item.LineTotal, item.VariantsJSON)
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		item.ID = uint64(id)
	}
	return nil
}

// GetByOrderNo 根据订单号获取订单
func (r *OrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*model.Order, error) {
	var order model.Order
	err := sqlx.GetContext(ctx, r.q(), &order, `SELECT * FROM orders WHERE order_no = ?`, orderNo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByID 根据ID获取订单
func (r *OrderRepository) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	var order model.Order
	err := sqlx.GetContext(ctx, r.q(), &order, `SELECT * FROM orders WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetItems 获取订单的所有订单项
func (r *OrderRepository) GetItems(ctx context.Context, orderID uint64) ([]model.OrderItem, error) {
	var items []model.OrderItem
	query := `SELECT * FROM order_items WHERE order_id = ? ORDER BY id`
	err := sqlx.SelectContext(ctx, r.q(), &items, query, orderID)
	return items, err
}

// ExistsOrderNo 判断订单号是否已存在
func (r *OrderRepository) ExistsOrderNo(ctx context.Context, orderNo string) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, r.q(), &count, `SELECT COUNT(*) FROM orders WHERE order_no = ?`, orderNo)
	return count > 0, err
}

// ListByUser 获取用户的订单，按创建时间倒序分页
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64, page, pageSize int) ([]model.Order, int, error) {
	var total int
	if err := sqlx.GetContext(ctx, r.q(), &total, `SELECT COUNT(*) FROM orders WHERE user_id = ?`, userID); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.Order{}, 0, nil
	}

	offset := (page - 1) * pageSize
	var orders []model.Order
	query := `SELECT * FROM orders WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	if err := sqlx.SelectContext(ctx, r.q(), &orders, query, userID, pageSize, offset); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListAll 获取所有订单（管理端），支持按状态过滤
func (r *OrderRepository) ListAll(ctx context.Context, status string, page, pageSize int) ([]model.Order, int, error) {
	where := ``
	args := []interface{}{}
	if status != "" {
		where = `WHERE status = ?`
		args = append(args, status)
	}

	var total int
	if err := sqlx.GetContext(ctx, r.q(), &total, `SELECT COUNT(*) FROM orders `+where, args...); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.Order{}, 0, nil
	}

	offset := (page - 1) * pageSize
	var orders []model.Order
	query := `SELECT * FROM orders ` + where + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, pageSize, offset)
	if err := sqlx.SelectContext(ctx, r.q(), &orders, query, args...); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus 更新订单状态并记录对应的状态时间戳
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID uint64, status string) error {
	column := ""
	switch status {
	case model.OrderStatusShipped:
		column = "shipped_at"
	case model.OrderStatusDelivered:
		column = "delivered_at"
	case model.OrderStatusCancelled:
		column = "cancelled_at"
	case model.OrderStatusRefunded:
		column = "refunded_at"
	}

	if column == "" {
		query := `UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
		_, err := r.q().ExecContext(ctx, query, status, orderID)
		return err
	}

	query := `UPDATE orders SET status = ?, ` + column + ` = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.q().ExecContext(ctx, query, status, time.Now(), orderID)
	return err
}

// MarkPaid 将订单标记为已支付并转入处理中状态
func (r *OrderRepository) MarkPaid(ctx context.Context, orderID uint64) error {
	query := `UPDATE orders
		SET payment_status = ?, status = ?, paid_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	_, err := r.q().ExecContext(ctx, query, model.PaymentStatusPaid, model.OrderStatusProcessing, time.Now(), orderID)
	return err
}

// UpdatePaymentStatus 更新订单的支付状态
func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, orderID uint64, paymentStatus string) error {
	query := `UPDATE orders SET payment_status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.q().ExecContext(ctx, query, paymentStatus, orderID)
	return err
}
