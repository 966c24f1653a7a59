package repository

import (
	"context"
	"database/sql"
	"errors"

	"novamall/internal/model"

	"github.com/jmoiron/sqlx"
)

// CouponRepository 优惠券存储库
type CouponRepository struct {
	db *sqlx.DB
	tx *sqlx.Tx
}

// NewCouponRepository 创建优惠券存储库
func NewCouponRepository(db *sqlx.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

// WithTx 返回一个在事务上下文中操作的优惠券存储库
func (r *CouponRepository) WithTx(tx *sqlx.Tx) *CouponRepository {
	return &CouponRepository{db: r.db, tx: tx}
}

// q 返回当前执行器，优先使用事务
func (r *CouponRepository) q() sqlx.ExtContext {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetByCode 根据券码获取优惠券
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := sqlx.GetContext(ctx, r.q(), &coupon, `SELECT * FROM coupons WHERE code = ?`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// List 获取优惠券列表
func (r *CouponRepository) List(ctx context.Context, page, pageSize int) ([]model.Coupon, int, error) {
	var total int
	if err := sqlx.GetContext(ctx, r.q(), &total, `SELECT COUNT(*) FROM coupons`); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.Coupon{}, 0, nil
	}

	offset := (page - 1) * pageSize
	var coupons []model.Coupon
	query := `SELECT * FROM coupons ORDER BY created_at DESC LIMIT ? OFFSET ?`
	if err := sqlx.SelectContext(ctx, r.q(), &coupons, query, pageSize, offset); err != nil {
		return nil, 0, err
	}
	return coupons, total, nil
}

// Create 创建优惠券
func (r *CouponRepository) Create(ctx context.Context, coupon *model.Coupon) error {
	query := `INSERT INTO coupons (code, type, value, max_discount_amount, min_order_amount, usage_limit, used_count, starts_at, expires_at, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	result, err := r.q().ExecContext(ctx, query,
		coupon.Code, coupon.Type, coupon.Value, coupon.MaxDiscountAmount,
		coupon.MinOrderAmount, coupon.UsageLimit, coupon.StartsAt, coupon.ExpiresAt, coupon.IsActive)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	coupon.ID = uint64(id)
	return nil
}

// Update 更新优惠券
func (r *CouponRepository) Update(ctx context.Context, coupon *model.Coupon) error {
	query := `UPDATE coupons
		SET type = ?, value = ?, max_discount_amount = ?, min_order_amount = ?, usage_limit = ?, starts_at = ?, expires_at = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	_, err := r.q().ExecContext(ctx, query,
		coupon.Type, coupon.Value, coupon.MaxDiscountAmount, coupon.MinOrderAmount,
		coupon.UsageLimit, coupon.StartsAt, coupon.ExpiresAt, coupon.IsActive, coupon.ID)
	return err
}

// IncrementUsage 条件递增使用次数，超出使用上限时不更新任何行
func (r *CouponRepository) IncrementUsage(ctx context.Context, code string) (bool, error) {
	query := `UPDATE coupons SET used_count = used_count + 1, updated_at = CURRENT_TIMESTAMP
		WHERE code = ? AND (usage_limit = 0 OR used_count < usage_limit)`
	result, err := r.q().ExecContext(ctx, query, code)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
