package repository

import (
	"context"
	"database/sql"
	"errors"

	"novamall/internal/model"

	"github.com/jmoiron/sqlx"
)

// ProductRepository 商品存储库
type ProductRepository struct {
	db *sqlx.DB
	tx *sqlx.Tx
}

// NewProductRepository 创建商品存储库
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// WithTx 返回一个在事务上下文中操作的商品存储库
func (r *ProductRepository) WithTx(tx *sqlx.Tx) *ProductRepository {
	return &ProductRepository{db: r.db, tx: tx}
}

// q 返回当前执行器，优先使用事务
func (r *ProductRepository) q() sqlx.ExtContext {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// List 获取上架商品列表，支持关键词搜索和分页
func (r *ProductRepository) List(ctx context.Context, keyword string, page, pageSize int) ([]model.Product, int, error) {
	where := `WHERE is_active = 1`
	args := []interface{}{}
	if keyword != "" {
		where += ` AND (name LIKE ? OR sku LIKE ?)`
		like := "%" + keyword + "%"
		args = append(args, like, like)
	}

	var total int
	if err := sqlx.GetContext(ctx, r.q(), &total, `SELECT COUNT(*) FROM products `+where, args...); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.Product{}, 0, nil
	}

	offset := (page - 1) * pageSize
	var products []model.Product
	query := `SELECT * FROM products ` + where + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, pageSize, offset)
	if err := sqlx.SelectContext(ctx, r.q(), &products, query, args...); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListAll 获取全部商品（含下架），管理端使用
func (r *ProductRepository) ListAll(ctx context.Context, keyword string, page, pageSize int) ([]model.Product, int, error) {
	where := ``
	args := []interface{}{}
	if keyword != "" {
		where = `WHERE name LIKE ? OR sku LIKE ?`
		like := "%" + keyword + "%"
		args = append(args, like, like)
	}

	var total int
	if err := sqlx.GetContext(ctx, r.q(), &total, `SELECT COUNT(*) FROM products `+where, args...); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.Product{}, 0, nil
	}

	offset := (page - 1) * pageSize
	var products []model.Product
	query := `SELECT * FROM products ` + where + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, pageSize, offset)
	if err := sqlx.SelectContext(ctx, r.q(), &products, query, args...); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// GetByID 根据ID获取商品
func (r *ProductRepository) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	var product model.Product
	err := sqlx.GetContext(ctx, r.q(), &product, `SELECT * FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetBySku 根据SKU获取商品
func (r *ProductRepository) GetBySku(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	err := sqlx.GetContext(ctx, r.q(), &product, `SELECT * FROM products WHERE sku = ?`, sku)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Create 创建商品
func (r *ProductRepository) Create(ctx context.Context, product *model.Product) error {
	query := `INSERT INTO products (sku, name, description, price, weight_kg, stock, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	result, err := r.q().ExecContext(ctx, query,
		product.Sku, product.Name, product.Description, product.Price,
		product.WeightKg, product.Stock, product.IsActive)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	product.ID = uint64(id)
	return nil
}

// Update 更新商品
func (r *ProductRepository) Update(ctx context.Context, product *model.Product) error {
	query := `UPDATE products
		SET sku = ?, name = ?, description = ?, price = ?, weight_kg = ?, stock = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	_, err := r.q().ExecContext(ctx, query,
		product.Sku, product.Name, product.Description, product.Price,
		product.WeightKg, product.Stock, product.IsActive, product.ID)
	return err
}

// DecrementStock 条件扣减库存，库存不足时不更新任何行
// 依赖受影响行数判断扣减是否成功，避免并发下单超卖
func (r *ProductRepository) DecrementStock(ctx context.Context, productID uint64, quantity int) (bool, error) {
	query := `UPDATE products SET stock = stock - ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock >= ?`
	result, err := r.q().ExecContext(ctx, query, quantity, productID, quantity)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// RestoreStock 恢复库存（订单取消时）
func (r *ProductRepository) RestoreStock(ctx context.Context, productID uint64, quantity int) error {
	query := `UPDATE products SET stock = stock + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.q().ExecContext(ctx, query, quantity, productID)
	return err
}
