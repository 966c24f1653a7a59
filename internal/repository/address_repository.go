package repository

import (
	"context"
	"database/sql"
	"errors"

	"novamall/internal/model"

	"github.com/jmoiron/sqlx"
)

// AddressRepository 收货地址存储库
type AddressRepository struct {
	db *sqlx.DB
}

// NewAddressRepository 创建收货地址存储库
func NewAddressRepository(db *sqlx.DB) *AddressRepository {
	return &AddressRepository{db: db}
}

// ListByUser 获取用户的所有地址
func (r *AddressRepository) ListByUser(ctx context.Context, userID int64) ([]model.Address, error) {
	var addresses []model.Address
	query := `SELECT * FROM addresses WHERE user_id = ? ORDER BY is_default DESC, created_at DESC`
	err := r.db.SelectContext(ctx, &addresses, query, userID)
	return addresses, err
}

// GetByIDForUser 获取属于指定用户的地址，不属于时视为不存在
func (r *AddressRepository) GetByIDForUser(ctx context.Context, id uint64, userID int64) (*model.Address, error) {
	var address model.Address
	query := `SELECT * FROM addresses WHERE id = ? AND user_id = ?`
	err := r.db.GetContext(ctx, &address, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// Create 创建地址
func (r *AddressRepository) Create(ctx context.Context, address *model.Address) error {
	query := `INSERT INTO addresses (user_id, name, phone, line1, line2, city, region, country, postal_code, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	result, err := r.db.ExecContext(ctx, query,
		address.UserID, address.Name, address.Phone, address.Line1, address.Line2,
		address.City, address.Region, address.Country, address.PostalCode, address.IsDefault)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	address.ID = uint64(id)
	return nil
}

// Update 更新地址
func (r *AddressRepository) Update(ctx context.Context, address *model.Address) error {
	query := `UPDATE addresses
		SET name = ?, phone = ?, line1 = ?, line2 = ?, city = ?, region = ?, country = ?, postal_code = ?, is_default = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?`
	_, err := r.db.ExecContext(ctx, query,
		address.Name, address.Phone, address.Line1, address.Line2, address.City,
		address.Region, address.Country, address.PostalCode, address.IsDefault,
		address.ID, address.UserID)
	return err
}

// Delete 删除地址
func (r *AddressRepository) Delete(ctx context.Context, id uint64, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = ? AND user_id = ?`, id, userID)
	return err
}

// ClearDefault 清除用户的默认地址标记
func (r *AddressRepository) ClearDefault(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE addresses SET is_default = 0, updated_at = CURRENT_TIMESTAMP WHERE user_id = ?`, userID)
	return err
}
