package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product 商品模型
type Product struct {
	ID          uint64          `db:"id" json:"id"`
	Sku         string          `db:"sku" json:"sku"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	WeightKg    decimal.Decimal `db:"weight_kg" json:"weight_kg"`
	Stock       int             `db:"stock" json:"stock"`
	IsActive    bool            `db:"is_active" json:"is_active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}
