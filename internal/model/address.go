package model

import (
	"time"
)

// Address 收货地址模型
type Address struct {
	ID         uint64    `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	Name       string    `db:"name" json:"name"`
	Phone      string    `db:"phone" json:"phone"`
	Line1      string    `db:"line1" json:"line1"`
	Line2      string    `db:"line2" json:"line2"`
	City       string    `db:"city" json:"city"`
	Region     string    `db:"region" json:"region"`
	Country    string    `db:"country" json:"country"`
	PostalCode string    `db:"postal_code" json:"postal_code"`
	IsDefault  bool      `db:"is_default" json:"is_default"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
