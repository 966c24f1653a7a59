package model

import (
	"time"
)

// User 用户模型
type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Password  string    `db:"password" json:"-"`
	Email     string    `db:"email" json:"email"`
	Token     string    `db:"token" json:"-"`
	IsAdmin   bool      `db:"is_admin" json:"is_admin"`
	Status    int       `db:"status" json:"status"` // 0: 正常, 1: 禁用
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
