package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem 购物车行项目，存储于Redis，下单后整体删除
type CartItem struct {
	ProductID      uint64            `json:"product_id"`
	Quantity       int               `json:"quantity"`
	UnitPrice      decimal.Decimal   `json:"unit_price"` // 加入购物车时的价格快照
	VariantOptions map[string]string `json:"variant_options,omitempty"`
	AddedAt        time.Time         `json:"added_at"`
}

// CartLine 购物车行与其对应的实时商品信息
type CartLine struct {
	Item    CartItem `json:"item"`
	Product Product  `json:"product"`
}
