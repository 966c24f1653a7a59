package types

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest 登录请求，identifier支持用户名或邮箱
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// AddCartItemRequest 添加购物车请求
type AddCartItemRequest struct {
	ProductID      uint64            `json:"product_id" binding:"required"`
	Quantity       int               `json:"quantity" binding:"required,min=1"`
	VariantOptions map[string]string `json:"variant_options"`
}

// UpdateCartItemRequest 修改购物车数量请求
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// AddressRequest 创建/更新收货地址请求
type AddressRequest struct {
	Name       string `json:"name" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	Region     string `json:"region"`
	Country    string `json:"country" binding:"required"`
	PostalCode string `json:"postal_code"`
	IsDefault  bool   `json:"is_default"`
}

// CreateOrderRequest 下单请求
// 登录用户使用地址ID，游客直接提交地址内容
type CreateOrderRequest struct {
	ShippingAddressID uint64          `json:"shipping_address_id"`
	BillingAddressID  uint64          `json:"billing_address_id"`
	ShippingAddress   *AddressRequest `json:"shipping_address"`
	BillingAddress    *AddressRequest `json:"billing_address"`
	PaymentMethod     string          `json:"payment_method" binding:"required,oneof=stripe paypal payu wompi mercadopago"`
	CouponCode        string          `json:"coupon_code"`
}

// UpdateOrderStatusRequest 管理员更新订单状态请求
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled refunded"`
}

// CreatePaymentIntentRequest 创建支付意向请求
type CreatePaymentIntentRequest struct {
	OrderNo string `json:"order_no" binding:"required"`
	Gateway string `json:"gateway" binding:"required,oneof=stripe paypal payu wompi mercadopago"`
}

// ConfirmPaymentRequest 确认支付请求
type ConfirmPaymentRequest struct {
	PaymentNo string `json:"payment_no" binding:"required"`
}

// ValidateCouponRequest 校验优惠券请求
type ValidateCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// ProductRequest 管理员创建/更新商品请求
type ProductRequest struct {
	Sku         string `json:"sku" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       string `json:"price" binding:"required"`
	WeightKg    string `json:"weight_kg"`
	Stock       int    `json:"stock" binding:"min=0"`
	IsActive    *bool  `json:"is_active"`
}

// AdjustStockRequest 管理员调整库存请求
type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// CouponRequest 管理员创建/更新优惠券请求
type CouponRequest struct {
	Code              string `json:"code" binding:"required"`
	Type              string `json:"type" binding:"required,oneof=percentage fixed"`
	Value             string `json:"value" binding:"required"`
	MaxDiscountAmount string `json:"max_discount_amount"`
	MinOrderAmount    string `json:"min_order_amount"`
	UsageLimit        int    `json:"usage_limit"`
	StartsAt          string `json:"starts_at" binding:"required"`
	ExpiresAt         string `json:"expires_at" binding:"required"`
	IsActive          *bool  `json:"is_active"`
}
