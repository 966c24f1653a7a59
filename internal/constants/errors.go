package constants

// 通用错误消息
const (
	// 认证相关错误
	ErrUnauthorized           = "未授权，请先登录"
	ErrInvalidToken           = "无效的Token"
	ErrInsufficientPermission = "权限不足"
	ErrAccountDisabled        = "账号已被禁用"

	// 用户相关错误
	ErrUserNotFound      = "用户不存在"
	ErrAuthFailed        = "用户不存在或认证失败"
	ErrPasswordIncorrect = "密码错误"
	ErrUsernameExists    = "用户名已存在"
	ErrEmailExists       = "该邮箱已被注册"

	// 参数相关错误
	ErrInvalidParams  = "参数错误"
	ErrInvalidRequest = "无效请求格式"

	// 商品相关错误
	ErrProductNotFound   = "商品不存在或已下架"
	ErrInsufficientStock = "商品库存不足"

	// 购物车相关错误
	ErrCartEmpty        = "购物车为空"
	ErrCartItemNotFound = "购物车中不存在该商品"

	// 地址相关错误
	ErrAddressNotFound = "收货地址不存在"
	ErrAddressRequired = "请提供收货地址"

	// 优惠券相关错误
	ErrCouponNotFound   = "优惠券不存在"
	ErrCouponInactive   = "优惠券未启用"
	ErrCouponNotStarted = "优惠券未到使用时间"
	ErrCouponExpired    = "优惠券已过期"
	ErrCouponExhausted  = "优惠券已被领完"
	ErrCouponMinNotMet  = "订单金额未达到优惠券使用门槛"

	// 订单相关错误
	ErrOrderNotFound       = "订单不存在"
	ErrOrderNotPending     = "订单当前状态不允许此操作"
	ErrOrderAlreadyPaid    = "订单已支付"
	ErrInvalidStatusChange = "不允许的订单状态变更"

	// 支付相关错误
	ErrPaymentNotFound        = "支付单不存在"
	ErrUnsupportedGateway     = "不支持的支付网关"
	ErrWebhookSignatureFailed = "Webhook签名验证失败"

	// 系统错误
	ErrInternalServer = "服务器内部错误"
)

// 成功消息
const (
	SuccessLogin    = "登录成功"
	SuccessRegister = "注册成功"
	SuccessCreate   = "创建成功"
	SuccessUpdate   = "更新成功"
	SuccessDelete   = "删除成功"
	SuccessGet      = "获取成功"
)
