package service

import (
	"errors"

	"novamall/internal/constants"
)

// 业务错误哨兵，处理器据此映射HTTP状态码
var (
	ErrProductNotFound   = errors.New(constants.ErrProductNotFound)
	ErrInsufficientStock = errors.New(constants.ErrInsufficientStock)

	ErrCartEmpty        = errors.New(constants.ErrCartEmpty)
	ErrCartItemNotFound = errors.New(constants.ErrCartItemNotFound)

	ErrAddressNotFound = errors.New(constants.ErrAddressNotFound)
	ErrAddressRequired = errors.New(constants.ErrAddressRequired)

	ErrCouponNotFound   = errors.New(constants.ErrCouponNotFound)
	ErrCouponInactive   = errors.New(constants.ErrCouponInactive)
	ErrCouponNotStarted = errors.New(constants.ErrCouponNotStarted)
	ErrCouponExpired    = errors.New(constants.ErrCouponExpired)
	ErrCouponExhausted  = errors.New(constants.ErrCouponExhausted)
	ErrCouponMinNotMet  = errors.New(constants.ErrCouponMinNotMet)

	ErrOrderNotFound     = errors.New(constants.ErrOrderNotFound)
	ErrOrderNotPending   = errors.New(constants.ErrOrderNotPending)
	ErrOrderAlreadyPaid  = errors.New(constants.ErrOrderAlreadyPaid)
	ErrInvalidTransition = errors.New(constants.ErrInvalidStatusChange)

	ErrPaymentNotFound    = errors.New(constants.ErrPaymentNotFound)
	ErrUnsupportedGateway = errors.New(constants.ErrUnsupportedGateway)
)
