package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"novamall/internal/model"
	"novamall/internal/repository"
	"novamall/pkg/logger"

	"github.com/shopspring/decimal"
)

// CouponService 优惠券服务
type CouponService struct {
	couponRepo *repository.CouponRepository
	pricing    *PricingService
	logger     *logger.Logger
}

// NewCouponService 创建优惠券服务
func NewCouponService(couponRepo *repository.CouponRepository, pricing *PricingService, logger *logger.Logger) *CouponService {
	return &CouponService{
		couponRepo: couponRepo,
		pricing:    pricing,
		logger:     logger,
	}
}

// Resolve 按券码查找并校验优惠券，返回券和可抵扣金额
func (s *CouponService) Resolve(ctx context.Context, code string, subtotal decimal.Decimal) (*model.Coupon, decimal.Decimal, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, decimal.Zero, ErrCouponNotFound
	}
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("查询优惠券失败: %w", err)
	}

	if err := ValidateCoupon(coupon, subtotal, time.Now()); err != nil {
		return nil, decimal.Zero, err
	}

	discount, err := s.pricing.Discount(subtotal, coupon)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return coupon, discount, nil
}

// List 获取优惠券列表（管理端）
func (s *CouponService) List(ctx context.Context, page, pageSize int) ([]model.Coupon, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 50 {
		pageSize = 10
	}
	return s.couponRepo.List(ctx, page, pageSize)
}

// Create 创建优惠券（管理端）
func (s *CouponService) Create(ctx context.Context, coupon *model.Coupon) error {
	if _, err := s.couponRepo.GetByCode(ctx, coupon.Code); err == nil {
		return fmt.Errorf("券码 %s 已存在", coupon.Code)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("查询优惠券失败: %w", err)
	}
	return s.couponRepo.Create(ctx, coupon)
}

// Update 更新优惠券（管理端）
func (s *CouponService) Update(ctx context.Context, coupon *model.Coupon) error {
	return s.couponRepo.Update(ctx, coupon)
}

// GetByCode 按券码获取优惠券
func (s *CouponService) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCouponNotFound
	}
	return coupon, err
}
