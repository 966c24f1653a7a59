package service

import (
	"context"
	"errors"
	"fmt"

	"novamall/internal/model"
	"novamall/internal/repository"
	"novamall/internal/types"
	"novamall/pkg/logger"
)

// AddressService 收货地址服务，所有操作都限定在地址归属用户内
type AddressService struct {
	addressRepo *repository.AddressRepository
	logger      *logger.Logger
}

// NewAddressService 创建地址服务
func NewAddressService(addressRepo *repository.AddressRepository, logger *logger.Logger) *AddressService {
	return &AddressService{addressRepo: addressRepo, logger: logger}
}

// List 获取用户的全部地址
func (s *AddressService) List(ctx context.Context, userID int64) ([]model.Address, error) {
	return s.addressRepo.ListByUser(ctx, userID)
}

// Get 获取用户的指定地址
func (s *AddressService) Get(ctx context.Context, userID int64, id uint64) (*model.Address, error) {
	address, err := s.addressRepo.GetByIDForUser(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询地址失败: %w", err)
	}
	return address, nil
}

// Create 创建地址，设为默认时清除其他默认标记
func (s *AddressService) Create(ctx context.Context, userID int64, req types.AddressRequest) (*model.Address, error) {
	if req.IsDefault {
		if err := s.addressRepo.ClearDefault(ctx, userID); err != nil {
			return nil, fmt.Errorf("清除默认地址失败: %w", err)
		}
	}
	address := addressFromRequest(userID, req)
	if err := s.addressRepo.Create(ctx, address); err != nil {
		return nil, fmt.Errorf("创建地址失败: %w", err)
	}
	return address, nil
}

// Update 更新用户的指定地址
func (s *AddressService) Update(ctx context.Context, userID int64, id uint64, req types.AddressRequest) (*model.Address, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	if req.IsDefault {
		if err := s.addressRepo.ClearDefault(ctx, userID); err != nil {
			return nil, fmt.Errorf("清除默认地址失败: %w", err)
		}
	}
	address := addressFromRequest(userID, req)
	address.ID = id
	if err := s.addressRepo.Update(ctx, address); err != nil {
		return nil, fmt.Errorf("更新地址失败: %w", err)
	}
	return s.Get(ctx, userID, id)
}

// Delete 删除用户的指定地址
func (s *AddressService) Delete(ctx context.Context, userID int64, id uint64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.addressRepo.Delete(ctx, id, userID)
}

func addressFromRequest(userID int64, req types.AddressRequest) *model.Address {
	return &model.Address{
		UserID:     userID,
		Name:       req.Name,
		Phone:      req.Phone,
		Line1:      req.Line1,
		Line2:      req.Line2,
		City:       req.City,
		Region:     req.Region,
		Country:    req.Country,
		PostalCode: req.PostalCode,
		IsDefault:  req.IsDefault,
	}
}
