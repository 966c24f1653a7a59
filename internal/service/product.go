package service

import (
	"context"
	"errors"
	"fmt"

	"novamall/internal/model"
	"novamall/internal/repository"
	"novamall/internal/types"
	"novamall/pkg/logger"

	"github.com/shopspring/decimal"
)

// ProductService 商品服务
type ProductService struct {
	productRepo *repository.ProductRepository
	logger      *logger.Logger
}

// NewProductService 创建商品服务
func NewProductService(productRepo *repository.ProductRepository, logger *logger.Logger) *ProductService {
	return &ProductService{productRepo: productRepo, logger: logger}
}

// List 获取上架商品列表
func (s *ProductService) List(ctx context.Context, keyword string, page, pageSize int) ([]model.Product, int, error) {
	return s.productRepo.List(ctx, keyword, page, pageSize)
}

// ListAll 获取全部商品（含下架），管理端使用
func (s *ProductService) ListAll(ctx context.Context, keyword string, page, pageSize int) ([]model.Product, int, error) {
	return s.productRepo.ListAll(ctx, keyword, page, pageSize)
}

// Get 获取上架商品详情
func (s *ProductService) Get(ctx context.Context, id uint64) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询商品失败: %w", err)
	}
	if !product.IsActive {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// GetAny 获取商品详情（含下架），管理端使用
func (s *ProductService) GetAny(ctx context.Context, id uint64) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询商品失败: %w", err)
	}
	return product, nil
}

// Create 创建商品
func (s *ProductService) Create(ctx context.Context, req types.ProductRequest) (*model.Product, error) {
	product, err := productFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("创建商品失败: %w", err)
	}
	s.logger.Info("商品创建成功", "product_id", product.ID, "sku", product.Sku)
	return product, nil
}

// Update 更新商品
func (s *ProductService) Update(ctx context.Context, id uint64, req types.ProductRequest) (*model.Product, error) {
	if _, err := s.GetAny(ctx, id); err != nil {
		return nil, err
	}
	product, err := productFromRequest(req)
	if err != nil {
		return nil, err
	}
	product.ID = id
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("更新商品失败: %w", err)
	}
	return s.GetAny(ctx, id)
}

// AdjustStock 调整库存，负数表示扣减
// 扣减使用条件更新，库存不足时整体失败
func (s *ProductService) AdjustStock(ctx context.Context, id uint64, delta int) (*model.Product, error) {
	if _, err := s.GetAny(ctx, id); err != nil {
		return nil, err
	}
	switch {
	case delta > 0:
		if err := s.productRepo.RestoreStock(ctx, id, delta); err != nil {
			return nil, fmt.Errorf("调整库存失败: %w", err)
		}
	case delta < 0:
		ok, err := s.productRepo.DecrementStock(ctx, id, -delta)
		if err != nil {
			return nil, fmt.Errorf("调整库存失败: %w", err)
		}
		if !ok {
			return nil, ErrInsufficientStock
		}
	}
	return s.GetAny(ctx, id)
}

// productFromRequest 将请求体转换为商品模型，金额字段做十进制解析
func productFromRequest(req types.ProductRequest) (*model.Product, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return nil, fmt.Errorf("无效的商品价格: %w", err)
	}
	weight := decimal.Zero
	if req.WeightKg != "" {
		if weight, err = decimal.NewFromString(req.WeightKg); err != nil {
			return nil, fmt.Errorf("无效的商品重量: %w", err)
		}
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	return &model.Product{
		Sku:         req.Sku,
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		WeightKg:    weight,
		Stock:       req.Stock,
		IsActive:    isActive,
	}, nil
}
