package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"novamall/internal/model"
	"novamall/internal/repository"
	"novamall/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// CartOwner 购物车归属，登录用户或游客会话二选一
type CartOwner struct {
	UserID  int64
	Session string
}

// Key 购物车在Redis中的键
func (o CartOwner) Key() string {
	if o.UserID > 0 {
		return fmt.Sprintf("cart:user:%d", o.UserID)
	}
	return fmt.Sprintf("cart:guest:%s", o.Session)
}

// IsGuest 是否游客购物车
func (o CartOwner) IsGuest() bool {
	return o.UserID <= 0
}

// CartService 购物车服务，行项目整体存储于Redis哈希
type CartService struct {
	productRepo *repository.ProductRepository
	redisClient *redis.Client
	guestTTL    time.Duration
	logger      *logger.Logger
}

// NewCartService 创建购物车服务
func NewCartService(productRepo *repository.ProductRepository, redisClient *redis.Client, guestTTL time.Duration, logger *logger.Logger) *CartService {
	return &CartService{
		productRepo: productRepo,
		redisClient: redisClient,
		guestTTL:    guestTTL,
		logger:      logger,
	}
}

// lineField 哈希字段名，同一商品不同规格视为不同行
func lineField(productID uint64, variants map[string]string) string {
	if len(variants) == 0 {
		return strconv.FormatUint(productID, 10)
	}
	keys := make([]string, 0, len(variants))
	for k := range variants {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+variants[k])
	}
	return fmt.Sprintf("%d|%s", productID, strings.Join(parts, ","))
}

// AddItem 添加商品到购物车，已存在时合并数量并刷新价格快照
func (s *CartService) AddItem(ctx context.Context, owner CartOwner, productID uint64, quantity int, variants map[string]string) (*model.CartItem, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询商品失败: %w", err)
	}
	if !product.IsActive {
		return nil, ErrProductNotFound
	}

	field := lineField(productID, variants)
	item := model.CartItem{
		ProductID:      productID,
		Quantity:       quantity,
		UnitPrice:      product.Price,
		VariantOptions: variants,
		AddedAt:        time.Now(),
	}

	// 已有同规格行则合并数量
	existing, err := s.redisClient.HGet(ctx, owner.Key(), field).Result()
	if err == nil {
		var prev model.CartItem
		if err := json.Unmarshal([]byte(existing), &prev); err == nil {
			item.Quantity += prev.Quantity
		}
	} else if err != redis.Nil {
		return nil, fmt.Errorf("读取购物车失败: %w", err)
	}

	if err := s.writeLine(ctx, owner, field, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateQuantity 修改购物车行数量
func (s *CartService) UpdateQuantity(ctx context.Context, owner CartOwner, field string, quantity int) (*model.CartItem, error) {
	raw, err := s.redisClient.HGet(ctx, owner.Key(), field).Result()
	if err == redis.Nil {
		return nil, ErrCartItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("读取购物车失败: %w", err)
	}

	var item model.CartItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, fmt.Errorf("购物车数据损坏: %w", err)
	}

	item.Quantity = quantity
	if err := s.writeLine(ctx, owner, field, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveItem 删除购物车行
func (s *CartService) RemoveItem(ctx context.Context, owner CartOwner, field string) error {
	removed, err := s.redisClient.HDel(ctx, owner.Key(), field).Result()
	if err != nil {
		return fmt.Errorf("删除购物车行失败: %w", err)
	}
	if removed == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// Clear 清空购物车，下单成功后调用
func (s *CartService) Clear(ctx context.Context, owner CartOwner) error {
	return s.redisClient.Del(ctx, owner.Key()).Err()
}

// List 读取购物车所有行并关联实时商品信息
// 商品已删除或下架的行保留展示，由结算时拦截
func (s *CartService) List(ctx context.Context, owner CartOwner) ([]model.CartLine, error) {
	raw, err := s.redisClient.HGetAll(ctx, owner.Key()).Result()
	if err != nil {
		return nil, fmt.Errorf("读取购物车失败: %w", err)
	}

	lines := make([]model.CartLine, 0, len(raw))
	for field, value := range raw {
		var item model.CartItem
		if err := json.Unmarshal([]byte(value), &item); err != nil {
			s.logger.Warn("跳过损坏的购物车行", "key", owner.Key(), "field", field)
			continue
		}

		line := model.CartLine{Item: item}
		product, err := s.productRepo.GetByID(ctx, item.ProductID)
		if err == nil {
			line.Product = *product
		}
		lines = append(lines, line)
	}

	// 按加入时间排序，保证展示稳定
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].Item.AddedAt.Before(lines[j].Item.AddedAt)
	})
	return lines, nil
}

// Snapshot 读取购物车并逐行校验商品在售与库存，结算入口
// 任一行校验失败立即返回错误，不产生部分订单
func (s *CartService) Snapshot(ctx context.Context, owner CartOwner) ([]model.CartLine, error) {
	lines, err := s.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrCartEmpty
	}

	for i := range lines {
		line := &lines[i]
		if line.Product.ID == 0 || !line.Product.IsActive {
			return nil, fmt.Errorf("%w (商品ID %d)", ErrProductNotFound, line.Item.ProductID)
		}
		if line.Product.Stock < line.Item.Quantity {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, line.Product.Name)
		}
	}
	return lines, nil
}

// writeLine 写入购物车行，游客购物车同时刷新过期时间
func (s *CartService) writeLine(ctx context.Context, owner CartOwner, field string, item *model.CartItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("序列化购物车行失败: %w", err)
	}
	if err := s.redisClient.HSet(ctx, owner.Key(), field, data).Err(); err != nil {
		return fmt.Errorf("写入购物车失败: %w", err)
	}
	if owner.IsGuest() && s.guestTTL > 0 {
		s.redisClient.Expire(ctx, owner.Key(), s.guestTTL)
	}
	return nil
}
