package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"novamall/internal/model"
	"novamall/internal/repository"
	"novamall/internal/types"
	"novamall/pkg/async"
	"novamall/pkg/email"
	"novamall/pkg/logger"

	"github.com/shopspring/decimal"
	"k8s.io/apimachinery/pkg/util/rand"
)

// orderTransitions 订单状态机，未列出的变更一律拒绝
// cancelled与refunded为终态
var orderTransitions = map[string][]string{
	model.OrderStatusPending:    {model.OrderStatusProcessing, model.OrderStatusCancelled},
	model.OrderStatusProcessing: {model.OrderStatusShipped, model.OrderStatusCancelled},
	model.OrderStatusShipped:    {model.OrderStatusDelivered},
	model.OrderStatusDelivered:  {model.OrderStatusRefunded},
}

// CanTransition 判断订单状态变更是否合法
func CanTransition(from, to string) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// OrderService 订单服务
type OrderService struct {
	orderRepo    *repository.OrderRepository
	productRepo  *repository.ProductRepository
	addressRepo  *repository.AddressRepository
	couponRepo   *repository.CouponRepository
	userRepo     repository.UserRepository
	cartService  *CartService
	couponSvc    *CouponService
	pricing      *PricingService
	emailService *email.Service
	worker       *async.Worker
	logger       *logger.Logger
	currency     string
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo *repository.OrderRepository,
	productRepo *repository.ProductRepository,
	addressRepo *repository.AddressRepository,
	couponRepo *repository.CouponRepository,
	userRepo repository.UserRepository,
	cartService *CartService,
	couponSvc *CouponService,
	pricing *PricingService,
	emailService *email.Service,
	worker *async.Worker,
	logger *logger.Logger,
	currency string,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		addressRepo:  addressRepo,
		couponRepo:   couponRepo,
		userRepo:     userRepo,
		cartService:  cartService,
		couponSvc:    couponSvc,
		pricing:      pricing,
		emailService: emailService,
		worker:       worker,
		logger:       logger,
		currency:     currency,
	}
}

// generateOrderNo 生成唯一订单号，随机后缀冲突时重试
func (s *OrderService) generateOrderNo(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		orderNo := fmt.Sprintf("NM%s%s", time.Now().Format("20060102150405"), rand.String(8))
		exists, err := s.orderRepo.ExistsOrderNo(ctx, orderNo)
		if err != nil {
			return "", fmt.Errorf("检查订单号失败: %w", err)
		}
		if !exists {
			return orderNo, nil
		}
	}
	return "", errors.New("生成订单号失败，请重试")
}

// Checkout 将购物车转换为订单，登录用户与游客共用
// 订单、订单项、库存扣减、优惠券核销在同一事务内完成，任一失败整体回滚；
// 购物车在事务提交后清空
func (s *OrderService) Checkout(ctx context.Context, owner CartOwner, user *model.User, req types.CreateOrderRequest) (*model.Order, error) {
	shippingAddr, billingAddr, err := s.resolveAddresses(ctx, user, req)
	if err != nil {
		return nil, err
	}

	// 读取购物车快照并逐行校验在售与库存
	lines, err := s.cartService.Snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}

	// 解析优惠券
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Item.UnitPrice.Mul(decimal.NewFromInt(int64(line.Item.Quantity))))
	}
	var coupon *model.Coupon
	if req.CouponCode != "" {
		coupon, _, err = s.couponSvc.Resolve(ctx, req.CouponCode, subtotal.Round(2))
		if err != nil {
			return nil, err
		}
	}

	// 计算订单金额
	totals, err := s.pricing.Calculate(lines, coupon)
	if err != nil {
		return nil, err
	}

	orderNo, err := s.generateOrderNo(ctx)
	if err != nil {
		return nil, err
	}

	shippingJSON, _ := json.Marshal(shippingAddr)
	billingJSON, _ := json.Marshal(billingAddr)

	order := &model.Order{
		OrderNo:         orderNo,
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
		PaymentMethod:   req.PaymentMethod,
		Subtotal:        totals.Subtotal,
		TaxAmount:       totals.Tax,
		ShippingCost:    totals.Shipping,
		DiscountAmount:  totals.Discount,
		TotalAmount:     totals.Total,
		Currency:        s.currency,
		ShippingAddress: string(shippingJSON),
		BillingAddress:  string(billingJSON),
	}
	if user != nil {
		order.UserID = sql.NullInt64{Int64: user.ID, Valid: true}
	} else {
		order.GuestSession = sql.NullString{String: owner.Session, Valid: true}
	}
	if coupon != nil {
		order.CouponCode = sql.NullString{String: coupon.Code, Valid: true}
	}

	// 事务内落库
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("开启事务失败: %w", err)
	}

	txOrderRepo := s.orderRepo.WithTx(tx)
	txProductRepo := s.productRepo.WithTx(tx)
	txCouponRepo := s.couponRepo.WithTx(tx)

	if err := txOrderRepo.Create(ctx, order); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("创建订单失败: %w", err)
	}

	items := make([]model.OrderItem, 0, len(lines))
	for _, line := range lines {
		lineTotal := line.Item.UnitPrice.Mul(decimal.NewFromInt(int64(line.Item.Quantity)))
		item := model.OrderItem{
			OrderID:     order.ID,
			ProductID:   line.Product.ID,
			ProductSku:  line.Product.Sku,
			ProductName: line.Product.Name,
			UnitPrice:   line.Item.UnitPrice,
			Quantity:    line.Item.Quantity,
			LineTotal:   lineTotal,
		}
		if len(line.Item.VariantOptions) > 0 {
			variantsJSON, _ := json.Marshal(line.Item.VariantOptions)
			item.VariantsJSON = sql.NullString{String: string(variantsJSON), Valid: true}
		}
		items = append(items, item)
	}
	if err := txOrderRepo.CreateItems(ctx, items); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("创建订单项失败: %w", err)
	}

	// 条件扣减库存，受影响行数为0说明并发下库存已不足
	for _, line := range lines {
		ok, err := txProductRepo.DecrementStock(ctx, line.Product.ID, line.Item.Quantity)
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("扣减库存失败: %w", err)
		}
		if !ok {
			tx.Rollback()
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, line.Product.Name)
		}
	}

	// 核销优惠券
	if coupon != nil {
		ok, err := txCouponRepo.IncrementUsage(ctx, coupon.Code)
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("核销优惠券失败: %w", err)
		}
		if !ok {
			tx.Rollback()
			return nil, ErrCouponExhausted
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("提交事务失败: %w", err)
	}

	// 清空购物车；失败不影响已创建的订单
	if err := s.cartService.Clear(ctx, owner); err != nil {
		s.logger.Error("清空购物车失败", "error", err, "order_no", order.OrderNo)
	}

	// 异步发送下单确认邮件，游客订单没有账户邮箱时跳过
	if user != nil {
		userEmail, userName := user.Email, user.Username
		amount, currency := order.TotalAmount.StringFixed(2), order.Currency
		s.worker.AddTask(func() {
			if err := s.emailService.SendOrderConfirmation(userEmail, userName, orderNo, amount, currency); err != nil {
				s.logger.Error("发送下单确认邮件失败", "error", err, "order_no", orderNo)
			}
		})
	}

	s.logger.Info("订单创建成功", "order_no", order.OrderNo, "user_id", order.UserID.Int64, "total", order.TotalAmount)
	return order, nil
}

// resolveAddresses 解析下单地址
// 登录用户按地址ID取本人地址，游客必须随单提交地址内容
func (s *OrderService) resolveAddresses(ctx context.Context, user *model.User, req types.CreateOrderRequest) (*model.Address, *model.Address, error) {
	if user == nil {
		if req.ShippingAddress == nil {
			return nil, nil, ErrAddressRequired
		}
		shipping := addressFromRequest(0, *req.ShippingAddress)
		billing := shipping
		if req.BillingAddress != nil {
			billing = addressFromRequest(0, *req.BillingAddress)
		}
		return shipping, billing, nil
	}

	if req.ShippingAddressID == 0 {
		return nil, nil, ErrAddressRequired
	}
	shipping, err := s.addressRepo.GetByIDForUser(ctx, req.ShippingAddressID, user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("查询地址失败: %w", err)
	}

	billing := shipping
	if req.BillingAddressID != 0 && req.BillingAddressID != req.ShippingAddressID {
		billing, err = s.addressRepo.GetByIDForUser(ctx, req.BillingAddressID, user.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrAddressNotFound
		}
		if err != nil {
			return nil, nil, fmt.Errorf("查询地址失败: %w", err)
		}
	}
	return shipping, billing, nil
}

// GetForUser 获取属于指定用户的订单及订单项
func (s *OrderService) GetForUser(ctx context.Context, userID int64, orderNo string) (*model.Order, []model.OrderItem, error) {
	order, err := s.orderRepo.GetByOrderNo(ctx, orderNo)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("查询订单失败: %w", err)
	}
	// 非本人订单按不存在处理
	if !order.UserID.Valid || order.UserID.Int64 != userID {
		return nil, nil, ErrOrderNotFound
	}

	items, err := s.orderRepo.GetItems(ctx, order.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("查询订单项失败: %w", err)
	}
	return order, items, nil
}

// ListByUser 获取用户订单列表
func (s *OrderService) ListByUser(ctx context.Context, userID int64, page, pageSize int) ([]model.Order, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 50 {
		pageSize = 10
	}
	return s.orderRepo.ListByUser(ctx, userID, page, pageSize)
}

// Cancel 用户取消自己的待处理订单并恢复库存
func (s *OrderService) Cancel(ctx context.Context, userID int64, orderNo string) (*model.Order, error) {
	order, _, err := s.GetForUser(ctx, userID, orderNo)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderStatusPending {
		return nil, ErrOrderNotPending
	}
	if order.PaymentStatus == model.PaymentStatusPaid {
		return nil, ErrOrderAlreadyPaid
	}

	if err := s.transitionWithRestock(ctx, order, model.OrderStatusCancelled); err != nil {
		return nil, err
	}

	order.Status = model.OrderStatusCancelled
	return order, nil
}

// UpdateStatus 管理员更新订单状态，受状态机约束
func (s *OrderService) UpdateStatus(ctx context.Context, orderNo, newStatus string) (*model.Order, error) {
	order, err := s.orderRepo.GetByOrderNo(ctx, orderNo)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询订单失败: %w", err)
	}

	if !CanTransition(order.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, newStatus)
	}

	// 取消需恢复库存，与状态更新同一事务
	if newStatus == model.OrderStatusCancelled {
		if err := s.transitionWithRestock(ctx, order, newStatus); err != nil {
			return nil, err
		}
	} else {
		if err := s.orderRepo.UpdateStatus(ctx, order.ID, newStatus); err != nil {
			return nil, fmt.Errorf("更新订单状态失败: %w", err)
		}
	}

	s.logger.Info("订单状态已更新", "order_no", orderNo, "from", order.Status, "to", newStatus)

	// 发货时异步通知买家
	if newStatus == model.OrderStatusShipped && order.UserID.Valid {
		s.notifyShipped(order.UserID.Int64, order.OrderNo)
	}

	order.Status = newStatus
	return order, nil
}

// notifyShipped 异步发送发货通知邮件
func (s *OrderService) notifyShipped(userID int64, orderNo string) {
	s.worker.AddTask(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			s.logger.Error("查询用户失败，跳过发货邮件", "error", err, "user_id", userID)
			return
		}
		err = s.emailService.SendEmail(email.TypeOrderShipped, email.EmailData{
			To:       user.Email,
			UserName: user.Username,
			OrderNo:  orderNo,
		})
		if err != nil {
			s.logger.Error("发送发货邮件失败", "error", err, "order_no", orderNo)
		}
	})
}

// ListAll 获取订单列表（管理端），支持按状态过滤
func (s *OrderService) ListAll(ctx context.Context, status string, page, pageSize int) ([]model.Order, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.orderRepo.ListAll(ctx, status, page, pageSize)
}

// transitionWithRestock 在同一事务内更新订单状态并恢复全部订单项库存
func (s *OrderService) transitionWithRestock(ctx context.Context, order *model.Order, newStatus string) error {
	items, err := s.orderRepo.GetItems(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("查询订单项失败: %w", err)
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}

	txOrderRepo := s.orderRepo.WithTx(tx)
	txProductRepo := s.productRepo.WithTx(tx)

	if err := txOrderRepo.UpdateStatus(ctx, order.ID, newStatus); err != nil {
		tx.Rollback()
		return fmt.Errorf("更新订单状态失败: %w", err)
	}
	for _, item := range items {
		if err := txProductRepo.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			tx.Rollback()
			return fmt.Errorf("恢复库存失败: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}
