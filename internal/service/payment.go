package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"novamall/internal/gateway"
	"novamall/internal/model"
	"novamall/internal/repository"
	"novamall/pkg/async"
	"novamall/pkg/email"
	"novamall/pkg/logger"

	"github.com/redis/go-redis/v9"
	"k8s.io/apimachinery/pkg/util/rand"
)

// webhookEventTTL Webhook事件去重键的保留时长
const webhookEventTTL = 24 * time.Hour

// PaymentService 支付服务，负责支付意向创建、确认与Webhook处理
type PaymentService struct {
	paymentRepo  *repository.PaymentRepository
	orderRepo    *repository.OrderRepository
	userRepo     repository.UserRepository
	factory      *gateway.Factory
	redisClient  *redis.Client
	emailService *email.Service
	worker       *async.Worker
	logger       *logger.Logger
}

// NewPaymentService 创建支付服务
func NewPaymentService(
	paymentRepo *repository.PaymentRepository,
	orderRepo *repository.OrderRepository,
	userRepo repository.UserRepository,
	factory *gateway.Factory,
	redisClient *redis.Client,
	emailService *email.Service,
	worker *async.Worker,
	logger *logger.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo:  paymentRepo,
		orderRepo:    orderRepo,
		userRepo:     userRepo,
		factory:      factory,
		redisClient:  redisClient,
		emailService: emailService,
		worker:       worker,
		logger:       logger,
	}
}

// generatePaymentNo 生成唯一支付单号，随机后缀冲突时重试
func (s *PaymentService) generatePaymentNo(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		paymentNo := fmt.Sprintf("PAY%s%s", time.Now().Format("20060102150405"), rand.String(8))
		_, err := s.paymentRepo.GetByPaymentNo(ctx, paymentNo)
		if errors.Is(err, repository.ErrNotFound) {
			return paymentNo, nil
		}
		if err != nil {
			return "", fmt.Errorf("检查支付单号失败: %w", err)
		}
	}
	return "", errors.New("生成支付单号失败，请重试")
}

// ownsOrder 判断订单是否属于当前买家，登录用户按用户ID，游客按会话ID
func ownsOrder(order *model.Order, buyer CartOwner) bool {
	if order.UserID.Valid {
		return buyer.UserID == order.UserID.Int64
	}
	if order.GuestSession.Valid {
		return buyer.Session != "" && buyer.Session == order.GuestSession.String
	}
	return false
}

// CreateIntent 为待支付订单创建支付意向
// 同一订单允许多次尝试，每次尝试生成独立的支付单
func (s *PaymentService) CreateIntent(ctx context.Context, buyer CartOwner, orderNo, gatewayName string) (*model.Payment, *gateway.Intent, error) {
	order, err := s.orderRepo.GetByOrderNo(ctx, orderNo)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("查询订单失败: %w", err)
	}
	if !ownsOrder(order, buyer) {
		return nil, nil, ErrOrderNotFound
	}
	if order.PaymentStatus == model.PaymentStatusPaid {
		return nil, nil, ErrOrderAlreadyPaid
	}
	if order.Status != model.OrderStatusPending {
		return nil, nil, ErrOrderNotPending
	}

	gw, err := s.factory.Get(gatewayName)
	if err != nil {
		return nil, nil, ErrUnsupportedGateway
	}

	paymentNo, err := s.generatePaymentNo(ctx)
	if err != nil {
		return nil, nil, err
	}

	payment := &model.Payment{
		PaymentNo: paymentNo,
		OrderID:   order.ID,
		UserID:    order.UserID,
		Gateway:   gw.Name(),
		Status:    model.PaymentPending,
		Amount:    order.TotalAmount,
		Currency:  order.Currency,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, nil, fmt.Errorf("创建支付单失败: %w", err)
	}

	// 游客订单没有账户邮箱，网关侧留空
	customerEmail := ""
	if order.UserID.Valid {
		user, err := s.userRepo.GetByID(ctx, order.UserID.Int64)
		if err != nil {
			return nil, nil, fmt.Errorf("查询用户失败: %w", err)
		}
		customerEmail = user.Email
	}

	intent, err := gw.CreatePaymentIntent(ctx, gateway.IntentRequest{
		PaymentNo:     payment.PaymentNo,
		OrderNo:       order.OrderNo,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		CustomerEmail: customerEmail,
		Description:   fmt.Sprintf("订单 %s", order.OrderNo),
	})
	if err != nil {
		// 网关侧创建失败，支付单直接置为失败终态
		if markErr := s.paymentRepo.UpdateStatus(ctx, payment.ID, model.PaymentFailed, ""); markErr != nil {
			s.logger.Error("标记支付单失败状态出错", "error", markErr, "payment_no", payment.PaymentNo)
		}
		return nil, nil, fmt.Errorf("网关创建支付意向失败: %w", err)
	}

	if err := s.paymentRepo.AttachGatewayRef(ctx, payment.ID, intent.GatewayPaymentID, intent.Raw); err != nil {
		return nil, nil, fmt.Errorf("保存网关支付引用失败: %w", err)
	}
	payment.GatewayPaymentID = sql.NullString{String: intent.GatewayPaymentID, Valid: true}
	payment.GatewayData = sql.NullString{String: intent.Raw, Valid: true}

	s.logger.Info("支付意向创建成功",
		"payment_no", payment.PaymentNo, "order_no", order.OrderNo,
		"gateway", gw.Name(), "gateway_payment_id", intent.GatewayPaymentID)
	return payment, intent, nil
}

// Confirm 主动向网关查询支付结果并落库
// 已到终态的支付单直接返回当前状态，重复确认无副作用
func (s *PaymentService) Confirm(ctx context.Context, buyer CartOwner, paymentNo string) (*model.Payment, error) {
	payment, err := s.paymentRepo.GetByPaymentNo(ctx, paymentNo)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询支付单失败: %w", err)
	}
	// 归属校验：用户支付单直接比对用户ID，游客支付单回查订单会话
	owned := payment.UserID.Valid && payment.UserID.Int64 == buyer.UserID
	if !payment.UserID.Valid {
		order, err := s.orderRepo.GetByID(ctx, payment.OrderID)
		if err != nil {
			return nil, fmt.Errorf("查询订单失败: %w", err)
		}
		owned = ownsOrder(order, buyer)
	}
	if !owned {
		return nil, ErrPaymentNotFound
	}
	if payment.IsTerminal() {
		return payment, nil
	}
	if !payment.GatewayPaymentID.Valid {
		return nil, errors.New("支付单缺少网关支付引用")
	}

	gw, err := s.factory.Get(payment.Gateway)
	if err != nil {
		return nil, ErrUnsupportedGateway
	}

	result, err := gw.ConfirmPayment(ctx, payment.GatewayPaymentID.String)
	if err != nil {
		return nil, fmt.Errorf("网关查询支付结果失败: %w", err)
	}

	if err := s.applyStatus(ctx, payment, result.Status, result.Raw); err != nil {
		return nil, err
	}
	return payment, nil
}

// ListForOrder 查询指定用户某订单下的全部支付记录
func (s *PaymentService) ListForOrder(ctx context.Context, userID int64, orderNo string) ([]model.Payment, error) {
	order, err := s.orderRepo.GetByOrderNo(ctx, orderNo)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询订单失败: %w", err)
	}
	if !order.UserID.Valid || order.UserID.Int64 != userID {
		return nil, ErrOrderNotFound
	}
	return s.paymentRepo.ListByOrder(ctx, order.ID)
}

// HandleWebhook 处理网关异步通知
// 签名验证失败返回gateway.ErrSignatureMismatch；
// 重复事件与终态支付单均作为成功空操作处理
func (s *PaymentService) HandleWebhook(ctx context.Context, provider string, body []byte, headers http.Header) error {
	gw, err := s.factory.Get(provider)
	if err != nil {
		return ErrUnsupportedGateway
	}
	if err := gw.VerifyWebhookSignature(body, headers); err != nil {
		return err
	}

	event, err := gw.ParseWebhookEvent(body)
	if err != nil {
		return fmt.Errorf("解析Webhook事件失败: %w", err)
	}

	// 事件ID去重，SetNX失败说明已处理过
	// 处理失败时必须释放去重键，否则网关重发同一事件会被当作重复丢弃
	dedupKey := fmt.Sprintf("webhook:event:%s:%s", provider, event.EventID)
	fresh, err := s.redisClient.SetNX(ctx, dedupKey, 1, webhookEventTTL).Result()
	if err != nil {
		return fmt.Errorf("Webhook事件去重失败: %w", err)
	}
	if !fresh {
		s.logger.Info("忽略重复Webhook事件", "provider", provider, "event_id", event.EventID)
		return nil
	}

	payment, err := s.paymentRepo.GetByGatewayPaymentID(ctx, provider, event.GatewayPaymentID)
	if errors.Is(err, repository.ErrNotFound) {
		s.releaseWebhookEvent(ctx, dedupKey)
		return ErrPaymentNotFound
	}
	if err != nil {
		s.releaseWebhookEvent(ctx, dedupKey)
		return fmt.Errorf("查询支付单失败: %w", err)
	}
	if payment.IsTerminal() {
		s.logger.Info("支付单已到终态，忽略Webhook事件",
			"payment_no", payment.PaymentNo, "status", payment.Status, "event_id", event.EventID)
		return nil
	}

	if err := s.applyStatus(ctx, payment, event.Status, event.Raw); err != nil {
		s.releaseWebhookEvent(ctx, dedupKey)
		return err
	}
	return nil
}

// releaseWebhookEvent 处理失败后释放事件去重键，允许网关重发后重新处理
func (s *PaymentService) releaseWebhookEvent(ctx context.Context, dedupKey string) {
	if err := s.redisClient.Del(ctx, dedupKey).Err(); err != nil {
		s.logger.Error("释放Webhook事件去重键失败", "error", err, "key", dedupKey)
	}
}

// applyStatus 将网关侧状态落到支付单与订单上
// 支付完成与订单标记已支付在同一事务内，保证两者一致
func (s *PaymentService) applyStatus(ctx context.Context, payment *model.Payment, status, raw string) error {
	switch status {
	case gateway.StatusCompleted:
		tx, err := s.paymentRepo.BeginTx(ctx)
		if err != nil {
			return fmt.Errorf("开启事务失败: %w", err)
		}
		if err := s.paymentRepo.WithTx(tx).UpdateStatus(ctx, payment.ID, model.PaymentCompleted, raw); err != nil {
			tx.Rollback()
			return fmt.Errorf("更新支付单状态失败: %w", err)
		}
		if err := s.orderRepo.WithTx(tx).MarkPaid(ctx, payment.OrderID); err != nil {
			tx.Rollback()
			return fmt.Errorf("标记订单已支付失败: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("提交事务失败: %w", err)
		}
		payment.Status = model.PaymentCompleted
		s.logger.Info("支付完成", "payment_no", payment.PaymentNo, "order_id", payment.OrderID)
		s.notifyPaymentReceived(payment)
	case gateway.StatusFailed:
		tx, err := s.paymentRepo.BeginTx(ctx)
		if err != nil {
			return fmt.Errorf("开启事务失败: %w", err)
		}
		if err := s.paymentRepo.WithTx(tx).UpdateStatus(ctx, payment.ID, model.PaymentFailed, raw); err != nil {
			tx.Rollback()
			return fmt.Errorf("更新支付单状态失败: %w", err)
		}
		if err := s.orderRepo.WithTx(tx).UpdatePaymentStatus(ctx, payment.OrderID, model.PaymentStatusFailed); err != nil {
			tx.Rollback()
			return fmt.Errorf("更新订单支付状态失败: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("提交事务失败: %w", err)
		}
		payment.Status = model.PaymentFailed
		s.logger.Warn("支付失败", "payment_no", payment.PaymentNo, "order_id", payment.OrderID)
	default:
		// 仍在处理中，仅留存最新网关报文
		if err := s.paymentRepo.UpdateStatus(ctx, payment.ID, model.PaymentPending, raw); err != nil {
			return fmt.Errorf("更新支付单状态失败: %w", err)
		}
	}
	return nil
}

// notifyPaymentReceived 异步发送支付成功邮件
func (s *PaymentService) notifyPaymentReceived(payment *model.Payment) {
	if !payment.UserID.Valid {
		return
	}
	userID := payment.UserID.Int64
	orderID := payment.OrderID
	amount, currency := payment.Amount.StringFixed(2), payment.Currency
	s.worker.AddTask(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			s.logger.Error("查询用户失败，跳过支付成功邮件", "error", err, "user_id", userID)
			return
		}
		order, err := s.orderRepo.GetByID(ctx, orderID)
		if err != nil {
			s.logger.Error("查询订单失败，跳过支付成功邮件", "error", err, "order_id", orderID)
			return
		}
		if err := s.emailService.SendPaymentReceived(user.Email, user.Username, order.OrderNo, amount, currency); err != nil {
			s.logger.Error("发送支付成功邮件失败", "error", err, "order_no", order.OrderNo)
		}
	})
}
