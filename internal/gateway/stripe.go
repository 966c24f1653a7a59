package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"novamall/config"
	"novamall/pkg/logger"

	"github.com/go-resty/resty/v2"
)

// StripeGateway Stripe支付适配器
type StripeGateway struct {
	creds  config.GatewayCredentials
	client *resty.Client
	logger *logger.Logger
}

// NewStripeGateway 创建Stripe适配器
func NewStripeGateway(creds config.GatewayCredentials, logger *logger.Logger) *StripeGateway {
	return &StripeGateway{
		creds:  creds,
		client: newHTTPClient(creds.BaseURL),
		logger: logger,
	}
}

// Name 网关名称
func (g *StripeGateway) Name() string { return NameStripe }

// stripeIntent Stripe PaymentIntent响应
type stripeIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Error        *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreatePaymentIntent 创建PaymentIntent
// 金额按Stripe要求转换为最小货币单位
func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	amountMinor := req.Amount.Mul(centFactor).IntPart()

	resp, err := g.client.R().
		SetContext(ctx).
		SetBasicAuth(g.creds.APIKey, "").
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(map[string]string{
			"amount":                 strconv.FormatInt(amountMinor, 10),
			"currency":               strings.ToLower(req.Currency),
			"description":            req.Description,
			"receipt_email":          req.CustomerEmail,
			"metadata[payment_no]":   req.PaymentNo,
			"metadata[order_no]":     req.OrderNo,
			"payment_method_types[]": "card",
		}).
		Post("/v1/payment_intents")
	if err != nil {
		return nil, fmt.Errorf("stripe创建PaymentIntent请求失败: %w", err)
	}

	var intent stripeIntent
	if err := json.Unmarshal(resp.Body(), &intent); err != nil {
		return nil, fmt.Errorf("stripe响应解析失败: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		msg := "unknown error"
		if intent.Error != nil {
			msg = intent.Error.Message
		}
		return nil, fmt.Errorf("stripe创建PaymentIntent失败: %s", msg)
	}

	return &Intent{
		GatewayPaymentID: intent.ID,
		ClientSecret:     intent.ClientSecret,
		Raw:              string(resp.Body()),
	}, nil
}

// ConfirmPayment 查询PaymentIntent状态
func (g *StripeGateway) ConfirmPayment(ctx context.Context, gatewayPaymentID string) (*ConfirmResult, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetBasicAuth(g.creds.APIKey, "").
		Get("/v1/payment_intents/" + gatewayPaymentID)
	if err != nil {
		return nil, fmt.Errorf("stripe查询PaymentIntent失败: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("stripe查询PaymentIntent失败: HTTP %d", resp.StatusCode())
	}

	var intent stripeIntent
	if err := json.Unmarshal(resp.Body(), &intent); err != nil {
		return nil, fmt.Errorf("stripe响应解析失败: %w", err)
	}

	return &ConfirmResult{
		Status: mapStripeStatus(intent.Status),
		Raw:    string(resp.Body()),
	}, nil
}

// VerifyWebhookSignature 验证Stripe-Signature头
// 签名格式为 t=<timestamp>,v1=<hmac>，对 "<timestamp>.<body>" 计算HMAC-SHA256
func (g *StripeGateway) VerifyWebhookSignature(body []byte, headers http.Header) error {
	sigHeader := headers.Get("Stripe-Signature")
	if sigHeader == "" {
		return ErrSignatureMismatch
	}

	var timestamp, v1 string
	for _, part := range strings.Split(sigHeader, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			v1 = kv[1]
		}
	}
	if timestamp == "" || v1 == "" {
		return ErrSignatureMismatch
	}

	// 拒绝过旧的时间戳，防止重放
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil || time.Since(time.Unix(ts, 0)) > 5*time.Minute {
		return ErrSignatureMismatch
	}

	mac := hmac.New(sha256.New, []byte(g.creds.Secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(v1)) {
		return ErrSignatureMismatch
	}
	return nil
}

// stripeEvent Stripe Webhook事件
type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"object"`
	} `json:"data"`
}

// ParseWebhookEvent 解析Webhook事件
func (g *StripeGateway) ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var event stripeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("stripe事件解析失败: %w", err)
	}
	if event.ID == "" || event.Data.Object.ID == "" {
		return nil, fmt.Errorf("stripe事件缺少必要字段")
	}

	status := StatusPending
	switch event.Type {
	case "payment_intent.succeeded":
		status = StatusCompleted
	case "payment_intent.payment_failed", "payment_intent.canceled":
		status = StatusFailed
	default:
		status = mapStripeStatus(event.Data.Object.Status)
	}

	return &WebhookEvent{
		EventID:          event.ID,
		GatewayPaymentID: event.Data.Object.ID,
		Status:           status,
		Raw:              string(body),
	}, nil
}

// mapStripeStatus 将Stripe状态归一化
func mapStripeStatus(status string) string {
	switch status {
	case "succeeded":
		return StatusCompleted
	case "canceled":
		return StatusFailed
	default:
		return StatusPending
	}
}
