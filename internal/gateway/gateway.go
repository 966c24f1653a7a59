package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"novamall/config"
	"novamall/pkg/logger"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// 网关名称
const (
	NameStripe      = "stripe"
	NamePayPal      = "paypal"
	NamePayU        = "payu"
	NameWompi       = "wompi"
	NameMercadoPago = "mercadopago"
)

// 网关侧支付状态，由各适配器归一化
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// IntentRequest 创建支付意向的入参
type IntentRequest struct {
	PaymentNo     string          // 本系统支付单号，作为外部参考号
	OrderNo       string          // 订单号
	Amount        decimal.Decimal // 支付金额
	Currency      string          // 币种
	CustomerEmail string          // 客户邮箱
	Description   string          // 支付描述
}

// Intent 支付意向创建结果
type Intent struct {
	GatewayPaymentID string // 网关侧支付ID
	ClientSecret     string // 前端完成支付所需的凭证（如有）
	RedirectURL      string // 跳转支付地址（如有）
	Raw              string // 网关原始响应JSON
}

// ConfirmResult 支付确认结果
type ConfirmResult struct {
	Status string // 归一化后的支付状态
	Raw    string // 网关原始响应JSON
}

// WebhookEvent 解析后的Webhook事件
type WebhookEvent struct {
	EventID          string // 网关事件ID，用于去重
	GatewayPaymentID string // 网关侧支付ID
	Status           string // 归一化后的支付状态
	Raw              string // 原始报文
}

// Gateway 支付网关适配器接口
type Gateway interface {
	Name() string
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	ConfirmPayment(ctx context.Context, gatewayPaymentID string) (*ConfirmResult, error)
	VerifyWebhookSignature(body []byte, headers http.Header) error
	ParseWebhookEvent(body []byte) (*WebhookEvent, error)
}

// ErrSignatureMismatch Webhook签名验证失败
var ErrSignatureMismatch = fmt.Errorf("webhook signature mismatch")

// centFactor 主币单位到最小货币单位的换算系数
var centFactor = decimal.NewFromInt(100)

// Factory 按名称查找支付网关适配器
type Factory struct {
	gateways map[string]Gateway
}

// NewFactory 创建网关工厂，注册所有支持的网关
func NewFactory(cfg config.GatewaysConfig, logger *logger.Logger) *Factory {
	f := &Factory{gateways: make(map[string]Gateway)}
	f.register(NewStripeGateway(cfg.Stripe, logger))
	f.register(NewPayPalGateway(cfg.PayPal, logger))
	f.register(NewPayUGateway(cfg.PayU, logger))
	f.register(NewWompiGateway(cfg.Wompi, logger))
	f.register(NewMercadoPagoGateway(cfg.MercadoPago, logger))
	return f
}

func (f *Factory) register(g Gateway) {
	f.gateways[g.Name()] = g
}

// Get 按名称获取网关适配器
func (f *Factory) Get(name string) (Gateway, error) {
	g, ok := f.gateways[name]
	if !ok {
		return nil, fmt.Errorf("unsupported payment gateway: %s", name)
	}
	return g, nil
}

// newHTTPClient 创建网关通用的HTTP客户端
func newHTTPClient(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetHeader("Accept", "application/json")
}
