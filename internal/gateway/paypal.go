package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"novamall/config"
	"novamall/pkg/logger"

	"github.com/go-resty/resty/v2"
)

// PayPalGateway PayPal支付适配器
type PayPalGateway struct {
	creds  config.GatewayCredentials
	client *resty.Client
	logger *logger.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewPayPalGateway 创建PayPal适配器
func NewPayPalGateway(creds config.GatewayCredentials, logger *logger.Logger) *PayPalGateway {
	return &PayPalGateway{
		creds:  creds,
		client: newHTTPClient(creds.BaseURL),
		logger: logger,
	}
}

// Name 网关名称
func (g *PayPalGateway) Name() string { return NamePayPal }

// getAccessToken 获取OAuth访问令牌，带简单的过期缓存
func (g *PayPalGateway) getAccessToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.accessToken != "" && time.Now().Before(g.tokenExpiry) {
		return g.accessToken, nil
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetBasicAuth(g.creds.APIKey, g.creds.Secret).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		Post("/v1/oauth2/token")
	if err != nil {
		return "", fmt.Errorf("paypal获取access token失败: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("paypal获取access token失败: HTTP %d", resp.StatusCode())
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(resp.Body(), &token); err != nil {
		return "", fmt.Errorf("paypal token响应解析失败: %w", err)
	}

	g.accessToken = token.AccessToken
	// 提前一分钟过期，避免边界请求失败
	g.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn-60) * time.Second)
	return g.accessToken, nil
}

// paypalOrder PayPal订单响应
type paypalOrder struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []struct {
		Href string `json:"href"`
		Rel  string `json:"rel"`
	} `json:"links"`
}

// CreatePaymentIntent 创建PayPal Checkout订单
func (g *PayPalGateway) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	token, err := g.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"reference_id": req.PaymentNo,
				"description":  req.Description,
				"custom_id":    req.OrderNo,
				"amount": map[string]string{
					"currency_code": req.Currency,
					"value":         req.Amount.StringFixed(2),
				},
			},
		},
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/v2/checkout/orders")
	if err != nil {
		return nil, fmt.Errorf("paypal创建订单请求失败: %w", err)
	}
	if resp.StatusCode() != http.StatusCreated && resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("paypal创建订单失败: HTTP %d", resp.StatusCode())
	}

	var order paypalOrder
	if err := json.Unmarshal(resp.Body(), &order); err != nil {
		return nil, fmt.Errorf("paypal响应解析失败: %w", err)
	}

	approveURL := ""
	for _, link := range order.Links {
		if link.Rel == "approve" {
			approveURL = link.Href
			break
		}
	}

	return &Intent{
		GatewayPaymentID: order.ID,
		RedirectURL:      approveURL,
		Raw:              string(resp.Body()),
	}, nil
}

// ConfirmPayment 查询PayPal订单状态
func (g *PayPalGateway) ConfirmPayment(ctx context.Context, gatewayPaymentID string) (*ConfirmResult, error) {
	token, err := g.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		Get("/v2/checkout/orders/" + gatewayPaymentID)
	if err != nil {
		return nil, fmt.Errorf("paypal查询订单失败: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("paypal查询订单失败: HTTP %d", resp.StatusCode())
	}

	var order paypalOrder
	if err := json.Unmarshal(resp.Body(), &order); err != nil {
		return nil, fmt.Errorf("paypal响应解析失败: %w", err)
	}

	return &ConfirmResult{
		Status: mapPayPalStatus(order.Status),
		Raw:    string(resp.Body()),
	}, nil
}

// VerifyWebhookSignature 调用PayPal验签接口验证Webhook
func (g *PayPalGateway) VerifyWebhookSignature(body []byte, headers http.Header) error {
	token, err := g.getAccessToken(context.Background())
	if err != nil {
		return err
	}

	var event json.RawMessage
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("paypal事件解析失败: %w", err)
	}

	verifyBody := map[string]interface{}{
		"transmission_id":   headers.Get("Paypal-Transmission-Id"),
		"transmission_time": headers.Get("Paypal-Transmission-Time"),
		"transmission_sig":  headers.Get("Paypal-Transmission-Sig"),
		"cert_url":          headers.Get("Paypal-Cert-Url"),
		"auth_algo":         headers.Get("Paypal-Auth-Algo"),
		"webhook_id":        g.creds.Secret,
		"webhook_event":     event,
	}

	resp, err := g.client.R().
		SetContext(context.Background()).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(verifyBody).
		Post("/v1/notifications/verify-webhook-signature")
	if err != nil {
		return fmt.Errorf("paypal验签请求失败: %w", err)
	}

	var result struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return fmt.Errorf("paypal验签响应解析失败: %w", err)
	}
	if result.VerificationStatus != "SUCCESS" {
		return ErrSignatureMismatch
	}
	return nil
}

// paypalEvent PayPal Webhook事件
type paypalEvent struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID                string `json:"id"`
		Status            string `json:"status"`
		SupplementaryData struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
	} `json:"resource"`
}

// ParseWebhookEvent 解析PayPal Webhook事件
// 捕获类事件的resource.id是capture ID，需要换回Checkout订单ID才能对上支付单
func (g *PayPalGateway) ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var event paypalEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("paypal事件解析失败: %w", err)
	}

	gatewayPaymentID := event.Resource.ID
	if strings.HasPrefix(event.EventType, "PAYMENT.CAPTURE.") {
		if orderID := event.Resource.SupplementaryData.RelatedIDs.OrderID; orderID != "" {
			gatewayPaymentID = orderID
		}
	}
	if event.ID == "" || gatewayPaymentID == "" {
		return nil, fmt.Errorf("paypal事件缺少必要字段")
	}

	status := StatusPending
	switch event.EventType {
	case "CHECKOUT.ORDER.COMPLETED", "PAYMENT.CAPTURE.COMPLETED":
		status = StatusCompleted
	case "PAYMENT.CAPTURE.DENIED", "CHECKOUT.ORDER.VOIDED":
		status = StatusFailed
	default:
		status = mapPayPalStatus(event.Resource.Status)
	}

	return &WebhookEvent{
		EventID:          event.ID,
		GatewayPaymentID: gatewayPaymentID,
		Status:           status,
		Raw:              string(body),
	}, nil
}

// mapPayPalStatus 将PayPal状态归一化
func mapPayPalStatus(status string) string {
	switch status {
	case "COMPLETED", "APPROVED":
		return StatusCompleted
	case "VOIDED", "DECLINED":
		return StatusFailed
	default:
		return StatusPending
	}
}
