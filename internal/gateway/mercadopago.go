package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"novamall/config"
	"novamall/pkg/logger"

	"github.com/go-resty/resty/v2"
)

// MercadoPagoGateway MercadoPago支付适配器
type MercadoPagoGateway struct {
	creds  config.GatewayCredentials
	client *resty.Client
	logger *logger.Logger
}

// NewMercadoPagoGateway 创建MercadoPago适配器
func NewMercadoPagoGateway(creds config.GatewayCredentials, logger *logger.Logger) *MercadoPagoGateway {
	return &MercadoPagoGateway{
		creds:  creds,
		client: newHTTPClient(creds.BaseURL),
		logger: logger,
	}
}

// Name 网关名称
func (g *MercadoPagoGateway) Name() string { return NameMercadoPago }

// mpPreference MercadoPago支付偏好响应
type mpPreference struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
	Message   string `json:"message"`
}

// CreatePaymentIntent 创建Checkout偏好
func (g *MercadoPagoGateway) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	amount, _ := req.Amount.Float64()
	body := map[string]interface{}{
		"external_reference": req.PaymentNo,
		"items": []map[string]interface{}{
			{
				"title":       req.Description,
				"quantity":    1,
				"unit_price":  amount,
				"currency_id": req.Currency,
			},
		},
		"payer": map[string]string{
			"email": req.CustomerEmail,
		},
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetAuthToken(g.creds.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/checkout/preferences")
	if err != nil {
		return nil, fmt.Errorf("mercadopago创建偏好请求失败: %w", err)
	}

	var pref mpPreference
	if err := json.Unmarshal(resp.Body(), &pref); err != nil {
		return nil, fmt.Errorf("mercadopago响应解析失败: %w", err)
	}
	if resp.StatusCode() != http.StatusCreated && resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("mercadopago创建偏好失败: %s", pref.Message)
	}

	return &Intent{
		GatewayPaymentID: pref.ID,
		RedirectURL:      pref.InitPoint,
		Raw:              string(resp.Body()),
	}, nil
}

// mpPayment MercadoPago支付查询响应
type mpPayment struct {
	Results []struct {
		ID     json.Number `json:"id"`
		Status string      `json:"status"`
	} `json:"results"`
}

// ConfirmPayment 按外部参考号查询支付状态
func (g *MercadoPagoGateway) ConfirmPayment(ctx context.Context, gatewayPaymentID string) (*ConfirmResult, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetAuthToken(g.creds.APIKey).
		SetQueryParam("preference_id", gatewayPaymentID).
		SetQueryParam("sort", "date_created").
		SetQueryParam("criteria", "desc").
		Get("/v1/payments/search")
	if err != nil {
		return nil, fmt.Errorf("mercadopago查询支付失败: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("mercadopago查询支付失败: HTTP %d", resp.StatusCode())
	}

	var result mpPayment
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("mercadopago响应解析失败: %w", err)
	}

	// 未产生任何支付记录时视为待支付
	status := StatusPending
	if len(result.Results) > 0 {
		status = mapMercadoPagoStatus(result.Results[0].Status)
	}

	return &ConfirmResult{
		Status: status,
		Raw:    string(resp.Body()),
	}, nil
}

// VerifyWebhookSignature 验证x-signature头
// 签名格式为 ts=<timestamp>,v1=<hmac>，对 "id:<data.id>;ts:<ts>;" 计算HMAC-SHA256
func (g *MercadoPagoGateway) VerifyWebhookSignature(body []byte, headers http.Header) error {
	sigHeader := headers.Get("X-Signature")
	if sigHeader == "" {
		return ErrSignatureMismatch
	}

	var ts, v1 string
	for _, part := range strings.Split(sigHeader, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "ts":
			ts = kv[1]
		case "v1":
			v1 = kv[1]
		}
	}
	if ts == "" || v1 == "" {
		return ErrSignatureMismatch
	}

	var event mpEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("mercadopago事件解析失败: %w", err)
	}

	manifest := fmt.Sprintf("id:%s;ts:%s;", event.Data.ID.String(), ts)
	mac := hmac.New(sha256.New, []byte(g.creds.Secret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(v1)) {
		return ErrSignatureMismatch
	}
	return nil
}

// mpEvent MercadoPago Webhook事件
type mpEvent struct {
	ID     json.Number `json:"id"`
	Type   string      `json:"type"`
	Action string      `json:"action"`
	Data   struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// ParseWebhookEvent 解析MercadoPago Webhook事件
// 事件只携带支付ID，需回查网关得到最终状态
func (g *MercadoPagoGateway) ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var event mpEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("mercadopago事件解析失败: %w", err)
	}
	if event.Data.ID.String() == "" {
		return nil, fmt.Errorf("mercadopago事件缺少支付ID")
	}

	resp, err := g.client.R().
		SetAuthToken(g.creds.APIKey).
		Get("/v1/payments/" + event.Data.ID.String())
	if err != nil {
		return nil, fmt.Errorf("mercadopago回查支付失败: %w", err)
	}

	var payment struct {
		Status       string `json:"status"`
		PreferenceID string `json:"preference_id"`
		ExternalRef  string `json:"external_reference"`
	}
	if err := json.Unmarshal(resp.Body(), &payment); err != nil {
		return nil, fmt.Errorf("mercadopago响应解析失败: %w", err)
	}

	gatewayPaymentID := payment.PreferenceID
	if gatewayPaymentID == "" {
		gatewayPaymentID = payment.ExternalRef
	}

	return &WebhookEvent{
		EventID:          event.ID.String(),
		GatewayPaymentID: gatewayPaymentID,
		Status:           mapMercadoPagoStatus(payment.Status),
		Raw:              string(body),
	}, nil
}

// mapMercadoPagoStatus 将MercadoPago支付状态归一化
func mapMercadoPagoStatus(status string) string {
	switch status {
	case "approved":
		return StatusCompleted
	case "rejected", "cancelled", "refunded", "charged_back":
		return StatusFailed
	default:
		return StatusPending
	}
}
