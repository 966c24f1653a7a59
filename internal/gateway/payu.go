package gateway

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"novamall/config"
	"novamall/pkg/logger"

	"github.com/go-resty/resty/v2"
)

// PayUGateway PayU Latam支付适配器
// APIKey对应PayU的apiKey，Secret格式为 "apiLogin~merchantId~accountId"
type PayUGateway struct {
	creds      config.GatewayCredentials
	apiLogin   string
	merchantID string
	accountID  string
	client     *resty.Client
	logger     *logger.Logger
}

// NewPayUGateway 创建PayU适配器
func NewPayUGateway(creds config.GatewayCredentials, logger *logger.Logger) *PayUGateway {
	g := &PayUGateway{
		creds:  creds,
		client: newHTTPClient(creds.BaseURL),
		logger: logger,
	}
	parts := strings.Split(creds.Secret, "~")
	if len(parts) == 3 {
		g.apiLogin, g.merchantID, g.accountID = parts[0], parts[1], parts[2]
	}
	return g
}

// Name 网关名称
func (g *PayUGateway) Name() string { return NamePayU }

// sign 计算PayU请求签名 MD5(apiKey~merchantId~referenceCode~amount~currency)
func (g *PayUGateway) sign(referenceCode, amount, currency string) string {
	raw := strings.Join([]string{g.creds.APIKey, g.merchantID, referenceCode, amount, currency}, "~")
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// payuResponse PayU接口响应
type payuResponse struct {
	Code                string `json:"code"`
	Error               string `json:"error"`
	TransactionResponse struct {
		OrderID         json.Number `json:"orderId"`
		TransactionID   string      `json:"transactionId"`
		State           string      `json:"state"`
		ResponseCode    string      `json:"responseCode"`
		ExtraParameters struct {
			ReceiptURL string `json:"URL_PAYMENT_RECEIPT_HTML"`
		} `json:"extraParameters"`
	} `json:"transactionResponse"`
}

// CreatePaymentIntent 提交PayU交易
func (g *PayUGateway) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	amount := req.Amount.StringFixed(2)
	body := map[string]interface{}{
		"language": "es",
		"command":  "SUBMIT_TRANSACTION",
		"test":     g.creds.Sandbox,
		"merchant": map[string]string{
			"apiKey":   g.creds.APIKey,
			"apiLogin": g.apiLogin,
		},
		"transaction": map[string]interface{}{
			"type":           "AUTHORIZATION_AND_CAPTURE",
			"paymentCountry": "CO",
			"order": map[string]interface{}{
				"accountId":     g.accountID,
				"referenceCode": req.PaymentNo,
				"description":   req.Description,
				"language":      "es",
				"signature":     g.sign(req.PaymentNo, amount, req.Currency),
				"buyer": map[string]string{
					"emailAddress": req.CustomerEmail,
				},
				"additionalValues": map[string]interface{}{
					"TX_VALUE": map[string]string{
						"value":    amount,
						"currency": req.Currency,
					},
				},
			},
		},
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/payments-api/4.0/service.cgi")
	if err != nil {
		return nil, fmt.Errorf("payu提交交易请求失败: %w", err)
	}

	var result payuResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("payu响应解析失败: %w", err)
	}
	if result.Code != "SUCCESS" {
		return nil, fmt.Errorf("payu提交交易失败: %s", result.Error)
	}

	return &Intent{
		GatewayPaymentID: result.TransactionResponse.TransactionID,
		RedirectURL:      result.TransactionResponse.ExtraParameters.ReceiptURL,
		Raw:              string(resp.Body()),
	}, nil
}

// ConfirmPayment 查询PayU交易状态
func (g *PayUGateway) ConfirmPayment(ctx context.Context, gatewayPaymentID string) (*ConfirmResult, error) {
	body := map[string]interface{}{
		"language": "es",
		"command":  "TRANSACTION_RESPONSE_DETAIL",
		"test":     g.creds.Sandbox,
		"merchant": map[string]string{
			"apiKey":   g.creds.APIKey,
			"apiLogin": g.apiLogin,
		},
		"details": map[string]string{
			"transactionId": gatewayPaymentID,
		},
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/reports-api/4.0/service.cgi")
	if err != nil {
		return nil, fmt.Errorf("payu查询交易失败: %w", err)
	}

	var result payuResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("payu响应解析失败: %w", err)
	}
	if result.Code != "SUCCESS" {
		return nil, fmt.Errorf("payu查询交易失败: %s", result.Error)
	}

	return &ConfirmResult{
		Status: mapPayUState(result.TransactionResponse.State),
		Raw:    string(resp.Body()),
	}, nil
}

// VerifyWebhookSignature 验证PayU确认页签名
// sign = MD5(apiKey~merchant_id~reference_sale~value~currency~state_pol)
func (g *PayUGateway) VerifyWebhookSignature(body []byte, headers http.Header) error {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return fmt.Errorf("payu通知解析失败: %w", err)
	}

	sign := values.Get("sign")
	if sign == "" {
		return ErrSignatureMismatch
	}

	raw := strings.Join([]string{
		g.creds.APIKey,
		values.Get("merchant_id"),
		values.Get("reference_sale"),
		values.Get("value"),
		values.Get("currency"),
		values.Get("state_pol"),
	}, "~")
	sum := md5.Sum([]byte(raw))
	expected := hex.EncodeToString(sum[:])

	if !strings.EqualFold(expected, sign) {
		return ErrSignatureMismatch
	}
	return nil
}

// ParseWebhookEvent 解析PayU确认通知（表单编码）
func (g *PayUGateway) ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("payu通知解析失败: %w", err)
	}

	transactionID := values.Get("transaction_id")
	referencePol := values.Get("reference_pol")
	if transactionID == "" {
		return nil, fmt.Errorf("payu通知缺少transaction_id")
	}

	// state_pol: 4=已批准, 6=已拒绝, 7=待处理
	status := StatusPending
	switch values.Get("state_pol") {
	case "4":
		status = StatusCompleted
	case "6", "5":
		status = StatusFailed
	}

	return &WebhookEvent{
		EventID:          referencePol,
		GatewayPaymentID: transactionID,
		Status:           status,
		Raw:              string(body),
	}, nil
}

// mapPayUState 将PayU交易状态归一化
func mapPayUState(state string) string {
	switch state {
	case "APPROVED":
		return StatusCompleted
	case "DECLINED", "EXPIRED", "ERROR":
		return StatusFailed
	default:
		return StatusPending
	}
}
