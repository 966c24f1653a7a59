package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"novamall/config"
	"novamall/pkg/logger"

	"github.com/go-resty/resty/v2"
)

// WompiGateway Wompi支付适配器
type WompiGateway struct {
	creds  config.GatewayCredentials
	client *resty.Client
	logger *logger.Logger
}

// NewWompiGateway 创建Wompi适配器
func NewWompiGateway(creds config.GatewayCredentials, logger *logger.Logger) *WompiGateway {
	return &WompiGateway{
		creds:  creds,
		client: newHTTPClient(creds.BaseURL),
		logger: logger,
	}
}

// Name 网关名称
func (g *WompiGateway) Name() string { return NameWompi }

// wompiPaymentLink Wompi支付链接响应
type wompiPaymentLink struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
	Error struct {
		Reason string `json:"reason"`
	} `json:"error"`
}

// CreatePaymentIntent 创建Wompi支付链接
// 金额按Wompi要求使用最小货币单位（分）
func (g *WompiGateway) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	amountCents := req.Amount.Mul(centFactor).IntPart()

	body := map[string]interface{}{
		"name":             req.Description,
		"description":      req.Description,
		"single_use":       true,
		"currency":         req.Currency,
		"amount_in_cents":  amountCents,
		"collect_shipping": false,
		"sku":              req.PaymentNo,
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetAuthToken(g.creds.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/v1/payment_links")
	if err != nil {
		return nil, fmt.Errorf("wompi创建支付链接请求失败: %w", err)
	}

	var link wompiPaymentLink
	if err := json.Unmarshal(resp.Body(), &link); err != nil {
		return nil, fmt.Errorf("wompi响应解析失败: %w", err)
	}
	if resp.StatusCode() != http.StatusCreated && resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("wompi创建支付链接失败: %s", link.Error.Reason)
	}

	return &Intent{
		GatewayPaymentID: link.Data.ID,
		RedirectURL:      "https://checkout.wompi.co/l/" + link.Data.ID,
		Raw:              string(resp.Body()),
	}, nil
}

// wompiTransaction Wompi交易响应
type wompiTransaction struct {
	Data struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"data"`
}

// ConfirmPayment 查询Wompi交易状态
func (g *WompiGateway) ConfirmPayment(ctx context.Context, gatewayPaymentID string) (*ConfirmResult, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		Get("/v1/transactions/" + gatewayPaymentID)
	if err != nil {
		return nil, fmt.Errorf("wompi查询交易失败: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("wompi查询交易失败: HTTP %d", resp.StatusCode())
	}

	var tx wompiTransaction
	if err := json.Unmarshal(resp.Body(), &tx); err != nil {
		return nil, fmt.Errorf("wompi响应解析失败: %w", err)
	}

	return &ConfirmResult{
		Status: mapWompiStatus(tx.Data.Status),
		Raw:    string(resp.Body()),
	}, nil
}

// wompiEvent Wompi Webhook事件
type wompiEvent struct {
	Event string `json:"event"`
	Data  struct {
		Transaction struct {
			ID            string `json:"id"`
			Status        string `json:"status"`
			AmountInCents int64  `json:"amount_in_cents"`
			Reference     string `json:"reference"`
		} `json:"transaction"`
	} `json:"data"`
	Timestamp int64 `json:"timestamp"`
	Signature struct {
		Checksum   string   `json:"checksum"`
		Properties []string `json:"properties"`
	} `json:"signature"`
}

// VerifyWebhookSignature 验证Wompi事件校验和
// checksum = SHA256(按properties顺序拼接的字段值 + timestamp + 事件密钥)
func (g *WompiGateway) VerifyWebhookSignature(body []byte, headers http.Header) error {
	var event wompiEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("wompi事件解析失败: %w", err)
	}
	if event.Signature.Checksum == "" {
		return ErrSignatureMismatch
	}

	concat := ""
	for _, prop := range event.Signature.Properties {
		switch prop {
		case "transaction.id":
			concat += event.Data.Transaction.ID
		case "transaction.status":
			concat += event.Data.Transaction.Status
		case "transaction.amount_in_cents":
			concat += fmt.Sprintf("%d", event.Data.Transaction.AmountInCents)
		case "transaction.reference":
			concat += event.Data.Transaction.Reference
		}
	}
	concat += fmt.Sprintf("%d", event.Timestamp)
	concat += g.creds.Secret

	sum := sha256.Sum256([]byte(concat))
	expected := hex.EncodeToString(sum[:])

	if expected != event.Signature.Checksum {
		return ErrSignatureMismatch
	}
	return nil
}

// ParseWebhookEvent 解析Wompi Webhook事件
func (g *WompiGateway) ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var event wompiEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("wompi事件解析失败: %w", err)
	}
	if event.Data.Transaction.ID == "" {
		return nil, fmt.Errorf("wompi事件缺少交易ID")
	}

	// Wompi事件无独立事件ID，使用交易ID+时间戳去重
	eventID := fmt.Sprintf("%s-%d", event.Data.Transaction.ID, event.Timestamp)

	return &WebhookEvent{
		EventID:          eventID,
		GatewayPaymentID: event.Data.Transaction.ID,
		Status:           mapWompiStatus(event.Data.Transaction.Status),
		Raw:              string(body),
	}, nil
}

// mapWompiStatus 将Wompi交易状态归一化
func mapWompiStatus(status string) string {
	switch status {
	case "APPROVED":
		return StatusCompleted
	case "DECLINED", "VOIDED", "ERROR":
		return StatusFailed
	default:
		return StatusPending
	}
}
