package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"novamall/config"
	"novamall/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logger.Logger {
	return logger.New("error", config.LogFileConfig{})
}

func stripeSign(secret string, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestStripeCreatePaymentIntent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "sk_test_key", user)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "11699", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "PAY20260101000000abc", r.PostForm.Get("metadata[payment_no]"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"pi_123","client_secret":"pi_123_secret","status":"requires_payment_method"}`)
	}))
	defer server.Close()

	g := NewStripeGateway(config.GatewayCredentials{
		APIKey:  "sk_test_key",
		Secret:  "whsec_test",
		BaseURL: server.URL,
	}, testLogger())

	intent, err := g.CreatePaymentIntent(context.Background(), IntentRequest{
		PaymentNo: "PAY20260101000000abc",
		OrderNo:   "NM20260101000000abc",
		Amount:    decimal.RequireFromString("116.99"),
		Currency:  "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.GatewayPaymentID)
	assert.Equal(t, "pi_123_secret", intent.ClientSecret)
}

func TestStripeConfirmPayment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payment_intents/pi_123", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"pi_123","status":"succeeded"}`)
	}))
	defer server.Close()

	g := NewStripeGateway(config.GatewayCredentials{APIKey: "sk", BaseURL: server.URL}, testLogger())

	result, err := g.ConfirmPayment(context.Background(), "pi_123")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)
}

func TestStripeVerifyWebhookSignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	g := NewStripeGateway(config.GatewayCredentials{Secret: secret}, testLogger())

	now := fmt.Sprintf("%d", time.Now().Unix())
	valid := http.Header{}
	valid.Set("Stripe-Signature", fmt.Sprintf("t=%s,v1=%s", now, stripeSign(secret, now, body)))
	assert.NoError(t, g.VerifyWebhookSignature(body, valid))

	// 错误密钥
	wrongKey := http.Header{}
	wrongKey.Set("Stripe-Signature", fmt.Sprintf("t=%s,v1=%s", now, stripeSign("other", now, body)))
	assert.ErrorIs(t, g.VerifyWebhookSignature(body, wrongKey), ErrSignatureMismatch)

	// 篡改报文
	assert.ErrorIs(t, g.VerifyWebhookSignature([]byte(`{"id":"evt_2"}`), valid), ErrSignatureMismatch)

	// 过旧时间戳
	old := fmt.Sprintf("%d", time.Now().Add(-10*time.Minute).Unix())
	stale := http.Header{}
	stale.Set("Stripe-Signature", fmt.Sprintf("t=%s,v1=%s", old, stripeSign(secret, old, body)))
	assert.ErrorIs(t, g.VerifyWebhookSignature(body, stale), ErrSignatureMismatch)

	// 缺少签名头
	assert.ErrorIs(t, g.VerifyWebhookSignature(body, http.Header{}), ErrSignatureMismatch)
}

func TestStripeParseWebhookEvent(t *testing.T) {
	g := NewStripeGateway(config.GatewayCredentials{}, testLogger())

	tests := []struct {
		name       string
		body       string
		wantStatus string
	}{
		{
			name:       "支付成功",
			body:       `{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","status":"succeeded"}}}`,
			wantStatus: StatusCompleted,
		},
		{
			name:       "支付失败",
			body:       `{"id":"evt_2","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_2","status":"requires_payment_method"}}}`,
			wantStatus: StatusFailed,
		},
		{
			name:       "已取消",
			body:       `{"id":"evt_3","type":"payment_intent.canceled","data":{"object":{"id":"pi_3","status":"canceled"}}}`,
			wantStatus: StatusFailed,
		},
		{
			name:       "处理中",
			body:       `{"id":"evt_4","type":"payment_intent.processing","data":{"object":{"id":"pi_4","status":"processing"}}}`,
			wantStatus: StatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := g.ParseWebhookEvent([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, event.Status)
			assert.NotEmpty(t, event.EventID)
			assert.NotEmpty(t, event.GatewayPaymentID)
		})
	}
}

func TestStripeParseWebhookEventInvalid(t *testing.T) {
	g := NewStripeGateway(config.GatewayCredentials{}, testLogger())

	_, err := g.ParseWebhookEvent([]byte(`not json`))
	assert.Error(t, err)

	_, err = g.ParseWebhookEvent([]byte(`{"type":"payment_intent.succeeded"}`))
	assert.Error(t, err)
}
