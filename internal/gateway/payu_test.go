package gateway

import (
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"novamall/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payuNotifyBody(apiKey, merchantID, referenceSale, value, currency, statePol string) []byte {
	raw := strings.Join([]string{apiKey, merchantID, referenceSale, value, currency, statePol}, "~")
	sum := md5.Sum([]byte(raw))

	form := url.Values{}
	form.Set("merchant_id", merchantID)
	form.Set("reference_sale", referenceSale)
	form.Set("reference_pol", "846930886")
	form.Set("transaction_id", "a1b2c3-tx")
	form.Set("value", value)
	form.Set("currency", currency)
	form.Set("state_pol", statePol)
	form.Set("sign", hex.EncodeToString(sum[:]))
	return []byte(form.Encode())
}

func TestPayUVerifyWebhookSignature(t *testing.T) {
	g := NewPayUGateway(config.GatewayCredentials{
		APIKey: "4Vj8eK4rloUd272L48hsrarnUA",
		Secret: "pRRXKOl8ikMmt9u~508029~512321",
	}, testLogger())

	body := payuNotifyBody("4Vj8eK4rloUd272L48hsrarnUA", "508029", "PAY20260101000000abc", "116.99", "USD", "4")
	assert.NoError(t, g.VerifyWebhookSignature(body, http.Header{}))

	// 错误API密钥
	forged := payuNotifyBody("wrong-key", "508029", "PAY20260101000000abc", "116.99", "USD", "4")
	assert.ErrorIs(t, g.VerifyWebhookSignature(forged, http.Header{}), ErrSignatureMismatch)

	// 金额被篡改
	tampered := strings.Replace(string(body), "value=116.99", "value=1.00", 1)
	assert.ErrorIs(t, g.VerifyWebhookSignature([]byte(tampered), http.Header{}), ErrSignatureMismatch)

	// 缺少签名
	noSign := url.Values{}
	noSign.Set("state_pol", "4")
	assert.ErrorIs(t, g.VerifyWebhookSignature([]byte(noSign.Encode()), http.Header{}), ErrSignatureMismatch)
}

func TestPayUParseWebhookEvent(t *testing.T) {
	g := NewPayUGateway(config.GatewayCredentials{APIKey: "k", Secret: "a~b~c"}, testLogger())

	tests := []struct {
		statePol string
		want     string
	}{
		{"4", StatusCompleted},
		{"6", StatusFailed},
		{"5", StatusFailed},
		{"7", StatusPending},
	}

	for _, tt := range tests {
		t.Run("state_pol="+tt.statePol, func(t *testing.T) {
			body := payuNotifyBody("k", "m", "PAY1", "10.00", "USD", tt.statePol)
			event, err := g.ParseWebhookEvent(body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, event.Status)
			assert.Equal(t, "a1b2c3-tx", event.GatewayPaymentID)
			assert.Equal(t, "846930886", event.EventID)
		})
	}
}
