package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"novamall/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wompiEventBody(txID, status string, amountCents int64, timestamp int64, secret string) []byte {
	concat := txID + status + fmt.Sprintf("%d", amountCents) + fmt.Sprintf("%d", timestamp) + secret
	sum := sha256.Sum256([]byte(concat))
	checksum := hex.EncodeToString(sum[:])

	return []byte(fmt.Sprintf(`{
		"event": "transaction.updated",
		"data": {"transaction": {"id": %q, "status": %q, "amount_in_cents": %d, "reference": "PAY1"}},
		"timestamp": %d,
		"signature": {
			"checksum": %q,
			"properties": ["transaction.id", "transaction.status", "transaction.amount_in_cents"]
		}
	}`, txID, status, amountCents, timestamp, checksum))
}

func TestWompiVerifyWebhookSignature(t *testing.T) {
	secret := "events_secret"
	g := NewWompiGateway(config.GatewayCredentials{Secret: secret}, testLogger())

	body := wompiEventBody("tx-001", "APPROVED", 11699, 1700000000, secret)
	assert.NoError(t, g.VerifyWebhookSignature(body, http.Header{}))

	// 错误密钥生成的校验和
	forged := wompiEventBody("tx-001", "APPROVED", 11699, 1700000000, "wrong")
	assert.ErrorIs(t, g.VerifyWebhookSignature(forged, http.Header{}), ErrSignatureMismatch)

	// 金额被篡改
	tampered := strings.Replace(string(body), `"amount_in_cents": 11699`, `"amount_in_cents": 1`, 1)
	assert.ErrorIs(t, g.VerifyWebhookSignature([]byte(tampered), http.Header{}), ErrSignatureMismatch)
}

func TestWompiParseWebhookEvent(t *testing.T) {
	g := NewWompiGateway(config.GatewayCredentials{Secret: "s"}, testLogger())

	tests := []struct {
		status string
		want   string
	}{
		{"APPROVED", StatusCompleted},
		{"DECLINED", StatusFailed},
		{"VOIDED", StatusFailed},
		{"ERROR", StatusFailed},
		{"PENDING", StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			body := wompiEventBody("tx-9", tt.status, 5000, 1700000001, "s")
			event, err := g.ParseWebhookEvent(body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, event.Status)
			assert.Equal(t, "tx-9", event.GatewayPaymentID)
			assert.Equal(t, "tx-9-1700000001", event.EventID)
		})
	}
}
