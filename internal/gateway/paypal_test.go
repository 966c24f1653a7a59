package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novamall/config"
)

func TestPayPalParseWebhookEvent(t *testing.T) {
	g := NewPayPalGateway(config.GatewayCredentials{}, testLogger())

	tests := []struct {
		name       string
		body       string
		wantStatus string
		wantRef    string
	}{
		{
			name:       "checkout order approved",
			body:       `{"id":"WH-1","event_type":"CHECKOUT.ORDER.APPROVED","resource":{"id":"ORD-1","status":"APPROVED"}}`,
			wantStatus: StatusCompleted,
			wantRef:    "ORD-1",
		},
		{
			// 捕获事件的resource.id是capture ID，支付引用要取关联的Checkout订单ID
			name:       "capture completed resolves order id",
			body:       `{"id":"WH-2","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"CAP-9","status":"COMPLETED","supplementary_data":{"related_ids":{"order_id":"ORD-2"}}}}`,
			wantStatus: StatusCompleted,
			wantRef:    "ORD-2",
		},
		{
			name:       "capture denied",
			body:       `{"id":"WH-3","event_type":"PAYMENT.CAPTURE.DENIED","resource":{"id":"CAP-3","status":"DECLINED","supplementary_data":{"related_ids":{"order_id":"ORD-3"}}}}`,
			wantStatus: StatusFailed,
			wantRef:    "ORD-3",
		},
		{
			name:       "unknown type falls back to resource status",
			body:       `{"id":"WH-4","event_type":"CHECKOUT.ORDER.SOMETHING","resource":{"id":"ORD-4","status":"VOIDED"}}`,
			wantStatus: StatusFailed,
			wantRef:    "ORD-4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := g.ParseWebhookEvent([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, event.Status)
			assert.Equal(t, tt.wantRef, event.GatewayPaymentID)
		})
	}
}

func TestPayPalParseWebhookEventMissingFields(t *testing.T) {
	g := NewPayPalGateway(config.GatewayCredentials{}, testLogger())

	_, err := g.ParseWebhookEvent([]byte(`{"id":"","event_type":"CHECKOUT.ORDER.APPROVED","resource":{"id":"ORD-1"}}`))
	require.Error(t, err)

	// 捕获事件缺少关联订单ID且resource.id为空时拒绝
	_, err = g.ParseWebhookEvent([]byte(`{"id":"WH-5","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":""}}`))
	require.Error(t, err)
}
