package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"novamall/config"
	"novamall/internal/gateway"
	"novamall/internal/model"
	"novamall/internal/repository"
	"novamall/pkg/async"
	"novamall/pkg/email"
	"novamall/pkg/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentTestEnv struct {
	svc   *PaymentService
	mock  sqlmock.Sqlmock
	redis *miniredis.Miniredis
}

func newPaymentTestEnv(t *testing.T, stripeBaseURL string) *paymentTestEnv {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	db := sqlx.NewDb(mockDB, "mysql")

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	log := logger.New("error", config.LogFileConfig{})
	factory := gateway.NewFactory(config.GatewaysConfig{
		Stripe: config.GatewayCredentials{
			APIKey:  "sk_test_key",
			Secret:  "whsec_test",
			BaseURL: stripeBaseURL,
		},
	}, log)

	// 工作器不启动，异步邮件任务只入队不执行
	worker := async.NewWorker(10, log)
	svc := NewPaymentService(
		repository.NewPaymentRepository(db),
		repository.NewOrderRepository(db),
		repository.NewUserRepository(db),
		factory,
		redisClient,
		email.NewService(email.Config{}, log),
		worker,
		log,
	)
	return &paymentTestEnv{svc: svc, mock: mock, redis: mr}
}

// signedStripeEvent 构造带合法签名的Stripe Webhook请求
func signedStripeEvent(secret, eventID, intentID, eventType string) ([]byte, http.Header) {
	body := []byte(fmt.Sprintf(
		`{"id":%q,"type":%q,"data":{"object":{"id":%q,"status":"succeeded"}}}`,
		eventID, eventType, intentID))
	ts := strconv.FormatInt(time.Now().Unix(), 10)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)

	headers := http.Header{}
	headers.Set("Stripe-Signature", fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil))))
	return body, headers
}

var paymentColumns = []string{
	"id", "payment_no", "order_id", "user_id", "gateway", "gateway_payment_id",
	"status", "amount", "currency", "gateway_data", "created_at", "updated_at", "completed_at",
}

func paymentRow(status string, userID interface{}) *sqlmock.Rows {
	return sqlmock.NewRows(paymentColumns).
		AddRow(1, "PAY20260101000000abc", 5, userID, "stripe", "pi_123",
			status, "116.99", "USD", nil, time.Now(), time.Now(), nil)
}

func expectPaymentLookupByGatewayID(env *paymentTestEnv, rows *sqlmock.Rows) {
	env.mock.ExpectQuery(`SELECT \* FROM payments WHERE gateway = \? AND gateway_payment_id = \?`).
		WithArgs("stripe", "pi_123").
		WillReturnRows(rows)
}

func expectCompletedTransaction(env *paymentTestEnv) {
	env.mock.ExpectBegin()
	env.mock.ExpectExec(`UPDATE payments`).
		WithArgs(model.PaymentCompleted, sqlmock.AnyArg(), sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectExec(`UPDATE orders`).
		WithArgs(model.PaymentStatusPaid, model.OrderStatusProcessing, sqlmock.AnyArg(), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectCommit()
}

func TestHandleWebhookCompletedMarksOrderPaid(t *testing.T) {
	env := newPaymentTestEnv(t, "")
	body, headers := signedStripeEvent("whsec_test", "evt_1", "pi_123", "payment_intent.succeeded")

	expectPaymentLookupByGatewayID(env, paymentRow(model.PaymentPending, 9))
	expectCompletedTransaction(env)

	err := env.svc.HandleWebhook(context.Background(), "stripe", body, headers)
	require.NoError(t, err)
	assert.True(t, env.redis.Exists("webhook:event:stripe:evt_1"))

	// 同一事件重复投递为成功空操作，不再访问数据库
	err = env.svc.HandleWebhook(context.Background(), "stripe", body, headers)
	require.NoError(t, err)
	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHandleWebhookRetryAfterFailure(t *testing.T) {
	env := newPaymentTestEnv(t, "")
	body, headers := signedStripeEvent("whsec_test", "evt_2", "pi_123", "payment_intent.succeeded")

	// 首次投递在开启事务时失败
	expectPaymentLookupByGatewayID(env, paymentRow(model.PaymentPending, 9))
	env.mock.ExpectBegin().WillReturnError(errors.New("db down"))

	err := env.svc.HandleWebhook(context.Background(), "stripe", body, headers)
	require.Error(t, err)
	// 去重键必须释放，否则网关重发会被当作重复事件丢弃
	assert.False(t, env.redis.Exists("webhook:event:stripe:evt_2"))

	// 网关重发同一事件后完整处理
	expectPaymentLookupByGatewayID(env, paymentRow(model.PaymentPending, 9))
	expectCompletedTransaction(env)

	err = env.svc.HandleWebhook(context.Background(), "stripe", body, headers)
	require.NoError(t, err)
	assert.True(t, env.redis.Exists("webhook:event:stripe:evt_2"))
	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHandleWebhookUnknownPaymentReleasesEvent(t *testing.T) {
	env := newPaymentTestEnv(t, "")
	body, headers := signedStripeEvent("whsec_test", "evt_3", "pi_123", "payment_intent.succeeded")

	expectPaymentLookupByGatewayID(env, sqlmock.NewRows(paymentColumns))

	err := env.svc.HandleWebhook(context.Background(), "stripe", body, headers)
	require.ErrorIs(t, err, ErrPaymentNotFound)
	assert.False(t, env.redis.Exists("webhook:event:stripe:evt_3"))
	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHandleWebhookTerminalPaymentNoOp(t *testing.T) {
	env := newPaymentTestEnv(t, "")
	body, headers := signedStripeEvent("whsec_test", "evt_4", "pi_123", "payment_intent.succeeded")

	expectPaymentLookupByGatewayID(env, paymentRow(model.PaymentCompleted, 9))

	err := env.svc.HandleWebhook(context.Background(), "stripe", body, headers)
	require.NoError(t, err)
	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHandleWebhookBadSignature(t *testing.T) {
	env := newPaymentTestEnv(t, "")
	body, headers := signedStripeEvent("wrong_secret", "evt_5", "pi_123", "payment_intent.succeeded")

	err := env.svc.HandleWebhook(context.Background(), "stripe", body, headers)
	require.ErrorIs(t, err, gateway.ErrSignatureMismatch)
	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestConfirmCompletedAppliesTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payment_intents/pi_123", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"pi_123","status":"succeeded"}`)
	}))
	defer server.Close()

	env := newPaymentTestEnv(t, server.URL)
	env.mock.ExpectQuery(`SELECT \* FROM payments WHERE payment_no = \?`).
		WithArgs("PAY20260101000000abc").
		WillReturnRows(paymentRow(model.PaymentPending, 9))
	expectCompletedTransaction(env)

	payment, err := env.svc.Confirm(context.Background(), CartOwner{UserID: 9}, "PAY20260101000000abc")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, payment.Status)
	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestConfirmTerminalIdempotent(t *testing.T) {
	env := newPaymentTestEnv(t, "")

	// 两次确认都只读库，不再访问网关也不再写库
	for i := 0; i < 2; i++ {
		env.mock.ExpectQuery(`SELECT \* FROM payments WHERE payment_no = \?`).
			WithArgs("PAY20260101000000abc").
			WillReturnRows(paymentRow(model.PaymentCompleted, 9))
	}

	for i := 0; i < 2; i++ {
		payment, err := env.svc.Confirm(context.Background(), CartOwner{UserID: 9}, "PAY20260101000000abc")
		require.NoError(t, err)
		assert.Equal(t, model.PaymentCompleted, payment.Status)
	}
	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestConfirmOwnership(t *testing.T) {
	env := newPaymentTestEnv(t, "")

	// 他人的支付单按不存在处理
	env.mock.ExpectQuery(`SELECT \* FROM payments WHERE payment_no = \?`).
		WithArgs("PAY20260101000000abc").
		WillReturnRows(paymentRow(model.PaymentCompleted, 9))

	_, err := env.svc.Confirm(context.Background(), CartOwner{UserID: 2}, "PAY20260101000000abc")
	require.ErrorIs(t, err, ErrPaymentNotFound)

	// 游客支付单回查订单会话，匹配时放行
	orderColumns := []string{"id", "order_no", "user_id", "guest_session", "status", "payment_status", "total_amount", "currency"}
	env.mock.ExpectQuery(`SELECT \* FROM payments WHERE payment_no = \?`).
		WithArgs("PAY20260101000000abc").
		WillReturnRows(paymentRow(model.PaymentCompleted, nil))
	env.mock.ExpectQuery(`SELECT \* FROM orders WHERE id = \?`).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows(orderColumns).
			AddRow(5, "NM1", nil, "sess-1", "pending", "pending", "116.99", "USD"))

	payment, err := env.svc.Confirm(context.Background(), CartOwner{Session: "sess-1"}, "PAY20260101000000abc")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, payment.Status)
	require.NoError(t, env.mock.ExpectationsWereMet())
}
