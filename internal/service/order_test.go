package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"testing"
	"time"

	"novamall/config"
	"novamall/internal/model"
	"novamall/internal/repository"
	"novamall/internal/types"
	"novamall/pkg/async"
	"novamall/pkg/email"
	"novamall/pkg/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{model.OrderStatusPending, model.OrderStatusProcessing, true},
		{model.OrderStatusPending, model.OrderStatusCancelled, true},
		{model.OrderStatusPending, model.OrderStatusShipped, false},
		{model.OrderStatusPending, model.OrderStatusDelivered, false},
		{model.OrderStatusProcessing, model.OrderStatusShipped, true},
		{model.OrderStatusProcessing, model.OrderStatusCancelled, true},
		{model.OrderStatusProcessing, model.OrderStatusPending, false},
		{model.OrderStatusShipped, model.OrderStatusDelivered, true},
		{model.OrderStatusShipped, model.OrderStatusCancelled, false},
		{model.OrderStatusDelivered, model.OrderStatusRefunded, true},
		{model.OrderStatusDelivered, model.OrderStatusShipped, false},
		{model.OrderStatusCancelled, model.OrderStatusPending, false},
		{model.OrderStatusCancelled, model.OrderStatusProcessing, false},
		{model.OrderStatusRefunded, model.OrderStatusDelivered, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestPaymentIsTerminal(t *testing.T) {
	assert.False(t, (&model.Payment{Status: model.PaymentPending}).IsTerminal())
	assert.True(t, (&model.Payment{Status: model.PaymentCompleted}).IsTerminal())
	assert.True(t, (&model.Payment{Status: model.PaymentFailed}).IsTerminal())
}

type orderTestEnv struct {
	svc   *OrderService
	mock  sqlmock.Sqlmock
	redis *miniredis.Miniredis
}

func newOrderTestEnv(t *testing.T) *orderTestEnv {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	db := sqlx.NewDb(mockDB, "mysql")

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	log := logger.New("error", config.LogFileConfig{})
	productRepo := repository.NewProductRepository(db)
	pricing := newTestPricing()
	cartSvc := NewCartService(productRepo, redisClient, time.Hour, log)
	couponRepo := repository.NewCouponRepository(db)
	svc := NewOrderService(
		repository.NewOrderRepository(db),
		productRepo,
		repository.NewAddressRepository(db),
		couponRepo,
		repository.NewUserRepository(db),
		cartSvc,
		NewCouponService(couponRepo, pricing, log),
		pricing,
		email.NewService(email.Config{}, log),
		async.NewWorker(10, log),
		log,
		"USD",
	)
	return &orderTestEnv{svc: svc, mock: mock, redis: mr}
}

// seedGuestCart 向游客购物车写入一行商品
func (env *orderTestEnv) seedGuestCart(t *testing.T, session string, productID uint64, qty int, price string) {
	t.Helper()
	item := model.CartItem{
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString(price),
		AddedAt:   time.Now(),
	}
	data, err := json.Marshal(item)
	require.NoError(t, err)
	env.redis.HSet(fmt.Sprintf("cart:guest:%s", session), strconv.FormatUint(productID, 10), string(data))
}

func TestCheckoutGuestOrder(t *testing.T) {
	env := newOrderTestEnv(t)
	env.seedGuestCart(t, "sess-1", 7, 2, "10.00")

	now := time.Now()
	productColumns := []string{"id", "sku", "name", "description", "price", "weight_kg", "stock", "is_active", "created_at", "updated_at"}
	env.mock.ExpectQuery(`SELECT \* FROM products WHERE id = \?`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(7, "SKU7", "保温杯", "", "10.00", "1.00", 10, true, now, now))
	env.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM orders WHERE order_no = \?`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	env.mock.ExpectBegin()
	// 游客会话与支付方式必须随订单一并落库
	env.mock.ExpectExec(`INSERT INTO orders`).
		WithArgs(sqlmock.AnyArg(), nil, "sess-1", model.OrderStatusPending, model.PaymentStatusPending, "stripe",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"USD", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(5, 1))
	env.mock.ExpectExec(`INSERT INTO order_items`).
		WithArgs(uint64(5), uint64(7), "SKU7", "保温杯", sqlmock.AnyArg(), 2, sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(11, 1))
	env.mock.ExpectExec(`UPDATE products SET stock = stock - \?`).
		WithArgs(2, uint64(7), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectCommit()

	owner := CartOwner{Session: "sess-1"}
	order, err := env.svc.Checkout(context.Background(), owner, nil, types.CreateOrderRequest{
		ShippingAddress: &types.AddressRequest{
			Name: "王小明", Phone: "13800000000", Line1: "测试路1号", City: "上海", Country: "CN",
		},
		PaymentMethod: "stripe",
	})
	require.NoError(t, err)

	assert.False(t, order.UserID.Valid)
	assert.Equal(t, "sess-1", order.GuestSession.String)
	assert.Equal(t, "stripe", order.PaymentMethod)
	// 20.00小计 + 2.00税 + 6.99运费
	assert.Equal(t, "28.99", order.TotalAmount.StringFixed(2))
	// 下单成功后购物车清空
	assert.False(t, env.redis.Exists("cart:guest:sess-1"))
	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCheckoutGuestRequiresAddress(t *testing.T) {
	env := newOrderTestEnv(t)

	_, err := env.svc.Checkout(context.Background(), CartOwner{Session: "sess-2"}, nil, types.CreateOrderRequest{
		PaymentMethod: "stripe",
	})
	require.ErrorIs(t, err, ErrAddressRequired)
	require.NoError(t, env.mock.ExpectationsWereMet())
}
