package repository

import (
	"context"
	"testing"

	"novamall/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkPaid(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectExec(`UPDATE orders`).
		WithArgs(model.PaymentStatusPaid, model.OrderStatusProcessing, sqlmock.AnyArg(), uint64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkPaid(context.Background(), 11))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusStampsTimeColumn(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	// 取消时间随状态一并写入
	mock.ExpectExec(`UPDATE orders SET status = \?, cancelled_at = \?`).
		WithArgs(model.OrderStatusCancelled, sqlmock.AnyArg(), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), 3, model.OrderStatusCancelled))

	// 处理中状态没有对应的时间列
	mock.ExpectExec(`UPDATE orders SET status = \?, updated_at = CURRENT_TIMESTAMP`).
		WithArgs(model.OrderStatusProcessing, uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), 3, model.OrderStatusProcessing))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaidInTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	paymentRepo := NewPaymentRepository(db)
	orderRepo := NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE payments`).
		WithArgs(model.PaymentCompleted, sqlmock.AnyArg(), sqlmock.AnyArg(), uint64(21)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE orders`).
		WithArgs(model.PaymentStatusPaid, model.OrderStatusProcessing, sqlmock.AnyArg(), uint64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := paymentRepo.BeginTx(ctx)
	require.NoError(t, err)

	require.NoError(t, paymentRepo.WithTx(tx).UpdateStatus(ctx, 21, model.PaymentCompleted, `{"status":"succeeded"}`))
	require.NoError(t, orderRepo.WithTx(tx).MarkPaid(ctx, 12))
	require.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}
