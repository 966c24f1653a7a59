package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncrementUsage(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCouponRepository(db)

	// 未达到使用上限
	mock.ExpectExec(`UPDATE coupons SET used_count = used_count \+ 1`).
		WithArgs("SUMMER10").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.IncrementUsage(context.Background(), "SUMMER10")
	require.NoError(t, err)
	assert.True(t, ok)

	// 已达到使用上限，条件更新不命中任何行
	mock.ExpectExec(`UPDATE coupons SET used_count = used_count \+ 1`).
		WithArgs("SUMMER10").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = repo.IncrementUsage(context.Background(), "SUMMER10")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCouponGetByCodeNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCouponRepository(db)

	mock.ExpectQuery(`SELECT \* FROM coupons WHERE code = \?`).
		WithArgs("NOPE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByCode(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
