package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "mysql"), mock
}

func TestDecrementStock(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	// 库存充足，扣减成功
	mock.ExpectExec(`UPDATE products SET stock = stock - \?`).
		WithArgs(3, uint64(7), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.DecrementStock(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	// 库存不足，条件不满足时不更新任何行
	mock.ExpectExec(`UPDATE products SET stock = stock - \?`).
		WithArgs(100, uint64(7), 100).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = repo.DecrementStock(context.Background(), 7, 100)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRestoreStock(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectExec(`UPDATE products SET stock = stock \+ \?`).
		WithArgs(2, uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RestoreStock(context.Background(), 5, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(`SELECT \* FROM products WHERE id = \?`).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
