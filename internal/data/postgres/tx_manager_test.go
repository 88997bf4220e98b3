package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
	"github.com/ticket-backoffice-ledger/internal/domain/store"
)

func TestTxManager_ExecuteTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commits repository work", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		acc := testAccount(t, "Main cash")
		delta := money.MustNew("100", money.UZS)
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WithArgs(acc.ID).WillReturnRows(accountRows(acc))
		mock.ExpectQuery(`UPDATE accounts`).WithArgs(delta.Amount(), acc.ID, "UZS").WillReturnRows(accountRows(acc))
		mock.ExpectCommit()

		manager := NewTxManager(mock, newTestLogger())
		err = manager.ExecuteTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
			if _, err := uow.Accounts().LockForUpdate(ctx, acc.ID); err != nil {
				return err
			}
			_, err := uow.Accounts().AdjustBalance(ctx, acc.ID, delta)
			return err
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		fnErr := errors.New("insufficient funds")
		mock.ExpectBegin()
		mock.ExpectRollback()

		manager := NewTxManager(mock, newTestLogger())
		err = manager.ExecuteTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
			return fnErr
		})

		assert.ErrorIs(t, err, fnErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("serialization failure is a concurrency conflict", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(&pgconn.PgError{Code: "40001"})

		manager := NewTxManager(mock, newTestLogger())
		err = manager.ExecuteTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
			return nil
		})

		assert.ErrorIs(t, err, ledger.ErrConcurrentModification)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTxManager_ExecuteReadOnly(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	acc := testAccount(t, "Main cash")
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	mock.ExpectQuery(`ORDER BY name`).WithArgs(false).WillReturnRows(accountRows(acc))
	mock.ExpectCommit()

	manager := NewTxManager(mock, newTestLogger())
	var listed int
	err = manager.ExecuteReadOnly(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		accounts, err := uow.Accounts().List(ctx, false)
		listed = len(accounts)
		return err
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, listed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_Reader(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	reader := NewTxManager(mock, newTestLogger()).Reader()

	assert.IsType(t, &AccountRepository{}, reader.Accounts())
	assert.IsType(t, &PartyRepository{}, reader.Parties())
	assert.IsType(t, &BatchRepository{}, reader.Batches())
	assert.IsType(t, &EventRepository{}, reader.Events())
	assert.IsType(t, &AuditLogRepository{}, reader.AuditLog())
	assert.IsType(t, &OutboxRepository{}, reader.Outbox())
}
