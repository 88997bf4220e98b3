package mongo

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func testEntry() *ledger.Entry {
	entry := ledger.NewEntry(uuid.New(), "SALE", 1, ledger.ActionCommit, []ledger.Effect{
		ledger.MoneyEffect(ledger.AgentDebtTarget(uuid.New(), money.UZS), money.MustNew("1250000.50", money.UZS)),
		ledger.QuantityEffect(ledger.BatchAvailableTarget(uuid.New()), -3),
	})
	entry.Sequence = 8
	entry.CorrelationID = "corr1"
	entry.CreatedAt = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	return entry
}

func entryBSON(t *testing.T, entry *ledger.Entry) bson.D {
	t.Helper()
	doc, err := toDocument(entry)
	require.NoError(t, err)
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var out bson.D
	require.NoError(t, bson.Unmarshal(raw, &out))
	return out
}

func TestEntryDocument_RoundTrip(t *testing.T) {
	entry := testEntry()
	processed := time.Date(2026, 5, 1, 9, 31, 0, 0, time.UTC)
	entry.ProcessedAt = &processed
	entry.Status = ledger.StatusCompleted

	doc, err := toDocument(entry)
	require.NoError(t, err)
	assert.Equal(t, entry.ID.String(), doc.ID)
	require.Len(t, doc.Deltas, 2)
	assert.Equal(t, "1250000.5", doc.Deltas[0].Delta.String())

	back, err := doc.toEntry()
	require.NoError(t, err)
	assert.Equal(t, entry.ID, back.ID)
	assert.Equal(t, entry.EventID, back.EventID)
	assert.Equal(t, ledger.StatusCompleted, back.Status)
	require.Len(t, back.Deltas, 2)
	assert.True(t, back.Deltas[0].Money().Equal(money.MustNew("1250000.50", money.UZS)))
	assert.Equal(t, int64(-3), back.Deltas[1].Quantity())
	assert.Equal(t, entry.Deltas[1].Target, back.Deltas[1].Target)
}

func TestLedgerRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	logger := slog.Default()

	mt.Run("successful creation", func(mt *mtest.T) {
		repo := NewLedgerRepository(logger, mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.Create(context.Background(), testEntry())
		assert.NoError(t, err)
	})

	mt.Run("duplicate entry", func(mt *mtest.T) {
		repo := NewLedgerRepository(logger, mt.DB)
		entry := testEntry()
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.Create(context.Background(), entry)
		assert.ErrorIs(t, err, ledger.ErrDuplicateEntry{EntryID: entry.ID})
	})

	mt.Run("database error", func(mt *mtest.T) {
		repo := NewLedgerRepository(logger, mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad value",
		}))

		err := repo.Create(context.Background(), testEntry())
		assert.ErrorContains(t, err, "failed to create audit entry")
	})
}

func TestLedgerRepository_GetByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	logger := slog.Default()

	mt.Run("found", func(mt *mtest.T) {
		repo := NewLedgerRepository(logger, mt.DB)
		entry := testEntry()
		ns := mt.DB.Name() + "." + LedgerCollectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, entryBSON(t, entry)))

		got, err := repo.GetByID(context.Background(), entry.ID)
		require.NoError(t, err)
		assert.Equal(t, entry.ID, got.ID)
		assert.Equal(t, int64(8), got.Sequence)
		assert.Equal(t, "corr1", got.CorrelationID)
		require.Len(t, got.Deltas, 2)
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := NewLedgerRepository(logger, mt.DB)
		id := uuid.New()
		ns := mt.DB.Name() + "." + LedgerCollectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		got, err := repo.GetByID(context.Background(), id)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, ledger.ErrEntryNotFound{EntryID: id})
	})
}

func TestLedgerRepository_GetByTargetID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	logger := slog.Default()

	mt.Run("pages entries", func(mt *mtest.T) {
		repo := NewLedgerRepository(logger, mt.DB)
		first, second := testEntry(), testEntry()
		ns := mt.DB.Name() + "." + LedgerCollectionName
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, entryBSON(t, first), entryBSON(t, second)),
		)

		entries, err := repo.GetByTargetID(context.Background(), first.Deltas[0].Target.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, first.ID, entries[0].ID)
		assert.Equal(t, second.ID, entries[1].ID)
	})

	mt.Run("query error", func(mt *mtest.T) {
		repo := NewLedgerRepository(logger, mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad query"}))

		entries, err := repo.GetByTargetID(context.Background(), uuid.New(), 10, 0)
		assert.Nil(t, entries)
		assert.ErrorContains(t, err, "failed to get audit entries")
	})
}

func TestLedgerRepository_GetByEventID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("revisions in order", func(mt *mtest.T) {
		repo := NewLedgerRepository(slog.Default(), mt.DB)
		commit := testEntry()
		amend := testEntry()
		amend.EventID = commit.EventID
		amend.Revision = 2
		amend.Action = ledger.ActionAmend
		ns := mt.DB.Name() + "." + LedgerCollectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, entryBSON(t, commit), entryBSON(t, amend)))

		entries, err := repo.GetByEventID(context.Background(), commit.EventID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, ledger.ActionCommit, entries[0].Action)
		assert.Equal(t, ledger.ActionAmend, entries[1].Action)
		assert.Equal(t, 2, entries[1].Revision)
	})
}

func TestLedgerRepository_CountByTargetID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("count", func(mt *mtest.T) {
		repo := NewLedgerRepository(slog.Default(), mt.DB)
		ns := mt.DB.Name() + "." + LedgerCollectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(4)}}))

		count, err := repo.CountByTargetID(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.Equal(t, int64(4), count)
	})
}

func TestLedgerRepository_UpdateStatus(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	logger := slog.Default()

	mt.Run("updated", func(mt *mtest.T) {
		repo := NewLedgerRepository(logger, mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := repo.UpdateStatus(context.Background(), uuid.New(), ledger.StatusCompleted, "")
		assert.NoError(t, err)
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := NewLedgerRepository(logger, mt.DB)
		id := uuid.New()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.UpdateStatus(context.Background(), id, ledger.StatusFailed, "LEDGER_INSUFFICIENT_FUNDS: cash")
		assert.ErrorIs(t, err, ledger.ErrEntryNotFound{EntryID: id})
	})
}

func TestLedgerRepository_GetByTimeRange(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("window", func(mt *mtest.T) {
		repo := NewLedgerRepository(slog.Default(), mt.DB)
		entry := testEntry()
		ns := mt.DB.Name() + "." + LedgerCollectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, entryBSON(t, entry)))

		entries, err := repo.GetByTimeRange(context.Background(),
			entry.CreatedAt.Add(-time.Hour), entry.CreatedAt.Add(time.Hour), 50, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].CreatedAt.Equal(entry.CreatedAt))
	})
}

func TestLedgerRepository_EnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates indexes", func(mt *mtest.T) {
		repo := NewLedgerRepository(slog.Default(), mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		assert.NoError(t, repo.EnsureIndexes(context.Background()))
	})
}
