package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ticket-backoffice-ledger/internal/domain/event"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
	"github.com/ticket-backoffice-ledger/internal/domain/shared"
)

func depositDraft() *event.Draft {
	return &event.Draft{
		Kind:           event.KindDeposit,
		IdempotencyKey: "dep-1",
		Deposit: &event.Deposit{
			ToAccountID: uuid.New(),
			Amount:      money.MustNew("500000", money.UZS),
		},
	}
}

func TestCommandServiceImpl_SubmitCommand(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockLedgerRepo := new(MockLedgerRepository)
		mockProducer := new(MockCommandPublisher)
		svc := NewCommandService(logger, mockLedgerRepo, mockProducer)
		ctx := shared.WithCorrelationID(context.Background(), "corr-async")

		mockProducer.On("PublishCommand", ctx, mock.MatchedBy(func(cmd *shared.LedgerCommand) bool {
			return cmd.CommandID != uuid.Nil && cmd.CorrelationID == "corr-async" && !cmd.Timestamp.IsZero()
		})).Return(nil).Once()

		cmd, err := svc.SubmitCommand(ctx, &shared.LedgerCommand{Action: ledger.ActionCommit, Draft: depositDraft()})

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, cmd.CommandID)
		assert.Equal(t, "corr-async", cmd.CorrelationID)
		mockProducer.AssertExpectations(t)
	})

	t.Run("KeepsCallerCommandID", func(t *testing.T) {
		mockProducer := new(MockCommandPublisher)
		svc := NewCommandService(logger, new(MockLedgerRepository), mockProducer)
		commandID := uuid.New()

		mockProducer.On("PublishCommand", mock.Anything, mock.AnythingOfType("*shared.LedgerCommand")).Return(nil).Once()

		cmd, err := svc.SubmitCommand(context.Background(), &shared.LedgerCommand{
			CommandID: commandID,
			Action:    ledger.ActionRevert,
			EventID:   uuid.New(),
		})

		require.NoError(t, err)
		assert.Equal(t, commandID, cmd.CommandID)
		mockProducer.AssertExpectations(t)
	})

	t.Run("ValidationError", func(t *testing.T) {
		mockProducer := new(MockCommandPublisher)
		svc := NewCommandService(logger, new(MockLedgerRepository), mockProducer)

		cmd, err := svc.SubmitCommand(context.Background(), &shared.LedgerCommand{Action: ledger.ActionAmend})

		assert.Nil(t, cmd)
		assert.ErrorIs(t, err, shared.ErrInvalidCommand)
		mockProducer.AssertNotCalled(t, "PublishCommand", mock.Anything, mock.Anything)
	})

	t.Run("ProducerPublishError", func(t *testing.T) {
		mockProducer := new(MockCommandPublisher)
		svc := NewCommandService(logger, new(MockLedgerRepository), mockProducer)
		publishError := errors.New("kafka unavailable")

		mockProducer.On("PublishCommand", mock.Anything, mock.AnythingOfType("*shared.LedgerCommand")).Return(publishError).Once()

		cmd, err := svc.SubmitCommand(context.Background(), &shared.LedgerCommand{Action: ledger.ActionCommit, Draft: depositDraft()})

		assert.Nil(t, cmd)
		assert.ErrorIs(t, err, publishError)
		mockProducer.AssertExpectations(t)
	})
}

func TestCommandServiceImpl_GetCommandStatus(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	ctx := context.Background()

	t.Run("Processed", func(t *testing.T) {
		mockLedgerRepo := new(MockLedgerRepository)
		svc := NewCommandService(logger, mockLedgerRepo, new(MockCommandPublisher))
		entry := ledger.NewEntry(uuid.New(), "DEPOSIT", 1, ledger.ActionCommit, nil)
		entry.Status = ledger.StatusCompleted

		mockLedgerRepo.On("GetByID", ctx, entry.ID).Return(entry, nil).Once()

		got, err := svc.GetCommandStatus(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, ledger.StatusCompleted, got.Status)
		mockLedgerRepo.AssertExpectations(t)
	})

	t.Run("Pending", func(t *testing.T) {
		mockLedgerRepo := new(MockLedgerRepository)
		svc := NewCommandService(logger, mockLedgerRepo, new(MockCommandPublisher))
		commandID := uuid.New()

		mockLedgerRepo.On("GetByID", ctx, commandID).Return(nil, ledger.ErrEntryNotFound{EntryID: commandID}).Once()

		got, err := svc.GetCommandStatus(ctx, commandID)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("RepositoryError", func(t *testing.T) {
		mockLedgerRepo := new(MockLedgerRepository)
		svc := NewCommandService(logger, mockLedgerRepo, new(MockCommandPublisher))
		commandID := uuid.New()

		mockLedgerRepo.On("GetByID", ctx, commandID).Return(nil, errors.New("mongo down")).Once()

		got, err := svc.GetCommandStatus(ctx, commandID)
		assert.Error(t, err)
		assert.Nil(t, got)
	})
}
