package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/ticket-backoffice-ledger/internal/domain/event"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
	"github.com/ticket-backoffice-ledger/internal/domain/shared"
)

// MockCommandProcessor for testing
type MockCommandProcessor struct {
	mock.Mock
}

func (m *MockCommandProcessor) ProcessCommand(ctx context.Context, cmd *shared.LedgerCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

// MockDeadLetterPublisher for testing
type MockDeadLetterPublisher struct {
	mock.Mock
}

func (m *MockDeadLetterPublisher) PublishToDLQ(ctx context.Context, key string, value []byte, reason string) error {
	args := m.Called(ctx, key, value, reason)
	return args.Error(0)
}

func (m *MockDeadLetterPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestHandleMessage(t *testing.T) {
	logger := slog.Default()

	validCommand := &shared.LedgerCommand{
		CommandID: uuid.New(),
		Action:    ledger.ActionCommit,
		Draft: &event.Draft{
			Kind: event.KindDeposit,
			Deposit: &event.Deposit{
				ToAccountID: uuid.New(),
				Amount:      money.MustNew("150000", money.UZS),
			},
		},
		CorrelationID: "corr1",
		Timestamp:     time.Now(),
	}

	validJSON, err := json.Marshal(validCommand)
	assert.NoError(t, err)

	tests := []struct {
		name          string
		value         []byte
		setupMocks    func(processor *MockCommandProcessor, dlq *MockDeadLetterPublisher)
		expectedError string
	}{
		{
			name:  "successful processing",
			value: validJSON,
			setupMocks: func(processor *MockCommandProcessor, dlq *MockDeadLetterPublisher) {
				processor.On("ProcessCommand", mock.Anything, mock.MatchedBy(func(cmd *shared.LedgerCommand) bool {
					return cmd.CommandID == validCommand.CommandID &&
						cmd.Draft != nil &&
						cmd.Draft.Deposit.Amount.Equal(validCommand.Draft.Deposit.Amount)
				})).Return(nil)
			},
		},
		{
			name:  "processing error",
			value: validJSON,
			setupMocks: func(processor *MockCommandProcessor, dlq *MockDeadLetterPublisher) {
				processor.On("ProcessCommand", mock.Anything, mock.Anything).Return(errors.New("processing error"))
			},
			expectedError: "processing command",
		},
		{
			name:  "unmarshal error with successful DLQ publish",
			value: []byte("invalid json"),
			setupMocks: func(processor *MockCommandProcessor, dlq *MockDeadLetterPublisher) {
				dlq.On("PublishToDLQ", mock.Anything, "test-key", []byte("invalid json"), mock.Anything).Return(nil)
			},
		},
		{
			name:  "unmarshal error with DLQ publish failure",
			value: []byte("invalid json"),
			setupMocks: func(processor *MockCommandProcessor, dlq *MockDeadLetterPublisher) {
				dlq.On("PublishToDLQ", mock.Anything, "test-key", []byte("invalid json"), mock.Anything).Return(errors.New("dlq error"))
			},
			expectedError: "failed to unmarshal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := &MockCommandProcessor{}
			dlq := &MockDeadLetterPublisher{}
			tt.setupMocks(processor, dlq)

			handler := NewCommandHandler(logger, processor, dlq)
			err := handler.HandleMessage(context.Background(), []byte("test-key"), tt.value)

			if tt.expectedError != "" {
				assert.ErrorContains(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			processor.AssertExpectations(t)
			dlq.AssertExpectations(t)
		})
	}
}

func TestHandleMessage_WithoutDLQ(t *testing.T) {
	handler := NewCommandHandler(slog.Default(), &MockCommandProcessor{}, nil)

	err := handler.HandleMessage(context.Background(), []byte("k"), []byte("{"))
	assert.ErrorContains(t, err, "failed to unmarshal")
}
