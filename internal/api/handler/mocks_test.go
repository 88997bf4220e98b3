package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/ticket-backoffice-ledger/internal/domain/account"
	"github.com/ticket-backoffice-ledger/internal/domain/event"
	"github.com/ticket-backoffice-ledger/internal/domain/inventory"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
	"github.com/ticket-backoffice-ledger/internal/domain/party"
	"github.com/ticket-backoffice-ledger/internal/domain/shared"
	engine "github.com/ticket-backoffice-ledger/internal/ledger_engine/service"
)

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Commit(ctx context.Context, draft *event.Draft) (*event.Event, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockLedgerService) Amend(ctx context.Context, eventID uuid.UUID, draft *event.Draft, expectedVersion *int) (*event.Event, error) {
	args := m.Called(ctx, eventID, draft, expectedVersion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockLedgerService) Revert(ctx context.Context, eventID uuid.UUID, expectedVersion *int) (*event.Event, error) {
	args := m.Called(ctx, eventID, expectedVersion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockLedgerService) GetEvent(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockLedgerService) ListEvents(ctx context.Context, filter event.ListFilter) ([]*event.Event, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*event.Event), args.Error(1)
}

func (m *MockLedgerService) GetAccountBalance(ctx context.Context, accountID uuid.UUID) (money.Money, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(money.Money), args.Error(1)
}

func (m *MockLedgerService) GetAgentDebt(ctx context.Context, agentID uuid.UUID) (party.Balance, error) {
	args := m.Called(ctx, agentID)
	return args.Get(0).(party.Balance), args.Error(1)
}

func (m *MockLedgerService) GetSupplierDebt(ctx context.Context, supplierID uuid.UUID) (party.Balance, error) {
	args := m.Called(ctx, supplierID)
	return args.Get(0).(party.Balance), args.Error(1)
}

type MockMasterDataService struct {
	mock.Mock
}

func (m *MockMasterDataService) CreateAccount(ctx context.Context, name string, kind account.Kind, opening money.Money) (*account.Account, error) {
	args := m.Called(ctx, name, kind, opening)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockMasterDataService) GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockMasterDataService) ListAccounts(ctx context.Context, activeOnly bool) ([]*account.Account, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Account), args.Error(1)
}

func (m *MockMasterDataService) SetAccountActive(ctx context.Context, id uuid.UUID, active bool) (*account.Account, error) {
	args := m.Called(ctx, id, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockMasterDataService) CreateParty(ctx context.Context, role party.Role, name, phone string) (*party.Party, error) {
	args := m.Called(ctx, role, name, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*party.Party), args.Error(1)
}

func (m *MockMasterDataService) GetParty(ctx context.Context, id uuid.UUID) (*party.Party, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*party.Party), args.Error(1)
}

func (m *MockMasterDataService) ListParties(ctx context.Context, role party.Role) ([]*party.Party, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*party.Party), args.Error(1)
}

func (m *MockMasterDataService) GetBatch(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Batch), args.Error(1)
}

func (m *MockMasterDataService) ListBatches(ctx context.Context) ([]*inventory.Batch, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*inventory.Batch), args.Error(1)
}

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Reconcile(ctx context.Context) (*engine.ReconcileReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.ReconcileReport), args.Error(1)
}

type MockHistoryService struct {
	mock.Mock
}

func (m *MockHistoryService) GetEventHistory(ctx context.Context, eventID uuid.UUID) ([]*ledger.Entry, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

func (m *MockHistoryService) GetTargetHistory(ctx context.Context, targetID uuid.UUID, page, perPage int) ([]*ledger.Entry, int64, error) {
	args := m.Called(ctx, targetID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*ledger.Entry), args.Get(1).(int64), args.Error(2)
}

type MockCommandService struct {
	mock.Mock
}

func (m *MockCommandService) SubmitCommand(ctx context.Context, cmd *shared.LedgerCommand) (*shared.LedgerCommand, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.LedgerCommand), args.Error(1)
}

func (m *MockCommandService) GetCommandStatus(ctx context.Context, commandID uuid.UUID) (*ledger.Entry, error) {
	args := m.Called(ctx, commandID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}
