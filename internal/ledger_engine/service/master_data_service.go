package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ticket-backoffice-ledger/internal/domain/account"
	"github.com/ticket-backoffice-ledger/internal/domain/inventory"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
	"github.com/ticket-backoffice-ledger/internal/domain/party"
	"github.com/ticket-backoffice-ledger/internal/domain/store"
)

// MasterDataServiceImpl implements MasterDataService
type MasterDataServiceImpl struct {
	txManager store.TxManager
	logger    *slog.Logger
}

func NewMasterDataService(txManager store.TxManager, logger *slog.Logger) *MasterDataServiceImpl {
	return &MasterDataServiceImpl{
		txManager: txManager,
		logger:    logger,
	}
}

var _ MasterDataService = (*MasterDataServiceImpl)(nil)

// CreateAccount creates an account whose balance starts at the opening balance.
// Names are unique, case-insensitively.
func (s *MasterDataServiceImpl) CreateAccount(ctx context.Context, name string, kind account.Kind, opening money.Money) (*account.Account, error) {
	acc, err := account.NewAccount(name, kind, opening)
	if err != nil {
		return nil, err
	}

	accounts := s.txManager.Reader().Accounts()
	existing, err := accounts.GetByName(ctx, acc.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check account name: %w", err)
	}
	if existing != nil {
		return nil, account.ErrDuplicateName{Name: acc.Name}
	}

	if err := accounts.Create(ctx, acc); err != nil {
		return nil, err
	}
	s.logger.Info("Account created",
		"account_id", acc.ID.String(),
		"name", acc.Name,
		"currency", acc.Currency,
		"opening_balance", acc.OpeningBalance.String(),
	)
	return acc, nil
}

func (s *MasterDataServiceImpl) GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.txManager.Reader().Accounts().GetByID(ctx, id)
}

func (s *MasterDataServiceImpl) ListAccounts(ctx context.Context, activeOnly bool) ([]*account.Account, error) {
	return s.txManager.Reader().Accounts().List(ctx, activeOnly)
}

// SetAccountActive deactivates or reactivates an account. Accounts are never
// deleted; an inactive account keeps its balance and history but accepts no
// new effects.
func (s *MasterDataServiceImpl) SetAccountActive(ctx context.Context, id uuid.UUID, active bool) (*account.Account, error) {
	accounts := s.txManager.Reader().Accounts()
	if err := accounts.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	s.logger.Info("Account activity changed", "account_id", id.String(), "active", active)
	return accounts.GetByID(ctx, id)
}

func (s *MasterDataServiceImpl) CreateParty(ctx context.Context, role party.Role, name, phone string) (*party.Party, error) {
	p, err := party.NewParty(role, name, phone)
	if err != nil {
		return nil, err
	}
	if err := s.txManager.Reader().Parties().Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("Party created", "party_id", p.ID.String(), "role", p.Role, "name", p.Name)
	return p, nil
}

func (s *MasterDataServiceImpl) GetParty(ctx context.Context, id uuid.UUID) (*party.Party, error) {
	return s.txManager.Reader().Parties().GetByID(ctx, id)
}

func (s *MasterDataServiceImpl) ListParties(ctx context.Context, role party.Role) ([]*party.Party, error) {
	return s.txManager.Reader().Parties().List(ctx, role)
}

func (s *MasterDataServiceImpl) GetBatch(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	return s.txManager.Reader().Batches().GetByID(ctx, id)
}

func (s *MasterDataServiceImpl) ListBatches(ctx context.Context) ([]*inventory.Batch, error) {
	return s.txManager.Reader().Batches().List(ctx)
}
