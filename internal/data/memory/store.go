// Package memory is an in-process implementation of the ledger stores. A
// Store serialises transactions behind one mutex and works on a copy of its
// state, so a failed transaction leaves nothing behind. It backs the engine
// and API tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/ticket-backoffice-ledger/internal/domain/account"
	"github.com/ticket-backoffice-ledger/internal/domain/event"
	"github.com/ticket-backoffice-ledger/internal/domain/inventory"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/outbox"
	"github.com/ticket-backoffice-ledger/internal/domain/party"
	"github.com/ticket-backoffice-ledger/internal/domain/store"
)

type state struct {
	accounts  map[uuid.UUID]account.Account
	parties   map[uuid.UUID]party.Party
	batches   map[uuid.UUID]inventory.Batch
	events    map[uuid.UUID]event.Event
	audit     []ledger.Entry
	outbox    []outbox.Message
	outboxSeq int64
}

func newState() *state {
	return &state{
		accounts: make(map[uuid.UUID]account.Account),
		parties:  make(map[uuid.UUID]party.Party),
		batches:  make(map[uuid.UUID]inventory.Batch),
		events:   make(map[uuid.UUID]event.Event),
	}
}

// clone copies every row. Rows are stored by value and payload pointers inside
// them are never mutated in place, so a shallow copy per row is enough.
func (s *state) clone() *state {
	c := &state{
		accounts:  make(map[uuid.UUID]account.Account, len(s.accounts)),
		parties:   make(map[uuid.UUID]party.Party, len(s.parties)),
		batches:   make(map[uuid.UUID]inventory.Batch, len(s.batches)),
		events:    make(map[uuid.UUID]event.Event, len(s.events)),
		audit:     append([]ledger.Entry(nil), s.audit...),
		outbox:    append([]outbox.Message(nil), s.outbox...),
		outboxSeq: s.outboxSeq,
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.parties {
		c.parties[k] = v
	}
	for k, v := range s.batches {
		c.batches[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	return c
}

// Store is a store.TxManager over in-process state
type Store struct {
	mu        sync.Mutex
	committed *state
}

var _ store.TxManager = (*Store)(nil)

func NewStore() *Store {
	return &Store{committed: newState()}
}

// ExecuteTx runs fn against a private copy of the state and publishes the copy
// only if fn succeeds. Transactions never overlap.
func (s *Store) ExecuteTx(ctx context.Context, fn func(ctx context.Context, uow store.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.committed.clone()
	direct := func(f func(*state) error) error { return f(work) }
	if err := fn(ctx, newUnitOfWork(direct)); err != nil {
		return err
	}
	s.committed = work
	return nil
}

// ExecuteReadOnly runs fn against a private copy of the state and discards it
func (s *Store) ExecuteReadOnly(ctx context.Context, fn func(ctx context.Context, uow store.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	snapshot := s.committed.clone()
	s.mu.Unlock()

	direct := func(f func(*state) error) error { return f(snapshot) }
	return fn(ctx, newUnitOfWork(direct))
}

// Reader returns repositories that read and write committed state one call at a time
func (s *Store) Reader() store.UnitOfWork {
	return newUnitOfWork(func(f func(*state) error) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return f(s.committed)
	})
}

type runner func(func(*state) error) error

type unitOfWork struct {
	accounts *AccountRepository
	parties  *PartyRepository
	batches  *BatchRepository
	events   *EventRepository
	audit    *AuditLog
	outbox   *OutboxRepository
}

func newUnitOfWork(run runner) *unitOfWork {
	return &unitOfWork{
		accounts: &AccountRepository{run: run},
		parties:  &PartyRepository{run: run},
		batches:  &BatchRepository{run: run},
		events:   &EventRepository{run: run},
		audit:    &AuditLog{run: run},
		outbox:   &OutboxRepository{run: run},
	}
}

func (u *unitOfWork) Accounts() account.Repository  { return u.accounts }
func (u *unitOfWork) Parties() party.Repository     { return u.parties }
func (u *unitOfWork) Batches() inventory.Repository { return u.batches }
func (u *unitOfWork) Events() event.Repository      { return u.events }
func (u *unitOfWork) AuditLog() ledger.AuditLog     { return u.audit }
func (u *unitOfWork) Outbox() outbox.Repository     { return u.outbox }
