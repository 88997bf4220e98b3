package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ticket-backoffice-ledger/internal/domain/account"
	"github.com/ticket-backoffice-ledger/internal/domain/event"
	"github.com/ticket-backoffice-ledger/internal/domain/inventory"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
	"github.com/ticket-backoffice-ledger/internal/domain/outbox"
	"github.com/ticket-backoffice-ledger/internal/domain/party"
	"github.com/ticket-backoffice-ledger/internal/domain/shared"
)

// AccountRepository implements account.Repository
type AccountRepository struct{ run runner }

func (r *AccountRepository) Create(_ context.Context, acc *account.Account) error {
	return r.run(func(st *state) error {
		for _, existing := range st.accounts {
			if strings.EqualFold(existing.Name, acc.Name) {
				return account.ErrDuplicateName{Name: acc.Name}
			}
		}
		st.accounts[acc.ID] = *acc
		return nil
	})
}

func (r *AccountRepository) GetByID(_ context.Context, id uuid.UUID) (*account.Account, error) {
	var out account.Account
	err := r.run(func(st *state) error {
		acc, ok := st.accounts[id]
		if !ok {
			return account.ErrAccountNotFound{AccountID: id}
		}
		out = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *AccountRepository) GetByName(_ context.Context, name string) (*account.Account, error) {
	var out *account.Account
	err := r.run(func(st *state) error {
		for _, acc := range st.accounts {
			if strings.EqualFold(acc.Name, name) {
				found := acc
				out = &found
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *AccountRepository) List(_ context.Context, activeOnly bool) ([]*account.Account, error) {
	var out []*account.Account
	err := r.run(func(st *state) error {
		for _, acc := range st.accounts {
			if activeOnly && !acc.Active {
				continue
			}
			a := acc
			out = append(out, &a)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *AccountRepository) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	return r.run(func(st *state) error {
		acc, ok := st.accounts[id]
		if !ok {
			return account.ErrAccountNotFound{AccountID: id}
		}
		acc.Active = active
		acc.UpdatedAt = time.Now().UTC()
		st.accounts[id] = acc
		return nil
	})
}

// LockForUpdate is a plain read; the store already serialises transactions
func (r *AccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return r.GetByID(ctx, id)
}

func (r *AccountRepository) AdjustBalance(_ context.Context, id uuid.UUID, delta money.Money) (*account.Account, error) {
	var out account.Account
	err := r.run(func(st *state) error {
		acc, ok := st.accounts[id]
		if !ok {
			return account.ErrAccountNotFound{AccountID: id}
		}
		if err := acc.Apply(delta); err != nil {
			return err
		}
		st.accounts[id] = acc
		out = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// PartyRepository implements party.Repository
type PartyRepository struct{ run runner }

func (r *PartyRepository) Create(_ context.Context, p *party.Party) error {
	return r.run(func(st *state) error {
		st.parties[p.ID] = *p
		return nil
	})
}

func (r *PartyRepository) GetByID(_ context.Context, id uuid.UUID) (*party.Party, error) {
	var out party.Party
	err := r.run(func(st *state) error {
		p, ok := st.parties[id]
		if !ok {
			return party.ErrPartyNotFound{PartyID: id}
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *PartyRepository) List(_ context.Context, role party.Role) ([]*party.Party, error) {
	var out []*party.Party
	err := r.run(func(st *state) error {
		for _, p := range st.parties {
			if role != "" && p.Role != role {
				continue
			}
			cp := p
			out = append(out, &cp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *PartyRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*party.Party, error) {
	return r.GetByID(ctx, id)
}

func (r *PartyRepository) AdjustDebt(_ context.Context, id uuid.UUID, delta money.Money) (*party.Party, error) {
	var out party.Party
	err := r.run(func(st *state) error {
		p, ok := st.parties[id]
		if !ok {
			return party.ErrPartyNotFound{PartyID: id}
		}
		if err := p.ApplyDebt(delta); err != nil {
			return err
		}
		st.parties[id] = p
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// BatchRepository implements inventory.Repository
type BatchRepository struct{ run runner }

func (r *BatchRepository) Create(_ context.Context, b *inventory.Batch) error {
	return r.run(func(st *state) error {
		st.batches[b.ID] = *b
		return nil
	})
}

func (r *BatchRepository) GetByID(_ context.Context, id uuid.UUID) (*inventory.Batch, error) {
	var out inventory.Batch
	err := r.run(func(st *state) error {
		b, ok := st.batches[id]
		if !ok {
			return inventory.ErrBatchNotFound{BatchID: id}
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *BatchRepository) List(_ context.Context) ([]*inventory.Batch, error) {
	var out []*inventory.Batch
	err := r.run(func(st *state) error {
		for _, b := range st.batches {
			cp := b
			out = append(out, &cp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

func (r *BatchRepository) UpdateDetails(_ context.Context, b *inventory.Batch) error {
	return r.run(func(st *state) error {
		cur, ok := st.batches[b.ID]
		if !ok {
			return inventory.ErrBatchNotFound{BatchID: b.ID}
		}
		cur.SupplierID = b.SupplierID
		cur.Title = b.Title
		cur.Details = b.Details
		cur.UnitCost = b.UnitCost
		cur.Currency = b.UnitCost.Currency()
		cur.UpdatedAt = time.Now().UTC()
		st.batches[b.ID] = cur
		return nil
	})
}

func (r *BatchRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	return r.GetByID(ctx, id)
}

func (r *BatchRepository) AdjustStock(_ context.Context, id uuid.UUID, initialDelta, availableDelta int64) (*inventory.Batch, error) {
	var out inventory.Batch
	err := r.run(func(st *state) error {
		b, ok := st.batches[id]
		if !ok {
			return inventory.ErrBatchNotFound{BatchID: id}
		}
		if err := b.ApplyStock(initialDelta, availableDelta); err != nil {
			return err
		}
		st.batches[id] = b
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// EventRepository implements event.Repository
type EventRepository struct{ run runner }

func (r *EventRepository) Create(_ context.Context, e *event.Event) error {
	return r.run(func(st *state) error {
		if e.IdempotencyKey != "" {
			for _, cur := range st.events {
				if cur.IdempotencyKey == e.IdempotencyKey {
					return event.ErrDuplicateIdempotencyKey{Key: e.IdempotencyKey}
				}
			}
		}
		st.events[e.ID] = *e
		return nil
	})
}

func (r *EventRepository) GetByID(_ context.Context, id uuid.UUID) (*event.Event, error) {
	var out event.Event
	err := r.run(func(st *state) error {
		e, ok := st.events[id]
		if !ok {
			return event.ErrEventNotFound{EventID: id}
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *EventRepository) GetByIdempotencyKey(_ context.Context, key string) (*event.Event, error) {
	var out *event.Event
	err := r.run(func(st *state) error {
		for _, e := range st.events {
			if key != "" && e.IdempotencyKey == key {
				found := e
				out = &found
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *EventRepository) List(_ context.Context, filter event.ListFilter) ([]*event.Event, error) {
	var out []*event.Event
	err := r.run(func(st *state) error {
		for _, e := range st.events {
			if filter.Kind != "" && e.Kind != filter.Kind {
				continue
			}
			if filter.Status != "" && e.Status != filter.Status {
				continue
			}
			cp := e
			out = append(out, &cp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *EventRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	return r.GetByID(ctx, id)
}

func (r *EventRepository) Update(_ context.Context, e *event.Event) error {
	return r.run(func(st *state) error {
		cur, ok := st.events[e.ID]
		if !ok {
			return event.ErrEventNotFound{EventID: e.ID}
		}
		next := *e
		// counters are owned by AdjustCounters
		next.PaidRaw = cur.PaidRaw
		next.ReturnedQuantity = cur.ReturnedQuantity
		st.events[e.ID] = next
		return nil
	})
}

func (r *EventRepository) AdjustCounters(_ context.Context, id uuid.UUID, paidDelta decimal.Decimal, returnedDelta int64) (*event.Event, error) {
	var out event.Event
	err := r.run(func(st *state) error {
		e, ok := st.events[id]
		if !ok {
			return event.ErrEventNotFound{EventID: id}
		}
		e.PaidRaw = e.PaidRaw.Add(paidDelta)
		e.ReturnedQuantity += returnedDelta
		e.UpdatedAt = time.Now().UTC()
		st.events[id] = e
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AuditLog implements ledger.AuditLog
type AuditLog struct{ run runner }

func (l *AuditLog) Append(_ context.Context, entry *ledger.Entry) error {
	return l.run(func(st *state) error {
		for _, e := range st.audit {
			if e.ID == entry.ID {
				return ledger.ErrDuplicateEntry{EntryID: entry.ID}
			}
		}
		entry.Sequence = int64(len(st.audit)) + 1
		st.audit = append(st.audit, *entry)
		return nil
	})
}

func (l *AuditLog) GetByID(_ context.Context, id uuid.UUID) (*ledger.Entry, error) {
	var out *ledger.Entry
	err := l.run(func(st *state) error {
		for _, e := range st.audit {
			if e.ID == id {
				found := e
				out = &found
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (l *AuditLog) List(_ context.Context, afterSequence int64, limit int) ([]*ledger.Entry, error) {
	var out []*ledger.Entry
	err := l.run(func(st *state) error {
		for _, e := range st.audit {
			if e.Sequence <= afterSequence {
				continue
			}
			cp := e
			out = append(out, &cp)
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

// OutboxRepository implements outbox.Repository
type OutboxRepository struct{ run runner }

func (r *OutboxRepository) Create(_ context.Context, message *outbox.Message) error {
	return r.run(func(st *state) error {
		for _, m := range st.outbox {
			if m.EntryID == message.EntryID {
				return outbox.ErrDuplicateMessage{EntryID: message.EntryID}
			}
		}
		st.outboxSeq++
		message.ID = st.outboxSeq
		st.outbox = append(st.outbox, *message)
		return nil
	})
}

func (r *OutboxRepository) GetPending(_ context.Context, limit int) ([]*outbox.Message, error) {
	var out []*outbox.Message
	err := r.run(func(st *state) error {
		for _, m := range st.outbox {
			if m.Status != shared.OutboxStatusPending {
				continue
			}
			cp := m
			out = append(out, &cp)
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *OutboxRepository) UpdateStatus(_ context.Context, id int64, status shared.OutboxStatus) error {
	return r.update(id, func(m *outbox.Message) {
		m.Status = status
		now := time.Now()
		m.LastAttemptAt = &now
	})
}

func (r *OutboxRepository) IncrementAttempts(_ context.Context, id int64) error {
	return r.update(id, func(m *outbox.Message) { m.IncrementAttempts() })
}

func (r *OutboxRepository) Delete(_ context.Context, id int64) error {
	return r.run(func(st *state) error {
		for i, m := range st.outbox {
			if m.ID == id {
				st.outbox = append(st.outbox[:i:i], st.outbox[i+1:]...)
				return nil
			}
		}
		return outbox.ErrMessageNotFound{ID: id}
	})
}

func (r *OutboxRepository) GetByEntryID(_ context.Context, entryID uuid.UUID) (*outbox.Message, error) {
	var out *outbox.Message
	err := r.run(func(st *state) error {
		for _, m := range st.outbox {
			if m.EntryID == entryID {
				cp := m
				out = &cp
				return nil
			}
		}
		return outbox.ErrMessageNotFound{ID: 0}
	})
	return out, err
}

func (r *OutboxRepository) update(id int64, fn func(m *outbox.Message)) error {
	return r.run(func(st *state) error {
		for i := range st.outbox {
			if st.outbox[i].ID == id {
				fn(&st.outbox[i])
				return nil
			}
		}
		return outbox.ErrMessageNotFound{ID: id}
	})
}
