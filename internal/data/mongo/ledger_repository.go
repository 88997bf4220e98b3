package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// LedgerCollectionName is the audit history collection fed by the outbox poller
	LedgerCollectionName = "ledger_audit"
)

// LedgerRepository implements the ledger.Repository interface for MongoDB.
// Entries are keyed by their id, so a replayed outbox message cannot
// create a second document.
type LedgerRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewLedgerRepository creates a new MongoDB ledger repository
func NewLedgerRepository(logger *slog.Logger, db *mongo.Database) *LedgerRepository {
	return &LedgerRepository{
		db:     db,
		logger: logger,
	}
}

var _ ledger.Repository = (*LedgerRepository)(nil)

type targetDocument struct {
	Kind     string `bson:"kind"`
	ID       string `bson:"id"`
	Currency string `bson:"currency,omitempty"`
}

type effectDocument struct {
	Target targetDocument       `bson:"target"`
	Delta  primitive.Decimal128 `bson:"delta"`
}

type entryDocument struct {
	ID             string           `bson:"_id"`
	Sequence       int64            `bson:"sequence"`
	EventID        string           `bson:"event_id"`
	EventKind      string           `bson:"event_kind"`
	Revision       int              `bson:"revision"`
	Action         string           `bson:"action"`
	Deltas         []effectDocument `bson:"deltas"`
	IdempotencyKey string           `bson:"idempotency_key,omitempty"`
	CorrelationID  string           `bson:"correlation_id,omitempty"`
	Status         string           `bson:"status"`
	FailureReason  string           `bson:"failure_reason,omitempty"`
	CreatedAt      time.Time        `bson:"created_at"`
	ProcessedAt    *time.Time       `bson:"processed_at,omitempty"`
}

func toDocument(entry *ledger.Entry) (*entryDocument, error) {
	deltas := make([]effectDocument, 0, len(entry.Deltas))
	for _, e := range entry.Deltas {
		delta, err := primitive.ParseDecimal128(e.Delta.String())
		if err != nil {
			return nil, fmt.Errorf("invalid delta %s: %w", e.Delta, err)
		}
		deltas = append(deltas, effectDocument{
			Target: targetDocument{
				Kind:     string(e.Target.Kind),
				ID:       e.Target.ID.String(),
				Currency: string(e.Target.Currency),
			},
			Delta: delta,
		})
	}
	return &entryDocument{
		ID:             entry.ID.String(),
		Sequence:       entry.Sequence,
		EventID:        entry.EventID.String(),
		EventKind:      entry.EventKind,
		Revision:       entry.Revision,
		Action:         string(entry.Action),
		Deltas:         deltas,
		IdempotencyKey: entry.IdempotencyKey,
		CorrelationID:  entry.CorrelationID,
		Status:         string(entry.Status),
		FailureReason:  entry.FailureReason,
		CreatedAt:      entry.CreatedAt,
		ProcessedAt:    entry.ProcessedAt,
	}, nil
}

func (d *entryDocument) toEntry() (*ledger.Entry, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid entry id %q: %w", d.ID, err)
	}
	eventID, err := uuid.Parse(d.EventID)
	if err != nil {
		return nil, fmt.Errorf("invalid event id %q: %w", d.EventID, err)
	}
	deltas := make([]ledger.Effect, 0, len(d.Deltas))
	for _, e := range d.Deltas {
		targetID, err := uuid.Parse(e.Target.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid target id %q: %w", e.Target.ID, err)
		}
		delta, err := decimal.NewFromString(e.Delta.String())
		if err != nil {
			return nil, fmt.Errorf("invalid delta %s: %w", e.Delta, err)
		}
		deltas = append(deltas, ledger.Effect{
			Target: ledger.Target{
				Kind:     ledger.TargetKind(e.Target.Kind),
				ID:       targetID,
				Currency: money.Currency(e.Target.Currency),
			},
			Delta: delta,
		})
	}
	return &ledger.Entry{
		ID:             id,
		Sequence:       d.Sequence,
		EventID:        eventID,
		EventKind:      d.EventKind,
		Revision:       d.Revision,
		Action:         ledger.Action(d.Action),
		Deltas:         deltas,
		IdempotencyKey: d.IdempotencyKey,
		CorrelationID:  d.CorrelationID,
		Status:         ledger.Status(d.Status),
		FailureReason:  d.FailureReason,
		CreatedAt:      d.CreatedAt,
		ProcessedAt:    d.ProcessedAt,
	}, nil
}

// EnsureIndexes creates the secondary indexes the history queries use
func (r *LedgerRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(LedgerCollectionName)

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "sequence", Value: 1}}},
		{Keys: bson.D{{Key: "deltas.target.id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		r.logger.Error("Failed to create ledger audit indexes", "error", err)
		return fmt.Errorf("failed to create ledger audit indexes: %w", err)
	}

	return nil
}

// Create stores a new audit entry.
// Returns ErrDuplicateEntry if an entry with the same id exists.
func (r *LedgerRepository) Create(ctx context.Context, entry *ledger.Entry) error {
	collection := r.db.Collection(LedgerCollectionName)

	doc, err := toDocument(entry)
	if err != nil {
		return err
	}

	_, err = collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrDuplicateEntry{EntryID: entry.ID}
		}
		r.logger.Error("Failed to create audit entry",
			"entry_id", entry.ID.String(),
			"event_id", entry.EventID.String(),
			"error", err)
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	return nil
}

// GetByID retrieves an entry by id.
// Returns ErrEntryNotFound if no entry exists.
func (r *LedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	collection := r.db.Collection(LedgerCollectionName)

	var doc entryDocument
	err := collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.ErrEntryNotFound{EntryID: id}
		}
		r.logger.Error("Failed to get audit entry",
			"entry_id", id.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get audit entry: %w", err)
	}

	return doc.toEntry()
}

// GetByEventID returns every revision of an event in sequence order
func (r *LedgerRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) ([]*ledger.Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}})
	entries, err := r.find(ctx, bson.M{"event_id": eventID.String()}, opts)
	if err != nil {
		r.logger.Error("Failed to get audit entries for event",
			"event_id", eventID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get audit entries for event: %w", err)
	}
	return entries, nil
}

// GetByTargetID retrieves paginated entries that moved the given account,
// party, batch or sale. Newest first.
func (r *LedgerRepository) GetByTargetID(ctx context.Context, targetID uuid.UUID, limit, offset int) ([]*ledger.Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	entries, err := r.find(ctx, bson.M{"deltas.target.id": targetID.String()}, opts)
	if err != nil {
		r.logger.Error("Failed to get audit entries",
			"target_id", targetID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get audit entries: %w", err)
	}
	return entries, nil
}

// CountByTargetID counts the entries that moved a target
func (r *LedgerRepository) CountByTargetID(ctx context.Context, targetID uuid.UUID) (int64, error) {
	collection := r.db.Collection(LedgerCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{"deltas.target.id": targetID.String()})
	if err != nil {
		r.logger.Error("Failed to count audit entries",
			"target_id", targetID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	return count, nil
}

// UpdateStatus updates the entry's status, failure reason, and processed timestamp.
// Returns ErrEntryNotFound if the entry doesn't exist.
func (r *LedgerRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status ledger.Status, reason string) error {
	collection := r.db.Collection(LedgerCollectionName)

	update := bson.M{
		"$set": bson.M{
			"status":         string(status),
			"failure_reason": reason,
			"processed_at":   time.Now().UTC(),
		},
	}

	result, err := collection.UpdateOne(ctx, bson.M{"_id": id.String()}, update)
	if err != nil {
		r.logger.Error("Failed to update audit entry status",
			"entry_id", id.String(),
			"status", string(status),
			"error", err)
		return fmt.Errorf("failed to update audit entry status: %w", err)
	}

	if result.MatchedCount == 0 {
		return ledger.ErrEntryNotFound{EntryID: id}
	}

	return nil
}

// GetByTimeRange retrieves paginated entries within the specified time window.
// Results are sorted by creation time in descending order for recent-first access.
func (r *LedgerRepository) GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*ledger.Entry, error) {
	filter := bson.M{
		"created_at": bson.M{
			"$gte": startTime,
			"$lte": endTime,
		},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	entries, err := r.find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get audit entries by time range",
			"start_time", startTime,
			"end_time", endTime,
			"error", err)
		return nil, fmt.Errorf("failed to get audit entries by time range: %w", err)
	}
	return entries, nil
}

func (r *LedgerRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*ledger.Entry, error) {
	collection := r.db.Collection(LedgerCollectionName)

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []entryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	entries := make([]*ledger.Entry, 0, len(docs))
	for i := range docs {
		entry, err := docs[i].toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
