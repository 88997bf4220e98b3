package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
)

// HistoryServiceImpl implements the HistoryService interface over the audit history store
type HistoryServiceImpl struct {
	ledgerRepo ledger.Repository
	logger     *slog.Logger
}

// NewHistoryService creates a new history service
func NewHistoryService(logger *slog.Logger, ledgerRepo ledger.Repository) HistoryService {
	return &HistoryServiceImpl{
		ledgerRepo: ledgerRepo,
		logger:     logger,
	}
}

func (s *HistoryServiceImpl) GetEventHistory(ctx context.Context, eventID uuid.UUID) ([]*ledger.Entry, error) {
	return s.ledgerRepo.GetByEventID(ctx, eventID)
}

// GetTargetHistory retrieves a page of entries for a target.
// Returns entries, total count, and any error
func (s *HistoryServiceImpl) GetTargetHistory(ctx context.Context, targetID uuid.UUID, page, perPage int) ([]*ledger.Entry, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.ledgerRepo.GetByTargetID(ctx, targetID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.ledgerRepo.CountByTargetID(ctx, targetID)
	if err != nil {
		s.logger.Error("Failed to count target history", "target_id", targetID.String(), "error", err)
		return nil, 0, err
	}

	return entries, total, nil
}
