package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/store"
)

// parseID reads a UUID path parameter, answering 400 when it is malformed
func parseID(c *gin.Context, logger *slog.Logger, param, label string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		logger.Warn("Invalid "+label, param, raw, "error", err)
		RespondBadRequest(c, "Invalid "+label)
		return uuid.Nil, false
	}
	return id, true
}

// respondFailure logs err at a level matching its cause and writes the response.
// Rule violations are expected traffic; everything else is logged as an error.
func respondFailure(c *gin.Context, logger *slog.Logger, msg string, err error, args ...any) {
	args = append(args, "error", err)
	if ledger.IsBusinessError(store.LedgerError(err)) {
		logger.Warn(msg, args...)
	} else {
		logger.Error(msg, args...)
	}
	RespondError(c, err)
}
