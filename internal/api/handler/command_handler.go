package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/ticket-backoffice-ledger/internal/api/service"
)

// CommandHandler queues engine operations for asynchronous execution
type CommandHandler struct {
	commandService service.CommandService
	logger         *slog.Logger
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(logger *slog.Logger, commandService service.CommandService) *CommandHandler {
	return &CommandHandler{
		commandService: commandService,
		logger:         logger,
	}
}

// Submit publishes a command and answers 202 with its id. The outcome is
// available from Status once the processor has run it.
func (h *CommandHandler) Submit(c *gin.Context) {
	var req SubmitCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	cmd, err := h.commandService.SubmitCommand(c.Request.Context(), req.toLedgerCommand())
	if err != nil {
		respondFailure(c, h.logger, "Failed to submit command", err, "action", req.Action)
		return
	}

	RespondAccepted(c, mapCommandToResponse(cmd.CommandID.String(), nil))
}

// Status reports PENDING until the processor records the command's audit entry
func (h *CommandHandler) Status(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id", "command ID")
	if !ok {
		return
	}

	entry, err := h.commandService.GetCommandStatus(c.Request.Context(), id)
	if err != nil {
		respondFailure(c, h.logger, "Failed to get command status", err, "command_id", id.String())
		return
	}

	RespondOK(c, mapCommandToResponse(id.String(), entry))
}
