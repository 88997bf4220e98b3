package shared

// FailureReason categorises why a ledger command was not applied
type FailureReason string

const (
	FailureReasonMalformedCommand FailureReason = "MALFORMED_COMMAND"
	FailureReasonUnknownAction    FailureReason = "UNKNOWN_ACTION"
	FailureReasonUnknownError     FailureReason = "UNKNOWN_ERROR"
	// Business failures carry the ledger error code, formatted with fmt.Sprintf
	FailureReasonLedgerFormat     FailureReason = "LEDGER_%s: %s"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
