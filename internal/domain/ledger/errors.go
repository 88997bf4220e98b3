package ledger

import (
	"errors"
	"fmt"
)

// ErrorKind classifies ledger failures by how the caller should react
type ErrorKind string

const (
	KindValidation  ErrorKind = "VALIDATION"
	KindConflict    ErrorKind = "CONFLICT"
	KindNotFound    ErrorKind = "NOT_FOUND"
	KindConcurrency ErrorKind = "CONCURRENCY"
	KindIntegrity   ErrorKind = "INTEGRITY"
)

// ErrorCode identifies the specific rule that failed
type ErrorCode string

const (
	CodeCurrencyMismatch       ErrorCode = "CURRENCY_MISMATCH"
	CodeInvalidAmount          ErrorCode = "INVALID_AMOUNT"
	CodeInvalidEvent           ErrorCode = "INVALID_EVENT"
	CodeUnknownTarget          ErrorCode = "UNKNOWN_TARGET"
	CodeEventNotFound          ErrorCode = "EVENT_NOT_FOUND"
	CodeInsufficientFunds      ErrorCode = "INSUFFICIENT_FUNDS"
	CodeInsufficientStock      ErrorCode = "INSUFFICIENT_STOCK"
	CodeDependentEvents        ErrorCode = "DEPENDENT_EVENTS"
	CodeEventReverted          ErrorCode = "EVENT_REVERTED"
	CodeConcurrentModification ErrorCode = "CONCURRENT_MODIFICATION"
	CodeStockInvariant         ErrorCode = "STOCK_INVARIANT"
)

// Error is the single error type returned by the ledger engine.
// Two Errors match under errors.Is when their codes match, so callers can test
// against the sentinels below.
type Error struct {
	Kind    ErrorKind
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is implements the errors.Is interface, matching on code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinels for errors.Is checks
var (
	ErrCurrencyMismatch       = &Error{Kind: KindValidation, Code: CodeCurrencyMismatch}
	ErrInvalidAmount          = &Error{Kind: KindValidation, Code: CodeInvalidAmount}
	ErrInvalidEvent           = &Error{Kind: KindValidation, Code: CodeInvalidEvent}
	ErrUnknownTarget          = &Error{Kind: KindNotFound, Code: CodeUnknownTarget}
	ErrEventNotFound          = &Error{Kind: KindNotFound, Code: CodeEventNotFound}
	ErrInsufficientFunds      = &Error{Kind: KindConflict, Code: CodeInsufficientFunds}
	ErrInsufficientStock      = &Error{Kind: KindConflict, Code: CodeInsufficientStock}
	ErrDependentEvents        = &Error{Kind: KindConflict, Code: CodeDependentEvents}
	ErrEventReverted          = &Error{Kind: KindConflict, Code: CodeEventReverted}
	ErrConcurrentModification = &Error{Kind: KindConcurrency, Code: CodeConcurrentModification}
	ErrStockInvariant         = &Error{Kind: KindIntegrity, Code: CodeStockInvariant}
)

// Newf builds an Error of the sentinel's kind and code with a formatted message
func Newf(sentinel *Error, format string, args ...any) *Error {
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a new Error of the sentinel's kind and code
func Wrap(sentinel *Error, err error, message string) *Error {
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Message: message, Err: err}
}

// KindOf returns the kind of a ledger error anywhere in err's chain, or "" if none
func KindOf(err error) ErrorKind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}

// IsBusinessError reports whether err is a ledger rule violation rather than an
// infrastructure failure. Business errors must not be retried with the same input.
func IsBusinessError(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindConflict, KindNotFound:
		return true
	}
	return false
}
