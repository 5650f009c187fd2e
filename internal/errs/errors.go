// Package errs defines the error taxonomy shared by the ledger service, the stores
// and the HTTP adapter.
package errs

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Common sentinel errors for cross-layer signaling.
var (
	ErrInvalidInput      = errors.New("invalid_input")
	ErrNotFound          = errors.New("not_found")
	ErrInsufficientFunds = errors.New("insufficient_funds")
	// ErrStorage marks any failure of the underlying store or lock backend.
	ErrStorage = errors.New("storage_failure")
)

// Kind classifies an error for callers that need to branch on it.
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindNotFound          Kind = "not_found"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindStorageFailure    Kind = "storage_failure"
)

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindNotFound:
		return ErrNotFound
	case KindInsufficientFunds:
		return ErrInsufficientFunds
	default:
		return ErrStorage
	}
}

// Error carries the kind plus the offending account and amounts, so adapters can
// build a precise response without parsing Msg.
type Error struct {
	Kind      Kind
	AccountID uuid.UUID
	// Amount and Balance are decimal strings; empty when not applicable.
	Amount  string
	Balance string
	Msg     string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.AccountID != uuid.Nil {
		msg = fmt.Sprintf("%s (account %s)", msg, e.AccountID)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool { return target == e.Kind.sentinel() }

// KindOf returns the kind of err. Errors outside the taxonomy are storage failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInsufficientFunds):
		return KindInsufficientFunds
	default:
		return KindStorageFailure
	}
}

// InvalidInput reports a precondition violation on a caller supplied value.
func InvalidInput(id uuid.UUID, amount, msg string) *Error {
	return &Error{Kind: KindInvalidInput, AccountID: id, Amount: amount, Msg: msg}
}

// NotFound reports that no active account has the given id.
func NotFound(id uuid.UUID) *Error {
	return &Error{Kind: KindNotFound, AccountID: id, Msg: "account not found"}
}

// InsufficientFunds reports a withdrawal larger than the current balance.
func InsufficientFunds(id uuid.UUID, amount, balance string) *Error {
	return &Error{
		Kind:      KindInsufficientFunds,
		AccountID: id,
		Amount:    amount,
		Balance:   balance,
		Msg:       "insufficient funds",
	}
}

// Storage wraps a lower-level failure without classifying it further.
func Storage(id uuid.UUID, err error) *Error {
	return &Error{Kind: KindStorageFailure, AccountID: id, Msg: "storage failure", Err: err}
}
