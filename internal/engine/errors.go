package engine

import (
	"errors"
	"fmt"

	"github.com/Melkor-1/Fin-Vista/internal/ledger"
)

// Kind classifies an engine failure for the caller. Every error crossing
// the engine boundary carries exactly one of these.
type Kind string

const (
	KindValidation           Kind = "validation"
	KindNotFound             Kind = "not_found"
	KindInsufficientFunds    Kind = "insufficient_funds"
	KindInsufficientHoldings Kind = "insufficient_holdings"
	KindStorage              Kind = "storage"
)

// Error is a typed, user-presentable failure. Message is safe to render.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from an engine error. Anything untyped is a
// storage failure by definition: the operation was aborted mid-flight.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// mapStoreErr turns ledger sentinels into typed engine errors.
func mapStoreErr(err error) *Error {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return newError(KindInsufficientFunds, "insufficient balance")
	case errors.Is(err, ledger.ErrInsufficientHoldings):
		return newError(KindInsufficientHoldings, "you don't own enough shares of this stock")
	case errors.Is(err, ledger.ErrUserNotFound):
		return newError(KindNotFound, "user not found")
	default:
		return newError(KindStorage, "the trade could not be recorded")
	}
}
