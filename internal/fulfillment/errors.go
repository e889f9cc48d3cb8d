package fulfillment

import (
	"errors"
	"fmt"
)

// Kind classifies every error a workflow operation can return.
type Kind int

const (
	KindUnknown Kind = iota
	KindBadRequest
	KindNotFound
	KindReconciliation
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindReconciliation:
		return "reconciliation_failure"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func badRequest(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a workflow error, KindUnknown for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsBadRequest(err error) bool     { return KindOf(err) == KindBadRequest }
func IsNotFound(err error) bool       { return KindOf(err) == KindNotFound }
func IsReconciliation(err error) bool { return KindOf(err) == KindReconciliation }

// PartialFailure reports a reconciliation batch that stopped at FailedAt.
// Applied holds the adjustments that reached the inventory store before it.
type PartialFailure struct {
	Applied  []Adjustment
	FailedAt Adjustment
	Err      error
}

func (p *PartialFailure) Error() string {
	return fmt.Sprintf("adjustment of product ID %d by %d failed after %d applied: %v",
		p.FailedAt.ProductID, p.FailedAt.Delta, len(p.Applied), p.Err)
}

func (p *PartialFailure) Unwrap() error {
	return p.Err
}
