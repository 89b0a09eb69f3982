package billing

import (
	"errors"
	"fmt"
)

// Kind classifies a billing failure
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindNoBillingRecord     Kind = "no_billing_record"
	KindInvalidInput        Kind = "invalid_input"
	KindInvalidState        Kind = "invalid_state"
	KindAlreadyOwned        Kind = "already_owned"
	KindPlanIncludesFeature Kind = "plan_includes_feature"
	KindConflict            Kind = "conflict"
	KindUnavailable         Kind = "unavailable"
)

// Error is a classified billing failure
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrNoBillingRecord     = &Error{Kind: KindNoBillingRecord}
	ErrInvalidInput        = &Error{Kind: KindInvalidInput}
	ErrInvalidState        = &Error{Kind: KindInvalidState}
	ErrAlreadyOwned        = &Error{Kind: KindAlreadyOwned}
	ErrPlanIncludesFeature = &Error{Kind: KindPlanIncludesFeature}
	ErrConflict            = &Error{Kind: KindConflict}
	ErrUnavailable         = &Error{Kind: KindUnavailable}
)

// NewError creates a classified error
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError classifies an underlying error
func WrapError(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
