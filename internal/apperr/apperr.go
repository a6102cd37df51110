package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies expected business failures so the transport layer can map
// them to status codes without inspecting messages.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindForbidden
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is a typed business failure. Stale marks the optimistic-versioning
// flavor of Conflict so callers can tell a lost update from a uniqueness or
// rule violation.
type Error struct {
	Kind  Kind
	Msg   string
	Stale bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Msg: msg} }
func NotFound(msg string) *Error   { return &Error{Kind: KindNotFound, Msg: msg} }
func Forbidden(msg string) *Error  { return &Error{Kind: KindForbidden, Msg: msg} }
func Conflict(msg string) *Error   { return &Error{Kind: KindConflict, Msg: msg} }

// StaleVersion reports a concurrent update detected by the version check.
func StaleVersion(msg string) *Error {
	return &Error{Kind: KindConflict, Msg: msg, Stale: true}
}

// KindOf returns the kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsConflict(err error) bool { return KindOf(err) == KindConflict }
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }
