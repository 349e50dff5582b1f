package digestengine

import (
	"errors"
	"fmt"
)

// Code categorizes an Error into the taxonomy the engine's callers are
// expected to branch on: bad input/state, resource exhaustion, or
// cancellation. Backend-transient conditions (retry-me) and
// backend-persistent conditions (logged, retried forever) never surface
// as an Error; see Ops and the logging package.
type Code string

const (
	CodeInvalidArgument Code = "invalid_argument"
	CodeOverflow        Code = "overflow"
	CodeNoSpace         Code = "no_space"
	CodeOutOfMemory     Code = "out_of_memory"
	CodeCanceled        Code = "canceled"
)

// Error is the engine's structured error type. Op names the call that
// failed (e.g. "Feed", "New"); Inner, when set, is the underlying cause.
type Error struct {
	Op    string
	Code  Code
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("digestengine: %s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("digestengine: %s", e.Msg)
}

func (e *Error) Unwrap() error { return e.Inner }

// Is reports whether target is an *Error with the same Code, so callers
// can write errors.Is(err, digestengine.ErrNoSpace) regardless of which
// Op produced it.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return e.Code == te.Code
	}
	return false
}

func newError(op string, code Code, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

func wrapError(op string, code Code, inner error) *Error {
	return &Error{Op: op, Code: code, Msg: inner.Error(), Inner: inner}
}

// Sentinel values, compared via errors.Is. Only Code is significant for
// the comparison; Op/Msg/Inner on these specific values are never
// populated and exist purely as comparison targets.
var (
	ErrInvalidArgument = &Error{Code: CodeInvalidArgument}
	ErrOverflow        = &Error{Code: CodeOverflow}
	ErrNoSpace         = &Error{Code: CodeNoSpace}
	ErrOutOfMemory     = &Error{Code: CodeOutOfMemory}
	ErrCanceled        = &Error{Code: CodeCanceled}
)

// IsCode reports whether err is a *Error carrying the given Code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
