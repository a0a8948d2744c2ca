package executor

import (
	"errors"
	"fmt"
)

// Kind classifies a step failure. The executor is the only component that
// acts on the classification; steps just attach it.
type Kind int

const (
	// KindFatal is the default for unclassified errors: local corruption,
	// irrecoverable collaborator rejection. No retry.
	KindFatal Kind = iota
	// KindUsage marks invalid or contradictory invocation arguments,
	// rejected before any collaborator call.
	KindUsage
	// KindAuth marks missing or invalid credentials.
	KindAuth
	// KindTransient marks network/timeout/conflict conditions eligible for
	// a bounded automatic retry.
	KindTransient
	// KindUserActionable marks failures the operator can fix (ambiguous
	// selection, non-compliant branch name); abort with guidance.
	KindUserActionable
)

func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage error"
	case KindAuth:
		return "auth error"
	case KindTransient:
		return "transient error"
	case KindUserActionable:
		return "user-actionable error"
	default:
		return "fatal error"
	}
}

// Error is a classified step failure. Guidance, when set, is printed to
// the operator on abort.
type Error struct {
	Kind     Kind
	Err      error
	Guidance string
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Usage creates a classified usage error.
func Usage(format string, args ...any) *Error {
	return &Error{Kind: KindUsage, Err: fmt.Errorf(format, args...)}
}

// Auth creates a classified credential error with remediation guidance.
func Auth(err error, guidance string) *Error {
	return &Error{Kind: KindAuth, Err: err, Guidance: guidance}
}

// Transient marks err as retryable.
func Transient(err error) *Error {
	return &Error{Kind: KindTransient, Err: err}
}

// UserActionable marks err as operator-fixable, with guidance.
func UserActionable(err error, guidance string) *Error {
	return &Error{Kind: KindUserActionable, Err: err, Guidance: guidance}
}

// Fatal marks err as non-retryable.
func Fatal(err error) *Error {
	return &Error{Kind: KindFatal, Err: err}
}

// KindOf extracts the classification from an error chain. Unclassified
// errors are fatal.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindFatal
}

// GuidanceOf extracts operator guidance from an error chain, if any.
func GuidanceOf(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Guidance
	}
	return ""
}
