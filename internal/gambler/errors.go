package gambler

import (
	"errors"
	"strings"
)

// Kind classifies the failure mode of a Gambler operation.
type Kind int

const (
	// Unexpected covers parsing, encoding, and invariant-violation failures.
	Unexpected Kind = iota
	// Network covers transport-level failures: dials, timeouts, resets.
	Network
	// Status covers an explicit rejection by the remote bookmaker.
	Status
)

func (k Kind) String() string {
	switch k {
	case Network:
		return "network"
	case Status:
		return "status"
	default:
		return "unexpected"
	}
}

// Error wraps an underlying error with a Kind and, for Status errors, the
// remote status code.
type Error struct {
	Kind Kind
	Code int
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == Status {
		return e.Kind.String() + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

// Unwrap exposes the wrapped error to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Err }

// NewNetworkError wraps err as a Network-kind Error.
func NewNetworkError(err error) *Error {
	return &Error{Kind: Network, Err: err}
}

// NewStatusError wraps err as a Status-kind Error carrying code.
func NewStatusError(code int, err error) *Error {
	return &Error{Kind: Status, Code: code, Err: err}
}

// NewUnexpectedError wraps err as an Unexpected-kind Error.
func NewUnexpectedError(err error) *Error {
	return &Error{Kind: Unexpected, Err: err}
}

// Classify adapts a raw transport error from a concrete Gambler
// implementation into the Kind taxonomy by matching on common substrings,
// for adapters that don't already produce a typed *Error.
func Classify(err error) Kind {
	if err == nil {
		return Unexpected
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "dial"),
		strings.Contains(msg, "eof"),
		strings.Contains(msg, "reset by peer"):
		return Network
	case strings.Contains(msg, "rejected"),
		strings.Contains(msg, "bad request"),
		strings.Contains(msg, "forbidden"),
		strings.Contains(msg, "400"),
		strings.Contains(msg, "403"),
		strings.Contains(msg, "500"):
		return Status
	default:
		return Unexpected
	}
}
