package llm

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a completion call failed, so operators can tell
// causes apart from user reports without exposing provider errors to users.
type FailureKind int

const (
	FailureGeneric FailureKind = iota
	FailureTimeout
	FailureConnection
	FailureAuth
)

func (k FailureKind) String() string {
	switch k {
	case FailureTimeout:
		return "timeout"
	case FailureConnection:
		return "connection"
	case FailureAuth:
		return "auth"
	default:
		return "generic"
	}
}

type Error struct {
	Kind FailureKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("completion failed (%s): %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from an error returned by a Client.
func KindOf(err error) FailureKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return FailureGeneric
}
