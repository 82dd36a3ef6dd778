package simulator

import (
	"errors"
	"fmt"
)

// ErrorKind classifies simulation errors
type ErrorKind int

const (
	KindInvalidInput      ErrorKind = iota // Rejected before a run starts
	KindNotFound                           // Lookup by name found nothing
	KindInconsistentState                  // Bookkeeping defect detected mid-run (recoverable)
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindNotFound:
		return "not found"
	case KindInconsistentState:
		return "inconsistent state"
	default:
		return "unknown"
	}
}

// SimError is a custom error type for simulation errors
type SimError struct {
	Kind    ErrorKind
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("simulation error: %s: %s", e.Kind, e.Message)
}

// ErrInvalidConfig creates an error for invalid configuration
func ErrInvalidConfig(msg string) error {
	return SimError{Kind: KindInvalidInput, Message: fmt.Sprintf("invalid config: %s", msg)}
}

// ErrInvalidInput creates an error for a rejected process or partition definition
func ErrInvalidInput(format string, args ...interface{}) error {
	return SimError{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound creates an error for a missing process or partition
func ErrNotFound(what, name string) error {
	return SimError{Kind: KindNotFound, Message: fmt.Sprintf("%s %q does not exist", what, name)}
}

// ErrInconsistentState creates an error describing a bookkeeping defect found during a run
func ErrInconsistentState(format string, args ...interface{}) error {
	return SimError{Kind: KindInconsistentState, Message: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is a NotFound simulation error
func IsNotFound(err error) bool {
	return hasKind(err, KindNotFound)
}

// IsInvalidInput reports whether err is an InvalidInput simulation error
func IsInvalidInput(err error) bool {
	return hasKind(err, KindInvalidInput)
}

// IsInconsistentState reports whether err is an InconsistentState simulation error
func IsInconsistentState(err error) bool {
	return hasKind(err, KindInconsistentState)
}

func hasKind(err error, kind ErrorKind) bool {
	var simErr SimError
	if errors.As(err, &simErr) {
		return simErr.Kind == kind
	}
	return false
}
