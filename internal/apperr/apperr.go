// Package apperr defines the failure taxonomy shared by the synthesis
// pipeline and the tools built on top of it.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// Unknown is reported for errors that carry no Kind.
	Unknown Kind = iota
	// Validation covers out-of-range amplitudes, thresholds and envelope parameters.
	Validation
	// ShapeMismatch covers buffers whose lengths do not line up.
	ShapeMismatch
	// IO covers file write/delete failures and unusable target paths.
	IO
	// Playback covers output device acquisition and write failures.
	Playback
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "ValidationError"
	case ShapeMismatch:
		return "ShapeMismatchError"
	case IO:
		return "IOError"
	case Playback:
		return "PlaybackError"
	default:
		return "Error"
	}
}

// Error attaches a Kind and the failing operation to an underlying error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with a kind and an operation name.
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf wraps a formatted error. Use %w to keep a sentinel reachable.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
