// Package errors provides structured error handling for docmirror.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindFormat indicates a formatter failed while deriving node text.
	KindFormat
	// KindBuffer indicates the replay engine found the external buffer
	// out of step with the document (stale offset, short buffer).
	KindBuffer
	// KindDispatch indicates a task could not be queued or run on the loop.
	KindDispatch
	// KindConfig indicates an invalid configuration file or option.
	KindConfig
	// KindSource indicates a source document could not be parsed.
	KindSource
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindFormat:
		return "format"
	case KindBuffer:
		return "buffer"
	case KindDispatch:
		return "dispatch"
	case KindConfig:
		return "config"
	case KindSource:
		return "source"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// MirrorError represents a structured error raised by the mirror.
type MirrorError struct {
	// Op is the operation that failed (e.g., "mirror.replay").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Offset is the buffer offset involved, or -1 when not applicable.
	Offset int
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *MirrorError) Error() string {
	if e.Offset >= 0 && e.Kind == KindBuffer {
		return fmt.Sprintf("%s [%s] offset=%d: %v", e.Op, e.Kind, e.Offset, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *MirrorError) Unwrap() error {
	return e.Err
}

// New returns a MirrorError without an offset.
func New(op string, kind ErrorKind, err error) *MirrorError {
	return &MirrorError{Op: op, Kind: kind, Err: err, Offset: -1}
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "core.Loop.run").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler receives errors reported by docmirror.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *MirrorError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
