package errors

import (
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// handler holds the process-wide ErrorHandler. It is never nil.
var handler atomic.Pointer[ErrorHandler]

func init() {
	SetHandler(nil)
}

// SetHandler installs the handler that receives reported errors and
// recovered panics. Passing nil restores a plain LogHandler.
func SetHandler(h ErrorHandler) {
	if h == nil {
		h = &LogHandler{}
	}
	handler.Store(&h)
}

// Handler returns the installed handler.
func Handler() ErrorHandler {
	return *handler.Load()
}

// Report stamps err and hands it to the installed handler.
func Report(err *MirrorError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	Handler().HandleError(err)
}

// ReportPanic stamps err and hands it to the installed handler.
func ReportPanic(err *PanicError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	Handler().HandlePanic(err)
}

// Recover reports a panic in progress and stops it. It must be deferred
// directly:
//
//	defer errors.Recover("core.Loop.run")
func Recover(op string) {
	if r := recover(); r != nil {
		ReportPanic(&PanicError{Op: op, Value: r, StackTrace: stackFrom(4)})
	}
}

// stackFrom formats the stack, one function and file:line pair per frame,
// starting skip frames above runtime.Callers. Recover skips itself and the
// runtime's panic frame so the trace starts at the panicking function.
func stackFrom(skip int) string {
	const maxDepth = 32
	var pcs [maxDepth]uintptr
	n := runtime.Callers(skip, pcs[:])
	if n == 0 {
		return ""
	}

	var sb strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		sb.WriteString(frame.Function)
		sb.WriteString("\n\t")
		sb.WriteString(frame.File)
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(frame.Line))
		sb.WriteByte('\n')
		if !more {
			return sb.String()
		}
	}
}
