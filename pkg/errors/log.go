package errors

import (
	"github.com/golang/glog"
)

// LogHandler is an ErrorHandler that logs through glog.
type LogHandler struct {
	// Verbose enables stack traces on panics.
	Verbose bool
}

// HandleError logs a MirrorError.
func (h *LogHandler) HandleError(err *MirrorError) {
	if err == nil {
		return
	}
	glog.Errorf("[mirror error] %s [%s]: %v", err.Op, err.Kind, err.Err)
}

// HandlePanic logs a PanicError.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	if err.Op != "" {
		glog.Errorf("[mirror panic] %s: %v", err.Op, err.Value)
	} else {
		glog.Errorf("[mirror panic] %v", err.Value)
	}
	if h.Verbose && err.StackTrace != "" {
		glog.Errorf("Stack trace:\n%s", err.StackTrace)
	}
}
