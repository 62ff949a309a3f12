package errors

import (
	stderrors "errors"
	"strings"
	"testing"
	"time"
)

func TestMirrorErrorString(t *testing.T) {
	err := New("mirror.replay", KindFormat, stderrors.New("boom"))
	got := err.Error()
	want := "mirror.replay [format]: boom"
	if got != want {
		t.Errorf("MirrorError.Error() = %q, want %q", got, want)
	}
}

func TestMirrorErrorWithOffset(t *testing.T) {
	err := &MirrorError{
		Op:     "mirror.replay",
		Kind:   KindBuffer,
		Offset: 42,
		Err:    stderrors.New("offset out of range"),
	}
	got := err.Error()
	if !strings.Contains(got, "offset=42") {
		t.Errorf("error string %q should contain offset", got)
	}
}

func TestMirrorErrorUnwrap(t *testing.T) {
	cause := stderrors.New("short buffer")
	err := New("buffer.Remove", KindBuffer, cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
	var me *MirrorError
	if !stderrors.As(err, &me) || me.Kind != KindBuffer {
		t.Errorf("errors.As failed or wrong kind: %+v", me)
	}
}

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindFormat, "format"},
		{KindBuffer, "buffer"},
		{KindDispatch, "dispatch"},
		{KindConfig, "config"},
		{KindSource, "source"},
		{KindPanic, "panic"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestPanicErrorString(t *testing.T) {
	err := &PanicError{Value: "test panic", Timestamp: time.Now()}
	if got, want := err.Error(), "panic: test panic"; got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}

	err.Op = "core.Loop.run"
	if got, want := err.Error(), "panic in core.Loop.run: test panic"; got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
}

func TestReport(t *testing.T) {
	var captured *MirrorError
	handler := &testHandler{
		onError: func(err *MirrorError) {
			captured = err
		},
	}

	oldHandler := Handler()
	SetHandler(handler)
	defer SetHandler(oldHandler)

	Report(New("test.op", KindDispatch, stderrors.New("queue closed")))

	if captured == nil {
		t.Fatal("expected error to be captured")
	}
	if captured.Op != "test.op" {
		t.Errorf("Op = %q, want %q", captured.Op, "test.op")
	}
	if captured.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestRecover(t *testing.T) {
	var captured *PanicError
	handler := &testHandler{
		onPanic: func(err *PanicError) {
			captured = err
		},
	}

	oldHandler := Handler()
	SetHandler(handler)
	defer SetHandler(oldHandler)

	func() {
		defer Recover("test.recover")
		panic("intentional test panic")
	}()

	if captured == nil {
		t.Fatal("expected panic to be recovered and captured")
	}
	if captured.Value != "intentional test panic" {
		t.Errorf("Value = %v, want %q", captured.Value, "intentional test panic")
	}
	if captured.Op != "test.recover" {
		t.Errorf("Op = %q, want %q", captured.Op, "test.recover")
	}
	if !strings.Contains(captured.StackTrace, "TestRecover") {
		t.Errorf("stack does not reach the panicking function:\n%s", captured.StackTrace)
	}
	if strings.Contains(captured.StackTrace, "errors.stackFrom") {
		t.Errorf("stack includes internal frames:\n%s", captured.StackTrace)
	}
}

func TestRecover_NoPanic(t *testing.T) {
	called := false
	SetHandler(&testHandler{onPanic: func(*PanicError) { called = true }})
	defer SetHandler(nil)

	func() {
		defer Recover("test.quiet")
	}()
	if called {
		t.Error("handler called without a panic")
	}
}

func TestSetHandlerNil(t *testing.T) {
	SetHandler(nil)
	if _, ok := Handler().(*LogHandler); !ok {
		t.Errorf("SetHandler(nil) should set LogHandler, got %T", Handler())
	}
}

type testHandler struct {
	onError func(*MirrorError)
	onPanic func(*PanicError)
}

func (h *testHandler) HandleError(err *MirrorError) {
	if h.onError != nil {
		h.onError(err)
	}
}

func (h *testHandler) HandlePanic(err *PanicError) {
	if h.onPanic != nil {
		h.onPanic(err)
	}
}
