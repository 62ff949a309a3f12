package buffer

import (
	"fmt"
	"sync"

	"github.com/go-drift/docmirror/pkg/style"
)

// Target is the edit surface a Recorder forwards to. *Buffer implements it.
type Target interface {
	Insert(offset int, text string, st style.Style) error
	Remove(offset, length int) error
	SetStyle(offset, length int, st style.Style) error
}

// OpKind identifies a recorded edit.
type OpKind int

const (
	OpInsert OpKind = iota
	OpRemove
	OpSetStyle
)

func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "insert"
	case OpRemove:
		return "remove"
	case OpSetStyle:
		return "setStyle"
	default:
		return fmt.Sprintf("OpKind(%d)", int(k))
	}
}

// Op is one recorded edit. Text is set for inserts only.
type Op struct {
	Kind   OpKind
	Offset int
	Length int
	Text   string
	Style  style.Style
	Err    error
}

func (o Op) String() string {
	if o.Kind == OpInsert {
		return fmt.Sprintf("%s@%d %q", o.Kind, o.Offset, o.Text)
	}
	return fmt.Sprintf("%s@%d+%d", o.Kind, o.Offset, o.Length)
}

// Recorder forwards edits to a target and keeps a log of them. When Fail
// is set it is consulted before each edit and a non-nil result is
// returned instead of forwarding.
type Recorder struct {
	Target Target
	Fail   func(Op) error

	mu  sync.Mutex
	ops []Op
}

// NewRecorder wraps target.
func NewRecorder(target Target) *Recorder {
	return &Recorder{Target: target}
}

func (r *Recorder) Insert(offset int, text string, st style.Style) error {
	op := Op{Kind: OpInsert, Offset: offset, Length: Run{Text: text}.Len(), Text: text, Style: st}
	return r.record(op, func() error { return r.Target.Insert(offset, text, st) })
}

func (r *Recorder) Remove(offset, length int) error {
	op := Op{Kind: OpRemove, Offset: offset, Length: length}
	return r.record(op, func() error { return r.Target.Remove(offset, length) })
}

func (r *Recorder) SetStyle(offset, length int, st style.Style) error {
	op := Op{Kind: OpSetStyle, Offset: offset, Length: length, Style: st}
	return r.record(op, func() error { return r.Target.SetStyle(offset, length, st) })
}

func (r *Recorder) record(op Op, apply func() error) error {
	var err error
	if r.Fail != nil {
		err = r.Fail(op)
	}
	if err == nil && r.Target != nil {
		err = apply()
	}
	op.Err = err
	r.mu.Lock()
	r.ops = append(r.ops, op)
	r.mu.Unlock()
	return err
}

// Ops returns a copy of the log.
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Op(nil), r.ops...)
}

// Count returns how many recorded edits have kind k.
func (r *Recorder) Count(k OpKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, op := range r.ops {
		if op.Kind == k {
			n++
		}
	}
	return n
}

// Reset clears the log.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.ops = nil
	r.mu.Unlock()
}
