package mirror

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/go-drift/docmirror/pkg/core"
	"github.com/go-drift/docmirror/pkg/errors"
	"github.com/go-drift/docmirror/pkg/source"
	"github.com/go-drift/docmirror/pkg/style"
)

// DefaultLookAhead is the reconciliation window used when Options leaves
// LookAhead at zero.
const DefaultLookAhead = 16

var (
	// ErrClosed is returned by operations on a closed Document.
	ErrClosed = stderrors.New("mirror: document closed")
	// ErrInconsistent wraps the failure that poisoned a Document. Once a
	// pass has failed, every later pass returns it.
	ErrInconsistent = stderrors.New("mirror: document inconsistent")
	// ErrNotFound is returned when a value is not mirrored by any node.
	ErrNotFound = stderrors.New("mirror: value not in document")
)

// Options configures a Document. Every function must be pure: it may be
// called repeatedly for the same value.
type Options struct {
	// Format derives a node's local text. Defaults to fmt.Sprint.
	Format func(value any) string
	// PostFormat derives the text rendered after a node's children.
	// Defaults to the empty string.
	PostFormat func(value any) string
	// Children resolves a value's child collection; nil means none.
	Children source.Resolver
	// Style overrides the style inherited from the parent. It is called
	// once per node per pass. Defaults to returning inherited unchanged.
	Style func(value any, inherited style.Style) style.Style
	// Equal matches an existing child's value against a new source
	// element during reconciliation. Defaults to DefaultEqual.
	Equal func(a, b any) bool
	// LookAhead bounds how far reconciliation searches on a mismatch.
	LookAhead int
	// Normalize converts formatted text to Unicode NFC.
	Normalize bool
	// BaseStyle is the style inherited by the root.
	BaseStyle style.Style
	// Loop is the confinement context. When nil the Document creates a
	// private loop, available from Loop, that the caller must Drain.
	Loop *core.Loop
}

// DefaultEqual compares comparable values with == (identity for pointers,
// value equality for strings and numbers) and everything else with
// reflect.DeepEqual.
func DefaultEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	// A comparable type can still hold an interface field with a slice in
	// it; only the dynamic check keeps == from panicking.
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Comparable() && vb.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// Document projects a source value tree into a flat, styled text and keeps
// the projection current as the source changes. Every upstream change is
// queued on the document's loop and applied there as one mutation pass;
// listeners see that pass's events synchronously, in application order,
// all sharing one cause.
//
// Document is confined to its loop: create it, call its methods and read
// its nodes only from tasks running on the loop (or from the goroutine
// that drains it).
type Document struct {
	opts  Options
	loop  *core.Loop
	src   source.Source
	root  *Node
	index *index
	scope *core.Lifetime

	listeners     []*Listener
	passListeners []*func(ulid.ULID)

	cause  ulid.ULID
	inPass bool
	err    error
	closed bool
}

type passAbort struct {
	err error
}

// New builds the document for src's current root value and starts
// following src.
func New(src source.Source, opts Options) (*Document, error) {
	if src == nil {
		return nil, errors.New("mirror.New", errors.KindConfig, stderrors.New("nil source"))
	}
	if opts.Format == nil {
		opts.Format = func(v any) string { return fmt.Sprint(v) }
	}
	if opts.Equal == nil {
		opts.Equal = DefaultEqual
	}
	if opts.LookAhead <= 0 {
		opts.LookAhead = DefaultLookAhead
	}
	loop := opts.Loop
	if loop == nil {
		loop = core.NewLoop()
	}

	d := &Document{
		opts:  opts,
		loop:  loop,
		src:   src,
		index: newIndex(),
		scope: core.NewLifetime(),
	}
	d.root = &Node{doc: d, scope: d.scope.Child()}
	if err := d.runPass("mirror.New", func() {
		d.root.changed(src.Current(), false, false)
		d.root.commitTree()
	}); err != nil {
		return nil, err
	}

	d.scope.OnDispose(src.Observe(func(_, next any) {
		d.loop.Dispatch(func() {
			d.runPass("mirror.rootChanged", func() {
				d.root.changed(next, true, false)
			})
		})
	}))
	glog.V(1).Infof("[mirror] document built: %d nodes, %d runes", d.index.len(), d.root.length)
	return d, nil
}

// Loop returns the confinement loop.
func (d *Document) Loop() *core.Loop { return d.loop }

// Root returns the root node.
func (d *Document) Root() *Node { return d.root }

// Len returns the length of the flattened text.
func (d *Document) Len() int { return d.root.length }

// Text flattens the node tree directly, without any buffer.
func (d *Document) Text() string {
	return string(d.root.flatten(nil))
}

// IndexLen returns the number of entries in the value index.
func (d *Document) IndexLen() int { return d.index.len() }

// NodeFor returns the node mirroring value, or nil. With duplicate
// sibling values the left-most live node wins.
func (d *Document) NodeFor(value any) *Node {
	return d.index.lookup(value)
}

// OffsetOf returns the start offset of the node mirroring value.
func (d *Document) OffsetOf(value any) (int, bool) {
	n := d.index.lookup(value)
	if n == nil {
		return 0, false
	}
	return n.Start(), true
}

// ValueAt returns the value whose own text (local or post) covers offset.
func (d *Document) ValueAt(offset int) (any, bool) {
	if offset < 0 || offset >= d.root.length {
		return nil, false
	}
	return d.root.nodeAt(offset).value, true
}

// Err returns the error that poisoned the document, if any.
func (d *Document) Err() error { return d.err }

// AddListener appends l to the ordered listener list and returns a
// function that removes it.
func (d *Document) AddListener(l Listener) func() {
	entry := &l
	d.listeners = append(d.listeners, entry)
	return func() {
		for i, existing := range d.listeners {
			if existing == entry {
				d.listeners = append(d.listeners[:i:i], d.listeners[i+1:]...)
				return
			}
		}
	}
}

// AddPassListener registers fn to run after every successful pass with the
// pass's cause, so consumers can coalesce work per upstream transaction.
func (d *Document) AddPassListener(fn func(cause ulid.ULID)) func() {
	entry := &fn
	d.passListeners = append(d.passListeners, entry)
	return func() {
		for i, existing := range d.passListeners {
			if existing == entry {
				d.passListeners = append(d.passListeners[:i:i], d.passListeners[i+1:]...)
				return
			}
		}
	}
}

// Refresh re-derives the subtree mirroring value (the root when value is
// nil) without restructuring unchanged children, and reports it as one
// deep update. Use it when formatters or the style hook depend on state
// outside the source tree.
func (d *Document) Refresh(value any) error {
	n := d.root
	if value != nil {
		if n = d.index.lookup(value); n == nil {
			return errors.New("mirror.Refresh", errors.KindConfig, ErrNotFound)
		}
	}
	return d.runPass("mirror.Refresh", func() {
		n.changed(n.value, true, true)
	})
}

// Close stops following the source, releases every subscription and
// empties the index. Close is idempotent.
func (d *Document) Close() {
	if d.closed {
		return
	}
	d.closed = true
	d.root.drop(false)
	d.scope.Dispose()
	d.listeners = nil
	d.passListeners = nil
}

// runPass runs fn as one mutation pass with a fresh cause. A listener
// failure aborts the pass and poisons the document; formatter panics
// poison it too and keep unwinding to the caller.
func (d *Document) runPass(op string, fn func()) (err error) {
	if d.closed {
		return ErrClosed
	}
	if d.err != nil {
		return d.err
	}
	if d.inPass {
		// Requested from a listener: run after the current pass.
		d.loop.Dispatch(func() { d.runPass(op, fn) })
		return nil
	}
	d.inPass = true
	d.cause = ulid.Make()
	started := time.Now()

	defer func() {
		d.inPass = false
		r := recover()
		if r == nil {
			return
		}
		abort, ok := r.(passAbort)
		if !ok {
			d.err = fmt.Errorf("%w: %v", ErrInconsistent, errors.New(op, errors.KindFormat, fmt.Errorf("%v", r)))
			panic(r)
		}
		merr := &errors.MirrorError{Op: op, Kind: errors.KindBuffer, Err: abort.err, Offset: -1}
		var inner *errors.MirrorError
		if stderrors.As(abort.err, &inner) {
			merr.Offset = inner.Offset
		}
		errors.Report(merr)
		d.err = fmt.Errorf("%w: %w", ErrInconsistent, merr)
		err = d.err
	}()

	fn()
	for _, l := range slices.Clone(d.passListeners) {
		(*l)(d.cause)
	}
	glog.V(2).Infof("[mirror] %s pass %s done in %s, len=%d", op, d.cause, time.Since(started), d.root.length)
	return nil
}

// fire delivers one event to every listener, in registration order.
func (d *Document) fire(n *Node, kind EventKind, deep bool) {
	ev := Event{Node: n, Kind: kind, Deep: deep, Start: n.Start(), Cause: d.cause}
	if glog.V(2) {
		glog.Infof("[mirror] %s", ev)
	}
	for _, l := range append([]*Listener(nil), d.listeners...) {
		if err := (*l)(ev); err != nil {
			panic(passAbort{err: err})
		}
	}
	if kind != EventRemoved {
		n.commitLengths()
	}
}

func (d *Document) format(value any) string {
	return d.normalize(d.opts.Format(value))
}

func (d *Document) postFormat(value any) string {
	if d.opts.PostFormat == nil {
		return ""
	}
	return d.normalize(d.opts.PostFormat(value))
}

func (d *Document) normalize(s string) string {
	if d.opts.Normalize {
		return norm.NFC.String(s)
	}
	return s
}

func (d *Document) styleFor(value any, inherited style.Style) style.Style {
	if d.opts.Style == nil {
		return inherited
	}
	return d.opts.Style(value, inherited)
}

func (d *Document) resolve(value any) source.Children {
	if d.opts.Children == nil {
		return nil
	}
	return d.opts.Children(value)
}

func (d *Document) equal(a, b any) bool {
	return d.opts.Equal(a, b)
}
