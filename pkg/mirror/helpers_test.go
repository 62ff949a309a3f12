package mirror_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-drift/docmirror/pkg/buffer"
	"github.com/go-drift/docmirror/pkg/core"
	"github.com/go-drift/docmirror/pkg/mirror"
	"github.com/go-drift/docmirror/pkg/source"
)

// item is a test source value. Pointers give it identity.
type item struct {
	name string
	post string
	kids *source.List[*item]
}

func leaf(name string) *item {
	return &item{name: name}
}

func branch(name string, kids ...*item) *item {
	return &item{name: name, kids: source.NewList(kids...)}
}

func formatItem(v any) string     { return v.(*item).name }
func postFormatItem(v any) string { return v.(*item).post }

func childrenOf(v any) source.Children {
	it := v.(*item)
	if it.kids == nil {
		return nil
	}
	return it.kids
}

// harness wires a document over a Value root to a recorded in-memory
// buffer, draining the loop by hand.
type harness struct {
	t      *testing.T
	loop   *core.Loop
	root   *source.Value[*item]
	doc    *mirror.Document
	buf    *buffer.Buffer
	rec    *buffer.Recorder
	sync   *mirror.Sync
	events []mirror.Event
}

func newHarness(t *testing.T, root *item, opts mirror.Options) *harness {
	t.Helper()
	h := &harness{t: t, loop: core.NewLoop(), root: source.NewValue(root), buf: buffer.New()}
	if opts.Format == nil {
		opts.Format = formatItem
	}
	if opts.PostFormat == nil {
		opts.PostFormat = postFormatItem
	}
	if opts.Children == nil {
		opts.Children = childrenOf
	}
	opts.Loop = h.loop

	doc, err := mirror.New(h.root, opts)
	require.NoError(t, err)
	h.doc = doc
	h.rec = buffer.NewRecorder(h.buf)
	h.sync, err = mirror.Synchronize(doc, h.rec)
	require.NoError(t, err)
	doc.AddListener(func(ev mirror.Event) error {
		h.events = append(h.events, ev)
		return nil
	})
	h.reset()
	t.Cleanup(doc.Close)
	return h
}

// settle drains the loop and checks every document invariant.
func (h *harness) settle() {
	h.t.Helper()
	h.loop.Drain()
	h.check()
}

func (h *harness) check() {
	h.t.Helper()
	require.NoError(h.t, h.doc.Verify())
	require.Equal(h.t, h.doc.Text(), h.buf.Text(), "buffer diverged from the node tree")
	require.Equal(h.t, h.doc.Len(), h.buf.Len())
}

func (h *harness) reset() {
	h.events = nil
	h.rec.Reset()
}

// kinds summarises the recorded events as "kind:value" strings.
func (h *harness) kinds() []string {
	out := make([]string, len(h.events))
	for i, ev := range h.events {
		out[i] = ev.Kind.String() + ":" + formatItem(ev.Node.Value())
	}
	return out
}
