package mirror

import (
	"slices"
	"unicode/utf8"

	"github.com/go-drift/docmirror/pkg/core"
	"github.com/go-drift/docmirror/pkg/source"
	"github.com/go-drift/docmirror/pkg/style"
)

// Node mirrors one value of the source tree. Its span in the flattened
// text is its local text, then the spans of its children, then its post
// text. Lengths and offsets count runes.
//
// Nodes belong to their Document and must only be read on its loop.
type Node struct {
	doc      *Document
	value    any
	parent   *Node
	children []*Node
	depth    int

	localText string
	postText  string
	style     style.Style
	// postStyle is the parent's resolved style: post text is styled as
	// part of the parent even though the child computes it.
	postStyle style.Style
	length    int

	// Snapshot of what the last delivered event left in a synchronized
	// buffer. The replay engine diffs against it.
	previousText      string
	previousPostText  string
	previousStyle     style.Style
	previousPostStyle style.Style
	previousLength    int
	// restructured marks a child list edited without events. Deep replay
	// re-renders such a node as a whole.
	restructured bool

	childSource source.Children
	scope       *core.Lifetime
	sourceScope *core.Lifetime
	registered  bool
}

// Value returns the mirrored source value.
func (n *Node) Value() any { return n.value }

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// LocalText returns the formatted text rendered before the children.
func (n *Node) LocalText() string { return n.localText }

// PostText returns the text rendered after the children.
func (n *Node) PostText() string { return n.postText }

// Style returns the node's resolved style.
func (n *Node) Style() style.Style { return n.style }

// Len returns the content length of the node's whole span.
func (n *Node) Len() int { return n.length }

// Depth returns the distance from the root.
func (n *Node) Depth() int { return n.depth }

// Start returns the offset of the node's span in the flattened text.
func (n *Node) Start() int {
	if n.parent == nil {
		return 0
	}
	offset := n.parent.Start() + textLen(n.parent.localText)
	for _, sibling := range n.parent.children {
		if sibling == n {
			break
		}
		offset += sibling.length
	}
	return offset
}

func textLen(s string) int {
	return utf8.RuneCountInString(s)
}

func (n *Node) inheritedStyle() style.Style {
	if n.parent == nil {
		return n.doc.opts.BaseStyle
	}
	return n.parent.style
}

// changed re-derives the node from value. With fire set and deep unset,
// the node reports its own change first and its children report theirs
// as they are reconciled. With deep set, the subtree is refreshed silently
// and one deep update covers it. Without fire nothing is reported and the
// caller owns delivery. Returns whether anything visible changed.
func (n *Node) changed(value any, fire, deep bool) bool {
	d := n.doc
	if n.registered {
		d.index.remove(n.value, n)
	}
	n.value = value
	d.index.add(value, n)
	n.registered = true

	local := d.format(value)
	inherited := n.inheritedStyle()
	resolved := d.styleFor(value, inherited.Clone())
	post := d.postFormat(value)

	styleChanged := resolved != n.style
	selfChanged := local != n.localText || post != n.postText || styleChanged || inherited != n.postStyle
	delta := textLen(local) - textLen(n.localText) + textLen(post) - textLen(n.postText)
	n.localText, n.postText = local, post
	n.style, n.postStyle = resolved, inherited
	n.adjustLength(delta)

	incremental := fire && !deep
	dirty := selfChanged
	if incremental && selfChanged {
		d.fire(n, EventUpdated, false)
		n.commit()
	}

	children := d.resolve(value)
	if children != n.childSource {
		n.subscribe(children)
		var items []any
		if children != nil {
			items = children.Snapshot()
		}
		if n.reconcile(items, incremental, deep) {
			dirty = true
		}
	} else if deep || styleChanged {
		for _, child := range slices.Clone(n.children) {
			if child.changed(child.value, incremental, deep) {
				dirty = true
			}
		}
	}

	if fire && deep && dirty {
		d.fire(n, EventUpdated, true)
		n.commitTree()
	}
	return dirty
}

// childrenChanged reconciles against the current content of the child
// collection after it reported a change.
func (n *Node) childrenChanged() {
	if n.childSource == nil {
		return
	}
	n.reconcile(n.childSource.Snapshot(), true, false)
}

// subscribe releases the subscription to the previous child collection
// and listens to children, if any.
func (n *Node) subscribe(children source.Children) {
	if n.sourceScope != nil {
		n.sourceScope.Dispose()
		n.sourceScope = nil
	}
	n.childSource = children
	if children == nil {
		return
	}
	scope := n.scope.Child()
	n.sourceScope = scope
	d := n.doc
	scope.OnDispose(children.AddListener(func() {
		d.loop.Dispatch(func() {
			if scope.IsDisposed() {
				return
			}
			d.runPass("mirror.childrenChanged", n.childrenChanged)
		})
	}))
}

func (n *Node) adjustLength(delta int) {
	if delta == 0 {
		return
	}
	for p := n; p != nil; p = p.parent {
		p.length += delta
	}
}

// commit records the node's own state as delivered.
func (n *Node) commit() {
	n.previousText = n.localText
	n.previousPostText = n.postText
	n.previousStyle = n.style
	n.previousPostStyle = n.postStyle
	n.previousLength = n.length
}

// commitTree records the whole subtree as delivered.
func (n *Node) commitTree() {
	n.commit()
	n.restructured = false
	for _, child := range n.children {
		child.commitTree()
	}
}

// commitLengths records the delivered length of n and its ancestors.
func (n *Node) commitLengths() {
	for p := n; p != nil; p = p.parent {
		p.previousLength = p.length
	}
}

func (n *Node) flatten(b []byte) []byte {
	b = append(b, n.localText...)
	for _, child := range n.children {
		b = child.flatten(b)
	}
	return append(b, n.postText...)
}

// nodeAt returns the deepest node whose own text covers offset, which is
// relative to n's start.
func (n *Node) nodeAt(offset int) *Node {
	pos := textLen(n.localText)
	if offset < pos {
		return n
	}
	for _, child := range n.children {
		if offset < pos+child.length {
			return child.nodeAt(offset - pos)
		}
		pos += child.length
	}
	return n
}
