package mirror

import (
	"fmt"

	"github.com/go-drift/docmirror/pkg/errors"
)

// Verify walks the node tree and checks its bookkeeping: every node's
// length equals its own text plus its children's lengths, each child
// starts where its previous sibling ends, parent links are consistent,
// and the index holds exactly the live nodes. It is meant
// for tests and debugging and costs a full traversal.
func (d *Document) Verify() error {
	if d.closed {
		return ErrClosed
	}
	count := 0
	if err := d.verifyNode(d.root, nil, 0, &count); err != nil {
		return errors.New("mirror.Verify", errors.KindUnknown, err)
	}
	if count != d.index.len() {
		return errors.New("mirror.Verify", errors.KindUnknown,
			fmt.Errorf("index holds %d entries for %d nodes", d.index.len(), count))
	}
	return nil
}

// verifyNode checks n, expected to start at start, and its subtree.
func (d *Document) verifyNode(n, parent *Node, start int, count *int) error {
	*count++
	if n.parent != parent {
		return fmt.Errorf("node %v: parent link broken", n.value)
	}
	if got := n.Start(); got != start {
		return fmt.Errorf("node %v: starts at %d, previous sibling ends at %d", n.value, got, start)
	}
	if !n.registered || !d.index.contains(n.value, n) {
		return fmt.Errorf("node %v: missing from index", n.value)
	}
	want := textLen(n.localText) + textLen(n.postText)
	pos := start + textLen(n.localText)
	for _, child := range n.children {
		if err := d.verifyNode(child, n, pos, count); err != nil {
			return err
		}
		pos += child.length
		want += child.length
	}
	if n.length != want {
		return fmt.Errorf("node %v: length %d, content %d", n.value, n.length, want)
	}
	return nil
}
