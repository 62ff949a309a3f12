package mirror

import "slices"

// reconcile brings n's child list in line with items, walking both from
// the front. Matching pairs are kept and refreshed. On a mismatch a
// bounded look-ahead decides between inserting the new item and dropping
// the old node; when both are found ahead, the cheaper side wins and ties
// keep the old node. Moves beyond the window become a drop plus a create.
// Returns whether anything visible changed.
func (n *Node) reconcile(items []any, fire, deep bool) bool {
	d := n.doc
	dirty, structural := false, false
	i, j := 0, 0
	for i < len(n.children) || j < len(items) {
		switch {
		case i >= len(n.children):
			n.insertChild(i, items[j], fire)
			i, j = i+1, j+1
			structural = true

		case j >= len(items):
			n.children[i].drop(fire)
			structural = true

		case d.equal(n.children[i].value, items[j]):
			if n.children[i].changed(items[j], fire, deep) {
				dirty = true
			}
			i, j = i+1, j+1

		default:
			ahead := d.findNode(n.children, i+1, items[j])
			behind := d.findItem(items, j+1, n.children[i].value)
			switch {
			case behind < 0, ahead >= 0 && ahead < behind:
				n.children[i].drop(fire)
			default:
				n.insertChild(i, items[j], fire)
				i, j = i+1, j+1
			}
			structural = true
		}
	}
	if structural && !fire {
		n.restructured = true
	}
	return dirty || structural
}

// findNode returns the distance from start to the first node mirroring
// value within the look-ahead window, or -1.
func (d *Document) findNode(nodes []*Node, start int, value any) int {
	end := min(len(nodes), start+d.opts.LookAhead)
	for k := start; k < end; k++ {
		if d.equal(nodes[k].value, value) {
			return k - start
		}
	}
	return -1
}

// findItem returns the distance from start to the first item equal to
// value within the look-ahead window, or -1.
func (d *Document) findItem(items []any, start int, value any) int {
	end := min(len(items), start+d.opts.LookAhead)
	for k := start; k < end; k++ {
		if d.equal(value, items[k]) {
			return k - start
		}
	}
	return -1
}

// insertChild creates a node for value at position i, building its whole
// subtree silently, and reports it as one added event.
func (n *Node) insertChild(i int, value any, fire bool) *Node {
	d := n.doc
	child := &Node{
		doc:    d,
		parent: n,
		depth:  n.depth + 1,
		scope:  n.scope.Child(),
	}
	n.children = slices.Insert(n.children, i, child)
	child.changed(value, false, false)
	if fire {
		d.fire(child, EventAdded, false)
		child.commitTree()
	}
	return child
}

// drop removes n and its subtree. Children go first, left to right, each
// reported on its own, then n itself.
func (n *Node) drop(fire bool) {
	d := n.doc
	for len(n.children) > 0 {
		n.children[0].drop(fire)
	}
	if fire {
		d.fire(n, EventRemoved, false)
	}

	parent := n.parent
	n.adjustLength(-n.length)
	if parent != nil {
		if i := slices.Index(parent.children, n); i >= 0 {
			parent.children = slices.Delete(parent.children, i, i+1)
		}
		if fire {
			parent.commitLengths()
		}
	}
	if n.registered {
		d.index.remove(n.value, n)
		n.registered = false
	}
	n.childSource = nil
	n.sourceScope = nil
	n.scope.Dispose()
}
