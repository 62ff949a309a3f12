package mirror

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// EventKind is the kind of node-level mutation an Event describes.
type EventKind int

const (
	// EventAdded reports a node (with its whole subtree) inserted into its
	// parent's child list.
	EventAdded EventKind = iota
	// EventRemoved reports a node removed from its parent. Its children
	// have already been removed, each with its own event.
	EventRemoved
	// EventUpdated reports a change of a node's text or style. A deep
	// update also covers every descendant of the node.
	EventUpdated
)

func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	case EventUpdated:
		return "updated"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event describes one node-level mutation. Start is the node's offset in
// the flattened text at the moment the event fired; consumers must apply
// the event before returning so later offsets stay valid.
type Event struct {
	Node *Node
	Kind EventKind
	// Deep is set on updates that also changed descendants without
	// firing individual events for them.
	Deep  bool
	Start int
	// Cause is shared by every event of one mutation pass.
	Cause ulid.ULID
}

func (e Event) String() string {
	deep := ""
	if e.Deep {
		deep = " deep"
	}
	return fmt.Sprintf("%s%s start=%d len=%d depth=%d cause=%s", e.Kind, deep, e.Start, e.Node.Len(), e.Node.Depth(), e.Cause)
}

// Listener consumes events. A non-nil error aborts the mutation pass and
// poisons the document.
type Listener func(Event) error
