package mirror

import (
	"github.com/golang/glog"

	"github.com/go-drift/docmirror/pkg/errors"
	"github.com/go-drift/docmirror/pkg/style"
)

// TextBuffer is an external, rune-addressed styled text buffer. Every
// method applies immediately; an error means the buffer and the document
// disagree and is never retried.
type TextBuffer interface {
	Insert(offset int, text string, st style.Style) error
	Remove(offset, length int) error
	SetStyle(offset, length int, st style.Style) error
}

// Sync replays a Document into a TextBuffer: one full render when
// attached, then one buffer edit sequence per event.
type Sync struct {
	doc    *Document
	buf    TextBuffer
	remove func()
}

// Synchronize renders doc into buf, which must be empty, and keeps it in
// step with every later pass. It must run on the document's loop.
func Synchronize(doc *Document, buf TextBuffer) (*Sync, error) {
	if doc.closed {
		return nil, ErrClosed
	}
	s := &Sync{doc: doc, buf: buf}
	if _, err := s.render(doc.root, 0); err != nil {
		return nil, &errors.MirrorError{Op: "mirror.Synchronize", Kind: errors.KindBuffer, Err: err, Offset: 0}
	}
	s.remove = doc.AddListener(s.apply)
	glog.V(1).Infof("[sync] attached, %d runes rendered", doc.root.length)
	return s, nil
}

// Close detaches the buffer from the document.
func (s *Sync) Close() {
	if s.remove != nil {
		s.remove()
		s.remove = nil
	}
}

func (s *Sync) apply(ev Event) error {
	var err error
	switch ev.Kind {
	case EventAdded:
		_, err = s.render(ev.Node, ev.Start)
	case EventRemoved:
		err = s.removeSpan(ev.Node, ev.Start)
	case EventUpdated:
		if ev.Deep {
			_, err = s.replayDeep(ev.Node, ev.Start)
		} else {
			err = s.replaySelf(ev.Node, ev.Start)
		}
	}
	if err != nil {
		return &errors.MirrorError{Op: "mirror.Sync." + ev.Kind.String(), Kind: errors.KindBuffer, Err: err, Offset: ev.Start}
	}
	return nil
}

// render inserts n's whole span at offset and returns its length.
func (s *Sync) render(n *Node, offset int) (int, error) {
	pos := offset
	if err := s.insert(pos, n.localText, n.style); err != nil {
		return 0, err
	}
	pos += textLen(n.localText)
	for _, child := range n.children {
		l, err := s.render(child, pos)
		if err != nil {
			return 0, err
		}
		pos += l
	}
	if err := s.insert(pos, n.postText, n.postStyle); err != nil {
		return 0, err
	}
	pos += textLen(n.postText)
	return pos - offset, nil
}

// removeSpan deletes a removed node's remaining text. Its children are
// already gone, so the span is the previous local text followed by the
// previous post text; the tail goes first so both offsets hold.
func (s *Sync) removeSpan(n *Node, offset int) error {
	local := textLen(n.previousText)
	if post := textLen(n.previousPostText); post > 0 {
		if err := s.buf.Remove(offset+local, post); err != nil {
			return err
		}
	}
	if local > 0 {
		return s.buf.Remove(offset, local)
	}
	return nil
}

// replaySelf applies a shallow update. The children are untouched at this
// point, so their current lengths are what the buffer holds.
func (s *Sync) replaySelf(n *Node, offset int) error {
	children := n.length - textLen(n.localText) - textLen(n.postText)
	if err := s.replayText(offset, n.previousText, n.localText, n.previousStyle, n.style); err != nil {
		return err
	}
	post := offset + textLen(n.localText) + children
	return s.replayText(post, n.previousPostText, n.postText, n.previousPostStyle, n.postStyle)
}

// replayDeep applies a deep update to n and its subtree and returns the
// new length of n's span.
func (s *Sync) replayDeep(n *Node, offset int) (int, error) {
	if n.restructured {
		if n.previousLength > 0 {
			if err := s.buf.Remove(offset, n.previousLength); err != nil {
				return 0, err
			}
		}
		return s.render(n, offset)
	}
	if err := s.replayText(offset, n.previousText, n.localText, n.previousStyle, n.style); err != nil {
		return 0, err
	}
	pos := offset + textLen(n.localText)
	for _, child := range n.children {
		l, err := s.replayDeep(child, pos)
		if err != nil {
			return 0, err
		}
		pos += l
	}
	if err := s.replayText(pos, n.previousPostText, n.postText, n.previousPostStyle, n.postStyle); err != nil {
		return 0, err
	}
	return pos + textLen(n.postText) - offset, nil
}

// replayText turns prev into cur at offset. Unchanged text only gets its
// style reapplied, and only when the style moved.
func (s *Sync) replayText(offset int, prev, cur string, prevStyle, curStyle style.Style) error {
	if prev == cur {
		if prevStyle != curStyle && cur != "" {
			return s.buf.SetStyle(offset, textLen(cur), curStyle)
		}
		return nil
	}
	if l := textLen(prev); l > 0 {
		if err := s.buf.Remove(offset, l); err != nil {
			return err
		}
	}
	return s.insert(offset, cur, curStyle)
}

func (s *Sync) insert(offset int, text string, st style.Style) error {
	if text == "" {
		return nil
	}
	return s.buf.Insert(offset, text, st)
}
