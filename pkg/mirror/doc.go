// Package mirror keeps a flat, styled text in step with a tree of source
// values.
//
// A Document derives one Node per source value. Each node contributes its
// local text, then the text of its children, then its post text, so the
// concatenation over the tree is the document. When the source reports a
// change, the document reconciles only the affected part of the tree and
// reports what moved as a sequence of Events carrying rune offsets.
//
// Synchronize attaches a TextBuffer and replays those events into it as
// minimal Insert, Remove and SetStyle calls:
//
//	loop := core.NewLoop()
//	doc, err := mirror.New(root, mirror.Options{Loop: loop, Children: resolve})
//	if err != nil {
//		return err
//	}
//	sync, err := mirror.Synchronize(doc, buf)
//	...
//	loop.Drain() // apply queued source changes
//
// All document work happens on the document's core.Loop. Source changes
// may arrive from any goroutine; they are queued and applied in order, one
// mutation pass each.
package mirror
