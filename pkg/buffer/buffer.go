// Package buffer provides an in-memory styled text buffer addressed in
// runes, a recording wrapper for any text buffer, and an ANSI renderer.
package buffer

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-drift/docmirror/pkg/style"
)

// ErrOutOfRange indicates an offset or length outside the buffer.
var ErrOutOfRange = errors.New("buffer: range out of bounds")

// Run is a maximal stretch of text sharing one style.
type Run struct {
	Text  string
	Style style.Style
}

// Len returns the run length in runes.
func (r Run) Len() int { return utf8.RuneCountInString(r.Text) }

type run struct {
	text  []rune
	style style.Style
}

// Buffer is a styled rune buffer kept as a list of runs. Adjacent runs with
// equal styles are merged after every edit. The zero value is an empty
// buffer. Buffer is not safe for concurrent use.
type Buffer struct {
	runs   []run
	length int
}

// New returns an empty buffer.
func New() *Buffer { return &Buffer{} }

// Len returns the length in runes.
func (b *Buffer) Len() int { return b.length }

// Text returns the buffer contents.
func (b *Buffer) Text() string {
	var sb strings.Builder
	for _, r := range b.runs {
		sb.WriteString(string(r.text))
	}
	return sb.String()
}

// Runs returns a copy of the styled runs in order.
func (b *Buffer) Runs() []Run {
	out := make([]Run, len(b.runs))
	for i, r := range b.runs {
		out[i] = Run{Text: string(r.text), Style: r.style}
	}
	return out
}

// StyleAt returns the style of the rune at offset.
func (b *Buffer) StyleAt(offset int) (style.Style, error) {
	if offset < 0 || offset >= b.length {
		return style.Style{}, rangeError("style", offset, 1, b.length)
	}
	i, _ := b.split(offset)
	return b.runs[i].style, nil
}

// Insert places text at offset with st.
func (b *Buffer) Insert(offset int, text string, st style.Style) error {
	if offset < 0 || offset > b.length {
		return rangeError("insert", offset, 0, b.length)
	}
	if text == "" {
		return nil
	}
	i, _ := b.split(offset)
	r := run{text: []rune(text), style: st}
	b.runs = append(b.runs[:i], append([]run{r}, b.runs[i:]...)...)
	b.length += len(r.text)
	b.coalesce()
	return nil
}

// Remove deletes length runes starting at offset.
func (b *Buffer) Remove(offset, length int) error {
	if offset < 0 || length < 0 || offset+length > b.length {
		return rangeError("remove", offset, length, b.length)
	}
	if length == 0 {
		return nil
	}
	from, _ := b.split(offset)
	to, _ := b.split(offset + length)
	b.runs = append(b.runs[:from], b.runs[to:]...)
	b.length -= length
	b.coalesce()
	return nil
}

// SetStyle replaces the style of length runes starting at offset.
func (b *Buffer) SetStyle(offset, length int, st style.Style) error {
	if offset < 0 || length < 0 || offset+length > b.length {
		return rangeError("style", offset, length, b.length)
	}
	if length == 0 {
		return nil
	}
	from, _ := b.split(offset)
	to, _ := b.split(offset + length)
	for i := from; i < to; i++ {
		b.runs[i].style = st
	}
	b.coalesce()
	return nil
}

// split makes offset a run boundary and returns the index of the run
// starting there (len(runs) at the end) and whether a split happened.
func (b *Buffer) split(offset int) (int, bool) {
	pos := 0
	for i, r := range b.runs {
		if offset == pos {
			return i, false
		}
		if offset < pos+len(r.text) {
			cut := offset - pos
			head := run{text: r.text[:cut:cut], style: r.style}
			tail := run{text: r.text[cut:], style: r.style}
			b.runs = append(b.runs[:i], append([]run{head, tail}, b.runs[i+1:]...)...)
			return i + 1, true
		}
		pos += len(r.text)
	}
	return len(b.runs), false
}

func (b *Buffer) coalesce() {
	if len(b.runs) < 2 {
		return
	}
	out := b.runs[:1]
	for _, r := range b.runs[1:] {
		last := &out[len(out)-1]
		if last.style == r.style {
			last.text = append(last.text[:len(last.text):len(last.text)], r.text...)
			continue
		}
		out = append(out, r)
	}
	b.runs = out
}

func rangeError(op string, offset, length, size int) error {
	return fmt.Errorf("%w: %s at %d+%d, length %d", ErrOutOfRange, op, offset, length, size)
}
