// Package doctree builds section trees from Markdown and HTML documents
// and supplies the hooks that mirror them into a styled document.
//
// A Section is a heading with its body text and its subsections. Sections
// are pointers and their child lists are source.List values, so a tree can
// be handed to mirror.New as-is and mutated in place afterwards.
package doctree

import (
	"fmt"
	"strings"

	"github.com/go-drift/docmirror/pkg/source"
	"github.com/go-drift/docmirror/pkg/style"
)

// Section is one heading-delimited part of a document. The root section
// has level 0 and carries the document title.
type Section struct {
	Title    string
	Level    int
	Body     string
	Children *source.List[*Section]
}

// NewSection creates a section with the given subsections.
func NewSection(title string, level int, children ...*Section) *Section {
	return &Section{Title: title, Level: level, Children: source.NewList(children...)}
}

func (s *Section) String() string {
	return fmt.Sprintf("h%d %q", s.Level, s.Title)
}

// Walk calls fn for s and every descendant in document order.
func (s *Section) Walk(fn func(*Section)) {
	fn(s)
	for _, c := range s.Children.Items() {
		c.Walk(fn)
	}
}

// Count returns the number of sections in the tree rooted at s.
func (s *Section) Count() int {
	n := 0
	s.Walk(func(*Section) { n++ })
	return n
}

// Format renders a section's heading line and body.
func Format(v any) string {
	s := v.(*Section)
	var b strings.Builder
	if s.Title != "" {
		if s.Level > 0 {
			b.WriteString(strings.Repeat("#", s.Level))
			b.WriteByte(' ')
		}
		b.WriteString(s.Title)
		b.WriteByte('\n')
	}
	if s.Body != "" {
		b.WriteString(s.Body)
		b.WriteByte('\n')
	}
	return b.String()
}

// PostFormat closes top-level sections with a blank line.
func PostFormat(v any) string {
	if v.(*Section).Level == 1 {
		return "\n"
	}
	return ""
}

// ChildrenOf resolves a section's subsections.
func ChildrenOf(v any) source.Children {
	s := v.(*Section)
	if s.Children == nil {
		return nil
	}
	return s.Children
}

// Equal matches sections structurally: same level and title. Use it as
// the document's equality when whole trees are re-parsed and swapped in.
func Equal(a, b any) bool {
	sa, ok := a.(*Section)
	if !ok {
		return false
	}
	sb, ok := b.(*Section)
	if !ok {
		return false
	}
	return sa.Level == sb.Level && sa.Title == sb.Title
}

// Palette colors headings by level. Index 0 is the document title.
var Palette = []style.Color{
	style.RGB(0xE0, 0x6C, 0x75),
	style.RGB(0x61, 0xAF, 0xEF),
	style.RGB(0x98, 0xC3, 0x79),
	style.RGB(0xC6, 0x78, 0xDD),
}

var headingSizes = []float64{22, 18, 15, 13}

// StyleFor styles sections by heading level: colored, bold and sized down
// with depth. Levels past the palette are italic.
func StyleFor(v any, inherited style.Style) style.Style {
	s := v.(*Section)
	if s.Level >= len(Palette) {
		return style.Style{}.WithFont(style.FontSpec{}.Italic()).Cascade(inherited)
	}
	overlay := style.Style{}.
		WithForeground(Palette[s.Level]).
		WithFont(style.FontSpec{}.Size(headingSizes[s.Level]).Bold())
	return overlay.Cascade(inherited)
}

// Merge refreshes dst in place from a freshly parsed src. Subsections are
// matched with Equal and kept by pointer, so a document mirroring dst sees
// list edits instead of a new tree. It returns the sections whose own text
// changed; the caller refreshes those in the document.
func Merge(dst, src *Section) []*Section {
	var changed []*Section
	if dst.Body != src.Body || dst.Title != src.Title {
		dst.Title, dst.Body = src.Title, src.Body
		changed = append(changed, dst)
	}

	current := dst.Children.Items()
	used := make([]bool, len(current))
	next := make([]*Section, 0, src.Children.Len())
	for _, want := range src.Children.Items() {
		match := -1
		for i, have := range current {
			if !used[i] && Equal(have, want) {
				match = i
				break
			}
		}
		if match < 0 {
			next = append(next, want)
			continue
		}
		used[match] = true
		changed = append(changed, Merge(current[match], want)...)
		next = append(next, current[match])
	}

	if !sameSections(current, next) {
		dst.Children.Replace(next...)
	}
	return changed
}

func sameSections(a, b []*Section) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
