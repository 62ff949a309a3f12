package doctree

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ParseMarkdown builds a section tree from Markdown. Headings nest by
// level under a root section titled title; the text between headings
// becomes the body of the heading above it.
func ParseMarkdown(src []byte, title string) *Section {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	b := newBuilder(title)
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			b.heading(node.Level, string(node.Text(src)))
		default:
			b.text(extractText(n, src))
		}
	}
	return b.finish()
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	// Paragraph-like blocks carry their text both as Lines and as inline
	// children; read Lines only from leaf blocks such as code.
	if n.Type() == ast.TypeBlock && !n.HasChildren() {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}

// builder nests sections by heading level with a stack. The root is level
// 0, so every heading nests under it.
type builder struct {
	stack   []*Section
	pending []string
	// children collects each open section's subsections; lists are only
	// filled once parsing ends so nothing is notified mid-parse.
	children map[*Section][]*Section
}

func newBuilder(title string) *builder {
	root := NewSection(title, 0)
	return &builder{stack: []*Section{root}, children: map[*Section][]*Section{}}
}

func (b *builder) text(t string) {
	if t != "" {
		b.pending = append(b.pending, t)
	}
}

func (b *builder) flush() {
	if len(b.pending) == 0 {
		return
	}
	top := b.stack[len(b.stack)-1]
	body := strings.Join(b.pending, "\n\n")
	if top.Body != "" {
		top.Body += "\n\n" + body
	} else {
		top.Body = body
	}
	b.pending = b.pending[:0]
}

func (b *builder) heading(level int, title string) {
	b.flush()
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].Level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1]
	s := NewSection(strings.TrimSpace(title), level)
	b.children[parent] = append(b.children[parent], s)
	b.stack = append(b.stack, s)
}

func (b *builder) finish() *Section {
	b.flush()
	for parent, kids := range b.children {
		parent.Children.Replace(kids...)
	}
	return b.stack[0]
}
