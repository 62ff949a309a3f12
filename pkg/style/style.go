// Package style provides the style descriptor attached to document text runs.
//
// A Style is a small value type. Zero-valued fields mean "inherit": when a
// style is cascaded over its parent, every unset field takes the parent's
// value, colors and alignments set on the child win, and font derivations
// are composed parent first.
//
//	heading := style.Style{}.
//	    WithForeground(style.ColorBlue).
//	    WithFont(style.FontSpec{}.Bold().Scale(1.5))
//	resolved := heading.Cascade(parent)
//
// Builder methods return copies, so a Style can be shared freely once it is
// attached to a node.
package style

import (
	"fmt"
	"strings"
)

// HAlign is a horizontal alignment. The zero value means "inherit".
type HAlign int

const (
	hAlignUnset HAlign = iota
	HAlignLeft
	HAlignCenter
	HAlignRight
	HAlignJustify
)

func (a HAlign) String() string {
	switch a {
	case hAlignUnset:
		return "unset"
	case HAlignLeft:
		return "left"
	case HAlignCenter:
		return "center"
	case HAlignRight:
		return "right"
	case HAlignJustify:
		return "justify"
	default:
		return fmt.Sprintf("HAlign(%d)", int(a))
	}
}

// VAlign is a vertical alignment. The zero value means "inherit".
type VAlign int

const (
	vAlignUnset VAlign = iota
	VAlignTop
	VAlignMiddle
	VAlignBottom
)

func (a VAlign) String() string {
	switch a {
	case vAlignUnset:
		return "unset"
	case VAlignTop:
		return "top"
	case VAlignMiddle:
		return "middle"
	case VAlignBottom:
		return "bottom"
	default:
		return fmt.Sprintf("VAlign(%d)", int(a))
	}
}

// Style is a font, color and alignment overlay.
type Style struct {
	Foreground Color
	Background Color
	Font       FontSpec
	HAlign     HAlign
	VAlign     VAlign
}

// WithForeground returns a copy with the text color set.
func (s Style) WithForeground(c Color) Style {
	s.Foreground = c
	return s
}

// WithBackground returns a copy with the background color set.
func (s Style) WithBackground(c Color) Style {
	s.Background = c
	return s
}

// WithFont returns a copy whose font derivation is followed by spec.
func (s Style) WithFont(spec FontSpec) Style {
	s.Font = s.Font.Then(spec)
	return s
}

// WithAlign returns a copy with both alignments set. Pass the zero value
// for an axis to leave it inherited.
func (s Style) WithAlign(h HAlign, v VAlign) Style {
	if h != hAlignUnset {
		s.HAlign = h
	}
	if v != vAlignUnset {
		s.VAlign = v
	}
	return s
}

// Clone returns an independent copy. Style holds no references, so this is
// a plain copy; it exists so cascading code reads the same as the
// descriptor's contract.
func (s Style) Clone() Style {
	return s
}

// Cascade resolves s over parent: fields set on s override, unset fields
// inherit, and parent's font derivation runs before s's.
//
// Cascade is associative: a.Cascade(b.Cascade(c)) == a.Cascade(b).Cascade(c).
func (s Style) Cascade(parent Style) Style {
	out := parent
	if s.Foreground.IsSet() {
		out.Foreground = s.Foreground
	}
	if s.Background.IsSet() {
		out.Background = s.Background
	}
	out.Font = parent.Font.Then(s.Font)
	if s.HAlign != hAlignUnset {
		out.HAlign = s.HAlign
	}
	if s.VAlign != vAlignUnset {
		out.VAlign = s.VAlign
	}
	return out
}

// Equal reports whether two styles are identical.
func (s Style) Equal(other Style) bool {
	return s == other
}

// IsZero reports whether s sets nothing.
func (s Style) IsZero() bool {
	return s == Style{}
}

// ResolveFont applies the style's font derivation to base.
func (s Style) ResolveFont(base Font) Font {
	return s.Font.Apply(base)
}

func (s Style) String() string {
	if s.IsZero() {
		return "style{}"
	}
	var parts []string
	if s.Foreground.IsSet() {
		parts = append(parts, "fg="+s.Foreground.Hex())
	}
	if s.Background.IsSet() {
		parts = append(parts, "bg="+s.Background.Hex())
	}
	if !s.Font.IsZero() {
		parts = append(parts, "font="+s.Font.Apply(DefaultFont).String())
	}
	if s.HAlign != hAlignUnset {
		parts = append(parts, "h="+s.HAlign.String())
	}
	if s.VAlign != vAlignUnset {
		parts = append(parts, "v="+s.VAlign.String())
	}
	return "style{" + strings.Join(parts, " ") + "}"
}
