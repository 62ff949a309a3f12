package style

import (
	"fmt"

	"golang.org/x/image/font"
)

const defaultFontSize = 12

// Font is a fully resolved font description.
type Font struct {
	Family string
	Size   float64
	Weight font.Weight
	Style  font.Style
}

// DefaultFont is the font a document starts from before any derivation.
var DefaultFont = Font{Family: "sans-serif", Size: defaultFontSize, Weight: font.WeightNormal, Style: font.StyleNormal}

func (f Font) String() string {
	style := "normal"
	switch f.Style {
	case font.StyleItalic:
		style = "italic"
	case font.StyleOblique:
		style = "oblique"
	}
	return fmt.Sprintf("%s %.1f w%d %s", f.Family, f.Size, int(f.Weight), style)
}

// fontFields records which FontSpec fields carry a value. Weight and Style
// use zero for "normal", so presence cannot be inferred from the value.
type fontFields uint8

const (
	fieldWeight fontFields = 1 << iota
	fieldStyle
)

// FontSpec is a font derivation: applied to a Font it overrides or scales
// selected attributes. The zero FontSpec is the identity derivation.
//
// FontSpec is comparable, so two styles can be tested for equality with ==.
type FontSpec struct {
	family string
	size   float64
	scale  float64
	weight font.Weight
	style  font.Style
	set    fontFields
}

// Family returns a copy that sets the font family.
func (s FontSpec) Family(name string) FontSpec {
	s.family = name
	return s
}

// Size returns a copy that sets an absolute size. Any scale applied before
// this derivation is discarded.
func (s FontSpec) Size(size float64) FontSpec {
	s.size = size
	s.scale = 0
	return s
}

// Scale returns a copy that multiplies the size by factor.
func (s FontSpec) Scale(factor float64) FontSpec {
	if s.scale == 0 {
		s.scale = factor
	} else {
		s.scale *= factor
	}
	return s
}

// Weight returns a copy that sets the weight.
func (s FontSpec) Weight(w font.Weight) FontSpec {
	s.weight = w
	s.set |= fieldWeight
	return s
}

// Bold is shorthand for Weight(font.WeightBold).
func (s FontSpec) Bold() FontSpec {
	return s.Weight(font.WeightBold)
}

// Italic returns a copy that selects the italic style.
func (s FontSpec) Italic() FontSpec {
	s.style = font.StyleItalic
	s.set |= fieldStyle
	return s
}

// IsZero reports whether s leaves every font unchanged.
func (s FontSpec) IsZero() bool {
	return s == FontSpec{}
}

// Apply derives a new font from f.
func (s FontSpec) Apply(f Font) Font {
	if s.family != "" {
		f.Family = s.family
	}
	if s.size > 0 {
		f.Size = s.size
	}
	if s.scale > 0 {
		f.Size *= s.scale
	}
	if s.set&fieldWeight != 0 {
		f.Weight = s.weight
	}
	if s.set&fieldStyle != 0 {
		f.Style = s.style
	}
	return f
}

// Then composes two derivations: s.Then(next).Apply(f) equals
// next.Apply(s.Apply(f)) for every f.
func (s FontSpec) Then(next FontSpec) FontSpec {
	out := s
	if next.family != "" {
		out.family = next.family
	}
	if next.size > 0 {
		out.size = next.size
		out.scale = next.scale
	} else if next.scale > 0 {
		if out.scale == 0 {
			out.scale = next.scale
		} else {
			out.scale *= next.scale
		}
	}
	if next.set&fieldWeight != 0 {
		out.weight = next.weight
	}
	if next.set&fieldStyle != 0 {
		out.style = next.style
	}
	out.set |= next.set
	return out
}
