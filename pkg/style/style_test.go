package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
)

func TestColor_Hex(t *testing.T) {
	tests := []struct {
		in   string
		want Color
		hex  string
	}{
		{"#FF0000", RGB(0xFF, 0, 0), "#FF0000"},
		{"00ff00", RGB(0, 0xFF, 0), "#00FF00"},
		{"#80112233", RGBA8(0x11, 0x22, 0x33, 0x80), "#80112233"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseHex(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c)
			assert.Equal(t, tt.hex, c.Hex())
		})
	}

	_, err := ParseHex("#12345")
	assert.Error(t, err)
	_, err = ParseHex("#GGGGGG")
	assert.Error(t, err)
}

func TestColor_Unset(t *testing.T) {
	var c Color
	assert.False(t, c.IsSet())
	assert.Equal(t, "unset", c.String())
	assert.True(t, RGB(0, 0, 0).IsSet(), "opaque black is a value")
}

func TestFontSpec_ThenMatchesSequentialApply(t *testing.T) {
	specs := []FontSpec{
		{},
		FontSpec{}.Bold(),
		FontSpec{}.Scale(1.5),
		FontSpec{}.Size(20),
		FontSpec{}.Italic().Family("serif"),
		FontSpec{}.Size(10).Scale(2),
		FontSpec{}.Weight(font.WeightLight).Scale(0.5),
	}
	for _, a := range specs {
		for _, b := range specs {
			want := b.Apply(a.Apply(DefaultFont))
			assert.Equal(t, want, a.Then(b).Apply(DefaultFont), "a=%+v b=%+v", a, b)
		}
	}
}

func TestFontSpec_Apply(t *testing.T) {
	f := FontSpec{}.Bold().Scale(2).Apply(DefaultFont)
	assert.Equal(t, font.WeightBold, f.Weight)
	assert.Equal(t, 2*DefaultFont.Size, f.Size)
	assert.Equal(t, DefaultFont.Family, f.Family)

	// Size discards an earlier scale.
	f = FontSpec{}.Scale(3).Size(8).Apply(DefaultFont)
	assert.Equal(t, 8.0, f.Size)
}

func TestStyle_Cascade(t *testing.T) {
	parent := Style{}.
		WithForeground(ColorBlack).
		WithBackground(ColorWhite).
		WithFont(FontSpec{}.Scale(2)).
		WithAlign(HAlignCenter, VAlignTop)
	child := Style{}.WithForeground(ColorRed).WithFont(FontSpec{}.Bold())

	got := child.Cascade(parent)
	assert.Equal(t, ColorRed, got.Foreground)
	assert.Equal(t, ColorWhite, got.Background)
	assert.Equal(t, HAlignCenter, got.HAlign)
	assert.Equal(t, VAlignTop, got.VAlign)

	f := got.ResolveFont(DefaultFont)
	assert.Equal(t, font.WeightBold, f.Weight)
	assert.Equal(t, 2*DefaultFont.Size, f.Size)

	assert.Equal(t, parent, Style{}.Cascade(parent), "zero style inherits everything")
}

func TestStyle_CascadeAssociative(t *testing.T) {
	a := Style{}.WithForeground(ColorBlue).WithFont(FontSpec{}.Scale(1.2))
	b := Style{}.WithBackground(ColorGray).WithFont(FontSpec{}.Italic())
	c := Style{}.WithForeground(ColorGreen).WithAlign(HAlignRight, 0).WithFont(FontSpec{}.Size(9))

	assert.Equal(t, a.Cascade(b.Cascade(c)), a.Cascade(b).Cascade(c))
}

func TestStyle_EqualAndClone(t *testing.T) {
	a := Style{}.WithForeground(ColorBlue).WithFont(FontSpec{}.Bold())
	b := a.Clone()
	assert.True(t, a.Equal(b))
	b = b.WithBackground(ColorYellow)
	assert.False(t, a.Equal(b))
	assert.True(t, Style{}.IsZero())
	assert.Equal(t, "style{}", Style{}.String())
	assert.Contains(t, a.String(), "fg=#0000FF")
}
