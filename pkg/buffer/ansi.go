package buffer

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"golang.org/x/image/font"

	"github.com/go-drift/docmirror/pkg/style"
)

const sgrReset = "\x1b[0m"

// WriteANSI writes runs to w. With color set each styled run is wrapped in
// 24-bit SGR sequences for its colors, weight and slant; otherwise the
// plain text is written.
func WriteANSI(w io.Writer, runs []Run, color bool) error {
	bw := bufio.NewWriter(w)
	for _, r := range runs {
		seq := ""
		if color {
			seq = sgr(r.Style)
		}
		if seq != "" {
			bw.WriteString(seq)
		}
		bw.WriteString(r.Text)
		if seq != "" {
			bw.WriteString(sgrReset)
		}
	}
	return bw.Flush()
}

func sgr(st style.Style) string {
	var codes []string
	f := st.ResolveFont(style.DefaultFont)
	if f.Weight >= font.WeightSemiBold {
		codes = append(codes, "1")
	}
	if f.Style != font.StyleNormal {
		codes = append(codes, "3")
	}
	if st.Foreground.IsSet() {
		r, g, b, _ := st.Foreground.Components()
		codes = append(codes, "38;2;"+rgb(r, g, b))
	}
	if st.Background.IsSet() {
		r, g, b, _ := st.Background.Components()
		codes = append(codes, "48;2;"+rgb(r, g, b))
	}
	if len(codes) == 0 {
		return ""
	}
	return "\x1b[" + strings.Join(codes, ";") + "m"
}

func rgb(r, g, b uint8) string {
	return strconv.Itoa(int(r)) + ";" + strconv.Itoa(int(g)) + ";" + strconv.Itoa(int(b))
}
