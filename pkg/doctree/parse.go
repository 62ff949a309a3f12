package doctree

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-drift/docmirror/pkg/errors"
)

// Supported reports whether ParseFile handles path's extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".html", ".htm":
		return true
	}
	return false
}

// ParseFile reads and parses a Markdown or HTML file, chosen by
// extension. The root title defaults to the file name without extension.
func ParseFile(path string) (*Section, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("doctree.ParseFile", errors.KindSource, err)
	}
	return Parse(data, path)
}

// Parse parses data as the document named name.
func Parse(data []byte, name string) (*Section, error) {
	ext := strings.ToLower(filepath.Ext(name))
	title := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	switch ext {
	case ".md", ".markdown":
		return ParseMarkdown(data, title), nil
	case ".html", ".htm":
		s, err := ParseHTML(bytes.NewReader(data), title)
		if err != nil {
			return nil, errors.New("doctree.Parse", errors.KindSource, err)
		}
		return s, nil
	default:
		return nil, errors.New("doctree.Parse", errors.KindSource, fmt.Errorf("unsupported file extension %q", ext))
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
