package cmd

import (
	"fmt"
	"os"

	"github.com/docopt/docopt-go"
	"golang.org/x/term"

	"github.com/go-drift/docmirror/pkg/buffer"
	"github.com/go-drift/docmirror/pkg/core"
)

func init() {
	RegisterCommand(&Command{
		Name:  "render",
		Short: "Print a document's styled rendering",
		Long: `Parse a Markdown or HTML file, mirror its section tree into a
styled buffer and print the buffer. Headings are coloured by level
when stdout is a terminal.`,
		Usage: `Usage:
  docmirror render [--config=<path>] [--color=<when>] [--check] <file>

Options:
  --config=<path>  Configuration file (default: docmirror.yaml next to <file>).
  --color=<when>   auto, always or never [default: auto].
  --check          Verify document invariants before printing.`,
		Run: runRender,
	})
}

func runRender(opts docopt.Opts) error {
	path := optString(opts, "<file>", "")
	color, err := colorMode(optString(opts, "--color", "auto"))
	if err != nil {
		return err
	}
	check, _ := opts.Bool("--check")

	loop := core.NewLoop()
	defer loop.Close()
	s, err := openSession(path, optString(opts, "--config", ""), loop)
	if err != nil {
		return err
	}
	defer s.close()
	loop.Drain()

	if check {
		if err := checkSession(s); err != nil {
			return err
		}
	}
	return buffer.WriteANSI(stdout, s.buf.Runs(), color)
}

// checkSession verifies the document and that the buffer matches it.
func checkSession(s *session) error {
	if err := s.doc.Err(); err != nil {
		return err
	}
	if err := s.doc.Verify(); err != nil {
		return err
	}
	if got, want := s.buf.Text(), s.doc.Text(); got != want {
		return fmt.Errorf("buffer out of sync: %d runes in buffer, %d in document", s.buf.Len(), s.doc.Len())
	}
	return nil
}

// colorMode resolves --color. "auto" colours only a terminal stdout.
func colorMode(when string) (bool, error) {
	switch when {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		f, ok := stdout.(*os.File)
		return ok && term.IsTerminal(int(f.Fd())), nil
	default:
		return false, fmt.Errorf("--color must be auto, always or never (got %q)", when)
	}
}
