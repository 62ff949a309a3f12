package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"

	"github.com/go-drift/docmirror/cmd/docmirror/internal/config"
	"github.com/go-drift/docmirror/pkg/buffer"
	"github.com/go-drift/docmirror/pkg/core"
	"github.com/go-drift/docmirror/pkg/doctree"
	"github.com/go-drift/docmirror/pkg/mirror"
	"github.com/go-drift/docmirror/pkg/source"
)

// session is one parsed file mirrored into a styled buffer. Everything
// except path and cfg is confined to loop.
type session struct {
	path string
	cfg  *config.Resolved
	loop *core.Loop

	root *source.Value[*doctree.Section]
	doc  *mirror.Document
	buf  *buffer.Buffer
	sync *mirror.Sync
}

// openSession parses path and builds its document. The caller drains or
// runs loop; openSession itself must run on the goroutine that owns it.
func openSession(path, configPath string, loop *core.Loop) (*session, error) {
	if !doctree.Supported(path) {
		return nil, fmt.Errorf("unsupported file type %q (want .md, .markdown, .html or .htm)", filepath.Ext(path))
	}
	cfg, err := config.ResolveFor(path, configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	tree, err := doctree.ParseFile(path)
	if err != nil {
		return nil, err
	}

	s := &session{
		path: path,
		cfg:  cfg,
		loop: loop,
		root: source.NewValue(tree),
		buf:  buffer.New(),
	}
	s.doc, err = mirror.New(s.root, documentOptions(cfg, loop))
	if err != nil {
		return nil, err
	}
	s.sync, err = mirror.Synchronize(s.doc, s.buf)
	if err != nil {
		s.doc.Close()
		return nil, err
	}
	glog.Infof("[docmirror] opened %s: %d sections, %d runes", path, tree.Count(), s.doc.Len())
	return s, nil
}

// documentOptions maps resolved configuration onto mirror options.
func documentOptions(cfg *config.Resolved, loop *core.Loop) mirror.Options {
	opts := mirror.Options{
		Format:     doctree.Format,
		PostFormat: doctree.PostFormat,
		Children:   doctree.ChildrenOf,
		Style:      doctree.StyleFor,
		LookAhead:  cfg.LookAhead,
		Normalize:  cfg.Normalize,
		BaseStyle:  cfg.BaseStyle,
		Loop:       loop,
	}
	if cfg.Structural {
		opts.Equal = doctree.Equal
	}
	return opts
}

// reload re-parses the file and applies it to the live tree. In
// structural mode the new tree replaces the root and reconciliation
// matches sections by level and title; otherwise the new tree is merged
// into the existing sections and the ones whose text changed are
// refreshed. Must run on the session's loop.
func (s *session) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	tree, err := doctree.Parse(data, s.path)
	if err != nil {
		return err
	}

	if s.cfg.Structural {
		s.root.Set(tree)
		return s.doc.Err()
	}

	changed := doctree.Merge(s.root.Get(), tree)
	// Merge's list edits are queued; they must land before the refreshes
	// so every changed section already has a node.
	s.loop.Dispatch(func() {
		for _, sec := range changed {
			if err := s.doc.Refresh(sec); err != nil {
				glog.Warningf("[docmirror] refresh %s: %v", sec, err)
			}
		}
	})
	return s.doc.Err()
}

// close detaches the buffer and the document.
func (s *session) close() {
	s.sync.Close()
	s.doc.Close()
}

// logEvents traces every change event and each finished pass.
func (s *session) logEvents() func() {
	removeEvents := s.doc.AddListener(func(ev mirror.Event) error {
		glog.V(1).Infof("[docmirror] %s %v", ev, describe(ev.Node))
		return nil
	})
	removePasses := s.doc.AddPassListener(func(cause ulid.ULID) {
		glog.Infof("[docmirror] pass %s: %d runes, %d nodes", cause, s.doc.Len(), s.doc.IndexLen())
	})
	return func() {
		removeEvents()
		removePasses()
	}
}

func describe(n *mirror.Node) string {
	if sec, ok := n.Value().(*doctree.Section); ok {
		return sec.String()
	}
	return strings.TrimSpace(n.LocalText())
}
