package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-drift/docmirror/pkg/core"
	"github.com/go-drift/docmirror/pkg/doctree"
)

const sample = "# One\n\nfirst\n\n# Two\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var out bytes.Buffer
	prevOut, prevErr := stdout, stderr
	stdout, stderr = &out, &out
	t.Cleanup(func() { stdout, stderr = prevOut, prevErr })
	return &out
}

func TestRun_Dispatch(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{"no args", nil, "Commands:", false},
		{"help", []string{"--help"}, "render", false},
		{"version", []string{"version"}, "docmirror version " + Version, false},
		{"command help", []string{"watch", "-h"}, "docmirror watch [--config=<path>]", false},
		{"unknown", []string{"frobnicate"}, `unknown command "frobnicate"`, true},
		{"missing file", []string{"render"}, "", true},
		{"bad color", []string{"render", "--color=sometimes", "x.md"}, "", true},
		{"unsupported type", []string{"render", "notes.txt"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureOutput(t)
			err := run(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("run(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output %q does not contain %q", out.String(), tt.want)
			}
		})
	}
}

func TestUsageSection(t *testing.T) {
	doc := "Usage:\n  prog a <x>\n\nOptions:\n  --y  Why."
	if got, want := usageSection(doc), "Usage:\n  prog a <x>"; got != want {
		t.Errorf("usageSection = %q, want %q", got, want)
	}
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	writeFile(t, path, sample)

	out := captureOutput(t)
	if err := run([]string{"render", "--color=never", "--check", path}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if got, want := out.String(), "notes\n# One\nfirst\n\n# Two\n\n"; got != want {
		t.Errorf("render output = %q, want %q", got, want)
	}
}

func TestRender_Color(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	writeFile(t, path, "<html><body><h1>Intro</h1><p>Hello</p></body></html>")

	out := captureOutput(t)
	if err := run([]string{"render", "--color=always", path}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out.String(), "\x1b[") {
		t.Errorf("expected SGR sequences in %q", out.String())
	}
	if !strings.Contains(out.String(), "Hello") {
		t.Errorf("expected body text in %q", out.String())
	}
}

func TestRender_ConfigError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	writeFile(t, path, sample)
	writeFile(t, filepath.Join(dir, "docmirror.yaml"), "version: v2.0.0\n")

	captureOutput(t)
	err := run([]string{"render", path})
	if err == nil || !strings.Contains(err.Error(), "unsupported config version") {
		t.Fatalf("expected config version error, got %v", err)
	}
}

func TestSessionReload(t *testing.T) {
	tests := []struct {
		name     string
		config   string
		keepsIDs bool
	}{
		{"structural", "", false},
		{"identity", "document:\n  equality: identity\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "notes.md")
			writeFile(t, path, sample)
			if tt.config != "" {
				writeFile(t, filepath.Join(dir, "docmirror.yaml"), tt.config)
			}

			loop := core.NewLoop()
			s, err := openSession(path, "", loop)
			if err != nil {
				t.Fatal(err)
			}
			defer s.close()
			loop.Drain()
			one := s.root.Get().Children.At(0)

			writeFile(t, path, "# One\n\nchanged\n\n# Two\n\n## Sub\n")
			if err := s.reload(); err != nil {
				t.Fatalf("reload: %v", err)
			}
			loop.Drain()

			if err := checkSession(s); err != nil {
				t.Fatal(err)
			}
			if got, want := s.buf.Text(), "notes\n# One\nchanged\n\n# Two\n## Sub\n\n"; got != want {
				t.Errorf("buffer = %q, want %q", got, want)
			}
			kept := s.root.Get().Children.At(0) == one
			if kept != tt.keepsIDs {
				t.Errorf("first section kept = %v, want %v", kept, tt.keepsIDs)
			}
			if n := s.doc.NodeFor(s.root.Get().Children.At(0)); n == nil || n.LocalText() != "# One\nchanged\n" {
				t.Errorf("node for first section not current: %v", n)
			}
		})
	}
}

func TestDocumentOptions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	writeFile(t, path, sample)
	writeFile(t, filepath.Join(dir, "docmirror.yaml"), "document:\n  lookahead: 3\nstyle:\n  background: \"#000000\"\n")

	loop := core.NewLoop()
	s, err := openSession(path, "", loop)
	if err != nil {
		t.Fatal(err)
	}
	defer s.close()

	if s.cfg.LookAhead != 3 {
		t.Errorf("LookAhead = %d, want 3", s.cfg.LookAhead)
	}
	root := s.doc.Root()
	if !root.Style().Background.IsSet() {
		t.Errorf("root style %v does not inherit the configured background", root.Style())
	}
	if _, ok := root.Value().(*doctree.Section); !ok {
		t.Errorf("root value is %T", root.Value())
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	writeFile(t, path, sample)

	w := &watcher{path: path, interval: 5 * time.Millisecond, loop: core.NewLoop()}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan *session, 1)
	done := make(chan error, 1)
	go func() {
		done <- w.run(ctx, func(s *session) error {
			ready <- s
			return nil
		})
	}()

	var s *session
	select {
	case s = <-ready:
	case err := <-done:
		t.Fatalf("watcher stopped early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not start")
	}

	writeFile(t, path, sample+"\n# Three\n")

	deadline := time.Now().Add(5 * time.Second)
	for {
		var text string
		if err := w.loop.Call(ctx, func() { text = s.buf.Text() }); err != nil {
			t.Fatal(err)
		}
		if strings.HasSuffix(text, "# Three\n\n") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("buffer never picked up the edit: %q", text)
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
