package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/golang/glog"

	"github.com/go-drift/docmirror/pkg/core"
)

func init() {
	RegisterCommand(&Command{
		Name:  "watch",
		Short: "Follow a document and log each change",
		Long: `Poll a Markdown or HTML file and apply every saved edit to the
live document. Each re-parse becomes one mutation pass; its change
events are logged (DOCMIRROR_V=1 for per-node events).`,
		Usage: `Usage:
  docmirror watch [--config=<path>] [--interval=<duration>] <file>

Options:
  --config=<path>          Configuration file (default: docmirror.yaml next to <file>).
  --interval=<duration>    Poll interval, overrides watch.interval.`,
		Run: runWatch,
	})
}

func runWatch(opts docopt.Opts) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := newWatcher(opts)
	if err != nil {
		return err
	}
	return w.run(ctx, nil)
}

// watcher runs a session on its own loop and reloads it when the file
// changes on disk.
type watcher struct {
	path       string
	configPath string
	interval   time.Duration

	loop *core.Loop
	sess *session
}

func newWatcher(opts docopt.Opts) (*watcher, error) {
	w := &watcher{
		path:       optString(opts, "<file>", ""),
		configPath: optString(opts, "--config", ""),
		loop:       core.NewLoop(),
	}
	if s := optString(opts, "--interval", ""); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("--interval must be a positive duration (got %q)", s)
		}
		w.interval = d
	}
	return w, nil
}

// run opens the session, calls ready (if any) once it is live, then polls
// until ctx is done.
func (w *watcher) run(ctx context.Context, ready func(*session) error) error {
	// The loop outlives ctx so the session can still be closed on it.
	loopDone := make(chan error, 1)
	go func() { loopDone <- w.loop.Run(context.Background()) }()
	defer func() {
		w.loop.Close()
		<-loopDone
	}()

	var openErr error
	if err := w.loop.Call(ctx, func() {
		w.sess, openErr = openSession(w.path, w.configPath, w.loop)
	}); err != nil {
		return err
	}
	if openErr != nil {
		return openErr
	}
	var stopLogging func()
	w.loop.Call(ctx, func() { stopLogging = w.sess.logEvents() })
	defer w.loop.Call(context.Background(), func() {
		if stopLogging != nil {
			stopLogging()
		}
		w.sess.close()
	})

	if w.interval == 0 {
		w.interval = w.sess.cfg.WatchInterval
	}
	if ready != nil {
		if err := ready(w.sess); err != nil {
			return err
		}
	}
	glog.Infof("[docmirror] watching %s every %s", w.path, w.interval)
	return w.poll(ctx)
}

// poll reloads the session whenever the file's size or modification time
// changes.
func (w *watcher) poll(ctx context.Context) error {
	last, err := stamp(w.path)
	if err != nil {
		return err
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		cur, err := stamp(w.path)
		if err != nil {
			glog.Warningf("[docmirror] %v", err)
			continue
		}
		if cur.same(last) {
			continue
		}
		last = cur
		if err := w.reload(ctx); err != nil {
			return err
		}
	}
}

// reload applies the file's current contents. Parse failures are logged
// and skipped; a poisoned document ends the watch.
func (w *watcher) reload(ctx context.Context) error {
	var err error
	if callErr := w.loop.Call(ctx, func() { err = w.sess.reload() }); callErr != nil {
		if errors.Is(callErr, context.Canceled) {
			return nil
		}
		return callErr
	}
	// Passes queued by the reload run after it; wait for them.
	var docErr error
	w.loop.Call(ctx, func() { docErr = w.sess.doc.Err() })
	if docErr != nil {
		return docErr
	}
	if err != nil {
		glog.Warningf("[docmirror] reload %s: %v", w.path, err)
	}
	return nil
}

type fileStamp struct {
	size    int64
	modTime time.Time
}

func (s fileStamp) same(o fileStamp) bool {
	return s.size == o.size && s.modTime.Equal(o.modTime)
}

func stamp(path string) (fileStamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return fileStamp{size: info.Size(), modTime: info.ModTime()}, nil
}
