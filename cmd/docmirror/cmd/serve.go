package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/golang/glog"

	"github.com/go-drift/docmirror/pkg/inspect"
)

func init() {
	RegisterCommand(&Command{
		Name:  "serve",
		Short: "Watch a document and serve the inspector",
		Long: `Watch a document like "docmirror watch" and serve a read-only
inspector over HTTP:

  GET /text                  flattened document text
  GET /tree                  node tree with offsets and styles
  GET /lookup?offset=N       node covering a rune offset
  GET /events                websocket stream of change events`,
		Usage: `Usage:
  docmirror serve [--config=<path>] [--interval=<duration>] [--addr=<addr>] <file>

Options:
  --config=<path>          Configuration file (default: docmirror.yaml next to <file>).
  --interval=<duration>    Poll interval, overrides watch.interval.
  --addr=<addr>            Listen address, overrides inspect.addr.`,
		Run: runServe,
	})
}

func runServe(opts docopt.Opts) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := newWatcher(opts)
	if err != nil {
		return err
	}
	addrFlag := optString(opts, "--addr", "")

	var srv *inspect.Server
	defer func() {
		if srv == nil {
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			glog.Warningf("[docmirror] inspector shutdown: %v", err)
		}
	}()

	return w.run(ctx, func(s *session) error {
		addr := addrFlag
		if addr == "" {
			addr = s.cfg.InspectAddr
		}
		srv = inspect.NewServer(s.doc, w.loop)
		bound, err := srv.Start(addr)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "inspector listening on http://%s\n", bound)
		return nil
	})
}
