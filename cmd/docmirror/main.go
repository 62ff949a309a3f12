// Command docmirror renders Markdown and HTML documents through the
// incremental mirror engine and keeps the rendering current as the file
// changes.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/go-drift/docmirror/cmd/docmirror/cmd"
	"github.com/go-drift/docmirror/pkg/errors"
)

func main() {
	// glog registers its flags on the default set; only log to stderr.
	flag.Set("logtostderr", "true")
	if v := os.Getenv("DOCMIRROR_V"); v != "" {
		flag.Set("v", v)
	}
	errors.SetHandler(&errors.LogHandler{Verbose: os.Getenv("DOCMIRROR_V") != ""})
	defer glog.Flush()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		glog.Flush()
		os.Exit(1)
	}
}
