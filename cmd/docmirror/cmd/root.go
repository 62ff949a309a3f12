// Package cmd implements the docmirror CLI commands.
//
// The root command dispatches to subcommands (render, watch, serve). Each
// subcommand declares a docopt usage string and parses its own arguments.
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/docopt/docopt-go"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

// Output streams, replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Command represents a CLI command.
type Command struct {
	Name  string
	Short string
	Long  string
	// Usage is the command's docopt usage text.
	Usage string
	Run   func(opts docopt.Opts) error
}

var rootCmd = struct {
	Long  string
	Usage string
	Subs  []*Command
}{
	Long: `docmirror keeps a styled text rendering of a Markdown or HTML
document in sync with its section tree, applying only the edits
each change requires.

Use "docmirror <command> --help" for more information about a command.`,
	Usage: "docmirror <command> [options] <file>",
}

// Commands registered with the CLI.
var commands = make(map[string]*Command)

// RegisterCommand adds a command to the CLI.
func RegisterCommand(cmd *Command) {
	commands[cmd.Name] = cmd
	rootCmd.Subs = append(rootCmd.Subs, cmd)
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return run(os.Args[1:])
}

func run(args []string) error {
	if len(args) == 0 {
		printHelp()
		return nil
	}

	switch args[0] {
	case "-h", "--help", "help":
		printHelp()
		return nil
	case "-v", "--version", "version":
		fmt.Fprintf(stdout, "docmirror version %s (built %s)\n", Version, BuildTime)
		return nil
	}

	cmdName := args[0]
	cmd, ok := commands[cmdName]
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", cmdName)
		printHelp()
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	for _, arg := range args[1:] {
		if arg == "-h" || arg == "--help" {
			printCommandHelp(cmd)
			return nil
		}
	}

	opts, err := parseArgs(cmd, args)
	if err != nil {
		return err
	}
	return cmd.Run(opts)
}

// parseArgs matches argv, command name included, against the command's
// usage. Help and version flags are handled by run, so docopt must never
// print or exit on its own.
func parseArgs(cmd *Command, argv []string) (docopt.Opts, error) {
	parser := &docopt.Parser{
		HelpHandler:   docopt.NoHelpHandler,
		SkipHelpFlags: true,
	}
	opts, err := parser.ParseArgs(cmd.Usage, argv, "")
	if err != nil {
		return nil, fmt.Errorf("invalid arguments for %s\n\n%s", cmd.Name, usageSection(cmd.Usage))
	}
	return opts, nil
}

// usageSection returns the "Usage:" block of a docopt text.
func usageSection(doc string) string {
	i := strings.Index(doc, "Usage:")
	if i < 0 {
		return doc
	}
	doc = doc[i:]
	if j := strings.Index(doc, "\n\n"); j >= 0 {
		doc = doc[:j]
	}
	return doc
}

// optString returns an option's value, or def when it was not given.
func optString(opts docopt.Opts, key, def string) string {
	if s, ok := opts[key].(string); ok && s != "" {
		return s
	}
	return def
}

func printHelp() {
	fmt.Fprintln(stdout, rootCmd.Long)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Usage:")
	fmt.Fprintf(stdout, "  %s\n", rootCmd.Usage)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Commands:")
	for _, sub := range rootCmd.Subs {
		fmt.Fprintf(stdout, "  %-10s %s\n", sub.Name, sub.Short)
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Flags:")
	fmt.Fprintln(stdout, "  -h, --help           Show help for a command")
	fmt.Fprintln(stdout, "  -v, --version        Show version information")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Environment:")
	fmt.Fprintln(stdout, "  DOCMIRROR_V          glog verbosity (1: change events, 2: engine tracing)")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Configuration:")
	fmt.Fprintln(stdout, "  docmirror.yaml next to the document, or --config=<path>")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Examples:")
	fmt.Fprintln(stdout, "  docmirror render README.md      Print the styled document")
	fmt.Fprintln(stdout, "  docmirror watch notes.md        Follow edits and log each pass")
	fmt.Fprintln(stdout, "  docmirror serve page.html       Watch and serve the inspector")
}

func printCommandHelp(cmd *Command) {
	fmt.Fprintln(stdout, cmd.Long)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, cmd.Usage)
}
