// vistex edits LaTeX in visual mode and exposes the decoration engine to
// scripts and editors.
//
// Subcommands:
//
//	vistex edit FILE         interactive terminal editor
//	vistex render FILE       print the decorated document
//	vistex plan FILE         dump the decoration plan (json, cbor, diag)
//	vistex project FILE      print the prose projection
//	vistex lsp               serve the language server on stdio
//	vistex version           print the version
//
// FILE may be "-" for standard input where the command only reads.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/iw2rmb/vistex"
	"github.com/iw2rmb/vistex/config"
)

type env struct {
	stdin          io.Reader
	stdout, stderr io.Writer
}

type command struct {
	summary string
	run     func(e env, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"edit":    {"interactive terminal editor", runEdit},
		"render":  {"print the decorated document", runRender},
		"plan":    {"dump the decoration plan", runPlan},
		"project": {"print the prose projection", runProject},
		"lsp":     {"serve the language server on stdio", runLSP},
		"version": {"print the version", runVersion},
	}
}

var errUsage = errors.New("usage")

func main() {
	e := env{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	if err := run(e, os.Args[1:]); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(e env, args []string) error {
	if len(args) == 0 {
		printUsage(e.stderr)
		return errUsage
	}
	switch args[0] {
	case "-h", "--help", "help":
		printUsage(e.stdout)
		return nil
	case "--version":
		return runVersion(e, nil)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(e.stderr, "unknown command %q\n\n", args[0])
		printUsage(e.stderr)
		return errUsage
	}
	return cmd.run(e, args[1:])
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage:\n  vistex <command> [flags] [file]\n\nCommands:\n")
	for _, name := range []string{"edit", "render", "plan", "project", "lsp", "version"} {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].summary)
	}
}

// common are the flags every document command takes.
type common struct {
	configPath string
	logLevel   string
}

func (c *common) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.configPath, "config", defaultConfigPath(), "config file (.yaml, .toml or .jsonc)")
	fs.StringVar(&c.logLevel, "log-level", "", "override the configured log level")
}

func (c *common) load() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	return cfg, nil
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "vistex.yaml"
	}
	return filepath.Join(dir, "vistex", "config.yaml")
}

func newFlagSet(e env, name, usage string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("vistex "+name, pflag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.Usage = func() {
		fmt.Fprintf(e.stderr, "Usage:\n  vistex %s %s\n\nFlags:\n", name, usage)
		fs.PrintDefaults()
	}
	return fs
}

// parse parses args and returns the single positional argument.
func parse(fs *pflag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return "", errUsage
		}
		return "", err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return "", errUsage
	}
	return fs.Arg(0), nil
}

func readSource(e env, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(e.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Level()}))
}

func runVersion(e env, args []string) error {
	fmt.Fprintln(e.stdout, vistex.Banner("vistex"))
	return nil
}
