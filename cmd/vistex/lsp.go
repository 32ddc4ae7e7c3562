package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/iw2rmb/vistex"
	"github.com/iw2rmb/vistex/lsp"
)

func runLSP(e env, args []string) error {
	var (
		c         common
		logFile   string
		verbosity int
	)
	fs := newFlagSet(e, "lsp", "[flags]")
	c.addFlags(fs)
	fs.StringVar(&logFile, "log-file", "", "write server logs to this file instead of stderr")
	fs.IntVarP(&verbosity, "verbose", "v", 1, "protocol log verbosity")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return errUsage
	}
	cfg, err := c.load()
	if err != nil {
		return err
	}

	// stdout carries the protocol.
	var path *string
	logger := newLogger(e.stderr, cfg)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logger = slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: cfg.Level()}))
		path = &logFile
	}
	commonlog.Configure(verbosity, path)

	logger.Info("starting language server", "version", vistex.Version())
	return lsp.New(cfg, logger, vistex.Version()).RunStdio()
}
