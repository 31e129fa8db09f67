package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/filmdb/filmdb/internal/catalog"
	"github.com/filmdb/filmdb/internal/cli"
	"github.com/filmdb/filmdb/internal/config"
	"github.com/filmdb/filmdb/internal/errhandling"
	"github.com/filmdb/filmdb/internal/loader"
	"github.com/filmdb/filmdb/internal/logger"
	"github.com/filmdb/filmdb/internal/render"
	"github.com/filmdb/filmdb/internal/source"
)

// app holds the parsed flags and the I/O of one invocation.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// Global flags
	configPath string
	csvPath    string
	layout     string
	strict     bool
	verbose    bool
	quiet      bool
	logFormat  string
	logFile    string
	output     string
	format     string
}

// flagLogConfig is the logging setup before any configuration file is read.
func (a *app) flagLogConfig() config.LogConfig {
	l := config.Default().Log
	if a.logFormat != "" {
		l.Format = a.logFormat
	}
	l.File = a.logFile
	switch {
	case a.verbose:
		l.Level = "debug"
	case a.quiet:
		l.Level = "error"
	}
	return l
}

func (a *app) configureLogging(l config.LogConfig) error {
	level, err := logger.ParseLevel(l.Level)
	if err != nil {
		return errhandling.NewValidationError("invalid log settings", err)
	}
	format, err := logger.ParseFormat(l.Format)
	if err != nil {
		return errhandling.NewValidationError("invalid log settings", err)
	}

	if l.File != "" {
		if err := logger.SetLogFile(l.File, level, format); err != nil {
			return errhandling.NewIOError("cannot open log file", err)
		}
		return nil
	}
	logger.SetOutput(a.errOut, level, format)
	return nil
}

// loadConfig reads --config when given and applies flag overrides on top.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg.ApplyEnv()
	}

	flags := cmd.Flags()
	if flags.Changed("csv") {
		cfg.Catalog.Source = source.KindCSV
		cfg.Catalog.Path = a.csvPath
	}
	if flags.Changed("layout") {
		cfg.Catalog.Layout = a.layout
		cfg.Catalog.Columns = nil
	}
	if flags.Changed("strict") {
		cfg.Catalog.Strict = a.strict
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if flags.Changed("log-file") {
		cfg.Log.File = a.logFile
	}
	switch {
	case a.verbose:
		cfg.Log.Level = "debug"
	case a.quiet:
		cfg.Log.Level = "error"
	}

	if err := a.configureLogging(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *app) newLoader(cfg *config.Config) (*loader.Loader, error) {
	opts, err := cfg.LoaderOptions()
	if err != nil {
		return nil, err
	}
	return loader.New(opts)
}

// loadCatalog fills a new store from the configured source.
func (a *app) loadCatalog(ctx context.Context, cfg *config.Config) (*catalog.Store, *loader.Loader, error) {
	ld, err := a.newLoader(cfg)
	if err != nil {
		return nil, nil, err
	}

	src := cfg.SourceConfig()
	if src.Kind == source.KindCSV && src.Path == "" {
		return nil, nil, errhandling.NewValidationError("no catalog to load: pass --csv or set catalog.path", nil)
	}

	store := catalog.New()
	res, err := ld.LoadSource(ctx, src, store)
	if err != nil {
		return nil, nil, err
	}
	if a.verbose {
		cli.PrintLoadResult(a.errOut, src.Describe(), res, store.Len(), cli.OutputOptions{Verbose: true})
	}
	return store, ld, nil
}

func (a *app) printer() (*render.Printer, error) {
	format, err := render.ParseFormat(a.output)
	if err != nil {
		return nil, err
	}
	return render.NewPrinter(a.out, format, a.format)
}
