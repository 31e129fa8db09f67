// Package main provides the filmdb command-line entry point.
package main

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/filmdb/filmdb/internal/cli"
	"github.com/filmdb/filmdb/internal/errhandling"
	"github.com/filmdb/filmdb/internal/logger"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitValidationError = 1
	ExitParseError      = 2
	ExitRuntimeError    = 3
)

var (
	// Build information (set via ldflags during build)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// reportedError marks an error whose details a command already printed.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error {
	return e.error
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{in: stdin, out: stdout, errOut: stderr}
	defer logger.CloseLogFile()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var reported reportedError
	if !errors.As(err, &reported) {
		cli.PrintError(stderr, err, a.verbose)
	}
	return exitCode(err)
}

// exitCode maps an error category onto the documented exit codes.
func exitCode(err error) int {
	switch errhandling.GetErrorCategory(err) {
	case errhandling.CategoryValidation:
		return ExitValidationError
	case errhandling.CategoryParse:
		return ExitParseError
	default:
		return ExitRuntimeError
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "filmdb",
		Short: "filmdb - Query a film catalog loaded from CSV or SQL",
		Long: `filmdb loads a film catalog from a CSV export or a SQL database and
answers queries by id, director, genre, decade, rating range, decade and
genre, or a free-form expression.

Queries can be run from an interactive menu, one at a time from the
command line, or over a read-only HTTP API.

Examples:
  # Interactive menu
  filmdb menu --csv data/Top1500.csv

  # One-shot queries
  filmdb query director "Christopher Nolan" --csv data/Top1500.csv
  filmdb query rating 8.5 9 --csv data/Top1500.csv --output json

  # HTTP API with a configuration file
  filmdb serve --config filmdb.yaml`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.configureLogging(a.flagLogConfig())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Configuration file (JSON or YAML)")
	flags.StringVar(&a.csvPath, "csv", "", "CSV file to load, overrides catalog.path")
	flags.StringVar(&a.layout, "layout", "", "Column layout preset (imdb, legacy, simple)")
	flags.BoolVar(&a.strict, "strict", false, "Reject rows with malformed numbers instead of zeroing them")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "Suppress non-error output")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format (json, human)")
	flags.StringVar(&a.logFile, "log-file", "", "Also write JSON logs to this file")
	flags.StringVarP(&a.output, "output", "o", "text", "Result format (text, json, template)")
	flags.StringVar(&a.format, "format", "", `Template for --output template, e.g. "{{title}} ({{year}})"`)
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	root.AddCommand(
		newMenuCmd(a),
		newQueryCmd(a),
		newServeCmd(a),
		newValidateCmd(a),
		newVersionCmd(a),
	)
	return root
}
