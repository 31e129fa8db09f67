package cli

import (
	"fmt"
	"io"

	"github.com/filmdb/filmdb/internal/config"
	"github.com/filmdb/filmdb/internal/loader"
)

// OutputOptions configures CLI output behavior.
type OutputOptions struct {
	Verbose bool
	Quiet   bool
}

// PrintLoadResult summarizes a catalog load. Quiet mode prints nothing.
func PrintLoadResult(w io.Writer, source string, result loader.Result, catalogSize int, opts OutputOptions) {
	if opts.Quiet {
		return
	}

	fmt.Fprintf(w, "✓ Loaded %d films from %s\n", result.Inserted+result.Replaced, source)
	fmt.Fprintf(w, "  Catalog size: %d\n", catalogSize)
	if result.Replaced > 0 {
		fmt.Fprintf(w, "  Replaced: %d\n", result.Replaced)
	}
	if result.Skipped > 0 {
		fmt.Fprintf(w, "  Skipped rows: %d\n", result.Skipped)
	}
	if opts.Verbose {
		fmt.Fprintf(w, "  Rows read: %d\n", result.Rows)
		fmt.Fprintf(w, "  Duration: %v\n", result.Duration)
	}
}

// PrintConfigSummary describes a valid configuration for the validate command.
func PrintConfigSummary(w io.Writer, path string, cfg *config.Config, opts OutputOptions) {
	if opts.Quiet {
		return
	}

	fmt.Fprintf(w, "✓ Configuration is valid: %s\n", path)
	if !opts.Verbose {
		return
	}

	switch cfg.Catalog.Source {
	case "database":
		fmt.Fprintf(w, "  Source: database (%s)\n", cfg.Database.Driver)
	default:
		fmt.Fprintf(w, "  Source: csv %s\n", valueOr(cfg.Catalog.Path, "(none)"))
		fmt.Fprintf(w, "  Layout: %s\n", cfg.Catalog.LayoutName())
	}
	fmt.Fprintf(w, "  Server: port %d, env %s\n", cfg.Server.Port, cfg.Server.Env)
	switch {
	case cfg.Server.ReloadSchedule != "":
		fmt.Fprintf(w, "  Reload schedule: %s\n", cfg.Server.ReloadSchedule)
	case cfg.Server.ReloadInterval > 0:
		fmt.Fprintf(w, "  Reload every: %v\n", cfg.Server.ReloadInterval)
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
