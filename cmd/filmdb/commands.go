package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/filmdb/filmdb/internal/catalog"
	"github.com/filmdb/filmdb/internal/cli"
	"github.com/filmdb/filmdb/internal/config"
	"github.com/filmdb/filmdb/internal/errhandling"
	"github.com/filmdb/filmdb/internal/menu"
	"github.com/filmdb/filmdb/internal/query"
	"github.com/filmdb/filmdb/internal/render"
	"github.com/filmdb/filmdb/internal/scheduler"
	"github.com/filmdb/filmdb/internal/server"
)

func newMenuCmd(a *app) *cobra.Command {
	var pause bool

	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Run the interactive menu",
		Long: `Run the interactive eight-option menu.

The catalog starts empty; option 1 loads a CSV file, defaulting to
--csv or catalog.path when the prompt is left blank. Loading again
merges into the catalog, replacing films with the same id.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			ld, err := a.newLoader(cfg)
			if err != nil {
				return err
			}
			format, err := render.ParseFormat(a.output)
			if err != nil {
				return err
			}

			m, err := menu.New(menu.Options{
				In:      a.in,
				Out:     a.out,
				Store:   catalog.New(),
				Loader:  ld,
				Source:  cfg.SourceConfig(),
				Format:  format,
				Pattern: a.format,
				Pause:   pause,
			})
			if err != nil {
				return err
			}
			return m.Run(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&pause, "pause", false, "Wait for enter after each result")
	return cmd
}

func newQueryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Load the catalog and run a single query",
		Long: `Load the catalog from --csv, --config or catalog.path and run one query.

Exit codes:
  0 - Query ran (including queries with no matches)
  1 - Validation errors
  2 - Parse errors (malformed decade, rating or expression)
  3 - Runtime errors (unreadable source)`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:     "id <id>",
			Short:   "Look up a film by id",
			Example: "  filmdb query id tt0111161",
			Args:    cobra.ExactArgs(1),
			RunE: a.withEngine(func(e *query.Engine, p *render.Printer, args []string) error {
				f, ok := e.ByID(args[0])
				if !ok {
					return p.NotFound(args[0])
				}
				return p.Film(f)
			}),
		},
		&cobra.Command{
			Use:     "director <name>",
			Short:   "Films by a director (case-insensitive)",
			Example: `  filmdb query director "Sergio Leone"`,
			Args:    cobra.MinimumNArgs(1),
			RunE: a.withEngine(func(e *query.Engine, p *render.Printer, args []string) error {
				name := strings.TrimSpace(strings.Join(args, " "))
				return p.Films(render.KindDirector, name, e.ByDirector(name))
			}),
		},
		&cobra.Command{
			Use:     "genre <genre>",
			Short:   "Films listing a genre",
			Example: "  filmdb query genre Western",
			Args:    cobra.MinimumNArgs(1),
			RunE: a.withEngine(func(e *query.Engine, p *render.Printer, args []string) error {
				genre := strings.Join(args, " ")
				return p.Films(render.KindGenre, genre, e.ByGenre(genre))
			}),
		},
		&cobra.Command{
			Use:     "decade <decade>",
			Short:   "Films released in a decade (1990s or any year in it)",
			Example: "  filmdb query decade 1990s",
			Args:    cobra.ExactArgs(1),
			RunE: a.withEngine(func(e *query.Engine, p *render.Printer, args []string) error {
				decade, err := query.ParseDecade(args[0])
				if err != nil {
					return err
				}
				return p.Films(render.KindDecade, render.DecadeLabel(decade), e.ByDecade(decade))
			}),
		},
		&cobra.Command{
			Use:   "rating <min> <max> | rating <min-max>",
			Short: "Films rated within an inclusive range",
			Example: `  filmdb query rating 8.5 9
  filmdb query rating 6.0-6.4`,
			Args: cobra.RangeArgs(1, 2),
			RunE: a.withEngine(func(e *query.Engine, p *render.Printer, args []string) error {
				lo, hi, err := parseRatingArgs(args)
				if err != nil {
					return err
				}
				return p.Films(render.KindRating, render.RatingCriteria(lo, hi), e.ByRatingRange(lo, hi))
			}),
		},
		&cobra.Command{
			Use:     "decade-genre <decade> <genre>",
			Short:   "Films of a genre released in a decade",
			Example: "  filmdb query decade-genre 1970s Crime",
			Args:    cobra.MinimumNArgs(2),
			RunE: a.withEngine(func(e *query.Engine, p *render.Printer, args []string) error {
				decade, err := query.ParseDecade(args[0])
				if err != nil {
					return err
				}
				genre := strings.Join(args[1:], " ")
				return p.Films(render.KindDecadeGenre, render.DecadeGenreCriteria(decade, genre), e.ByDecadeAndGenre(decade, genre))
			}),
		},
		&cobra.Command{
			Use:   "where <expression>",
			Short: "Films matching an expression",
			Long: `Films matching a boolean expression over id, title, director, genres,
rating, year and decade.`,
			Example: `  filmdb query where 'rating >= 8.5 && "Drama" in genres'`,
			Args:    cobra.MinimumNArgs(1),
			RunE: a.withEngine(func(e *query.Engine, p *render.Printer, args []string) error {
				src := strings.Join(args, " ")
				films, err := e.Where(src)
				if err != nil {
					return err
				}
				return p.Films(render.KindWhere, src, films)
			}),
		},
	)
	return cmd
}

// withEngine loads the catalog and hands a query engine and printer to fn.
func (a *app) withEngine(fn func(*query.Engine, *render.Printer, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		p, err := a.printer()
		if err != nil {
			return err
		}
		cfg, err := a.loadConfig(cmd)
		if err != nil {
			return err
		}
		store, _, err := a.loadCatalog(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		return fn(query.NewEngine(store), p, args)
	}
}

func parseRatingArgs(args []string) (lo, hi float64, err error) {
	if len(args) == 1 {
		return query.ParseRatingRange(args[0])
	}
	if lo, err = query.ParseRating(args[0]); err != nil {
		return 0, 0, err
	}
	if hi, err = query.ParseRating(args[1]); err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

func newServeCmd(a *app) *cobra.Command {
	var (
		port           int
		env            string
		reloadInterval time.Duration
		reloadSchedule string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		Long: `Load the catalog and serve it over a read-only JSON API.

Endpoints:
  GET  /v1/healthcheck
  GET  /v1/films/:id
  GET  /v1/films?director=&genre=&decade=&rating=min-max&where=
  POST /v1/catalog/reload[?replace=true]
  GET  /debug/vars

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Server.Port = port
			}
			if flags.Changed("env") {
				cfg.Server.Env = env
			}
			if flags.Changed("reload-interval") {
				cfg.Server.ReloadInterval = reloadInterval
			}
			if flags.Changed("reload-schedule") {
				if err := scheduler.ValidateSchedule(reloadSchedule); err != nil {
					return errhandling.NewValidationError("invalid --reload-schedule", err)
				}
				cfg.Server.ReloadSchedule = reloadSchedule
			}

			store, ld, err := a.loadCatalog(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(serverConfig(cfg), store, ld)
			if err := srv.Serve(ctx); err != nil {
				return errhandling.NewIOError("server failed", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "API server port")
	cmd.Flags().StringVar(&env, "env", config.DefaultEnv, "Environment (development|staging|production)")
	cmd.Flags().DurationVar(&reloadInterval, "reload-interval", 0, "Reload and replace the catalog periodically (0 disables)")
	cmd.Flags().StringVar(&reloadSchedule, "reload-schedule", "", "Cron expression for catalog reloads, e.g. \"0 3 * * *\" (overrides --reload-interval)")
	return cmd
}

func serverConfig(cfg *config.Config) server.Config {
	return server.Config{
		Port:           cfg.Server.Port,
		Env:            cfg.Server.Env,
		Version:        version,
		Source:         cfg.SourceConfig(),
		ReloadInterval: cfg.Server.ReloadInterval,
		ReloadSchedule: cfg.Server.ReloadSchedule,
		Limiter: server.LimiterConfig{
			Enabled: cfg.Server.Limiter.Enabled,
			RPS:     cfg.Server.Limiter.RPS,
			Burst:   cfg.Server.Limiter.Burst,
		},
	}
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a configuration file against the schema.

Supports both JSON and YAML formats. The format is auto-detected
based on file extension (.json, .yaml, .yml) or content.

Exit codes:
  0 - Configuration is valid
  1 - Validation errors (schema violations)
  2 - Parse errors (invalid JSON/YAML syntax)`,
		Example: "  filmdb validate filmdb.yaml",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := args[0]
			result := config.Parse(path)

			if len(result.ParseErrors) > 0 {
				cli.PrintParseErrors(a.errOut, result.ParseErrors, a.verbose)
				return reportedError{result.Err()}
			}
			if len(result.ValidationErrors) > 0 {
				cli.PrintValidationErrors(a.errOut, result.ValidationErrors, a.verbose, a.quiet)
				return reportedError{result.Err()}
			}

			cfg, err := config.Convert(result.Data)
			if err != nil {
				return errhandling.NewValidationError("invalid configuration "+path, err)
			}
			if _, err := cfg.LoaderOptions(); err != nil {
				return err
			}

			cli.PrintConfigSummary(a.out, fmt.Sprintf("%s (format: %s)", path, result.Format), cfg,
				cli.OutputOptions{Verbose: a.verbose, Quiet: a.quiet})
			return nil
		},
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print version, commit hash, and build date information.",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "filmdb %s\n", version)
			fmt.Fprintf(a.out, "  commit: %s\n", commit)
			fmt.Fprintf(a.out, "  built:  %s\n", buildDate)
		},
	}
}
