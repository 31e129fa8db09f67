// Package server exposes the catalog over a read-only JSON HTTP API.
//
// Queries run against the shared catalog.Store; reloads go through the
// loader and are serialized so that at most one load runs at a time.
package server

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/filmdb/filmdb/internal/catalog"
	"github.com/filmdb/filmdb/internal/loader"
	"github.com/filmdb/filmdb/internal/logger"
	"github.com/filmdb/filmdb/internal/query"
	"github.com/filmdb/filmdb/internal/scheduler"
	"github.com/filmdb/filmdb/internal/source"
)

// ReloadJobID identifies the periodic reload in the scheduler.
const ReloadJobID = "catalog-reload"

const (
	shutdownTimeout = 20 * time.Second
	limiterSweep    = time.Minute
	limiterIdle     = 3 * time.Minute
)

// Config configures the HTTP server.
type Config struct {
	Port    int
	Env     string
	Version string
	// Source is reloaded by POST /v1/catalog/reload and by the scheduler
	Source source.Config
	// ReloadInterval enables periodic replacing reloads when positive
	ReloadInterval time.Duration
	// ReloadSchedule is a cron expression for the same reloads; it takes
	// precedence over ReloadInterval
	ReloadSchedule string
	Limiter        LimiterConfig
}

// LimiterConfig configures per-client rate limiting.
type LimiterConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

// Server serves catalog queries over HTTP.
type Server struct {
	cfg       Config
	store     *catalog.Store
	loader    *loader.Loader
	engine    *query.Engine
	limiter   *clientLimiter
	scheduler *scheduler.Scheduler

	reloadMu sync.Mutex
}

var publishOnce sync.Once

// New builds a server over store. Reloads use ld.
func New(cfg Config, store *catalog.Store, ld *loader.Loader) *Server {
	return &Server{
		cfg:       cfg,
		store:     store,
		loader:    ld,
		engine:    query.NewEngine(store),
		limiter:   newClientLimiter(cfg.Limiter.RPS, cfg.Limiter.Burst),
		scheduler: scheduler.New(),
	}
}

// Serve listens on the configured port until ctx is done, then shuts down
// gracefully, waiting for in-flight requests and reloads.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.publishMetrics()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.limiter.cleanup(ctx, limiterSweep, limiterIdle)
	}()

	if job := s.reloadJob(); job != nil {
		if err := s.scheduler.Register(job); err != nil {
			return err
		}
		if err := s.scheduler.Start(ctx); err != nil {
			return err
		}
		logger.Info("catalog reload scheduled",
			"schedule", job.Spec(),
			"next_run", s.scheduler.NextRun(ReloadJobID),
		)
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		logger.Info("shutting down server", "addr", srv.Addr)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if stopErr := s.scheduler.Stop(shutdownCtx); stopErr != nil {
			err = errors.Join(err, stopErr)
		}
		shutdownErr <- err
	}()

	logger.Info("starting server",
		"addr", srv.Addr,
		"env", s.cfg.Env,
		"catalog_size", s.store.Len(),
	)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		cancel()
		wg.Wait()
		<-shutdownErr
		return err
	}

	err = <-shutdownErr
	wg.Wait()
	if err != nil {
		return err
	}

	logger.Info("stopped server", "addr", srv.Addr)
	return nil
}

// Reload loads the configured source. With replace set the catalog is
// swapped for the source's contents in one step; otherwise films are
// merged in, last write wins.
func (s *Server) Reload(ctx context.Context, replace bool) (loader.Result, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	if !replace {
		return s.loader.LoadSource(ctx, s.cfg.Source, s.store)
	}

	staged := catalog.New()
	res, err := s.loader.LoadSource(ctx, s.cfg.Source, staged)
	if err != nil {
		return res, err
	}
	s.store.Replace(staged.Films())
	return res, nil
}

// publishMetrics registers process-wide expvar values once.
func (s *Server) publishMetrics() {
	publishOnce.Do(func() {
		expvar.NewString("version").Set(s.cfg.Version)
		expvar.Publish("goroutines", expvar.Func(func() any {
			return runtime.NumGoroutine()
		}))
		expvar.Publish("catalog_films", expvar.Func(func() any {
			return s.store.Len()
		}))
		expvar.Publish("timestamp", expvar.Func(func() any {
			return time.Now().Unix()
		}))
	})
}

// reloadJob returns the periodic replacing reload, or nil when neither a
// schedule nor an interval is configured.
func (s *Server) reloadJob() *scheduler.Job {
	if s.cfg.ReloadSchedule == "" && s.cfg.ReloadInterval <= 0 {
		return nil
	}
	return &scheduler.Job{
		ID:       ReloadJobID,
		Schedule: s.cfg.ReloadSchedule,
		Interval: s.cfg.ReloadInterval,
		Run: func(ctx context.Context) error {
			_, err := s.Reload(ctx, true)
			return err
		},
	}
}
