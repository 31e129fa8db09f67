// Package errhandling provides retry configuration and mechanism for catalog sources.
// This file covers the backoff policy and the executor that applies it.
package errhandling

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// Retry policy bounds and defaults.
const (
	DefaultMaxAttempts       = 3
	DefaultDelayMs           = 1000
	DefaultBackoffMultiplier = 2.0
	DefaultMaxDelayMs        = 30000
	MaxRetryAttempts         = 10
	MinBackoffMultiplier     = 1.0
)

// RetryConfig is the backoff policy used while connecting to a database
// source. MaxAttempts counts retries after the first try; 0 disables them.
// Delays are in milliseconds to match the configuration file.
type RetryConfig struct {
	MaxAttempts       int
	DelayMs           int
	BackoffMultiplier float64
	MaxDelayMs        int
}

// DefaultRetryConfig returns the policy applied when the file has no retry block.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       DefaultMaxAttempts,
		DelayMs:           DefaultDelayMs,
		BackoffMultiplier: DefaultBackoffMultiplier,
		MaxDelayMs:        DefaultMaxDelayMs,
	}
}

// Validate reports every out-of-range field at once.
func (c RetryConfig) Validate() error {
	var errs []error
	switch {
	case c.MaxAttempts < 0:
		errs = append(errs, errors.New("maxAttempts must be >= 0"))
	case c.MaxAttempts > MaxRetryAttempts:
		errs = append(errs, fmt.Errorf("maxAttempts must be <= %d", MaxRetryAttempts))
	}
	if c.DelayMs < 0 {
		errs = append(errs, errors.New("delayMs must be >= 0"))
	}
	if c.BackoffMultiplier < MinBackoffMultiplier {
		errs = append(errs, fmt.Errorf("backoffMultiplier must be >= %v", MinBackoffMultiplier))
	}
	if c.MaxDelayMs < 0 {
		errs = append(errs, errors.New("maxDelayMs must be >= 0"))
	}
	return errors.Join(errs...)
}

// CalculateDelay returns DelayMs * BackoffMultiplier^attempt, capped at MaxDelayMs.
func (c RetryConfig) CalculateDelay(attempt int) time.Duration {
	attempt = max(attempt, 0)
	ms := float64(c.DelayMs) * math.Pow(c.BackoffMultiplier, float64(attempt))
	ms = math.Min(ms, float64(c.MaxDelayMs))
	return time.Duration(ms) * time.Millisecond
}

// ShouldRetry reports whether err, returned by the given zero-based attempt,
// earns another try. Only retryable categories qualify.
func (c RetryConfig) ShouldRetry(attempt int, err error) bool {
	return err != nil && attempt < c.MaxAttempts && IsRetryable(err)
}

// ParseRetryConfig reads the "retry" block of the database configuration.
// Absent keys keep their defaults.
func ParseRetryConfig(m map[string]interface{}) RetryConfig {
	cfg := DefaultRetryConfig()
	if v, ok := getInt(m, "maxAttempts"); ok {
		cfg.MaxAttempts = v
	}
	if v, ok := getInt(m, "delayMs"); ok {
		cfg.DelayMs = v
	}
	if v, ok := getFloat(m, "backoffMultiplier"); ok {
		cfg.BackoffMultiplier = v
	}
	if v, ok := getInt(m, "maxDelayMs"); ok {
		cfg.MaxDelayMs = v
	}
	return cfg
}

// getInt accepts the int of YAML and the float64 of JSON.
func getInt(m map[string]interface{}, key string) (int, bool) {
	f, ok := getFloat(m, key)
	return int(f), ok
}

func getFloat(m map[string]interface{}, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// RetryFunc is one attempt of a retried operation.
type RetryFunc func(ctx context.Context) error

// RetryInfo describes the most recent Execute call.
type RetryInfo struct {
	TotalAttempts int
	RetryCount    int
	TotalDuration time.Duration
	Delays        []time.Duration
	Errors        []error
}

// RetryExecutor runs a RetryFunc under a RetryConfig.
type RetryExecutor struct {
	config RetryConfig
	info   RetryInfo
	sleep  func(ctx context.Context, d time.Duration) error

	// OnRetry, when set, is called before each backoff sleep.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// NewRetryExecutor returns an executor for config.
func NewRetryExecutor(config RetryConfig) *RetryExecutor {
	return &RetryExecutor{config: config, sleep: sleepContext}
}

// Execute calls fn until it succeeds, returns a non-retryable error, or the
// attempts run out. Cancellation of ctx ends the loop with a classified error.
func (e *RetryExecutor) Execute(ctx context.Context, fn RetryFunc) error {
	start := time.Now()
	e.info = RetryInfo{}
	defer func() {
		e.info.RetryCount = max(e.info.TotalAttempts-1, 0)
		e.info.TotalDuration = time.Since(start)
	}()

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return ClassifyError(err)
		}

		e.info.TotalAttempts++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		e.info.Errors = append(e.info.Errors, err)
		if !e.config.ShouldRetry(attempt, err) {
			return err
		}

		delay := e.config.CalculateDelay(attempt)
		e.info.Delays = append(e.info.Delays, delay)
		if e.OnRetry != nil {
			e.OnRetry(attempt+1, delay, err)
		}
		if err := e.sleep(ctx, delay); err != nil {
			return ClassifyError(err)
		}
	}
}

// GetRetryInfo returns statistics for the last Execute call.
func (e *RetryExecutor) GetRetryInfo() RetryInfo {
	return e.info
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
