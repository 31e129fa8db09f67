package config

import (
	"fmt"
	"os"
	"time"

	"github.com/filmdb/filmdb/internal/errhandling"
	"github.com/filmdb/filmdb/internal/loader"
	"github.com/filmdb/filmdb/internal/scheduler"
	"github.com/filmdb/filmdb/internal/source"
)

// EnvDatabaseDSN overrides database.dsn when set.
const EnvDatabaseDSN = "FILMDB_DB_DSN"

// Defaults
const (
	DefaultPort           = 4000
	DefaultEnv            = "development"
	DefaultLimiterRPS     = 2
	DefaultLimiterBurst   = 4
	DefaultDatabaseDriver = "postgres"
	DefaultTimeout        = 30 * time.Second
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Source:         "csv",
			Delimiter:      ',',
			GenreSeparator: ",",
		},
		Database: DatabaseConfig{
			Driver:  DefaultDatabaseDriver,
			Timeout: DefaultTimeout,
			Retry:   errhandling.DefaultRetryConfig(),
		},
		Server: ServerConfig{
			Port: DefaultPort,
			Env:  DefaultEnv,
			Limiter: LimiterConfig{
				Enabled: true,
				RPS:     DefaultLimiterRPS,
				Burst:   DefaultLimiterBurst,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Convert turns validated configuration data into a Config. Missing values
// keep their defaults.
//
// The expected structure is:
//
//	catalog:  {source, path, delimiter, layout, columns, genreSeparator, strict}
//	database: {driver, dsn, query, queryFile, timeoutMs, retry}
//	server:   {port, env, reloadInterval, reloadSchedule, limiter: {enabled, rps, burst}}
//	log:      {level, format, file}
func Convert(data map[string]interface{}) (*Config, error) {
	cfg := Default()
	if data == nil {
		return cfg, nil
	}

	if catalog, ok := data["catalog"].(map[string]interface{}); ok {
		if err := convertCatalog(catalog, &cfg.Catalog); err != nil {
			return nil, err
		}
	}
	if db, ok := data["database"].(map[string]interface{}); ok {
		convertDatabase(db, &cfg.Database)
	}
	if server, ok := data["server"].(map[string]interface{}); ok {
		if err := convertServer(server, &cfg.Server); err != nil {
			return nil, err
		}
	}
	if log, ok := data["log"].(map[string]interface{}); ok {
		setString(log, "level", &cfg.Log.Level)
		setString(log, "format", &cfg.Log.Format)
		setString(log, "file", &cfg.Log.File)
	}

	return cfg, nil
}

func convertCatalog(data map[string]interface{}, c *CatalogConfig) error {
	setString(data, "source", &c.Source)
	setString(data, "path", &c.Path)
	setString(data, "layout", &c.Layout)
	setString(data, "genreSeparator", &c.GenreSeparator)
	setBool(data, "strict", &c.Strict)

	if d, ok := data["delimiter"].(string); ok {
		r := []rune(d)
		if len(r) != 1 {
			return fmt.Errorf("catalog.delimiter must be a single character, got %q", d)
		}
		c.Delimiter = r[0]
	}

	if cols, ok := data["columns"].(map[string]interface{}); ok {
		c.Columns = make(map[string]int, len(cols))
		for name, v := range cols {
			idx, ok := toInt(v)
			if !ok {
				return fmt.Errorf("catalog.columns.%s must be an integer, got %T", name, v)
			}
			c.Columns[name] = idx
		}
	}
	return nil
}

func convertDatabase(data map[string]interface{}, d *DatabaseConfig) {
	setString(data, "driver", &d.Driver)
	setString(data, "dsn", &d.DSN)
	setString(data, "query", &d.Query)
	setString(data, "queryFile", &d.QueryFile)
	if ms, ok := toInt(data["timeoutMs"]); ok {
		d.Timeout = time.Duration(ms) * time.Millisecond
	}
	if retry, ok := data["retry"].(map[string]interface{}); ok {
		d.Retry = errhandling.ParseRetryConfig(retry)
	}
}

func convertServer(data map[string]interface{}, s *ServerConfig) error {
	if port, ok := toInt(data["port"]); ok {
		s.Port = port
	}
	setString(data, "env", &s.Env)

	if v, ok := data["reloadInterval"].(string); ok {
		d, err := time.ParseDuration(v)
		if err != nil && v != "0" {
			return fmt.Errorf("server.reloadInterval: %w", err)
		}
		s.ReloadInterval = d
	}
	if v, ok := data["reloadSchedule"].(string); ok {
		if err := scheduler.ValidateSchedule(v); err != nil {
			return fmt.Errorf("server.reloadSchedule: %w", err)
		}
		s.ReloadSchedule = v
	}

	if limiter, ok := data["limiter"].(map[string]interface{}); ok {
		setBool(limiter, "enabled", &s.Limiter.Enabled)
		if rps, ok := toFloat(limiter["rps"]); ok {
			s.Limiter.RPS = rps
		}
		if burst, ok := toInt(limiter["burst"]); ok {
			s.Limiter.Burst = burst
		}
	}
	return nil
}

// LayoutName returns the layout preset in effect. Without an explicit
// layout, database sources use the column order of source.DefaultQuery and
// CSV files use the IMDb export layout.
func (c CatalogConfig) LayoutName() string {
	switch {
	case c.Layout != "":
		return c.Layout
	case c.Source == source.KindDatabase:
		return loader.LayoutSimple
	default:
		return loader.LayoutIMDb
	}
}

// ApplyEnv overrides values from the environment.
func (c *Config) ApplyEnv() {
	if dsn := os.Getenv(EnvDatabaseDSN); dsn != "" {
		c.Database.DSN = dsn
	}
}

func setString(m map[string]interface{}, key string, dst *string) {
	if v, ok := m[key].(string); ok {
		*dst = v
	}
}

func setBool(m map[string]interface{}, key string, dst *bool) {
	if v, ok := m[key].(bool); ok {
		*dst = v
	}
}

// toInt accepts the int YAML produces and the float64 JSON produces.
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
