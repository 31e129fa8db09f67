package config

import (
	"fmt"

	"github.com/filmdb/filmdb/internal/errhandling"
	"github.com/filmdb/filmdb/internal/loader"
	"github.com/filmdb/filmdb/internal/source"
)

// Load parses, validates and converts the file at path, then applies
// environment overrides.
func Load(path string) (*Config, error) {
	result := Parse(path)
	if err := result.Err(); err != nil {
		return nil, err
	}

	cfg, err := Convert(result.Data)
	if err != nil {
		return nil, errhandling.NewValidationError(fmt.Sprintf("invalid configuration %s", path), err)
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// SourceConfig describes the catalog source for the loader.
func (c *Config) SourceConfig() source.Config {
	return source.Config{
		Kind:      c.Catalog.Source,
		Path:      c.Catalog.Path,
		Delimiter: c.Catalog.Delimiter,
		Driver:    c.Database.Driver,
		DSN:       c.Database.DSN,
		Query:     c.Database.Query,
		QueryFile: c.Database.QueryFile,
		Timeout:   c.Database.Timeout,
		Retry:     c.Database.Retry,
	}
}

// LoaderOptions resolves the layout preset and column overrides.
func (c *Config) LoaderOptions() (loader.Options, error) {
	layout, err := loader.Preset(c.Catalog.LayoutName())
	if err != nil {
		return loader.Options{}, errhandling.NewValidationError("invalid catalog layout", err)
	}
	if len(c.Catalog.Columns) > 0 {
		layout, err = layout.WithOverrides(c.Catalog.Columns)
		if err != nil {
			return loader.Options{}, errhandling.NewValidationError("invalid catalog columns", err)
		}
	}

	return loader.Options{
		Layout:         layout,
		GenreSeparator: c.Catalog.GenreSeparator,
		Strict:         c.Catalog.Strict,
	}, nil
}
