// Package source loads the registry dataset from a spreadsheet, a CSV file
// or a PostgreSQL table.
//
// Every loader produces a *core.Dataset and reports any failure as a
// *core.LoadError, which is fatal at startup.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/lineowners/internal/config"
	"github.com/JonMunkholm/lineowners/internal/core"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Kind identifies a row source type.
type Kind string

const (
	KindXLSX     Kind = "xlsx"
	KindCSV      Kind = "csv"
	KindPostgres Kind = "postgres"
)

// Config selects and configures a row source.
type Config struct {
	Source string // file path or postgres:// URL
	Sheet  string // xlsx only; empty means the first sheet
	Table  string // postgres only
	Schema Schema

	// Pool sizing for the postgres source.
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// FromConfig builds the source configuration from application config. A
// database URL paired with DATASET_TABLE takes precedence over a file.
func FromConfig(c *config.Config) Config {
	return Config{
		Source:          c.SourceLocation(),
		Sheet:           c.Dataset.Sheet,
		Table:           c.Dataset.Table,
		Schema:          NewSchema(c.Dataset.Facets, c.Dataset.NumericColumns),
		MaxConns:        c.Database.MaxConns,
		MinConns:        c.Database.MinConns,
		MaxConnLifetime: c.Database.MaxConnLifetime,
		MaxConnIdleTime: c.Database.MaxConnIdleTime,
	}
}

// Detect returns the source kind for a DATASET_SOURCE value.
func Detect(src string) (Kind, error) {
	lower := strings.ToLower(src)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return KindPostgres, nil
	case strings.HasSuffix(lower, ".csv"):
		return KindCSV, nil
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xlsm"):
		return KindXLSX, nil
	default:
		return "", fmt.Errorf("unsupported source %q: want .xlsx, .csv or a postgres:// URL", src)
	}
}

// Open loads the dataset described by cfg.
func Open(ctx context.Context, cfg Config) (*core.Dataset, error) {
	kind, err := Detect(cfg.Source)
	if err != nil {
		return nil, &core.LoadError{Source: cfg.Source, Err: err}
	}

	start := time.Now()
	var ds *core.Dataset
	switch kind {
	case KindPostgres:
		ds, err = openPostgres(ctx, cfg)
	case KindCSV:
		ds, err = LoadCSVFile(cfg.Source, cfg.Schema)
	case KindXLSX:
		ds, err = LoadXLSXFile(cfg.Source, cfg.Sheet, cfg.Schema)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("dataset loaded",
		"source", displayName(cfg.Source, kind),
		"kind", string(kind),
		"rows", ds.Len(),
		"columns", len(ds.Columns()),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return ds, nil
}

func openPostgres(ctx context.Context, cfg Config) (*core.Dataset, error) {
	name := displayName(cfg.Source, KindPostgres)

	poolConfig, err := pgxpool.ParseConfig(cfg.Source)
	if err != nil {
		return nil, &core.LoadError{Source: name, Err: err}
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, &core.LoadError{Source: name, Err: err}
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return nil, &core.LoadError{Source: name, Err: err}
	}

	return LoadPostgres(ctx, pool, cfg.Table, cfg.Schema)
}

// displayName hides credentials in database URLs and shortens file paths.
func displayName(src string, kind Kind) string {
	if kind != KindPostgres {
		return filepath.Base(src)
	}
	if cfg, err := pgxpool.ParseConfig(src); err == nil {
		cc := cfg.ConnConfig
		return fmt.Sprintf("postgres://%s:%d/%s", cc.Host, cc.Port, cc.Database)
	}
	return "postgres"
}
