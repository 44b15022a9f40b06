// Package cli implements facetctl, the command-line front end to the filter
// engine: listing facets, exporting a filtered selection and running the
// terminal UI. It reads the same environment as the server; flags override
// individual settings.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/JonMunkholm/lineowners/internal/config"
	"github.com/JonMunkholm/lineowners/internal/core"
	"github.com/JonMunkholm/lineowners/internal/logging"
	"github.com/JonMunkholm/lineowners/internal/source"
	"github.com/spf13/cobra"
)

// flagEnv maps persistent flags to the environment variables they override.
var flagEnv = map[string]string{
	"source":    "DATASET_SOURCE",
	"sheet":     "DATASET_SHEET",
	"table":     "DATASET_TABLE",
	"facets":    "DATASET_FACETS",
	"numeric":   "DATASET_NUMERIC_COLUMNS",
	"mode":      "FILTER_DEFAULT_MODE",
	"log-level": "LOG_LEVEL",
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "facetctl",
		Short: "Filter and export the line-owner registry",
		Long: `facetctl loads the line-owner registry from a spreadsheet, CSV file or
PostgreSQL table and applies the same faceted filters as the web dashboard.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("source", "", "dataset file (.xlsx, .csv) or postgres:// URL")
	pf.String("sheet", "", "worksheet to read (default: first sheet)")
	pf.String("table", "", "table to read from a database source")
	pf.String("facets", "", "comma-separated facet columns")
	pf.String("numeric", "", "comma-separated numeric columns")
	pf.String("mode", "", "combination mode: exclusive or inclusive")
	pf.String("log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(newFacetsCmd(), newExportCmd(), newTUICmd())
	return root
}

// loadConfig reads the environment with changed flags taking precedence.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	overrides := make(map[string]string)
	for flag, env := range flagEnv {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			overrides[env] = f.Value.String()
		}
	}

	return config.LoadFrom(func(key string) string {
		if v, ok := overrides[key]; ok {
			return v
		}
		return os.Getenv(key)
	})
}

// setup loads configuration, logs to stderr and opens the catalog.
func setup(cmd *cobra.Command) (*config.Config, *core.Catalog, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logging.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	cat, err := openCatalog(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, cat, nil
}

func openCatalog(ctx context.Context, cfg *config.Config) (*core.Catalog, error) {
	ds, err := source.Open(ctx, source.FromConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", core.FormatUserError(err), err)
	}
	return core.NewCatalog(ds, cfg.Dataset.Facets, core.CatalogOptions{UseIndex: cfg.Filter.UseIndex})
}

func newEngine(cfg *config.Config, cat *core.Catalog) (*core.Engine, error) {
	mode, err := core.ParseMode(cfg.Filter.DefaultMode)
	if err != nil {
		return nil, err
	}
	return cat.NewEngine(core.WithMode(mode)), nil
}

// applySelections applies repeated --select Facet=Value flags, one
// SetSelection per facet.
func applySelections(e *core.Engine, selects []string) error {
	byFacet := make(map[string][]string)
	var order []string
	for _, s := range selects {
		facet, value, ok := strings.Cut(s, "=")
		if !ok || facet == "" {
			return fmt.Errorf("invalid --select %q: want Facet=Value", s)
		}
		if _, seen := byFacet[facet]; !seen {
			order = append(order, facet)
		}
		byFacet[facet] = append(byFacet[facet], value)
	}

	for _, facet := range order {
		if _, err := e.SetSelection(facet, byFacet[facet]); err != nil {
			return err
		}
	}
	return nil
}
