package core

import (
	"fmt"
	"log/slog"
)

// Catalog is the read-only handle shared by every engine: the dataset, one
// FacetIndex per facet column, and the optional row index.
type Catalog struct {
	dataset *Dataset
	facets  []*FacetIndex
	byName  map[string]*FacetIndex
	index   *RowIndex
}

// CatalogOptions controls how a Catalog is built.
type CatalogOptions struct {
	// UseIndex builds a bitmap row index over the facet columns.
	UseIndex bool
}

// NewCatalog builds the facet indexes for facetColumns. Every facet column
// must exist in the dataset.
func NewCatalog(ds *Dataset, facetColumns []string, opts CatalogOptions) (*Catalog, error) {
	if len(facetColumns) == 0 {
		return nil, fmt.Errorf("catalog: at least one facet column is required")
	}

	c := &Catalog{
		dataset: ds,
		facets:  make([]*FacetIndex, 0, len(facetColumns)),
		byName:  make(map[string]*FacetIndex, len(facetColumns)),
	}

	for _, col := range facetColumns {
		if !ds.HasColumn(col) {
			return nil, fmt.Errorf("catalog: facet %q: %w", col, ErrMissingColumn)
		}
		if _, dup := c.byName[col]; dup {
			return nil, fmt.Errorf("catalog: facet %q listed twice", col)
		}
		ix := NewFacetIndex(col, ds.Rows())
		c.facets = append(c.facets, ix)
		c.byName[col] = ix
	}

	if opts.UseIndex {
		idx, err := NewRowIndex(ds.Rows(), facetColumns)
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		c.index = idx
	}

	slog.Debug("catalog built",
		"rows", ds.Len(),
		"facets", len(c.facets),
		"indexed", c.index != nil,
	)

	return c, nil
}

// Dataset returns the shared dataset.
func (c *Catalog) Dataset() *Dataset {
	return c.dataset
}

// Facets returns the facet indexes in configured order.
func (c *Catalog) Facets() []*FacetIndex {
	out := make([]*FacetIndex, len(c.facets))
	copy(out, c.facets)
	return out
}

// Facet looks up a facet index by column name.
func (c *Catalog) Facet(name string) (*FacetIndex, bool) {
	ix, ok := c.byName[name]
	return ix, ok
}

// FacetNames returns the facet column names in configured order.
func (c *Catalog) FacetNames() []string {
	names := make([]string, len(c.facets))
	for i, f := range c.facets {
		names[i] = f.Column()
	}
	return names
}

// Indexed reports whether filter passes use the bitmap index.
func (c *Catalog) Indexed() bool {
	return c.index != nil
}

// NewEngine creates an engine with fresh facet states over this catalog.
func (c *Catalog) NewEngine(opts ...EngineOption) *Engine {
	return newEngine(c, opts...)
}
