// Package core provides the faceted filter engine for the line-owner
// registry dashboard.
//
// This package is the heart of the application, containing all filter and
// selection logic independent of any UI, row source or export format. It is
// used by the web handlers, the terminal UI and the CLI without modification.
//
// # Architecture
//
// The package is organized around four components:
//
//   - FacetIndex: the fixed, display-ordered universe of one categorical
//     column, answering "which values match this search".
//   - FacetState: per facet search text, visible options and selection.
//   - Apply / RowIndex: the row filter, as a scan or over Roaring bitmaps.
//   - Engine: the coordinator that applies user events in order and
//     republishes exactly the derived state each event can affect.
//
// A [Catalog] holds the dataset and facet indexes; both are read-only after
// load and shared by every engine:
//
//	cat, err := core.NewCatalog(ds, []string{"Län", "Företag"}, core.CatalogOptions{UseIndex: true})
//	eng := cat.NewEngine(core.WithMode(core.Exclusive))
//	eng.SetSearch("Län", "skå")
//	eng.ToggleSelectAll("Län", true)
//	rows := eng.FilteredRows()
//
// # Events
//
// Each Engine method is one event and returns the [Update] it published:
//
//   - SetSearch: UpdateOptions, the filter does not run
//   - SetSelection, ToggleSelectAll, SetMode, Reset: UpdateRows
//   - SetVisibleColumns: UpdateProjection, the filter does not run
//
// Select-all is scoped to the facet's current search: it adds (or removes)
// exactly the options the search currently shows. Selections hidden by the
// search are never touched.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Loading failures are [LoadError] and are fatal at startup; export failures
// are [ExportError] and leave the engine untouched. Selection values outside
// a facet's universe are dropped and logged rather than reported as errors.
package core
