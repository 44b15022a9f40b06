package core

import (
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// EventStats describes one processed event, for metrics.
type EventStats struct {
	Event    string
	Kind     UpdateKind
	Filtered bool // the row filter ran for this event
	Duration time.Duration
	Rows     int // filtered row count after the event
}

// Observer receives stats for every processed event.
type Observer interface {
	Observe(EventStats)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPublisher sets the rendering surface notified after each event.
func WithPublisher(p Publisher) EngineOption {
	return func(e *Engine) { e.publisher = p }
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) { e.observer = o }
}

// WithMode sets the initial (and reset) combination mode.
func WithMode(m CombinationMode) EngineOption {
	return func(e *Engine) {
		e.mode = m
		e.defaultMode = m
	}
}

// WithVisibleColumns sets the initial (and reset) visible columns.
func WithVisibleColumns(cols []string) EngineOption {
	return func(e *Engine) { e.initialColumns = cols }
}

// Engine coordinates one user's filter state over a shared Catalog.
//
// Every method handles exactly one event to completion and is not safe for
// concurrent use; callers serialize events per engine. The engine is the
// only writer of its FacetStates and the only caller of the row filter.
type Engine struct {
	catalog *Catalog
	facets  []*FacetState
	byName  map[string]*FacetState

	mode           CombinationMode
	defaultMode    CombinationMode
	columns        []string
	initialColumns []string
	filtered       []Row

	logger    *slog.Logger
	publisher Publisher
	observer  Observer
}

func newEngine(c *Catalog, opts ...EngineOption) *Engine {
	e := &Engine{
		catalog: c,
		byName:  make(map[string]*FacetState, len(c.facets)),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, ix := range c.facets {
		fs := NewFacetState(ix)
		e.facets = append(e.facets, fs)
		e.byName[ix.Column()] = fs
	}

	e.columns = e.normalizeColumns(e.initialColumns)
	e.filtered = c.dataset.Rows()
	return e
}

// SetSearch handles a facet search-text change. Only the facet's option
// list changes; the row filter does not run.
func (e *Engine) SetSearch(facet, text string) (Update, error) {
	start := time.Now()
	fs, err := e.facet(facet)
	if err != nil {
		return Update{}, err
	}

	fs.SetSearch(text)

	u := Update{
		Kind:    UpdateOptions,
		Facet:   facet,
		Options: fs.VisibleOptions(),
	}
	e.publish("search", u, false, start)
	return u, nil
}

// SetSelection handles a manual checkbox edit: the facet's selection is
// replaced by values. Values outside the facet's universe are dropped and
// logged.
func (e *Engine) SetSelection(facet string, values []string) (Update, error) {
	start := time.Now()
	fs, err := e.facet(facet)
	if err != nil {
		return Update{}, err
	}

	if dropped := fs.SetSelected(values); len(dropped) > 0 {
		e.logger.Warn("selection values outside facet universe dropped",
			"facet", facet,
			"dropped", dropped,
		)
	}

	return e.refilter("selection", start), nil
}

// ToggleSelectAll handles the select-all checkbox. Checking it adds every
// option matching the facet's current search; unchecking removes them.
// Selections hidden by the search are left alone either way.
func (e *Engine) ToggleSelectAll(facet string, checked bool) (Update, error) {
	start := time.Now()
	fs, err := e.facet(facet)
	if err != nil {
		return Update{}, err
	}

	event := "select_all"
	if checked {
		fs.SelectAllVisible()
	} else {
		event = "deselect_all"
		fs.DeselectAllVisible()
	}

	return e.refilter(event, start), nil
}

// SetMode handles a combination-mode change.
func (e *Engine) SetMode(mode CombinationMode) Update {
	start := time.Now()
	e.mode = mode
	return e.refilter("mode", start)
}

// SetVisibleColumns handles a column-selector change. Unknown and duplicate
// names are dropped. The row filter does not run.
func (e *Engine) SetVisibleColumns(columns []string) Update {
	start := time.Now()
	e.columns = e.normalizeColumns(columns)

	u := Update{
		Kind:    UpdateProjection,
		Rows:    e.projected(),
		Columns: slices.Clone(e.columns),
		Total:   len(e.filtered),
	}
	e.publish("columns", u, false, start)
	return u
}

// Reset clears every search and selection and restores the initial mode
// and columns.
func (e *Engine) Reset() Update {
	start := time.Now()
	for _, fs := range e.facets {
		fs.Clear()
	}
	e.mode = e.defaultMode
	e.columns = e.normalizeColumns(e.initialColumns)
	return e.refilter("reset", start)
}

// Mode returns the current combination mode.
func (e *Engine) Mode() CombinationMode {
	return e.mode
}

// VisibleColumns returns the current column projection.
func (e *Engine) VisibleColumns() []string {
	return slices.Clone(e.columns)
}

// FacetNames returns the facet names in display order.
func (e *Engine) FacetNames() []string {
	return e.catalog.FacetNames()
}

// FilteredRows returns the current filtered rows with every column, in
// dataset order. This is what exports serialize.
func (e *Engine) FilteredRows() []Row {
	return e.filtered
}

// Selections returns a copy of every active facet selection.
func (e *Engine) Selections() map[string]ValueSet {
	out := make(map[string]ValueSet, len(e.facets))
	for _, fs := range e.facets {
		if fs.Active() {
			out[fs.Name()] = fs.SelectedSet()
		}
	}
	return out
}

// FacetView returns the render state of one facet.
func (e *Engine) FacetView(name string) (FacetView, error) {
	fs, err := e.facet(name)
	if err != nil {
		return FacetView{}, err
	}
	return facetView(fs), nil
}

// View returns everything a rendering surface needs to redraw.
func (e *Engine) View() View {
	ds := e.catalog.dataset
	v := View{
		Facets:        make([]FacetView, len(e.facets)),
		Columns:       slices.Clone(e.columns),
		AllColumns:    ds.Columns(),
		Rows:          e.projected(),
		Mode:          e.mode.String(),
		FilteredCount: len(e.filtered),
		TotalCount:    ds.Len(),
	}
	for i, fs := range e.facets {
		v.Facets[i] = facetView(fs)
	}
	for _, c := range v.AllColumns {
		if ds.IsNumeric(c) {
			v.NumericColumns = append(v.NumericColumns, c)
		}
	}
	return v
}

func facetView(fs *FacetState) FacetView {
	visible := fs.VisibleOptions()
	fv := FacetView{
		Name:     fs.Name(),
		Search:   fs.SearchText(),
		Options:  make([]Option, len(visible)),
		Selected: fs.Selected(),
	}
	shown := 0
	for i, v := range visible {
		sel := fs.IsSelected(v)
		if sel {
			shown++
		}
		fv.Options[i] = Option{Value: v, Count: fs.Index().Count(v), Selected: sel}
	}
	fv.HiddenSelected = len(fv.Selected) - shown
	return fv
}

func (e *Engine) facet(name string) (*FacetState, error) {
	fs, ok := e.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFacet, name)
	}
	return fs, nil
}

// refilter runs the row filter over the current selections and publishes
// an UpdateRows.
func (e *Engine) refilter(event string, start time.Time) Update {
	selections := make([]Selection, 0, len(e.facets))
	selected := make(map[string][]string, len(e.facets))
	for _, fs := range e.facets {
		selected[fs.Name()] = fs.Selected()
		if fs.Active() {
			selections = append(selections, Selection{Column: fs.Name(), Values: fs.SelectedSet()})
		}
	}

	if idx := e.catalog.index; idx != nil {
		e.filtered = idx.Apply(selections, e.mode)
	} else {
		e.filtered = ApplySelections(e.catalog.dataset.Rows(), selections, e.mode)
	}

	e.logger.Debug("filter applied",
		"event", event,
		"mode", e.mode.String(),
		"active_facets", len(selections),
		"rows", len(e.filtered),
	)

	u := Update{
		Kind:     UpdateRows,
		Selected: selected,
		Rows:     e.projected(),
		Columns:  slices.Clone(e.columns),
		Mode:     e.mode,
		Total:    len(e.filtered),
	}
	e.publish(event, u, true, start)
	return u
}

func (e *Engine) publish(event string, u Update, filtered bool, start time.Time) {
	if e.observer != nil {
		e.observer.Observe(EventStats{
			Event:    event,
			Kind:     u.Kind,
			Filtered: filtered,
			Duration: time.Since(start),
			Rows:     len(e.filtered),
		})
	}
	if e.publisher != nil {
		e.publisher.Publish(u)
	}
}

// projected returns the filtered rows restricted to the visible columns.
func (e *Engine) projected() []Row {
	if len(e.columns) == len(e.catalog.dataset.columns) {
		return e.filtered
	}
	out := make([]Row, len(e.filtered))
	for i, r := range e.filtered {
		out[i] = r.Project(e.columns)
	}
	return out
}

// normalizeColumns keeps known columns in the given order, dropping unknown
// names and repeats. A nil list means every column.
func (e *Engine) normalizeColumns(columns []string) []string {
	ds := e.catalog.dataset
	if columns == nil {
		return ds.Columns()
	}

	out := make([]string, 0, len(columns))
	seen := make(map[string]bool, len(columns))
	var unknown []string
	for _, c := range columns {
		if seen[c] {
			continue
		}
		if !ds.HasColumn(c) {
			unknown = append(unknown, c)
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	if len(unknown) > 0 {
		e.logger.Warn("unknown columns ignored", "columns", unknown)
	}
	return out
}
