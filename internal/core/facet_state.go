package core

// FacetState is the mutable per-facet state owned by one Engine:
// the search text, the options it currently matches, and the selection.
//
// The selection is a value set, not a view of the option list. Narrowing the
// search hides already-selected values from the options but keeps them
// selected.
type FacetState struct {
	index    *FacetIndex
	search   string
	visible  []string
	selected ValueSet
}

// NewFacetState returns a state with an empty search and no selection.
func NewFacetState(index *FacetIndex) *FacetState {
	return &FacetState{
		index:    index,
		visible:  index.Universe(),
		selected: make(ValueSet),
	}
}

// Name returns the facet's column name.
func (f *FacetState) Name() string {
	return f.index.Column()
}

// Index returns the shared, read-only index behind this facet.
func (f *FacetState) Index() *FacetIndex {
	return f.index
}

// SetSearch replaces the search text and recomputes the visible options.
// The selection is left untouched.
func (f *FacetState) SetSearch(text string) {
	f.search = text
	f.visible = f.index.Matches(text)
}

// SetSelected replaces the selection wholesale. Values outside the universe
// are dropped and returned so the caller can report them.
func (f *FacetState) SetSelected(values []string) (dropped []string) {
	next := make(ValueSet, len(values))
	for _, v := range values {
		if !f.index.Contains(v) {
			dropped = append(dropped, v)
			continue
		}
		next[v] = struct{}{}
	}
	f.selected = next
	return dropped
}

// SelectAllVisible adds every currently visible option to the selection.
func (f *FacetState) SelectAllVisible() {
	for _, v := range f.visible {
		f.selected[v] = struct{}{}
	}
}

// DeselectAllVisible removes every currently visible option from the
// selection. Selected values hidden by the search stay selected.
func (f *FacetState) DeselectAllVisible() {
	for _, v := range f.visible {
		delete(f.selected, v)
	}
}

// Clear resets both search and selection.
func (f *FacetState) Clear() {
	f.SetSearch("")
	f.selected = make(ValueSet)
}

// SearchText returns the current search text.
func (f *FacetState) SearchText() string {
	return f.search
}

// VisibleOptions returns a copy of the options matching the search.
func (f *FacetState) VisibleOptions() []string {
	out := make([]string, len(f.visible))
	copy(out, f.visible)
	return out
}

// Selected returns the selected values in universe order.
func (f *FacetState) Selected() []string {
	if len(f.selected) == 0 {
		return nil
	}
	out := make([]string, 0, len(f.selected))
	for _, v := range f.index.universe {
		if f.selected.Has(v) {
			out = append(out, v)
		}
	}
	return out
}

// SelectedSet returns a copy of the selection.
func (f *FacetState) SelectedSet() ValueSet {
	out := make(ValueSet, len(f.selected))
	for v := range f.selected {
		out[v] = struct{}{}
	}
	return out
}

// IsSelected reports whether v is selected.
func (f *FacetState) IsSelected(v string) bool {
	return f.selected.Has(v)
}

// Active reports whether the facet constrains rows.
func (f *FacetState) Active() bool {
	return len(f.selected) > 0
}
