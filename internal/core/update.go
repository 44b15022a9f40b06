package core

// UpdateKind says which part of the view an event changed.
type UpdateKind int

const (
	// UpdateOptions: a facet's search text and option list changed.
	UpdateOptions UpdateKind = iota
	// UpdateRows: selections or mode changed and the filter ran again.
	UpdateRows
	// UpdateProjection: only the visible column set changed.
	UpdateProjection
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateOptions:
		return "options"
	case UpdateRows:
		return "rows"
	case UpdateProjection:
		return "projection"
	default:
		return "unknown"
	}
}

// Update is what one event republishes. Only the fields relevant to Kind
// are set:
//
//   - UpdateOptions: Facet, Options
//   - UpdateRows: Selected, Rows, Columns, Mode, Total
//   - UpdateProjection: Rows, Columns, Total
type Update struct {
	Kind     UpdateKind
	Facet    string
	Options  []string
	Selected map[string][]string
	Rows     []Row
	Columns  []string
	Mode     CombinationMode
	Total    int
}

// Publisher is the rendering surface's side of the engine. Publish is called
// once per event, after the engine's state is consistent.
type Publisher interface {
	Publish(Update)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Update)

// Publish calls f(u).
func (f PublisherFunc) Publish(u Update) { f(u) }

// Option is one checkbox in a facet's option list.
type Option struct {
	Value    string `json:"value"`
	Count    int    `json:"count"`
	Selected bool   `json:"selected"`
}

// FacetView is the render state of one facet.
type FacetView struct {
	Name     string   `json:"name"`
	Search   string   `json:"search"`
	Options  []Option `json:"options"`
	Selected []string `json:"selected"`
	// HiddenSelected counts selected values the current search hides.
	HiddenSelected int `json:"hiddenSelected"`
}

// View is the full tuple a rendering surface needs to redraw.
type View struct {
	Facets         []FacetView `json:"facets"`
	Columns        []string    `json:"columns"`
	AllColumns     []string    `json:"allColumns"`
	Rows           []Row       `json:"rows"`
	Mode           string      `json:"mode"`
	FilteredCount  int         `json:"filteredCount"`
	TotalCount     int         `json:"totalCount"`
	NumericColumns []string    `json:"numericColumns,omitempty"`
}
