package core

import (
	"slices"
	"testing"
)

func typeState() *FacetState {
	rows := []Row{
		{colType: String("Cable")},
		{colType: String("Cabinet")},
		{colType: String("Pipe")},
	}
	return NewFacetState(NewFacetIndex(colType, rows))
}

func TestFacetState_Initial(t *testing.T) {
	fs := typeState()
	if fs.SearchText() != "" {
		t.Errorf("SearchText() = %q, want empty", fs.SearchText())
	}
	if got := fs.VisibleOptions(); !slices.Equal(got, fs.Index().Universe()) {
		t.Errorf("VisibleOptions() = %v, want full universe", got)
	}
	if fs.Active() {
		t.Error("Active() = true for a fresh state")
	}
	if got := fs.Selected(); got != nil {
		t.Errorf("Selected() = %v, want nil", got)
	}
}

func TestFacetState_SetSearchKeepsSelection(t *testing.T) {
	fs := typeState()
	fs.SetSelected([]string{"Pipe"})
	fs.SetSearch("cab")

	if got := fs.VisibleOptions(); !slices.Equal(got, []string{"Cable", "Cabinet"}) {
		t.Errorf("VisibleOptions() = %v, want [Cable Cabinet]", got)
	}
	if !fs.IsSelected("Pipe") {
		t.Error("hidden selection was dropped by SetSearch")
	}
}

func TestFacetState_SelectAllVisible(t *testing.T) {
	tests := []struct {
		name     string
		initial  []string
		search   string
		want     []string
		repeated bool
	}{
		{
			name:   "no search selects the universe",
			search: "",
			want:   []string{"Pipe", "Cable", "Cabinet"},
		},
		{
			name:    "result is union of prior selection and visible",
			initial: []string{"Pipe"},
			search:  "cab",
			want:    []string{"Pipe", "Cable", "Cabinet"},
		},
		{
			name:     "idempotent",
			search:   "cab",
			want:     []string{"Cable", "Cabinet"},
			repeated: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := typeState()
			fs.SetSelected(tt.initial)
			fs.SetSearch(tt.search)
			fs.SelectAllVisible()
			if tt.repeated {
				fs.SelectAllVisible()
			}
			if got := fs.Selected(); !slices.Equal(got, tt.want) {
				t.Errorf("Selected() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFacetState_DeselectAllVisible(t *testing.T) {
	t.Run("removes only visible values", func(t *testing.T) {
		fs := typeState()
		fs.SetSelected([]string{"Pipe", "Cable"})
		fs.SetSearch("cab")
		fs.DeselectAllVisible()

		if got := fs.Selected(); !slices.Equal(got, []string{"Pipe"}) {
			t.Errorf("Selected() = %v, want [Pipe]", got)
		}
	})

	t.Run("no search clears everything", func(t *testing.T) {
		fs := typeState()
		fs.SetSelected([]string{"Pipe", "Cable"})
		fs.DeselectAllVisible()

		if fs.Active() {
			t.Errorf("Selected() = %v, want none", fs.Selected())
		}
	})

	t.Run("repeated deselect is idempotent", func(t *testing.T) {
		fs := typeState()
		fs.SetSelected([]string{"Pipe", "Cable"})
		fs.SetSearch("cab")
		fs.DeselectAllVisible()
		once := fs.Selected()
		fs.DeselectAllVisible()

		if got := fs.Selected(); !slices.Equal(got, once) || !slices.Equal(got, []string{"Pipe"}) {
			t.Errorf("Selected() after second deselect = %v, want %v", got, once)
		}
	})

	t.Run("select then deselect restores prior selection", func(t *testing.T) {
		fs := typeState()
		fs.SetSelected([]string{"Pipe"})
		fs.SetSearch("cab")
		fs.SelectAllVisible()
		fs.DeselectAllVisible()

		if got := fs.Selected(); !slices.Equal(got, []string{"Pipe"}) {
			t.Errorf("Selected() = %v, want [Pipe]", got)
		}
	})
}

func TestFacetState_SetSelected(t *testing.T) {
	tests := []struct {
		name        string
		values      []string
		want        []string
		wantDropped []string
	}{
		{
			name:   "replaces wholesale in universe order",
			values: []string{"Cabinet", "Pipe"},
			want:   []string{"Pipe", "Cabinet"},
		},
		{
			name:        "values outside universe are dropped",
			values:      []string{"Cable", "Gas"},
			want:        []string{"Cable"},
			wantDropped: []string{"Gas"},
		},
		{
			name:   "empty clears",
			values: nil,
			want:   nil,
		},
		{
			name:        "matching is exact, not case-folded",
			values:      []string{"cable"},
			want:        nil,
			wantDropped: []string{"cable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := typeState()
			fs.SetSelected([]string{"Pipe", "Cable", "Cabinet"})

			dropped := fs.SetSelected(tt.values)
			if !slices.Equal(dropped, tt.wantDropped) {
				t.Errorf("dropped = %v, want %v", dropped, tt.wantDropped)
			}
			if got := fs.Selected(); !slices.Equal(got, tt.want) {
				t.Errorf("Selected() = %v, want %v", got, tt.want)
			}
			for v := range fs.SelectedSet() {
				if !fs.Index().Contains(v) {
					t.Errorf("selection holds %q outside the universe", v)
				}
			}
		})
	}
}

func TestFacetState_Clear(t *testing.T) {
	fs := typeState()
	fs.SetSearch("cab")
	fs.SelectAllVisible()
	fs.Clear()

	if fs.SearchText() != "" || fs.Active() {
		t.Errorf("after Clear() search = %q, selected = %v", fs.SearchText(), fs.Selected())
	}
	if len(fs.VisibleOptions()) != fs.Index().Len() {
		t.Errorf("VisibleOptions() = %v, want full universe", fs.VisibleOptions())
	}
}
