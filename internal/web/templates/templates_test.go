package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/JonMunkholm/lineowners/internal/core"
	"github.com/a-h/templ"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestFacetOptions_KeepsHiddenSelections(t *testing.T) {
	fv := core.FacetView{
		Name:   "Län",
		Search: "upp",
		Options: []core.Option{
			{Value: "Uppsala", Count: 3, Selected: true},
		},
		Selected:       []string{"Skåne", "Uppsala"},
		HiddenSelected: 1,
	}

	out := renderString(t, FacetOptions(fv))

	if !strings.Contains(out, `<input type="hidden" name="values" value="Skåne">`) {
		t.Errorf("hidden selection missing: %s", out)
	}
	if strings.Contains(out, `type="hidden" name="values" value="Uppsala"`) {
		t.Errorf("visible selection rendered as hidden: %s", out)
	}
	if !strings.Contains(out, `<input type="checkbox" name="checked" value="true"> Markera alla`) {
		t.Errorf("select-all box should render unchecked: %s", out)
	}
	if !strings.Contains(out, "1 valda värden döljs") {
		t.Errorf("hidden selection hint missing: %s", out)
	}
	if !strings.Contains(out, `/api/facets/L%C3%A4n/selection`) {
		t.Errorf("facet path not escaped: %s", out)
	}
}

func TestFacetOptions_EmptySearch(t *testing.T) {
	out := renderString(t, FacetOptions(core.FacetView{Name: "Typ", Search: "zzz"}))

	if !strings.Contains(out, "Inga träffar") {
		t.Errorf("empty option list message missing: %s", out)
	}
	if strings.Contains(out, `" checked>`) {
		t.Errorf("select-all checked with no options: %s", out)
	}
}

func TestFacetOptions_SelectAllNeverChecked(t *testing.T) {
	fv := core.FacetView{
		Name: "Typ",
		Options: []core.Option{
			{Value: "El", Count: 2, Selected: true},
			{Value: "Fiber", Count: 1, Selected: true},
		},
		Selected: []string{"El", "Fiber"},
	}

	out := renderString(t, FacetOptions(fv))

	if strings.Contains(out, `name="checked" value="true" checked`) {
		t.Errorf("select-all box derived from the selection: %s", out)
	}
	if strings.Count(out, `value="El" checked>`) != 1 || strings.Count(out, `value="Fiber" checked>`) != 1 {
		t.Errorf("option checkboxes should reflect the selection: %s", out)
	}
	if !strings.Contains(out, `<input type="hidden" name="checked" value="false"><button type="submit">Avmarkera alla</button>`) {
		t.Errorf("deselect-all button missing: %s", out)
	}
}

func TestFacetPanel_SearchSubmitsWithoutScript(t *testing.T) {
	out := renderString(t, FacetPanel(core.FacetView{Name: "Län", Search: "sk"}))

	if !strings.Contains(out, `<form action="/api/facets/L%C3%A4n/search" method="post">`) {
		t.Errorf("search box not inside a form: %s", out)
	}
	if !strings.Contains(out, `<noscript><button type="submit">Sök</button></noscript>`) {
		t.Errorf("search submit button missing: %s", out)
	}
}

func TestResults_EscapesCells(t *testing.T) {
	v := core.View{
		Columns: []string{"Företag", "Omsättning (tkr)"},
		Rows: []core.Row{
			{"Företag": core.String(`<script>alert("x")</script>`), "Omsättning (tkr)": core.Number(1200)},
		},
		NumericColumns: []string{"Omsättning (tkr)"},
		FilteredCount:  1,
		TotalCount:     10,
	}

	out := renderString(t, Results(v, core.SortSpec{Column: "Företag", Dir: "asc"}))

	if strings.Contains(out, "<script>") {
		t.Errorf("cell not escaped: %s", out)
	}
	if !strings.Contains(out, `<td class="num">1200</td>`) {
		t.Errorf("numeric cell not right-aligned: %s", out)
	}
	if !strings.Contains(out, "Visar 1 av 10 rader") {
		t.Errorf("summary missing: %s", out)
	}
	if !strings.Contains(out, "dir=desc") {
		t.Errorf("active sort column should link to the opposite direction: %s", out)
	}
}

func TestResults_NoColumns(t *testing.T) {
	out := renderString(t, Results(core.View{FilteredCount: 3, TotalCount: 3}, core.SortSpec{}))

	if strings.Contains(out, "<table>") {
		t.Errorf("table rendered with no columns: %s", out)
	}
}

func TestDashboard_ModeChecked(t *testing.T) {
	p := Page{
		Title: "Ledningsägare",
		View:  core.View{Mode: "inclusive", AllColumns: []string{"Län"}, Columns: []string{"Län"}},
	}

	out := renderString(t, Dashboard(p))

	if !strings.Contains(out, `value="inclusive" checked>`) {
		t.Errorf("inclusive radio not checked: %s", out)
	}
	if !strings.Contains(out, `name="columns" value="Län" checked>`) {
		t.Errorf("visible column not checked: %s", out)
	}
}

func TestErrorAlert(t *testing.T) {
	out := renderString(t, ErrorAlert("Too many requests", "Slow down", "RATE001"))

	if !strings.Contains(out, "RATE001") || !strings.Contains(out, `role="alert"`) {
		t.Errorf("unexpected alert: %s", out)
	}
}
