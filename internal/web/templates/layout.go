package templates

import (
	"context"
	"io"

	"github.com/JonMunkholm/lineowners/internal/core"
	"github.com/a-h/templ"
)

// Page is everything the dashboard needs to render.
type Page struct {
	Title string
	View  core.View
	Sort  core.SortSpec
}

const styles = `
body{font-family:system-ui,sans-serif;margin:0;color:#1f2937;background:#f9fafb}
header{background:#1e3a5f;color:#fff;padding:.75rem 1.5rem}
header h1{margin:0;font-size:1.25rem}
#main{display:grid;grid-template-columns:18rem 1fr;gap:1rem;padding:1rem 1.5rem}
.facet{background:#fff;border:1px solid #e5e7eb;border-radius:.375rem;padding:.5rem;margin-bottom:.75rem}
.facet h2{font-size:.95rem;margin:.25rem 0 .5rem}
.facet input[type=search]{width:100%;box-sizing:border-box;padding:.25rem}
.options{max-height:14rem;overflow-y:auto;font-size:.85rem}
.options label{display:block}
.count{color:#6b7280}
.hint{font-size:.75rem;color:#92400e}
.controls{display:flex;flex-wrap:wrap;gap:1rem;align-items:center;margin-bottom:.75rem}
.columns label{margin-right:.5rem;font-size:.85rem}
table{border-collapse:collapse;width:100%;background:#fff;font-size:.85rem}
th,td{border:1px solid #e5e7eb;padding:.25rem .5rem;text-align:left}
td.num{text-align:right}
.alert{background:#fef2f2;border:1px solid #fecaca;color:#991b1b;padding:.5rem 1rem;border-radius:.375rem}
`

// Dashboard renders the full page.
func Dashboard(p Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<!DOCTYPE html><html lang="sv"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`)
		h.text(p.Title)
		h.raw(`</title>`,
			`<script src="https://unpkg.com/htmx.org@2.0.4" crossorigin="anonymous"></script>`,
			`<style>`, styles, `</style></head><body>`,
			`<header><h1>`)
		h.text(p.Title)
		h.raw(`</h1></header><div id="errors"></div><main id="main">`)
		if h.err != nil {
			return h.err
		}
		if err := Main(p).Render(ctx, w); err != nil {
			return err
		}
		h.raw(`</main></body></html>`)
		return h.err
	})
}

// Main renders the facet sidebar, the controls and the results table. It is
// the swap target for every event that re-runs the filter.
func Main(p Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<aside>`)
		for _, fv := range p.View.Facets {
			if h.err != nil {
				return h.err
			}
			if err := FacetPanel(fv).Render(ctx, w); err != nil {
				return err
			}
		}
		h.raw(`</aside><section>`)
		writeControls(h, p.View)
		if h.err != nil {
			return h.err
		}
		if err := Results(p.View, p.Sort).Render(ctx, w); err != nil {
			return err
		}
		h.raw(`</section>`)
		return h.err
	})
}

func writeControls(h *htmlWriter, v core.View) {
	h.raw(`<div class="controls">`)

	h.raw(`<form action="/api/mode" method="post" hx-post="/api/mode" hx-trigger="change" hx-target="#main">`)
	for _, m := range []core.CombinationMode{core.Exclusive, core.Inclusive} {
		name := m.String()
		h.raw(`<label><input type="radio" name="mode" value="`, name, `"`, checked(v.Mode == name), `> `)
		h.text(modeLabel(m))
		h.raw(`</label> `)
	}
	h.raw(`<noscript><button type="submit">OK</button></noscript></form>`)

	h.raw(`<form action="/api/reset" method="post" hx-post="/api/reset" hx-target="#main">`,
		`<button type="submit">Återställ</button></form>`)

	h.raw(`<a href="/api/export.xlsx" download>Exportera Excel</a> `,
		`<a href="/api/export.csv" download>Exportera CSV</a>`)
	h.raw(`</div>`)

	visible := make(map[string]bool, len(v.Columns))
	for _, c := range v.Columns {
		visible[c] = true
	}
	h.raw(`<form class="columns controls" action="/api/columns" method="post" hx-post="/api/columns" hx-trigger="change" hx-target="#main">`)
	for _, c := range v.AllColumns {
		h.raw(`<label><input type="checkbox" name="columns" value="`)
		h.text(c)
		h.raw(`"`, checked(visible[c]), `> `)
		h.text(c)
		h.raw(`</label>`)
	}
	h.raw(`<noscript><button type="submit">Visa</button></noscript></form>`)
}

func modeLabel(m core.CombinationMode) string {
	if m == core.Inclusive {
		return "Inkluderande (någon)"
	}
	return "Exkluderande (alla)"
}
