package templates

import (
	"context"
	"io"

	"github.com/JonMunkholm/lineowners/internal/core"
	"github.com/a-h/templ"
)

// FacetPanel renders one facet: title, search box and option list.
func FacetPanel(fv core.FacetView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		id := FacetID(fv.Name)
		h := &htmlWriter{w: w}
		h.raw(`<div class="facet" id="`, id, `"><h2>`)
		h.text(fv.Name)
		search := facetPath(fv.Name, "search")
		h.raw(`</h2><form action="`)
		h.text(search)
		h.raw(`" method="post"><input type="search" name="q" placeholder="Sök..." value="`)
		h.text(fv.Search)
		h.raw(`" hx-post="`)
		h.text(search)
		h.raw(`" hx-trigger="input changed delay:300ms, search" hx-target="#`, id, `-options">`,
			`<noscript><button type="submit">Sök</button></noscript></form>`)
		h.raw(`<div id="`, id, `-options">`)
		if h.err != nil {
			return h.err
		}
		if err := FacetOptions(fv).Render(ctx, w); err != nil {
			return err
		}
		h.raw(`</div></div>`)
		return h.err
	})
}

// FacetOptions renders the select-all controls and the option checkboxes for
// the options the current search shows. Selected values the search hides are
// carried as hidden inputs so a checkbox change does not drop them.
//
// The select-all box is a one-shot trigger and always renders unchecked:
// ticking it selects every shown option. Deselecting goes through its own
// button.
func FacetOptions(fv core.FacetView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}

		shown := make(map[string]bool, len(fv.Options))
		for _, o := range fv.Options {
			shown[o.Value] = true
		}

		selectAll := facetPath(fv.Name, "select-all")
		h.raw(`<form action="`)
		h.text(selectAll)
		h.raw(`" method="post" hx-post="`)
		h.text(selectAll)
		h.raw(`" hx-trigger="change" hx-target="#main">`,
			`<label><input type="checkbox" name="checked" value="true"> Markera alla</label>`,
			`<noscript><button type="submit" name="checked" value="true">Markera alla</button></noscript></form>`)
		h.raw(`<form action="`)
		h.text(selectAll)
		h.raw(`" method="post" hx-post="`)
		h.text(selectAll)
		h.raw(`" hx-target="#main"><input type="hidden" name="checked" value="false">`,
			`<button type="submit">Avmarkera alla</button></form>`)

		selection := facetPath(fv.Name, "selection")
		h.raw(`<form class="options" action="`)
		h.text(selection)
		h.raw(`" method="post" hx-post="`)
		h.text(selection)
		h.raw(`" hx-trigger="change" hx-target="#main">`)
		for _, v := range fv.Selected {
			if shown[v] {
				continue
			}
			h.raw(`<input type="hidden" name="values" value="`)
			h.text(v)
			h.raw(`">`)
		}
		for _, o := range fv.Options {
			h.raw(`<label><input type="checkbox" name="values" value="`)
			h.text(o.Value)
			h.raw(`"`, checked(o.Selected), `> `)
			h.text(o.Value)
			h.raw(` <span class="count">(`)
			h.num(o.Count)
			h.raw(`)</span></label>`)
		}
		if len(fv.Options) == 0 {
			h.raw(`<p class="count">Inga träffar</p>`)
		}
		h.raw(`<noscript><button type="submit">Filtrera</button></noscript></form>`)

		if fv.HiddenSelected > 0 {
			h.raw(`<p class="hint">`)
			h.num(fv.HiddenSelected)
			h.raw(` valda värden döljs av sökningen</p>`)
		}
		return h.err
	})
}
