package templates

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/JonMunkholm/lineowners/internal/core"
	"github.com/a-h/templ"
)

// Results renders the row count and the filtered, projected table.
func Results(v core.View, sort core.SortSpec) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		numeric := make(map[string]bool, len(v.NumericColumns))
		for _, c := range v.NumericColumns {
			numeric[c] = true
		}

		h.raw(`<p id="summary">Visar `)
		h.num(v.FilteredCount)
		h.raw(` av `)
		h.num(v.TotalCount)
		h.raw(` rader</p>`)

		if len(v.Columns) == 0 {
			h.raw(`<p class="count">Inga kolumner valda</p>`)
			return h.err
		}

		h.raw(`<table><thead><tr>`)
		for _, c := range v.Columns {
			h.raw(`<th><a href="`)
			h.text(sortLink(c, sort))
			h.raw(`">`)
			h.text(c)
			if sort.Column == c {
				if strings.EqualFold(sort.Dir, "desc") {
					h.raw(` ▼`)
				} else {
					h.raw(` ▲`)
				}
			}
			h.raw(`</a></th>`)
		}
		h.raw(`</tr></thead><tbody>`)
		for _, row := range v.Rows {
			h.raw(`<tr>`)
			for _, c := range v.Columns {
				if numeric[c] {
					h.raw(`<td class="num">`)
				} else {
					h.raw(`<td>`)
				}
				h.text(row.Get(c).String())
				h.raw(`</td>`)
			}
			h.raw(`</tr>`)
			if h.err != nil {
				return h.err
			}
		}
		h.raw(`</tbody></table>`)
		return h.err
	})
}

// sortLink toggles the direction when col is already the sort column.
func sortLink(col string, current core.SortSpec) string {
	dir := "asc"
	if current.Column == col && !strings.EqualFold(current.Dir, "desc") {
		dir = "desc"
	}
	q := url.Values{"sort": {col}, "dir": {dir}}
	return "/?" + q.Encode()
}
