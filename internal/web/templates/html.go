// Package templates renders the dashboard as templ components.
//
// Components are written against templ.ComponentFunc so the page and its
// HTMX partials share one set of render functions: the full Dashboard on
// first load, Main after a selection or mode change, FacetOptions after a
// search.
package templates

import (
	"encoding/hex"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
)

// htmlWriter writes markup and remembers the first error.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(parts ...string) {
	for _, p := range parts {
		if h.err != nil {
			return
		}
		_, h.err = io.WriteString(h.w, p)
	}
}

// text writes s escaped for element content and quoted attribute values.
func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) num(n int) {
	h.raw(strconv.Itoa(n))
}

// FacetID returns an element id for a facet. Facet names are free text, so
// the id is the hex of the name.
func FacetID(name string) string {
	return "facet-" + hex.EncodeToString([]byte(name))
}

// facetPath returns the API path for a facet event.
func facetPath(name, event string) string {
	return "/api/facets/" + url.PathEscape(name) + "/" + event
}

func checked(b bool) string {
	if b {
		return " checked"
	}
	return ""
}
