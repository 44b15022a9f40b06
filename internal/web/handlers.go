package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/lineowners/internal/core"
	"github.com/JonMunkholm/lineowners/internal/export"
	"github.com/JonMunkholm/lineowners/internal/logging"
	"github.com/JonMunkholm/lineowners/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// maxEventBody caps JSON event bodies.
const maxEventBody = 1 << 20

// eventRequest is the body of every event endpoint. Each endpoint reads
// only its own field.
type eventRequest struct {
	Query   string   `json:"q"`
	Values  []string `json:"values"`
	Checked bool     `json:"checked"`
	Mode    string   `json:"mode"`
	Columns []string `json:"columns"`
}

// updateResponse is the JSON form of a core.Update.
type updateResponse struct {
	Kind     string              `json:"kind"`
	Facet    string              `json:"facet,omitempty"`
	Options  []string            `json:"options,omitempty"`
	Selected map[string][]string `json:"selected,omitempty"`
	Rows     []core.Row          `json:"rows,omitempty"`
	Columns  []string            `json:"columns,omitempty"`
	Mode     string              `json:"mode,omitempty"`
	Total    int                 `json:"total"`
}

func toResponse(u core.Update) updateResponse {
	resp := updateResponse{
		Kind:     u.Kind.String(),
		Facet:    u.Facet,
		Options:  u.Options,
		Selected: u.Selected,
		Rows:     u.Rows,
		Columns:  u.Columns,
		Total:    u.Total,
	}
	if u.Kind == core.UpdateRows {
		resp.Mode = u.Mode.String()
	}
	return resp
}

// handleDashboard renders the full page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	page, err := s.currentPage(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Dashboard(page).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render dashboard", "error", err)
	}
}

// handleView returns the session's full view as JSON, sorted by the
// optional sort and dir query parameters.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	page, err := s.currentPage(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, page.View)
}

// handleSearch applies a facet search-text change.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	facet, req, ok := s.facetEvent(w, r)
	if !ok {
		return
	}
	s.apply(w, r, func(e *core.Engine) (core.Update, error) {
		return e.SetSearch(facet, req.Query)
	})
}

// handleSelection replaces a facet's selection.
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	facet, req, ok := s.facetEvent(w, r)
	if !ok {
		return
	}
	s.apply(w, r, func(e *core.Engine) (core.Update, error) {
		return e.SetSelection(facet, req.Values)
	})
}

// handleSelectAll toggles select-all for the facet's visible options.
func (s *Server) handleSelectAll(w http.ResponseWriter, r *http.Request) {
	facet, req, ok := s.facetEvent(w, r)
	if !ok {
		return
	}
	s.apply(w, r, func(e *core.Engine) (core.Update, error) {
		return e.ToggleSelectAll(facet, req.Checked)
	})
}

// handleMode changes the combination mode.
func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	req, err := decodeEvent(w, r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	mode, err := core.ParseMode(req.Mode)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	s.apply(w, r, func(e *core.Engine) (core.Update, error) {
		return e.SetMode(mode), nil
	})
}

// handleColumns changes the visible columns.
func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	req, err := decodeEvent(w, r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	s.apply(w, r, func(e *core.Engine) (core.Update, error) {
		return e.SetVisibleColumns(req.Columns), nil
	})
}

// handleReset clears every search and selection.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, func(e *core.Engine) (core.Update, error) {
		return e.Reset(), nil
	})
}

// handleExport downloads the filtered rows with every dataset column.
// The file is built in memory first so a failed export still gets a proper
// error status.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	sess, err := sessionFrom(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	var rows []core.Row
	if err := sess.Do(func(e *core.Engine) error {
		rows = e.FilteredRows()
		return nil
	}); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	ds := s.catalog.Dataset()
	opts := export.Options{SheetName: s.cfg.Export.SheetName}
	for _, c := range ds.Columns() {
		if ds.IsNumeric(c) {
			opts.NumericColumns = append(opts.NumericColumns, c)
		}
	}

	logger := logging.WithFields(r.Context(), "format", format, "rows", len(rows))
	start := time.Now()
	var buf bytes.Buffer
	err = s.exports.Write(r.Context(), &buf, format, ds.Columns(), rows, opts)
	s.metrics.RecordExport(string(format), time.Since(start), err)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	logger.Info("export completed", "bytes", buf.Len(), "duration_ms", time.Since(start).Milliseconds())

	name := export.Filename(s.cfg.Export.FileName, format, time.Now())
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		logger.Warn("export download interrupted", "error", err)
	}
}

// handleHealth reports liveness with a few gauges useful when debugging.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":   "ok",
		"rows":     s.catalog.Dataset().Len(),
		"indexed":  s.catalog.Indexed(),
		"sessions": s.sessions.Len(),
		"exports":  s.exports.Status(),
	})
}

// facetEvent reads the facet URL parameter and the request body.
func (s *Server) facetEvent(w http.ResponseWriter, r *http.Request) (string, eventRequest, bool) {
	facet, err := facetParam(r)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrUnknownFacet, err), http.StatusNotFound)
		return "", eventRequest{}, false
	}
	req, err := decodeEvent(w, r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return "", eventRequest{}, false
	}
	return facet, req, true
}

// facetParam returns the decoded facet name. chi matches against RawPath when
// the request carries one, so only then is the parameter still escaped.
func facetParam(r *http.Request) (string, error) {
	facet := chi.URLParam(r, "facet")
	if r.URL.RawPath == "" {
		return facet, nil
	}
	return url.PathUnescape(facet)
}

// decodeEvent accepts a JSON or form-encoded body. In a form an unchecked
// column list means "no columns", never "all columns".
func decodeEvent(w http.ResponseWriter, r *http.Request) (eventRequest, error) {
	var req eventRequest
	if isJSONBody(r) {
		if r.ContentLength == 0 {
			return req, nil
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBody)).Decode(&req); err != nil {
			return req, fmt.Errorf("invalid request body: %w", err)
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return req, fmt.Errorf("invalid form: %w", err)
	}
	req.Query = r.PostForm.Get("q")
	req.Values = r.PostForm["values"]
	req.Checked = parseChecked(r.PostForm.Get("checked"))
	req.Mode = r.PostForm.Get("mode")
	req.Columns = r.PostForm["columns"]
	if req.Columns == nil {
		req.Columns = []string{}
	}
	return req, nil
}

func parseChecked(v string) bool {
	switch strings.ToLower(v) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}

// apply runs one event under the session lock and answers with the
// matching partial, JSON, or a redirect for plain form posts.
func (s *Server) apply(w http.ResponseWriter, r *http.Request, event func(*core.Engine) (core.Update, error)) {
	sess, err := sessionFrom(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	htmx := isHTMX(r)
	var (
		u    core.Update
		fv   core.FacetView
		page templates.Page
	)
	err = sess.Do(func(e *core.Engine) error {
		var err error
		if u, err = event(e); err != nil {
			return err
		}
		if !htmx {
			return nil
		}
		if u.Kind == core.UpdateOptions {
			fv, err = e.FacetView(u.Facet)
			return err
		}
		page = s.page(e, sortFrom(r))
		return nil
	})
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	switch {
	case htmx:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		var renderErr error
		if u.Kind == core.UpdateOptions {
			renderErr = templates.FacetOptions(fv).Render(r.Context(), w)
		} else {
			renderErr = templates.Main(page).Render(r.Context(), w)
		}
		if renderErr != nil {
			logging.FromContext(r.Context()).Error("render partial", "error", renderErr)
		}
	case isBrowserForm(r):
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		writeJSON(w, toResponse(u))
	}
}

// currentPage snapshots the session's view for rendering.
func (s *Server) currentPage(r *http.Request) (templates.Page, error) {
	sess, err := sessionFrom(r.Context())
	if err != nil {
		return templates.Page{}, err
	}
	var page templates.Page
	err = sess.Do(func(e *core.Engine) error {
		page = s.page(e, sortFrom(r))
		return nil
	})
	return page, err
}

// page builds render data from the engine. Must run under the session lock.
func (s *Server) page(e *core.Engine, sort core.SortSpec) templates.Page {
	v := e.View()
	if sort.Column != "" {
		v.Rows = core.SortRows(v.Rows, []core.SortSpec{sort})
	}
	return templates.Page{
		Title: s.cfg.Dataset.Title,
		View:  v,
		Sort:  sort,
	}
}

// sortFrom reads the sort and dir query parameters. HTMX posts carry the
// page's URL in HX-Current-URL, so the table keeps its order across events.
func sortFrom(r *http.Request) core.SortSpec {
	q := r.URL.Query()
	if q.Get("sort") == "" && isHTMX(r) {
		if u, err := url.Parse(r.Header.Get("HX-Current-URL")); err == nil {
			q = u.Query()
		}
	}
	dir := "asc"
	if strings.EqualFold(q.Get("dir"), "desc") {
		dir = "desc"
	}
	return core.SortSpec{Column: q.Get("sort"), Dir: dir}
}
