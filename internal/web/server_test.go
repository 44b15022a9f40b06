package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/lineowners/internal/config"
	"github.com/JonMunkholm/lineowners/internal/core"
	"github.com/JonMunkholm/lineowners/internal/metrics"
	"github.com/JonMunkholm/lineowners/internal/session"
	"github.com/JonMunkholm/lineowners/internal/source"
	"github.com/JonMunkholm/lineowners/internal/web/templates"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Fixtures
// ============================================================================

const (
	colLan     = "Län"
	colCompany = "Företag"
	colType    = "Typ av ledningar"
	colRevenue = "Omsättning (tkr)"
)

func registryCatalog(t *testing.T) *core.Catalog {
	t.Helper()
	rows := []core.Row{
		{colLan: core.String("Skåne"), colCompany: core.String("Alfa AB"), colType: core.String("Fiber"), colRevenue: core.Number(1200)},
		{colLan: core.String("Skåne"), colCompany: core.String("Beta AB"), colType: core.String("El"), colRevenue: core.Number(800)},
		{colLan: core.String("Uppsala"), colCompany: core.String("Alfa AB"), colType: core.String("El"), colRevenue: core.Number(450)},
		{colLan: core.String("Västra Götaland"), colCompany: core.String("Gamma Energi"), colType: core.String("Fjärrvärme"), colRevenue: core.Null},
	}
	ds, err := core.NewDataset([]string{colLan, colCompany, colType, colRevenue}, rows, colRevenue)
	require.NoError(t, err)
	cat, err := core.NewCatalog(ds, []string{colLan, colCompany, colType}, core.CatalogOptions{UseIndex: true})
	require.NoError(t, err)
	return cat
}

type testServer struct {
	*Server
	cookie *http.Cookie
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	return newCatalogServer(t, registryCatalog(t), mutate...)
}

func newCatalogServer(t *testing.T, cat *core.Catalog, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	cfg := config.Defaults()
	cfg.Rate.Enabled = false
	for _, m := range mutate {
		m(cfg)
	}

	m := metrics.New(cfg.Metrics.Enabled)
	store := session.NewStore(func() *core.Engine {
		return cat.NewEngine(core.WithObserver(m))
	}, session.Options{TTL: cfg.Session.TTL, MaxSessions: cfg.Session.MaxSessions, Recorder: m})

	s := NewServer(cfg, Deps{Catalog: cat, Sessions: store, Metrics: m})
	t.Cleanup(func() {
		for _, rl := range s.limiters {
			rl.stop()
		}
	})
	return &testServer{Server: s}
}

// do sends a request carrying the session cookie of earlier requests.
func (ts *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if ts.cookie != nil {
		req.AddCookie(ts.cookie)
	}
	rec := httptest.NewRecorder()
	ts.Router().ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == ts.cfg.Session.CookieName {
			ts.cookie = c
		}
	}
	return rec
}

func (ts *testServer) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return ts.do(t, req)
}

func (ts *testServer) postForm(t *testing.T, path string, form url.Values, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return ts.do(t, req)
}

func (ts *testServer) view(t *testing.T) core.View {
	t.Helper()
	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/view", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var v struct {
		core.View
		Rows []map[string]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v.View
}

func facetPath(name, event string) string {
	return "/api/facets/" + url.PathEscape(name) + "/" + event
}

// ============================================================================
// Tests
// ============================================================================

func TestDashboard_SetsSessionCookie(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, ts.cookie, "session cookie")
	assert.True(t, ts.cookie.HttpOnly)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Ledningsägare</title>")
	assert.Contains(t, body, "Visar 4 av 4 rader")
	assert.Contains(t, body, `id="`+templates.FacetID(colLan)+`"`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))

	first := ts.cookie.Value
	ts.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, first, ts.cookie.Value, "cookie reused")
	assert.Equal(t, 1, ts.sessions.Len())
}

func TestSelection_JSON(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.postJSON(t, facetPath(colLan, "selection"), map[string]any{"values": []string{"Skåne"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp updateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "rows", resp.Kind)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "exclusive", resp.Mode)
	assert.Equal(t, []string{"Skåne"}, resp.Selected[colLan])

	assert.Equal(t, 2, ts.view(t).FilteredCount)
}

func TestSearch_DoesNotFilter(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.postJSON(t, facetPath(colLan, "search"), map[string]any{"q": "sk"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp updateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "options", resp.Kind)
	assert.Equal(t, colLan, resp.Facet)
	assert.Equal(t, []string{"Skåne"}, resp.Options)
	assert.Empty(t, resp.Rows)

	v := ts.view(t)
	assert.Equal(t, 4, v.FilteredCount)
	assert.Equal(t, "sk", v.Facets[0].Search)
}

func TestSelectAll_ScopedToSearch(t *testing.T) {
	ts := newTestServer(t)

	ts.postJSON(t, facetPath(colType, "search"), map[string]any{"q": "f"})
	rec := ts.postJSON(t, facetPath(colType, "select-all"), map[string]any{"checked": true})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp updateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.ElementsMatch(t, []string{"Fiber", "Fjärrvärme"}, resp.Selected[colType])
	assert.Equal(t, 2, resp.Total)
}

func TestMode_InclusiveAndInvalid(t *testing.T) {
	ts := newTestServer(t)

	ts.postJSON(t, facetPath(colLan, "selection"), map[string]any{"values": []string{"Uppsala"}})
	ts.postJSON(t, facetPath(colType, "selection"), map[string]any{"values": []string{"Fiber"}})
	assert.Equal(t, 0, ts.view(t).FilteredCount)

	rec := ts.postJSON(t, "/api/mode", map[string]any{"mode": "inclusive"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, ts.view(t).FilteredCount)

	rec = ts.postJSON(t, "/api/mode", map[string]any{"mode": "both"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "FLT002", errResp.Code)
}

func TestUnknownFacet(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.postJSON(t, facetPath("Kommun", "selection"), map[string]any{"values": []string{"x"}})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "FLT001")
}

func TestColumns_FormWithNoneChecked(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.postForm(t, "/api/columns", url.Values{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	v := ts.view(t)
	assert.Empty(t, v.Columns)
	assert.Equal(t, 4, v.FilteredCount)

	ts.postJSON(t, "/api/columns", map[string]any{"columns": []string{colCompany, colLan}})
	assert.Equal(t, []string{colCompany, colLan}, ts.view(t).Columns)
}

func TestHTMX_Partials(t *testing.T) {
	ts := newTestServer(t)
	hx := map[string]string{"HX-Request": "true"}

	rec := ts.postForm(t, facetPath(colLan, "search"), url.Values{"q": {"upp"}}, hx)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `value="Uppsala"`)
	assert.NotContains(t, body, `value="Skåne"`)
	assert.NotContains(t, body, "<html")

	rec = ts.postForm(t, facetPath(colLan, "selection"), url.Values{"values": {"Uppsala"}}, hx)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Visar 1 av 4 rader")
}

func TestBrowserForm_Redirects(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.postForm(t, "/api/reset", url.Values{}, map[string]string{"Accept": "text/html"})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestReset(t *testing.T) {
	ts := newTestServer(t)

	ts.postJSON(t, facetPath(colLan, "selection"), map[string]any{"values": []string{"Skåne"}})
	ts.postJSON(t, "/api/mode", map[string]any{"mode": "inclusive"})
	rec := ts.postJSON(t, "/api/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	v := ts.view(t)
	assert.Equal(t, 4, v.FilteredCount)
	assert.Equal(t, "exclusive", v.Mode)
}

func TestExport_RoundTrip(t *testing.T) {
	ts := newTestServer(t)

	ts.postJSON(t, facetPath(colCompany, "selection"), map[string]any{"values": []string{"Alfa AB"}})
	ts.postJSON(t, "/api/columns", map[string]any{"columns": []string{colLan}})

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/export.xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "my_dataframe_")

	schema := source.NewSchema([]string{colLan, colCompany, colType}, []string{colRevenue})
	ds, err := source.LoadXLSX(bytes.NewReader(rec.Body.Bytes()), "export.xlsx", "", schema)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, []string{colLan, colCompany, colType, colRevenue}, ds.Columns(), "exports keep every column")
	assert.Equal(t, core.Number(1200), ds.Rows()[0].Get(colRevenue))
}

func TestExport_RoundTripKeepsText(t *testing.T) {
	names := []string{`"Kraft" AB`, "'s Nät AB'", "=Energi", " Mälarenergi "}
	rows := make([]core.Row, len(names))
	for i, n := range names {
		rows[i] = core.Row{colLan: core.String("Skåne"), colCompany: core.String(n)}
	}
	ds, err := core.NewDataset([]string{colLan, colCompany}, rows)
	require.NoError(t, err)
	cat, err := core.NewCatalog(ds, []string{colLan, colCompany}, core.CatalogOptions{})
	require.NoError(t, err)
	ts := newCatalogServer(t, cat)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/export.xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got, err := source.LoadXLSX(bytes.NewReader(rec.Body.Bytes()), "export.xlsx", "", source.NewSchema([]string{colCompany}, nil))
	require.NoError(t, err)
	require.Equal(t, len(names), got.Len())
	for i, n := range names {
		assert.Equal(t, core.String(n), got.Rows()[i].Get(colCompany))
	}
}

func TestExport_CSVAndUnknownFormat(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/export.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), colLan+","))

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/export.pdf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)
	ts.postJSON(t, facetPath(colLan, "selection"), map[string]any{"values": []string{"Skåne"}})

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.EqualValues(t, 4, health["rows"])

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lineowners_engine_events_total")
}

func TestMetrics_APIKey(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) {
		c.Security.MetricsAPIKeys = []string{"secret"}
	})

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = ts.do(t, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) {
		c.Rate.Enabled = true
		c.Rate.RequestsPerMinute = 2
	})

	for i := 0; i < 2; i++ {
		rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/view", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/view", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE001")

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "health is not rate limited")
}

func TestSessionLimit(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) {
		c.Session.MaxSessions = 1
	})
	ts.do(t, httptest.NewRequest(http.MethodGet, "/api/view", nil))

	stranger := httptest.NewRecorder()
	ts.Router().ServeHTTP(stranger, httptest.NewRequest(http.MethodGet, "/api/view", nil))
	assert.Equal(t, http.StatusServiceUnavailable, stranger.Code)
	assert.Contains(t, stranger.Body.String(), "SES001")
}

func TestSortFrom(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?sort=L%C3%A4n&dir=DESC", nil)
	assert.Equal(t, core.SortSpec{Column: colLan, Dir: "desc"}, sortFrom(req))

	req = httptest.NewRequest(http.MethodPost, "/api/reset", nil)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("HX-Current-URL", "http://localhost/?sort=F%C3%B6retag")
	assert.Equal(t, core.SortSpec{Column: colCompany, Dir: "asc"}, sortFrom(req))
}

func TestShutdown_BeforeStart(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Rate.Enabled = true })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, ts.Shutdown(ctx))

	err := ts.Start()
	assert.True(t, errors.Is(err, http.ErrServerClosed), "got %v", err)
}

func TestFacetParam_Escaping(t *testing.T) {
	rows := []core.Row{
		{"Andel %": core.String("10"), "Typ/art": core.String("El")},
		{"Andel %": core.String("20"), "Typ/art": core.String("Fiber")},
	}
	ds, err := core.NewDataset([]string{"Andel %", "Typ/art"}, rows)
	require.NoError(t, err)
	cat, err := core.NewCatalog(ds, []string{"Andel %", "Typ/art"}, core.CatalogOptions{})
	require.NoError(t, err)
	ts := newCatalogServer(t, cat)

	tests := []struct {
		facet string
		value string
	}{
		{"Andel %", "10"},
		{"Typ/art", "Fiber"},
	}
	for _, tt := range tests {
		t.Run(tt.facet, func(t *testing.T) {
			rec := ts.postJSON(t, facetPath(tt.facet, "selection"), map[string]any{"values": []string{tt.value}})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp updateResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, []string{tt.value}, resp.Selected[tt.facet])
		})
	}
}

func TestClosedSession(t *testing.T) {
	ts := newTestServer(t)
	sess, _, err := ts.sessions.GetOrCreate("")
	require.NoError(t, err)
	ts.sessions.Delete(sess.ID)

	tests := []struct {
		name    string
		path    string
		handler http.HandlerFunc
	}{
		{"view", "/api/view", ts.handleView},
		{"export", "/api/export.csv", ts.handleExport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Accept", "application/json")
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("format", "csv")
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = context.WithValue(ctx, sessionCtxKey, sess)

			rec := httptest.NewRecorder()
			tt.handler(rec, req.WithContext(ctx))

			assert.Equal(t, http.StatusGone, rec.Code)
			assert.Contains(t, rec.Body.String(), "SES002")
		})
	}
}
