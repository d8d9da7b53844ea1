package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leapstack-labs/portion/internal/report"
	"github.com/leapstack-labs/portion/internal/server/notifier"
	"github.com/leapstack-labs/portion/internal/state"
	"github.com/leapstack-labs/portion/internal/testutil"
	"github.com/leapstack-labs/portion/pkg/document"
	"github.com/leapstack-labs/portion/pkg/unit"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

func setupTestServer(t *testing.T) (*Server, *state.SQLStore) {
	t.Helper()
	logger := testutil.NewTestLogger(t)
	store, err := state.Open(context.Background(), ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return NewServer(Config{
		SessionSecret: "test-secret-key-32-bytes-long!!",
		Store:         store,
		Logger:        logger,
	}), store
}

func do(t *testing.T, s *Server, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

// reportJSON and bestJSON mirror the response shapes; measures are
// interfaces and cannot be decoded in place.
type reportJSON struct {
	Source     string `json:"source"`
	DocumentID string `json:"document_id"`
	Tokens     []struct {
		Raw  string `json:"raw"`
		Best string `json:"best"`
	} `json:"tokens"`
	Diagnostics []report.Diagnostic `json:"diagnostics"`
}

type bestJSON struct {
	Input      string   `json:"input"`
	Best       string   `json:"best"`
	Candidates []string `json:"candidates"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// =============================================================================
// API Tests
// =============================================================================

func TestHealthAndMetrics(t *testing.T) {
	s, _ := setupTestServer(t)

	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "portion_http_requests_total")
	assert.Contains(t, body, `route="/healthz"`)
}

func TestParseAPI(t *testing.T) {
	s, _ := setupTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/parse", `{"text":"Add 48 tsp sugar and 1/0 cup","source":"inline"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rep := decode[reportJSON](t, rec)
	assert.Equal(t, "inline", rep.Source)
	assert.Empty(t, rep.DocumentID, "not saved")
	require.Len(t, rep.Tokens, 2)
	assert.Equal(t, "48 tsp", rep.Tokens[0].Raw)
	assert.Equal(t, "1 C", rep.Tokens[0].Best)
	require.Len(t, rep.Diagnostics, 1)

	assert.Equal(t, float64(1), promtestutil.ToFloat64(s.Metrics().Documents.WithLabelValues("api")))
	assert.Equal(t, float64(2), promtestutil.ToFloat64(s.Metrics().Tokens))
	assert.Equal(t, float64(1), promtestutil.ToFloat64(s.Metrics().Diagnostics))
}

func TestParseAPI_BadRequests(t *testing.T) {
	s, _ := setupTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"text":`},
		{"unknown style", `{"text":"1 cup","style":"fancy"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/parse", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestDocumentsLifecycle(t *testing.T) {
	s, _ := setupTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/parse", `{"text":"2 cups flour","source":"flour.txt","save":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id := decode[reportJSON](t, rec).DocumentID
	require.NotEmpty(t, id)

	rec = do(t, s, http.MethodGet, "/api/documents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	docs := decode[[]state.Document](t, rec)
	require.Len(t, docs, 1)
	assert.Equal(t, "flour.txt", docs[0].Source)

	rec = do(t, s, http.MethodGet, "/api/documents/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[state.Document](t, rec)
	assert.Equal(t, "2 cups flour", doc.Text)
	require.Len(t, doc.Measurements, 1)
	assert.Equal(t, "2 C", doc.Measurements[0].Best)

	rec = do(t, s, http.MethodGet, "/api/documents?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/documents/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/documents/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, s, http.MethodDelete, "/api/documents/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocumentsWithoutStore(t *testing.T) {
	s := NewServer(Config{})

	rec := do(t, s, http.MethodGet, "/api/documents", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/parse", `{"text":"1 cup","save":true}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/parse", `{"text":"1 cup"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestScaleAPI(t *testing.T) {
	s, _ := setupTestServer(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantText   string
		wantFactor string
	}{
		{
			name:       "halve",
			body:       `{"text":"2 cups flour at 350 F","factor":"1/2"}`,
			wantStatus: http.StatusOK,
			wantText:   "1 C flour at 350 F",
			wantFactor: "1/2",
		},
		{
			name:       "default factor converts",
			body:       `{"text":"48 tsp sugar"}`,
			wantStatus: http.StatusOK,
			wantText:   "1 C sugar",
			wantFactor: "1",
		},
		{
			name:       "described style",
			body:       `{"text":"90 min","style":"described"}`,
			wantStatus: http.StatusOK,
			wantText:   "1 1/2 hours",
			wantFactor: "1",
		},
		{
			name:       "bad factor",
			body:       `{"text":"1 cup","factor":"lots"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/scale", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}
			resp := decode[map[string]string](t, rec)
			assert.Equal(t, tt.wantText, resp["text"])
			assert.Equal(t, tt.wantFactor, resp["factor"])
		})
	}
}

func TestBestAPI(t *testing.T) {
	s, _ := setupTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/best?q=90+min", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[bestJSON](t, rec)
	assert.Equal(t, "90 min", resp.Input)
	assert.Equal(t, "1 1/2 hr", resp.Best)
	assert.Contains(t, resp.Candidates, "1 1/2 hr")

	rec = do(t, s, http.MethodGet, "/api/best?q=3+cloves", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[bestJSON](t, rec)
	assert.Equal(t, "3 cloves", resp.Best)
	assert.Empty(t, resp.Candidates)

	rec = do(t, s, http.MethodGet, "/api/best?q=cups", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConvertAPI(t *testing.T) {
	s, _ := setupTestServer(t)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantText   string
	}{
		{"cups to tablespoons", "/api/convert?q=1/2+cup&to=tbsp", http.StatusOK, "8 tbsp"},
		{"described", "/api/convert?q=90+min&to=hr&style=described", http.StatusOK, "1 1/2 hours"},
		{"unknown unit", "/api/convert?q=1+cup&to=smidgen", http.StatusBadRequest, ""},
		{"mismatch", "/api/convert?q=1+cup&to=min", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.target, "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantText, decode[map[string]any](t, rec)["text"])
			}
		})
	}
}

func TestUnitsAPI(t *testing.T) {
	s, _ := setupTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/units?dimension=volume", "")
	require.Equal(t, http.StatusOK, rec.Code)
	units := decode[[]report.UnitInfo](t, rec)
	require.NotEmpty(t, units)

	var names []string
	for _, u := range units {
		assert.Equal(t, unit.Volume, u.Dimension)
		names = append(names, u.Name)
	}
	assert.Contains(t, names, "cup")
	assert.Contains(t, names, "teaspoon")

	rec = do(t, s, http.MethodGet, "/api/units", "")
	all := decode[[]report.UnitInfo](t, rec)
	assert.Greater(t, len(all), len(units))

	rec = do(t, s, http.MethodGet, "/api/units?dimension=weight", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreferences(t *testing.T) {
	s, _ := setupTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/preferences", "")
	assert.JSONEq(t, `{"style":"abbreviated"}`, rec.Body.String())

	rec = do(t, s, http.MethodPut, "/api/preferences", `{"style":"described"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	rec = do(t, s, http.MethodGet, "/api/preferences", "", cookies...)
	assert.JSONEq(t, `{"style":"described"}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/best?q=90+min", "", cookies...)
	assert.Equal(t, "1 1/2 hours", decode[bestJSON](t, rec).Best)

	rec = do(t, s, http.MethodGet, "/api/best?q=90+min&style=abbreviated", "", cookies...)
	assert.Equal(t, "1 1/2 hr", decode[bestJSON](t, rec).Best, "explicit style wins")

	rec = do(t, s, http.MethodPut, "/api/preferences", `{"style":"fancy"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// Page and SSE Tests
// =============================================================================

func TestIndexPage(t *testing.T) {
	s, store := setupTestServer(t)

	rec := do(t, s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, want := range []string{
		"<!doctype html>",
		"<title>Scratch pad - Portion</title>",
		"data-init",
		"/updates",
		"ui-content",
		"Nothing scanned yet.",
	} {
		assert.Contains(t, body, want)
	}

	rec0 := state.NewDocument("pancakes.txt", document.Parse("1 cup milk"), unit.Abbreviated)
	require.NoError(t, store.SaveDocument(context.Background(), rec0))

	body = do(t, s, http.MethodGet, "/", "").Body.String()
	assert.Contains(t, body, "pancakes.txt")
	assert.Contains(t, body, "1 measurement")
}

func TestUIParse(t *testing.T) {
	s, _ := setupTestServer(t)

	rec := do(t, s, http.MethodPost, "/ui/parse", `{"text":"Add <b>1/0 cup</b> and 2 cups","factor":"1/2"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.GreaterOrEqual(t, strings.Count(body, "event:"), 1)
	assert.Contains(t, body, `id="result"`)
	assert.Contains(t, body, "<mark")
	assert.Contains(t, body, `class="invalid"`)
	assert.Contains(t, body, "&lt;b&gt;", "text is escaped")
	assert.Contains(t, body, "x1/2")
	assert.NotContains(t, body, "<b>")
}

func TestUIParse_BadFactor(t *testing.T) {
	s, _ := setupTestServer(t)

	rec := do(t, s, http.MethodPost, "/ui/parse", `{"text":"1 cup","factor":"x"}`)
	assert.Contains(t, rec.Body.String(), `class="error"`)
	assert.Contains(t, rec.Body.String(), "invalid factor")
}

func TestUpdates_SendsDocumentListOnBroadcast(t *testing.T) {
	s, store := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/updates", nil)
	ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		s.handleUpdates(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return s.Notifier().Len() == 1 }, time.Second, 5*time.Millisecond)

	doc := state.NewDocument("soup.txt", document.Parse("2 qt stock"), unit.Abbreviated)
	require.NoError(t, store.SaveDocument(context.Background(), doc))
	s.Notifier().Broadcast(notifier.Event{DocumentID: doc.ID, Source: doc.Source})

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	assert.GreaterOrEqual(t, strings.Count(body, "event:"), 1)
	assert.Contains(t, body, `id="documents"`)
	assert.Contains(t, body, "soup.txt")
	assert.Equal(t, 0, s.Notifier().Len(), "unsubscribed on disconnect")
}

func TestUpdates_NoInitialState(t *testing.T) {
	s, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/updates", nil)
	ctx, cancel := context.WithTimeout(req.Context(), 50*time.Millisecond)
	defer cancel()
	rec := httptest.NewRecorder()
	s.handleUpdates(rec, req.WithContext(ctx))

	assert.Equal(t, 0, strings.Count(rec.Body.String(), "event:"))
}

func TestIngest(t *testing.T) {
	s, store := setupTestServer(t)
	dir := t.TempDir()

	files := []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.md")}
	require.NoError(t, os.WriteFile(files[0], []byte("1 cup rice"), 0o600))
	require.NoError(t, os.WriteFile(files[1], []byte("2 tbsp oil, 1 tsp salt"), 0o600))

	events := s.Notifier().Subscribe()
	defer s.Notifier().Unsubscribe(events)

	s.Ingest(context.Background(), files)

	docs, err := store.ListDocuments(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, float64(2), promtestutil.ToFloat64(s.Metrics().Documents.WithLabelValues("watch")))
	assert.Equal(t, float64(3), promtestutil.ToFloat64(s.Metrics().Tokens))

	select {
	case ev := <-events:
		assert.NotEmpty(t, ev.DocumentID)
	default:
		t.Fatal("expected an event")
	}

	s.Ingest(context.Background(), []string{filepath.Join(dir, "missing.txt")})
	docs, err = store.ListDocuments(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, docs, 2, "failed scans store nothing")
}

// =============================================================================
// Static and View Tests
// =============================================================================

func TestAppJS(t *testing.T) {
	s, _ := setupTestServer(t)

	rec := do(t, s, http.MethodGet, "/static/app.js", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")
	assert.Contains(t, rec.Body.String(), "parse-button")
	assert.Less(t, rec.Body.Len(), len(appJS))
	assert.NotContains(t, rec.Body.String(), "// Keyboard shortcuts")
}

func TestMinifyJS_Error(t *testing.T) {
	_, err := minifyJS("function (")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "esbuild errors")
}

func TestCountSummary(t *testing.T) {
	tests := []struct {
		tokens, diagnostics int
		want                string
	}{
		{0, 0, "0 measurements"},
		{1, 0, "1 measurement"},
		{3, 2, "3 measurements, 2 invalid"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, countSummary(tt.tokens, tt.diagnostics))
	}
}

func TestDocumentList(t *testing.T) {
	var b strings.Builder
	docs := []*state.Document{{
		ID:       "abc",
		Source:   "<script>",
		Tokens:   2,
		ParsedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}
	require.NoError(t, DocumentList(docs).Render(context.Background(), &b))

	html := b.String()
	assert.Contains(t, html, `href="/api/documents/abc"`)
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "2026-01-02 03:04:05")
	assert.Contains(t, html, "2 measurements")
}
