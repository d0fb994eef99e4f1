package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/semiframes/pkg/config"
	"github.com/matzehuels/semiframes/pkg/errors"
	"github.com/matzehuels/semiframes/pkg/observability"
	"github.com/matzehuels/semiframes/pkg/search"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := log.New(io.Discard)
	return New(config.Default().Server, search.DefaultOptions(), logger)
}

func post(t *testing.T, s *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	body := decodeBody[map[string]string](t, w)
	assert.Equal(t, "ok", body["status"])
}

func TestCanonicalize(t *testing.T) {
	s := newTestServer(t)

	a := decodeBody[CanonicalizeResponse](t, post(t, s, "/v1/canonicalize", `{"family": "{{1}, {1, 2}}"}`))
	b := decodeBody[CanonicalizeResponse](t, post(t, s, "/v1/canonicalize", `{"family": "{{2}, {1, 2}}"}`))

	assert.Equal(t, 2, a.N)
	assert.Equal(t, a.Canonical, b.Canonical, "isomorphic families share a canonical form")
	assert.Equal(t, "{{1, 2}}", a.Parent)
	assert.True(t, a.UnionClosed)
	assert.True(t, a.HasTop)
	assert.True(t, a.Distinguished)
	assert.Equal(t, 2, a.Members)
}

func TestCanonicalizeExplicitSize(t *testing.T) {
	s := newTestServer(t)
	resp := decodeBody[CanonicalizeResponse](t, post(t, s, "/v1/canonicalize", `{"family": "{{1, 2}}", "n": 3}`))
	assert.Equal(t, 3, resp.N)
	assert.False(t, resp.HasTop)
	assert.Empty(t, resp.Parent)
}

func TestCheck(t *testing.T) {
	s := newTestServer(t)
	w := post(t, s, "/v1/check", `{
		"formula": "EO X. EP x. (x in X && !(X inter IC X))",
		"family": "{{2}, {1, 2}}"
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeBody[CheckResponse](t, w)
	assert.True(t, resp.Satisfied)
	assert.Equal(t, "{{}, {2}, {1, 2}}", resp.Family)
	assert.Equal(t, map[string]string{"X": "{2}", "x": "2"}, resp.Witnesses)
}

func TestCheckUnsatisfied(t *testing.T) {
	s := newTestServer(t)
	resp := decodeBody[CheckResponse](t, post(t, s, "/v1/check", `{
		"formula": "AO X. AO Y. (nonempty X && nonempty Y => X inter Y)",
		"family": "{{1}, {2}, {1, 2}}"
	}`))
	assert.False(t, resp.Satisfied)
	assert.Empty(t, resp.Witnesses)
}

func TestSearch(t *testing.T) {
	s := newTestServer(t)
	w := post(t, s, "/v1/search", `{"n": 2, "limit": 10}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeBody[SearchResponse](t, w)
	assert.Equal(t, int64(3), resp.Found)
	assert.False(t, resp.HitLimit)
	assert.Equal(t, search.ModeSemitopologies, resp.Mode)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, []string{
		"{{}, {1, 2}}",
		"{{}, {2}, {1, 2}}",
		"{{}, {1}, {2}, {1, 2}}",
	}, resp.Families)
}

func TestSearchLimitAndFormula(t *testing.T) {
	s := newTestServer(t)

	resp := decodeBody[SearchResponse](t, post(t, s, "/v1/search", `{"n": 3, "limit": 1}`))
	assert.Equal(t, int64(1), resp.Found)
	assert.True(t, resp.HitLimit)
	assert.Equal(t, []string{"{{}, {1, 2, 3}}"}, resp.Families)

	resp = decodeBody[SearchResponse](t, post(t, s, "/v1/search", `{"n": 2, "limit": 10, "semiframes": true}`))
	assert.Equal(t, int64(2), resp.Found)

	resp = decodeBody[SearchResponse](t, post(t, s, "/v1/search",
		`{"n": 2, "limit": 10, "formula": "AO X. AO Y. (nonempty X && nonempty Y => X inter Y)"}`))
	assert.Equal(t, int64(2), resp.Found)
	assert.NotContains(t, resp.Families, "{{}, {1}, {2}, {1, 2}}")
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   errors.Code
	}{
		{"limit missing", "/v1/search", `{"n": 3}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"limit too large", "/v1/search", `{"n": 3, "limit": 5000}`, http.StatusBadRequest, errors.ErrCodeInvalidRange},
		{"size too large", "/v1/search", `{"n": 40, "limit": 5}`, http.StatusBadRequest, errors.ErrCodeInvalidRange},
		{"bad formula", "/v1/search", `{"n": 3, "limit": 5, "formula": "AO X."}`, http.StatusBadRequest, errors.ErrCodeInvalidFormula},
		{"start without top", "/v1/search", `{"n": 3, "limit": 5, "start": "{{1}}"}`, http.StatusBadRequest, errors.ErrCodeInvalidFamily},
		{"unknown field", "/v1/search", `{"n": 3, "limit": 5, "threads": 4}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"malformed json", "/v1/check", `{`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad family", "/v1/canonicalize", `{"family": "{{1}"}`, http.StatusBadRequest, errors.ErrCodeInvalidFamily},
		{"free variable", "/v1/check", `{"formula": "AO X. x in X", "family": "{{1}}"}`, http.StatusBadRequest, errors.ErrCodeInvalidFormula},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			w := post(t, s, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			resp := decodeBody[errorResponse](t, w)
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestRequiresJSON(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/check", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestMetrics(t *testing.T) {
	t.Cleanup(observability.Reset)
	s := newTestServer(t)
	s.Metrics().Install()

	require.Equal(t, http.StatusOK, post(t, s, "/v1/search", `{"n": 3, "limit": 100}`).Code)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `semiframes_searches_total{mode="semitopologies",status="success"} 1`)
	assert.Contains(t, body, `semiframes_families_found_total{mode="semitopologies"} 14`)
	assert.Contains(t, body, `semiframes_sink_writes_total{sink="api"} 14`)
	assert.Contains(t, body, "semiframes_cache_misses_total")
	assert.Contains(t, body, `semiframes_http_requests_total{code="200",route="/v1/search"} 1`)
}
