package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	reg := NewRegistry()
	r := chi.NewRouter()
	r.Use(NewHTTP(reg).Middleware)
	r.Get("/studies/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", Handler(reg))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/studies/abc", nil))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `steward_http_request_duration_seconds_count{method="GET",route="/studies/{id}"} 1`)
	assert.NotContains(t, string(body), "/studies/abc")
}

func TestRegistriesAreIndependent(t *testing.T) {
	assert.NotPanics(t, func() {
		NewHTTP(NewRegistry())
		NewHTTP(NewRegistry())
	})
}

func TestObserveRequestNilSafe(t *testing.T) {
	var m *HTTP
	assert.NotPanics(t, func() { m.ObserveRequest(http.MethodGet, "/", 0) })
}
