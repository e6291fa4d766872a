package observability

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounters(t *testing.T) {
	c, err := NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	c.ObserveCalculation("vertical", "vertical", nil)
	c.ObserveCalculation("vertical", "vertical", errors.New("boom"))
	c.ObserveSearch("none", 0)
	c.ObserveSearch("none", 3)
	c.SetCatalogRows(42)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Calculations.WithLabelValues("vertical", "vertical", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Calculations.WithLabelValues("vertical", "vertical", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Searches.WithLabelValues("none", "empty")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Searches.WithLabelValues("none", "match")))
	assert.Equal(t, 42.0, testutil.ToFloat64(c.CatalogRows))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.ObserveCalculation("a", "b", nil)
	c.ObserveSearch("none", 1)
	c.SetCatalogRows(1)
	assert.Nil(t, c.Gatherer())

	rec := httptest.NewRecorder()
	c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)
	_, err = NewCollector(reg)
	assert.Error(t, err)
}

func TestMiddlewareLabelsRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	r := mux.NewRouter()
	r.Use(c.Middleware)
	r.HandleFunc("/api/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", c.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/items/7", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), `ventosa_http_request_duration_seconds_count{code="404",method="GET",route="/api/items/{id}"} 1`), string(body))
}
