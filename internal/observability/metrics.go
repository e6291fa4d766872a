package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UnknownLabel replaces label values that are not one of a metric's known
// values, keeping series cardinality bounded.
const UnknownLabel = "unknown"

// Collector exposes the selector's Prometheus metrics. A nil *Collector is
// valid and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	Calculations     *prometheus.CounterVec
	Searches         *prometheus.CounterVec
	SearchResultRows prometheus.Histogram
	CatalogRows      prometheus.Gauge
	HTTPDuration     *prometheus.HistogramVec
}

// NewCollector registers the metrics against reg, or the default registerer
// when reg is nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	calcs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ventosa_force_calculations_total",
		Help: "Force calculations by pick orientation, movement and outcome.",
	}, []string{"pick", "movement", "outcome"})
	if err := register(reg, calcs, "ventosa_force_calculations_total"); err != nil {
		return nil, err
	}

	searches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ventosa_catalog_searches_total",
		Help: "Catalog searches by tolerance policy and whether anything matched.",
	}, []string{"policy", "outcome"})
	if err := register(reg, searches, "ventosa_catalog_searches_total"); err != nil {
		return nil, err
	}

	resultRows := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ventosa_catalog_search_result_rows",
		Help:    "Number of catalog rows returned per search.",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100, 250},
	})
	if err := register(reg, resultRows, "ventosa_catalog_search_result_rows"); err != nil {
		return nil, err
	}

	catalogRows := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ventosa_catalog_rows",
		Help: "Rows in the loaded catalog.",
	})
	if err := register(reg, catalogRows, "ventosa_catalog_rows"); err != nil {
		return nil, err
	}

	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ventosa_http_request_duration_seconds",
		Help:    "HTTP request latency by route template, method and status code.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "code"})
	if err := register(reg, httpDuration, "ventosa_http_request_duration_seconds"); err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:         gatherer,
		Calculations:     calcs,
		Searches:         searches,
		SearchResultRows: resultRows,
		CatalogRows:      catalogRows,
		HTTPDuration:     httpDuration,
	}, nil
}

func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler serves the exposition format for the collector's gatherer.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveCalculation(pick, movement string, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.Calculations.WithLabelValues(pick, movement, outcome).Inc()
}

func (c *Collector) ObserveSearch(policy string, rows int) {
	if c == nil {
		return
	}
	outcome := "match"
	if rows == 0 {
		outcome = "empty"
	}
	c.Searches.WithLabelValues(policy, outcome).Inc()
	c.SearchResultRows.Observe(float64(rows))
}

func (c *Collector) SetCatalogRows(n int) {
	if c == nil {
		return
	}
	c.CatalogRows.Set(float64(n))
}

// Middleware records request latency labelled by the mux route template.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		c.HTTPDuration.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func register(reg prometheus.Registerer, c prometheus.Collector, name string) error {
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return fmt.Errorf("collector %s already registered", name)
		}
		return err
	}
	return nil
}
