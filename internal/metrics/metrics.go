// Package metrics exposes Prometheus counters for the HTTP surface, the
// admin mutation gateway and the view cache.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the subset used by services.
type Recorder interface {
	RecordMutation(op string, success bool)
	RecordCache(view string, hit bool)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	mutations    *prometheus.CounterVec
	cacheEvents  *prometheus.CounterVec
	registerer   prometheus.Registerer
	gatherer     prometheus.Gatherer
}

// NewCollector registers all metrics on reg.
func NewCollector(reg *prometheus.Registry) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "site_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "site_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "site_admin_mutations_total",
			Help: "Admin gateway mutations by operation and outcome.",
		}, []string{"op", "outcome"}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "site_view_cache_events_total",
			Help: "View cache lookups by view and result.",
		}, []string{"view", "result"}),
		registerer: reg,
		gatherer:   reg,
	}
	reg.MustRegister(c.httpRequests, c.httpDuration, c.mutations, c.cacheEvents)
	return c
}

func (c *Collector) RecordHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (c *Collector) RecordMutation(op string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	c.mutations.WithLabelValues(op, outcome).Inc()
}

func (c *Collector) RecordCache(view string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheEvents.WithLabelValues(view, result).Inc()
}

// TrackRateLimiter exports the number of clients a rate limiter currently
// holds buckets for, read from clients at scrape time.
func (c *Collector) TrackRateLimiter(name string, clients func() int) {
	c.registerer.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "site_rate_limiter_clients",
		Help:        "Client IPs tracked by a rate limiter.",
		ConstLabels: prometheus.Labels{"limiter": name},
	}, func() float64 { return float64(clients()) }))
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

type noop struct{}

func (noop) RecordMutation(string, bool) {}
func (noop) RecordCache(string, bool)    {}

// Noop discards every event.
var Noop Recorder = noop{}
