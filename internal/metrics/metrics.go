// Package metrics holds the Prometheus collectors of the site server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	reloads  *prometheus.CounterVec
	articles prometheus.Gauge
	pages    prometheus.Gauge

	githubFetches *prometheus.CounterVec
	githubCache   *prometheus.CounterVec
}

// New builds a fresh registry so that several instances (tests) never
// collide on registration.
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_reloads_total",
			Help:      "Content reloads by result.",
		}, []string{"result"}),
		articles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "content_articles",
			Help:      "Articles in the current snapshot, drafts included.",
		}),
		pages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "content_pages",
			Help:      "Static pages in the current snapshot.",
		}),
		githubFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "github_fetches_total",
			Help:      "GitHub fetches by result (ok, stale, error).",
		}, []string{"result"}),
		githubCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "github_cache_lookups_total",
			Help:      "GitHub cache lookups by result (hit, miss).",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.reloads,
		m.articles,
		m.pages,
		m.githubFetches,
		m.githubCache,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Reloaded records a reload attempt. The gauges move only on success.
func (m *Metrics) Reloaded(err error, articles, pages int) {
	if m == nil {
		return
	}
	if err != nil {
		m.reloads.WithLabelValues("error").Inc()
		return
	}
	m.reloads.WithLabelValues("ok").Inc()
	m.articles.Set(float64(articles))
	m.pages.Set(float64(pages))
}

const (
	FetchOK    = "ok"
	FetchStale = "stale"
	FetchError = "error"
)

func (m *Metrics) GitHubFetch(result string) {
	if m == nil {
		return
	}
	m.githubFetches.WithLabelValues(result).Inc()
}

func (m *Metrics) GitHubCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.githubCache.WithLabelValues(result).Inc()
}
