// Package metrics exposes Prometheus metrics for the HTTP API, care-record
// events, the refresh token purge and the MySQL pool.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dlmiddlecote/sqlstats"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "care"

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	eventsTotal     *prometheus.CounterVec
	eventsDelivered *prometheus.CounterVec
	tokensPurged    prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route template, method and status code.",
		},
		[]string{"route", "method", "status"},
	)
	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route template and method.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"route", "method"},
	)
	m.eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_events_total",
			Help:      "Care-record events handed to the publisher by kind, action and result.",
		},
		[]string{"kind", "action", "result"},
	)
	m.eventsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_events_delivered_total",
			Help:      "Care-record events delivered to the broker by kind, action and result.",
		},
		[]string{"kind", "action", "result"},
	)
	m.tokensPurged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_tokens_purged_total",
		Help:      "Expired or revoked refresh tokens removed by the maintenance job.",
	})

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.eventsTotal,
		m.eventsDelivered,
		m.tokensPurged,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// RegisterDB adds connection pool gauges for db.
func (m *Metrics) RegisterDB(name string, db sqlstats.StatsGetter) {
	m.registry.MustRegister(sqlstats.NewStatsCollector(name, db))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// EventPublished counts one event handed to the publisher.
func (m *Metrics) EventPublished(kind, action string, err error) {
	m.eventsTotal.WithLabelValues(kind, action, result(err)).Inc()
}

// EventDelivered counts one delivery attempt to the broker.
func (m *Metrics) EventDelivered(kind, action string, err error) {
	m.eventsDelivered.WithLabelValues(kind, action, result(err)).Inc()
}

func (m *Metrics) TokensPurged(n int64) {
	if n > 0 {
		m.tokensPurged.Add(float64(n))
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records count and latency of every request.  Routes are
// labelled by their template (/api/patrol-rounds/:id) to keep the label
// set small; unmatched paths share one label.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			route := c.Path()
			if route == "" || errors.Is(err, echo.ErrNotFound) {
				route = "unmatched"
			}
			method := c.Request().Method
			m.requestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			return err
		}
	}
}
