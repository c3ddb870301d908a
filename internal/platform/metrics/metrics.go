// Copyright (c) 2026 OpenShelf. All rights reserved.

/*
Package metrics exposes Prometheus instrumentation for the OpenShelf server.

It covers two concerns:

  - HTTP: request counts, latencies, and in-flight gauge for every route.
  - Identity: reconciliation outcomes, most importantly the email-conflict
    counter. A duplicate email across two auth subjects is degraded
    gracefully for the user but must stay observable for operator follow-up.

All collectors are registered on an injected registry — no package-level
registration — so tests can construct isolated instances.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the server records into.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// ReconcileTotal counts profile reconciliations by outcome
	// (adopted, created, conflict, failed).
	ReconcileTotal *prometheus.CounterVec

	// EmailConflicts counts the data-integrity case of one email bound
	// to two distinct auth subjects.
	EmailConflicts prometheus.Counter
}

// New constructs a [Metrics] instance with all collectors registered on a
// fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latencies in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		ReconcileTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "profile_reconcile_total",
				Help: "Profile reconciliation runs by outcome.",
			},
			[]string{"outcome"},
		),
		EmailConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "profile_email_conflicts_total",
			Help: "Reconciliations that found the session email bound to a different subject.",
		}),
	}

	registry.MustRegister(
		m.httpInFlight,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.ReconcileTotal,
		m.EmailConflicts,
	)

	return m
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Instrument wraps a handler with RPS, latency, and in-flight measurement.
//
// The path label uses the matched chi route pattern ("/books/{bookID}"),
// not the raw URL path, so parameterized routes stay at one label value
// instead of one per ID.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		m.httpInFlight.Inc()
		startTime := time.Now()

		recorder := &statusWriter{ResponseWriter: writer, code: http.StatusOK}
		next.ServeHTTP(recorder, request)

		duration := time.Since(startTime).Seconds()
		status := strconv.Itoa(recorder.code)
		path := routePattern(request)

		m.httpRequestDuration.WithLabelValues(request.Method, path, status).Observe(duration)
		m.httpRequestsTotal.WithLabelValues(request.Method, path, status).Inc()
		m.httpInFlight.Dec()
	})
}

// routePattern returns the chi route pattern matched for the request,
// available once the router has run. Unmatched requests collapse into a
// single label value.
func routePattern(request *http.Request) string {
	if routeCtx := chi.RouteContext(request.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// statusWriter captures the response status code for labeling.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
