// Package metrics exposes the bot's prometheus collectors.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/m3rciful/campusbot/core/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "campusbot"

// Metrics holds every collector of the bot on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	updates          *prometheus.CounterVec
	handlerDuration  *prometheus.HistogramVec
	backendRequests  *prometheus.CounterVec
	backendDuration  *prometheus.HistogramVec
	broadcastResults *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		updates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Dispatched updates by router, route and outcome.",
		}, []string{"router", "route", "outcome"}),
		handlerDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handler_duration_seconds",
			Help:      "Time spent in routed handlers.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"router"}),
		backendRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Backend API calls by service, operation and status.",
		}, []string{"service", "operation", "status"}),
		backendDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Backend API call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "operation"}),
		broadcastResults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_deliveries_total",
			Help:      "Mailing deliveries by result.",
		}, []string{"result"}),
	}
}

// ObserveEvent records one dispatched update.
func (m *Metrics) ObserveEvent(router, route, outcome string, took time.Duration) {
	if router == "" {
		router = "none"
	}
	m.updates.WithLabelValues(router, route, outcome).Inc()
	m.handlerDuration.WithLabelValues(router).Observe(took.Seconds())
}

// ObserveBackend records one backend call; status 0 means no response.
func (m *Metrics) ObserveBackend(service, operation string, status int, took time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.backendRequests.WithLabelValues(service, operation, code).Inc()
	m.backendDuration.WithLabelValues(service, operation).Observe(took.Seconds())
}

// ObserveDelivery records one broadcast delivery attempt.
func (m *Metrics) ObserveDelivery(delivered bool) {
	result := "delivered"
	if !delivered {
		result = "failed"
	}
	m.broadcastResults.WithLabelValues(result).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Serve exposes /metrics on listen until ctx is done.
func Serve(ctx context.Context, listen string, m *Metrics) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, logger.CompMetrics, "metrics.listen", slog.String("listen", listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
