// Package metrics exposes Prometheus collectors for store mutations, exports
// and consumed change events.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sumator/internal/core"
	"sumator/internal/log"
)

const namespace = "sumator"

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

type Collectors struct {
	registry *prometheus.Registry

	mutations        *prometheus.CounterVec
	mutationDuration *prometheus.HistogramVec
	records          prometheus.Gauge
	exports          *prometheus.CounterVec
	exportPages      prometheus.Histogram
	events           *prometheus.CounterVec
	lastRevision     prometheus.Gauge
}

// New registers all collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Collectors {
	reg := prometheus.NewRegistry()
	c := &Collectors{
		registry: reg,
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "mutations_total",
			Help:      "Store mutations by operation and outcome.",
		}, []string{"op", "outcome"}),
		mutationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "mutation_duration_seconds",
			Help:      "Time spent in a store mutation, persistence included.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"op"}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "records",
			Help:      "Records currently held by the store.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "exports_total",
			Help:      "Report exports by renderer and outcome.",
		}, []string{"renderer", "outcome"}),
		exportPages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "pages",
			Help:      "Pages per successfully exported report.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "events_total",
			Help:      "Consumed change events by type and outcome.",
		}, []string{"type", "outcome"}),
		lastRevision: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "last_published_revision",
			Help:      "Store revision of the last report the worker published.",
		}),
	}
	reg.MustRegister(
		c.mutations, c.mutationDuration, c.records,
		c.exports, c.exportPages, c.events, c.lastRevision,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the underlying registry for gathering.
func (c *Collectors) Registry() *prometheus.Registry { return c.registry }

func outcome(err error) string {
	if err != nil {
		return outcomeError
	}
	return outcomeOK
}

// MutationDone records one store mutation.
func (c *Collectors) MutationDone(op string, d time.Duration, err error) {
	c.mutations.WithLabelValues(op, outcome(err)).Inc()
	c.mutationDuration.WithLabelValues(op).Observe(d.Seconds())
}

// RecordsStored sets the current collection size.
func (c *Collectors) RecordsStored(n int) {
	c.records.Set(float64(n))
}

// ExportDone records one export attempt.
func (c *Collectors) ExportDone(renderer string, pages int, err error) {
	c.exports.WithLabelValues(renderer, outcome(err)).Inc()
	if err == nil {
		c.exportPages.Observe(float64(pages))
	}
}

// EventHandled records one consumed change event.
func (c *Collectors) EventHandled(t core.EventType, err error) {
	c.events.WithLabelValues(string(t), outcome(err)).Inc()
}

// Published records the revision of the last published report.
func (c *Collectors) Published(revision uint64) {
	c.lastRevision.Set(float64(revision))
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Serve exposes /metrics and /healthz on addr until ctx ends.
func (c *Collectors) Serve(ctx context.Context, addr string, logger *log.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})

	logger = logger.WithComponent(log.ComponentMetrics)
	srv := &http.Server{
		Addr:              addr,
		Handler:           log.Middleware(logger)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Metrics server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info("Metrics server stopped")
		return nil
	}
}
