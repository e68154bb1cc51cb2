// Package metrics exports LED lifecycle events as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ledkit/core"
)

const namespace = "ledkit"

// Collector turns core events into metrics on its own registry
type Collector struct {
	registry *prometheus.Registry

	events        *prometheus.CounterVec
	cycles        *prometheus.CounterVec
	writeFailures *prometheus.CounterVec
	running       *prometheus.GaugeVec
	remaining     *prometheus.GaugeVec
}

// New creates a collector with the Go runtime collectors registered
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "led",
			Name:      "events_total",
			Help:      "LED lifecycle events by type",
		}, []string{"event"}),
		cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blink",
			Name:      "cycles_total",
			Help:      "Completed background blink cycles per pin",
		}, []string{"pin"}),
		writeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gpio",
			Name:      "write_failures_total",
			Help:      "Level writes rejected by the GPIO driver per pin",
		}, []string{"pin"}),
		running: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "blink",
			Name:      "running",
			Help:      "1 while a background blink task runs on the pin",
		}, []string{"pin"}),
		remaining: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "blink",
			Name:      "remaining_cycles",
			Help:      "Blink cycles left on the pin, +Inf when blinking forever",
		}, []string{"pin"}),
	}
}

// Registry exposes the underlying registry, mainly for tests
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe records one event. It is safe to call from core.SetEventHook.
func (c *Collector) Observe(e core.Event) {
	pin := strconv.FormatUint(uint64(e.Pin), 10)
	c.events.WithLabelValues(eventLabel(e.Type)).Inc()

	switch e.Type {
	case core.EvtTaskStart, core.EvtRetarget:
		c.running.WithLabelValues(pin).Set(1)
		c.remaining.WithLabelValues(pin).Set(remainingValue(e.Remaining))
	case core.EvtCycle:
		c.cycles.WithLabelValues(pin).Inc()
		c.remaining.WithLabelValues(pin).Set(remainingValue(e.Remaining))
	case core.EvtTaskExit, core.EvtTaskDelete:
		c.running.WithLabelValues(pin).Set(0)
		c.remaining.WithLabelValues(pin).Set(remainingValue(e.Remaining))
	case core.EvtWriteFailed:
		c.writeFailures.WithLabelValues(pin).Inc()
	}
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func eventLabel(t core.EventType) string {
	return strings.ToLower(strings.TrimSuffix(t.String(), "!"))
}

func remainingValue(n uint64) float64 {
	if n == core.Forever {
		return math.Inf(1)
	}
	return float64(n)
}
