package metrics

import (
	"strconv"
	"time"
	"waste-dispatch-service/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "waste_dispatch"

// DispatchCollector counts route generation and lifecycle transitions.
// It implements ports.MetricsRecorder.
type DispatchCollector struct {
	routesGenerated    *prometheus.CounterVec
	routeStops         prometheus.Histogram
	generationFailures *prometheus.CounterVec
	routeTransitions   *prometheus.CounterVec
	stopTransitions    *prometheus.CounterVec
}

func NewDispatchCollector() *DispatchCollector {
	return &DispatchCollector{
		routesGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "routes",
				Name:      "generated_total",
				Help:      "Routes generated, by selection mode",
			},
			[]string{"mode"},
		),
		routeStops: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "routes",
				Name:      "stops",
				Help:      "Number of stops per generated route",
				Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
			},
		),
		generationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "routes",
				Name:      "generation_failures_total",
				Help:      "Failed route generations, by reason code",
			},
			[]string{"reason"},
		),
		routeTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "routes",
				Name:      "transitions_total",
				Help:      "Route status transitions, by target status",
			},
			[]string{"status"},
		),
		stopTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "stops",
				Name:      "transitions_total",
				Help:      "Stop status transitions, by target status",
			},
			[]string{"status"},
		),
	}
}

func (c *DispatchCollector) Register(reg prometheus.Registerer) error {
	for _, col := range []prometheus.Collector{
		c.routesGenerated, c.routeStops, c.generationFailures, c.routeTransitions, c.stopTransitions,
	} {
		if err := reg.Register(col); err != nil {
			return err
		}
	}
	return nil
}

func (c *DispatchCollector) RecordGeneration(mode string, stops int) {
	c.routesGenerated.WithLabelValues(mode).Inc()
	c.routeStops.Observe(float64(stops))
}

func (c *DispatchCollector) RecordGenerationFailure(reason string) {
	c.generationFailures.WithLabelValues(reason).Inc()
}

func (c *DispatchCollector) RecordRouteTransition(status domain.RouteStatus) {
	c.routeTransitions.WithLabelValues(string(status)).Inc()
}

func (c *DispatchCollector) RecordStopTransition(status domain.StopStatus) {
	c.stopTransitions.WithLabelValues(string(status)).Inc()
}

// HTTPCollector records request counts and latency per route pattern.
type HTTPCollector struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPCollector() *HTTPCollector {
	return &HTTPCollector{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by method, route pattern and status code",
			},
			[]string{"method", "pattern", "status_code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration distribution",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"method", "pattern"},
		),
	}
}

func (c *HTTPCollector) Register(reg prometheus.Registerer) error {
	if err := reg.Register(c.requests); err != nil {
		return err
	}
	return reg.Register(c.duration)
}

func (c *HTTPCollector) Observe(method, pattern string, status int, d time.Duration) {
	c.requests.WithLabelValues(method, pattern, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(method, pattern).Observe(d.Seconds())
}
