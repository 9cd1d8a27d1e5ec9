package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric the registry defines itself.
const Namespace = "sessgauge"

// RequestObserver records completed HTTP requests.
type RequestObserver interface {
	ObserveRequest(method string, code int, elapsed time.Duration)
}

// Registry owns the process-wide Prometheus registry.
type Registry struct {
	reg *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRegistry creates a registry with request metrics, the Go and process
// collectors, and any extra collectors given (typically a session Collector).
func NewRegistry(extra ...prometheus.Collector) (*Registry, error) {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests handled, by method and status code.",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	cs := []prometheus.Collector{
		r.requests,
		r.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	cs = append(cs, extra...)
	for _, c := range cs {
		if err := r.reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ObserveRequest implements RequestObserver.
func (r *Registry) ObserveRequest(method string, code int, elapsed time.Duration) {
	r.requests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	r.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
