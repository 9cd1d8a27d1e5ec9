package metric

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes the readings of its sources as Prometheus gauges.
//
// It is an unchecked collector: the set of names depends on what the
// sources report at scrape time, so Describe sends nothing.
type Collector struct {
	logger *slog.Logger

	mu      sync.RWMutex
	sources []Source

	descMu sync.Mutex
	descs  map[string]*prometheus.Desc
}

// NewCollector creates a collector over sources.
func NewCollector(logger *slog.Logger, sources ...Source) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Collector{
		logger: logger,
		descs:  make(map[string]*prometheus.Desc),
	}
	for _, src := range sources {
		c.Add(src)
	}
	return c
}

// Add registers another source. Nil sources are ignored.
func (c *Collector) Add(src Source) {
	if src == nil {
		return
	}
	c.mu.Lock()
	c.sources = append(c.sources, src)
	c.mu.Unlock()
}

// Sources returns a copy of the registered sources.
func (c *Collector) Sources() []Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Source, len(c.sources))
	copy(out, c.sources)
	return out
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	seen := make(map[string]struct{})
	for _, src := range c.Sources() {
		for _, r := range src.Collect() {
			name := SanitizeName(r.Name)
			if _, dup := seen[name]; dup {
				c.logger.Warn("duplicate metric reading dropped", "name", r.Name)
				continue
			}
			seen[name] = struct{}{}

			m, err := prometheus.NewConstMetric(c.desc(name, r.Name), prometheus.GaugeValue, r.Value)
			if err != nil {
				c.logger.Warn("invalid metric reading", "name", r.Name, "error", err)
				continue
			}
			ch <- m
		}
	}
}

func (c *Collector) desc(name, original string) *prometheus.Desc {
	c.descMu.Lock()
	defer c.descMu.Unlock()
	if d, ok := c.descs[name]; ok {
		return d
	}
	d := prometheus.NewDesc(name, "Reading "+original+".", nil, nil)
	c.descs[name] = d
	return d
}

// SanitizeName maps a reading name onto the Prometheus metric name
// alphabet [a-zA-Z_:][a-zA-Z0-9_:]*. Invalid characters become '_'.
func SanitizeName(name string) string {
	if name == "" {
		return "_"
	}
	var b strings.Builder
	b.Grow(len(name) + 1)
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == ':':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
