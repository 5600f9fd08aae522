package render

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the render cache counters. All methods are nil-receiver safe
// so the Engine can run without a registry in tests.
type Metrics struct {
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	renderFailures prometheus.Counter
}

// NewMetrics creates and registers the render cache counters.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "page_cache_hits_total",
			Help: "Total number of page requests served from the render cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "page_cache_misses_total",
			Help: "Total number of page requests that invoked the renderer.",
		}),
		renderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "page_render_failures_total",
			Help: "Total number of renders that failed or produced no output.",
		}),
	}

	for _, c := range []prometheus.Counter{m.cacheHits, m.cacheMisses, m.renderFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) hit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

func (m *Metrics) failure() {
	if m != nil {
		m.renderFailures.Inc()
	}
}
