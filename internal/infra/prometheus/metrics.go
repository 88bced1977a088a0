package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quotalink"

// LinkMetrics counts link activity.
type LinkMetrics struct {
	created prometheus.Counter
	opens   *prometheus.CounterVec
	purged  prometheus.Counter
}

// NewLinkMetrics registers the link counters on reg.
func NewLinkMetrics(reg prometheus.Registerer) *LinkMetrics {
	factory := promauto.With(reg)
	return &LinkMetrics{
		created: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_created_total",
			Help:      "Short links created.",
		}),
		opens: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_opens_total",
			Help:      "Open attempts by outcome.",
		}, []string{"outcome"}),
		purged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_purged_total",
			Help:      "Expired links removed by the sweeper.",
		}),
	}
}

func (m *LinkMetrics) LinkCreated() {
	m.created.Inc()
}

func (m *LinkMetrics) OpenResolved(outcome string) {
	m.opens.WithLabelValues(outcome).Inc()
}

func (m *LinkMetrics) LinksPurged(n int64) {
	m.purged.Add(float64(n))
}
