package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/git-pkgs/compare/search"
)

const namespace = "pkgcompare"

type metrics struct {
	searches        *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	sessions        prometheus.Gauge
	sessionsEvicted prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		searches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Package searches by outcome",
		}, []string{"result"}),

		fetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Time spent fetching metadata and downloads for one package",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),

		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Live comparison sessions",
		}),

		sessionsEvicted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_evicted_total",
			Help:      "Sessions dropped to make room for new ones",
		}),
	}
}

func (m *metrics) observe(ev search.Event) {
	m.searches.WithLabelValues(string(ev.Result)).Inc()
	if ev.Duration > 0 {
		m.fetchDuration.WithLabelValues(string(ev.Result)).Observe(ev.Duration.Seconds())
	}
}
