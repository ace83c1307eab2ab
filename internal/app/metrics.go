package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

const metricsNamespace = "quotebook"

// Metrics are the Prometheus collectors for the quote workflows. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	quotes       prometheus.Gauge
	renders      *prometheus.CounterVec
	imports      *prometheus.CounterVec
	syncs        *prometheus.CounterVec
	syncDuration prometheus.Histogram
	conflicts    *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		quotes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "quotes",
			Help:      "Number of quotes in the store.",
		}),
		renders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "renders_total",
			Help:      "Quote renderings by kind.",
		}, []string{"kind"}),
		imports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "import_records_total",
			Help:      "Imported array elements by outcome.",
		}, []string{"outcome"}),
		syncs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "syncs_total",
			Help:      "Sync runs by trigger and result.",
		}, []string{"trigger", "result"}),
		syncDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of sync runs.",
			Buckets:   prometheus.DefBuckets,
		}),
		conflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sync_differences_total",
			Help:      "Differences found by sync, by class.",
		}, []string{"class"}),
	}
}

func (m *Metrics) setQuotes(n int) {
	if m == nil {
		return
	}

	m.quotes.Set(float64(n))
}

func (m *Metrics) rendered(kind domain.RenderKind) {
	if m == nil {
		return
	}

	m.renders.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) imported(imported, skipped int) {
	if m == nil {
		return
	}

	m.imports.WithLabelValues("imported").Add(float64(imported))
	m.imports.WithLabelValues("skipped").Add(float64(skipped))
}

func (m *Metrics) synced(trigger Trigger, err error, seconds float64, diff *domain.DiffResult) {
	if m == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = "error"
	}

	m.syncs.WithLabelValues(string(trigger), result).Inc()
	m.syncDuration.Observe(seconds)

	if diff != nil {
		m.conflicts.WithLabelValues("modified").Add(float64(len(diff.Modified)))
		m.conflicts.WithLabelValues("server_only").Add(float64(len(diff.ServerOnly)))
		m.conflicts.WithLabelValues("local_only").Add(float64(len(diff.LocalOnly)))
	}
}
