package converter

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "autoconvert"

// 运行结果标签
const (
	resultOK          = "ok"
	resultEmpty       = "empty"
	resultFetchError  = "fetch_error"
	resultRenderError = "render_error"
)

// Metrics holds the Prometheus collectors for conversion runs.
type Metrics struct {
	runsTotal   *prometheus.CounterVec
	linksTotal  *prometheus.CounterVec
	runDuration prometheus.Histogram
}

// NewMetrics registers the conversion collectors on reg (the default registerer when nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "convert",
				Name:      "runs_total",
				Help:      "Total number of conversion runs by result.",
			},
			[]string{"result"},
		),
		linksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "convert",
				Name:      "links_total",
				Help:      "Proxy links seen by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "convert",
				Name:      "run_duration_seconds",
				Help:      "Conversion run latency in seconds, fetch included.",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

func (m *Metrics) observeRun(result string, started time.Time) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(result).Inc()
	m.runDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) addLinks(kind, outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.linksTotal.WithLabelValues(kind, outcome).Add(float64(n))
}
