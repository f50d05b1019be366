package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type PrometheusRecorder struct {
	counters  *prometheus.CounterVec
	histogram *prometheus.HistogramVec
}

// NewPrometheusRecorder registers payment counters and stage latency
// histograms on the given registerer (pass prometheus.DefaultRegisterer
// for the global registry).
func NewPrometheusRecorder(reg prometheus.Registerer) Recorder {
	counters := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payflow",
			Name:      "payments_total",
			Help:      "Payment outcomes by chain and terminal status",
		},
		[]string{LabelChain, LabelStatus},
	)

	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "payflow",
			Name:      "stage_duration_seconds",
			Help:      "Duration of payment pipeline stages",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelStage, LabelChain},
	)

	reg.MustRegister(counters, histogram)

	return &PrometheusRecorder{
		counters:  counters,
		histogram: histogram,
	}
}

func (p *PrometheusRecorder) IncCounter(name string, labels map[string]string) {
	p.counters.With(prometheus.Labels{
		LabelChain:  labels[LabelChain],
		LabelStatus: labels[LabelStatus],
	}).Inc()
}

func (p *PrometheusRecorder) ObserveLatency(name string, d time.Duration, labels map[string]string) {
	p.histogram.With(prometheus.Labels{
		LabelStage: name,
		LabelChain: labels[LabelChain],
	}).Observe(d.Seconds())
}
