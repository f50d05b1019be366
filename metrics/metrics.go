package metrics

import "time"

// Recorder receives payment counters and stage latencies. Implementations
// must be safe for concurrent use.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}

// Metric and label names emitted by the payment service.
const (
	MetricPayments = "payments"
	LabelChain     = "chain"
	LabelStatus    = "status"
	LabelStage     = "stage"
)
