package payflow

import (
	"time"

	"github.com/openpay-labs/payflow/logger"
	"github.com/openpay-labs/payflow/metrics"
	"github.com/openpay-labs/payflow/store"
)

type Option func(*Service)

func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(s *Service) {
		s.metrics = r
	}
}

func WithStore(st store.Store) Option {
	return func(s *Service) {
		s.store = st
	}
}

// WithTimeout bounds one whole Pay call, submission and confirmation
// included.
func WithTimeout(t time.Duration) Option {
	return func(s *Service) {
		s.timeout = t
	}
}
