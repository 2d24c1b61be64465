package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SweepMetrics records metadata for sweeper passes and listing churn.
type SweepMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	settled  *prometheus.CounterVec
}

// NewSweepMetrics registers the sweeper metrics on the provided registerer.
func NewSweepMetrics(reg prometheus.Registerer) *SweepMetrics {
	if reg == nil {
		return &SweepMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sweep_step_duration_seconds",
		Help:    "Duration of sweeper steps in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"step"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_step_success",
		Help: "Successful sweeper step executions.",
	}, []string{"step"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_step_failure",
		Help: "Failed sweeper step executions.",
	}, []string{"step"})
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_listings_settled",
		Help: "Listings finalized by the sweeper, labeled by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(duration, success, failure, settled)
	return &SweepMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		settled:  settled,
	}
}

// ObserveDuration records the duration for the named sweeper step.
func (s *SweepMetrics) ObserveDuration(step string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(step)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named step.
func (s *SweepMetrics) IncSuccess(step string) {
	if s == nil || s.success == nil {
		return
	}
	s.success.WithLabelValues(normalizeLabel(step)).Inc()
}

// IncFailure increments the failure counter for the named step.
func (s *SweepMetrics) IncFailure(step string) {
	if s == nil || s.failure == nil {
		return
	}
	s.failure.WithLabelValues(normalizeLabel(step)).Inc()
}

// AddSettled counts listings finalized with the given outcome.
func (s *SweepMetrics) AddSettled(outcome string, count int) {
	if s == nil || s.settled == nil || count <= 0 {
		return
	}
	s.settled.WithLabelValues(normalizeLabel(outcome)).Add(float64(count))
}

func normalizeLabel(step string) string {
	if step == "" {
		return "unknown"
	}
	return step
}
