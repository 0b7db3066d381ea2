package validator

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/reposettings/settings"
)

const outcomeValid = "valid"

// validatorMetrics holds Prometheus metrics for validation runs.
type validatorMetrics struct {
	checks        *prometheus.CounterVec   // By field and outcome (valid or failure kind)
	probeDuration *prometheus.HistogramVec // By probe (broker, lookup)
}

// newValidatorMetrics creates and registers validator metrics. A nil
// registerer disables metrics. Validators rebuilt against the same
// registerer share its collectors.
func newValidatorMetrics(reg prometheus.Registerer) (*validatorMetrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &validatorMetrics{
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reposettings",
			Subsystem: "validation",
			Name:      "checks_total",
			Help:      "Total number of field checks by outcome",
		}, []string{"field", "outcome"}),

		probeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reposettings",
			Subsystem: "validation",
			Name:      "probe_duration_seconds",
			Help:      "Duration of network probes in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"probe"}),
	}

	var err error
	if m.checks, err = register(reg, m.checks); err != nil {
		return nil, fmt.Errorf("register checks_total: %w", err)
	}
	if m.probeDuration, err = register(reg, m.probeDuration); err != nil {
		return nil, fmt.Errorf("register probe_duration_seconds: %w", err)
	}
	return m, nil
}

// register registers c, or returns the collector already registered under
// the same descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}

func (m *validatorMetrics) recordCheck(field settings.Field, fe *FieldError) {
	if m == nil {
		return
	}
	outcome := outcomeValid
	if fe != nil {
		outcome = string(fe.Kind)
	}
	m.checks.WithLabelValues(string(field), outcome).Inc()
}

func (m *validatorMetrics) observeProbe(probe string, start time.Time) {
	if m == nil {
		return
	}
	m.probeDuration.WithLabelValues(probe).Observe(time.Since(start).Seconds())
}
