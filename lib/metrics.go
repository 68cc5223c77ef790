package lib

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

/* This file implements telemetry for the prover and the validators in the form of prometheus metrics */

const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
)

// Metrics holds the prometheus collectors on a private registry
// A nil *Metrics is valid and records nothing
type Metrics struct {
	registry *prometheus.Registry // private registry; nothing is registered globally
	config   MetricsConfig        // the configuration

	ValidatorMetrics // validation telemetry
	SMTMetrics       // proof generator telemetry
}

// ValidatorMetrics represents the telemetry of the validators run by the host
type ValidatorMetrics struct {
	Validations *prometheus.CounterVec // how many validations ran, by validator and result?
	ExitCodes   *prometheus.CounterVec // how many times was each exit code produced?
}

// SMTMetrics represents the telemetry of the proof generator
type SMTMetrics struct {
	Commits prometheus.Counter // how many change sets were committed?
	Proofs  prometheus.Counter // how many proofs were compiled?
	Updates prometheus.Counter // how many single leaf updates were applied?
}

// NewMetrics() creates the collectors for the configured namespace
func NewMetrics(config MetricsConfig) *Metrics {
	if !config.MetricsEnabled {
		return nil
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		config:   config,
		ValidatorMetrics: ValidatorMetrics{
			Validations: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "validations_total",
				Help:      "Total number of validator executions",
			}, []string{"validator", "result"}),
			ExitCodes: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "exit_codes_total",
				Help:      "Number of validator executions per exit code",
			}, []string{"code"}),
		},
		SMTMetrics: SMTMetrics{
			Commits: factory.NewCounter(prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "smt_commits_total",
				Help:      "Total number of committed change sets",
			}),
			Proofs: factory.NewCounter(prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "smt_proofs_total",
				Help:      "Total number of compiled merkle proofs",
			}),
			Updates: factory.NewCounter(prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "smt_updates_total",
				Help:      "Total number of single leaf updates",
			}),
		},
	}
}

// ObserveValidation() records the outcome of one validator execution
func (m *Metrics) ObserveValidation(validator string, exitCode int8) {
	if m == nil {
		return
	}
	result := ResultAccepted
	if exitCode != 0 {
		result = ResultRejected
	}
	m.Validations.WithLabelValues(validator, result).Inc()
	m.ExitCodes.WithLabelValues(fmt.Sprintf("%d", exitCode)).Inc()
}

// ObserveCommit() records a committed change set
func (m *Metrics) ObserveCommit() {
	if m == nil {
		return
	}
	m.Commits.Inc()
}

// ObserveProof() records a compiled proof
func (m *Metrics) ObserveProof() {
	if m == nil {
		return
	}
	m.Proofs.Inc()
}

// ObserveUpdate() records a single leaf update
func (m *Metrics) ObserveUpdate() {
	if m == nil {
		return
	}
	m.Updates.Inc()
}

// WriteText() renders every collected metric in the prometheus text exposition format
func (m *Metrics) WriteText(w io.Writer) ErrorI {
	if m == nil {
		return nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return ErrWriteMetrics(err)
	}
	for _, mf := range families {
		if _, err = expfmt.MetricFamilyToText(w, mf); err != nil {
			return ErrWriteMetrics(err)
		}
	}
	return nil
}
