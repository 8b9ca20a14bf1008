// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package precompile

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/lockproxy"
)

type moduleMetrics struct {
	successfulCallCount *prometheus.CounterVec
	failedCallCount     *prometheus.CounterVec
	gasUsed             *prometheus.CounterVec
	callLatencyMS       *prometheus.GaugeVec
}

func newModuleMetrics(registerer prometheus.Registerer) (*moduleMetrics, error) {
	m := moduleMetrics{
		successfulCallCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lockproxy_successful_call_count",
				Help: "Number of lock proxy calls that committed",
			},
			[]string{"method"},
		),
		failedCallCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lockproxy_failed_call_count",
				Help: "Number of lock proxy calls that were rolled back",
			},
			[]string{"method", "failure_kind"},
		),
		gasUsed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lockproxy_gas_used",
				Help: "Gas charged to committed lock proxy calls",
			},
			[]string{"method"},
		),
		callLatencyMS: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lockproxy_call_latency_ms",
				Help: "Latency of the last lock proxy call in milliseconds",
			},
			[]string{"method"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.successfulCallCount,
		m.failedCallCount,
		m.gasUsed,
		m.callLatencyMS,
	} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

func (m *moduleMetrics) success(method string, gas uint64, latencyMS float64) {
	m.successfulCallCount.WithLabelValues(method).Inc()
	m.gasUsed.WithLabelValues(method).Add(float64(gas))
	m.callLatencyMS.WithLabelValues(method).Set(latencyMS)
}

func (m *moduleMetrics) failure(method string, err error, latencyMS float64) {
	m.failedCallCount.WithLabelValues(method, lockproxy.KindOf(err).String()).Inc()
	m.callLatencyMS.WithLabelValues(method).Set(latencyMS)
}
