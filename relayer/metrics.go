// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relayer

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	failureReasonRejected = "rejected"
	failureReasonTimeout  = "timeout"
)

type relayerMetrics struct {
	successfulRelayMessageCount *prometheus.CounterVec
	deliverLatencyMS            *prometheus.GaugeVec
	failedRelayMessageCount     *prometheus.CounterVec
	nextIndex                   *prometheus.GaugeVec
}

func newRelayerMetrics(registerer prometheus.Registerer) (*relayerMetrics, error) {
	m := relayerMetrics{
		successfulRelayMessageCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "successful_relay_message_count",
				Help: "Number of cross-chain requests that relayed successfully",
			},
			[]string{"destination_chain_id", "source_chain_id"},
		),
		deliverLatencyMS: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "deliver_latency_ms",
				Help: "Latency of delivering a request, retries included, in milliseconds",
			},
			[]string{"destination_chain_id", "source_chain_id"},
		),
		failedRelayMessageCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "failed_relay_message_count",
				Help: "Number of cross-chain requests that failed to relay",
			},
			[]string{"destination_chain_id", "source_chain_id", "failure_reason"},
		),
		nextIndex: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "relayer_next_outbox_index",
				Help: "First outbox index the relayer has not processed",
			},
			[]string{"destination_chain_id", "source_chain_id"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.successfulRelayMessageCount,
		m.deliverLatencyMS,
		m.failedRelayMessageCount,
		m.nextIndex,
	} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return &m, nil
}
