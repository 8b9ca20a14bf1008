// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package relayer moves cross-chain requests from the outbox of a source
// chain to the manager of a destination chain.
package relayer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/lockproxy"
	"github.com/luxfi/lockproxy/backend"
	"github.com/luxfi/lockproxy/precompile"
	"github.com/luxfi/lockproxy/relayer/checkpoint"
	"github.com/luxfi/lockproxy/types"
	"github.com/luxfi/lockproxy/utils"
)

const (
	DefaultRelayTimeout = 30 * time.Second
	DefaultPollInterval = time.Second
)

var errNilChainID = errors.New("source and destination chain ids required")

// Destination accepts requests on the destination chain
type Destination interface {
	Deliver(ctx context.Context, env types.Env, req *backend.Request) (*precompile.Receipt, error)
}

type Config struct {
	SourceChainID      *big.Int
	DestinationChainID *big.Int
	// Address is the caller identity of the relayer on the destination
	Address common.Address
	// RelayTimeout bounds the retries of a single request
	RelayTimeout time.Duration
	PollInterval time.Duration
}

// Relayer delivers the requests of one source outbox that target one
// destination chain, in outbox order.
type Relayer struct {
	config      Config
	source      backend.Outbox
	destination Destination
	checkpoint  *checkpoint.Checkpoint
	metrics     *relayerMetrics
	logger      log.Logger
}

func New(
	config Config,
	source backend.Outbox,
	destination Destination,
	checkpoint *checkpoint.Checkpoint,
	registerer prometheus.Registerer,
	logger log.Logger,
) (*Relayer, error) {
	if config.SourceChainID == nil || config.DestinationChainID == nil {
		return nil, errNilChainID
	}
	if config.RelayTimeout == 0 {
		config.RelayTimeout = DefaultRelayTimeout
	}
	if config.PollInterval == 0 {
		config.PollInterval = DefaultPollInterval
	}
	metrics, err := newRelayerMetrics(registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	return &Relayer{
		config:      config,
		source:      source,
		destination: destination,
		checkpoint:  checkpoint,
		metrics:     metrics,
		logger:      logger,
	}, nil
}

// Run relays pending requests every poll interval until [ctx] is done
func (r *Relayer) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := r.RelayPending(ctx); err != nil {
			r.logger.Error("Failed to relay pending requests", log.Err(err))
		}
		select {
		case <-ctx.Done():
			return r.checkpoint.Flush()
		case <-ticker.C:
		}
	}
}

// RelayPending processes every request queued since the checkpoint and
// returns the number delivered. It stops at the first request that could
// not be delivered within the relay timeout so that order is kept.
func (r *Relayer) RelayPending(ctx context.Context) (int, error) {
	count, err := r.source.NumRequests()
	if err != nil {
		return 0, fmt.Errorf("failed to read outbox: %w", err)
	}

	delivered := 0
	for index := r.checkpoint.Next(); index < count; index++ {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		req, err := r.source.GetRequest(index)
		if err != nil {
			return delivered, fmt.Errorf("failed to read request %d: %w", index, err)
		}
		if req.ToChainID.Cmp(r.config.DestinationChainID) != 0 {
			r.checkpoint.Stage(index)
			continue
		}

		ok, err := r.relay(ctx, req)
		if err != nil {
			return delivered, err
		}
		if ok {
			delivered++
		}
		r.checkpoint.Stage(index)
	}

	r.gauge(r.metrics.nextIndex).Set(float64(r.checkpoint.Next()))
	return delivered, r.checkpoint.Flush()
}

// relay delivers [req], retrying transient failures. Requests the
// destination rejects are skipped and reported as not delivered.
func (r *Relayer) relay(ctx context.Context, req *backend.Request) (bool, error) {
	start := time.Now()
	env := types.Env{Caller: r.config.Address}

	err := utils.WithRetriesContext(ctx, r.logger, func() error {
		_, err := r.destination.Deliver(ctx, env, req)
		if err != nil && isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, r.config.RelayTimeout)
	r.gauge(r.metrics.deliverLatencyMS).Set(float64(time.Since(start).Milliseconds()))

	switch {
	case err == nil:
		r.metrics.successfulRelayMessageCount.WithLabelValues(r.labelValues()...).Inc()
		r.logger.Info(
			"Relayed request",
			log.Uint64("index", req.Index),
			log.Stringer("sourceChainID", r.config.SourceChainID),
			log.Stringer("destinationChainID", r.config.DestinationChainID),
		)
		return true, nil
	case errors.Is(err, backend.ErrAlreadyDelivered):
		r.logger.Debug(
			"Request already delivered",
			log.Uint64("index", req.Index),
		)
		return false, nil
	case isPermanent(err):
		r.failure(failureReasonRejected).Inc()
		r.logger.Error(
			"Destination rejected request",
			log.Uint64("index", req.Index),
			log.String("method", req.Method),
			log.Err(err),
		)
		return false, nil
	default:
		r.failure(failureReasonTimeout).Inc()
		return false, fmt.Errorf("failed to deliver request %d: %w", req.Index, err)
	}
}

// isPermanent reports whether retrying [err] cannot succeed
func isPermanent(err error) bool {
	switch {
	case errors.Is(err, backend.ErrAlreadyDelivered),
		errors.Is(err, backend.ErrWrongChain),
		errors.Is(err, backend.ErrUnknownContract),
		errors.Is(err, backend.ErrInvalidRequest):
		return true
	}
	switch lockproxy.KindOf(err) {
	case lockproxy.KindValidation,
		lockproxy.KindBinding,
		lockproxy.KindAuthorization,
		lockproxy.KindDecode:
		return true
	default:
		return false
	}
}

func (r *Relayer) labelValues() []string {
	return []string{r.config.DestinationChainID.String(), r.config.SourceChainID.String()}
}

func (r *Relayer) gauge(vec *prometheus.GaugeVec) prometheus.Gauge {
	return vec.WithLabelValues(r.labelValues()...)
}

func (r *Relayer) failure(reason string) prometheus.Counter {
	return r.metrics.failedRelayMessageCount.WithLabelValues(append(r.labelValues(), reason)...)
}
