// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/luxfi/log"
)

// WithRetriesTimeout uses an exponential backoff to run the operation until it
// succeeds or timeout limit has been reached.
func WithRetriesTimeout(
	logger log.Logger,
	operation backoff.Operation,
	timeout time.Duration,
) error {
	return WithRetriesContext(context.Background(), logger, operation, timeout)
}

// WithRetriesContext is WithRetriesTimeout that also stops when [ctx] is
// done. Errors wrapped with backoff.Permanent are not retried.
func WithRetriesContext(
	ctx context.Context,
	logger log.Logger,
	operation backoff.Operation,
	timeout time.Duration,
) error {
	expBackOff := backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(timeout),
	)
	notify := func(err error, duration time.Duration) {
		logger.Warn("operation failed, retrying...",
			log.Err(err),
			log.Stringer("retryIn", duration),
		)
	}
	return backoff.RetryNotify(operation, backoff.WithContext(expBackOff, ctx), notify)
}

// WithMaxRetries runs the operation with the default exponential backoff
// until it succeeds or [maxElapsedTime] has passed.
func WithMaxRetries(
	operation backoff.Operation,
	maxElapsedTime time.Duration,
	logger log.Logger,
) error {
	return WithRetriesTimeout(logger, operation, maxElapsedTime)
}
