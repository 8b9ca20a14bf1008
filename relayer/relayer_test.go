// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relayer

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/lockproxy"
	"github.com/luxfi/lockproxy/backend"
	"github.com/luxfi/lockproxy/database"
	"github.com/luxfi/lockproxy/ledger"
	"github.com/luxfi/lockproxy/precompile"
	"github.com/luxfi/lockproxy/relayer/checkpoint"
	"github.com/luxfi/lockproxy/types"
)

var (
	operator = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	alice    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob      = common.HexToAddress("0x00000000000000000000000000000000000000b1")

	assetA = common.HexToAddress("0x000000000000000000000000000000000000aaaa")
	assetB = common.HexToAddress("0x000000000000000000000000000000000000bbbb")

	chain1 = big.NewInt(1)
	chain2 = big.NewInt(2)
)

type outbox struct {
	requests []*backend.Request
}

func (o *outbox) NumRequests() (uint64, error) {
	return uint64(len(o.requests)), nil
}

func (o *outbox) GetRequest(index uint64) (*backend.Request, error) {
	return o.requests[index], nil
}

type destinationFunc func(ctx context.Context, env types.Env, req *backend.Request) (*precompile.Receipt, error)

func (f destinationFunc) Deliver(ctx context.Context, env types.Env, req *backend.Request) (*precompile.Receipt, error) {
	return f(ctx, env, req)
}

func newModule(t *testing.T, chainID *big.Int) *precompile.Module {
	t.Helper()

	m, err := precompile.NewModule(
		precompile.DefaultConfig(chainID, operator),
		database.NewMemDB(),
		prometheus.NewRegistry(),
		log.NewNoOpLogger(),
	)
	require.NoError(t, err)
	return m
}

func mustCall(t *testing.T, m *precompile.Module, env lockproxy.Env, c lockproxy.Call) {
	t.Helper()

	_, err := m.Call(context.Background(), env, c)
	require.NoError(t, err)
}

func deployToken(t *testing.T, m *precompile.Module, asset, owner common.Address) {
	t.Helper()

	_, err := m.DeployToken(context.Background(), lockproxy.Env{Witness: types.NewWitnessSet(owner)}, asset, ledger.Metadata{
		Name:        "token",
		Symbol:      "TKN",
		TotalSupply: big.NewInt(1_000),
		Owner:       owner,
	})
	require.NoError(t, err)
}

// newBridge pairs asset A on chain 1 with asset B on chain 2. [srcProxy]
// is the proxy chain 2 trusts on chain 1.
func newBridge(t *testing.T, srcProxy []byte) (*precompile.Module, *precompile.Module) {
	t.Helper()

	src := newModule(t, chain1)
	dst := newModule(t, chain2)
	opEnv := lockproxy.Env{Caller: operator, Witness: types.NewWitnessSet(operator)}

	deployToken(t, src, assetA, alice)
	deployToken(t, dst, assetB, precompile.LockProxyContract)

	mustCall(t, src, opEnv, &lockproxy.BindProxyHashCall{ToChainID: chain2, TargetProxyHash: precompile.LockProxyContract.Bytes()})
	mustCall(t, src, opEnv, &lockproxy.BindAssetHashCall{FromAssetHash: assetA.Bytes(), ToChainID: chain2, TargetAssetHash: assetB.Bytes()})
	mustCall(t, dst, opEnv, &lockproxy.BindProxyHashCall{ToChainID: chain1, TargetProxyHash: srcProxy})
	mustCall(t, dst, opEnv, &lockproxy.BindAssetHashCall{FromAssetHash: assetB.Bytes(), ToChainID: chain1, TargetAssetHash: assetA.Bytes()})
	return src, dst
}

func lock(t *testing.T, m *precompile.Module, amount int64) {
	t.Helper()

	mustCall(t, m, lockproxy.Env{Caller: alice, Witness: types.NewWitnessSet(alice)}, &lockproxy.LockCall{
		FromAssetHash: assetA.Bytes(),
		FromAddress:   alice.Bytes(),
		ToChainID:     chain2,
		ToAddress:     bob.Bytes(),
		Amount:        big.NewInt(amount),
	})
}

func newTestRelayer(t *testing.T, source backend.Outbox, destination Destination) (*Relayer, *database.MemDB) {
	t.Helper()

	db := database.NewMemDB()
	cp, err := checkpoint.New(log.NewNoOpLogger(), db, "1-2", 0)
	require.NoError(t, err)

	r, err := New(
		Config{
			SourceChainID:      chain1,
			DestinationChainID: chain2,
			RelayTimeout:       10 * time.Millisecond,
		},
		source,
		destination,
		cp,
		prometheus.NewRegistry(),
		log.NewNoOpLogger(),
	)
	require.NoError(t, err)
	return r, db
}

func TestRelayPending(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	src, dst := newBridge(t, precompile.LockProxyContract.Bytes())
	lock(t, src, 100)
	lock(t, src, 50)

	r, _ := newTestRelayer(t, src.Outbox(), dst)
	delivered, err := r.RelayPending(ctx)
	require.NoError(err)
	require.Equal(2, delivered)
	require.Equal(uint64(2), r.checkpoint.Next())

	balance, err := dst.TokenBalance(ctx, assetB, bob)
	require.NoError(err)
	require.Equal(uint64(150), balance.Uint64())

	// nothing new
	delivered, err = r.RelayPending(ctx)
	require.NoError(err)
	require.Zero(delivered)

	lock(t, src, 25)
	delivered, err = r.RelayPending(ctx)
	require.NoError(err)
	require.Equal(1, delivered)

	labels := []string{chain2.String(), chain1.String()}
	require.InDelta(3, testutil.ToFloat64(r.metrics.successfulRelayMessageCount.WithLabelValues(labels...)), 0)
	require.InDelta(3, testutil.ToFloat64(r.metrics.nextIndex.WithLabelValues(labels...)), 0)
}

func TestRelaySkipsRejectedRequests(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	// chain 2 trusts some other contract on chain 1
	src, dst := newBridge(t, []byte("another proxy"))
	lock(t, src, 100)

	r, _ := newTestRelayer(t, src.Outbox(), dst)
	delivered, err := r.RelayPending(ctx)
	require.NoError(err)
	require.Zero(delivered)
	require.Equal(uint64(1), r.checkpoint.Next())

	balance, err := dst.TokenBalance(ctx, assetB, bob)
	require.NoError(err)
	require.True(balance.IsZero())

	labels := []string{chain2.String(), chain1.String(), failureReasonRejected}
	require.InDelta(1, testutil.ToFloat64(r.metrics.failedRelayMessageCount.WithLabelValues(labels...)), 0)
}

func TestRelaySkipsOtherDestinations(t *testing.T) {
	require := require.New(t)

	source := &outbox{requests: []*backend.Request{
		{Index: 0, FromChainID: chain1, FromContract: []byte{1}, ToChainID: big.NewInt(3), ToContract: []byte{2}, Method: "unlock"},
	}}
	calls := 0
	r, _ := newTestRelayer(t, source, destinationFunc(func(context.Context, types.Env, *backend.Request) (*precompile.Receipt, error) {
		calls++
		return &precompile.Receipt{}, nil
	}))

	delivered, err := r.RelayPending(context.Background())
	require.NoError(err)
	require.Zero(delivered)
	require.Zero(calls)
	require.Equal(uint64(1), r.checkpoint.Next())
}

func TestRelayStopsOnTransientFailure(t *testing.T) {
	require := require.New(t)

	source := &outbox{requests: []*backend.Request{
		{Index: 0, FromChainID: chain1, FromContract: []byte{1}, ToChainID: chain2, ToContract: []byte{2}, Method: "unlock"},
		{Index: 1, FromChainID: chain1, FromContract: []byte{1}, ToChainID: chain2, ToContract: []byte{2}, Method: "unlock"},
	}}
	calls := 0
	r, db := newTestRelayer(t, source, destinationFunc(func(context.Context, types.Env, *backend.Request) (*precompile.Receipt, error) {
		calls++
		return nil, fmt.Errorf("%w: node unavailable", lockproxy.ErrStorage)
	}))

	_, err := r.RelayPending(context.Background())
	require.ErrorIs(err, lockproxy.ErrStorage)
	require.Positive(calls)
	require.Zero(r.checkpoint.Next())
	require.Zero(db.Len())

	labels := []string{chain2.String(), chain1.String(), failureReasonTimeout}
	require.InDelta(1, testutil.ToFloat64(r.metrics.failedRelayMessageCount.WithLabelValues(labels...)), 0)
}

func TestRunStopsWithContext(t *testing.T) {
	src, dst := newBridge(t, precompile.LockProxyContract.Bytes())
	lock(t, src, 10)

	r, db := newTestRelayer(t, src.Outbox(), dst)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.NoError(t, r.Run(ctx))
	require.Equal(t, 1, db.Len())
	require.Equal(t, uint64(1), r.checkpoint.Next())
}

func TestIsPermanent(t *testing.T) {
	require := require.New(t)

	require.True(isPermanent(backend.ErrAlreadyDelivered))
	require.True(isPermanent(fmt.Errorf("wrapped: %w", lockproxy.ErrUntrustedSourceProxy)))
	require.True(isPermanent(lockproxy.ErrMalformedPayload))
	require.False(isPermanent(lockproxy.ErrTransferFailed))
	require.False(isPermanent(fmt.Errorf("timeout")))
}
