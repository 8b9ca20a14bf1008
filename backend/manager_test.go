// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package backend

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/lockproxy/database"
	"github.com/luxfi/lockproxy/types"
)

var (
	managerAddr = common.HexToAddress("0x00000000000000000000000000000000000000f2")
	proxyAddr   = common.HexToAddress("0x00000000000000000000000000000000000000f3")
	remoteProxy = []byte("remote proxy")
)

type receipt struct {
	caller       common.Address
	method       string
	args         []byte
	fromContract []byte
	fromChainID  *big.Int
}

type mockReceiver struct {
	received []receipt
	err      error
}

func (m *mockReceiver) Receive(_ context.Context, env types.Env, method string, args []byte, fromContract []byte, fromChainID *big.Int) error {
	if m.err != nil {
		return m.err
	}
	m.received = append(m.received, receipt{
		caller:       env.Caller,
		method:       method,
		args:         args,
		fromContract: fromContract,
		fromChainID:  fromChainID,
	})
	return nil
}

func newTestManager(chainID int64) (*Manager, *database.MemDB) {
	db := database.NewMemDB()
	return NewManager(big.NewInt(chainID), managerAddr, db, log.NewNoOpLogger()), db
}

func TestCrossChainQueuesRequests(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	m, _ := newTestManager(1)
	env := types.Env{Caller: proxyAddr}

	n, err := m.NumRequests()
	require.NoError(err)
	require.Zero(n)

	require.NoError(m.CrossChain(ctx, env, big.NewInt(2), remoteProxy, "unlock", []byte{0x01}))
	require.NoError(m.CrossChain(ctx, env, big.NewInt(3), remoteProxy, "unlock", []byte{0x02}))

	n, err = m.NumRequests()
	require.NoError(err)
	require.Equal(uint64(2), n)

	req, err := m.GetRequest(1)
	require.NoError(err)
	require.Equal(uint64(1), req.Index)
	require.Zero(big.NewInt(1).Cmp(req.FromChainID))
	require.Equal(proxyAddr.Bytes(), req.FromContract)
	require.Zero(big.NewInt(3).Cmp(req.ToChainID))
	require.Equal(remoteProxy, req.ToContract)
	require.Equal("unlock", req.Method)
	require.Equal([]byte{0x02}, req.Args)

	_, err = m.GetRequest(2)
	require.ErrorIs(err, ErrRequestNotFound)
}

func TestCrossChainRejected(t *testing.T) {
	ctx := context.Background()
	env := types.Env{Caller: proxyAddr}

	tests := []struct {
		name        string
		toChainID   *big.Int
		toContract  []byte
		method      string
		expectedErr error
	}{
		{"local chain", big.NewInt(1), remoteProxy, "unlock", ErrSameChain},
		{"negative chain", big.NewInt(-1), remoteProxy, "unlock", types.ErrInvalidChainID},
		{"empty contract", big.NewInt(2), nil, "unlock", ErrInvalidRequest},
		{"empty method", big.NewInt(2), remoteProxy, "", ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			m, db := newTestManager(1)
			err := m.CrossChain(ctx, env, tt.toChainID, tt.toContract, tt.method, nil)
			require.ErrorIs(err, tt.expectedErr)
			require.Zero(db.Len())
		})
	}
}

func TestDeliver(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	source, _ := newTestManager(1)
	dest, _ := newTestManager(2)
	receiver := &mockReceiver{}
	dest.Register(proxyAddr, receiver)

	require.NoError(source.CrossChain(ctx, types.Env{Caller: proxyAddr}, big.NewInt(2), proxyAddr.Bytes(), "unlock", []byte{0xAB}))
	req, err := source.GetRequest(0)
	require.NoError(err)

	// the relaying account does not become the caller
	relayer := types.Env{Caller: common.HexToAddress("0x99")}
	require.NoError(dest.Deliver(ctx, relayer, req))

	require.Len(receiver.received, 1)
	got := receiver.received[0]
	require.Equal(managerAddr, got.caller)
	require.Equal("unlock", got.method)
	require.Equal([]byte{0xAB}, got.args)
	require.Equal(proxyAddr.Bytes(), got.fromContract)
	require.Zero(big.NewInt(1).Cmp(got.fromChainID))

	id, err := req.ID()
	require.NoError(err)
	delivered, err := dest.IsDelivered(id)
	require.NoError(err)
	require.True(delivered)

	err = dest.Deliver(ctx, relayer, req)
	require.ErrorIs(err, ErrAlreadyDelivered)
	require.Len(receiver.received, 1)
}

func TestDeliverRejected(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	dest, _ := newTestManager(2)
	errReceive := errors.New("unlock failed")
	dest.Register(proxyAddr, &mockReceiver{err: errReceive})

	req := &Request{
		FromChainID:  big.NewInt(1),
		FromContract: remoteProxy,
		ToChainID:    big.NewInt(2),
		ToContract:   proxyAddr.Bytes(),
		Method:       "unlock",
	}

	err := dest.Deliver(ctx, types.Env{}, req)
	require.ErrorIs(err, errReceive)
	id, err := req.ID()
	require.NoError(err)
	delivered, err := dest.IsDelivered(id)
	require.NoError(err)
	require.False(delivered)

	wrongChain := *req
	wrongChain.ToChainID = big.NewInt(3)
	require.ErrorIs(dest.Deliver(ctx, types.Env{}, &wrongChain), ErrWrongChain)

	unknown := *req
	unknown.ToContract = common.HexToAddress("0x01").Bytes()
	require.ErrorIs(dest.Deliver(ctx, types.Env{}, &unknown), ErrUnknownContract)

	malformed := *req
	malformed.ToContract = []byte{0x01}
	require.ErrorIs(dest.Deliver(ctx, types.Env{}, &malformed), ErrUnknownContract)
}

func TestRequestEncoding(t *testing.T) {
	require := require.New(t)

	req := &Request{
		Index:        7,
		FromChainID:  big.NewInt(1),
		FromContract: proxyAddr.Bytes(),
		ToChainID:    big.NewInt(2),
		ToContract:   remoteProxy,
		Method:       "unlock",
		Args:         []byte{0x01, 0x02},
	}
	b, err := req.Bytes()
	require.NoError(err)

	parsed, err := ParseRequest(b)
	require.NoError(err)
	require.Equal(req, parsed)

	id1, err := req.ID()
	require.NoError(err)
	req.Index++
	id2, err := req.ID()
	require.NoError(err)
	require.NotEqual(id1, id2)

	_, err = ParseRequest([]byte{0xFF})
	require.ErrorIs(err, ErrInvalidRequest)
}
