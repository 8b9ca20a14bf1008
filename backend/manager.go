// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package backend implements the cross-chain manager: it queues outbound
// calls in a persistent outbox and delivers inbound calls to the contracts
// registered with it, identifying itself as the caller.
package backend

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/lockproxy/database"
	"github.com/luxfi/lockproxy/types"
)

var (
	countKey       = []byte("requestCount")
	requestPrefix  = []byte("request/")
	deliveryPrefix = []byte("delivered/")

	ErrSameChain        = errors.New("destination is the local chain")
	ErrWrongChain       = errors.New("request is not for this chain")
	ErrUnknownContract  = errors.New("no contract registered at address")
	ErrAlreadyDelivered = errors.New("request already delivered")
	ErrRequestNotFound  = errors.New("request not found")
)

// Receiver is a contract that accepts inbound cross-chain calls
type Receiver interface {
	Receive(ctx context.Context, env types.Env, method string, args []byte, fromContract []byte, fromChainID *big.Int) error
}

// Outbox is the read side of a manager's queued requests
type Outbox interface {
	NumRequests() (uint64, error)
	GetRequest(index uint64) (*Request, error)
}

var _ Outbox = (*Manager)(nil)

// Manager is the cross-chain manager of a single chain
type Manager struct {
	chainID   *big.Int
	address   common.Address
	db        database.Database
	receivers map[common.Address]Receiver
	log       log.Logger
}

// NewManager returns the manager at [address] on [chainID] storing its
// outbox in [db]
func NewManager(chainID *big.Int, address common.Address, db database.Database, logger log.Logger) *Manager {
	return &Manager{
		chainID:   new(big.Int).Set(chainID),
		address:   address,
		db:        db,
		receivers: make(map[common.Address]Receiver),
		log:       logger,
	}
}

// Address returns the caller identity used for inbound calls
func (m *Manager) Address() common.Address {
	return m.address
}

// ChainID returns the local chain id
func (m *Manager) ChainID() *big.Int {
	return new(big.Int).Set(m.chainID)
}

// Register makes [r] reachable at [contract] for inbound calls
func (m *Manager) Register(contract common.Address, r Receiver) {
	m.receivers[contract] = r
}

// CrossChain queues a call to [toContract] on [toChainID]. The calling
// contract, env.Caller, is recorded as the source.
func (m *Manager) CrossChain(_ context.Context, env types.Env, toChainID *big.Int, toContract []byte, method string, args []byte) error {
	index, err := m.NumRequests()
	if err != nil {
		return err
	}
	req := &Request{
		Index:        index,
		FromChainID:  m.ChainID(),
		FromContract: env.Caller.Bytes(),
		ToChainID:    toChainID,
		ToContract:   common.CopyBytes(toContract),
		Method:       method,
		Args:         common.CopyBytes(args),
	}
	if err := req.Verify(); err != nil {
		return err
	}
	if req.ToChainID.Cmp(m.chainID) == 0 {
		return fmt.Errorf("%w: %s", ErrSameChain, toChainID)
	}
	reqBytes, err := req.Bytes()
	if err != nil {
		return err
	}
	id, err := req.ID()
	if err != nil {
		return err
	}

	batch := m.db.NewBatch()
	if err := batch.Put(requestKey(index), reqBytes); err != nil {
		return err
	}
	if err := batch.Put(countKey, binary.BigEndian.AppendUint64(nil, index+1)); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}

	m.log.Info("queued cross-chain request",
		log.Stringer("requestID", id),
		log.Uint64("index", index),
		log.Stringer("toChainID", toChainID),
		log.String("method", method),
	)
	return nil
}

// NumRequests returns the number of queued requests
func (m *Manager) NumRequests() (uint64, error) {
	b, err := m.db.Get(countKey)
	if database.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(b) != 8 {
		return 0, fmt.Errorf("corrupted request count %x", b)
	}
	return binary.BigEndian.Uint64(b), nil
}

// GetRequest returns the queued request at [index]
func (m *Manager) GetRequest(index uint64) (*Request, error) {
	b, err := m.db.Get(requestKey(index))
	if database.IsNotFound(err) {
		return nil, fmt.Errorf("%w: index %d", ErrRequestNotFound, index)
	}
	if err != nil {
		return nil, err
	}
	return ParseRequest(b)
}

// Deliver invokes an inbound request on its target contract with the
// manager as caller. A request is delivered at most once.
func (m *Manager) Deliver(ctx context.Context, env types.Env, req *Request) error {
	if err := req.Verify(); err != nil {
		return err
	}
	if req.ToChainID.Cmp(m.chainID) != 0 {
		return fmt.Errorf("%w: %s", ErrWrongChain, req.ToChainID)
	}
	target, err := types.BytesToAddress(req.ToContract)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnknownContract, err)
	}
	receiver, ok := m.receivers[target]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownContract, target)
	}
	id, err := req.ID()
	if err != nil {
		return err
	}
	delivered, err := m.IsDelivered(id)
	if err != nil {
		return err
	}
	if delivered {
		return fmt.Errorf("%w: %s", ErrAlreadyDelivered, id)
	}

	if err := receiver.Receive(ctx, env.WithCaller(m.address), req.Method, req.Args, req.FromContract, req.FromChainID); err != nil {
		return err
	}
	if err := m.db.Put(deliveryKey(id), nil); err != nil {
		return err
	}

	m.log.Info("delivered cross-chain request",
		log.Stringer("requestID", id),
		log.Stringer("fromChainID", req.FromChainID),
		log.Stringer("target", target),
		log.String("method", req.Method),
	)
	return nil
}

// IsDelivered reports whether the request [id] was delivered
func (m *Manager) IsDelivered(id ids.ID) (bool, error) {
	return m.db.Has(deliveryKey(id))
}

func requestKey(index uint64) []byte {
	return binary.BigEndian.AppendUint64(append([]byte(nil), requestPrefix...), index)
}

func deliveryKey(id ids.ID) []byte {
	return append(append([]byte(nil), deliveryPrefix...), id[:]...)
}
