// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package backend

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/rlp"
	"github.com/luxfi/ids"

	"github.com/luxfi/lockproxy/types"
)

var ErrInvalidRequest = errors.New("invalid cross-chain request")

// Request is a cross-chain call from a contract on FromChainID to
// ToContract on ToChainID. Index orders the requests of the source manager.
type Request struct {
	Index        uint64
	FromChainID  *big.Int
	FromContract []byte
	ToChainID    *big.Int
	ToContract   []byte
	Method       string
	Args         []byte
}

// Verify checks that the request can be delivered
func (r *Request) Verify() error {
	if err := types.ValidateChainID(r.FromChainID); err != nil {
		return fmt.Errorf("%w: from chain: %w", ErrInvalidRequest, err)
	}
	if err := types.ValidateChainID(r.ToChainID); err != nil {
		return fmt.Errorf("%w: to chain: %w", ErrInvalidRequest, err)
	}
	switch {
	case len(r.FromContract) == 0:
		return fmt.Errorf("%w: empty from contract", ErrInvalidRequest)
	case len(r.ToContract) == 0:
		return fmt.Errorf("%w: empty to contract", ErrInvalidRequest)
	case r.Method == "":
		return fmt.Errorf("%w: empty method", ErrInvalidRequest)
	default:
		return nil
	}
}

// Bytes returns the rlp encoding of the request
func (r *Request) Bytes() ([]byte, error) {
	return rlp.EncodeToBytes(r)
}

// ID is the Keccak-256 hash of the encoded request
func (r *Request) ID() (ids.ID, error) {
	b, err := r.Bytes()
	if err != nil {
		return ids.Empty, err
	}
	var id ids.ID
	copy(id[:], crypto.Keccak256(b))
	return id, nil
}

// ParseRequest decodes an encoded request
func ParseRequest(b []byte) (*Request, error) {
	r := new(Request)
	if err := rlp.DecodeBytes(b, r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return r, nil
}
