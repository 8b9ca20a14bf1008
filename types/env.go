// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package types

import (
	"github.com/luxfi/geth/common"
	"github.com/luxfi/math/set"
)

// Witness answers whether the current invocation carries the authorization
// of an address. How that is proven is up to the host.
type Witness interface {
	CheckWitness(addr common.Address) bool
}

// Env is the execution context of a single invocation.
type Env struct {
	// Caller is the address of the contract or account that made the call.
	// For cross-contract calls it is the calling contract.
	Caller common.Address
	// Witness holds the authorizations attached to the invocation.
	Witness Witness
}

// CheckWitness is a nil safe shortcut for e.Witness.CheckWitness
func (e Env) CheckWitness(addr common.Address) bool {
	return e.Witness != nil && e.Witness.CheckWitness(addr)
}

// WithCaller returns a copy of e for a call made by [caller]. The witness is
// inherited: authorizations belong to the invocation, not to the caller.
func (e Env) WithCaller(caller common.Address) Env {
	return Env{Caller: caller, Witness: e.Witness}
}

// WitnessSet is a Witness backed by a fixed set of signers.
type WitnessSet struct {
	signers set.Set[common.Address]
}

// NewWitnessSet returns a witness that authorizes exactly [signers]
func NewWitnessSet(signers ...common.Address) *WitnessSet {
	return &WitnessSet{signers: set.Of(signers...)}
}

// CheckWitness implements Witness
func (w *WitnessSet) CheckWitness(addr common.Address) bool {
	return w.signers.Contains(addr)
}

// Signers returns the authorized addresses
func (w *WitnessSet) Signers() []common.Address {
	return w.signers.List()
}
