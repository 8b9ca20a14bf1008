// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package payload implements the binary format carried between paired lock
// proxies: variable length integers, length prefixed byte strings and fixed
// 32 byte little-endian amounts.
package payload

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// ErrInvalidPayload is returned when a payload cannot be decoded
var ErrInvalidPayload = errors.New("invalid payload")

// TransferArgs is the instruction a proxy sends to its remote peer: release
// Amount of AssetHash to ToAddress.
type TransferArgs struct {
	AssetHash []byte
	ToAddress []byte
	Amount    *uint256.Int
}

// NewTransferArgs creates transfer args, copying the byte fields
func NewTransferArgs(assetHash, toAddress []byte, amount *uint256.Int) (*TransferArgs, error) {
	args := &TransferArgs{
		AssetHash: append([]byte(nil), assetHash...),
		ToAddress: append([]byte(nil), toAddress...),
		Amount:    amount,
	}
	if err := args.Verify(); err != nil {
		return nil, err
	}
	return args, nil
}

// Verify checks that the args can be encoded
func (a *TransferArgs) Verify() error {
	if a.Amount == nil {
		return fmt.Errorf("%w: amount required", ErrInvalidPayload)
	}
	if a.Amount.BitLen() >= Uint256Len*8 {
		return fmt.Errorf("%w: %s", ErrUint256Overflow, a.Amount.Dec())
	}
	return nil
}

// Bytes serializes the args as varbytes(asset) | varbytes(to) | uint256(amount)
func (a *TransferArgs) Bytes() ([]byte, error) {
	if err := a.Verify(); err != nil {
		return nil, err
	}
	w := NewWriter(len(a.AssetHash) + len(a.ToAddress) + 2*9 + Uint256Len)
	w.WriteVarBytes(a.AssetHash)
	w.WriteVarBytes(a.ToAddress)
	if err := w.WriteUint256(a.Amount); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// ParseTransferArgs deserializes transfer args. Truncated input, an amount
// with the sign bit set and trailing bytes are all rejected.
func ParseTransferArgs(b []byte) (*TransferArgs, error) {
	r := NewReader(b)

	assetHash, err := r.ReadVarBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: asset hash: %w", ErrInvalidPayload, err)
	}
	toAddress, err := r.ReadVarBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: to address: %w", ErrInvalidPayload, err)
	}
	amount, err := r.ReadUint256()
	if err != nil {
		return nil, fmt.Errorf("%w: amount: %w", ErrInvalidPayload, err)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %w: %d bytes after amount", ErrInvalidPayload, ErrTrailingBytes, r.Len())
	}

	return &TransferArgs{
		AssetHash: assetHash,
		ToAddress: toAddress,
		Amount:    amount,
	}, nil
}

// Equal reports whether two args carry the same instruction
func (a *TransferArgs) Equal(other *TransferArgs) bool {
	if a == nil || other == nil {
		return a == other
	}
	if string(a.AssetHash) != string(other.AssetHash) || string(a.ToAddress) != string(other.ToAddress) {
		return false
	}
	if a.Amount == nil || other.Amount == nil {
		return a.Amount == other.Amount
	}
	return a.Amount.Eq(other.Amount)
}
