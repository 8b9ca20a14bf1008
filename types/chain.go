// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

// Package types defines the identifiers shared by the lock proxy, its
// collaborators and their storage layouts.
package types

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrInvalidChainID is returned for nil, negative or unparsable chain ids
var ErrInvalidChainID = errors.New("invalid chain id")

// ValidateChainID checks that id is a non-negative integer.
func ValidateChainID(id *big.Int) error {
	if id == nil {
		return fmt.Errorf("%w: nil", ErrInvalidChainID)
	}
	if id.Sign() < 0 {
		return fmt.Errorf("%w: %s is negative", ErrInvalidChainID, id)
	}
	return nil
}

// ChainIDBytes returns the storage key form of a chain id: the minimal
// little-endian two's complement encoding. Zero encodes as a single 0x00 and
// a 0x00 sign byte is appended when the top bit of the last byte is set.
func ChainIDBytes(id *big.Int) ([]byte, error) {
	if err := ValidateChainID(id); err != nil {
		return nil, err
	}
	if id.Sign() == 0 {
		return []byte{0x00}, nil
	}
	le := ReverseBytes(id.Bytes())
	if le[len(le)-1]&0x80 != 0 {
		le = append(le, 0x00)
	}
	return le, nil
}

// ChainIDFromBytes is the inverse of ChainIDBytes.
func ChainIDFromBytes(le []byte) (*big.Int, error) {
	if len(le) == 0 {
		return nil, fmt.Errorf("%w: empty encoding", ErrInvalidChainID)
	}
	if le[len(le)-1]&0x80 != 0 {
		return nil, fmt.Errorf("%w: negative encoding %x", ErrInvalidChainID, le)
	}
	return new(big.Int).SetBytes(ReverseBytes(le)), nil
}

// ParseChainID parses a decimal or 0x prefixed hex chain id.
func ParseChainID(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	id, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChainID, s)
	}
	if err := ValidateChainID(id); err != nil {
		return nil, err
	}
	return id, nil
}

// ReverseBytes returns a reversed copy of b
func ReverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}
	return out
}
