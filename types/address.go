// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package types

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/luxfi/geth/common"
)

// AddressLen is the length of local account, contract and asset hashes
const AddressLen = common.AddressLength

// ErrInvalidAddress is returned for byte strings that are not exactly
// AddressLen bytes long
var ErrInvalidAddress = errors.New("invalid address")

// BytesToAddress converts b to an address. Unlike common.BytesToAddress it
// never pads or crops: b must be exactly AddressLen bytes.
func BytesToAddress(b []byte) (common.Address, error) {
	if len(b) != AddressLen {
		return common.Address{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidAddress, len(b), AddressLen)
	}
	return common.BytesToAddress(b), nil
}

// ParseAddress parses a hex encoded address, with or without 0x prefix.
func ParseAddress(s string) (common.Address, error) {
	b, err := ParseHex(s)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return BytesToAddress(b)
}

// ParseHex decodes a hex string with an optional 0x prefix.
func ParseHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}

// IsLegalAddress reports whether addr can own funds: it must not be the
// zero address.
func IsLegalAddress(addr common.Address) bool {
	return addr != (common.Address{})
}
