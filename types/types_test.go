// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package types

import (
	"math/big"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

func TestChainIDBytes(t *testing.T) {
	beyond64, ok := new(big.Int).SetString("340282366920938463463374607431768211456", 10) // 2^128
	require.True(t, ok)

	tests := []struct {
		id       *big.Int
		expected []byte
	}{
		{big.NewInt(0), []byte{0x00}},
		{big.NewInt(2), []byte{0x02}},
		{big.NewInt(0x7F), []byte{0x7F}},
		{big.NewInt(0x80), []byte{0x80, 0x00}},
		{big.NewInt(0x0102), []byte{0x02, 0x01}},
		{big.NewInt(0xFFFF), []byte{0xFF, 0xFF, 0x00}},
		{beyond64, append(make([]byte, 16), 0x01)},
	}

	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			require := require.New(t)

			b, err := ChainIDBytes(tt.id)
			require.NoError(err)
			require.Equal(tt.expected, b)

			back, err := ChainIDFromBytes(b)
			require.NoError(err)
			require.Zero(tt.id.Cmp(back))
		})
	}
}

func TestChainIDInvalid(t *testing.T) {
	_, err := ChainIDBytes(nil)
	require.ErrorIs(t, err, ErrInvalidChainID)
	_, err = ChainIDBytes(big.NewInt(-1))
	require.ErrorIs(t, err, ErrInvalidChainID)
	_, err = ChainIDFromBytes(nil)
	require.ErrorIs(t, err, ErrInvalidChainID)
	_, err = ChainIDFromBytes([]byte{0xFF})
	require.ErrorIs(t, err, ErrInvalidChainID)
}

func TestParseChainID(t *testing.T) {
	id, err := ParseChainID("44")
	require.NoError(t, err)
	require.Equal(t, int64(44), id.Int64())

	id, err = ParseChainID("0x2c")
	require.NoError(t, err)
	require.Equal(t, int64(44), id.Int64())

	_, err = ParseChainID("-1")
	require.ErrorIs(t, err, ErrInvalidChainID)
	_, err = ParseChainID("chain")
	require.ErrorIs(t, err, ErrInvalidChainID)
}

func TestBytesToAddress(t *testing.T) {
	_, err := BytesToAddress(make([]byte, 19))
	require.ErrorIs(t, err, ErrInvalidAddress)
	_, err = BytesToAddress(make([]byte, 21))
	require.ErrorIs(t, err, ErrInvalidAddress)

	b := make([]byte, 20)
	b[0] = 0x01
	addr, err := BytesToAddress(b)
	require.NoError(t, err)
	require.Equal(t, b, addr.Bytes())

	parsed, err := ParseAddress("0x0100000000000000000000000000000000000000")
	require.NoError(t, err)
	require.Equal(t, addr, parsed)

	require.False(t, IsLegalAddress(common.Address{}))
	require.True(t, IsLegalAddress(addr))
}

func TestWitnessSet(t *testing.T) {
	alice := common.Address{0x01}
	bob := common.Address{0x02}

	w := NewWitnessSet(alice)
	require.True(t, w.CheckWitness(alice))
	require.False(t, w.CheckWitness(bob))

	env := Env{Caller: bob, Witness: w}
	require.True(t, env.CheckWitness(alice))
	require.False(t, Env{}.CheckWitness(alice))

	sub := env.WithCaller(alice)
	require.Equal(t, alice, sub.Caller)
	require.True(t, sub.CheckWitness(alice))
}
