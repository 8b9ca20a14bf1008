// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package lockproxy

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func TestLogRoundTrip(t *testing.T) {
	events := []Event{
		&LockEvent{
			FromAssetHash: assetA,
			FromAddress:   alice,
			ToChainID:     big.NewInt(2),
			ToAssetHash:   remoteAssetB,
			ToAddress:     bob.Bytes(),
			Amount:        uint256.NewInt(100),
		},
		&UnlockEvent{
			ToAssetHash: assetC,
			ToAddress:   carol,
			Amount:      uint256.NewInt(50),
		},
		&BindProxyEvent{
			ToChainID:       big.NewInt(2),
			TargetProxyHash: remoteProxyP,
		},
		&BindAssetEvent{
			FromAssetHash:   assetA,
			ToChainID:       big.NewInt(2),
			TargetAssetHash: remoteAssetB,
			InitialAmount:   uint256.NewInt(0),
		},
		&UpgradeEvent{
			ScriptHash: ids.ID{0x01},
			Name:       "lockproxy",
			Version:    "2",
		},
	}

	for _, e := range events {
		t.Run(e.EventName(), func(t *testing.T) {
			require := require.New(t)

			l, err := EncodeLog(e)
			require.NoError(err)
			require.Equal(e.EventName(), l.Name)

			decoded, err := DecodeLog(l)
			require.NoError(err)
			require.Equal(e, decoded)
		})
	}
}

func TestDecodeLogUnknown(t *testing.T) {
	_, err := DecodeLog(Log{Name: "TransferEvent"})
	require.Error(t, err)
}
