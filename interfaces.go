// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package lockproxy

import (
	"context"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/lockproxy/types"
)

type (
	Env     = types.Env
	Witness = types.Witness
)

// AssetLedger moves and reports balances of a single asset
type AssetLedger interface {
	// Transfer moves [amount] from [from] to [to]. The ledger decides whether
	// [env] authorizes spending from [from].
	Transfer(ctx context.Context, env Env, from, to common.Address, amount *uint256.Int) error
	BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error)
}

// AssetResolver returns the ledger of an asset hash
type AssetResolver interface {
	Ledger(asset common.Address) (AssetLedger, error)
}

// CrossChainManager relays messages to contracts on other chains
type CrossChainManager interface {
	CrossChain(ctx context.Context, env Env, toChainID *big.Int, toContract []byte, method string, args []byte) error
}

// AssetResolverFunc adapts a function to AssetResolver
type AssetResolverFunc func(asset common.Address) (AssetLedger, error)

func (f AssetResolverFunc) Ledger(asset common.Address) (AssetLedger, error) {
	return f(asset)
}
