// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package lockproxy

import (
	"context"
	"fmt"
	"math/big"
	"reflect"

	"github.com/holiman/uint256"
)

// Method is the name an operation is invoked by
type Method string

const (
	MethodBindProxyHash   Method = "bindProxyHash"
	MethodBindAssetHash   Method = "bindAssetHash"
	MethodGetProxyHash    Method = "getProxyHash"
	MethodGetAssetHash    Method = "getAssetHash"
	MethodGetAssetBalance Method = "getAssetBalance"
	MethodLock            Method = "lock"
	MethodUnlock          Method = "unlock"
	MethodUpgrade         Method = "upgrade"
)

// Methods lists every method in a stable order
var Methods = []Method{
	MethodBindProxyHash,
	MethodBindAssetHash,
	MethodGetProxyHash,
	MethodGetAssetHash,
	MethodGetAssetBalance,
	MethodLock,
	MethodUnlock,
	MethodUpgrade,
}

// ParseMethod maps a method name to its Method
func ParseMethod(name string) (Method, error) {
	for _, m := range Methods {
		if string(m) == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, name)
}

// ReadOnly reports whether the method never writes state
func (m Method) ReadOnly() bool {
	switch m {
	case MethodGetProxyHash, MethodGetAssetHash, MethodGetAssetBalance:
		return true
	default:
		return false
	}
}

// Call is a single invocation of the proxy. The set of implementations is
// closed.
type Call interface {
	Method() Method
	isCall()
}

type BindProxyHashCall struct {
	ToChainID       *big.Int
	TargetProxyHash []byte
}

type BindAssetHashCall struct {
	FromAssetHash   []byte
	ToChainID       *big.Int
	TargetAssetHash []byte
}

type GetProxyHashCall struct {
	ToChainID *big.Int
}

type GetAssetHashCall struct {
	FromAssetHash []byte
	ToChainID     *big.Int
}

type GetAssetBalanceCall struct {
	AssetHash []byte
}

// LockCall moves Amount of FromAssetHash from FromAddress into custody and
// asks the proxy on ToChainID to release it to ToAddress.
type LockCall struct {
	FromAssetHash []byte
	FromAddress   []byte
	ToChainID     *big.Int
	ToAddress     []byte
	Amount        *big.Int
}

// UnlockCall releases custody funds as instructed by the proxy FromContract
// on FromChainID. Only the cross-chain manager may make it.
type UnlockCall struct {
	Args         []byte
	FromContract []byte
	FromChainID  *big.Int
}

// UpgradeCall replaces the proxy's code
type UpgradeCall struct {
	Script      []byte
	Name        string
	Version     string
	Author      string
	Email       string
	Description string
}

func (*BindProxyHashCall) Method() Method   { return MethodBindProxyHash }
func (*BindAssetHashCall) Method() Method   { return MethodBindAssetHash }
func (*GetProxyHashCall) Method() Method    { return MethodGetProxyHash }
func (*GetAssetHashCall) Method() Method    { return MethodGetAssetHash }
func (*GetAssetBalanceCall) Method() Method { return MethodGetAssetBalance }
func (*LockCall) Method() Method            { return MethodLock }
func (*UnlockCall) Method() Method          { return MethodUnlock }
func (*UpgradeCall) Method() Method         { return MethodUpgrade }

func (*BindProxyHashCall) isCall()   {}
func (*BindAssetHashCall) isCall()   {}
func (*GetProxyHashCall) isCall()    {}
func (*GetAssetHashCall) isCall()    {}
func (*GetAssetBalanceCall) isCall() {}
func (*LockCall) isCall()            {}
func (*UnlockCall) isCall()          {}
func (*UpgradeCall) isCall()         {}

// Result is the output of a call. Hash is set by getProxyHash and
// getAssetHash and is empty when unbound. Balance is set by getAssetBalance.
type Result struct {
	Hash    []byte       `json:"hash,omitempty"`
	Balance *uint256.Int `json:"balance,omitempty"`
}

// CheckCall rejects a nil [call], including a typed nil pointer
func CheckCall(call Call) error {
	if call == nil || reflect.ValueOf(call).IsNil() {
		return fmt.Errorf("%w: nil call", ErrUnknownMethod)
	}
	return nil
}

// Invoke dispatches [call] to the matching operation.
func (p *Proxy) Invoke(ctx context.Context, env Env, call Call) (Result, error) {
	if err := CheckCall(call); err != nil {
		return Result{}, err
	}
	switch c := call.(type) {
	case *BindProxyHashCall:
		return Result{}, p.BindProxyHash(ctx, env, c.ToChainID, c.TargetProxyHash)
	case *BindAssetHashCall:
		return Result{}, p.BindAssetHash(ctx, env, c.FromAssetHash, c.ToChainID, c.TargetAssetHash)
	case *GetProxyHashCall:
		hash, err := p.GetProxyHash(c.ToChainID)
		return Result{Hash: hash}, err
	case *GetAssetHashCall:
		hash, err := p.GetAssetHash(c.FromAssetHash, c.ToChainID)
		return Result{Hash: hash}, err
	case *GetAssetBalanceCall:
		balance, err := p.GetAssetBalance(ctx, c.AssetHash)
		return Result{Balance: balance}, err
	case *LockCall:
		return Result{}, p.Lock(ctx, env, c)
	case *UnlockCall:
		return Result{}, p.Unlock(ctx, env, c)
	case *UpgradeCall:
		return Result{}, p.Upgrade(ctx, env, c)
	default:
		return Result{}, fmt.Errorf("%w: %T", ErrUnknownMethod, call)
	}
}
