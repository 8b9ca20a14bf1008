// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package lockproxy implements the lock proxy of a cross-chain asset bridge.
// Lock takes a token into the proxy's custody and asks the paired proxy on
// another chain, through the cross-chain manager, to release the matching
// asset. Unlock is the inbound half: the manager delivers an instruction from
// a trusted remote proxy and the proxy releases funds from custody.
package lockproxy

import (
	"context"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/lockproxy/payload"
	"github.com/luxfi/lockproxy/registry"
	"github.com/luxfi/lockproxy/types"
)

// Config holds the fixed addresses the proxy trusts
type Config struct {
	// ProxyAddress is the account that holds custody funds
	ProxyAddress common.Address
	// ManagerAddress is the only caller allowed to unlock
	ManagerAddress common.Address
	// Operator must witness every administrative call
	Operator common.Address
}

// Proxy is the lock proxy. It is not safe for concurrent use: the host runs
// one invocation at a time.
type Proxy struct {
	config   Config
	registry *registry.Registry
	assets   AssetResolver
	manager  CrossChainManager
	events   EventSink
	log      log.Logger
}

// New returns a proxy over the given collaborators
func New(
	config Config,
	registry *registry.Registry,
	assets AssetResolver,
	manager CrossChainManager,
	events EventSink,
	logger log.Logger,
) *Proxy {
	return &Proxy{
		config:   config,
		registry: registry,
		assets:   assets,
		manager:  manager,
		events:   events,
		log:      logger,
	}
}

// Config returns the proxy's configuration
func (p *Proxy) Config() Config {
	return p.config
}

// BindProxyHash trusts [targetProxyHash] as the proxy on [toChainID].
func (p *Proxy) BindProxyHash(_ context.Context, env Env, toChainID *big.Int, targetProxyHash []byte) error {
	if err := p.checkOperator(env); err != nil {
		return p.reject(MethodBindProxyHash, err)
	}
	if err := verifyChainID(toChainID); err != nil {
		return p.reject(MethodBindProxyHash, err)
	}
	if len(targetProxyHash) == 0 {
		return p.reject(MethodBindProxyHash, ErrEmptyTargetHash)
	}

	if err := p.registry.BindProxy(toChainID, targetProxyHash); err != nil {
		return storageError(err)
	}
	p.emit(&BindProxyEvent{
		ToChainID:       new(big.Int).Set(toChainID),
		TargetProxyHash: common.CopyBytes(targetProxyHash),
	})
	p.log.Info("bound proxy",
		log.Stringer("toChainID", toChainID),
		log.String("targetProxyHash", common.Bytes2Hex(targetProxyHash)),
	)
	return nil
}

// BindAssetHash maps the local [fromAssetHash] to [targetAssetHash] on
// [toChainID]. Binding an asset again is allowed and overwrites the mapping.
func (p *Proxy) BindAssetHash(ctx context.Context, env Env, fromAssetHash []byte, toChainID *big.Int, targetAssetHash []byte) error {
	if err := p.checkOperator(env); err != nil {
		return p.reject(MethodBindAssetHash, err)
	}
	asset, err := assetAddress(fromAssetHash)
	if err != nil {
		return p.reject(MethodBindAssetHash, err)
	}
	if err := verifyChainID(toChainID); err != nil {
		return p.reject(MethodBindAssetHash, err)
	}
	if len(targetAssetHash) == 0 {
		return p.reject(MethodBindAssetHash, ErrEmptyTargetHash)
	}
	balance, err := p.custodyBalance(ctx, asset)
	if err != nil {
		return p.reject(MethodBindAssetHash, err)
	}

	if err := p.registry.BindAsset(asset, toChainID, targetAssetHash); err != nil {
		return storageError(err)
	}
	p.emit(&BindAssetEvent{
		FromAssetHash:   asset,
		ToChainID:       new(big.Int).Set(toChainID),
		TargetAssetHash: common.CopyBytes(targetAssetHash),
		InitialAmount:   balance,
	})
	p.log.Info("bound asset",
		log.Stringer("asset", asset),
		log.Stringer("toChainID", toChainID),
		log.String("targetAssetHash", common.Bytes2Hex(targetAssetHash)),
		log.String("custody", balance.Dec()),
	)
	return nil
}

// GetProxyHash returns the proxy bound on [toChainID], or nil if unbound.
func (p *Proxy) GetProxyHash(toChainID *big.Int) ([]byte, error) {
	if err := verifyChainID(toChainID); err != nil {
		return nil, err
	}
	proxy, _, err := p.registry.Proxy(toChainID)
	if err != nil {
		return nil, storageError(err)
	}
	return proxy, nil
}

// GetAssetHash returns the asset bound to [fromAssetHash] on [toChainID], or
// nil if unbound.
func (p *Proxy) GetAssetHash(fromAssetHash []byte, toChainID *big.Int) ([]byte, error) {
	asset, err := assetAddress(fromAssetHash)
	if err != nil {
		return nil, err
	}
	if err := verifyChainID(toChainID); err != nil {
		return nil, err
	}
	target, _, err := p.registry.Asset(asset, toChainID)
	if err != nil {
		return nil, storageError(err)
	}
	return target, nil
}

// GetAssetBalance returns the proxy's custody balance of [assetHash]
func (p *Proxy) GetAssetBalance(ctx context.Context, assetHash []byte) (*uint256.Int, error) {
	asset, err := assetAddress(assetHash)
	if err != nil {
		return nil, err
	}
	return p.custodyBalance(ctx, asset)
}

// Lock pulls funds into custody and submits the unlock instruction for the
// remote proxy. Every argument and binding is checked and the instruction is
// encoded before any funds move. If the submission fails the pulled funds
// are refunded.
func (p *Proxy) Lock(ctx context.Context, env Env, call *LockCall) error {
	asset, err := assetAddress(call.FromAssetHash)
	if err != nil {
		return p.reject(MethodLock, err)
	}
	from, err := types.BytesToAddress(call.FromAddress)
	if err != nil {
		return p.reject(MethodLock, fmt.Errorf("%w: %w", ErrInvalidFromAddress, err))
	}
	if from == p.config.ProxyAddress {
		return p.reject(MethodLock, ErrLockFromCustody)
	}
	if len(call.ToAddress) == 0 {
		return p.reject(MethodLock, ErrEmptyToAddress)
	}
	amount, err := ToAmount(call.Amount)
	if err != nil {
		return p.reject(MethodLock, err)
	}
	if err := verifyChainID(call.ToChainID); err != nil {
		return p.reject(MethodLock, err)
	}

	toAssetHash, ok, err := p.registry.Asset(asset, call.ToChainID)
	if err != nil {
		return storageError(err)
	}
	if !ok {
		return p.reject(MethodLock, fmt.Errorf("%w: %s on chain %s", ErrUnboundAsset, asset, call.ToChainID))
	}
	toProxyHash, ok, err := p.registry.Proxy(call.ToChainID)
	if err != nil {
		return storageError(err)
	}
	if !ok {
		return p.reject(MethodLock, fmt.Errorf("%w: chain %s", ErrUnboundProxy, call.ToChainID))
	}

	args, err := payload.NewTransferArgs(toAssetHash, call.ToAddress, amount)
	if err != nil {
		return p.reject(MethodLock, fmt.Errorf("%w: %w", ErrAmountOutOfRange, err))
	}
	argsBytes, err := args.Bytes()
	if err != nil {
		return p.reject(MethodLock, fmt.Errorf("%w: %w", ErrAmountOutOfRange, err))
	}
	ledger, err := p.ledger(asset)
	if err != nil {
		return p.reject(MethodLock, err)
	}

	// the pull is authorized by the end user, never by the proxy itself
	if err := ledger.Transfer(ctx, env, from, p.config.ProxyAddress, amount); err != nil {
		return p.reject(MethodLock, fmt.Errorf("%w: into custody: %w", ErrTransferFailed, err))
	}
	self := env.WithCaller(p.config.ProxyAddress)
	if err := p.manager.CrossChain(ctx, self, call.ToChainID, toProxyHash, string(MethodUnlock), argsBytes); err != nil {
		submitErr := fmt.Errorf("%w: %w", ErrCrossChainFailed, err)
		if refundErr := ledger.Transfer(ctx, self, p.config.ProxyAddress, from, amount); refundErr != nil {
			p.log.Error("failed to refund lock",
				log.Stringer("asset", asset),
				log.Stringer("from", from),
				log.String("amount", amount.Dec()),
				log.Err(refundErr),
			)
			return fmt.Errorf("%w: %w: %w", ErrCompensationFailed, submitErr, refundErr)
		}
		return p.reject(MethodLock, submitErr)
	}

	p.emit(&LockEvent{
		FromAssetHash: asset,
		FromAddress:   from,
		ToChainID:     new(big.Int).Set(call.ToChainID),
		ToAssetHash:   toAssetHash,
		ToAddress:     common.CopyBytes(call.ToAddress),
		Amount:        amount,
	})
	p.log.Info("locked",
		log.Stringer("asset", asset),
		log.Stringer("from", from),
		log.Stringer("toChainID", call.ToChainID),
		log.String("toAddress", common.Bytes2Hex(call.ToAddress)),
		log.String("amount", amount.Dec()),
	)
	return nil
}

// Unlock releases custody funds as instructed by the remote proxy. The
// caller must be the cross-chain manager and FromContract must be the proxy
// bound on FromChainID.
func (p *Proxy) Unlock(ctx context.Context, env Env, call *UnlockCall) error {
	if env.Caller != p.config.ManagerAddress {
		return p.reject(MethodUnlock, fmt.Errorf("%w: caller %s", ErrUntrustedCaller, env.Caller))
	}
	if err := verifyChainID(call.FromChainID); err != nil {
		return p.reject(MethodUnlock, err)
	}
	storedProxy, ok, err := p.registry.Proxy(call.FromChainID)
	if err != nil {
		return storageError(err)
	}
	if !ok || string(storedProxy) != string(call.FromContract) {
		return p.reject(MethodUnlock, fmt.Errorf("%w: %x on chain %s", ErrUntrustedSourceProxy, call.FromContract, call.FromChainID))
	}

	args, err := payload.ParseTransferArgs(call.Args)
	if err != nil {
		return p.reject(MethodUnlock, fmt.Errorf("%w: %w", ErrMalformedPayload, err))
	}
	asset, err := assetAddress(args.AssetHash)
	if err != nil {
		return p.reject(MethodUnlock, err)
	}
	to, err := types.BytesToAddress(args.ToAddress)
	if err != nil {
		return p.reject(MethodUnlock, fmt.Errorf("%w: %w", ErrInvalidToAddress, err))
	}
	ledger, err := p.ledger(asset)
	if err != nil {
		return p.reject(MethodUnlock, err)
	}

	self := env.WithCaller(p.config.ProxyAddress)
	if err := ledger.Transfer(ctx, self, p.config.ProxyAddress, to, args.Amount); err != nil {
		return p.reject(MethodUnlock, fmt.Errorf("%w: from custody: %w", ErrTransferFailed, err))
	}

	p.emit(&UnlockEvent{
		ToAssetHash: asset,
		ToAddress:   to,
		Amount:      args.Amount,
	})
	p.log.Info("unlocked",
		log.Stringer("asset", asset),
		log.Stringer("to", to),
		log.Stringer("fromChainID", call.FromChainID),
		log.String("amount", args.Amount.Dec()),
	)
	return nil
}

// Receive is the inbound entry point for the cross-chain manager. Only the
// unlock method can be delivered.
func (p *Proxy) Receive(ctx context.Context, env Env, method string, args []byte, fromContract []byte, fromChainID *big.Int) error {
	m, err := ParseMethod(method)
	if err != nil {
		return err
	}
	if m != MethodUnlock {
		return fmt.Errorf("%w: %s cannot be called cross-chain", ErrUnknownMethod, m)
	}
	return p.Unlock(ctx, env, &UnlockCall{
		Args:         args,
		FromContract: fromContract,
		FromChainID:  fromChainID,
	})
}

// Upgrade records the code replacing the proxy
func (p *Proxy) Upgrade(_ context.Context, env Env, call *UpgradeCall) error {
	if err := p.checkOperator(env); err != nil {
		return p.reject(MethodUpgrade, err)
	}
	if len(call.Script) == 0 {
		return p.reject(MethodUpgrade, fmt.Errorf("%w: empty script", ErrInvalidScript))
	}

	var scriptHash ids.ID
	copy(scriptHash[:], crypto.Keccak256(call.Script))
	info := &registry.ContractInfo{
		ScriptHash:  scriptHash,
		Name:        call.Name,
		Version:     call.Version,
		Author:      call.Author,
		Email:       call.Email,
		Description: call.Description,
	}
	if err := p.registry.SetContract(info); err != nil {
		return storageError(err)
	}
	p.emit(&UpgradeEvent{
		ScriptHash: scriptHash,
		Name:       call.Name,
		Version:    call.Version,
	})
	p.log.Info("proxy contract upgraded",
		log.Stringer("scriptHash", scriptHash),
		log.String("version", call.Version),
	)
	return nil
}

// ToAmount converts a signed amount to the unsigned form moved by ledgers.
// Amounts must fit the 255 bits the payload can carry.
func ToAmount(amount *big.Int) (*uint256.Int, error) {
	switch {
	case amount == nil:
		return nil, ErrInvalidAmount
	case amount.Sign() < 0:
		return nil, fmt.Errorf("%w: %s", ErrNegativeAmount, amount)
	case amount.BitLen() >= payload.Uint256Len*8:
		return nil, fmt.Errorf("%w: %s", ErrAmountOutOfRange, amount)
	}
	v, _ := uint256.FromBig(amount)
	return v, nil
}

func (p *Proxy) checkOperator(env Env) error {
	if !env.CheckWitness(p.config.Operator) {
		return ErrUnauthorized
	}
	return nil
}

func (p *Proxy) ledger(asset common.Address) (AssetLedger, error) {
	ledger, err := p.assets.Ledger(asset)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnknownAsset, asset, err)
	}
	return ledger, nil
}

func (p *Proxy) custodyBalance(ctx context.Context, asset common.Address) (*uint256.Int, error) {
	ledger, err := p.ledger(asset)
	if err != nil {
		return nil, err
	}
	balance, err := ledger.BalanceOf(ctx, p.config.ProxyAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBalanceUnavailable, asset, err)
	}
	return balance, nil
}

func (p *Proxy) emit(e Event) {
	if p.events != nil {
		p.events.Emit(e)
	}
}

// reject logs a refused call at debug level and returns err
func (p *Proxy) reject(method Method, err error) error {
	p.log.Debug("call rejected",
		log.String("method", string(method)),
		log.Stringer("kind", KindOf(err)),
		log.Err(err),
	)
	return err
}

func assetAddress(b []byte) (common.Address, error) {
	asset, err := types.BytesToAddress(b)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", ErrInvalidAssetHash, err)
	}
	return asset, nil
}

func verifyChainID(id *big.Int) error {
	if err := types.ValidateChainID(id); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChainID, err)
	}
	return nil
}
