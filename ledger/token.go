// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger implements the fungible token ledger that the lock proxy
// takes custody of funds on.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/rlp"
	"github.com/luxfi/log"

	"github.com/luxfi/lockproxy/database"
	"github.com/luxfi/lockproxy/types"
)

var (
	metadataKey   = []byte("contract")
	balancePrefix = []byte("asset")

	ErrNotDeployed       = errors.New("token not deployed")
	ErrAlreadyDeployed   = errors.New("token already deployed")
	ErrInvalidAmount     = errors.New("amount must be greater than 0")
	ErrUnauthorized      = errors.New("not authorized by the from account")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBalanceOverflow   = errors.New("balance overflow")
)

// Metadata describes a deployed token
type Metadata struct {
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *big.Int
	Owner       common.Address
}

// Verify checks that the metadata can be deployed
func (m *Metadata) Verify() error {
	switch {
	case m.Name == "":
		return errors.New("missing name")
	case m.Symbol == "":
		return errors.New("missing symbol")
	case m.TotalSupply == nil || m.TotalSupply.Sign() < 0 || m.TotalSupply.BitLen() > 256:
		return fmt.Errorf("invalid total supply %v", m.TotalSupply)
	case !types.IsLegalAddress(m.Owner):
		return fmt.Errorf("%w: zero owner", types.ErrInvalidAddress)
	default:
		return nil
	}
}

// Token is a ledger of balances for a single asset
type Token struct {
	address common.Address
	db      database.Database
	log     log.Logger
}

// NewToken returns the token at [address] stored in [db]
func NewToken(address common.Address, db database.Database, logger log.Logger) *Token {
	return &Token{
		address: address,
		db:      db,
		log:     logger,
	}
}

// Address returns the asset hash of the token
func (t *Token) Address() common.Address {
	return t.address
}

// Deploy mints the total supply to the owner. It requires the owner's
// witness and can only succeed once.
func (t *Token) Deploy(_ context.Context, env types.Env, meta Metadata) error {
	if err := meta.Verify(); err != nil {
		return err
	}
	if !env.CheckWitness(meta.Owner) {
		return fmt.Errorf("%w: only the owner can deploy", ErrUnauthorized)
	}
	deployed, err := t.IsDeployed()
	if err != nil {
		return err
	}
	if deployed {
		return fmt.Errorf("%w: %s", ErrAlreadyDeployed, t.address)
	}

	metaBytes, err := rlp.EncodeToBytes(&meta)
	if err != nil {
		return err
	}
	supply, _ := uint256.FromBig(meta.TotalSupply)

	batch := t.db.NewBatch()
	if err := batch.Put(metadataKey, metaBytes); err != nil {
		return err
	}
	if !supply.IsZero() {
		if err := batch.Put(balanceKey(meta.Owner), supply.Bytes()); err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}

	t.log.Info("deployed token",
		log.Stringer("asset", t.address),
		log.String("symbol", meta.Symbol),
		log.String("totalSupply", meta.TotalSupply.String()),
	)
	return nil
}

// IsDeployed reports whether Deploy succeeded
func (t *Token) IsDeployed() (bool, error) {
	return t.db.Has(metadataKey)
}

// Metadata returns the deployed metadata
func (t *Token) Metadata() (*Metadata, error) {
	b, err := t.db.Get(metadataKey)
	if database.IsNotFound(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotDeployed, t.address)
	}
	if err != nil {
		return nil, err
	}
	meta := new(Metadata)
	if err := rlp.DecodeBytes(b, meta); err != nil {
		return nil, fmt.Errorf("corrupted metadata of %s: %w", t.address, err)
	}
	return meta, nil
}

func (t *Token) Name() (string, error) {
	meta, err := t.Metadata()
	if err != nil {
		return "", err
	}
	return meta.Name, nil
}

func (t *Token) Symbol() (string, error) {
	meta, err := t.Metadata()
	if err != nil {
		return "", err
	}
	return meta.Symbol, nil
}

func (t *Token) Decimals() (uint8, error) {
	meta, err := t.Metadata()
	if err != nil {
		return 0, err
	}
	return meta.Decimals, nil
}

func (t *Token) TotalSupply() (*uint256.Int, error) {
	meta, err := t.Metadata()
	if err != nil {
		return nil, err
	}
	supply, _ := uint256.FromBig(meta.TotalSupply)
	return supply, nil
}

// BalanceOf returns the balance of [account]. The zero address never holds
// funds.
func (t *Token) BalanceOf(_ context.Context, account common.Address) (*uint256.Int, error) {
	if !types.IsLegalAddress(account) {
		return new(uint256.Int), nil
	}
	return t.balance(account)
}

// Transfer moves [amount] from [from] to [to]. The invocation must carry the
// witness of [from] or be made by [from] itself.
func (t *Token) Transfer(_ context.Context, env types.Env, from, to common.Address, amount *uint256.Int) error {
	if !types.IsLegalAddress(from) || !types.IsLegalAddress(to) {
		return fmt.Errorf("%w: from and to must be legal addresses", types.ErrInvalidAddress)
	}
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}
	if !env.CheckWitness(from) && env.Caller != from {
		return fmt.Errorf("%w: %s", ErrUnauthorized, from)
	}
	deployed, err := t.IsDeployed()
	if err != nil {
		return err
	}
	if !deployed {
		return fmt.Errorf("%w: %s", ErrNotDeployed, t.address)
	}

	fromBalance, err := t.balance(from)
	if err != nil {
		return err
	}
	if fromBalance.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientFunds, from, fromBalance.Dec(), amount.Dec())
	}
	if from == to {
		return nil
	}

	toBalance, err := t.balance(to)
	if err != nil {
		return err
	}
	newToBalance, overflow := new(uint256.Int).AddOverflow(toBalance, amount)
	if overflow {
		return fmt.Errorf("%w: %s", ErrBalanceOverflow, to)
	}
	newFromBalance := new(uint256.Int).Sub(fromBalance, amount)

	batch := t.db.NewBatch()
	if err := putBalance(batch, from, newFromBalance); err != nil {
		return err
	}
	if err := putBalance(batch, to, newToBalance); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}

	t.log.Debug("transferred",
		log.Stringer("asset", t.address),
		log.Stringer("from", from),
		log.Stringer("to", to),
		log.String("amount", amount.Dec()),
	)
	return nil
}

func (t *Token) balance(account common.Address) (*uint256.Int, error) {
	b, err := t.db.Get(balanceKey(account))
	if database.IsNotFound(err) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(b), nil
}

// putBalance deletes zero balances instead of storing them
func putBalance(batch database.Batch, account common.Address, balance *uint256.Int) error {
	if balance.IsZero() {
		return batch.Delete(balanceKey(account))
	}
	return batch.Put(balanceKey(account), balance.Bytes())
}

func balanceKey(account common.Address) []byte {
	key := make([]byte, 0, len(balancePrefix)+common.AddressLength)
	key = append(key, balancePrefix...)
	return append(key, account.Bytes()...)
}
