// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry stores the proxy's binding tables: the trusted remote
// proxy per chain, the remote asset per local asset and chain, and the set of
// local assets that have ever been bound.
package registry

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/lockproxy/cache"
	"github.com/luxfi/lockproxy/database"
	"github.com/luxfi/lockproxy/types"
)

var (
	proxyHashPrefix     = []byte("proxyHash")
	assetHashPrefix     = []byte("assetHash")
	fromAssetListPrefix = []byte("fromAssetList\x01\x01")

	// ErrEmptyHash is returned when binding to an empty remote identifier
	ErrEmptyHash = errors.New("empty remote hash")
)

// Cache holds the read cache shared by registries over the same storage. It
// must be purged whenever writes made through a registry are discarded.
type Cache struct {
	entries *cache.LRUCache[string, []byte]
}

// NewCache returns a cache holding at most [size] bindings
func NewCache(size uint64) (*Cache, error) {
	entries, err := cache.NewLRUCache[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

// Purge drops every cached binding
func (c *Cache) Purge() {
	c.entries.Purge()
}

// Registry is the typed repository for the binding tables. It does not check
// authorization.
type Registry struct {
	db    database.Database
	cache *Cache
}

// New returns a registry over [db]. [c] may be nil.
func New(db database.Database, c *Cache) *Registry {
	return &Registry{
		db:    db,
		cache: c,
	}
}

// BindProxy records [proxy] as the trusted proxy on [chainID], replacing any
// previous binding.
func (r *Registry) BindProxy(chainID *big.Int, proxy []byte) error {
	key, err := proxyKey(chainID)
	if err != nil {
		return err
	}
	if len(proxy) == 0 {
		return fmt.Errorf("%w: proxy for chain %s", ErrEmptyHash, chainID)
	}

	batch := r.db.NewBatch()
	if err := batch.Put(key, proxy); err != nil {
		return err
	}
	return r.write(batch, key)
}

// BindAsset maps the local [asset] to [remote] on [chainID], replacing any
// previous mapping, and adds [asset] to the known assets.
func (r *Registry) BindAsset(asset common.Address, chainID *big.Int, remote []byte) error {
	key, err := assetKey(asset, chainID)
	if err != nil {
		return err
	}
	if len(remote) == 0 {
		return fmt.Errorf("%w: asset %s on chain %s", ErrEmptyHash, asset, chainID)
	}

	batch := r.db.NewBatch()
	known, err := r.IsKnown(asset)
	if err != nil {
		return err
	}
	if !known {
		if err := batch.Put(knownAssetKey(asset), asset.Bytes()); err != nil {
			return err
		}
	}
	if err := batch.Put(key, remote); err != nil {
		return err
	}
	return r.write(batch, key)
}

// Proxy returns the trusted proxy on [chainID]. ok is false when unbound.
func (r *Registry) Proxy(chainID *big.Int) ([]byte, bool, error) {
	key, err := proxyKey(chainID)
	if err != nil {
		return nil, false, err
	}
	return r.get(key)
}

// Asset returns the remote asset bound to [asset] on [chainID]. ok is false
// when unbound.
func (r *Registry) Asset(asset common.Address, chainID *big.Int) ([]byte, bool, error) {
	key, err := assetKey(asset, chainID)
	if err != nil {
		return nil, false, err
	}
	return r.get(key)
}

// IsKnown reports whether [asset] has ever been bound
func (r *Registry) IsKnown(asset common.Address) (bool, error) {
	return r.db.Has(knownAssetKey(asset))
}

// KnownAssets lists every asset that has ever been bound, ordered by address.
func (r *Registry) KnownAssets() ([]common.Address, error) {
	keys, err := r.db.PrefixKeys(fromAssetListPrefix)
	if err != nil {
		return nil, err
	}
	assets := make([]common.Address, 0, len(keys))
	for _, key := range keys {
		asset, err := types.BytesToAddress(key[len(fromAssetListPrefix):])
		if err != nil {
			return nil, fmt.Errorf("corrupted known asset key %x: %w", key, err)
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

func (r *Registry) get(key []byte) ([]byte, bool, error) {
	fetch := func(string) ([]byte, error) {
		value, err := r.db.Get(key)
		if database.IsNotFound(err) {
			return nil, nil
		}
		return value, err
	}

	var (
		value []byte
		err   error
	)
	if r.cache == nil {
		value, err = fetch("")
	} else {
		value, err = r.cache.entries.Get(string(key), fetch, false)
	}
	if err != nil {
		return nil, false, err
	}
	if len(value) == 0 {
		return nil, false, nil
	}
	return common.CopyBytes(value), true, nil
}

func (r *Registry) write(batch database.Batch, key []byte) error {
	err := batch.Write()
	if r.cache != nil {
		r.cache.entries.Remove(string(key))
	}
	return err
}

func proxyKey(chainID *big.Int) ([]byte, error) {
	id, err := types.ChainIDBytes(chainID)
	if err != nil {
		return nil, err
	}
	return concat(proxyHashPrefix, id), nil
}

func assetKey(asset common.Address, chainID *big.Int) ([]byte, error) {
	id, err := types.ChainIDBytes(chainID)
	if err != nil {
		return nil, err
	}
	return concat(assetHashPrefix, asset.Bytes(), id), nil
}

func knownAssetKey(asset common.Address) []byte {
	return concat(fromAssetListPrefix, asset.Bytes())
}

func concat(parts ...[]byte) []byte {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
