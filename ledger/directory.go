// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"bytes"
	"fmt"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	"github.com/luxfi/lockproxy/database"
)

var tokenPrefix = []byte("token/")

// Directory resolves asset hashes to the tokens stored in a database. Each
// token owns the partition tokenPrefix | asset.
type Directory struct {
	db  database.Database
	log log.Logger
}

// NewDirectory returns the tokens stored in [db]
func NewDirectory(db database.Database, logger log.Logger) *Directory {
	return &Directory{
		db:  db,
		log: logger,
	}
}

// Token returns the token at [asset], deployed or not
func (d *Directory) Token(asset common.Address) *Token {
	return NewToken(asset, database.NewPrefixDB(tokenKey(asset), d.db), d.log)
}

// Deployed returns the token at [asset] or ErrNotDeployed
func (d *Directory) Deployed(asset common.Address) (*Token, error) {
	token := d.Token(asset)
	deployed, err := token.IsDeployed()
	if err != nil {
		return nil, err
	}
	if !deployed {
		return nil, fmt.Errorf("%w: %s", ErrNotDeployed, asset)
	}
	return token, nil
}

// Assets lists the deployed tokens ordered by address
func (d *Directory) Assets() ([]common.Address, error) {
	keys, err := d.db.PrefixKeys(tokenPrefix)
	if err != nil {
		return nil, err
	}
	var assets []common.Address
	for _, key := range keys {
		rest := key[len(tokenPrefix):]
		if len(rest) != common.AddressLength+len(metadataKey) || !bytes.Equal(rest[common.AddressLength:], metadataKey) {
			continue
		}
		assets = append(assets, common.BytesToAddress(rest[:common.AddressLength]))
	}
	return assets, nil
}

func tokenKey(asset common.Address) []byte {
	key := make([]byte, 0, len(tokenPrefix)+common.AddressLength)
	key = append(key, tokenPrefix...)
	return append(key, asset.Bytes()...)
}
