// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"fmt"

	"github.com/luxfi/geth/rlp"
	"github.com/luxfi/ids"

	"github.com/luxfi/lockproxy/database"
)

var contractKey = []byte("contract")

// ContractInfo describes the code that replaced the proxy in an upgrade
type ContractInfo struct {
	ScriptHash  ids.ID
	Name        string
	Version     string
	Author      string
	Email       string
	Description string
}

// SetContract records the latest upgrade
func (r *Registry) SetContract(info *ContractInfo) error {
	b, err := rlp.EncodeToBytes(info)
	if err != nil {
		return err
	}
	return r.db.Put(contractKey, b)
}

// Contract returns the latest upgrade. ok is false if the proxy was never
// upgraded.
func (r *Registry) Contract() (*ContractInfo, bool, error) {
	b, err := r.db.Get(contractKey)
	if database.IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	info := new(ContractInfo)
	if err := rlp.DecodeBytes(b, info); err != nil {
		return nil, false, fmt.Errorf("corrupted contract info: %w", err)
	}
	return info, true, nil
}
