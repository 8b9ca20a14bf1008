// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	"github.com/luxfi/lockproxy/database"
	"github.com/luxfi/lockproxy/precompile"
	"github.com/luxfi/lockproxy/types"
)

const (
	defaultLogLevel            = "info"
	defaultDataDir             = "$HOME/.lockproxy/db"
	defaultDBBackend           = database.LevelDBBackend
	defaultChainID             = "1"
	defaultCacheSize           = precompile.DefaultCacheSize
	defaultRelayTimeoutSeconds = 30
)

var (
	errMissingOperator = errors.New("operator-address is required")
	errZeroTimeout     = errors.New("relay-timeout-seconds must be positive")
)

// Config is the configuration of the lock proxy command line tool
type Config struct {
	LogLevel            string `mapstructure:"log-level" json:"log-level"`
	DataDir             string `mapstructure:"data-dir" json:"data-dir"`
	DBBackend           string `mapstructure:"db-backend" json:"db-backend"`
	ChainID             string `mapstructure:"chain-id" json:"chain-id"`
	ProxyAddress        string `mapstructure:"proxy-address" json:"proxy-address"`
	ManagerAddress      string `mapstructure:"manager-address" json:"manager-address"`
	OperatorAddress     string `mapstructure:"operator-address" json:"operator-address"`
	CacheSize           uint64 `mapstructure:"cache-size" json:"cache-size"`
	RelayTimeoutSeconds uint64 `mapstructure:"relay-timeout-seconds" json:"relay-timeout-seconds"`

	// convenience fields to access parsed data after initialization
	chainID         *big.Int
	proxyAddress    common.Address
	managerAddress  common.Address
	operatorAddress common.Address
}

// Validate checks the configuration and parses its fields. Empty proxy and
// manager addresses fall back to the default contract addresses.
func (c *Config) Validate() error {
	if _, err := log.LvlFromString(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	switch c.DBBackend {
	case database.LevelDBBackend, database.MemDBBackend:
	default:
		return fmt.Errorf("%w: %q", database.ErrUnknownBackend, c.DBBackend)
	}
	if c.DBBackend == database.LevelDBBackend && c.DataDir == "" {
		return fmt.Errorf("%s is required for %s", DataDirKey, database.LevelDBBackend)
	}

	chainID, err := types.ParseChainID(c.ChainID)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", ChainIDKey, err)
	}
	c.chainID = chainID

	if c.proxyAddress, err = parseAddressOr(c.ProxyAddress, precompile.LockProxyContract); err != nil {
		return fmt.Errorf("invalid %s: %w", ProxyAddressKey, err)
	}
	if c.managerAddress, err = parseAddressOr(c.ManagerAddress, precompile.CrossChainManagerContract); err != nil {
		return fmt.Errorf("invalid %s: %w", ManagerAddressKey, err)
	}
	if c.OperatorAddress == "" {
		return errMissingOperator
	}
	if c.operatorAddress, err = types.ParseAddress(c.OperatorAddress); err != nil {
		return fmt.Errorf("invalid %s: %w", OperatorAddressKey, err)
	}
	if c.RelayTimeoutSeconds == 0 {
		return errZeroTimeout
	}
	return nil
}

func parseAddressOr(s string, fallback common.Address) (common.Address, error) {
	if s == "" {
		return fallback, nil
	}
	return types.ParseAddress(s)
}

// GetChainID returns the parsed chain id. Validate must have succeeded.
func (c *Config) GetChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

func (c *Config) GetOperatorAddress() common.Address {
	return c.operatorAddress
}

func (c *Config) GetRelayTimeout() time.Duration {
	return time.Duration(c.RelayTimeoutSeconds) * time.Second
}

// ModuleConfig returns the configuration of the hosted lock proxy
func (c *Config) ModuleConfig() precompile.Config {
	return precompile.Config{
		ChainID:        c.GetChainID(),
		ProxyAddress:   c.proxyAddress,
		ManagerAddress: c.managerAddress,
		Operator:       c.operatorAddress,
		CacheSize:      c.CacheSize,
	}
}
