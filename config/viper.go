// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func NewConfig(v *viper.Viper) (Config, error) {
	cfg, err := BuildConfig(v)
	if err != nil {
		return cfg, err
	}
	if err = cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("failed to validate configuration: %w", err)
	}
	return cfg, nil
}

// AddFlags registers every configuration key on [fs]
func AddFlags(fs *pflag.FlagSet) {
	fs.String(ConfigFileKey, "", "Path to a json, toml or yaml configuration file")
	fs.String(LogLevelKey, defaultLogLevel, "Log level")
	fs.String(DataDirKey, defaultDataDir, "Database directory")
	fs.String(DBBackendKey, defaultDBBackend, "Database backend, leveldb or memdb")
	fs.String(ChainIDKey, defaultChainID, "Local chain id")
	fs.String(ProxyAddressKey, "", "Address of the lock proxy")
	fs.String(ManagerAddressKey, "", "Address of the cross-chain manager")
	fs.String(OperatorAddressKey, "", "Address allowed to administer the proxy")
	fs.Uint64(CacheSizeKey, defaultCacheSize, "Number of cached bindings, 0 disables the cache")
	fs.Uint64(RelayTimeoutSecondsKey, defaultRelayTimeoutSeconds, "Retry budget of a single relayed request")
}

// Build the viper instance. All config keys may be provided via flag,
// environment variable or config file. The config file is optional.
func BuildViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// Map flag names to env var names. Flags are capitalized, and hyphens are replaced with underscores.
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	filename := os.ExpandEnv(v.GetString(ConfigFileKey))
	if filename == "" {
		return v, nil
	}
	v.SetConfigFile(filename)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}
	return v, nil
}

func SetDefaultConfigValues(v *viper.Viper) {
	v.SetDefault(LogLevelKey, defaultLogLevel)
	v.SetDefault(DataDirKey, defaultDataDir)
	v.SetDefault(DBBackendKey, defaultDBBackend)
	v.SetDefault(ChainIDKey, defaultChainID)
	v.SetDefault(CacheSizeKey, defaultCacheSize)
	v.SetDefault(RelayTimeoutSecondsKey, defaultRelayTimeoutSeconds)
}

// BuildConfig constructs the lock proxy config using Viper.
// The following precedence order is used. Each item takes precedence over the item below it:
//  1. Flags
//  2. Environment variables
//  3. Config file
//  4. Defaults
//
// Returns the Config
func BuildConfig(v *viper.Viper) (Config, error) {
	// Set default values
	SetDefaultConfigValues(v)

	// Build the config from Viper
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal viper config: %w", err)
	}
	cfg.DataDir = os.ExpandEnv(cfg.DataDir)
	return cfg, nil
}
