// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/lockproxy/database"
	"github.com/luxfi/lockproxy/precompile"
)

const testOperator = "0x00000000000000000000000000000000000000f1"

func buildTestConfig(t *testing.T, args ...string) (Config, error) {
	t.Helper()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(fs)
	require.NoError(t, fs.Parse(args))

	v, err := BuildViper(fs)
	require.NoError(t, err)
	return NewConfig(v)
}

func TestDefaults(t *testing.T) {
	require := require.New(t)

	cfg, err := buildTestConfig(t, "--"+OperatorAddressKey, testOperator)
	require.NoError(err)

	require.Equal(defaultLogLevel, cfg.LogLevel)
	require.Equal(database.LevelDBBackend, cfg.DBBackend)
	require.Equal(uint64(precompile.DefaultCacheSize), cfg.CacheSize)
	require.Equal(30*time.Second, cfg.GetRelayTimeout())
	require.Equal(big.NewInt(1), cfg.GetChainID())

	moduleConfig := cfg.ModuleConfig()
	require.Equal(precompile.LockProxyContract, moduleConfig.ProxyAddress)
	require.Equal(precompile.CrossChainManagerContract, moduleConfig.ManagerAddress)
	require.Equal(common.HexToAddress(testOperator), moduleConfig.Operator)
}

func TestEnvironmentOverrides(t *testing.T) {
	require := require.New(t)

	t.Setenv("LOCKPROXY_CHAIN_ID", "0x2a")
	t.Setenv("LOCKPROXY_DB_BACKEND", database.MemDBBackend)
	t.Setenv("LOCKPROXY_OPERATOR_ADDRESS", testOperator)

	cfg, err := buildTestConfig(t)
	require.NoError(err)
	require.Equal(big.NewInt(42), cfg.GetChainID())
	require.Equal(database.MemDBBackend, cfg.DBBackend)

	// flags take precedence over the environment
	cfg, err = buildTestConfig(t, "--"+ChainIDKey, "7")
	require.NoError(err)
	require.Equal(big.NewInt(7), cfg.GetChainID())
}

func TestConfigFile(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(os.WriteFile(path, []byte(`{
		"chain-id": "5",
		"operator-address": "`+testOperator+`",
		"proxy-address": "0x00000000000000000000000000000000000000f3",
		"cache-size": 0
	}`), 0o600))

	cfg, err := buildTestConfig(t, "--"+ConfigFileKey, path)
	require.NoError(err)
	require.Equal(big.NewInt(5), cfg.GetChainID())
	require.Zero(cfg.CacheSize)
	require.Equal(common.HexToAddress("0xf3"), cfg.ModuleConfig().ProxyAddress)
}

func TestMissingConfigFile(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(fs)
	require.NoError(t, fs.Parse([]string{"--" + ConfigFileKey, filepath.Join(t.TempDir(), "missing.json")}))

	_, err := BuildViper(fs)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			LogLevel:            "debug",
			DataDir:             "/tmp/lockproxy",
			DBBackend:           database.LevelDBBackend,
			ChainID:             "1",
			OperatorAddress:     testOperator,
			RelayTimeoutSeconds: 1,
		}
	}

	testCases := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{
			name:   "valid",
			modify: func(*Config) {},
			valid:  true,
		},
		{
			name:   "unknown log level",
			modify: func(c *Config) { c.LogLevel = "loud" },
		},
		{
			name:   "unknown backend",
			modify: func(c *Config) { c.DBBackend = "postgres" },
		},
		{
			name:   "leveldb without data dir",
			modify: func(c *Config) { c.DataDir = "" },
		},
		{
			name: "memdb without data dir",
			modify: func(c *Config) {
				c.DBBackend = database.MemDBBackend
				c.DataDir = ""
			},
			valid: true,
		},
		{
			name:   "negative chain id",
			modify: func(c *Config) { c.ChainID = "-1" },
		},
		{
			name:   "short proxy address",
			modify: func(c *Config) { c.ProxyAddress = "0x01" },
		},
		{
			name:   "missing operator",
			modify: func(c *Config) { c.OperatorAddress = "" },
		},
		{
			name:   "zero relay timeout",
			modify: func(c *Config) { c.RelayTimeoutSeconds = 0 },
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			cfg := valid()
			test.modify(&cfg)
			err := cfg.Validate()
			if test.valid {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}
