// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

const (
	// Command line option keys
	ConfigFileKey = "config-file"
	VersionKey    = "version"
	HelpKey       = "help"

	// Environment variable prefix, LOCKPROXY_DATA_DIR sets data-dir
	EnvPrefix = "LOCKPROXY"

	// Top-level configuration keys
	LogLevelKey            = "log-level"
	DataDirKey             = "data-dir"
	DBBackendKey           = "db-backend"
	ChainIDKey             = "chain-id"
	ProxyAddressKey        = "proxy-address"
	ManagerAddressKey      = "manager-address"
	OperatorAddressKey     = "operator-address"
	CacheSizeKey           = "cache-size"
	RelayTimeoutSecondsKey = "relay-timeout-seconds"
)
