// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package precompile hosts the lock proxy, the cross-chain manager and the
// token ledger of one chain over a single database. Every call runs against
// an overlay of that database and is committed atomically when it succeeds.
package precompile

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/lockproxy"
	"github.com/luxfi/lockproxy/backend"
	"github.com/luxfi/lockproxy/database"
	"github.com/luxfi/lockproxy/ledger"
	"github.com/luxfi/lockproxy/registry"
)

// Gas costs for lock proxy operations
const (
	BindProxyHashGas   = 20_000
	BindAssetHashGas   = 25_000
	GetProxyHashGas    = 2_000
	GetAssetHashGas    = 2_000
	GetAssetBalanceGas = 5_000
	LockGas            = 100_000
	UnlockGas          = 60_000
	UpgradeGas         = 500_000
	DeliverGas         = 20_000
	DeployTokenGas     = 200_000
)

const DefaultCacheSize = 1024

var (
	// LockProxyContract is the default address of the lock proxy
	LockProxyContract = common.HexToAddress("0x0200000000000000000000000000000000000010")
	// CrossChainManagerContract is the default address of the manager
	CrossChainManagerContract = common.HexToAddress("0x0200000000000000000000000000000000000011")

	proxyPrefix   = []byte("proxy/")
	ledgerPrefix  = []byte("ledger/")
	managerPrefix = []byte("manager/")

	errNilChainID = errors.New("chain id required")

	methodGas = map[lockproxy.Method]uint64{
		lockproxy.MethodBindProxyHash:   BindProxyHashGas,
		lockproxy.MethodBindAssetHash:   BindAssetHashGas,
		lockproxy.MethodGetProxyHash:    GetProxyHashGas,
		lockproxy.MethodGetAssetHash:    GetAssetHashGas,
		lockproxy.MethodGetAssetBalance: GetAssetBalanceGas,
		lockproxy.MethodLock:            LockGas,
		lockproxy.MethodUnlock:          UnlockGas,
		lockproxy.MethodUpgrade:         UpgradeGas,
	}
)

const (
	deliverMethod     = "deliver"
	deployTokenMethod = "deployToken"
)

// Config is the configuration of a hosted lock proxy
type Config struct {
	ChainID        *big.Int
	ProxyAddress   common.Address
	ManagerAddress common.Address
	Operator       common.Address
	// CacheSize bounds the binding cache. Zero disables it.
	CacheSize uint64
}

// DefaultConfig returns the configuration with the default contract addresses
func DefaultConfig(chainID *big.Int, operator common.Address) Config {
	return Config{
		ChainID:        chainID,
		ProxyAddress:   LockProxyContract,
		ManagerAddress: CrossChainManagerContract,
		Operator:       operator,
		CacheSize:      DefaultCacheSize,
	}
}

// Receipt is the outcome of a committed call
type Receipt struct {
	Method  string
	Result  lockproxy.Result
	Events  []lockproxy.Event
	GasUsed uint64
}

// Logs serializes the receipt's events
func (r *Receipt) Logs() ([]lockproxy.Log, error) {
	logs := make([]lockproxy.Log, 0, len(r.Events))
	for _, e := range r.Events {
		l, err := lockproxy.EncodeLog(e)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, nil
}

// Module runs lock proxy calls one at a time over [db]
type Module struct {
	lock    sync.Mutex
	config  Config
	db      database.Database
	cache   *registry.Cache
	metrics *moduleMetrics
	log     log.Logger
}

// NewModule returns a module storing its state in [db]
func NewModule(
	config Config,
	db database.Database,
	registerer prometheus.Registerer,
	logger log.Logger,
) (*Module, error) {
	if config.ChainID == nil {
		return nil, errNilChainID
	}
	var c *registry.Cache
	if config.CacheSize > 0 {
		var err error
		c, err = registry.NewCache(config.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create binding cache: %w", err)
		}
	}
	metrics, err := newModuleMetrics(registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	return &Module{
		config:  config,
		db:      db,
		cache:   c,
		metrics: metrics,
		log:     logger,
	}, nil
}

// Config returns the module configuration
func (m *Module) Config() Config {
	return m.config
}

// state is the set of contracts bound to one call's overlay
type state struct {
	overlay *database.Overlay
	tokens  *ledger.Directory
	manager *backend.Manager
	proxy   *lockproxy.Proxy
	events  *lockproxy.EventLog
}

func (m *Module) newState() *state {
	overlay := database.NewOverlay(m.db)
	tokens := ledger.NewDirectory(database.NewPrefixDB(ledgerPrefix, overlay), m.log)
	manager := backend.NewManager(
		m.config.ChainID,
		m.config.ManagerAddress,
		database.NewPrefixDB(managerPrefix, overlay),
		m.log,
	)
	events := &lockproxy.EventLog{}
	proxy := lockproxy.New(
		lockproxy.Config{
			ProxyAddress:   m.config.ProxyAddress,
			ManagerAddress: m.config.ManagerAddress,
			Operator:       m.config.Operator,
		},
		registry.New(database.NewPrefixDB(proxyPrefix, overlay), m.cache),
		lockproxy.AssetResolverFunc(func(asset common.Address) (lockproxy.AssetLedger, error) {
			token, err := tokens.Deployed(asset)
			if err != nil {
				return nil, err
			}
			return token, nil
		}),
		manager,
		events,
		m.log,
	)
	manager.Register(m.config.ProxyAddress, proxy)

	return &state{
		overlay: overlay,
		tokens:  tokens,
		manager: manager,
		proxy:   proxy,
		events:  events,
	}
}

// run executes [fn] against a fresh state. Writes are committed only when
// [fn] succeeds and the call is not read only.
func (m *Module) run(
	method string,
	readOnly bool,
	gas uint64,
	fn func(s *state) (lockproxy.Result, error),
) (*Receipt, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	start := time.Now()
	s := m.newState()
	result, err := fn(s)
	if err == nil && !readOnly {
		if commitErr := s.overlay.Commit(); commitErr != nil {
			err = fmt.Errorf("%w: %w", lockproxy.ErrStorage, commitErr)
		}
	} else {
		s.overlay.Abort()
	}
	latency := float64(time.Since(start).Milliseconds())

	if err != nil {
		if !readOnly {
			m.purgeCache()
		}
		m.metrics.failure(method, err, latency)
		return nil, err
	}

	m.metrics.success(method, gas, latency)
	return &Receipt{
		Method:  method,
		Result:  result,
		Events:  s.events.Events(),
		GasUsed: gas,
	}, nil
}

func (m *Module) purgeCache() {
	if m.cache != nil {
		m.cache.Purge()
	}
}

// Call invokes [call] on the lock proxy
func (m *Module) Call(ctx context.Context, env lockproxy.Env, call lockproxy.Call) (*Receipt, error) {
	if err := lockproxy.CheckCall(call); err != nil {
		return nil, err
	}
	method := call.Method()
	return m.run(string(method), method.ReadOnly(), methodGas[method], func(s *state) (lockproxy.Result, error) {
		return s.proxy.Invoke(ctx, env, call)
	})
}

// Deliver hands an inbound request to the manager, which calls the proxy
// with the manager's identity.
func (m *Module) Deliver(ctx context.Context, env lockproxy.Env, req *backend.Request) (*Receipt, error) {
	gas := uint64(DeliverGas)
	if method, err := lockproxy.ParseMethod(req.Method); err == nil {
		gas += methodGas[method]
	}
	return m.run(deliverMethod, false, gas, func(s *state) (lockproxy.Result, error) {
		return lockproxy.Result{}, s.manager.Deliver(ctx, env, req)
	})
}

// DeployToken deploys a token ledger at [asset]
func (m *Module) DeployToken(ctx context.Context, env lockproxy.Env, asset common.Address, meta ledger.Metadata) (*Receipt, error) {
	return m.run(deployTokenMethod, false, DeployTokenGas, func(s *state) (lockproxy.Result, error) {
		return lockproxy.Result{}, s.tokens.Token(asset).Deploy(ctx, env, meta)
	})
}

// TokenBalance returns the committed balance of [account] in [asset]
func (m *Module) TokenBalance(ctx context.Context, asset, account common.Address) (*uint256.Int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	token, err := m.tokens().Deployed(asset)
	if err != nil {
		return nil, err
	}
	return token.BalanceOf(ctx, account)
}

// Tokens lists the deployed token ledgers
func (m *Module) Tokens() ([]common.Address, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.tokens().Assets()
}

// Outbox returns the committed outbound requests of the manager
func (m *Module) Outbox() backend.Outbox {
	return &outbox{module: m}
}

// NumRequests returns the number of committed outbound requests
func (m *Module) NumRequests() (uint64, error) {
	return m.Outbox().NumRequests()
}

// GetRequest returns the committed outbound request at [index]
func (m *Module) GetRequest(index uint64) (*backend.Request, error) {
	return m.Outbox().GetRequest(index)
}

func (m *Module) tokens() *ledger.Directory {
	return ledger.NewDirectory(database.NewPrefixDB(ledgerPrefix, m.db), m.log)
}

func (m *Module) committedManager() *backend.Manager {
	return backend.NewManager(
		m.config.ChainID,
		m.config.ManagerAddress,
		database.NewPrefixDB(managerPrefix, m.db),
		m.log,
	)
}

type outbox struct {
	module *Module
}

func (o *outbox) NumRequests() (uint64, error) {
	o.module.lock.Lock()
	defer o.module.lock.Unlock()

	return o.module.committedManager().NumRequests()
}

func (o *outbox) GetRequest(index uint64) (*backend.Request, error) {
	o.module.lock.Lock()
	defer o.module.lock.Unlock()

	return o.module.committedManager().GetRequest(index)
}
