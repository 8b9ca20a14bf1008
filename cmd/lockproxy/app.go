// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/luxfi/lockproxy"
	"github.com/luxfi/lockproxy/config"
	"github.com/luxfi/lockproxy/database"
	"github.com/luxfi/lockproxy/precompile"
	"github.com/luxfi/lockproxy/types"
)

// app is the state shared by the commands that operate on the database
type app struct {
	cfg      config.Config
	logger   log.Logger
	db       database.Database
	registry *prometheus.Registry
	module   *precompile.Module
}

func (a *app) open(fs *pflag.FlagSet) error {
	v, err := config.BuildViper(fs)
	if err != nil {
		return err
	}
	cfg, err := config.NewConfig(v)
	if err != nil {
		return err
	}
	level, err := log.LvlFromString(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, true))
	a.registry = prometheus.NewRegistry()

	a.db, err = database.New(cfg.DBBackend, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.module, err = precompile.NewModule(cfg.ModuleConfig(), a.db, a.registry, a.logger)
	if err != nil {
		_ = a.db.Close()
		return err
	}
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// operatorEnv authorizes a call with the configured operator
func (a *app) operatorEnv() lockproxy.Env {
	operator := a.cfg.GetOperatorAddress()
	return lockproxy.Env{Caller: operator, Witness: types.NewWitnessSet(operator)}
}

// signerEnv authorizes a call as [signer]
func signerEnv(signer common.Address) lockproxy.Env {
	return lockproxy.Env{Caller: signer, Witness: types.NewWitnessSet(signer)}
}

func (a *app) call(ctx context.Context, env lockproxy.Env, call lockproxy.Call) (*precompile.Receipt, error) {
	return a.module.Call(ctx, env, call)
}

type receiptJSON struct {
	Method  string           `json:"method"`
	Result  lockproxy.Result `json:"result"`
	GasUsed uint64           `json:"gasUsed"`
	Events  []eventJSON      `json:"events,omitempty"`
}

type eventJSON struct {
	Name string          `json:"name"`
	Data lockproxy.Event `json:"data"`
}

func printReceipt(w io.Writer, receipt *precompile.Receipt) error {
	out := receiptJSON{
		Method:  receipt.Method,
		Result:  receipt.Result,
		GasUsed: receipt.GasUsed,
	}
	for _, e := range receipt.Events {
		out.Events = append(out.Events, eventJSON{Name: e.EventName(), Data: e})
	}
	return printJSON(w, out)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
