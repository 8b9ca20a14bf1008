// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/luxfi/geth/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/lockproxy/database"
	"github.com/luxfi/lockproxy/precompile"
	"github.com/luxfi/lockproxy/relayer"
	"github.com/luxfi/lockproxy/relayer/checkpoint"
	"github.com/luxfi/lockproxy/types"
)

var errInvalidRoute = errors.New("route must be <chain-id>=<data-dir>")

// route is a destination chain whose state lives in a local database
type route struct {
	name    string
	chainID string
	dataDir string
}

func parseRoute(s string) (route, error) {
	chainID, dataDir, ok := strings.Cut(s, "=")
	if !ok || chainID == "" || dataDir == "" {
		return route{}, fmt.Errorf("%w: %q", errInvalidRoute, s)
	}
	return route{name: chainID, chainID: chainID, dataDir: dataDir}, nil
}

func newRelayCmd(a *app) *cobra.Command {
	var (
		routes     []string
		relayerHex string
		once       bool
	)

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Relay queued requests to other chains",
		Long: `Relay the requests queued on this chain to the cross-chain manager of each
destination. Every --route names a destination chain id and the database
directory holding its state.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			relayerAddr, err := types.ParseAddress(relayerHex)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			for _, s := range routes {
				r, err := parseRoute(s)
				if err != nil {
					return err
				}
				rel, closeFn, err := a.newRelayer(r, relayerAddr)
				if err != nil {
					return err
				}
				defer closeFn()

				g.Go(func() error {
					if once {
						delivered, err := rel.RelayPending(ctx)
						fmt.Fprintf(cmd.OutOrStdout(), "chain %s: relayed %d requests\n", r.name, delivered)
						return err
					}
					return rel.Run(ctx)
				})
			}
			return g.Wait()
		},
	}

	cmd.Flags().StringArrayVar(&routes, "route", nil, "Destination as <chain-id>=<data-dir>, repeatable")
	cmd.Flags().StringVar(&relayerHex, "relayer", "", "Caller address of the relayer on the destinations (hex)")
	cmd.Flags().BoolVar(&once, "once", false, "Relay the pending requests and exit")
	_ = cmd.MarkFlagRequired("route")
	_ = cmd.MarkFlagRequired("relayer")

	return cmd
}

// newRelayer opens the destination of [r] and returns a relayer from the
// local outbox to it. The checkpoint is stored in the local database.
func (a *app) newRelayer(r route, relayerAddr common.Address) (*relayer.Relayer, func(), error) {
	destChainID, err := types.ParseChainID(r.chainID)
	if err != nil {
		return nil, nil, err
	}
	destDB, err := database.New(a.cfg.DBBackend, r.dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database of chain %s: %w", r.name, err)
	}
	closeFn := func() {
		_ = destDB.Close()
	}

	routeRegisterer := prometheus.WrapRegistererWith(prometheus.Labels{"route": r.name}, a.registry)
	destConfig := a.cfg.ModuleConfig()
	destConfig.ChainID = destChainID
	dest, err := precompile.NewModule(
		destConfig,
		destDB,
		prometheus.WrapRegistererWithPrefix("destination_", routeRegisterer),
		a.logger,
	)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	relayerID := fmt.Sprintf("%s-%s", a.cfg.GetChainID(), destChainID)
	cp, err := checkpoint.New(
		a.logger,
		database.NewPrefixDB([]byte("relayer/"+relayerID+"/"), a.db),
		relayerID,
		0,
	)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	rel, err := relayer.New(
		relayer.Config{
			SourceChainID:      a.cfg.GetChainID(),
			DestinationChainID: destChainID,
			Address:            relayerAddr,
			RelayTimeout:       a.cfg.GetRelayTimeout(),
		},
		a.module.Outbox(),
		dest,
		cp,
		routeRegisterer,
		a.logger,
	)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return rel, closeFn, nil
}
