// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luxfi/lockproxy/config"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "lockproxy",
		Short: "Lock proxy - cross-chain asset bridge",
		Long: `lockproxy locks tokens into custody on this chain and asks the paired
proxy on another chain to release the matching asset.

This CLI administers a proxy hosted over a local database, submits locks and
relays queued cross-chain requests to other chains.`,
		Version:       fmt.Sprintf("%s (built %s)", version, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.AddFlags(rootCmd.PersistentFlags())

	// commands that only transform input do not need the database
	rootCmd.AddCommand(newEncodeCmd())
	rootCmd.AddCommand(newDecodeCmd())
	rootCmd.AddCommand(newVersionCmd())

	for _, cmd := range []*cobra.Command{
		newBindProxyCmd(a),
		newBindAssetCmd(a),
		newGetProxyCmd(a),
		newGetAssetCmd(a),
		newBalanceCmd(a),
		newDeployTokenCmd(a),
		newLockCmd(a),
		newRequestsCmd(a),
		newRelayCmd(a),
	} {
		cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Flags())
		}
		cmd.PostRunE = func(*cobra.Command, []string) error {
			return a.close()
		}
		rootCmd.AddCommand(cmd)
	}
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lockproxy %s (built %s)\n", version, buildDate)
		},
	}
}
