// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/luxfi/lockproxy"
	"github.com/luxfi/lockproxy/ledger"
	"github.com/luxfi/lockproxy/payload"
	"github.com/luxfi/lockproxy/types"
)

func parseAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return amount, nil
}

func newEncodeCmd() *cobra.Command {
	var (
		asset  string
		to     string
		amount string
	)

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode transfer args",
		Long:  `Encode the transfer args a proxy sends to its remote peer.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			assetHash, err := types.ParseHex(asset)
			if err != nil {
				return fmt.Errorf("invalid asset: %w", err)
			}
			toAddress, err := types.ParseHex(to)
			if err != nil {
				return fmt.Errorf("invalid to address: %w", err)
			}
			value, err := uint256.FromDecimal(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}
			args, err := payload.NewTransferArgs(assetHash, toAddress, value)
			if err != nil {
				return err
			}
			b, err := args.Bytes()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(b))
			return nil
		},
	}

	cmd.Flags().StringVar(&asset, "asset", "", "Remote asset hash (hex)")
	cmd.Flags().StringVar(&to, "to", "", "Remote recipient (hex)")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount (decimal)")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newDecodeCmd() *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode transfer args",
		Long:  `Decode hex-encoded transfer args.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := types.ParseHex(data)
			if err != nil {
				return fmt.Errorf("invalid hex data: %w", err)
			}
			args, err := payload.ParseTransferArgs(b)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Asset Hash: %x\n", args.AssetHash)
			fmt.Fprintf(w, "To Address: %x\n", args.ToAddress)
			fmt.Fprintf(w, "Amount: %s\n", args.Amount.Dec())
			return nil
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "Encoded transfer args (hex)")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func newBindProxyCmd(a *app) *cobra.Command {
	var (
		toChain string
		proxy   string
	)

	cmd := &cobra.Command{
		Use:   "bind-proxy",
		Short: "Trust a proxy on another chain",
		RunE: func(cmd *cobra.Command, _ []string) error {
			toChainID, err := types.ParseChainID(toChain)
			if err != nil {
				return err
			}
			target, err := types.ParseHex(proxy)
			if err != nil {
				return fmt.Errorf("invalid proxy: %w", err)
			}
			receipt, err := a.call(cmd.Context(), a.operatorEnv(), &lockproxy.BindProxyHashCall{
				ToChainID:       toChainID,
				TargetProxyHash: target,
			})
			if err != nil {
				return err
			}
			return printReceipt(cmd.OutOrStdout(), receipt)
		},
	}

	cmd.Flags().StringVar(&toChain, "to-chain-id", "", "Remote chain id")
	cmd.Flags().StringVar(&proxy, "proxy", "", "Remote proxy hash (hex)")
	_ = cmd.MarkFlagRequired("to-chain-id")
	_ = cmd.MarkFlagRequired("proxy")

	return cmd
}

func newBindAssetCmd(a *app) *cobra.Command {
	var (
		asset   string
		toChain string
		target  string
	)

	cmd := &cobra.Command{
		Use:   "bind-asset",
		Short: "Pair a local asset with an asset on another chain",
		RunE: func(cmd *cobra.Command, _ []string) error {
			assetHash, err := types.ParseHex(asset)
			if err != nil {
				return fmt.Errorf("invalid asset: %w", err)
			}
			toChainID, err := types.ParseChainID(toChain)
			if err != nil {
				return err
			}
			targetHash, err := types.ParseHex(target)
			if err != nil {
				return fmt.Errorf("invalid target: %w", err)
			}
			receipt, err := a.call(cmd.Context(), a.operatorEnv(), &lockproxy.BindAssetHashCall{
				FromAssetHash:   assetHash,
				ToChainID:       toChainID,
				TargetAssetHash: targetHash,
			})
			if err != nil {
				return err
			}
			return printReceipt(cmd.OutOrStdout(), receipt)
		},
	}

	cmd.Flags().StringVar(&asset, "asset", "", "Local asset hash (hex)")
	cmd.Flags().StringVar(&toChain, "to-chain-id", "", "Remote chain id")
	cmd.Flags().StringVar(&target, "target", "", "Remote asset hash (hex)")
	_ = cmd.MarkFlagRequired("asset")
	_ = cmd.MarkFlagRequired("to-chain-id")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func newGetProxyCmd(a *app) *cobra.Command {
	var toChain string

	cmd := &cobra.Command{
		Use:   "get-proxy",
		Short: "Show the proxy trusted on another chain",
		RunE: func(cmd *cobra.Command, _ []string) error {
			toChainID, err := types.ParseChainID(toChain)
			if err != nil {
				return err
			}
			receipt, err := a.call(cmd.Context(), lockproxy.Env{}, &lockproxy.GetProxyHashCall{ToChainID: toChainID})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%x\n", receipt.Result.Hash)
			return nil
		},
	}

	cmd.Flags().StringVar(&toChain, "to-chain-id", "", "Remote chain id")
	_ = cmd.MarkFlagRequired("to-chain-id")

	return cmd
}

func newGetAssetCmd(a *app) *cobra.Command {
	var (
		asset   string
		toChain string
	)

	cmd := &cobra.Command{
		Use:   "get-asset",
		Short: "Show the remote asset paired with a local asset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			assetHash, err := types.ParseHex(asset)
			if err != nil {
				return fmt.Errorf("invalid asset: %w", err)
			}
			toChainID, err := types.ParseChainID(toChain)
			if err != nil {
				return err
			}
			receipt, err := a.call(cmd.Context(), lockproxy.Env{}, &lockproxy.GetAssetHashCall{
				FromAssetHash: assetHash,
				ToChainID:     toChainID,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%x\n", receipt.Result.Hash)
			return nil
		},
	}

	cmd.Flags().StringVar(&asset, "asset", "", "Local asset hash (hex)")
	cmd.Flags().StringVar(&toChain, "to-chain-id", "", "Remote chain id")
	_ = cmd.MarkFlagRequired("asset")
	_ = cmd.MarkFlagRequired("to-chain-id")

	return cmd
}

func newBalanceCmd(a *app) *cobra.Command {
	var (
		asset   string
		account string
	)

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show a token balance",
		Long:  `Show the balance of an account, or the proxy's custody balance when no account is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			assetHash, err := types.ParseHex(asset)
			if err != nil {
				return fmt.Errorf("invalid asset: %w", err)
			}
			var balance *uint256.Int
			if account == "" {
				receipt, err := a.call(cmd.Context(), lockproxy.Env{}, &lockproxy.GetAssetBalanceCall{AssetHash: assetHash})
				if err != nil {
					return err
				}
				balance = receipt.Result.Balance
			} else {
				assetAddr, err := types.BytesToAddress(assetHash)
				if err != nil {
					return err
				}
				accountAddr, err := types.ParseAddress(account)
				if err != nil {
					return err
				}
				balance, err = a.module.TokenBalance(cmd.Context(), assetAddr, accountAddr)
				if err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), balance.Dec())
			return nil
		},
	}

	cmd.Flags().StringVar(&asset, "asset", "", "Asset hash (hex)")
	cmd.Flags().StringVar(&account, "account", "", "Account address (hex), defaults to the proxy custody")
	_ = cmd.MarkFlagRequired("asset")

	return cmd
}

func newDeployTokenCmd(a *app) *cobra.Command {
	var (
		asset    string
		name     string
		symbol   string
		decimals uint8
		supply   string
		owner    string
	)

	cmd := &cobra.Command{
		Use:   "deploy-token",
		Short: "Deploy a token ledger",
		Long:  `Deploy a token ledger and mint its total supply to the owner.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			assetAddr, err := types.ParseAddress(asset)
			if err != nil {
				return err
			}
			ownerAddr, err := types.ParseAddress(owner)
			if err != nil {
				return err
			}
			totalSupply, err := parseAmount(supply)
			if err != nil {
				return err
			}
			receipt, err := a.module.DeployToken(cmd.Context(), signerEnv(ownerAddr), assetAddr, ledger.Metadata{
				Name:        name,
				Symbol:      symbol,
				Decimals:    decimals,
				TotalSupply: totalSupply,
				Owner:       ownerAddr,
			})
			if err != nil {
				return err
			}
			return printReceipt(cmd.OutOrStdout(), receipt)
		},
	}

	cmd.Flags().StringVar(&asset, "asset", "", "Asset hash of the token (hex)")
	cmd.Flags().StringVar(&name, "name", "", "Token name")
	cmd.Flags().StringVar(&symbol, "symbol", "", "Token symbol")
	cmd.Flags().Uint8Var(&decimals, "decimals", 8, "Token decimals")
	cmd.Flags().StringVar(&supply, "supply", "", "Total supply (decimal)")
	cmd.Flags().StringVar(&owner, "owner", "", "Owner receiving the supply (hex)")
	for _, flag := range []string{"asset", "name", "symbol", "supply", "owner"} {
		_ = cmd.MarkFlagRequired(flag)
	}

	return cmd
}

func newLockCmd(a *app) *cobra.Command {
	var (
		asset   string
		from    string
		toChain string
		to      string
		amount  string
	)

	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Lock tokens for release on another chain",
		RunE: func(cmd *cobra.Command, _ []string) error {
			assetHash, err := types.ParseHex(asset)
			if err != nil {
				return fmt.Errorf("invalid asset: %w", err)
			}
			fromAddr, err := types.ParseAddress(from)
			if err != nil {
				return err
			}
			toChainID, err := types.ParseChainID(toChain)
			if err != nil {
				return err
			}
			toAddress, err := types.ParseHex(to)
			if err != nil {
				return fmt.Errorf("invalid to address: %w", err)
			}
			value, err := parseAmount(amount)
			if err != nil {
				return err
			}
			receipt, err := a.call(cmd.Context(), signerEnv(fromAddr), &lockproxy.LockCall{
				FromAssetHash: assetHash,
				FromAddress:   fromAddr.Bytes(),
				ToChainID:     toChainID,
				ToAddress:     toAddress,
				Amount:        value,
			})
			if err != nil {
				return err
			}
			return printReceipt(cmd.OutOrStdout(), receipt)
		},
	}

	cmd.Flags().StringVar(&asset, "asset", "", "Local asset hash (hex)")
	cmd.Flags().StringVar(&from, "from", "", "Account the tokens are taken from (hex)")
	cmd.Flags().StringVar(&toChain, "to-chain-id", "", "Remote chain id")
	cmd.Flags().StringVar(&to, "to", "", "Remote recipient (hex)")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount (decimal)")
	for _, flag := range []string{"asset", "from", "to-chain-id", "to", "amount"} {
		_ = cmd.MarkFlagRequired(flag)
	}

	return cmd
}

type requestJSON struct {
	ID           string `json:"id"`
	Index        uint64 `json:"index"`
	FromChainID  string `json:"fromChainID"`
	FromContract string `json:"fromContract"`
	ToChainID    string `json:"toChainID"`
	ToContract   string `json:"toContract"`
	Method       string `json:"method"`
	Args         string `json:"args"`
}

func newRequestsCmd(a *app) *cobra.Command {
	var start uint64

	cmd := &cobra.Command{
		Use:   "requests",
		Short: "List queued cross-chain requests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			count, err := a.module.NumRequests()
			if err != nil {
				return err
			}
			out := []requestJSON{}
			for index := start; index < count; index++ {
				req, err := a.module.GetRequest(index)
				if err != nil {
					return err
				}
				id, err := req.ID()
				if err != nil {
					return err
				}
				out = append(out, requestJSON{
					ID:           id.String(),
					Index:        req.Index,
					FromChainID:  req.FromChainID.String(),
					FromContract: hex.EncodeToString(req.FromContract),
					ToChainID:    req.ToChainID.String(),
					ToContract:   hex.EncodeToString(req.ToContract),
					Method:       req.Method,
					Args:         hex.EncodeToString(req.Args),
				})
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().Uint64Var(&start, "start", 0, "First request index")

	return cmd
}
