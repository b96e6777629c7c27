package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"nftokview/pkg/config"
	"nftokview/pkg/models"
	"nftokview/pkg/nftoken"
	"nftokview/pkg/rpc"
	"nftokview/pkg/server"
	"nftokview/pkg/utils"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <address>",
		Short: "Fetch, classify and print one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := strings.TrimSpace(args[0])
			if !utils.IsValidAddress(address) {
				return fmt.Errorf("invalid address %q", address)
			}
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := setupLogging(cmd, cfg, cfg.LogFile); err != nil {
				return err
			}
			defer config.CloseLogFile()

			status, err := fetchStatus(cmd.Context(), rpc.NewClient(cfg), cfg, address)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(status)
			}
			printStatus(out, status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

// fetchStatus resolves one account synchronously. Each request gets its own
// deadline. Metadata and collection counts are best effort.
func fetchStatus(ctx context.Context, client *rpc.Client, cfg config.Config, address string) (server.AccountStatus, error) {
	status := server.AccountStatus{Address: address}

	var acc *models.Account
	err := withTimeout(ctx, cfg, func(ctx context.Context) (err error) {
		acc, err = client.FetchAccountInfo(ctx, address)
		return err
	})
	if err != nil {
		return status, fmt.Errorf("fetch account %s: %w", address, err)
	}
	if acc == nil {
		status.Status = "not_found"
		return status, nil
	}

	status.Status = "ready"
	status.Account = acc
	kind := nftoken.Classify(acc, cfg.ProgramID)
	status.Kind = kind.String()

	metadataURL := ""
	switch kind {
	case nftoken.KindNFT:
		status.NFT = nftoken.ParseNFT(acc, cfg.ProgramID)
		metadataURL = status.NFT.MetadataURL
	case nftoken.KindCollection:
		status.Collection = nftoken.ParseCollection(acc, cfg.ProgramID)
		metadataURL = status.Collection.MetadataURL
		var nfts []models.NFT
		err := withTimeout(ctx, cfg, func(ctx context.Context) (err error) {
			nfts, err = client.FetchCollectionNfts(ctx, address)
			return err
		})
		if err != nil {
			config.Logger.Warn().Err(err).Str("collection", address).Msg("count collection nfts")
		} else {
			n := len(nfts)
			status.NftCount = &n
		}
	}

	if metadataURL != "" {
		var md *models.Metadata
		err := withTimeout(ctx, cfg, func(ctx context.Context) (err error) {
			md, err = client.FetchMetadata(ctx, metadataURL)
			return err
		})
		if err != nil {
			config.Logger.Warn().Err(err).Str("url", metadataURL).Msg("fetch metadata")
		} else {
			status.Metadata = md
		}
	}
	return status, nil
}

func withTimeout(ctx context.Context, cfg config.Config, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout())
	defer cancel()
	return fn(ctx)
}

// unavailable marks values show could not resolve.
const unavailable = "-"

func printStatus(w io.Writer, s server.AccountStatus) {
	if s.Status == "not_found" {
		fmt.Fprintln(w, "Account not found")
		return
	}

	row := func(label, value string) { fmt.Fprintf(w, "%-14s%s\n", label, value) }
	name := func(md *models.Metadata) string {
		if md == nil {
			return unavailable
		}
		return md.Name
	}

	switch {
	case s.NFT != nil:
		fmt.Fprintln(w, "Overview")
		row("Address", s.NFT.Address)
		row("Authority", s.NFT.Authority)
		row("Holder", s.NFT.Holder)
		if s.NFT.Delegate != "" {
			row("Delegate", s.NFT.Delegate)
		} else {
			row("Delegate", "Not Delegated")
		}
		if s.NFT.Collection != "" {
			row("Collection", s.NFT.Collection)
		} else {
			row("Collection", "No Collection")
		}
		row("Name", name(s.Metadata))
	case s.Collection != nil:
		fmt.Fprintln(w, "Overview")
		row("Address", s.Collection.Address)
		row("Authority", s.Collection.Authority)
		if s.NftCount != nil {
			row("Number NFTs", fmt.Sprint(*s.NftCount))
		} else {
			row("Number NFTs", unavailable)
		}
		row("Name", name(s.Metadata))
	default:
		fmt.Fprintln(w, "Account")
		row("Address", s.Account.Address)
		row("Owner", s.Account.Owner)
		row("Balance", utils.FormatSOL(s.Account.Lamports)+" SOL")
		row("Data", utils.FormatBytes(s.Account.Space))
		row("Executable", fmt.Sprint(s.Account.Executable))
	}
}
