package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"nftokview/pkg/config"
	"nftokview/pkg/models"
	"nftokview/pkg/rpc"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigTestCmd(), newConfigRestoreCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			custom, _ := cmd.Flags().GetString("config")
			path, err := config.GetConfigPath(custom)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.SaveConfig(config.Default(), path); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			cmd.Printf("Wrote default configuration to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file (a backup is kept)")
	return cmd
}

func newConfigRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Restore the most recent configuration backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			custom, _ := cmd.Flags().GetString("config")
			path, err := config.GetConfigPath(custom)
			if err != nil {
				return err
			}
			if err := config.RestoreLastBackup(path); err != nil {
				return fmt.Errorf("restore %s: %w", path, err)
			}
			cmd.Printf("Restored last backup to %s\n", path)
			return nil
		},
	}
}

var errConfigInvalid = errors.New("configuration is invalid")

func newConfigTestCmd() *cobra.Command {
	var jsonOutput, dryRun bool

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Validate the configuration and ping every RPC endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			say := func(format string, a ...interface{}) {
				if !jsonOutput {
					fmt.Fprintf(out, format, a...)
				}
			}
			emit := func(report models.TestReport) {
				if jsonOutput {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					_ = enc.Encode(report)
				}
			}

			report := models.TestReport{
				ConfigPath:     path,
				ValidStructure: true,
				Cluster:        cfg.Cluster,
				DryRun:         dryRun,
			}
			say("Testing configuration at: %s\n", path)

			if problems := config.Validate(cfg); len(problems) > 0 {
				report.ValidStructure = false
				report.StructureErrors = problems
				for _, p := range problems {
					say("Error: %s\n", p)
				}
				emit(report)
				return errConfigInvalid
			}

			say("Cluster %s, %d RPC endpoint(s).\n", cfg.Cluster, len(cfg.RPCURLs))
			for _, u := range cfg.RPCURLs {
				say("  RPC: %s ... ", u)
				ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout())
				res := rpc.CheckRPC(ctx, u)
				cancel()
				if res.Status == "ok" {
					report.HealthyRPCs++
					say("OK (solana-core %s, %s)\n", res.Version, res.Latency)
				} else {
					say("Failed: %s\n", res.Error)
				}
				report.RPCs = append(report.RPCs, res)
			}

			if raw, err := os.ReadFile(path); err == nil && config.HasLegacyFields(raw) {
				say("\nMigrating legacy rpc_url to rpc_urls...\n")
				if dryRun {
					say("Dry run enabled: Configuration NOT saved.\n")
				} else if err := config.SaveConfig(cfg, path); err != nil {
					report.SaveError = err.Error()
					say("Failed to save config: %v\n", err)
				} else {
					report.ConfigUpdated = true
					say("Configuration saved successfully.\n")
				}
			}

			emit(report)
			if report.HealthyRPCs == 0 {
				return rpc.ErrAllRPCsFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output test results as JSON")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "do not write the migrated configuration")
	return cmd
}
