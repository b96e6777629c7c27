package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nftokview/pkg/cache"
	"nftokview/pkg/config"
	"nftokview/pkg/server"
	"nftokview/pkg/tui"
	"nftokview/pkg/utils"
	"nftokview/pkg/watcher"

	"github.com/spf13/cobra"
)

// Version should be set during build
var Version = "dev"

func main() {
	if err := newRootCmd(Version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(version string) *cobra.Command {
	var serverMode bool
	var port int

	cmd := &cobra.Command{
		Use:           "nftokview [address]",
		Short:         "Terminal explorer for NFToken NFTs and collections",
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			address := ""
			if len(args) == 1 {
				address = args[0]
				if !utils.IsValidAddress(address) {
					return fmt.Errorf("invalid address %q", address)
				}
			}

			logFile := cfg.LogFile
			if logFile == "" {
				logFile = config.DefaultLogPath()
			}
			if err := setupLogging(cmd, cfg, logFile); err != nil {
				return err
			}
			defer config.CloseLogFile()

			w, closeCache, err := newWatcher(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeCache()
			defer w.Close()

			if serverMode {
				srv := server.NewServer(w, cfg)
				go func() {
					if err := srv.Start(port); err != nil {
						config.Logger.Error().Err(err).Msg("server error")
					}
				}()
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(ctx)
				}()
			}

			return tui.Start(w, cfg, address, version)
		},
	}

	cmd.PersistentFlags().String("config", "", "path to configuration file")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.Flags().BoolVar(&serverMode, "server", false, "also run the API server in the background")
	cmd.Flags().IntVar(&port, "port", 8080, "port for the API server")

	cmd.AddCommand(newShowCmd(), newServeCmd(), newConfigCmd(), newVersionCmd(version))
	return cmd
}

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the headless API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := setupLogging(cmd, cfg, cfg.LogFile); err != nil {
				return err
			}
			defer config.CloseLogFile()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, closeCache, err := newWatcher(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeCache()
			defer w.Close()

			srv := server.NewServer(w, cfg)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(port) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				config.Logger.Info().Msg("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port for the API server")
	return cmd
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("nftokview version %s\n", version)
		},
	}
}

// loadConfig resolves --config and loads the file, falling back to defaults
// when it does not exist.
func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	custom, _ := cmd.Flags().GetString("config")
	path, err := config.GetConfigPath(custom)
	if err != nil {
		return config.Config{}, "", fmt.Errorf("determine config path: %w", err)
	}
	cfg, err := config.LoadConfigFromFile(path)
	if err != nil {
		return config.Config{}, path, fmt.Errorf("load config from %s: %w", path, err)
	}
	return cfg, path, nil
}

func setupLogging(cmd *cobra.Command, cfg config.Config, file string) error {
	level := cfg.LogLevel
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = "debug"
	}
	if err := config.InitLogger(level, file); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	return nil
}

// newWatcher wires the services with the configured image cache. The returned
// func closes the cache.
func newWatcher(ctx context.Context, cfg config.Config) (*watcher.Watcher, func(), error) {
	var backend cache.Backend
	if cfg.CachePath != "" {
		sc, err := cache.NewSQLiteCache(cfg.CachePath)
		if err != nil {
			return nil, nil, err
		}
		if err := sc.Init(ctx); err != nil {
			_ = sc.Close()
			return nil, nil, err
		}
		if n, err := sc.Prune(ctx); err != nil {
			config.Logger.Warn().Err(err).Msg("prune image cache")
		} else if n > 0 {
			config.Logger.Debug().Int64("rows", n).Msg("pruned expired images")
		}
		backend = sc
	} else {
		backend = cache.NewMemoryCache(256, time.Minute)
	}

	w := watcher.NewWatcher(cfg, backend)
	return w, func() { _ = backend.Close() }, nil
}
