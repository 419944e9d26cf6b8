package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	logs "github.com/danmuck/smplog"
	"github.com/danmuck/stressbot/internal/logging"
	"github.com/danmuck/stressbot/internal/observability"
	"github.com/danmuck/stressbot/internal/swarm"
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "stressbot: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath  string
		metricsAddr string
		seed        int64
	)

	cmd := &cobra.Command{
		Use:   "stressbot server_address server_port email_prefix [num_clients]",
		Short: "Load-test a game server with scripted walking clients",
		Long: `stressbot logs clients into a game server, follows each client's
player through map chunk, compressed message and player update traffic,
and walks it until it dies or the connection drops.

Example:
  stressbot onehouronelife.com 8005 dummy 100`,
		Args:          cobra.MaximumNArgs(4),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.ConfigureRuntime()

			cfg := defaultRunConfig()
			if configPath != "" {
				loaded, err := loadRunConfig(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if err := cfg.applyArgs(args); err != nil {
				return err
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.MetricsAddr = metricsAddr
			}
			if cmd.Flags().Changed("seed") {
				cfg.Swarm.Seed = seed
			}
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().Int64Var(&seed, "seed", 1, "seed for launch ramp jitter")
	cmd.AddCommand(versionCmd())
	return cmd
}

func run(parent context.Context, cfg runConfig) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		metricsCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := observability.Serve(metricsCtx, cfg.MetricsAddr); err != nil {
				logs.Errorf(err, "metrics listener failed addr=%s", cfg.MetricsAddr)
			}
		}()
	}

	sc := cfg.Swarm
	sc.Address = cfg.address()
	_, err := swarm.Run(ctx, sc)
	return err
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stressbot %s (%s)\n", version, commit)
		},
	}
}
