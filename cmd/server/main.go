package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rhuss/basicgate/pkg/config"
	"github.com/rhuss/basicgate/pkg/debug"
	"github.com/rhuss/basicgate/pkg/gateway"
	transporthttp "github.com/rhuss/basicgate/pkg/transport/http"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "basicgate",
		Short: "Serve the basicgate user API behind HTTP Basic authentication",
		Long: `Serve the basicgate user API.

Configuration is read from --config, $BASICGATE_CONFIG, ./config.yaml or
/etc/basicgate/config.yaml, in that order, and BASICGATE_* environment
variables override file values.

Examples:
  # Serve with an in-memory store seeded from a file
  BASICGATE_USERS_FILE=users.yaml basicgate

  # Serve with a custom config file
  basicgate --config /etc/basicgate/config.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	return cmd
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	debug.Init(cfg.Log.Debug, cfg.Log.Level)
	logger := slog.Default()

	repo, closeStore, err := gateway.OpenStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	authn, err := gateway.BuildAuth(cfg.Auth, repo)
	if err != nil {
		return fmt.Errorf("configuring authentication: %w", err)
	}

	slog.Info("configuration loaded",
		"storage", repo.Backend(),
		"auth", cfg.Auth.Type,
		"failure_limit", cfg.Auth.FailureLimit,
		"metrics", cfg.Observability.Metrics.Enabled,
		"debug", debug.Categories(),
	)

	srv := transporthttp.NewServer(
		gateway.NewHandler(cfg, repo, authn, logger),
		transporthttp.WithAddr(":"+strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithLogger(logger),
	)

	return srv.ListenAndServe()
}
