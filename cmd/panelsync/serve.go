package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fgeck/panelsync/internal/services/runner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API. Routes live under /api/servers/{serverID}:
  packages, users and domains/{domain}/email.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("received signal, shutting down")
		cancel()
	}()

	if err := runner.New(log.Logger).Run(ctx, *cfg); err != nil {
		log.Error().Err(err).Msg("server failed")
		return err
	}
	return nil
}
