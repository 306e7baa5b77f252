package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/fgeck/panelsync/internal/models"
	"github.com/fgeck/panelsync/internal/services/servers"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Inspect and manage stored panel records",
}

var serverListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known panels",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, closeStore, err := servers.Open(cmdContext(cmd), log.Logger, *cfg)
		if err != nil {
			return err
		}
		defer func() { _ = closeStore() }()

		creds, err := store.List(cmdContext(cmd))
		if err != nil {
			return err
		}
		cyan := color.New(color.FgCyan)
		for _, c := range creds {
			cyan.Printf("%s", c.ID)
			fmt.Printf("  %s\n", c.String())
		}
		return nil
	},
}

var serverImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy the servers from the config file into PostgreSQL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPostgres(cmd, func(ctx context.Context, store *servers.PostgresStore, cfg *models.AppConfig) error {
			green := color.New(color.FgGreen)
			for _, c := range cfg.Servers {
				if err := store.Save(ctx, c); err != nil {
					return err
				}
				green.Printf("✓ %s\n", c.ID)
			}
			return nil
		})
	},
}

var serverRemoveCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Delete a server record from PostgreSQL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPostgres(cmd, func(ctx context.Context, store *servers.PostgresStore, _ *models.AppConfig) error {
			if err := store.Delete(ctx, args[0]); err != nil {
				return err
			}
			color.New(color.FgGreen).Printf("✓ removed %s\n", args[0])
			return nil
		})
	},
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func withPostgres(cmd *cobra.Command, fn func(ctx context.Context, store *servers.PostgresStore, cfg *models.AppConfig) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Store.PostgresDSN == "" {
		return fmt.Errorf("store.postgres_dsn is not configured")
	}

	ctx := cmdContext(cmd)
	store, err := servers.NewPostgresStore(ctx, log.Logger, cfg.Store.PostgresDSN)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	return fn(ctx, store, cfg)
}

func init() {
	serverCmd.AddCommand(serverListCmd, serverImportCmd, serverRemoveCmd)
}
