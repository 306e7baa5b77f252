package main

import (
	"fmt"
	"os"

	"github.com/fgeck/panelsync/internal/config"
	"github.com/fgeck/panelsync/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file without contacting any panel.`,
	RunE:  validateConfig,
}

// loadConfig reads and validates --config.
func loadConfig(cmd *cobra.Command) (*models.AppConfig, error) {
	if configFile == "" {
		log.Error().Msg("config file is required")
		_ = cmd.Help()
		return nil, fmt.Errorf("config file is required")
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		log.Error().Str("file", configFile).Msg("config file not found")
		return nil, fmt.Errorf("config file not found: %s", configFile)
	}

	cfg, err := config.NewParser().LoadFile(configFile)
	if err != nil {
		log.Error().Err(err).Str("file", configFile).Msg("failed to parse config")
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Println("Configuration is valid!")
	fmt.Println()
	fmt.Println("Summary:")
	fmt.Printf("  Listen address: %s\n", cfg.ListenAddr)
	fmt.Printf("  Request timeout: %s\n", cfg.DirectAdmin.Timeout)
	fmt.Printf("  Reset wait: %s\n", cfg.DirectAdmin.ResetWait)
	fmt.Printf("  Skip TLS verify: %v\n", cfg.DirectAdmin.InsecureSkipVerify)
	fmt.Printf("  Telemetry: %v\n", cfg.Telemetry.Enabled)
	fmt.Printf("  Telegram alerts: %v\n", cfg.Telegram != nil)
	fmt.Println()
	fmt.Println("Retry Policy:")
	printSchedule("update", cfg.Retry.Update)
	printSchedule("delete", cfg.Retry.Delete)
	printSchedule("email", cfg.Retry.Email)
	fmt.Println()

	if cfg.Store.PostgresDSN != "" {
		fmt.Println("Server store: PostgreSQL (configured)")
	} else {
		fmt.Println("Server store: config file")
	}

	if len(cfg.Servers) > 0 {
		fmt.Println()
		fmt.Println("Servers:")
		for _, s := range cfg.Servers {
			fmt.Printf("  %s: %s\n", s.ID, s.String())
		}
	}

	if cfg.Telegram != nil {
		fmt.Println()
		fmt.Println("Telegram Configuration:")
		fmt.Printf("  Chat ID: %s\n", cfg.Telegram.ChatID)
		fmt.Printf("  Bot Token: (configured)\n")
	}

	return nil
}

func printSchedule(name string, s models.RetrySchedule) {
	if s.Attempts == 0 {
		fmt.Printf("  %s: default\n", name)
		return
	}
	fmt.Printf("  %s: %d attempts, delays %v\n", name, s.Attempts, s.Delays)
}
