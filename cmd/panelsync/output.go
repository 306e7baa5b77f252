package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/fgeck/panelsync/internal/models"
	"github.com/fgeck/panelsync/internal/services/reconcile"
	"github.com/fgeck/panelsync/internal/services/servers"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// addServerFlag registers --server on a command group.
func addServerFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&serverID, "server", "s", "", "server id to operate on (required)")
	_ = cmd.MarkPersistentFlagRequired("server")
}

// withService loads config, resolves --server and calls fn with a service
// bound to that panel.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc reconcile.Service) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmdContext(cmd)

	store, closeStore, err := servers.Open(ctx, log.Logger, *cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	cred, err := store.Get(ctx, serverID)
	if err != nil {
		return err
	}

	svc := reconcile.New(log.Logger, *cred, cfg.DirectAdmin, cfg.Retry)
	return fn(ctx, svc)
}

// printOutcome renders an outcome and returns an error for failures so the
// exit code reflects them.
func printOutcome(out models.Outcome) error {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	switch out.Status {
	case models.OutcomeSuccess:
		green.Printf("✓ %s: %s", out.Entity, out.State)
	case models.OutcomeSuccessUnverified:
		yellow.Printf("! %s: %s (unverified)", out.Entity, out.State)
	case models.OutcomeAmbiguousReset:
		yellow.Printf("? %s: connection reset, state unknown", out.Entity)
	default:
		red.Printf("✗ %s: %s", out.Entity, out.State)
	}
	if out.Attempts > 1 {
		fmt.Printf(" after %d attempts", out.Attempts)
	}
	fmt.Println()

	if out.Message != "" {
		fmt.Printf("  %s\n", out.Message)
	}
	for _, m := range out.Mismatches {
		yellow.Printf("  %s: requested %q, panel reports %q\n", m.Field, m.Requested, m.Actual)
	}

	if out.Status == models.OutcomeFailure {
		return fmt.Errorf("%s failed: %s", out.Entity, out.Message)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printList(names []string) {
	if len(names) == 0 {
		color.New(color.FgYellow).Println("(none)")
		return
	}
	for _, n := range names {
		fmt.Println(n)
	}
}
