package main

import (
	"context"

	"github.com/fgeck/panelsync/internal/models"
	"github.com/fgeck/panelsync/internal/services/reconcile"
	"github.com/spf13/cobra"
)

var (
	emailDomain string
	emailFlags  models.EmailAccount
)

var emailCmd = &cobra.Command{
	Use:   "email",
	Short: "Manage email accounts of a domain",
}

var emailListCmd = &cobra.Command{
	Use:   "list",
	Short: "List mailboxes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc reconcile.Service) error {
			printList(svc.ListEmailAccounts(ctx, emailDomain))
			return nil
		})
	},
}

var emailCreateCmd = &cobra.Command{
	Use:   "create USER",
	Short: "Create a mailbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc reconcile.Service) error {
			acct := emailFlags
			acct.Domain = emailDomain
			acct.User = args[0]
			return printOutcome(svc.CreateEmailAccount(ctx, acct))
		})
	},
}

var emailPasswdCmd = &cobra.Command{
	Use:   "passwd USER",
	Short: "Change a mailbox password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc reconcile.Service) error {
			return printOutcome(svc.UpdateEmailPassword(ctx, emailDomain, args[0], emailFlags.Password))
		})
	},
}

var emailDeleteCmd = &cobra.Command{
	Use:   "delete USER",
	Short: "Delete a mailbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc reconcile.Service) error {
			return printOutcome(svc.DeleteEmailAccount(ctx, emailDomain, args[0]))
		})
	},
}

func init() {
	addServerFlag(emailCmd)
	emailCmd.PersistentFlags().StringVarP(&emailDomain, "domain", "d", "", "domain the mailboxes belong to (required)")
	_ = emailCmd.MarkPersistentFlagRequired("domain")

	emailCreateCmd.Flags().StringVar(&emailFlags.Password, "password", "", "mailbox password")
	emailCreateCmd.Flags().IntVar(&emailFlags.QuotaMB, "quota", 0, "quota in MB (0 = unlimited)")
	emailCreateCmd.Flags().IntVar(&emailFlags.SendLimit, "limit", 0, "daily send limit (0 = panel default)")
	_ = emailCreateCmd.MarkFlagRequired("password")

	emailPasswdCmd.Flags().StringVar(&emailFlags.Password, "password", "", "new password")
	_ = emailPasswdCmd.MarkFlagRequired("password")

	emailCmd.AddCommand(emailListCmd, emailCreateCmd, emailPasswdCmd, emailDeleteCmd)
}
