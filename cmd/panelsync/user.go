package main

import (
	"context"
	"fmt"

	"github.com/fgeck/panelsync/internal/models"
	"github.com/fgeck/panelsync/internal/services/reconcile"
	"github.com/spf13/cobra"
)

var (
	userFlags   models.User
	userUpdFlag models.UserUpdate
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc reconcile.Service) error {
			list := svc.ListUsers(ctx)
			if list.Error != "" {
				return fmt.Errorf("listing users: %s", list.Error)
			}
			printList(list.Users)
			return nil
		})
	},
}

var userGetCmd = &cobra.Command{
	Use:   "get USERNAME",
	Short: "Show one user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc reconcile.Service) error {
			details, err := svc.GetUserDetails(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(details)
		})
	},
}

var userCreateCmd = &cobra.Command{
	Use:   "create USERNAME",
	Short: "Create a user account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc reconcile.Service) error {
			u := userFlags
			u.Username = args[0]
			return printOutcome(svc.CreateUser(ctx, u))
		})
	},
}

var userUpdateCmd = &cobra.Command{
	Use:   "update USERNAME",
	Short: "Change a user's package or email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if userUpdFlag.Package == "" && userUpdFlag.Email == "" {
			return fmt.Errorf("nothing to update: set --package or --email")
		}
		return withService(cmd, func(ctx context.Context, svc reconcile.Service) error {
			return printOutcome(svc.UpdateUser(ctx, args[0], userUpdFlag))
		})
	},
}

func userAction(use, short string, fn func(svc reconcile.Service, ctx context.Context, username string) models.Outcome) *cobra.Command {
	return &cobra.Command{
		Use:   use + " USERNAME",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc reconcile.Service) error {
				return printOutcome(fn(svc, ctx, args[0]))
			})
		},
	}
}

func init() {
	addServerFlag(userCmd)

	f := userCreateCmd.Flags()
	f.StringVar(&userFlags.Email, "email", "", "contact email")
	f.StringVar(&userFlags.Password, "password", "", "account password")
	f.StringVar(&userFlags.Domain, "domain", "", "primary domain")
	f.StringVar(&userFlags.Package, "package", "", "hosting package")
	f.StringVar(&userFlags.IP, "ip", "", "IP address (default shared)")
	f.BoolVar(&userFlags.Notify, "notify", false, "email the account details to the user")
	_ = userCreateCmd.MarkFlagRequired("password")
	_ = userCreateCmd.MarkFlagRequired("domain")

	userUpdateCmd.Flags().StringVar(&userUpdFlag.Package, "package", "", "new package")
	userUpdateCmd.Flags().StringVar(&userUpdFlag.Email, "email", "", "new contact email")

	userCmd.AddCommand(
		userListCmd,
		userGetCmd,
		userCreateCmd,
		userUpdateCmd,
		userAction("suspend", "Suspend a user", reconcile.Service.SuspendUser),
		userAction("unsuspend", "Lift a suspension", reconcile.Service.UnsuspendUser),
		userAction("delete", "Delete a user", reconcile.Service.DeleteUser),
	)
}
