package main

import (
	"context"
	"sort"

	"github.com/fgeck/panelsync/internal/models"
	"github.com/fgeck/panelsync/internal/services/reconcile"
	"github.com/spf13/cobra"
)

var pkgFlags models.Package

var packageCmd = &cobra.Command{
	Use:     "package",
	Aliases: []string{"pkg"},
	Short:   "Manage hosting packages",
}

var packageListCmd = &cobra.Command{
	Use:   "list",
	Short: "List packages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc reconcile.Service) error {
			pkgs, err := svc.ListPackages(ctx)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(pkgs))
			for name := range pkgs {
				names = append(names, name)
			}
			sort.Strings(names)
			printList(names)
			return nil
		})
	},
}

var packageGetCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Show one package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc reconcile.Service) error {
			details, err := svc.GetPackageDetails(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(details)
		})
	},
}

var packageCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc reconcile.Service) error {
			pkg := pkgFlags
			pkg.Name = args[0]
			return printOutcome(svc.CreatePackage(ctx, pkg))
		})
	},
}

var packageUpdateCmd = &cobra.Command{
	Use:   "update NAME",
	Short: "Update a package and verify the saved limits",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc reconcile.Service) error {
			return printOutcome(svc.UpdatePackage(ctx, args[0], pkgFlags))
		})
	},
}

var packageRenameCmd = &cobra.Command{
	Use:   "rename OLD NEW",
	Short: "Rename a package",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc reconcile.Service) error {
			return printOutcome(svc.RenamePackage(ctx, args[0], args[1], pkgFlags))
		})
	},
}

var packageDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a package and confirm it is gone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc reconcile.Service) error {
			return printOutcome(svc.DeletePackage(ctx, args[0]))
		})
	},
}

func addPackageFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&pkgFlags.Bandwidth, "bandwidth", "", "bandwidth in MB (empty = unlimited)")
	f.StringVar(&pkgFlags.Quota, "quota", "", "disk quota in MB (empty = unlimited)")
	f.StringVar(&pkgFlags.Inodes, "inodes", "", "inode limit")
	f.StringVar(&pkgFlags.Domains, "domains", "", "domain limit")
	f.StringVar(&pkgFlags.Subdomains, "subdomains", "", "subdomain limit")
	f.StringVar(&pkgFlags.EmailAccounts, "emails", "", "email account limit")
	f.StringVar(&pkgFlags.EmailForwarders, "forwarders", "", "email forwarder limit")
	f.StringVar(&pkgFlags.MailingLists, "mailing-lists", "", "mailing list limit")
	f.StringVar(&pkgFlags.Autoresponders, "autoresponders", "", "autoresponder limit")
	f.StringVar(&pkgFlags.Databases, "databases", "", "MySQL database limit")
	f.StringVar(&pkgFlags.DomainPointers, "domain-pointers", "", "domain pointer limit")
	f.StringVar(&pkgFlags.FTPAccounts, "ftp", "", "FTP account limit")
	f.BoolVar(&pkgFlags.AnonymousFTP, "anonymous-ftp", false, "allow anonymous FTP")
	f.BoolVar(&pkgFlags.CGI, "cgi", true, "allow CGI")
	f.BoolVar(&pkgFlags.PHP, "php", true, "allow PHP")
	f.BoolVar(&pkgFlags.SpamAssassin, "spam", true, "enable SpamAssassin")
	f.BoolVar(&pkgFlags.CatchAll, "catchall", false, "allow catch-all email")
	f.BoolVar(&pkgFlags.SSL, "ssl", true, "allow SSL")
	f.BoolVar(&pkgFlags.SSH, "ssh", false, "allow SSH")
	f.BoolVar(&pkgFlags.Cron, "cron", true, "allow cron jobs")
	f.BoolVar(&pkgFlags.SysInfo, "sysinfo", true, "allow system info")
	f.BoolVar(&pkgFlags.DNSControl, "dns-control", true, "allow DNS control")
	f.BoolVar(&pkgFlags.SuspendAtLimit, "suspend-at-limit", true, "suspend at bandwidth limit")
	f.StringVar(&pkgFlags.Skin, "skin", "", "panel skin (default evolution)")
	f.StringVar(&pkgFlags.Language, "language", "", "panel language (default en)")
}

func init() {
	addServerFlag(packageCmd)
	for _, cmd := range []*cobra.Command{packageCreateCmd, packageUpdateCmd, packageRenameCmd} {
		addPackageFlags(cmd)
	}
	packageCmd.AddCommand(packageListCmd, packageGetCmd, packageCreateCmd, packageUpdateCmd, packageRenameCmd, packageDeleteCmd)
}
