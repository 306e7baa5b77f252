package directadmin

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/fgeck/panelsync/internal/models"
	"github.com/rs/zerolog"
)

// Panel commands.
const (
	cmdPackagesUser       = "CMD_API_PACKAGES_USER"
	cmdManageUserPackages = "CMD_API_MANAGE_USER_PACKAGES"
	cmdShowUsers          = "CMD_API_SHOW_USERS"
	cmdShowUserConfig     = "CMD_API_SHOW_USER_CONFIG"
	cmdAccountUser        = "CMD_API_ACCOUNT_USER"
	cmdModifyUser         = "CMD_API_MODIFY_USER"
	cmdSelectUsers        = "CMD_API_SELECT_USERS"
	cmdPop                = "CMD_API_POP"
)

// Entity kinds used in errors.
const (
	KindPackage = "package"
	KindUser    = "user"
	KindEmail   = "email account"
)

// Client exposes one method per panel capability.
type Client struct {
	caller Caller
	logger zerolog.Logger
}

// New creates a client bound to one panel.
func New(logger zerolog.Logger, cred models.ServerCredential, settings models.DirectAdminSettings) *Client {
	return &Client{
		caller: NewTransport(logger, cred, settings),
		logger: logger,
	}
}

// NewWithCaller creates a client with a custom caller (for testing).
func NewWithCaller(logger zerolog.Logger, caller Caller) *Client {
	return &Client{
		caller: caller,
		logger: logger,
	}
}

func (c *Client) get(ctx context.Context, command string, params Params) (Response, error) {
	res, err := c.caller.Call(ctx, command, params, http.MethodGet)
	if err != nil {
		return nil, err
	}
	return res.Response, nil
}

func (c *Client) post(ctx context.Context, command string, params Params) (*Result, error) {
	return c.caller.Call(ctx, command, params, http.MethodPost)
}

// list fetches a list endpoint and normalizes its shape.
func (c *Client) list(ctx context.Context, command string, params Params) ([]string, error) {
	resp, err := c.get(ctx, command, params)
	if err != nil {
		return nil, err
	}
	return ListNames(resp), nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// details fetches a detail endpoint. When the panel returns HTML, an
// unparseable body, an empty body or an error, the list endpoint decides: a listed entity yields a stub
// with partial=true, an unlisted one yields NotFoundError.
func (c *Client) details(
	ctx context.Context,
	kind, name string,
	fetch func() (Response, error),
	exists func() (bool, error),
) (map[string]string, bool, error) {
	resp, err := fetch()
	if err == nil && resp.hasPayload() {
		return resp.Flat(), false, nil
	}

	var htmlErr *UnexpectedHTMLError
	var bodyErr *UnexpectedBodyError
	var remoteErr *RemoteError
	if err != nil && !errors.As(err, &htmlErr) && !errors.As(err, &bodyErr) && !errors.As(err, &remoteErr) {
		return nil, false, err
	}

	listed, listErr := exists()
	if listErr != nil {
		if err != nil {
			return nil, false, err
		}
		return nil, false, listErr
	}
	if !listed {
		return nil, false, &NotFoundError{Kind: kind, Name: name}
	}
	if remoteErr != nil {
		return nil, false, err
	}

	c.logger.Debug().
		Str("kind", kind).
		Str("name", name).
		Msg("panel returned no detail payload for a listed entity")
	return nil, true, nil
}

// ListPackages returns the names of the reseller's packages.
func (c *Client) ListPackages(ctx context.Context) ([]string, error) {
	return c.list(ctx, cmdPackagesUser, nil)
}

// PackageExists checks the package list for name.
func (c *Client) PackageExists(ctx context.Context, name string) (bool, error) {
	names, err := c.ListPackages(ctx)
	if err != nil {
		return false, err
	}
	return contains(names, name), nil
}

// GetPackage returns the limits of one package.
func (c *Client) GetPackage(ctx context.Context, name string) (*models.PackageDetails, error) {
	fields, partial, err := c.details(ctx, KindPackage, name,
		func() (Response, error) {
			return c.get(ctx, cmdPackagesUser, Params{"package": name})
		},
		func() (bool, error) { return c.PackageExists(ctx, name) },
	)
	if err != nil {
		return nil, err
	}
	return &models.PackageDetails{
		Name:    name,
		Package: name,
		Exists:  true,
		Partial: partial,
		Fields:  fields,
	}, nil
}

func packageParams(pkg models.Package) Params {
	return Params{
		"packagename":      pkg.Name,
		"bandwidth":        limit(pkg.Bandwidth),
		"quota":            limit(pkg.Quota),
		"inode":            limit(pkg.Inodes),
		"vdomains":         limit(pkg.Domains),
		"nsubdomains":      limit(pkg.Subdomains),
		"nemails":          limit(pkg.EmailAccounts),
		"nemailf":          limit(pkg.EmailForwarders),
		"nemailml":         limit(pkg.MailingLists),
		"nemailr":          limit(pkg.Autoresponders),
		"mysql":            limit(pkg.Databases),
		"domainptr":        limit(pkg.DomainPointers),
		"ftp":              limit(pkg.FTPAccounts),
		"aftp":             boolFlag(pkg.AnonymousFTP),
		"cgi":              boolFlag(pkg.CGI),
		"php":              boolFlag(pkg.PHP),
		"spam":             boolFlag(pkg.SpamAssassin),
		"catchall":         boolFlag(pkg.CatchAll),
		"ssl":              boolFlag(pkg.SSL),
		"ssh":              boolFlag(pkg.SSH),
		"cron":             boolFlag(pkg.Cron),
		"sysinfo":          boolFlag(pkg.SysInfo),
		"dnscontrol":       boolFlag(pkg.DNSControl),
		"suspend_at_limit": boolFlag(pkg.SuspendAtLimit),
		"skin":             orDefault(pkg.Skin, "evolution"),
		"language":         orDefault(pkg.Language, "en"),
		"add":              "Save",
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// CreatePackage saves a new package.
func (c *Client) CreatePackage(ctx context.Context, pkg models.Package) error {
	_, err := c.post(ctx, cmdManageUserPackages, packageParams(pkg))
	return err
}

// UpdatePackage overwrites an existing package. The panel saves under the
// same form as create; the name selects the package.
func (c *Client) UpdatePackage(ctx context.Context, pkg models.Package) error {
	_, err := c.post(ctx, cmdManageUserPackages, packageParams(pkg))
	return err
}

// RenamePackage saves pkg under pkg.Name and retires oldName. Without
// old_packagename and rename=yes the panel performs a plain save instead.
func (c *Client) RenamePackage(ctx context.Context, oldName string, pkg models.Package) error {
	params := packageParams(pkg)
	params["old_packagename"] = oldName
	params["rename"] = "yes"
	_, err := c.post(ctx, cmdManageUserPackages, params)
	return err
}

// DeletePackage removes a package.
func (c *Client) DeletePackage(ctx context.Context, name string) error {
	_, err := c.post(ctx, cmdManageUserPackages, Params{
		"delete":  "yes",
		"delete0": name,
	})
	return err
}

// ListUsers returns the usernames owned by the reseller.
func (c *Client) ListUsers(ctx context.Context) ([]string, error) {
	return c.list(ctx, cmdShowUsers, nil)
}

// UserExists checks the user list for username.
func (c *Client) UserExists(ctx context.Context, username string) (bool, error) {
	names, err := c.ListUsers(ctx)
	if err != nil {
		return false, err
	}
	return contains(names, username), nil
}

// GetUser returns the configuration of one user.
func (c *Client) GetUser(ctx context.Context, username string) (*models.UserDetails, error) {
	fields, partial, err := c.details(ctx, KindUser, username,
		func() (Response, error) {
			return c.get(ctx, cmdShowUserConfig, Params{"user": username})
		},
		func() (bool, error) { return c.UserExists(ctx, username) },
	)
	if err != nil {
		return nil, err
	}
	return &models.UserDetails{
		Username: username,
		Exists:   true,
		Partial:  partial,
		Fields:   fields,
	}, nil
}

// CreateUser creates a hosting account. The result may report a connection
// reset instead of an error.
func (c *Client) CreateUser(ctx context.Context, u models.User) (*Result, error) {
	notify := "no"
	if u.Notify {
		notify = "yes"
	}
	params := Params{
		"action":   "create",
		"add":      "Submit",
		"username": u.Username,
		"email":    u.Email,
		"passwd":   u.Password,
		"passwd2":  u.Password,
		"domain":   u.Domain,
		"package":  u.Package,
		"notify":   notify,
	}
	if u.IP != "" {
		params["ip"] = u.IP
	}
	return c.post(ctx, cmdAccountUser, params)
}

// UpdateUser applies the non-empty fields of upd. A connection reset on any
// step is returned as the result so the caller can verify.
func (c *Client) UpdateUser(ctx context.Context, username string, upd models.UserUpdate) (*Result, error) {
	var last *Result
	if upd.Package != "" {
		res, err := c.post(ctx, cmdModifyUser, Params{
			"action":  "package",
			"user":    username,
			"package": upd.Package,
		})
		if err != nil {
			return nil, err
		}
		if res.ConnectionReset {
			return res, nil
		}
		last = res
	}
	if upd.Email != "" {
		res, err := c.post(ctx, cmdModifyUser, Params{
			"action": "single",
			"user":   username,
			"email":  upd.Email,
		})
		if err != nil {
			return nil, err
		}
		last = res
	}
	if last == nil {
		last = &Result{Response: Response{}, Command: cmdModifyUser}
	}
	return last, nil
}

func (c *Client) selectUser(ctx context.Context, username string, params Params) error {
	params["location"] = "CMD_SELECT_USERS"
	params["select0"] = username
	_, err := c.post(ctx, cmdSelectUsers, params)
	return err
}

// SuspendUser suspends a user account.
func (c *Client) SuspendUser(ctx context.Context, username string) error {
	return c.selectUser(ctx, username, Params{"suspend": "Suspend", "dosuspend": "yes"})
}

// UnsuspendUser lifts a suspension.
func (c *Client) UnsuspendUser(ctx context.Context, username string) error {
	return c.selectUser(ctx, username, Params{"suspend": "Unsuspend", "dounsuspend": "yes"})
}

// DeleteUser removes a user account and its data.
func (c *Client) DeleteUser(ctx context.Context, username string) error {
	return c.selectUser(ctx, username, Params{"delete": "yes", "confirmed": "Confirm"})
}

// ListEmailAccounts returns the mailbox local-parts of a domain.
func (c *Client) ListEmailAccounts(ctx context.Context, domain string) ([]string, error) {
	return c.list(ctx, cmdPop, Params{"action": "list", "domain": domain})
}

// CreateEmailAccount creates a mailbox.
func (c *Client) CreateEmailAccount(ctx context.Context, acct models.EmailAccount) error {
	params := Params{
		"action":  "create",
		"domain":  acct.Domain,
		"user":    acct.User,
		"passwd":  acct.Password,
		"passwd2": acct.Password,
		"quota":   strconv.Itoa(acct.QuotaMB),
	}
	if acct.SendLimit > 0 {
		params["limit"] = strconv.Itoa(acct.SendLimit)
	}
	_, err := c.post(ctx, cmdPop, params)
	return err
}

// UpdateEmailPassword changes a mailbox password.
func (c *Client) UpdateEmailPassword(ctx context.Context, domain, user, password string) error {
	_, err := c.post(ctx, cmdPop, Params{
		"action":  "modify",
		"domain":  domain,
		"user":    user,
		"passwd":  password,
		"passwd2": password,
	})
	return err
}

// DeleteEmailAccount removes a mailbox.
func (c *Client) DeleteEmailAccount(ctx context.Context, domain, user string) error {
	_, err := c.post(ctx, cmdPop, Params{
		"action": "delete",
		"domain": domain,
		"user":   user,
	})
	return err
}
