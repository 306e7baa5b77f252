// Package reconcile makes the panel's unreliable primitives look atomic to
// callers. Every mutation is followed by a verification read where the panel
// is known to misreport, and the result is an explicit models.Outcome.
//
// There is no per-entity-name locking: two callers mutating the same package
// or user at once race on the panel, which alone decides the order.
package reconcile

import (
	"context"
	"time"

	"github.com/fgeck/panelsync/internal/models"
	"github.com/fgeck/panelsync/internal/services/directadmin"
	"github.com/fgeck/panelsync/internal/services/retry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service is the boundary consumers call.
type Service interface {
	ListPackages(ctx context.Context) (map[string]models.PackageDetails, error)
	GetPackageDetails(ctx context.Context, name string) (*models.PackageDetails, error)
	CreatePackage(ctx context.Context, pkg models.Package) models.Outcome
	UpdatePackage(ctx context.Context, name string, pkg models.Package) models.Outcome
	RenamePackage(ctx context.Context, oldName, newName string, pkg models.Package) models.Outcome
	DeletePackage(ctx context.Context, name string) models.Outcome

	ListUsers(ctx context.Context) models.UserList
	GetUserDetails(ctx context.Context, username string) (*models.UserDetails, error)
	CreateUser(ctx context.Context, u models.User) models.Outcome
	UpdateUser(ctx context.Context, username string, upd models.UserUpdate) models.Outcome
	SuspendUser(ctx context.Context, username string) models.Outcome
	UnsuspendUser(ctx context.Context, username string) models.Outcome
	DeleteUser(ctx context.Context, username string) models.Outcome

	CreateEmailAccount(ctx context.Context, acct models.EmailAccount) models.Outcome
	ListEmailAccounts(ctx context.Context, domain string) []string
	UpdateEmailPassword(ctx context.Context, domain, user, password string) models.Outcome
	DeleteEmailAccount(ctx context.Context, domain, user string) models.Outcome
}

// PanelClient is the subset of directadmin.Client the service drives.
type PanelClient interface {
	ListPackages(ctx context.Context) ([]string, error)
	PackageExists(ctx context.Context, name string) (bool, error)
	GetPackage(ctx context.Context, name string) (*models.PackageDetails, error)
	CreatePackage(ctx context.Context, pkg models.Package) error
	UpdatePackage(ctx context.Context, pkg models.Package) error
	RenamePackage(ctx context.Context, oldName string, pkg models.Package) error
	DeletePackage(ctx context.Context, name string) error

	ListUsers(ctx context.Context) ([]string, error)
	UserExists(ctx context.Context, username string) (bool, error)
	GetUser(ctx context.Context, username string) (*models.UserDetails, error)
	CreateUser(ctx context.Context, u models.User) (*directadmin.Result, error)
	UpdateUser(ctx context.Context, username string, upd models.UserUpdate) (*directadmin.Result, error)
	SuspendUser(ctx context.Context, username string) error
	UnsuspendUser(ctx context.Context, username string) error
	DeleteUser(ctx context.Context, username string) error

	ListEmailAccounts(ctx context.Context, domain string) ([]string, error)
	CreateEmailAccount(ctx context.Context, acct models.EmailAccount) error
	UpdateEmailPassword(ctx context.Context, domain, user, password string) error
	DeleteEmailAccount(ctx context.Context, domain, user string) error
}

var _ PanelClient = (*directadmin.Client)(nil)

// Default timings.
const (
	DefaultResetWait = 3 * time.Second
)

// Policies holds the retry policy per operation category.
type Policies struct {
	Update retry.Policy
	Delete retry.Policy
	Email  retry.Policy
}

// DefaultPolicies returns the schedules the panel has been observed to need.
// Absence, duplicates and cancellation are never retried.
func DefaultPolicies() Policies {
	return Policies{
		Update: retry.Schedule(3, 1*time.Second, 3*time.Second, 5*time.Second).WithRetryable(directadmin.IsRetryable),
		Delete: retry.Schedule(3, 1*time.Second, 3*time.Second, 5*time.Second).WithRetryable(directadmin.IsRetryable),
		Email:  retry.Linear(3, 1*time.Second).WithRetryable(directadmin.IsRetryable),
	}
}

// PoliciesFromSettings builds policies from configuration, falling back to
// the defaults for unset categories.
func PoliciesFromSettings(s models.RetrySettings) Policies {
	p := DefaultPolicies()
	if s.Update.Attempts > 0 {
		p.Update = retry.Schedule(s.Update.Attempts, s.Update.Delays...)
	}
	if s.Delete.Attempts > 0 {
		p.Delete = retry.Schedule(s.Delete.Attempts, s.Delete.Delays...)
	}
	if s.Email.Attempts > 0 {
		p.Email = retry.Schedule(s.Email.Attempts, s.Email.Delays...)
	}
	p.Update.Retryable = directadmin.IsRetryable
	p.Delete.Retryable = directadmin.IsRetryable
	p.Email.Retryable = directadmin.IsRetryable
	return p
}

// Options tunes a service built around a custom client.
type Options struct {
	Policies  Policies
	ResetWait time.Duration
	// Sleep replaces the wait after a connection reset (for testing).
	Sleep func(ctx context.Context, d time.Duration) error
}

// Impl implements Service.
type Impl struct {
	client    PanelClient
	logger    zerolog.Logger
	policies  Policies
	resetWait time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

// New creates a service bound to one panel.
func New(logger zerolog.Logger, cred models.ServerCredential, settings models.DirectAdminSettings, retries models.RetrySettings) *Impl {
	resetWait := settings.ResetWait
	if resetWait <= 0 {
		resetWait = DefaultResetWait
	}
	return NewWithClient(logger, directadmin.New(logger, cred, settings), Options{
		Policies:  PoliciesFromSettings(retries),
		ResetWait: resetWait,
	})
}

// NewWithClient creates a service with a custom panel client (for testing).
func NewWithClient(logger zerolog.Logger, client PanelClient, opts Options) *Impl {
	sleep := opts.Sleep
	if sleep == nil {
		sleep = retry.Sleep
	}
	return &Impl{
		client:    client,
		logger:    logger,
		policies:  opts.Policies,
		resetWait: opts.ResetWait,
		sleep:     sleep,
	}
}

// Factory builds a Service for one panel. A new service is built per request.
type Factory func(cred models.ServerCredential) Service

// NewFactory returns a Factory sharing the given settings.
func NewFactory(logger zerolog.Logger, settings models.DirectAdminSettings, retries models.RetrySettings) Factory {
	return func(cred models.ServerCredential) Service {
		return New(logger, cred, settings, retries)
	}
}

// operationLogger tags every line of one reconciliation with an id.
func (s *Impl) operationLogger(op, entity string) zerolog.Logger {
	return s.logger.With().
		Str("operation", op).
		Str("operation_id", uuid.NewString()).
		Str("entity", entity).
		Logger()
}

func logOutcome(logger zerolog.Logger, out models.Outcome) models.Outcome {
	var ev *zerolog.Event
	switch out.Status {
	case models.OutcomeSuccess:
		ev = logger.Info()
	case models.OutcomeFailure:
		ev = logger.Error().Err(out.Err)
	default:
		ev = logger.Warn()
	}
	ev.Str("status", string(out.Status)).
		Str("state", string(out.State)).
		Int("attempts", out.Attempts).
		Str("message", out.Message).
		Msg("reconciliation finished")
	return out
}

func success(entity string, state models.LifecycleState, attempts int) models.Outcome {
	return models.Outcome{Status: models.OutcomeSuccess, State: state, Entity: entity, Attempts: attempts}
}

func unverified(entity string, state models.LifecycleState, attempts int, msg string) models.Outcome {
	return models.Outcome{
		Status:   models.OutcomeSuccessUnverified,
		State:    state,
		Entity:   entity,
		Attempts: attempts,
		Message:  msg,
	}
}

func failure(entity string, state models.LifecycleState, attempts int, err error) models.Outcome {
	return models.Outcome{
		Status:   models.OutcomeFailure,
		State:    state,
		Entity:   entity,
		Attempts: attempts,
		Message:  err.Error(),
		Err:      err,
	}
}
