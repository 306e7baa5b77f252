package reconcile

import (
	"context"

	"github.com/fgeck/panelsync/internal/models"
	"github.com/fgeck/panelsync/internal/services/directadmin"
)

// CreateEmailAccount creates a mailbox, retrying any failure.
func (s *Impl) CreateEmailAccount(ctx context.Context, acct models.EmailAccount) models.Outcome {
	return s.emailMutation(ctx, "create_email", acct.Address(), models.StateCreated, func(ctx context.Context) error {
		return s.client.CreateEmailAccount(ctx, acct)
	})
}

// UpdateEmailPassword changes a mailbox password, retrying any failure.
func (s *Impl) UpdateEmailPassword(ctx context.Context, domain, user, password string) models.Outcome {
	acct := models.EmailAccount{Domain: domain, User: user}
	return s.emailMutation(ctx, "update_email_password", acct.Address(), models.StateUpdated, func(ctx context.Context) error {
		return s.client.UpdateEmailPassword(ctx, domain, user, password)
	})
}

// DeleteEmailAccount removes a mailbox, retrying any failure.
func (s *Impl) DeleteEmailAccount(ctx context.Context, domain, user string) models.Outcome {
	acct := models.EmailAccount{Domain: domain, User: user}
	return s.emailMutation(ctx, "delete_email", acct.Address(), models.StateDeleted, func(ctx context.Context) error {
		return s.client.DeleteEmailAccount(ctx, domain, user)
	})
}

// ListEmailAccounts is best-effort: once retries are exhausted it returns an
// empty list instead of an error.
func (s *Impl) ListEmailAccounts(ctx context.Context, domain string) []string {
	var names []string
	attempts, err := s.policies.Email.Do(ctx, "list email accounts "+domain, func(int) error {
		var err error
		names, err = s.client.ListEmailAccounts(ctx, domain)
		return err
	})
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("domain", domain).
			Int("attempts", attempts).
			Msg("could not list email accounts, returning empty list")
		return []string{}
	}
	if names == nil {
		names = []string{}
	}
	return names
}

func (s *Impl) emailMutation(
	ctx context.Context,
	op, address string,
	state models.LifecycleState,
	fn func(ctx context.Context) error,
) models.Outcome {
	logger := s.operationLogger(op, address)
	logger.Info().Msg("applying email change")

	attempts, err := s.policies.Email.Do(ctx, op+" "+address, func(attempt int) error {
		err := directadmin.IgnoreSuccessSentinel(fn(ctx))
		if err != nil {
			logger.Warn().Err(err).Int("attempt", attempt).Msg("email change attempt failed")
		}
		return err
	})
	if err != nil {
		return logOutcome(logger, failure(address, models.StateUnknown, attempts, err))
	}
	return logOutcome(logger, success(address, state, attempts))
}
