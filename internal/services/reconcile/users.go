package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/fgeck/panelsync/internal/models"
	"github.com/fgeck/panelsync/internal/services/directadmin"
	"github.com/rs/zerolog"
)

// ListUsers lists usernames. A listing failure is reported inside the result.
func (s *Impl) ListUsers(ctx context.Context) models.UserList {
	names, err := s.client.ListUsers(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return models.UserList{Users: []string{}, Error: err.Error()}
	}
	return models.UserList{Users: names}
}

// GetUserDetails returns one user's configuration.
func (s *Impl) GetUserDetails(ctx context.Context, username string) (*models.UserDetails, error) {
	return s.client.GetUser(ctx, username)
}

// CreateUser creates an account after checking the name is free. A
// connection reset during the create is resolved by waiting and listing
// users again: present means created, absent means it probably failed.
func (s *Impl) CreateUser(ctx context.Context, u models.User) models.Outcome {
	logger := s.operationLogger("create_user", u.Username)
	logger.Info().Str("package", u.Package).Str("domain", u.Domain).Msg("creating user")

	exists, err := s.client.UserExists(ctx, u.Username)
	if err != nil {
		return logOutcome(logger, failure(u.Username, models.StateUnknown, 0, fmt.Errorf("existence check failed: %w", err)))
	}
	if exists {
		return logOutcome(logger, failure(u.Username, models.StateAlreadyExists, 0,
			&directadmin.AlreadyExistsError{Kind: directadmin.KindUser, Name: u.Username}))
	}

	res, err := s.client.CreateUser(ctx, u)
	if err = directadmin.IgnoreSuccessSentinel(err); err != nil {
		return logOutcome(logger, failure(u.Username, models.StateCreateFailed, 1, err))
	}
	if res == nil || !res.ConnectionReset {
		return logOutcome(logger, success(u.Username, models.StateCreated, 1))
	}

	return logOutcome(logger, s.resolveCreateReset(ctx, logger, u.Username))
}

func (s *Impl) resolveCreateReset(ctx context.Context, logger zerolog.Logger, username string) models.Outcome {
	logger.Warn().Dur("wait", s.resetWait).Msg("connection reset during user create, checking whether it landed")
	if err := s.sleep(ctx, s.resetWait); err != nil {
		return ambiguous(username, fmt.Errorf("interrupted while waiting to verify: %w", err))
	}

	exists, err := s.client.UserExists(ctx, username)
	if err != nil {
		return ambiguous(username, fmt.Errorf("connection reset during create and verification failed: %w", err))
	}
	if !exists {
		return failure(username, models.StateCreateFailed, 1,
			fmt.Errorf("user creation may have failed: connection reset and %q is not listed", username))
	}

	out := success(username, models.StateCreated, 1)
	out.Message = "confirmed by listing after a connection reset"
	return out
}

func ambiguous(entity string, err error) models.Outcome {
	return models.Outcome{
		Status:  models.OutcomeAmbiguousReset,
		State:   models.StateUnknown,
		Entity:  entity,
		Message: err.Error(),
		Err:     err,
	}
}

// UpdateUser changes a user's package and/or email. A connection reset is
// resolved by re-reading the user and comparing the requested fields.
func (s *Impl) UpdateUser(ctx context.Context, username string, upd models.UserUpdate) models.Outcome {
	logger := s.operationLogger("update_user", username)
	logger.Info().Str("package", upd.Package).Msg("updating user")

	res, err := s.client.UpdateUser(ctx, username, upd)
	if err = directadmin.IgnoreSuccessSentinel(err); err != nil {
		return logOutcome(logger, failure(username, models.StateUpdateFailed, 1, err))
	}
	if res == nil || !res.ConnectionReset {
		return logOutcome(logger, success(username, models.StateUpdated, 1))
	}

	logger.Warn().Dur("wait", s.resetWait).Msg("connection reset during user update, re-reading user")
	if err := s.sleep(ctx, s.resetWait); err != nil {
		return logOutcome(logger, ambiguous(username, fmt.Errorf("interrupted while waiting to verify: %w", err)))
	}

	details, err := s.client.GetUser(ctx, username)
	if err != nil {
		return logOutcome(logger, ambiguous(username, fmt.Errorf("connection reset during update and verification failed: %w", err)))
	}
	if details.Partial {
		return logOutcome(logger, ambiguous(username, fmt.Errorf("connection reset during update and the panel returned no user details")))
	}

	var mismatches []models.FieldMismatch
	if upd.Package != "" && details.Fields["package"] != upd.Package {
		mismatches = append(mismatches, models.FieldMismatch{Field: "package", Requested: upd.Package, Actual: details.Fields["package"]})
	}
	if upd.Email != "" && !strings.EqualFold(details.Fields["email"], upd.Email) {
		mismatches = append(mismatches, models.FieldMismatch{Field: "email", Requested: upd.Email, Actual: details.Fields["email"]})
	}
	if len(mismatches) > 0 {
		out := ambiguous(username, fmt.Errorf("connection reset during update and the panel reports different values"))
		out.Mismatches = mismatches
		return logOutcome(logger, out)
	}

	out := success(username, models.StateUpdated, 1)
	out.Message = "confirmed by re-reading after a connection reset"
	return logOutcome(logger, out)
}

// SuspendUser suspends an account. Single attempt.
func (s *Impl) SuspendUser(ctx context.Context, username string) models.Outcome {
	return s.singleShot(ctx, "suspend_user", username, models.StateSuspended, s.client.SuspendUser)
}

// UnsuspendUser lifts a suspension. Single attempt.
func (s *Impl) UnsuspendUser(ctx context.Context, username string) models.Outcome {
	return s.singleShot(ctx, "unsuspend_user", username, models.StateUnsuspended, s.client.UnsuspendUser)
}

// DeleteUser removes an account. Single attempt.
func (s *Impl) DeleteUser(ctx context.Context, username string) models.Outcome {
	return s.singleShot(ctx, "delete_user", username, models.StateDeleted, s.client.DeleteUser)
}

func (s *Impl) singleShot(
	ctx context.Context,
	op, username string,
	state models.LifecycleState,
	fn func(ctx context.Context, username string) error,
) models.Outcome {
	logger := s.operationLogger(op, username)
	logger.Info().Msg("applying user action")

	if err := directadmin.IgnoreSuccessSentinel(fn(ctx, username)); err != nil {
		return logOutcome(logger, failure(username, models.StateUnknown, 1, err))
	}
	return logOutcome(logger, success(username, state, 1))
}
