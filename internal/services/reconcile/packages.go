package reconcile

import (
	"context"
	"fmt"

	"github.com/fgeck/panelsync/internal/models"
	"github.com/fgeck/panelsync/internal/services/directadmin"
)

// ListPackages returns every package with its details. A package whose
// details cannot be read is reported as a partial stub.
func (s *Impl) ListPackages(ctx context.Context) (map[string]models.PackageDetails, error) {
	names, err := s.client.ListPackages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}

	out := make(map[string]models.PackageDetails, len(names))
	for _, name := range names {
		details, err := s.client.GetPackage(ctx, name)
		if err != nil {
			s.logger.Warn().Err(err).Str("package", name).Msg("could not read package details")
			out[name] = models.PackageDetails{Name: name, Package: name, Exists: true, Partial: true}
			continue
		}
		out[name] = *details
	}
	return out, nil
}

// GetPackageDetails returns one package or a NotFoundError.
func (s *Impl) GetPackageDetails(ctx context.Context, name string) (*models.PackageDetails, error) {
	return s.client.GetPackage(ctx, name)
}

// CreatePackage creates a package after checking the name is free. The
// panel's own duplicate handling is not relied on.
func (s *Impl) CreatePackage(ctx context.Context, pkg models.Package) models.Outcome {
	logger := s.operationLogger("create_package", pkg.Name)
	logger.Info().Msg("creating package")

	exists, err := s.client.PackageExists(ctx, pkg.Name)
	if err != nil {
		return logOutcome(logger, failure(pkg.Name, models.StateUnknown, 0, fmt.Errorf("existence check failed: %w", err)))
	}
	if exists {
		return logOutcome(logger, failure(pkg.Name, models.StateAlreadyExists, 0,
			&directadmin.AlreadyExistsError{Kind: directadmin.KindPackage, Name: pkg.Name}))
	}

	if err := directadmin.IgnoreSuccessSentinel(s.client.CreatePackage(ctx, pkg)); err != nil {
		return logOutcome(logger, failure(pkg.Name, models.StateCreateFailed, 1, err))
	}
	return logOutcome(logger, success(pkg.Name, models.StateCreated, 1))
}

// UpdatePackage saves new limits with retries, then re-reads the package and
// compares the requested bandwidth and quota against what the panel reports.
func (s *Impl) UpdatePackage(ctx context.Context, name string, pkg models.Package) models.Outcome {
	logger := s.operationLogger("update_package", name)
	logger.Info().Msg("updating package")
	pkg.Name = name

	exists, err := s.client.PackageExists(ctx, name)
	if err != nil {
		return logOutcome(logger, failure(name, models.StateUnknown, 0, fmt.Errorf("existence check failed: %w", err)))
	}
	if !exists {
		return logOutcome(logger, failure(name, models.StateUpdateFailed, 0,
			&directadmin.NotFoundError{Kind: directadmin.KindPackage, Name: name}))
	}

	attempts, err := s.policies.Update.Do(ctx, "update package "+name, func(attempt int) error {
		err := directadmin.IgnoreSuccessSentinel(s.client.UpdatePackage(ctx, pkg))
		if err != nil {
			logger.Warn().Err(err).Int("attempt", attempt).Msg("package update attempt failed")
		}
		return err
	})
	if err != nil {
		return logOutcome(logger, failure(name, models.StateUpdateFailed, attempts, err))
	}

	return logOutcome(logger, s.verifyPackageFields(ctx, pkg, attempts))
}

func (s *Impl) verifyPackageFields(ctx context.Context, pkg models.Package, attempts int) models.Outcome {
	details, err := s.client.GetPackage(ctx, pkg.Name)
	if err != nil {
		return unverified(pkg.Name, models.StateUnverified, attempts,
			fmt.Sprintf("update accepted but verification read failed: %v", err))
	}
	if details.Partial {
		return unverified(pkg.Name, models.StateUnverified, attempts,
			"update accepted but the panel returned no package details to verify against")
	}

	mismatches := comparePackage(pkg, details.Fields)
	if len(mismatches) > 0 {
		out := unverified(pkg.Name, models.StateUnverified, attempts,
			"update accepted but the panel reports different values")
		out.Mismatches = mismatches
		return out
	}
	return success(pkg.Name, models.StateVerified, attempts)
}

// comparePackage checks the verified fields of a saved package.
func comparePackage(pkg models.Package, fields map[string]string) []models.FieldMismatch {
	checks := []struct {
		field     string
		requested string
	}{
		{"bandwidth", pkg.Bandwidth},
		{"quota", pkg.Quota},
	}

	var mismatches []models.FieldMismatch
	for _, c := range checks {
		actual, ok := fields[c.field]
		if !ok || directadmin.NormalizeLimit(actual) != directadmin.NormalizeLimit(c.requested) {
			mismatches = append(mismatches, models.FieldMismatch{
				Field:     c.field,
				Requested: directadmin.NormalizeLimit(c.requested),
				Actual:    actual,
			})
		}
	}
	return mismatches
}

// RenamePackage saves the package under a new name and checks that the new
// name exists and the old one is gone. The panel has no stable id, so a
// rename is a create plus retire and may leave the old package behind.
func (s *Impl) RenamePackage(ctx context.Context, oldName, newName string, pkg models.Package) models.Outcome {
	if oldName == newName {
		return s.UpdatePackage(ctx, oldName, pkg)
	}

	logger := s.operationLogger("rename_package", oldName).With().Str("new_name", newName).Logger()
	logger.Info().Msg("renaming package")
	pkg.Name = newName

	names, err := s.client.ListPackages(ctx)
	if err != nil {
		return logOutcome(logger, failure(newName, models.StateUnknown, 0, fmt.Errorf("existence check failed: %w", err)))
	}
	if !containsName(names, oldName) {
		return logOutcome(logger, failure(newName, models.StateRenameFailed, 0,
			&directadmin.NotFoundError{Kind: directadmin.KindPackage, Name: oldName}))
	}
	if containsName(names, newName) {
		return logOutcome(logger, failure(newName, models.StateRenameFailed, 0,
			&directadmin.AlreadyExistsError{Kind: directadmin.KindPackage, Name: newName}))
	}

	if err := directadmin.IgnoreSuccessSentinel(s.client.RenamePackage(ctx, oldName, pkg)); err != nil {
		return logOutcome(logger, failure(newName, models.StateRenameFailed, 1, err))
	}

	if _, err := s.client.GetPackage(ctx, newName); err != nil {
		if directadmin.IsNotFound(err) {
			return logOutcome(logger, failure(newName, models.StateRenameFailed, 1,
				fmt.Errorf("rename from %q reported success but %q is missing, retry the rename: %w", oldName, newName, err)))
		}
		return logOutcome(logger, unverified(newName, models.StateUnverified, 1,
			fmt.Sprintf("rename accepted but %q could not be read back: %v", newName, err)))
	}

	_, err = s.client.GetPackage(ctx, oldName)
	switch {
	case directadmin.IsNotFound(err):
		return logOutcome(logger, success(newName, models.StateRenamed, 1))
	case err == nil:
		return logOutcome(logger, unverified(newName, models.StateRenamedDuplicate, 1,
			fmt.Sprintf("renamed to %q but duplicate %q retained", newName, oldName)))
	default:
		return logOutcome(logger, unverified(newName, models.StateRenamed, 1,
			fmt.Sprintf("renamed to %q but could not confirm %q was retired: %v", newName, oldName, err)))
	}
}

// DeletePackage deletes with retries. Only a not-found verification read
// counts as success; the delete call's own reply is not trusted.
func (s *Impl) DeletePackage(ctx context.Context, name string) models.Outcome {
	logger := s.operationLogger("delete_package", name)
	logger.Info().Msg("deleting package")

	var conflicting error
	attempts, err := s.policies.Delete.Do(ctx, "delete package "+name, func(attempt int) error {
		deleteErr := directadmin.IgnoreSuccessSentinel(s.client.DeletePackage(ctx, name))

		_, verifyErr := s.client.GetPackage(ctx, name)
		if directadmin.IsNotFound(verifyErr) {
			conflicting = deleteErr
			return nil
		}

		var err error
		switch {
		case deleteErr != nil:
			err = deleteErr
		case verifyErr != nil:
			err = fmt.Errorf("verification read failed: %w", verifyErr)
		default:
			err = fmt.Errorf("package %q: %w", name, directadmin.ErrStillExists)
		}
		logger.Warn().Err(err).Int("attempt", attempt).Msg("package delete attempt not confirmed")
		return err
	})
	if err != nil {
		return logOutcome(logger, failure(name, models.StateDeleteFailed, attempts, err))
	}
	if conflicting != nil {
		return logOutcome(logger, unverified(name, models.StateDeleted, attempts,
			fmt.Sprintf("package is gone but the delete call reported: %v", conflicting)))
	}
	return logOutcome(logger, success(name, models.StateDeleted, attempts))
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
