package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/fgeck/panelsync/internal/models"
	"github.com/fgeck/panelsync/internal/services/directadmin"
	"github.com/fgeck/panelsync/internal/services/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notFound(name string) error {
	return &directadmin.NotFoundError{Kind: directadmin.KindPackage, Name: name}
}

func found(name string, fields map[string]string) (*models.PackageDetails, error) {
	return &models.PackageDetails{Name: name, Package: name, Exists: true, Fields: fields}, nil
}

func TestCreatePackage_Success(t *testing.T) {
	var created models.Package
	client := &mockPanelClient{
		packageExistsFunc: func(string) (bool, error) { return false, nil },
		createPackageFunc: func(pkg models.Package) error {
			created = pkg
			return nil
		},
	}

	out := newTestService(client).CreatePackage(context.Background(), models.Package{Name: "basic10", Bandwidth: "1000"})

	assert.Equal(t, models.OutcomeSuccess, out.Status)
	assert.Equal(t, models.StateCreated, out.State)
	assert.True(t, out.OK())
	assert.Equal(t, "basic10", created.Name)
}

func TestCreatePackage_TwiceReportsAlreadyExists(t *testing.T) {
	existing := map[string]bool{}
	createCalls := 0
	client := &mockPanelClient{
		packageExistsFunc: func(name string) (bool, error) { return existing[name], nil },
		createPackageFunc: func(pkg models.Package) error {
			createCalls++
			existing[pkg.Name] = true
			return nil
		},
	}
	svc := newTestService(client)

	first := svc.CreatePackage(context.Background(), models.Package{Name: "basic10"})
	second := svc.CreatePackage(context.Background(), models.Package{Name: "basic10"})

	assert.Equal(t, models.OutcomeSuccess, first.Status)
	assert.Equal(t, models.OutcomeFailure, second.Status)
	assert.Equal(t, models.StateAlreadyExists, second.State)
	assert.True(t, directadmin.IsAlreadyExists(second.Cause()))
	assert.Equal(t, 1, createCalls)
}

func TestCreatePackage_ZeroErrorIsSuccess(t *testing.T) {
	client := &mockPanelClient{
		packageExistsFunc: func(string) (bool, error) { return false, nil },
		createPackageFunc: func(models.Package) error {
			return &directadmin.RemoteError{Command: "CMD_API_MANAGE_USER_PACKAGES", Code: "0"}
		},
	}

	out := newTestService(client).CreatePackage(context.Background(), models.Package{Name: "basic10"})

	assert.Equal(t, models.OutcomeSuccess, out.Status)
}

func TestCreatePackage_RemoteError(t *testing.T) {
	client := &mockPanelClient{
		packageExistsFunc: func(string) (bool, error) { return false, nil },
		createPackageFunc: func(models.Package) error {
			return &directadmin.RemoteError{Code: "1", Message: "Invalid package name"}
		},
	}

	out := newTestService(client).CreatePackage(context.Background(), models.Package{Name: "bad name"})

	assert.Equal(t, models.OutcomeFailure, out.Status)
	assert.Equal(t, models.StateCreateFailed, out.State)
	assert.Contains(t, out.Message, "Invalid package name")
}

func TestUpdatePackage_Verified(t *testing.T) {
	client := &mockPanelClient{
		packageExistsFunc: func(string) (bool, error) { return true, nil },
		getPackageFunc: func(name string) (*models.PackageDetails, error) {
			return found(name, map[string]string{"bandwidth": "2000", "quota": "Unlimited"})
		},
	}

	out := newTestService(client).UpdatePackage(context.Background(), "basic10",
		models.Package{Bandwidth: "2000", Quota: "unlimited"})

	assert.Equal(t, models.OutcomeSuccess, out.Status)
	assert.Equal(t, models.StateVerified, out.State)
	assert.Equal(t, 1, out.Attempts)
}

func TestUpdatePackage_MismatchIsUnverified(t *testing.T) {
	client := &mockPanelClient{
		packageExistsFunc: func(string) (bool, error) { return true, nil },
		getPackageFunc: func(name string) (*models.PackageDetails, error) {
			return found(name, map[string]string{"bandwidth": "1000", "quota": "500"})
		},
	}

	out := newTestService(client).UpdatePackage(context.Background(), "basic10",
		models.Package{Bandwidth: "2000", Quota: "500"})

	assert.Equal(t, models.OutcomeSuccessUnverified, out.Status)
	assert.Equal(t, models.StateUnverified, out.State)
	require.Len(t, out.Mismatches, 1)
	assert.Equal(t, models.FieldMismatch{Field: "bandwidth", Requested: "2000", Actual: "1000"}, out.Mismatches[0])
	assert.True(t, out.OK())
	assert.True(t, out.Warning())
}

func TestUpdatePackage_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	client := &mockPanelClient{
		packageExistsFunc: func(string) (bool, error) { return true, nil },
		updatePackageFunc: func(models.Package) error {
			calls++
			if calls < 3 {
				return &directadmin.TransportError{Command: "CMD_API_MANAGE_USER_PACKAGES", Err: errors.New("timeout")}
			}
			return nil
		},
		getPackageFunc: func(name string) (*models.PackageDetails, error) {
			return found(name, map[string]string{"bandwidth": "10", "quota": "10"})
		},
	}

	out := newTestService(client).UpdatePackage(context.Background(), "basic10",
		models.Package{Bandwidth: "10", Quota: "10"})

	assert.Equal(t, models.OutcomeSuccess, out.Status)
	assert.Equal(t, 3, out.Attempts)
}

func TestUpdatePackage_ExhaustedRetries(t *testing.T) {
	client := &mockPanelClient{
		packageExistsFunc: func(string) (bool, error) { return true, nil },
		updatePackageFunc: func(models.Package) error { return errors.New("boom") },
	}

	out := newTestService(client).UpdatePackage(context.Background(), "basic10", models.Package{})

	assert.Equal(t, models.OutcomeFailure, out.Status)
	assert.Equal(t, models.StateUpdateFailed, out.State)
	assert.Equal(t, 3, out.Attempts)
	var exhausted *retry.ExhaustedError
	assert.ErrorAs(t, out.Cause(), &exhausted)
}

func TestUpdatePackage_NotFoundIsFinal(t *testing.T) {
	calls := 0
	client := &mockPanelClient{
		packageExistsFunc: func(string) (bool, error) { return true, nil },
		updatePackageFunc: func(pkg models.Package) error {
			calls++
			return notFound(pkg.Name)
		},
	}

	out := newTestService(client).UpdatePackage(context.Background(), "basic10", models.Package{})

	assert.Equal(t, models.OutcomeFailure, out.Status)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, out.Attempts)
	assert.True(t, directadmin.IsNotFound(out.Cause()))
}

func TestUpdatePackage_Missing(t *testing.T) {
	client := &mockPanelClient{
		packageExistsFunc: func(string) (bool, error) { return false, nil },
	}

	out := newTestService(client).UpdatePackage(context.Background(), "ghost", models.Package{})

	assert.Equal(t, models.OutcomeFailure, out.Status)
	assert.True(t, directadmin.IsNotFound(out.Cause()))
}

func TestUpdatePackage_PartialReadIsUnverified(t *testing.T) {
	client := &mockPanelClient{
		packageExistsFunc: func(string) (bool, error) { return true, nil },
		getPackageFunc: func(name string) (*models.PackageDetails, error) {
			return &models.PackageDetails{Name: name, Package: name, Exists: true, Partial: true}, nil
		},
	}

	out := newTestService(client).UpdatePackage(context.Background(), "basic10", models.Package{Bandwidth: "1"})

	assert.Equal(t, models.OutcomeSuccessUnverified, out.Status)
}

func TestRenamePackage_Success(t *testing.T) {
	client := &mockPanelClient{
		listPackagesFunc: func() ([]string, error) { return []string{"old"}, nil },
		getPackageFunc: func(name string) (*models.PackageDetails, error) {
			if name == "new" {
				return found(name, nil)
			}
			return nil, notFound(name)
		},
	}

	out := newTestService(client).RenamePackage(context.Background(), "old", "new", models.Package{})

	assert.Equal(t, models.OutcomeSuccess, out.Status)
	assert.Equal(t, models.StateRenamed, out.State)
	assert.Equal(t, "new", out.Entity)
}

func TestRenamePackage_DuplicateRetained(t *testing.T) {
	var renamedFrom string
	client := &mockPanelClient{
		listPackagesFunc: func() ([]string, error) { return []string{"old"}, nil },
		renamePackageFunc: func(oldName string, pkg models.Package) error {
			renamedFrom = oldName
			assert.Equal(t, "new", pkg.Name)
			return nil
		},
		getPackageFunc: func(name string) (*models.PackageDetails, error) { return found(name, nil) },
	}

	out := newTestService(client).RenamePackage(context.Background(), "old", "new", models.Package{})

	assert.Equal(t, "old", renamedFrom)
	assert.Equal(t, models.OutcomeSuccessUnverified, out.Status)
	assert.Equal(t, models.StateRenamedDuplicate, out.State)
	assert.Contains(t, out.Message, "duplicate")
}

func TestRenamePackage_NewNameMissing(t *testing.T) {
	client := &mockPanelClient{
		listPackagesFunc: func() ([]string, error) { return []string{"old"}, nil },
		getPackageFunc:   func(name string) (*models.PackageDetails, error) { return nil, notFound(name) },
	}

	out := newTestService(client).RenamePackage(context.Background(), "old", "new", models.Package{})

	assert.Equal(t, models.OutcomeFailure, out.Status)
	assert.Equal(t, models.StateRenameFailed, out.State)
}

func TestRenamePackage_Prechecks(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		check    func(error) bool
	}{
		{name: "old missing", existing: []string{"other"}, check: directadmin.IsNotFound},
		{name: "new taken", existing: []string{"old", "new"}, check: directadmin.IsAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renamed := false
			client := &mockPanelClient{
				listPackagesFunc:  func() ([]string, error) { return tt.existing, nil },
				renamePackageFunc: func(string, models.Package) error { renamed = true; return nil },
			}

			out := newTestService(client).RenamePackage(context.Background(), "old", "new", models.Package{})

			assert.Equal(t, models.OutcomeFailure, out.Status)
			assert.True(t, tt.check(out.Cause()))
			assert.False(t, renamed)
		})
	}
}

func TestRenamePackage_SameNameUpdates(t *testing.T) {
	updated := false
	client := &mockPanelClient{
		packageExistsFunc: func(string) (bool, error) { return true, nil },
		updatePackageFunc: func(models.Package) error { updated = true; return nil },
		getPackageFunc: func(name string) (*models.PackageDetails, error) {
			return found(name, map[string]string{"bandwidth": "", "quota": ""})
		},
	}

	out := newTestService(client).RenamePackage(context.Background(), "same", "same", models.Package{})

	assert.True(t, updated)
	assert.Equal(t, models.OutcomeSuccess, out.Status)
}

func TestDeletePackage_VerifiedGone(t *testing.T) {
	client := &mockPanelClient{
		getPackageFunc: func(name string) (*models.PackageDetails, error) { return nil, notFound(name) },
	}

	out := newTestService(client).DeletePackage(context.Background(), "basic10")

	assert.Equal(t, models.OutcomeSuccess, out.Status)
	assert.Equal(t, models.StateDeleted, out.State)
	assert.Equal(t, 1, out.Attempts)
}

func TestDeletePackage_StillExistsFailsAfterRetries(t *testing.T) {
	deletes := 0
	client := &mockPanelClient{
		deletePackageFunc: func(string) error { deletes++; return nil },
		getPackageFunc:    func(name string) (*models.PackageDetails, error) { return found(name, nil) },
	}

	out := newTestService(client).DeletePackage(context.Background(), "basic10")

	assert.Equal(t, models.OutcomeFailure, out.Status)
	assert.Equal(t, models.StateDeleteFailed, out.State)
	assert.Equal(t, 3, deletes)
	assert.ErrorIs(t, out.Cause(), directadmin.ErrStillExists)
}

func TestDeletePackage_ConflictingSignals(t *testing.T) {
	client := &mockPanelClient{
		deletePackageFunc: func(string) error { return &directadmin.RemoteError{Code: "1", Message: "Cannot delete"} },
		getPackageFunc:    func(name string) (*models.PackageDetails, error) { return nil, notFound(name) },
	}

	out := newTestService(client).DeletePackage(context.Background(), "basic10")

	assert.Equal(t, models.OutcomeSuccessUnverified, out.Status)
	assert.Equal(t, models.StateDeleted, out.State)
	assert.Contains(t, out.Message, "Cannot delete")
}

func TestDeletePackage_GoneOnSecondAttempt(t *testing.T) {
	reads := 0
	client := &mockPanelClient{
		getPackageFunc: func(name string) (*models.PackageDetails, error) {
			reads++
			if reads == 1 {
				return found(name, nil)
			}
			return nil, notFound(name)
		},
	}

	out := newTestService(client).DeletePackage(context.Background(), "basic10")

	assert.Equal(t, models.OutcomeSuccess, out.Status)
	assert.Equal(t, 2, out.Attempts)
}

func TestListPackages_PartialStub(t *testing.T) {
	client := &mockPanelClient{
		listPackagesFunc: func() ([]string, error) { return []string{"a", "b"}, nil },
		getPackageFunc: func(name string) (*models.PackageDetails, error) {
			if name == "a" {
				return found(name, map[string]string{"quota": "1"})
			}
			return nil, errors.New("read failed")
		},
	}

	pkgs, err := newTestService(client).ListPackages(context.Background())

	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.False(t, pkgs["a"].Partial)
	assert.True(t, pkgs["b"].Partial)
	assert.True(t, pkgs["b"].Exists)
}

func TestListPackages_Error(t *testing.T) {
	client := &mockPanelClient{
		listPackagesFunc: func() ([]string, error) { return nil, errors.New("down") },
	}

	_, err := newTestService(client).ListPackages(context.Background())

	assert.Error(t, err)
}
