package reconcile

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/fgeck/panelsync/internal/models"
	"github.com/fgeck/panelsync/internal/services/directadmin"
	"github.com/rs/zerolog"
)

var errNotMocked = errors.New("not mocked")

type mockPanelClient struct {
	listPackagesFunc  func() ([]string, error)
	packageExistsFunc func(name string) (bool, error)
	getPackageFunc    func(name string) (*models.PackageDetails, error)
	createPackageFunc func(pkg models.Package) error
	updatePackageFunc func(pkg models.Package) error
	renamePackageFunc func(oldName string, pkg models.Package) error
	deletePackageFunc func(name string) error

	listUsersFunc     func() ([]string, error)
	userExistsFunc    func(username string) (bool, error)
	getUserFunc       func(username string) (*models.UserDetails, error)
	createUserFunc    func(u models.User) (*directadmin.Result, error)
	updateUserFunc    func(username string, upd models.UserUpdate) (*directadmin.Result, error)
	suspendUserFunc   func(username string) error
	unsuspendUserFunc func(username string) error
	deleteUserFunc    func(username string) error

	listEmailFunc   func(domain string) ([]string, error)
	createEmailFunc func(acct models.EmailAccount) error
	updateEmailFunc func(domain, user, password string) error
	deleteEmailFunc func(domain, user string) error
}

func (m *mockPanelClient) ListPackages(context.Context) ([]string, error) {
	if m.listPackagesFunc != nil {
		return m.listPackagesFunc()
	}
	return nil, errNotMocked
}

func (m *mockPanelClient) PackageExists(_ context.Context, name string) (bool, error) {
	if m.packageExistsFunc != nil {
		return m.packageExistsFunc(name)
	}
	return false, errNotMocked
}

func (m *mockPanelClient) GetPackage(_ context.Context, name string) (*models.PackageDetails, error) {
	if m.getPackageFunc != nil {
		return m.getPackageFunc(name)
	}
	return nil, errNotMocked
}

func (m *mockPanelClient) CreatePackage(_ context.Context, pkg models.Package) error {
	if m.createPackageFunc != nil {
		return m.createPackageFunc(pkg)
	}
	return nil
}

func (m *mockPanelClient) UpdatePackage(_ context.Context, pkg models.Package) error {
	if m.updatePackageFunc != nil {
		return m.updatePackageFunc(pkg)
	}
	return nil
}

func (m *mockPanelClient) RenamePackage(_ context.Context, oldName string, pkg models.Package) error {
	if m.renamePackageFunc != nil {
		return m.renamePackageFunc(oldName, pkg)
	}
	return nil
}

func (m *mockPanelClient) DeletePackage(_ context.Context, name string) error {
	if m.deletePackageFunc != nil {
		return m.deletePackageFunc(name)
	}
	return nil
}

func (m *mockPanelClient) ListUsers(context.Context) ([]string, error) {
	if m.listUsersFunc != nil {
		return m.listUsersFunc()
	}
	return nil, errNotMocked
}

func (m *mockPanelClient) UserExists(_ context.Context, username string) (bool, error) {
	if m.userExistsFunc != nil {
		return m.userExistsFunc(username)
	}
	return false, errNotMocked
}

func (m *mockPanelClient) GetUser(_ context.Context, username string) (*models.UserDetails, error) {
	if m.getUserFunc != nil {
		return m.getUserFunc(username)
	}
	return nil, errNotMocked
}

func (m *mockPanelClient) CreateUser(_ context.Context, u models.User) (*directadmin.Result, error) {
	if m.createUserFunc != nil {
		return m.createUserFunc(u)
	}
	return &directadmin.Result{Response: directadmin.Response{}}, nil
}

func (m *mockPanelClient) UpdateUser(_ context.Context, username string, upd models.UserUpdate) (*directadmin.Result, error) {
	if m.updateUserFunc != nil {
		return m.updateUserFunc(username, upd)
	}
	return &directadmin.Result{Response: directadmin.Response{}}, nil
}

func (m *mockPanelClient) SuspendUser(_ context.Context, username string) error {
	if m.suspendUserFunc != nil {
		return m.suspendUserFunc(username)
	}
	return nil
}

func (m *mockPanelClient) UnsuspendUser(_ context.Context, username string) error {
	if m.unsuspendUserFunc != nil {
		return m.unsuspendUserFunc(username)
	}
	return nil
}

func (m *mockPanelClient) DeleteUser(_ context.Context, username string) error {
	if m.deleteUserFunc != nil {
		return m.deleteUserFunc(username)
	}
	return nil
}

func (m *mockPanelClient) ListEmailAccounts(_ context.Context, domain string) ([]string, error) {
	if m.listEmailFunc != nil {
		return m.listEmailFunc(domain)
	}
	return nil, errNotMocked
}

func (m *mockPanelClient) CreateEmailAccount(_ context.Context, acct models.EmailAccount) error {
	if m.createEmailFunc != nil {
		return m.createEmailFunc(acct)
	}
	return nil
}

func (m *mockPanelClient) UpdateEmailPassword(_ context.Context, domain, user, password string) error {
	if m.updateEmailFunc != nil {
		return m.updateEmailFunc(domain, user, password)
	}
	return nil
}

func (m *mockPanelClient) DeleteEmailAccount(_ context.Context, domain, user string) error {
	if m.deleteEmailFunc != nil {
		return m.deleteEmailFunc(domain, user)
	}
	return nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func noSleep(context.Context, time.Duration) error { return nil }

// newTestService returns a service whose retries and reset wait do not block.
func newTestService(client PanelClient) *Impl {
	policies := DefaultPolicies()
	policies.Update = policies.Update.WithSleep(noSleep)
	policies.Delete = policies.Delete.WithSleep(noSleep)
	policies.Email = policies.Email.WithSleep(noSleep)
	return NewWithClient(testLogger(), client, Options{
		Policies:  policies,
		ResetWait: time.Millisecond,
		Sleep:     noSleep,
	})
}
