package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-rbac/internal/rbac"
)

type fakeSeeder struct {
	perms       []rbac.Permission
	roles       []rbac.RoleSummary
	assignments map[string][]string
}

func (f *fakeSeeder) ListPermissions(context.Context) ([]rbac.Permission, error) {
	return f.perms, nil
}

func (f *fakeSeeder) CreatePermission(_ context.Context, name, description string) (rbac.Permission, error) {
	name = strings.TrimSpace(name)
	for _, existing := range f.perms {
		if existing.Name == name {
			return rbac.Permission{}, rbac.ErrDuplicateName
		}
	}
	p := rbac.Permission{ID: fmt.Sprintf("p%d", len(f.perms)+1), Name: name, Description: description}
	f.perms = append(f.perms, p)
	return p, nil
}

func (f *fakeSeeder) ListRoles(context.Context) ([]rbac.RoleSummary, error) {
	return f.roles, nil
}

func (f *fakeSeeder) CreateRole(_ context.Context, name string) (rbac.Role, error) {
	name = strings.TrimSpace(name)
	for _, existing := range f.roles {
		if existing.Name == name {
			return rbac.Role{}, rbac.ErrDuplicateName
		}
	}
	r := rbac.Role{ID: fmt.Sprintf("r%d", len(f.roles)+1), Name: name}
	f.roles = append(f.roles, rbac.RoleSummary{Role: r})
	return r, nil
}

func (f *fakeSeeder) SetRolePermissions(_ context.Context, roleID string, ids []string) error {
	if f.assignments == nil {
		f.assignments = map[string][]string{}
	}
	f.assignments[roleID] = ids
	return nil
}

func TestApplySeedIsIdempotent(t *testing.T) {
	svc := &fakeSeeder{}
	ctx := context.Background()

	report, err := applySeed(ctx, svc, defaultCatalog)
	require.NoError(t, err)
	assert.Equal(t, len(defaultCatalog.Permissions), report.PermissionsCreated)
	assert.Equal(t, len(defaultCatalog.Roles), report.RolesCreated)
	assert.Len(t, svc.assignments, len(defaultCatalog.Roles))

	report, err = applySeed(ctx, svc, defaultCatalog)
	require.NoError(t, err)
	assert.Zero(t, report.PermissionsCreated)
	assert.Zero(t, report.RolesCreated)
	assert.Equal(t, len(defaultCatalog.Roles), report.RolesAssigned)
	assert.Len(t, svc.perms, len(defaultCatalog.Permissions))
}

func TestApplySeedMatchesTrimmedNames(t *testing.T) {
	catalog := seedCatalog{
		Permissions: []seedPermission{{Name: " users.view ", Description: "View users"}},
		Roles:       []seedRole{{Name: " viewer", Permissions: []string{"users.view "}}},
	}
	svc := &fakeSeeder{}
	ctx := context.Background()

	report, err := applySeed(ctx, svc, catalog)
	require.NoError(t, err)
	assert.Equal(t, 1, report.PermissionsCreated)
	assert.Equal(t, 1, report.RolesCreated)
	assert.Equal(t, []string{"p1"}, svc.assignments["r1"])

	report, err = applySeed(ctx, svc, catalog)
	require.NoError(t, err)
	assert.Zero(t, report.PermissionsCreated)
	assert.Zero(t, report.RolesCreated)
	assert.Equal(t, "users.view", svc.perms[0].Name)
	assert.Equal(t, "viewer", svc.roles[0].Name)
}

func TestApplySeedRejectsUnknownPermission(t *testing.T) {
	catalog := seedCatalog{Roles: []seedRole{{Name: "ghost", Permissions: []string{"nope"}}}}
	_, err := applySeed(context.Background(), &fakeSeeder{}, catalog)
	assert.ErrorContains(t, err, `unknown permission "nope"`)
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"permissions":[{"name":"a.b","description":"AB"}],"roles":[{"name":"r","permissions":["a.b"]}]}`), 0o600))

	catalog, err := loadCatalog(path)
	require.NoError(t, err)
	require.Len(t, catalog.Permissions, 1)
	assert.Equal(t, "AB", catalog.Permissions[0].Description)
	assert.Equal(t, []string{"a.b"}, catalog.Roles[0].Permissions)

	catalog, err = loadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, defaultCatalog.Roles[0].Name, catalog.Roles[0].Name)

	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))
	_, err = loadCatalog(path)
	assert.Error(t, err)
}
