package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-rbac/internal/platform/db"
	"github.com/odyssey-erp/odyssey-rbac/internal/rbac"
)

type seedPermission struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type seedRole struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

type seedCatalog struct {
	Permissions []seedPermission `json:"permissions"`
	Roles       []seedRole       `json:"roles"`
}

// defaultCatalog covers the admin console itself.
var defaultCatalog = seedCatalog{
	Permissions: []seedPermission{
		{"users.view", "View users"},
		{"users.edit", "Manage users"},
		{"roles.view", "View roles"},
		{"roles.edit", "Manage roles"},
		{"permissions.view", "View permissions"},
		{"permissions.edit", "Manage permissions"},
		{"audit.view", "View the audit timeline"},
	},
	Roles: []seedRole{
		{"admin", []string{"users.view", "users.edit", "roles.view", "roles.edit", "permissions.view", "permissions.edit", "audit.view"}},
		{"manager", []string{"users.view", "roles.view", "roles.edit", "permissions.view"}},
		{"viewer", []string{"users.view", "roles.view", "permissions.view"}},
	},
}

type rbacSeeder interface {
	ListPermissions(ctx context.Context) ([]rbac.Permission, error)
	CreatePermission(ctx context.Context, name, description string) (rbac.Permission, error)
	ListRoles(ctx context.Context) ([]rbac.RoleSummary, error)
	CreateRole(ctx context.Context, name string) (rbac.Role, error)
	SetRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error
}

type seedReport struct {
	PermissionsCreated int
	RolesCreated       int
	RolesAssigned      int
}

// applySeed creates missing permissions and roles by name, then replaces
// each seeded role's permission set. Existing records are reused. Names are
// matched after trimming, the same way the service stores them.
func applySeed(ctx context.Context, svc rbacSeeder, catalog seedCatalog) (seedReport, error) {
	var report seedReport

	perms, err := svc.ListPermissions(ctx)
	if err != nil {
		return report, fmt.Errorf("list permissions: %w", err)
	}
	permIDs := make(map[string]string, len(perms))
	for _, p := range perms {
		permIDs[p.Name] = p.ID
	}
	for _, p := range catalog.Permissions {
		name := strings.TrimSpace(p.Name)
		if _, ok := permIDs[name]; ok {
			continue
		}
		created, err := svc.CreatePermission(ctx, name, p.Description)
		if err != nil {
			return report, fmt.Errorf("create permission %q: %w", name, err)
		}
		permIDs[name] = created.ID
		report.PermissionsCreated++
	}

	roles, err := svc.ListRoles(ctx)
	if err != nil {
		return report, fmt.Errorf("list roles: %w", err)
	}
	roleIDs := make(map[string]string, len(roles))
	for _, r := range roles {
		roleIDs[r.Name] = r.ID
	}
	for _, role := range catalog.Roles {
		roleName := strings.TrimSpace(role.Name)
		ids := make([]string, 0, len(role.Permissions))
		for _, name := range role.Permissions {
			name = strings.TrimSpace(name)
			id, ok := permIDs[name]
			if !ok {
				return report, fmt.Errorf("role %q references unknown permission %q", roleName, name)
			}
			ids = append(ids, id)
		}
		roleID, ok := roleIDs[roleName]
		if !ok {
			created, err := svc.CreateRole(ctx, roleName)
			if err != nil {
				return report, fmt.Errorf("create role %q: %w", roleName, err)
			}
			roleID = created.ID
			roleIDs[roleName] = roleID
			report.RolesCreated++
		}
		if err := svc.SetRolePermissions(ctx, roleID, ids); err != nil {
			return report, fmt.Errorf("assign role %q: %w", roleName, err)
		}
		report.RolesAssigned++
	}
	return report, nil
}

func loadCatalog(path string) (seedCatalog, error) {
	if path == "" {
		return defaultCatalog, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return seedCatalog{}, err
	}
	var catalog seedCatalog
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return seedCatalog{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return catalog, nil
}

func newSeedCmd(opts *globalOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the default permissions and roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := loadCatalog(file)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			pool, err := db.New(ctx, opts.dsn, db.PoolConfig{MaxConns: 2})
			if err != nil {
				return err
			}
			defer pool.Close()

			report, err := applySeed(ctx, rbac.NewService(rbac.NewRepository(pool), nil, nil), catalog)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "permissions created: %d, roles created: %d, roles assigned: %d\n",
				report.PermissionsCreated, report.RolesCreated, report.RolesAssigned)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON catalog with permissions and roles (built-in catalog when empty)")
	return cmd
}
