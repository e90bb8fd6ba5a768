package rbac

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/odyssey-erp/odyssey-rbac/internal/audit"
	"github.com/odyssey-erp/odyssey-rbac/internal/shared"
)

// Service orchestrates RBAC operations.
type Service struct {
	repo     Repository
	recorder audit.Recorder
	logger   *slog.Logger
}

// NewService constructs a Service. recorder may be nil.
func NewService(repo Repository, recorder audit.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, recorder: recorder, logger: logger}
}

// ListPermissions returns all permissions, newest first.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	return nonNil(perms), nil
}

// CreatePermission inserts a new permission.
func (s *Service) CreatePermission(ctx context.Context, name, description string) (Permission, error) {
	name, description = strings.TrimSpace(name), strings.TrimSpace(description)
	if name == "" {
		return Permission{}, errNameRequired
	}
	perm, err := s.repo.CreatePermission(ctx, name, description)
	if err != nil {
		return Permission{}, permissionError(err)
	}
	s.emit(ctx, audit.ActionCreate, audit.EntityPermission, perm.ID, map[string]any{"name": perm.Name})
	return perm, nil
}

// UpdatePermission updates an existing permission.
func (s *Service) UpdatePermission(ctx context.Context, id, name, description string) (Permission, error) {
	name, description = strings.TrimSpace(name), strings.TrimSpace(description)
	if name == "" {
		return Permission{}, errNameRequired
	}
	perm, err := s.repo.UpdatePermission(ctx, id, name, description)
	if err != nil {
		return Permission{}, permissionError(err)
	}
	s.emit(ctx, audit.ActionUpdate, audit.EntityPermission, perm.ID, map[string]any{"name": perm.Name})
	return perm, nil
}

// DeletePermission removes a permission and its role links.
func (s *Service) DeletePermission(ctx context.Context, id string) error {
	if err := s.repo.DeletePermission(ctx, id); err != nil {
		return permissionError(err)
	}
	s.emit(ctx, audit.ActionDelete, audit.EntityPermission, id, nil)
	return nil
}

// ListRolesForPermission returns the roles holding a permission. An unknown
// permission simply has no roles.
func (s *Service) ListRolesForPermission(ctx context.Context, permissionID string) ([]Role, error) {
	roles, err := s.repo.ListRolesForPermission(ctx, permissionID)
	if err != nil {
		return nil, err
	}
	return nonNil(roles), nil
}

// ListRoles returns all roles with permission counts, newest first.
func (s *Service) ListRoles(ctx context.Context) ([]RoleSummary, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	return nonNil(roles), nil
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, name string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errNameRequired
	}
	role, err := s.repo.CreateRole(ctx, name)
	if err != nil {
		return Role{}, roleError(err)
	}
	s.emit(ctx, audit.ActionCreate, audit.EntityRole, role.ID, map[string]any{"name": role.Name})
	return role, nil
}

// UpdateRole renames a role.
func (s *Service) UpdateRole(ctx context.Context, id, name string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errNameRequired
	}
	role, err := s.repo.UpdateRole(ctx, id, name)
	if err != nil {
		return Role{}, roleError(err)
	}
	s.emit(ctx, audit.ActionUpdate, audit.EntityRole, role.ID, map[string]any{"name": role.Name})
	return role, nil
}

// DeleteRole removes a role and its permission links.
func (s *Service) DeleteRole(ctx context.Context, id string) error {
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return roleError(err)
	}
	s.emit(ctx, audit.ActionDelete, audit.EntityRole, id, nil)
	return nil
}

// ListPermissionsForRole returns the permissions linked to a role. An
// unknown role simply has no permissions.
func (s *Service) ListPermissionsForRole(ctx context.Context, roleID string) ([]Permission, error) {
	perms, err := s.repo.ListPermissionsForRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return nonNil(perms), nil
}

// SetRolePermissions replaces the whole permission set of a role.
func (s *Service) SetRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return errRoleIDRequired
	}
	ids := dedupe(permissionIDs)
	if err := s.repo.SetRolePermissions(ctx, roleID, ids); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return errRoleMissing
		}
		return err
	}
	s.emit(ctx, audit.ActionSetPermissions, audit.EntityRole, roleID, map[string]any{"permissionIds": ids})
	return nil
}

func (s *Service) emit(ctx context.Context, action, entity, id string, meta map[string]any) {
	audit.Emit(ctx, s.recorder, s.logger, audit.Entry{
		Action:   action,
		Entity:   entity,
		EntityID: id,
		Meta:     meta,
	})
}

func permissionError(err error) error {
	switch {
	case errors.Is(err, ErrDuplicateName):
		return errPermissionNameTaken
	case errors.Is(err, shared.ErrNotFound):
		return errPermissionMissing
	default:
		return err
	}
}

func roleError(err error) error {
	switch {
	case errors.Is(err, ErrDuplicateName):
		return errRoleNameTaken
	case errors.Is(err, shared.ErrNotFound):
		return errRoleMissing
	default:
		return err
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
