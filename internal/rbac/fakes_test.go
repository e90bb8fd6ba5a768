package rbac

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/odyssey-erp/odyssey-rbac/internal/audit"
)

var errForeignKey = errors.New("insert or update on table \"role_permissions\" violates foreign key constraint")

type memoryRepo struct {
	mu    sync.Mutex
	seq   int
	perms map[string]Permission
	roles map[string]Role
	links map[string]map[string]struct{}
	err   error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		perms: map[string]Permission{},
		roles: map[string]Role{},
		links: map[string]map[string]struct{}{},
	}
}

func (m *memoryRepo) nextID(prefix string) (string, time.Time) {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq), time.Date(2026, 1, 1, 0, 0, m.seq, 0, time.UTC)
}

func (m *memoryRepo) ListPermissions(context.Context) ([]Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []Permission
	for _, p := range m.perms {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryRepo) permissionNameTaken(name, except string) bool {
	for id, p := range m.perms {
		if p.Name == name && id != except {
			return true
		}
	}
	return false
}

func (m *memoryRepo) roleNameTaken(name, except string) bool {
	for id, r := range m.roles {
		if r.Name == name && id != except {
			return true
		}
	}
	return false
}

func (m *memoryRepo) CreatePermission(_ context.Context, name, description string) (Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return Permission{}, m.err
	}
	if m.permissionNameTaken(name, "") {
		return Permission{}, ErrDuplicateName
	}
	id, at := m.nextID("perm")
	p := Permission{ID: id, Name: name, Description: description, CreatedAt: at}
	m.perms[id] = p
	return p, nil
}

func (m *memoryRepo) UpdatePermission(_ context.Context, id, name, description string) (Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.perms[id]
	if !ok {
		return Permission{}, ErrNotFound
	}
	if m.permissionNameTaken(name, id) {
		return Permission{}, ErrDuplicateName
	}
	p.Name, p.Description = name, description
	m.perms[id] = p
	return p, nil
}

func (m *memoryRepo) DeletePermission(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.perms[id]; !ok {
		return ErrNotFound
	}
	delete(m.perms, id)
	for _, set := range m.links {
		delete(set, id)
	}
	return nil
}

func (m *memoryRepo) ListRolesForPermission(_ context.Context, permissionID string) ([]Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Role
	for roleID, set := range m.links {
		if _, ok := set[permissionID]; ok {
			out = append(out, m.roles[roleID])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryRepo) ListRoles(context.Context) ([]RoleSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []RoleSummary
	for id, r := range m.roles {
		out = append(out, RoleSummary{Role: r, PermissionCount: len(m.links[id])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryRepo) CreateRole(_ context.Context, name string) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.roleNameTaken(name, "") {
		return Role{}, ErrDuplicateName
	}
	id, at := m.nextID("role")
	r := Role{ID: id, Name: name, CreatedAt: at}
	m.roles[id] = r
	return r, nil
}

func (m *memoryRepo) UpdateRole(_ context.Context, id, name string) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[id]
	if !ok {
		return Role{}, ErrNotFound
	}
	if m.roleNameTaken(name, id) {
		return Role{}, ErrDuplicateName
	}
	r.Name = name
	m.roles[id] = r
	return r, nil
}

func (m *memoryRepo) DeleteRole(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[id]; !ok {
		return ErrNotFound
	}
	delete(m.roles, id)
	delete(m.links, id)
	return nil
}

func (m *memoryRepo) ListPermissionsForRole(_ context.Context, roleID string) ([]Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Permission
	for permID := range m.links[roleID] {
		out = append(out, m.perms[permID])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SetRolePermissions mirrors the store contract: nothing changes unless every
// id is known.
func (m *memoryRepo) SetRolePermissions(_ context.Context, roleID string, permissionIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.roles[roleID]; !ok {
		return ErrNotFound
	}
	next := map[string]struct{}{}
	for _, id := range permissionIDs {
		if _, ok := m.perms[id]; !ok {
			return errForeignKey
		}
		next[id] = struct{}{}
	}
	m.links[roleID] = next
	return nil
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *recordingAudit) Record(_ context.Context, e audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *recordingAudit) all() []audit.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Entry(nil), r.entries...)
}

type passGuard struct{}

func (passGuard) RequireAuth(next http.Handler) http.Handler { return next }
