package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/odyssey-rbac/internal/platform/db"
)

// Repository persists permissions, roles and their links.
type Repository interface {
	ListPermissions(ctx context.Context) ([]Permission, error)
	CreatePermission(ctx context.Context, name, description string) (Permission, error)
	UpdatePermission(ctx context.Context, id, name, description string) (Permission, error)
	DeletePermission(ctx context.Context, id string) error
	ListRolesForPermission(ctx context.Context, permissionID string) ([]Role, error)

	ListRoles(ctx context.Context) ([]RoleSummary, error)
	CreateRole(ctx context.Context, name string) (Role, error)
	UpdateRole(ctx context.Context, id, name string) (Role, error)
	DeleteRole(ctx context.Context, id string) error
	ListPermissionsForRole(ctx context.Context, roleID string) ([]Permission, error)
	SetRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error
}

// Conn is satisfied by *pgxpool.Pool.
type Conn interface {
	db.DBTX
	db.TxBeginner
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	conn Conn
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(conn Conn) *PGRepository {
	return &PGRepository{conn: conn}
}

func scanPermission(row pgx.CollectableRow) (Permission, error) {
	var p Permission
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt)
	return p, err
}

func scanRole(row pgx.CollectableRow) (Role, error) {
	var r Role
	err := row.Scan(&r.ID, &r.Name, &r.CreatedAt)
	return r, err
}

// storeError translates constraint and no-rows errors.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case db.IsUniqueViolation(err):
		return ErrDuplicateName
	default:
		return err
	}
}

// ListPermissions returns every permission, newest first.
func (r *PGRepository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.conn.Query(ctx, `SELECT id, name, description, created_at FROM permissions ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanPermission)
}

// CreatePermission inserts a permission.
func (r *PGRepository) CreatePermission(ctx context.Context, name, description string) (Permission, error) {
	var p Permission
	err := r.conn.QueryRow(ctx, `INSERT INTO permissions (id, name, description)
VALUES ($1, $2, $3)
RETURNING id, name, description, created_at`, uuid.NewString(), name, description).
		Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt)
	return p, storeError(err)
}

// UpdatePermission renames and redescribes a permission.
func (r *PGRepository) UpdatePermission(ctx context.Context, id, name, description string) (Permission, error) {
	var p Permission
	err := r.conn.QueryRow(ctx, `UPDATE permissions SET name = $2, description = $3
WHERE id = $1
RETURNING id, name, description, created_at`, id, name, description).
		Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt)
	return p, storeError(err)
}

// DeletePermission removes a permission; its role links cascade.
func (r *PGRepository) DeletePermission(ctx context.Context, id string) error {
	return r.deleteByID(ctx, `DELETE FROM permissions WHERE id = $1`, id)
}

// ListRolesForPermission returns roles linked to a permission by name.
func (r *PGRepository) ListRolesForPermission(ctx context.Context, permissionID string) ([]Role, error) {
	rows, err := r.conn.Query(ctx, `SELECT r.id, r.name, r.created_at
FROM roles r
JOIN role_permissions rp ON rp.role_id = r.id
WHERE rp.permission_id = $1
ORDER BY r.name`, permissionID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanRole)
}

// ListRoles returns every role with its permission count, newest first.
func (r *PGRepository) ListRoles(ctx context.Context) ([]RoleSummary, error) {
	rows, err := r.conn.Query(ctx, `SELECT r.id, r.name, r.created_at, COUNT(rp.permission_id)
FROM roles r
LEFT JOIN role_permissions rp ON rp.role_id = r.id
GROUP BY r.id, r.name, r.created_at
ORDER BY r.created_at DESC, r.id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (RoleSummary, error) {
		var s RoleSummary
		err := row.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.PermissionCount)
		return s, err
	})
}

// CreateRole inserts a role.
func (r *PGRepository) CreateRole(ctx context.Context, name string) (Role, error) {
	var role Role
	err := r.conn.QueryRow(ctx, `INSERT INTO roles (id, name) VALUES ($1, $2) RETURNING id, name, created_at`,
		uuid.NewString(), name).Scan(&role.ID, &role.Name, &role.CreatedAt)
	return role, storeError(err)
}

// UpdateRole renames a role.
func (r *PGRepository) UpdateRole(ctx context.Context, id, name string) (Role, error) {
	var role Role
	err := r.conn.QueryRow(ctx, `UPDATE roles SET name = $2 WHERE id = $1 RETURNING id, name, created_at`,
		id, name).Scan(&role.ID, &role.Name, &role.CreatedAt)
	return role, storeError(err)
}

// DeleteRole removes a role; its permission links cascade.
func (r *PGRepository) DeleteRole(ctx context.Context, id string) error {
	return r.deleteByID(ctx, `DELETE FROM roles WHERE id = $1`, id)
}

// ListPermissionsForRole returns permissions linked to a role by name.
func (r *PGRepository) ListPermissionsForRole(ctx context.Context, roleID string) ([]Permission, error) {
	rows, err := r.conn.Query(ctx, `SELECT p.id, p.name, p.description, p.created_at
FROM permissions p
JOIN role_permissions rp ON rp.permission_id = p.id
WHERE rp.role_id = $1
ORDER BY p.name`, roleID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanPermission)
}

// SetRolePermissions replaces the permission set of a role in one
// transaction. The role row is locked first, so concurrent calls for the
// same role apply one after another and the last to commit wins. Unknown
// permission ids fail the foreign key and roll everything back.
func (r *PGRepository) SetRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	ids := dedupe(permissionIDs)
	return db.WithTxOptions(ctx, r.conn, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		var locked string
		if err := tx.QueryRow(ctx, `SELECT id FROM roles WHERE id = $1 FOR UPDATE`, roleID).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("rbac: lock role: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			return fmt.Errorf("rbac: clear role permissions: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, `INSERT INTO role_permissions (role_id, permission_id)
SELECT $1, unnest($2::text[])
ON CONFLICT DO NOTHING`, roleID, ids); err != nil {
			return fmt.Errorf("rbac: insert role permissions: %w", err)
		}
		return nil
	})
}

func (r *PGRepository) deleteByID(ctx context.Context, query, id string) error {
	tag, err := r.conn.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// dedupe drops repeated ids, keeping first occurrences in order.
func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
