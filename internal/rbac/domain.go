package rbac

import "time"

// Permission represents an atomic capability.
type Permission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Role represents a named permission grouping.
type Role struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// RoleSummary is a role with the size of its permission set.
type RoleSummary struct {
	Role
	PermissionCount int `json:"permissionCount"`
}
