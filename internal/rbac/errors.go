package rbac

import (
	"fmt"

	"github.com/odyssey-erp/odyssey-rbac/internal/shared"
)

// Store level failures.
var (
	ErrNotFound      = fmt.Errorf("%w: rbac record", shared.ErrNotFound)
	ErrDuplicateName = fmt.Errorf("%w: name already exists", shared.ErrConflict)
)

var (
	errNameRequired        = shared.NewPublicError(shared.ErrValidation, "Name is required")
	errInvalidBody         = shared.NewPublicError(shared.ErrValidation, "Invalid request body")
	errRoleIDRequired      = shared.NewPublicError(shared.ErrValidation, "Role id is required")
	errPermissionNameTaken = shared.NewPublicError(shared.ErrConflict, "Permission name already exists")
	errRoleNameTaken       = shared.NewPublicError(shared.ErrConflict, "Role name already exists")
	errPermissionMissing   = shared.NewPublicError(shared.ErrNotFound, "Permission not found")
	errRoleMissing         = shared.NewPublicError(shared.ErrNotFound, "Role not found")
)
