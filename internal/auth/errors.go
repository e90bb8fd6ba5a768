package auth

import (
	"fmt"

	"github.com/odyssey-erp/odyssey-rbac/internal/shared"
)

// Token verification failures. All of them collapse to a 401 at the HTTP
// boundary; the distinction is kept for logs and tests.
var (
	ErrTokenMalformed = fmt.Errorf("%w: malformed token", shared.ErrUnauthenticated)
	ErrTokenSignature = fmt.Errorf("%w: invalid token signature", shared.ErrUnauthenticated)
	ErrTokenExpired   = fmt.Errorf("%w: token expired", shared.ErrUnauthenticated)
)

// Store level failures.
var (
	ErrUserNotFound   = fmt.Errorf("%w: user", shared.ErrNotFound)
	ErrDuplicateEmail = fmt.Errorf("%w: email already registered", shared.ErrConflict)
)

// Messages surfaced to callers.
var (
	errInvalidInput      = shared.NewPublicError(shared.ErrValidation, "Email and password must be valid")
	errInvalidPassword   = shared.NewPublicError(shared.ErrValidation, "Password must be valid")
	errInvalidUserID     = shared.NewPublicError(shared.ErrValidation, "User id is required")
	errInvalidLogin      = shared.NewPublicError(shared.ErrInvalidCredentials, "Invalid credentials")
	errThrottled         = shared.NewPublicError(shared.ErrTooManyAttempts, "Too many failed login attempts, try again later")
	errReservedEmail     = shared.NewPublicError(shared.ErrConflict, "Email is reserved for the primary admin")
	errEmailRegistered   = shared.NewPublicError(shared.ErrConflict, "Email already registered")
	errUserMissing       = shared.NewPublicError(shared.ErrNotFound, "User not found")
	errPrimaryAdminGuard = shared.NewPublicError(shared.ErrConflict, "Primary admin cannot be removed")
)
