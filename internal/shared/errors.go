package shared

import "errors"

// Error taxonomy shared by every module. Package level errors wrap one of
// these so the HTTP layer can map them with errors.Is.
var (
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthenticated indicates a missing, invalid or expired credential.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates an authenticated caller without the required rights.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a duplicate or a disallowed change to a protected identity.
	ErrConflict = errors.New("conflict")
	// ErrTooManyAttempts indicates a throttled login.
	ErrTooManyAttempts = errors.New("too many attempts")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// PublicError carries a human readable message for the caller while keeping
// the taxonomy error reachable through errors.Is.
type PublicError struct {
	Kind    error
	Message string
}

func (e *PublicError) Error() string {
	return e.Message
}

func (e *PublicError) Unwrap() error {
	return e.Kind
}

// NewPublicError builds a PublicError of the given kind.
func NewPublicError(kind error, message string) error {
	return &PublicError{Kind: kind, Message: message}
}

// UserSafeMessage returns the message that may be shown to the caller.
// Errors outside the taxonomy collapse to fallback.
func UserSafeMessage(err error, fallback string) string {
	var pub *PublicError
	if errors.As(err, &pub) {
		return pub.Message
	}
	return fallback
}
