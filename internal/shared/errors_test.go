package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicErrorKeepsKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewPublicError(ErrNotFound, "Role not found"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Role not found", UserSafeMessage(err, "fallback"))
	assert.Equal(t, "fallback", UserSafeMessage(errors.New("raw"), "fallback"))
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	ctx := ContextWithIdentity(context.Background(), Identity{UserID: "admin", Email: "admin@rbac.it"})
	id, ok := IdentityFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "admin", id.UserID)
}
