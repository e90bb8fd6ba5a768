package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/odyssey-erp/odyssey-rbac/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-rbac/internal/shared"
)

const bearerPrefix = "Bearer "

// TokenVerifier decodes bearer tokens.
type TokenVerifier interface {
	Verify(token string) (Claims, error)
}

// Gate authenticates bearer tokens and restricts user management to the
// primary admin.
type Gate struct {
	tokens     TokenVerifier
	adminEmail string
	logger     *slog.Logger
}

// NewGate builds a Gate. adminEmail is compared case-insensitively.
func NewGate(tokens TokenVerifier, adminEmail string, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		tokens:     tokens,
		adminEmail: NormalizeEmail(adminEmail),
		logger:     logger,
	}
}

// Authenticate verifies token and returns the identity it carries.
func (g *Gate) Authenticate(token string) (shared.Identity, error) {
	if token == "" {
		return shared.Identity{}, ErrTokenMalformed
	}
	claims, err := g.tokens.Verify(token)
	if err != nil {
		return shared.Identity{}, err
	}
	return shared.Identity{UserID: claims.UserID, Email: claims.Email}, nil
}

// IsPrimaryAdmin reports whether id belongs to the configured primary admin.
func (g *Gate) IsPrimaryAdmin(id shared.Identity) bool {
	email := NormalizeEmail(id.Email)
	return email != "" && email == g.adminEmail
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}

// RequireAuth rejects requests without a valid bearer token and stores the
// decoded identity in the request context.
func (g *Gate) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r.Header.Get("Authorization"))
		if !ok {
			httpx.Problem(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized), "Missing token")
			return
		}
		id, err := g.Authenticate(token)
		if err != nil {
			g.logger.Debug("reject bearer token", slog.String("path", r.URL.Path), slog.Any("error", err))
			httpx.Problem(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized), "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), id)))
	})
}

// RequirePrimaryAdmin must run after RequireAuth.
func (g *Gate) RequirePrimaryAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := shared.IdentityFromContext(r.Context())
		if !ok {
			httpx.Problem(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized), "Missing token")
			return
		}
		if !g.IsPrimaryAdmin(id) {
			httpx.Problem(w, http.StatusForbidden, http.StatusText(http.StatusForbidden), "Primary admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}
