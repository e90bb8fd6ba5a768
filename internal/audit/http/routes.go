package audithttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/odyssey-rbac/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-rbac/internal/shared"
)

const rateLimit = 30
const rateWindow = time.Minute

// MountRoutes registers the audit timeline endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(rateLimit, rateWindow,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests), "Too many requests")
		}),
	)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuth, h.guard.RequirePrimaryAdmin, limiter)
		r.Get("/events", h.handleTimeline)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if id, ok := shared.IdentityFromContext(r.Context()); ok && id.UserID != "" {
		return "user:" + id.UserID, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
