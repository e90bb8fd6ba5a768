package rbac

import (
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/odyssey-rbac/internal/platform/httpx"
)

// Guard authenticates requests before they reach the RBAC handlers.
type Guard interface {
	RequireAuth(next http.Handler) http.Handler
}

func respondFailure(logger *slog.Logger, w http.ResponseWriter, op string, err error, fallback string) {
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err, fallback)
}
