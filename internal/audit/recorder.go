package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/odyssey-erp/odyssey-rbac/internal/shared"
)

// Recorder accepts audit entries. Implementations either persist them
// directly (Store) or hand them to the background worker.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Emit stamps entry with the caller identity and time, then records it.
// A failing recorder is logged and never fails the mutation it describes.
func Emit(ctx context.Context, rec Recorder, logger *slog.Logger, entry Entry) {
	if rec == nil {
		return
	}
	if id, ok := shared.IdentityFromContext(ctx); ok {
		if entry.ActorID == "" {
			entry.ActorID = id.UserID
		}
		if entry.ActorEmail == "" {
			entry.ActorEmail = id.Email
		}
	}
	if entry.ActorID == "" {
		entry.ActorID = "system"
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	if err := rec.Record(ctx, entry); err != nil && logger != nil {
		logger.Warn("audit record",
			slog.String("action", entry.Action),
			slog.String("entity", entry.Entity),
			slog.String("entity_id", entry.EntityID),
			slog.Any("error", err))
	}
}
