package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/odyssey-rbac/internal/platform/db"
)

// WindowParams selects one page of the timeline.
type WindowParams struct {
	From   time.Time
	To     time.Time
	Actor  string
	Entity string
	Action string
	Offset int
	Limit  int
}

// Store persists audit entries in audit_logs.
type Store struct {
	db db.DBTX
}

// NewStore returns a new Store.
func NewStore(conn db.DBTX) *Store {
	return &Store{db: conn}
}

// Record persists the entry.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if s == nil {
		return errors.New("audit store not initialised")
	}
	if entry.Action == "" || entry.Entity == "" || entry.EntityID == "" {
		return errors.New("audit entry requires action/entity/entity_id")
	}
	meta := entry.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	var at *time.Time
	if !entry.At.IsZero() {
		at = &entry.At
	}
	_, err = s.db.Exec(ctx, `INSERT INTO audit_logs (actor_id, actor_email, action, entity, entity_id, meta, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))`,
		entry.ActorID, entry.ActorEmail, entry.Action, entry.Entity, entry.EntityID, metaJSON, at)
	return err
}

// Window returns entries newest first.
func (s *Store) Window(ctx context.Context, params WindowParams) ([]Entry, error) {
	var (
		conditions []string
		args       []any
	)
	add := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}
	if !params.From.IsZero() {
		add("occurred_at >= $%d", params.From)
	}
	if !params.To.IsZero() {
		add("occurred_at < $%d", params.To)
	}
	if params.Actor != "" {
		add("(actor_id = $%[1]d OR LOWER(actor_email) = LOWER($%[1]d))", params.Actor)
	}
	if params.Entity != "" {
		add("entity = $%d", params.Entity)
	}
	if params.Action != "" {
		add("action = $%d", params.Action)
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`SELECT id, actor_id, actor_email, action, entity, entity_id, meta, occurred_at
		FROM audit_logs %s
		ORDER BY occurred_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var (
			entry Entry
			meta  []byte
		)
		if err := row.Scan(&entry.ID, &entry.ActorID, &entry.ActorEmail, &entry.Action, &entry.Entity, &entry.EntityID, &meta, &entry.At); err != nil {
			return Entry{}, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &entry.Meta); err != nil {
				return Entry{}, fmt.Errorf("audit: decode meta: %w", err)
			}
		}
		return entry, nil
	})
}

// Purge removes entries recorded before cutoff and reports how many went.
func (s *Store) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM audit_logs WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
