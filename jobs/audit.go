package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-rbac/internal/audit"
	jobmetrics "github.com/odyssey-erp/odyssey-rbac/internal/jobs"
)

// AuditStore is the persistence the audit job writes through.
type AuditStore interface {
	Record(ctx context.Context, entry audit.Entry) error
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditJob handles audit record and purge tasks.
type AuditJob struct {
	Store   AuditStore
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewAuditJob initialises the audit task handlers.
func NewAuditJob(store AuditStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditJob {
	return &AuditJob{
		Store:   store,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// HandleRecord persists one entry.
func (j *AuditJob) HandleRecord(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Store == nil {
		return errors.New("audit record: handler not configured")
	}
	var entry audit.Entry
	if err := json.Unmarshal(t.Payload(), &entry); err != nil {
		return fmt.Errorf("audit record: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskAuditRecord)
	defer func() {
		err = tracker.End(err)
	}()
	if err := j.Store.Record(ctx, entry); err != nil {
		j.logger().Error("audit record failed",
			slog.String("action", entry.Action),
			slog.String("entity", entry.Entity),
			slog.Any("error", err))
		return err
	}
	return nil
}

// HandlePurge deletes entries older than the payload retention.
func (j *AuditJob) HandlePurge(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Store == nil {
		return errors.New("audit purge: handler not configured")
	}
	var payload AuditPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("audit purge: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.RetentionSeconds <= 0 {
		return fmt.Errorf("audit purge: retention must be positive: %w", asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskAuditPurge)
	defer func() {
		err = tracker.End(err)
	}()
	cutoff := j.now().Add(-payload.Retention())
	removed, err := j.Store.Purge(ctx, cutoff)
	if err != nil {
		j.logger().Error("audit purge failed", slog.Any("error", err))
		return err
	}
	j.Metrics.AddPurged(removed)
	j.logger().Info("audit purge completed",
		slog.Time("cutoff", cutoff),
		slog.Int64("removed", removed))
	return nil
}

func (j *AuditJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func (j *AuditJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

// TaskEnqueuer submits tasks. *asynq.Client satisfies it.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AuditEnqueuer is an audit.Recorder that hands entries to the worker.
type AuditEnqueuer struct {
	client TaskEnqueuer
}

// NewAuditEnqueuer wraps client.
func NewAuditEnqueuer(client TaskEnqueuer) *AuditEnqueuer {
	return &AuditEnqueuer{client: client}
}

// Record implements audit.Recorder.
func (e *AuditEnqueuer) Record(ctx context.Context, entry audit.Entry) error {
	task, err := NewAuditRecordTask(entry)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}
