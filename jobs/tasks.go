package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-rbac/internal/audit"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditRecord persists one audit entry.
	TaskAuditRecord = "audit:record"
	// TaskAuditPurge deletes audit entries past the retention window.
	TaskAuditPurge = "audit:purge"
)

// AuditPurgePayload carries the retention window in seconds.
type AuditPurgePayload struct {
	RetentionSeconds int64 `json:"retentionSeconds"`
}

// Retention returns the payload window as a duration.
func (p AuditPurgePayload) Retention() time.Duration {
	return time.Duration(p.RetentionSeconds) * time.Second
}

// NewAuditRecordTask constructs an Asynq task for entry.
func NewAuditRecordTask(entry audit.Entry) (*asynq.Task, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRecord, data, asynq.MaxRetry(5)), nil
}

// NewAuditPurgeTask constructs the periodic retention task.
func NewAuditPurgeTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(AuditPurgePayload{RetentionSeconds: int64(retention / time.Second)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditPurge, data), nil
}
