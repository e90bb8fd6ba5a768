package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-rbac/internal/audit"
	jobmetrics "github.com/odyssey-erp/odyssey-rbac/internal/jobs"
)

type fakeAuditStore struct {
	recorded []audit.Entry
	cutoff   time.Time
	removed  int64
	err      error
}

func (f *fakeAuditStore) Record(_ context.Context, entry audit.Entry) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, entry)
	return nil
}

func (f *fakeAuditStore) Purge(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.removed, f.err
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func TestAuditEnqueuerRoundTrip(t *testing.T) {
	enq := &fakeEnqueuer{}
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	entry := audit.Entry{
		ActorID:  "admin",
		Action:   audit.ActionCreate,
		Entity:   audit.EntityRole,
		EntityID: "r-1",
		Meta:     map[string]any{"name": "editor"},
		At:       at,
	}
	require.NoError(t, NewAuditEnqueuer(enq).Record(context.Background(), entry))
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TaskAuditRecord, enq.tasks[0].Type())

	store := &fakeAuditStore{}
	job := NewAuditJob(store, nil, nil)
	require.NoError(t, job.HandleRecord(context.Background(), enq.tasks[0]))
	require.Len(t, store.recorded, 1)
	got := store.recorded[0]
	assert.Equal(t, "admin", got.ActorID)
	assert.Equal(t, "r-1", got.EntityID)
	assert.Equal(t, "editor", got.Meta["name"])
	assert.True(t, at.Equal(got.At))
}

func TestAuditEnqueuerPropagatesError(t *testing.T) {
	enq := &fakeEnqueuer{err: errors.New("redis down")}
	err := NewAuditEnqueuer(enq).Record(context.Background(), audit.Entry{Action: audit.ActionDelete})
	assert.EqualError(t, err, "redis down")
}

func TestHandleRecordSkipsRetryOnBadPayload(t *testing.T) {
	job := NewAuditJob(&fakeAuditStore{}, nil, nil)
	err := job.HandleRecord(context.Background(), asynq.NewTask(TaskAuditRecord, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleRecordReturnsStoreError(t *testing.T) {
	reg := prometheus.NewRegistry()
	job := NewAuditJob(&fakeAuditStore{err: errors.New("db down")}, nil, jobmetrics.NewMetrics(reg))
	task, err := NewAuditRecordTask(audit.Entry{Action: audit.ActionCreate})
	require.NoError(t, err)
	assert.EqualError(t, job.HandleRecord(context.Background(), task), "db down")
}

func TestHandlePurgeUsesRetention(t *testing.T) {
	now := time.Date(2026, 6, 1, 3, 0, 0, 0, time.UTC)
	store := &fakeAuditStore{removed: 4}
	job := NewAuditJob(store, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	job.clock = func() time.Time { return now }

	task, err := NewAuditPurgeTask(48 * time.Hour)
	require.NoError(t, err)
	require.NoError(t, job.HandlePurge(context.Background(), task))
	assert.Equal(t, now.Add(-48*time.Hour), store.cutoff)
}

func TestHandlePurgeRejectsNonPositiveRetention(t *testing.T) {
	job := NewAuditJob(&fakeAuditStore{}, nil, nil)
	payload, err := json.Marshal(AuditPurgePayload{})
	require.NoError(t, err)
	err = job.HandlePurge(context.Background(), asynq.NewTask(TaskAuditPurge, payload))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestUnconfiguredJob(t *testing.T) {
	var job *AuditJob
	assert.Error(t, job.HandleRecord(context.Background(), asynq.NewTask(TaskAuditRecord, nil)))
	assert.Error(t, job.HandlePurge(context.Background(), asynq.NewTask(TaskAuditPurge, nil)))
}
