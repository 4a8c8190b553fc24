package integrity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/jobs"
	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleWarning(id domain.ID) domain.IntegrityWarning {
	return domain.IntegrityWarning{
		Book:            "MyBook",
		JournalID:       id,
		Cause:           "insert journal: boom",
		CompensationErr: "delete: boom",
		At:              time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &LogReporter{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	r.ReportIntegrityWarning(context.Background(), sampleWarning("j1"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ERROR", line["level"])
	assert.Equal(t, "can't delete txs for journal j1: ledger consistency got harmed", line["msg"])
	assert.Equal(t, "j1", line["journal_id"])
}

func TestMulti(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	Multi{a, nil, b}.ReportIntegrityWarning(context.Background(), sampleWarning("j1"))

	assert.Len(t, a.Warnings(), 1)
	assert.Len(t, b.Warnings(), 1)
}

func TestRedisReporter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	r := NewRedisReporter(client, "")
	ctx := context.Background()

	r.ReportIntegrityWarning(ctx, sampleWarning("j1"))
	r.ReportIntegrityWarning(ctx, sampleWarning("j2"))

	pending, err := r.Pending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, domain.ID("j2"), pending[0].JournalID, "newest first")

	limited, err := r.Pending(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, r.Resolve(ctx, pending[0]))
	rest, err := r.Pending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, domain.ID("j1"), rest[0].JournalID)
}

func TestRedisReporter_UnavailableDoesNotPanic(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	r := NewRedisReporter(client, "k")
	assert.NotPanics(t, func() {
		r.ReportIntegrityWarning(context.Background(), sampleWarning("j1"))
	})
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
	return &asynq.TaskInfo{ID: "task-1", Type: task.Type()}, nil
}

func TestQueueReporter(t *testing.T) {
	q := &fakeEnqueuer{}
	NewQueueReporter(q).ReportIntegrityWarning(context.Background(), sampleWarning("j1"))

	require.Len(t, q.tasks, 1)
	assert.Equal(t, jobs.TaskReconcileJournal, q.tasks[0].Type())

	var payload jobs.ReconcileJournalPayload
	require.NoError(t, json.Unmarshal(q.tasks[0].Payload(), &payload))
	assert.Equal(t, "MyBook", payload.Book)
	assert.Equal(t, domain.ID("j1"), payload.JournalID)

	failing := &fakeEnqueuer{err: errors.New("redis down")}
	assert.NotPanics(t, func() {
		NewQueueReporter(failing).ReportIntegrityWarning(context.Background(), sampleWarning("j2"))
	})
}

func TestQueueReporter_SkipsWarningsReconcileCannotSettle(t *testing.T) {
	q := &fakeEnqueuer{}
	w := sampleWarning("orig-1")
	w.Kind = domain.WarningRevertFailed

	NewQueueReporter(q).ReportIntegrityWarning(context.Background(), w)
	assert.Empty(t, q.tasks)

	w.Kind = domain.WarningStrayLegs
	NewQueueReporter(q).ReportIntegrityWarning(context.Background(), w)
	assert.Len(t, q.tasks, 1)
}

func TestLogReporter_RevertFailed(t *testing.T) {
	var buf bytes.Buffer
	r := &LogReporter{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}
	w := sampleWarning("orig-1")
	w.Kind = domain.WarningRevertFailed

	r.ReportIntegrityWarning(context.Background(), w)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "can't revert update of journal orig-1: ledger consistency got harmed", line["msg"])
	assert.Equal(t, domain.WarningRevertFailed, line["kind"])
}
