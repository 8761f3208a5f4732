package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	jobs    map[uuid.UUID]*Job
	workers map[uuid.UUID]*Worker
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[uuid.UUID]*Job), workers: make(map[uuid.UUID]*Worker)}
}

func (s *memStore) UpsertJob(_ context.Context, j *Job) error {
	cp := *j
	s.jobs[j.UUID] = &cp
	return nil
}

func (s *memStore) DeleteJob(_ context.Context, id uuid.UUID) error {
	delete(s.jobs, id)
	return nil
}

func (s *memStore) JobByUUID(_ context.Context, id uuid.UUID) (*Job, error) {
	j, ok := s.jobs[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *j
	return &cp, nil
}

func (s *memStore) JobsByTrigger(_ context.Context, trigger uuid.UUID) ([]*Job, error) {
	var out []*Job
	for _, j := range s.jobs {
		if j.Trigger == trigger {
			out = append(out, j)
		}
	}
	return out, nil
}

func (s *memStore) JobByTriggerVersionArch(_ context.Context, trigger uuid.UUID, version, arch string) (*Job, error) {
	for _, j := range s.jobs {
		if j.Trigger == trigger && j.Version == version && j.Architecture == arch {
			return j, nil
		}
	}
	return nil, errNotFound
}

func (s *memStore) PendingJobs(_ context.Context, module string) ([]*Job, error) {
	var out []*Job
	for _, j := range s.jobs {
		if j.Status == StatusDone {
			continue
		}
		if module != "" && j.Module != module {
			continue
		}
		out = append(out, j)
	}
	return out, nil
}

func (s *memStore) CountPendingJobs(ctx context.Context, module string) (int, error) {
	jobs, err := s.PendingJobs(ctx, module)
	return len(jobs), err
}

func (s *memStore) UpsertWorker(_ context.Context, w *Worker) error {
	cp := *w
	s.workers[w.UUID] = &cp
	return nil
}

func (s *memStore) WorkerByUUID(_ context.Context, id uuid.UUID) (*Worker, error) {
	w, ok := s.workers[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *w
	return &cp, nil
}

var errNotFound = &notFoundError{}

type notFoundError struct{}

func (*notFoundError) Error() string { return "not found" }

func TestJobStateMachine(t *testing.T) {
	store := newMemStore()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := &Engine{Store: store, Now: func() time.Time { return clock }}

	trigger := uuid.New()
	j, err := e.AddJob(context.Background(), "spears", "migration", trigger, nil)
	require.NoError(t, err)
	require.Equal(t, StatusWaiting, j.Status)
	require.Equal(t, "any", j.Architecture)
	require.Equal(t, ResultUnknown, j.Result)

	require.NoError(t, e.SetJobStatus(context.Background(), j.UUID, StatusScheduled))
	scheduled, err := e.JobByUUID(context.Background(), j.UUID)
	require.NoError(t, err)
	require.False(t, scheduled.AssignedTime.IsZero())
	require.True(t, scheduled.FinishedTime.IsZero())

	clock = clock.Add(time.Minute)
	require.NoError(t, e.SetJobStatus(context.Background(), j.UUID, StatusRunning))
	clock = clock.Add(time.Minute)
	require.NoError(t, e.SetJobStatus(context.Background(), j.UUID, StatusDone))
	require.NoError(t, e.SetJobResult(context.Background(), j.UUID, ResultSuccess))

	done, err := e.JobByUUID(context.Background(), j.UUID)
	require.NoError(t, err)
	require.Equal(t, StatusDone, done.Status)
	require.Equal(t, ResultSuccess, done.Result)
	require.True(t, done.FinishedTime.After(done.AssignedTime) || done.FinishedTime.Equal(done.AssignedTime))
	require.True(t, done.AssignedTime.After(done.CreatedTime) || done.AssignedTime.Equal(done.CreatedTime))
}

func TestJobTitleComputed(t *testing.T) {
	j := &Job{Module: "spears", Kind: "migration"}
	require.Equal(t, "spears/migration", j.Title())
}

func TestWorkerPing(t *testing.T) {
	store := newMemStore()
	e := NewEngine(store)
	w := &Worker{MachineName: "builder1", Accepts: []string{"spears"}}
	require.NoError(t, e.UpsertWorker(context.Background(), w))
	require.NotEqual(t, uuid.Nil, w.UUID)

	before := w.LastPing
	require.NoError(t, e.UpdateWorkerPing(context.Background(), w.UUID))
	after, err := store.WorkerByUUID(context.Background(), w.UUID)
	require.NoError(t, err)
	require.True(t, after.LastPing.After(before))
}
