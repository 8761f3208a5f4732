// Package jobs implements the content-addressed job/worker queue: job
// entities, status/result state machines, a worker registry, and
// trigger-keyed lookups.
package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is a Job's lifecycle state.
type Status string

const (
	StatusUnknown   Status = "unknown"
	StatusWaiting   Status = "waiting"
	StatusDepwait   Status = "depwait"
	StatusScheduled Status = "scheduled"
	StatusRunning   Status = "running"
	StatusDone      Status = "done"
	StatusTerminated Status = "terminated"
	StatusStarving  Status = "starving"
)

// Result is orthogonal to Status; it becomes meaningful only once Status ==
// StatusDone, though PENDING variants may be set while still RUNNING.
type Result string

const (
	ResultUnknown         Result = "unknown"
	ResultSuccess         Result = "success"
	ResultFailure         Result = "failure"
	ResultMaybeSuccess    Result = "maybe-success"
	ResultMaybeFailure    Result = "maybe-failure"
	ResultSuccessPending  Result = "success-pending"
	ResultFailurePending  Result = "failure-pending"
	ResultFailureDependency Result = "failure-dependency"
)

// Job is one unit of out-of-band work (an OS image build, a package
// rebuild, ...), keyed by a content-addressed trigger UUID.
type Job struct {
	UUID             uuid.UUID
	Status           Status
	Module           string
	Kind             string
	Trigger          uuid.UUID
	Version          string
	Architecture     string
	CreatedTime      time.Time
	AssignedTime     time.Time
	FinishedTime     time.Time
	Priority         int
	WorkerId         uuid.UUID
	Result           Result
	LatestLogExcerpt string
	Data             []byte // opaque JSON
}

// Title is computed on read from Module+Kind rather than stored, since it
// is always derivable and storing it would just invite drift.
func (j *Job) Title() string {
	return j.Module + "/" + j.Kind
}

// WorkerStatus is a Worker's liveness/assignment state.
type WorkerStatus string

const (
	WorkerStatusUnknown WorkerStatus = "unknown"
	WorkerStatusActive  WorkerStatus = "active"
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusMissing WorkerStatus = "missing"
	WorkerStatusDead    WorkerStatus = "dead"
)

// Worker is a registered build/image machine.
type Worker struct {
	UUID        uuid.UUID
	MachineName string
	Owner       string
	CreatedTime time.Time
	Accepts     []string
	Status      WorkerStatus
	Enabled     bool
	LastPing    time.Time
	LastJob     uuid.UUID
}

// Store is the persistence contract the jobs engine needs; internal/store
// provides the Postgres-backed implementation.
type Store interface {
	UpsertJob(ctx context.Context, j *Job) error
	DeleteJob(ctx context.Context, id uuid.UUID) error
	JobByUUID(ctx context.Context, id uuid.UUID) (*Job, error)
	JobsByTrigger(ctx context.Context, trigger uuid.UUID) ([]*Job, error)
	JobByTriggerVersionArch(ctx context.Context, trigger uuid.UUID, version, arch string) (*Job, error)
	PendingJobs(ctx context.Context, module string) ([]*Job, error)
	CountPendingJobs(ctx context.Context, module string) (int, error)

	UpsertWorker(ctx context.Context, w *Worker) error
	WorkerByUUID(ctx context.Context, id uuid.UUID) (*Worker, error)
}

// Engine implements the Job/Worker operations over a Store.
type Engine struct {
	Store Store
	Now   func() time.Time // overridable for tests
}

// NewEngine constructs an Engine with a real-time clock.
func NewEngine(store Store) *Engine {
	return &Engine{Store: store, Now: time.Now}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// AddJob creates a new Job in StatusWaiting with a random UUID and the
// current time as CreatedTime.
func (e *Engine) AddJob(ctx context.Context, module, kind string, trigger uuid.UUID, seed *Job) (*Job, error) {
	j := &Job{
		UUID:        uuid.New(),
		Status:      StatusWaiting,
		Module:      module,
		Kind:        kind,
		Trigger:     trigger,
		CreatedTime: e.now(),
		Architecture: "any",
		Result:      ResultUnknown,
	}
	if seed != nil {
		if seed.Version != "" {
			j.Version = seed.Version
		}
		if seed.Architecture != "" {
			j.Architecture = seed.Architecture
		}
		if seed.Priority != 0 {
			j.Priority = seed.Priority
		}
		if seed.Data != nil {
			j.Data = seed.Data
		}
	}
	if err := e.Store.UpsertJob(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

// UpdateJob upserts by uuid.
func (e *Engine) UpdateJob(ctx context.Context, j *Job) error {
	return e.Store.UpsertJob(ctx, j)
}

// JobByUUID looks a job up by id.
func (e *Engine) JobByUUID(ctx context.Context, id uuid.UUID) (*Job, error) {
	return e.Store.JobByUUID(ctx, id)
}

// JobsByTrigger returns jobs for trigger ordered by priority then
// CreatedTime descending (the store is expected to apply that ordering).
func (e *Engine) JobsByTrigger(ctx context.Context, trigger uuid.UUID) ([]*Job, error) {
	return e.Store.JobsByTrigger(ctx, trigger)
}

// JobByTriggerVersionArch looks up the unique job for (trigger, version,
// arch).
func (e *Engine) JobByTriggerVersionArch(ctx context.Context, trigger uuid.UUID, version, arch string) (*Job, error) {
	return e.Store.JobByTriggerVersionArch(ctx, trigger, version, arch)
}

// PendingJobs returns jobs whose status != StatusDone, optionally filtered
// to one module (empty string: all modules).
func (e *Engine) PendingJobs(ctx context.Context, module string) ([]*Job, error) {
	return e.Store.PendingJobs(ctx, module)
}

// CountPendingJobs counts pending jobs for module (empty: all modules).
func (e *Engine) CountPendingJobs(ctx context.Context, module string) (int, error) {
	return e.Store.CountPendingJobs(ctx, module)
}

// SetJobResult sets a job's Result, independent of Status.
func (e *Engine) SetJobResult(ctx context.Context, id uuid.UUID, result Result) error {
	j, err := e.Store.JobByUUID(ctx, id)
	if err != nil {
		return err
	}
	j.Result = result
	return e.Store.UpsertJob(ctx, j)
}

// SetJobStatus transitions a job's Status, stamping AssignedTime/
// FinishedTime as the state machine requires (WAITING -> SCHEDULED ->
// RUNNING -> DONE|TERMINATED, with DEPWAIT/STARVING side-states).
func (e *Engine) SetJobStatus(ctx context.Context, id uuid.UUID, status Status) error {
	j, err := e.Store.JobByUUID(ctx, id)
	if err != nil {
		return err
	}
	now := e.now()
	switch status {
	case StatusScheduled:
		if j.AssignedTime.IsZero() {
			j.AssignedTime = now
		}
	case StatusRunning:
		if j.AssignedTime.IsZero() {
			j.AssignedTime = now
		}
	case StatusDone, StatusTerminated:
		j.FinishedTime = now
	}
	j.Status = status
	return e.Store.UpsertJob(ctx, j)
}

// SetJobLogExcerpt updates a job's LatestLogExcerpt.
func (e *Engine) SetJobLogExcerpt(ctx context.Context, id uuid.UUID, excerpt string) error {
	j, err := e.Store.JobByUUID(ctx, id)
	if err != nil {
		return err
	}
	j.LatestLogExcerpt = excerpt
	return e.Store.UpsertJob(ctx, j)
}

// DeleteJob removes a job.
func (e *Engine) DeleteJob(ctx context.Context, id uuid.UUID) error {
	return e.Store.DeleteJob(ctx, id)
}

// UpsertWorker creates or updates a worker record.
func (e *Engine) UpsertWorker(ctx context.Context, w *Worker) error {
	if w.UUID == uuid.Nil {
		w.UUID = uuid.New()
	}
	if w.CreatedTime.IsZero() {
		w.CreatedTime = e.now()
	}
	return e.Store.UpsertWorker(ctx, w)
}

// UpdateWorkerPing sets lastPing = now() for workerId.
func (e *Engine) UpdateWorkerPing(ctx context.Context, workerId uuid.UUID) error {
	w, err := e.Store.WorkerByUUID(ctx, workerId)
	if err != nil {
		return err
	}
	w.LastPing = e.now()
	return e.Store.UpsertWorker(ctx, w)
}
