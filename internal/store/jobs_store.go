package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/lkhq/laniakea/internal/jobs"
)

// ErrNotFound is returned by lookup methods when no row matches.
var ErrNotFound = errors.New("store: not found")

const jobColumns = `uuid, status, module, kind, trigger, version, architecture,
	created_time, assigned_time, finished_time, priority, worker_id, result,
	latest_log_excerpt, data`

func scanJob(row pgx.Row) (*jobs.Job, error) {
	var j jobs.Job
	var assigned, finished nullTime
	var workerID uuid.NullUUID
	err := row.Scan(&j.UUID, &j.Status, &j.Module, &j.Kind, &j.Trigger, &j.Version,
		&j.Architecture, &j.CreatedTime, &assigned, &finished, &j.Priority,
		&workerID, &j.Result, &j.LatestLogExcerpt, &j.Data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "store: scan job")
	}
	j.AssignedTime = assigned.Time
	j.FinishedTime = finished.Time
	j.WorkerId = workerID.UUID
	return &j, nil
}

// UpsertJob implements jobs.Store.
func (s *Store) UpsertJob(ctx context.Context, j *jobs.Job) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (uuid) DO UPDATE SET
			status = EXCLUDED.status,
			module = EXCLUDED.module,
			kind = EXCLUDED.kind,
			trigger = EXCLUDED.trigger,
			version = EXCLUDED.version,
			architecture = EXCLUDED.architecture,
			assigned_time = EXCLUDED.assigned_time,
			finished_time = EXCLUDED.finished_time,
			priority = EXCLUDED.priority,
			worker_id = EXCLUDED.worker_id,
			result = EXCLUDED.result,
			latest_log_excerpt = EXCLUDED.latest_log_excerpt,
			data = EXCLUDED.data`,
		j.UUID, j.Status, j.Module, j.Kind, j.Trigger, j.Version, j.Architecture,
		j.CreatedTime, toNullTime(j.AssignedTime), toNullTime(j.FinishedTime),
		j.Priority, toNullUUID(j.WorkerId), j.Result, j.LatestLogExcerpt, j.Data)
	if err != nil {
		return errors.Wrap(err, "store: upsert job")
	}
	return nil
}

// DeleteJob implements jobs.Store.
func (s *Store) DeleteJob(ctx context.Context, id uuid.UUID) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM jobs WHERE uuid = $1`, id)
	if err != nil {
		return errors.Wrap(err, "store: delete job")
	}
	return nil
}

// JobByUUID implements jobs.Store.
func (s *Store) JobByUUID(ctx context.Context, id uuid.UUID) (*jobs.Job, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE uuid = $1`, id)
	return scanJob(row)
}

// JobsByTrigger implements jobs.Store, ordered by priority desc then
// created_time desc for dispatch fairness.
func (s *Store) JobsByTrigger(ctx context.Context, trigger uuid.UUID) ([]*jobs.Job, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE trigger = $1
		ORDER BY priority DESC, created_time DESC`, trigger)
	if err != nil {
		return nil, errors.Wrap(err, "store: jobs by trigger")
	}
	defer rows.Close()
	return collectJobs(rows)
}

// JobByTriggerVersionArch implements jobs.Store.
func (s *Store) JobByTriggerVersionArch(ctx context.Context, trigger uuid.UUID, version, arch string) (*jobs.Job, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs
		WHERE trigger = $1 AND version = $2 AND architecture = $3`, trigger, version, arch)
	return scanJob(row)
}

// PendingJobs implements jobs.Store (module == "" matches all modules).
func (s *Store) PendingJobs(ctx context.Context, module string) ([]*jobs.Job, error) {
	var rows pgx.Rows
	var err error
	if module == "" {
		rows, err = s.Pool.Query(ctx, `SELECT `+jobColumns+` FROM jobs
			WHERE status <> $1 ORDER BY priority DESC, created_time`, jobs.StatusDone)
	} else {
		rows, err = s.Pool.Query(ctx, `SELECT `+jobColumns+` FROM jobs
			WHERE status <> $1 AND module = $2 ORDER BY priority DESC, created_time`, jobs.StatusDone, module)
	}
	if err != nil {
		return nil, errors.Wrap(err, "store: pending jobs")
	}
	defer rows.Close()
	return collectJobs(rows)
}

// CountPendingJobs implements jobs.Store.
func (s *Store) CountPendingJobs(ctx context.Context, module string) (int, error) {
	var count int
	var err error
	if module == "" {
		err = s.Pool.QueryRow(ctx, `SELECT count(*) FROM jobs WHERE status <> $1`, jobs.StatusDone).Scan(&count)
	} else {
		err = s.Pool.QueryRow(ctx, `SELECT count(*) FROM jobs WHERE status <> $1 AND module = $2`,
			jobs.StatusDone, module).Scan(&count)
	}
	if err != nil {
		return 0, errors.Wrap(err, "store: count pending jobs")
	}
	return count, nil
}

func collectJobs(rows pgx.Rows) ([]*jobs.Job, error) {
	var out []*jobs.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

const workerColumns = `uuid, machine_name, owner, created_time, accepts,
	status, enabled, last_ping, last_job`

// UpsertWorker implements jobs.Store.
func (s *Store) UpsertWorker(ctx context.Context, w *jobs.Worker) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO workers (`+workerColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (uuid) DO UPDATE SET
			machine_name = EXCLUDED.machine_name,
			owner = EXCLUDED.owner,
			accepts = EXCLUDED.accepts,
			status = EXCLUDED.status,
			enabled = EXCLUDED.enabled,
			last_ping = EXCLUDED.last_ping,
			last_job = EXCLUDED.last_job`,
		w.UUID, w.MachineName, w.Owner, w.CreatedTime, w.Accepts, w.Status,
		w.Enabled, toNullTime(w.LastPing), toNullUUID(w.LastJob))
	if err != nil {
		return errors.Wrap(err, "store: upsert worker")
	}
	return nil
}

// WorkerByUUID implements jobs.Store.
func (s *Store) WorkerByUUID(ctx context.Context, id uuid.UUID) (*jobs.Worker, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+workerColumns+` FROM workers WHERE uuid = $1`, id)
	var w jobs.Worker
	var lastPing nullTime
	var lastJob uuid.NullUUID
	err := row.Scan(&w.UUID, &w.MachineName, &w.Owner, &w.CreatedTime, &w.Accepts,
		&w.Status, &w.Enabled, &lastPing, &lastJob)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "store: scan worker")
	}
	w.LastPing = lastPing.Time
	w.LastJob = lastJob.UUID
	return &w, nil
}

var _ jobs.Store = (*Store)(nil)
