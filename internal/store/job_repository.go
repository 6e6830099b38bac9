package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/sceneforged/sceneforged/internal/apperr"
)

type JobRepository struct {
	db *sql.DB
}

// Submit inserts a new job, or returns the existing non-terminal job for
// the same file_path (spec §4.8: "a submission for an already-queued path
// returns the existing job id"), enforced by a unique partial index on
// file_path where status in (queued, processing).
func (r *JobRepository) Submit(j *Job) (existing bool, err error) {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.ScheduledFor.IsZero() {
		j.ScheduledFor = time.Now()
	}
	query := `INSERT INTO jobs (id, file_path, status, priority, max_retries, scheduled_for, source)
		VALUES ($1, $2, 'queued', $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	err = r.db.QueryRow(query, j.ID, j.FilePath, j.Priority, j.MaxRetries, j.ScheduledFor, j.Source).
		Scan(&j.ID, &j.CreatedAt, &j.UpdatedAt)
	if isUniqueViolation(err) {
		prior, getErr := r.GetByFilePath(j.FilePath)
		if getErr != nil {
			return false, getErr
		}
		*j = *prior
		return true, nil
	}
	return false, err
}

func (r *JobRepository) GetByFilePath(path string) (*Job, error) {
	j := &Job{}
	query := `SELECT id, file_path, status, rule_ref, priority, retry_count, max_retries, scheduled_for,
		lease_token, leased_at, progress, current_step, error, source, created_at, updated_at
		FROM jobs WHERE file_path = $1 AND status IN ('queued', 'processing')
		ORDER BY created_at DESC LIMIT 1`
	err := r.scanRow(r.db.QueryRow(query, path), j)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("job", path)
	}
	return j, err
}

func (r *JobRepository) GetByID(id uuid.UUID) (*Job, error) {
	j := &Job{}
	query := `SELECT id, file_path, status, rule_ref, priority, retry_count, max_retries, scheduled_for,
		lease_token, leased_at, progress, current_step, error, source, created_at, updated_at
		FROM jobs WHERE id = $1`
	err := r.scanRow(r.db.QueryRow(query, id), j)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("job", id.String())
	}
	return j, err
}

// DequeueNext implements spec §4.7's critical atomic dequeue: in a single
// statement it selects the highest-priority queued-and-due job (tiebreak:
// priority desc, then created_at asc), marks it processing with a fresh
// lease, and returns it. FOR UPDATE SKIP LOCKED on the inner select is what
// makes this serializable under concurrent workers — two workers racing
// the same query can never lock the same row, so no job is ever handed to
// two callers (spec §8 property 4).
func (r *JobRepository) DequeueNext(workerID string, leaseTTL time.Duration) (*Job, error) {
	_ = workerID // correlation only; not part of the persisted Job shape (§3)
	lease := uuid.New()
	query := `UPDATE jobs SET status = 'processing', lease_token = $1, leased_at = NOW(), updated_at = NOW()
		WHERE id = (
			SELECT id FROM jobs
			WHERE status = 'queued' AND scheduled_for <= NOW()
			ORDER BY priority DESC, created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, file_path, status, rule_ref, priority, retry_count, max_retries, scheduled_for,
			lease_token, leased_at, progress, current_step, error, source, created_at, updated_at`
	j := &Job{}
	err := r.scanRow(r.db.QueryRow(query, lease), j)
	if err == sql.ErrNoRows {
		return nil, nil // empty queue, not an error
	}
	return j, err
}

// RefreshLease extends a processing job's lease, called by the executor at
// each stage boundary (spec §4.8 step 3).
func (r *JobRepository) RefreshLease(id uuid.UUID, leaseToken uuid.UUID) error {
	res, err := r.db.Exec(`UPDATE jobs SET leased_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND lease_token = $2 AND status = 'processing'`, id, leaseToken)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return apperr.Conflict("lease no longer held")
	}
	return err
}

func (r *JobRepository) UpdateProgress(id uuid.UUID, progress int, step string) error {
	_, err := r.db.Exec(`UPDATE jobs SET progress = $1, current_step = $2, updated_at = NOW() WHERE id = $3`, progress, step, id)
	return err
}

func (r *JobRepository) Complete(id uuid.UUID) error {
	_, err := r.db.Exec(`UPDATE jobs SET status = 'completed', progress = 100, updated_at = NOW() WHERE id = $1`, id)
	return err
}

// Requeue schedules a failed job for retry at scheduledFor with an
// incremented retry_count (spec §4.8 step 5). It always requeues; deciding
// that retries are exhausted and marking the job failed is left to Fail.
func (r *JobRepository) Requeue(id uuid.UUID, scheduledFor time.Time, errMsg string) error {
	_, err := r.db.Exec(`UPDATE jobs SET status = 'queued', scheduled_for = $1, retry_count = retry_count + 1,
		error = $2, lease_token = NULL, leased_at = NULL, updated_at = NOW() WHERE id = $3`, scheduledFor, errMsg, id)
	return err
}

func (r *JobRepository) Fail(id uuid.UUID, errMsg string) error {
	_, err := r.db.Exec(`UPDATE jobs SET status = 'failed', error = $1, lease_token = NULL, leased_at = NULL, updated_at = NOW() WHERE id = $2`, errMsg, id)
	return err
}

func (r *JobRepository) Cancel(id uuid.UUID) error {
	_, err := r.db.Exec(`UPDATE jobs SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status IN ('queued', 'processing')`, id)
	return err
}

// SweepExpiredLeases implements spec §4.7's lease-expiry recovery: any
// processing job whose lease has aged past ttl is returned to queued with
// retry_count incremented, the only mechanism that recovers a crashed
// worker's job. Returns the ids moved.
func (r *JobRepository) SweepExpiredLeases(ttl time.Duration) ([]uuid.UUID, error) {
	query := `UPDATE jobs SET status = 'queued', retry_count = retry_count + 1,
		lease_token = NULL, leased_at = NULL, updated_at = NOW()
		WHERE status = 'processing' AND leased_at < NOW() - ($1 * INTERVAL '1 second')
		RETURNING id`
	rows, err := r.db.Query(query, ttl.Seconds())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *JobRepository) scanRow(row *sql.Row, j *Job) error {
	return row.Scan(&j.ID, &j.FilePath, &j.Status, &j.RuleRef, &j.Priority, &j.RetryCount, &j.MaxRetries,
		&j.ScheduledFor, &j.LeaseToken, &j.LeasedAt, &j.Progress, &j.CurrentStep, &j.Error, &j.Source,
		&j.CreatedAt, &j.UpdatedAt)
}
