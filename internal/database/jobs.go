package database

import (
	"context"
	"fmt"
	"time"

	"photo-jobs/internal/jobs"
)

// JobStore persists job records in the jobs table. It implements the
// scheduler's Store and PriorityUpdater.
type JobStore struct {
	d *Database
}

// Insert stores a new record and returns its id.
func (s *JobStore) Insert(ctx context.Context, rec jobs.Record) (int64, error) {
	done := observeQuery("insert_job")

	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := s.d.db.ExecContext(ctx,
		"INSERT INTO jobs (job_type, job_options, run_at, job_priority) VALUES (?, ?, ?, ?)",
		rec.Type, rec.Options, unixOrZero(rec.RunAt), int(rec.Priority),
	)
	if err != nil {
		done(err)
		return 0, fmt.Errorf("failed to insert job: %w", err)
	}
	id, err := result.LastInsertId()
	done(err)
	return id, err
}

// Delete removes a record. Deleting a missing record is not an error.
func (s *JobStore) Delete(ctx context.Context, id int64) error {
	done := observeQuery("delete_job")

	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.d.db.ExecContext(ctx, "DELETE FROM jobs WHERE id = ?", id)
	done(err)
	return err
}

// AllPending returns every stored record in insertion order.
func (s *JobStore) AllPending(ctx context.Context) ([]jobs.Record, error) {
	done := observeQuery("all_pending_jobs")

	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.d.db.QueryContext(ctx,
		"SELECT id, job_type, job_options, run_at, job_priority FROM jobs ORDER BY id")
	if err != nil {
		done(err)
		return nil, err
	}
	defer rows.Close()

	var out []jobs.Record
	for rows.Next() {
		var rec jobs.Record
		var runAt int64
		var priority int
		if err := rows.Scan(&rec.ID, &rec.Type, &rec.Options, &runAt, &priority); err != nil {
			done(err)
			return nil, err
		}
		if runAt != 0 {
			rec.RunAt = time.Unix(runAt, 0)
		}
		rec.Priority = jobs.Priority(priority)
		out = append(out, rec)
	}
	err = rows.Err()
	done(err)
	return out, err
}

// UpdatePriority changes the stored priority of a record.
func (s *JobStore) UpdatePriority(ctx context.Context, id int64, p jobs.Priority) error {
	done := observeQuery("update_job_priority")

	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.d.db.ExecContext(ctx, "UPDATE jobs SET job_priority = ? WHERE id = ?", int(p), id)
	done(err)
	return err
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
