package reminder

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Store struct {
	DB *gorm.DB
}

type UpsertParams struct {
	TaskID    uint64
	TaskTitle *string
	UserID    uint64
	UserEmail *string
	DueAt     time.Time
	FireAt    time.Time
}

// UpsertActive schedules a reminder for a task. A single statement against the
// partial unique index on (task_id) for active rows, so two concurrent
// ingestions of the same task cannot produce two active jobs: the later one
// resets the existing row to a fresh pending schedule.
func (s *Store) UpsertActive(ctx context.Context, p UpsertParams) (uint64, error) {
	var id uint64
	err := s.DB.WithContext(ctx).Raw(`
insert into jobs (task_id, task_title, user_id, user_email, due_at, fire_at, status, attempts, created_at, updated_at)
values (?, ?, ?, ?, ?, ?, 'pending', 0, now(), now())
on conflict (task_id) where status in ('pending','claimed')
do update set
  task_title = excluded.task_title,
  user_id    = excluded.user_id,
  user_email = excluded.user_email,
  due_at     = excluded.due_at,
  fire_at    = excluded.fire_at,
  status     = 'pending',
  attempts   = 0,
  claimed_by = null,
  claimed_at = null,
  last_error = null,
  updated_at = now()
returning id;
`, p.TaskID, p.TaskTitle, p.UserID, p.UserEmail, p.DueAt, p.FireAt).Scan(&id).Error
	return id, err
}

// ClaimDue atomically claims up to limit due pending jobs for workerID.
// FOR UPDATE SKIP LOCKED ensures concurrent workers partition the due set
// disjointly; a loser simply claims fewer (or zero) rows.
func (s *Store) ClaimDue(ctx context.Context, now time.Time, limit int, workerID string) ([]Job, error) {
	var claimed []Job
	err := s.DB.WithContext(ctx).Raw(`
with due as (
  select id
  from jobs
  where status = 'pending' and fire_at <= ?
  order by fire_at asc
  for update skip locked
  limit ?
)
update jobs
set status = 'claimed', claimed_by = ?, claimed_at = ?, updated_at = now()
where id in (select id from due)
returning *;
`, now, limit, workerID, now).Scan(&claimed).Error
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// MarkSent completes a claimed job. Returns false when the job was no longer
// claimed (superseded or cancelled while the send was in flight).
func (s *Store) MarkSent(ctx context.Context, id uint64) (bool, error) {
	res := s.DB.WithContext(ctx).Exec(`
update jobs
set status = 'sent', claimed_by = null, claimed_at = null, last_error = null, updated_at = now()
where id = ? and status = 'claimed'`, id)
	return res.RowsAffected > 0, res.Error
}

// RetryLater releases a claimed job back to pending with a delayed fire_at.
func (s *Store) RetryLater(ctx context.Context, id uint64, attempts int, fireAt time.Time, errMsg string) (bool, error) {
	res := s.DB.WithContext(ctx).Exec(`
update jobs
set status = 'pending',
    attempts = ?,
    fire_at = ?,
    claimed_by = null,
    claimed_at = null,
    last_error = ?,
    updated_at = now()
where id = ? and status = 'claimed'`, attempts, fireAt, errMsg, id)
	return res.RowsAffected > 0, res.Error
}

// MarkFailed terminates a claimed job once its retries are exhausted,
// or immediately for jobs that can never succeed.
func (s *Store) MarkFailed(ctx context.Context, id uint64, attempts int, errMsg string) (bool, error) {
	res := s.DB.WithContext(ctx).Exec(`
update jobs
set status = 'failed', attempts = ?, claimed_by = null, claimed_at = null, last_error = ?, updated_at = now()
where id = ? and status = 'claimed'`, attempts, errMsg, id)
	return res.RowsAffected > 0, res.Error
}

// ReclaimStale releases jobs stuck in claimed past the staleness threshold
// (worker crashed mid-dispatch). They become claimable again on this tick.
func (s *Store) ReclaimStale(ctx context.Context, now time.Time, olderThan time.Duration) (int64, error) {
	res := s.DB.WithContext(ctx).Exec(`
update jobs
set status = 'pending', claimed_by = null, claimed_at = null, updated_at = now()
where status = 'claimed' and claimed_at < ?`, now.Add(-olderThan))
	return res.RowsAffected, res.Error
}

// CancelActive cancels any pending or claimed job for the task. An in-flight
// attempt is not interrupted; its outcome record will see the status change.
func (s *Store) CancelActive(ctx context.Context, taskID uint64) (int64, error) {
	res := s.DB.WithContext(ctx).Exec(`
update jobs
set status = 'cancelled', updated_at = now()
where task_id = ? and status in ('pending','claimed')`, taskID)
	return res.RowsAffected, res.Error
}
