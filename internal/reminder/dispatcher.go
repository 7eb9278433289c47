package reminder

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"nudge/internal/metrics"
	"nudge/internal/notiflog"
)

type DispatchStore interface {
	ReclaimStale(ctx context.Context, now time.Time, olderThan time.Duration) (int64, error)
	ClaimDue(ctx context.Context, now time.Time, limit int, workerID string) ([]Job, error)
	MarkSent(ctx context.Context, id uint64) (bool, error)
	RetryLater(ctx context.Context, id uint64, attempts int, fireAt time.Time, errMsg string) (bool, error)
	MarkFailed(ctx context.Context, id uint64, attempts int, errMsg string) (bool, error)
}

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type FeedWriter interface {
	Append(ctx context.Context, e *notiflog.Entry) error
}

// Dispatcher is the periodic tick that delivers due reminders. Any number of
// instances may run the same loop against the same database; exclusivity per
// job comes entirely from the store's atomic claim.
type Dispatcher struct {
	WorkerID string
	Store    DispatchStore
	Feed     FeedWriter
	Mailer   Mailer
	Prefs    Resolver
	Limiter  *rate.Limiter
	Log      *zap.Logger

	Tick        time.Duration
	BatchSize   int
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
	StaleAfter  time.Duration
	MailTimeout time.Duration
}

func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.Tick)
	defer ticker.Stop()

	d.Log.Info("dispatcher started",
		zap.String("worker_id", d.WorkerID),
		zap.Duration("tick", d.Tick),
	)

	for {
		select {
		case <-ctx.Done():
			d.Log.Info("dispatcher stopped", zap.String("worker_id", d.WorkerID))
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

// tick never aborts the process: storage errors are logged and the tick is
// simply retried on the next interval.
func (d *Dispatcher) tick(ctx context.Context) {
	now := time.Now().UTC()

	if n, err := d.Store.ReclaimStale(ctx, now, d.StaleAfter); err != nil {
		d.Log.Error("reclaim stale claims failed", zap.Error(err))
	} else if n > 0 {
		metrics.JobsReclaimed.Add(float64(n))
		d.Log.Warn("reclaimed stale claims", zap.Int64("count", n))
	}

	jobs, err := d.Store.ClaimDue(ctx, now, d.BatchSize, d.WorkerID)
	if err != nil {
		d.Log.Error("claim due jobs failed", zap.Error(err))
		return
	}

	for _, job := range jobs {
		d.dispatch(ctx, job)
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, job Job) {
	metrics.JobsClaimed.Inc()

	// a row like this can never succeed, don't burn retries on it
	if job.TaskID == 0 || job.FireAt.IsZero() {
		_, _ = d.Store.MarkFailed(ctx, job.ID, job.Attempts, "malformed job row")
		metrics.RemindersFailed.Inc()
		d.Log.Error("malformed job row", zap.Uint64("job_id", job.ID))
		return
	}

	to := job.UserEmail
	if to == nil {
		// destination may be refreshed at send time when the snapshot is empty
		if st := d.Prefs.Resolve(ctx, job.UserID); st.Email != nil {
			to = st.Email
		}
	}

	var sendErr error
	if to != nil {
		sendErr = d.send(ctx, *to, job)
	}

	now := time.Now().UTC()
	message := feedMessage(job)

	if sendErr != nil {
		attempts := job.Attempts + 1
		var stillClaimed bool
		var err error
		if attempts >= d.MaxAttempts {
			stillClaimed, err = d.Store.MarkFailed(ctx, job.ID, attempts, sendErr.Error())
			d.Log.Error("reminder delivery failed permanently",
				zap.Uint64("job_id", job.ID),
				zap.Int("attempts", attempts),
				zap.Error(sendErr),
			)
		} else {
			next := now.Add(RetryDelay(d.BackoffBase, d.BackoffMax, attempts))
			stillClaimed, err = d.Store.RetryLater(ctx, job.ID, attempts, next, sendErr.Error())
			d.Log.Warn("reminder delivery failed, will retry",
				zap.Uint64("job_id", job.ID),
				zap.Int("attempts", attempts),
				zap.Time("next_fire_at", next),
				zap.Error(sendErr),
			)
		}
		if err != nil {
			d.Log.Error("record failure outcome failed", zap.Uint64("job_id", job.ID), zap.Error(err))
			// claim state unknown; don't mislabel the feed entry
			stillClaimed = true
		}
		metrics.RemindersFailed.Inc()
		d.appendEntry(ctx, job, message, notiflog.OutcomeFailed, !stillClaimed, nil, &now)
		return
	}

	stillClaimed, err := d.Store.MarkSent(ctx, job.ID)
	if err != nil {
		// claim remains held; the stale reclaim will make the job
		// deliverable again, at-least-once
		d.Log.Error("record success outcome failed", zap.Uint64("job_id", job.ID), zap.Error(err))
		return
	}

	outcome := notiflog.OutcomeSent
	if to == nil {
		outcome = notiflog.OutcomeQueued
	}
	metrics.RemindersSent.Inc()
	d.appendEntry(ctx, job, message, outcome, !stillClaimed, &now, nil)

	d.Log.Info("reminder dispatched",
		zap.Uint64("job_id", job.ID),
		zap.Uint64("task_id", job.TaskID),
		zap.String("outcome", outcome),
	)
}

func (d *Dispatcher) send(ctx context.Context, to string, job Job) error {
	if d.Limiter != nil {
		if err := d.Limiter.Wait(ctx); err != nil {
			return err
		}
	}
	mctx, cancel := context.WithTimeout(ctx, d.MailTimeout)
	defer cancel()
	return d.Mailer.Send(mctx, to, mailSubject(job), mailBody(job))
}

// appendEntry writes the feed row for every attempt, success or not: the
// in-app feed must reflect the reminder even when email delivery failed.
func (d *Dispatcher) appendEntry(ctx context.Context, job Job, message, outcome string, superseded bool, sentAt, failedAt *time.Time) {
	e := &notiflog.Entry{
		JobID:      job.ID,
		UserID:     job.UserID,
		TaskID:     job.TaskID,
		Message:    message,
		Outcome:    outcome,
		Superseded: superseded,
		SentAt:     sentAt,
		FailedAt:   failedAt,
	}
	if err := d.Feed.Append(ctx, e); err != nil {
		d.Log.Error("append notification entry failed", zap.Uint64("job_id", job.ID), zap.Error(err))
	}
}

func feedMessage(job Job) string {
	if job.TaskTitle != nil && *job.TaskTitle != "" {
		return fmt.Sprintf("Reminder: %s", *job.TaskTitle)
	}
	return fmt.Sprintf("Reminder for task %d", job.TaskID)
}

func mailSubject(job Job) string {
	if job.TaskTitle != nil && *job.TaskTitle != "" {
		return fmt.Sprintf("Reminder: %s", *job.TaskTitle)
	}
	return fmt.Sprintf("Reminder for task %d", job.TaskID)
}

func mailBody(job Job) string {
	title := fmt.Sprintf("task %d", job.TaskID)
	if job.TaskTitle != nil && *job.TaskTitle != "" {
		title = *job.TaskTitle
	}
	return fmt.Sprintf("Your task %q is due at %s.", title, job.DueAt.Format(time.RFC1123))
}
