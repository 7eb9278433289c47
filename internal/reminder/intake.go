package reminder

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"nudge/internal/prefs"
)

var ErrMissingTaskID = errors.New("missing task id")

// Event is an inbound task-change notification from the task-event source.
type Event struct {
	TaskID  uint64  `json:"taskId"`
	UserID  uint64  `json:"userId"`
	Title   *string `json:"title"`
	DueDate *string `json:"dueDate"`
	Deleted bool    `json:"deleted"`
}

type IntakeStore interface {
	UpsertActive(ctx context.Context, p UpsertParams) (uint64, error)
	CancelActive(ctx context.Context, taskID uint64) (int64, error)
}

type Resolver interface {
	Resolve(ctx context.Context, userID uint64) prefs.Settings
}

type Result struct {
	JobID   uint64
	FireAt  time.Time
	Skipped bool
	Reason  string
}

type Intake struct {
	Store IntakeStore
	Prefs Resolver
	Log   *zap.Logger
}

// Ingest schedules (or reschedules) a reminder for the event's task.
// Tasks without a due date and users with reminders disabled are skipped,
// not errors. An unparsable due date is returned to the caller.
func (in *Intake) Ingest(ctx context.Context, ev Event) (Result, error) {
	if ev.TaskID == 0 {
		return Result{}, ErrMissingTaskID
	}

	if ev.Deleted {
		return in.CancelTask(ctx, ev.TaskID)
	}

	if ev.DueDate == nil || strings.TrimSpace(*ev.DueDate) == "" {
		return Result{Skipped: true, Reason: "no due date"}, nil
	}

	dueAt, err := ParseDueDate(*ev.DueDate)
	if err != nil {
		return Result{}, err
	}

	userID := ev.UserID
	if userID == 0 {
		userID = 1
	}

	st := in.Prefs.Resolve(ctx, userID)
	if !st.Enabled {
		return Result{Skipped: true, Reason: "reminders disabled"}, nil
	}

	fireAt := FireTime(dueAt, st.LeadMinutes)

	id, err := in.Store.UpsertActive(ctx, UpsertParams{
		TaskID:    ev.TaskID,
		TaskTitle: ev.Title,
		UserID:    userID,
		UserEmail: st.Email,
		DueAt:     dueAt,
		FireAt:    fireAt,
	})
	if err != nil {
		return Result{}, err
	}

	in.Log.Info("reminder scheduled",
		zap.Uint64("job_id", id),
		zap.Uint64("task_id", ev.TaskID),
		zap.Time("fire_at", fireAt),
	)
	return Result{JobID: id, FireAt: fireAt}, nil
}

// CancelTask cancels any active job for a deleted task.
func (in *Intake) CancelTask(ctx context.Context, taskID uint64) (Result, error) {
	n, err := in.Store.CancelActive(ctx, taskID)
	if err != nil {
		return Result{}, err
	}
	if n > 0 {
		in.Log.Info("reminder cancelled", zap.Uint64("task_id", taskID))
	}
	return Result{Skipped: true, Reason: "cancelled"}, nil
}
