package reminder

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidDueDate = errors.New("invalid due date")

// ParseDueDate accepts an RFC3339 timestamp or a bare date.
// Bare dates mean midnight UTC of that day.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDueDate
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, ErrInvalidDueDate
}

// FireTime is the moment the reminder becomes due for dispatch.
// A fire time already in the past is fine: the job fires on the next tick.
func FireTime(dueAt time.Time, leadMinutes int) time.Time {
	if leadMinutes < 0 {
		leadMinutes = 0
	}
	return dueAt.Add(-time.Duration(leadMinutes) * time.Minute)
}
