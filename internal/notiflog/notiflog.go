package notiflog

import (
	"context"
	"time"

	"gorm.io/gorm"
)

const (
	OutcomeSent   = "sent"   // email delivered
	OutcomeQueued = "queued" // no address, in-app feed only
	OutcomeFailed = "failed" // email delivery failed
)

// Entry is one dispatch attempt outcome. Append-only: there is no update or
// delete on this table.
type Entry struct {
	ID      uint64 `gorm:"primaryKey"`
	JobID   uint64 `gorm:"not null"`
	UserID  uint64 `gorm:"index;not null"`
	TaskID  uint64 `gorm:"not null"`
	Message string `gorm:"type:text;not null"`

	Outcome string `gorm:"type:text;not null"`
	// Superseded marks an outcome for a job that was cancelled or replaced
	// while the attempt was in flight, so the feed can suppress it.
	Superseded bool `gorm:"not null;default:false"`

	SentAt   *time.Time `gorm:"type:timestamptz"`
	FailedAt *time.Time `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (Entry) TableName() string { return "notifications" }

type Store struct {
	DB *gorm.DB
}

func (s *Store) Append(ctx context.Context, e *Entry) error {
	return s.DB.WithContext(ctx).Create(e).Error
}

func (s *Store) ListForUser(ctx context.Context, userID uint64, limit, offset int, includeSuperseded bool) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	q := s.DB.WithContext(ctx).Where("user_id = ?", userID)
	if !includeSuperseded {
		q = q.Where("superseded = false")
	}
	var rows []Entry
	err := q.Order("created_at desc").Limit(limit).Offset(offset).Find(&rows).Error
	return rows, err
}
