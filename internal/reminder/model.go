package reminder

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusClaimed   Status = "claimed"
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Job is one scheduled reminder. At most one pending/claimed job may exist
// per task_id, enforced by a partial unique index.
type Job struct {
	ID uint64 `gorm:"primaryKey"`

	TaskID    uint64  `gorm:"index;not null"`
	TaskTitle *string `gorm:"type:text"`

	// destination snapshotted at schedule time
	UserID    uint64  `gorm:"index;not null"`
	UserEmail *string `gorm:"type:text"`

	DueAt  time.Time `gorm:"type:timestamptz;not null"`
	FireAt time.Time `gorm:"type:timestamptz;not null"`

	Status   Status `gorm:"type:text;index;not null;default:'pending'"`
	Attempts int    `gorm:"not null;default:0"`

	ClaimedBy *string    `gorm:"type:text"`
	ClaimedAt *time.Time `gorm:"type:timestamptz"`

	LastError *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}
