package prefs

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultLeadMinutes = 30

// Preference is the stored per-user reminder configuration. All fields are
// optional; missing or malformed values fall back to defaults at resolve time.
type Preference struct {
	UserID         uint64  `gorm:"primaryKey"`
	Email          *string `gorm:"type:text"`
	ReminderOffset *int    `gorm:"column:reminder_offset"` // minutes before due
	Enabled        *bool

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// Settings is what the scheduler actually consumes.
type Settings struct {
	LeadMinutes int
	Email       *string
	Enabled     bool
}

type Store struct {
	DB *gorm.DB
}

// Resolve never fails: absence of a preference row, a lookup error, or
// malformed fields all mean defaults (30-minute lead, no address, enabled).
func (s *Store) Resolve(ctx context.Context, userID uint64) Settings {
	var p Preference
	if err := s.DB.WithContext(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		return settingsFrom(nil)
	}
	return settingsFrom(&p)
}

func settingsFrom(p *Preference) Settings {
	out := Settings{LeadMinutes: DefaultLeadMinutes, Enabled: true}
	if p == nil {
		return out
	}
	if p.ReminderOffset != nil && *p.ReminderOffset >= 0 {
		out.LeadMinutes = *p.ReminderOffset
	}
	if p.Email != nil && *p.Email != "" {
		out.Email = p.Email
	}
	if p.Enabled != nil {
		out.Enabled = *p.Enabled
	}
	return out
}

func (s *Store) Get(ctx context.Context, userID uint64) (Preference, error) {
	var p Preference
	err := s.DB.WithContext(ctx).First(&p, "user_id = ?", userID).Error
	if err == gorm.ErrRecordNotFound {
		return Preference{UserID: userID}, nil
	}
	return p, err
}

// Put upserts the preference row for the user.
func (s *Store) Put(ctx context.Context, p Preference) (Preference, error) {
	p.UpdatedAt = time.Now()
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "reminder_offset", "enabled", "updated_at"}),
	}).Create(&p).Error
	return p, err
}
