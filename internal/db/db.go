package db

import (
	"fmt"

	"nudge/internal/auth"
	"nudge/internal/notiflog"
	"nudge/internal/prefs"
	"nudge/internal/reminder"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&reminder.Job{},
		&notiflog.Entry{},
		&prefs.Preference{},
		&auth.User{},
	); err != nil {
		return err
	}

	// One active job per task. The upsert's ON CONFLICT targets this index,
	// which is what makes concurrent ingestions of the same task safe.
	if err := gdb.Exec(`
create unique index if not exists uq_jobs_active_task
on jobs(task_id)
where status in ('pending','claimed');
`).Error; err != nil {
		return err
	}

	stmts := []string{
		`create index if not exists idx_jobs_due on jobs(status, fire_at);`,
		`create index if not exists idx_jobs_claimed on jobs(status, claimed_at);`,
		`create index if not exists idx_notifications_feed on notifications(user_id, created_at desc);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
