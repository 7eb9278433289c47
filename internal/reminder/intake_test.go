package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"nudge/internal/prefs"
)

type fakeIntakeStore struct {
	nextID    uint64
	active    map[uint64]UpsertParams // by task id
	activeIDs map[uint64]uint64
	cancelled []uint64
}

func newFakeIntakeStore() *fakeIntakeStore {
	return &fakeIntakeStore{
		active:    map[uint64]UpsertParams{},
		activeIDs: map[uint64]uint64{},
	}
}

func (f *fakeIntakeStore) UpsertActive(ctx context.Context, p UpsertParams) (uint64, error) {
	if id, ok := f.activeIDs[p.TaskID]; ok {
		f.active[p.TaskID] = p
		return id, nil
	}
	f.nextID++
	f.active[p.TaskID] = p
	f.activeIDs[p.TaskID] = f.nextID
	return f.nextID, nil
}

func (f *fakeIntakeStore) CancelActive(ctx context.Context, taskID uint64) (int64, error) {
	if _, ok := f.active[taskID]; !ok {
		return 0, nil
	}
	delete(f.active, taskID)
	delete(f.activeIDs, taskID)
	f.cancelled = append(f.cancelled, taskID)
	return 1, nil
}

type fakeResolver struct {
	settings map[uint64]prefs.Settings
}

func (f *fakeResolver) Resolve(ctx context.Context, userID uint64) prefs.Settings {
	if s, ok := f.settings[userID]; ok {
		return s
	}
	return prefs.Settings{LeadMinutes: prefs.DefaultLeadMinutes, Enabled: true}
}

func newIntake(store IntakeStore, resolver Resolver) *Intake {
	return &Intake{Store: store, Prefs: resolver, Log: zap.NewNop()}
}

func strptr(s string) *string { return &s }

func TestIngest_NoDueDateSkips(t *testing.T) {
	store := newFakeIntakeStore()
	in := newIntake(store, &fakeResolver{})

	res, err := in.Ingest(context.Background(), Event{TaskID: 42})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !res.Skipped {
		t.Fatal("expected skipped result")
	}
	if len(store.active) != 0 {
		t.Fatalf("expected no job, got %d", len(store.active))
	}
}

func TestIngest_InvalidDueDate(t *testing.T) {
	store := newFakeIntakeStore()
	in := newIntake(store, &fakeResolver{})

	_, err := in.Ingest(context.Background(), Event{TaskID: 42, DueDate: strptr("soon")})
	if !errors.Is(err, ErrInvalidDueDate) {
		t.Fatalf("expected ErrInvalidDueDate, got %v", err)
	}
	if len(store.active) != 0 {
		t.Fatal("expected no job created")
	}
}

func TestIngest_MissingTaskID(t *testing.T) {
	in := newIntake(newFakeIntakeStore(), &fakeResolver{})

	_, err := in.Ingest(context.Background(), Event{DueDate: strptr("2024-01-10")})
	if !errors.Is(err, ErrMissingTaskID) {
		t.Fatalf("expected ErrMissingTaskID, got %v", err)
	}
}

func TestIngest_DefaultLeadAndUser(t *testing.T) {
	store := newFakeIntakeStore()
	in := newIntake(store, &fakeResolver{})

	res, err := in.Ingest(context.Background(), Event{TaskID: 42, DueDate: strptr("2024-01-10")})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if res.Skipped {
		t.Fatal("expected job, got skipped")
	}

	// bare date parses as UTC midnight, default lead is 30 minutes
	want := time.Date(2024, 1, 9, 23, 30, 0, 0, time.UTC)
	if !res.FireAt.Equal(want) {
		t.Fatalf("expected fire at %v, got %v", want, res.FireAt)
	}

	p := store.active[42]
	if p.UserID != 1 {
		t.Fatalf("expected defaulted user 1, got %d", p.UserID)
	}
	if !p.FireAt.Equal(want) {
		t.Fatalf("expected stored fire at %v, got %v", want, p.FireAt)
	}
}

func TestIngest_SnapshotsEmailAndOffset(t *testing.T) {
	store := newFakeIntakeStore()
	resolver := &fakeResolver{settings: map[uint64]prefs.Settings{
		7: {LeadMinutes: 60, Email: strptr("u7@example.com"), Enabled: true},
	}}
	in := newIntake(store, resolver)

	_, err := in.Ingest(context.Background(), Event{
		TaskID:  42,
		UserID:  7,
		Title:   strptr("write report"),
		DueDate: strptr("2024-01-10T10:00:00Z"),
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	p := store.active[42]
	if p.UserEmail == nil || *p.UserEmail != "u7@example.com" {
		t.Fatalf("expected snapshotted email, got %v", p.UserEmail)
	}
	want := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	if !p.FireAt.Equal(want) {
		t.Fatalf("expected fire at %v, got %v", want, p.FireAt)
	}
}

func TestIngest_DisabledSkips(t *testing.T) {
	store := newFakeIntakeStore()
	resolver := &fakeResolver{settings: map[uint64]prefs.Settings{
		7: {LeadMinutes: 30, Enabled: false},
	}}
	in := newIntake(store, resolver)

	res, err := in.Ingest(context.Background(), Event{TaskID: 42, UserID: 7, DueDate: strptr("2024-01-10")})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !res.Skipped {
		t.Fatal("expected skipped for disabled user")
	}
	if len(store.active) != 0 {
		t.Fatal("expected no job created")
	}
}

func TestIngest_ReingestReplacesActiveJob(t *testing.T) {
	store := newFakeIntakeStore()
	in := newIntake(store, &fakeResolver{})

	first, err := in.Ingest(context.Background(), Event{TaskID: 42, DueDate: strptr("2024-01-10T10:00:00Z")})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	second, err := in.Ingest(context.Background(), Event{TaskID: 42, DueDate: strptr("2024-01-12T10:00:00Z")})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if len(store.active) != 1 {
		t.Fatalf("expected exactly one active job, got %d", len(store.active))
	}
	if first.JobID != second.JobID {
		t.Fatalf("expected upsert onto same active row, got %d then %d", first.JobID, second.JobID)
	}
	wantDue := time.Date(2024, 1, 12, 10, 0, 0, 0, time.UTC)
	if !store.active[42].DueAt.Equal(wantDue) {
		t.Fatalf("expected latest due date %v, got %v", wantDue, store.active[42].DueAt)
	}
}

func TestIngest_DeletedCancels(t *testing.T) {
	store := newFakeIntakeStore()
	in := newIntake(store, &fakeResolver{})

	if _, err := in.Ingest(context.Background(), Event{TaskID: 42, DueDate: strptr("2024-01-10")}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	res, err := in.Ingest(context.Background(), Event{TaskID: 42, Deleted: true})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !res.Skipped {
		t.Fatal("expected skipped result for deletion")
	}
	if len(store.cancelled) != 1 || store.cancelled[0] != 42 {
		t.Fatalf("expected task 42 cancelled, got %v", store.cancelled)
	}
}
