package records

import (
	"context"
	"errors"
	"testing"
	"time"

	"afyalink.org/internal/store"
)

const testUser = "usr-1"

func newCacheForTest(t *testing.T) (*Cache, store.Store) {
	t.Helper()
	st := store.NewInMemory()
	return New(st, func() string { return testUser }), st
}

func TestCreateAppointmentAppends(t *testing.T) {
	c, _ := newCacheForTest(t)
	ctx := context.Background()

	first, err := c.CreateAppointment(ctx, "doc-1", time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC), "checkup")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID == "" || first.Status != store.StatusScheduled {
		t.Fatalf("unexpected record: %+v", first)
	}

	// An earlier slot created later still lands at the end of the cached list.
	second, err := c.CreateAppointment(ctx, "doc-2", time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got := c.Appointments()
	if len(got) != 2 || got[0].ID != first.ID || got[1].ID != second.ID {
		t.Fatalf("want append order [%s %s], got %+v", first.ID, second.ID, got)
	}
}

func TestFetchAppointmentsSortsAscending(t *testing.T) {
	c, _ := newCacheForTest(t)
	ctx := context.Background()

	late, _ := c.CreateAppointment(ctx, "doc-1", time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC), "")
	early, _ := c.CreateAppointment(ctx, "doc-2", time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), "")

	c.FetchAppointments(ctx)

	got := c.Appointments()
	if len(got) != 2 || got[0].ID != early.ID || got[1].ID != late.ID {
		t.Fatalf("want datetime order [%s %s], got %+v", early.ID, late.ID, got)
	}
	if c.Loading() {
		t.Fatal("loading still set after fetch")
	}
}

func TestUpdateAppointmentMergesInPlace(t *testing.T) {
	c, _ := newCacheForTest(t)
	ctx := context.Background()

	a, _ := c.CreateAppointment(ctx, "doc-1", time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC), "checkup")

	done := store.StatusCompleted
	if err := c.UpdateAppointment(ctx, a.ID, store.AppointmentPatch{Status: &done}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got := c.Appointments()
	if got[0].Status != store.StatusCompleted {
		t.Fatalf("status not merged: %+v", got[0])
	}
	if got[0].Notes != "checkup" || !got[0].Datetime.Equal(a.Datetime) {
		t.Fatalf("unpatched fields changed: %+v", got[0])
	}
}

func TestUpdateAppointmentLastWriteWins(t *testing.T) {
	c, _ := newCacheForTest(t)
	ctx := context.Background()

	a, _ := c.CreateAppointment(ctx, "doc-1", time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC), "")

	// The cache has no transition rules: a second status write lands on top
	// of the first, terminal or not.
	done := store.StatusCompleted
	if err := c.UpdateAppointment(ctx, a.ID, store.AppointmentPatch{Status: &done}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	cancelled := store.StatusCancelled
	if err := c.UpdateAppointment(ctx, a.ID, store.AppointmentPatch{Status: &cancelled}); err != nil {
		t.Fatalf("second update: %v", err)
	}

	if got := c.Appointments(); got[0].Status != store.StatusCancelled {
		t.Fatalf("last write must win, got %+v", got[0])
	}
}

func TestUpdateAppointmentMissingIDIsNoop(t *testing.T) {
	c, _ := newCacheForTest(t)
	ctx := context.Background()

	a, _ := c.CreateAppointment(ctx, "doc-1", time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC), "")

	cancelled := store.StatusCancelled
	if err := c.UpdateAppointment(ctx, "apt-nope", store.AppointmentPatch{Status: &cancelled}); err != nil {
		t.Fatalf("want silent no-op, got %v", err)
	}
	if got := c.Appointments(); got[0].Status != a.Status {
		t.Fatalf("unrelated record changed: %+v", got[0])
	}
}

func TestAddJournalEntryPrepends(t *testing.T) {
	c, _ := newCacheForTest(t)
	ctx := context.Background()

	if _, err := c.AddJournalEntry(ctx, "rough day", 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	second, err := c.AddJournalEntry(ctx, "better", 7)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if second.Date == "" || second.ID == "" {
		t.Fatalf("store did not stamp entry: %+v", second)
	}

	got := c.JournalEntries()
	if len(got) != 2 || got[0].ID != second.ID {
		t.Fatalf("newest entry not first: %+v", got)
	}
}

func TestLogSymptomsKeepsLatestOnly(t *testing.T) {
	c, st := newCacheForTest(t)
	ctx := context.Background()

	if err := c.LogSymptoms(ctx, []string{"symptoms.cramps", "symptoms.fatigue"}, 6); err != nil {
		t.Fatalf("log: %v", err)
	}
	if err := c.LogSymptoms(ctx, []string{"symptoms.headache"}, 4); err != nil {
		t.Fatalf("log: %v", err)
	}

	got := c.LastSymptoms()
	if len(got) != 1 || got[0] != "symptoms.headache" {
		t.Fatalf("want latest set only, got %v", got)
	}

	latest, err := st.Symptoms(ctx).LatestByUser(ctx, testUser)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Severity != 4 {
		t.Fatalf("store latest mismatch: %+v", latest)
	}
}

func TestLogSymptomsRejectsBadSeverity(t *testing.T) {
	c, _ := newCacheForTest(t)

	err := c.LogSymptoms(context.Background(), []string{"symptoms.pain"}, 11)
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
	if got := c.LastSymptoms(); len(got) != 0 {
		t.Fatalf("failed log cached anyway: %v", got)
	}
}

type failingStore struct {
	store.Store
}

func (f failingStore) Appointments(ctx context.Context) store.AppointmentStore {
	return failingAppointments{f.Store.Appointments(ctx)}
}

type failingAppointments struct {
	store.AppointmentStore
}

func (failingAppointments) ListByUser(context.Context, string) ([]store.Appointment, error) {
	return nil, errors.New("connection reset")
}

func TestFetchAppointmentsErrorClearsList(t *testing.T) {
	st := store.NewInMemory()
	c := New(failingStore{st}, func() string { return testUser })
	ctx := context.Background()

	if _, err := c.CreateAppointment(ctx, "doc-1", time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC), ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	c.FetchAppointments(ctx)

	if got := c.Appointments(); len(got) != 0 {
		t.Fatalf("stale list survived fetch failure: %+v", got)
	}
	if c.Loading() {
		t.Fatal("loading still set after failed fetch")
	}
}
