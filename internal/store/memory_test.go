package store

import (
	"context"
	"testing"
	"time"
)

func TestMemoryProfileExactlyOneRow(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	if _, err := s.Profiles(ctx).Find(ctx, "u1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	p := &UserProfile{ID: "u1", Name: "A", Email: "a@b.com", Role: RolePatient, Language: LanguageEnglish}
	if err := s.Profiles(ctx).Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.Profiles(ctx).Find(ctx, "u1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.ID != "u1" || got.Name != "A" {
		t.Fatalf("unexpected profile: %+v", got)
	}

	s.InjectDuplicateProfile(UserProfile{ID: "u1", Name: "B", Email: "a@b.com", Role: RolePatient, Language: LanguageEnglish})
	if _, err := s.Profiles(ctx).Find(ctx, "u1"); err != ErrConflict {
		t.Fatalf("expected ErrConflict for duplicate rows, got %v", err)
	}
}

func TestMemoryProfileMerge(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	p := &UserProfile{ID: "u1", Name: "A", Email: "a@b.com", Role: RolePatient, Bio: "hi", Language: LanguageEnglish}
	if err := s.Profiles(ctx).Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	name := "B"
	lang := LanguageSwahili
	if err := s.Profiles(ctx).Update(ctx, "u1", ProfilePatch{Name: &name, Language: &lang}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := s.Profiles(ctx).Find(ctx, "u1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.Name != "B" || got.Language != LanguageSwahili {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.Bio != "hi" || got.Role != RolePatient || got.Email != "a@b.com" {
		t.Fatalf("untouched fields were altered: %+v", got)
	}
}

func TestMemoryAppointmentsOrderAndUpdate(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	later := &Appointment{UserID: "u1", DoctorID: "d1", Datetime: time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC)}
	earlier := &Appointment{UserID: "u1", DoctorID: "d2", Datetime: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	for _, a := range []*Appointment{later, earlier} {
		if err := s.Appointments(ctx).Create(ctx, a); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	list, err := s.Appointments(ctx).ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 2 || !list[0].Datetime.Before(list[1].Datetime) {
		t.Fatalf("expected ascending datetime order: %+v", list)
	}
	if list[0].Status != StatusScheduled {
		t.Fatalf("expected scheduled default, got %s", list[0].Status)
	}

	done := StatusCompleted
	if err := s.Appointments(ctx).Update(ctx, later.ID, AppointmentPatch{Status: &done}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := s.Appointments(ctx).Find(ctx, later.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.Status != StatusCompleted || got.DoctorID != "d1" {
		t.Fatalf("merge failed: %+v", got)
	}

	if err := s.Appointments(ctx).Update(ctx, "missing", AppointmentPatch{Status: &done}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryJournalNewestFirst(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	first := &JournalEntry{UserID: "u1", Entry: "one", Mood: 5, CreatedAt: time.Now().Add(-time.Hour)}
	second := &JournalEntry{UserID: "u1", Entry: "two", Mood: 7, CreatedAt: time.Now()}
	for _, e := range []*JournalEntry{first, second} {
		if err := s.Journal(ctx).Create(ctx, e); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	list, err := s.Journal(ctx).ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 2 || list[0].Entry != "two" {
		t.Fatalf("expected newest first: %+v", list)
	}
}

func TestMemoryJournalValidatesMood(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	for _, mood := range []int{0, 11, -3} {
		err := s.Journal(ctx).Create(ctx, &JournalEntry{UserID: "u1", Entry: "x", Mood: mood})
		if err != ErrInvalidInput {
			t.Fatalf("mood=%d: expected ErrInvalidInput, got %v", mood, err)
		}
	}
}

func TestMemorySymptomsLatestOnly(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	if _, err := s.Symptoms(ctx).LatestByUser(ctx, "u1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}

	if err := s.Symptoms(ctx).Create(ctx, &SymptomLog{UserID: "u1", Symptoms: []string{"symptoms.cramps"}, Severity: 4}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Symptoms(ctx).Create(ctx, &SymptomLog{UserID: "u1", Symptoms: []string{"symptoms.fatigue", "symptoms.mood"}, Severity: 7}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	latest, err := s.Symptoms(ctx).LatestByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("LatestByUser: %v", err)
	}
	if latest.Severity != 7 || len(latest.Symptoms) != 2 {
		t.Fatalf("expected the second log, got %+v", latest)
	}
}
