// Command smoke-session drives a full user journey through the session
// synchronizer and record cache against in-memory backends. It exits nonzero
// on the first broken invariant, which makes it usable as a CI gate.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"afyalink.org/internal/auth"
	"afyalink.org/internal/records"
	"afyalink.org/internal/session"
	"afyalink.org/internal/store"
)

func main() {
	log.SetFlags(0)

	if os.Getenv("AFYA_AUTH_SECRET") == "" {
		os.Setenv("AFYA_AUTH_SECRET", "smoke-session-secret")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	provider := auth.NewMemoryProvider()
	st := store.NewInMemory()

	sync := session.New(provider, st)
	sync.Start(ctx)

	waitFor(ctx, "initial load settles", func() bool {
		snap := sync.Snapshot()
		return !snap.Loading && snap.User == nil && snap.Profile == nil
	})

	// sign-up with defaults
	if err := sync.SignUp(ctx, "amina@example.com", "correct horse", session.ProfileFields{Name: "Amina"}); err != nil {
		log.Fatalf("sign-up: %v", err)
	}
	// The profile arrives through the change feed, not the sign-up call. The
	// feed's fetch can race the profile insert and lose, so re-fetch until it
	// lands.
	waitFor(ctx, "sign-up loads the profile", func() bool {
		snap := sync.Snapshot()
		if snap.User == nil {
			return false
		}
		if snap.Profile == nil {
			_ = sync.FetchProfile(ctx, snap.User.UserID)
			snap = sync.Snapshot()
		}
		return snap.Profile != nil
	})
	if snap := sync.Snapshot(); snap.Profile.Role != store.RolePatient || snap.Profile.Language != store.LanguageEnglish {
		log.Fatalf("sign-up defaults not applied: %+v", snap.Profile)
	}

	cache := records.New(st, func() string {
		if s := sync.Snapshot(); s.User != nil {
			return s.User.UserID
		}
		return ""
	})

	// book two appointments out of datetime order
	late, err := cache.CreateAppointment(ctx, "doc-wanjiku", time.Now().Add(72*time.Hour).UTC(), "follow-up")
	if err != nil {
		log.Fatalf("create appointment: %v", err)
	}
	early, err := cache.CreateAppointment(ctx, "doc-achieng", time.Now().Add(24*time.Hour).UTC(), "")
	if err != nil {
		log.Fatalf("create appointment: %v", err)
	}
	if got := cache.Appointments(); got[len(got)-1].ID != early.ID {
		log.Fatalf("create must append, got %+v", got)
	}

	cache.FetchAppointments(ctx)
	if got := cache.Appointments(); got[0].ID != early.ID || got[1].ID != late.ID {
		log.Fatalf("fetch must sort by datetime, got %+v", got)
	}

	// complete one appointment
	done := store.StatusCompleted
	if err := cache.UpdateAppointment(ctx, late.ID, store.AppointmentPatch{Status: &done}); err != nil {
		log.Fatalf("update appointment: %v", err)
	}
	// unknown id stays silent
	if err := cache.UpdateAppointment(ctx, "apt-missing", store.AppointmentPatch{Status: &done}); err != nil {
		log.Fatalf("missing-id update must no-op, got %v", err)
	}

	// journal is newest first
	if _, err := cache.AddJournalEntry(ctx, "feeling okay", 6); err != nil {
		log.Fatalf("journal: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	latest, err := cache.AddJournalEntry(ctx, "better today", 8)
	if err != nil {
		log.Fatalf("journal: %v", err)
	}
	if got := cache.JournalEntries(); got[0].ID != latest.ID {
		log.Fatalf("journal must prepend, got %+v", got)
	}

	// only the last symptom set survives
	if err := cache.LogSymptoms(ctx, []string{"symptoms.cramps"}, 5); err != nil {
		log.Fatalf("symptoms: %v", err)
	}
	if err := cache.LogSymptoms(ctx, []string{"symptoms.headache", "symptoms.fatigue"}, 3); err != nil {
		log.Fatalf("symptoms: %v", err)
	}
	if got := cache.LastSymptoms(); len(got) != 2 || got[0] != "symptoms.headache" {
		log.Fatalf("symptoms must keep latest set only, got %v", got)
	}

	// profile update merges one field
	bio := "Community health volunteer"
	if err := sync.UpdateProfile(ctx, store.ProfilePatch{Bio: &bio}); err != nil {
		log.Fatalf("profile update: %v", err)
	}
	if snap := sync.Snapshot(); snap.Profile.Bio != bio || snap.Profile.Name != "Amina" {
		log.Fatalf("profile merge broken: %+v", snap.Profile)
	}

	// sign-out clears everything
	if err := sync.SignOut(ctx); err != nil {
		log.Fatalf("sign-out: %v", err)
	}
	waitFor(ctx, "sign-out clears state", func() bool {
		snap := sync.Snapshot()
		return snap.User == nil && snap.Profile == nil
	})

	// the account survives and signs back in through the provider,
	// reaching the synchronizer via the change feed
	if _, err := provider.SignIn(ctx, "amina@example.com", "correct horse"); err != nil {
		log.Fatalf("re-sign-in: %v", err)
	}
	waitFor(ctx, "change feed restores session", func() bool {
		snap := sync.Snapshot()
		return snap.User != nil && snap.Profile != nil && snap.Profile.Bio == bio
	})

	log.Println("smoke-session OK")
}

func waitFor(ctx context.Context, what string, cond func() bool) {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		select {
		case <-ctx.Done():
			log.Fatalf("timed out waiting: %s", what)
		case <-time.After(10 * time.Millisecond):
		}
	}
	log.Fatalf("timed out waiting: %s", what)
}
