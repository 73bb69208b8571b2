package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"afyalink.org/internal/auth"
	"afyalink.org/internal/store"
)

func newSyncForTest(t *testing.T) (*Synchronizer, *auth.MemoryProvider, *store.InMemory) {
	t.Helper()
	t.Setenv("AFYA_AUTH_SECRET", "test-secret")
	auth.ResetSecretForTests()

	provider := auth.NewMemoryProvider()
	st := store.NewInMemory()
	return New(provider, st), provider, st
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestStartResolvesLoadingExactlyOnce(t *testing.T) {
	s, _, _ := newSyncForTest(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if snap := s.Snapshot(); !snap.Loading {
		t.Fatal("expected initial loading=true")
	}

	s.Start(ctx)

	snap := s.Snapshot()
	if snap.Loading {
		t.Fatal("loading must resolve after the initial session check")
	}
	if snap.User != nil || snap.Profile != nil {
		t.Fatalf("expected absent user and profile, got %+v", snap)
	}
}

func TestSignUpAppliesDefaults(t *testing.T) {
	s, _, st := newSyncForTest(t)
	ctx := context.Background()

	err := s.SignUp(ctx, "a@b.com", "x-pass", ProfileFields{Name: "A"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	snap := s.Snapshot()
	if snap.User == nil {
		t.Fatal("expected user after sign-up")
	}

	profile, err := st.Profiles(ctx).Find(ctx, snap.User.UserID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if profile.Name != "A" || profile.Role != store.RolePatient || profile.Language != store.LanguageEnglish {
		t.Fatalf("defaults not applied: %+v", profile)
	}

	if err := s.FetchProfile(ctx, snap.User.UserID); err != nil {
		t.Fatalf("FetchProfile: %v", err)
	}
	if got := s.Snapshot().Profile; got == nil || got.Role != store.RolePatient {
		t.Fatalf("profile not loaded: %+v", got)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	s, _, _ := newSyncForTest(t)
	ctx := context.Background()

	if err := s.SignUp(ctx, "a@b.com", "x", ProfileFields{Name: "A"}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if err := s.SignUp(ctx, "a@b.com", "y", ProfileFields{Name: "B"}); !errors.Is(err, auth.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

type stubProfiles struct {
	store.ProfileStore
	createErr error
}

func (s stubProfiles) Create(ctx context.Context, p *store.UserProfile) error {
	if s.createErr != nil {
		return s.createErr
	}
	return s.ProfileStore.Create(ctx, p)
}

type stubStore struct {
	store.Store
	profiles store.ProfileStore
}

func (s stubStore) Profiles(ctx context.Context) store.ProfileStore { return s.profiles }

func TestSignUpOrphanedIdentity(t *testing.T) {
	t.Setenv("AFYA_AUTH_SECRET", "test-secret")
	auth.ResetSecretForTests()

	provider := auth.NewMemoryProvider()
	inner := store.NewInMemory()
	broken := stubStore{
		Store:    inner,
		profiles: stubProfiles{ProfileStore: inner.Profiles(context.Background()), createErr: store.ErrInvalidInput},
	}
	s := New(provider, broken)

	err := s.SignUp(context.Background(), "a@b.com", "x-pass", ProfileFields{Name: "A"})
	if !errors.Is(err, ErrOrphanedSignUp) {
		t.Fatalf("expected ErrOrphanedSignUp, got %v", err)
	}
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	// The identity exists although no user was installed locally.
	if snap := s.Snapshot(); snap.User != nil {
		t.Fatalf("user must not be set when the profile insert fails: %+v", snap.User)
	}
	if _, err := provider.SignIn(context.Background(), "a@b.com", "x-pass"); err != nil {
		t.Fatalf("orphaned identity should still authenticate: %v", err)
	}
}

func TestSignInThenSignOutEndsAbsent(t *testing.T) {
	s, _, _ := newSyncForTest(t)
	ctx := context.Background()

	if err := s.SignUp(ctx, "a@b.com", "x-pass", ProfileFields{Name: "A"}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if err := s.SignIn(ctx, "a@b.com", "x-pass"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	snap := s.Snapshot()
	if snap.User == nil || snap.Profile == nil {
		t.Fatalf("expected loaded user and profile, got %+v", snap)
	}

	if err := s.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	snap = s.Snapshot()
	if snap.User != nil || snap.Profile != nil {
		t.Fatalf("expected absent user and profile after sign-out, got %+v", snap)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	s, _, _ := newSyncForTest(t)
	ctx := context.Background()

	if err := s.SignUp(ctx, "a@b.com", "x-pass", ProfileFields{Name: "A"}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if err := s.SignIn(ctx, "a@b.com", "nope"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestFetchProfileFailureLeavesProfileUnchanged(t *testing.T) {
	s, _, st := newSyncForTest(t)
	ctx := context.Background()

	if err := s.SignUp(ctx, "a@b.com", "x-pass", ProfileFields{Name: "A"}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	userID := s.Snapshot().User.UserID
	if err := s.FetchProfile(ctx, userID); err != nil {
		t.Fatalf("FetchProfile: %v", err)
	}
	before := s.Snapshot().Profile
	if before == nil {
		t.Fatal("expected loaded profile")
	}

	// Zero rows.
	if err := s.FetchProfile(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := s.Snapshot().Profile; got == nil || got.ID != before.ID {
		t.Fatalf("profile must stay stale-but-present, got %+v", got)
	}

	// Multiple rows.
	st.InjectDuplicateProfile(store.UserProfile{ID: userID, Name: "B", Email: "a@b.com", Role: store.RolePatient, Language: store.LanguageEnglish})
	if err := s.FetchProfile(ctx, userID); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if got := s.Snapshot().Profile; got == nil || got.Name != before.Name {
		t.Fatalf("profile must stay unchanged on multi-row failure, got %+v", got)
	}
}

func TestUpdateProfileMergesOnlyPatchedFields(t *testing.T) {
	s, _, _ := newSyncForTest(t)
	ctx := context.Background()

	if err := s.SignUp(ctx, "a@b.com", "x-pass", ProfileFields{Name: "A", Bio: "hello"}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if err := s.SignIn(ctx, "a@b.com", "x-pass"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	lang := store.LanguageSwahili
	if err := s.UpdateProfile(ctx, store.ProfilePatch{Language: &lang}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	got := s.Snapshot().Profile
	if got.Language != store.LanguageSwahili {
		t.Fatalf("patched field not applied: %+v", got)
	}
	if got.Name != "A" || got.Bio != "hello" || got.Role != store.RolePatient {
		t.Fatalf("unpatched fields were altered: %+v", got)
	}
}

func TestUpdateProfileWithoutProfileIsNoop(t *testing.T) {
	s, _, _ := newSyncForTest(t)

	name := "X"
	if err := s.UpdateProfile(context.Background(), store.ProfilePatch{Name: &name}); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
	if got := s.Snapshot().Profile; got != nil {
		t.Fatalf("no profile should appear, got %+v", got)
	}
}

func TestProviderNotificationsDriveTheTriple(t *testing.T) {
	s, provider, _ := newSyncForTest(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)

	// A sign-in performed directly against the provider must surface through
	// the change channel.
	if err := s.SignUp(ctx, "a@b.com", "x-pass", ProfileFields{Name: "A"}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if _, err := provider.SignIn(ctx, "a@b.com", "x-pass"); err != nil {
		t.Fatalf("provider SignIn: %v", err)
	}
	waitFor(t, func() bool {
		snap := s.Snapshot()
		return snap.User != nil && snap.Profile != nil
	})

	// An external sign-out clears user and profile together.
	if err := provider.SignOut(ctx); err != nil {
		t.Fatalf("provider SignOut: %v", err)
	}
	waitFor(t, func() bool {
		snap := s.Snapshot()
		return snap.User == nil && snap.Profile == nil
	})

	// Expiry behaves like an external sign-out.
	if _, err := provider.SignIn(ctx, "a@b.com", "x-pass"); err != nil {
		t.Fatalf("provider SignIn: %v", err)
	}
	waitFor(t, func() bool { return s.Snapshot().User != nil })
	provider.ExpireNow()
	waitFor(t, func() bool {
		snap := s.Snapshot()
		return snap.User == nil && snap.Profile == nil
	})
}
