package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"afyalink.org/internal/auth"
	"afyalink.org/internal/obs"
	"afyalink.org/internal/store"
)

// ErrOrphanedSignUp reports that the auth identity was created but the profile
// insert failed, leaving an identity with no profile. There is no compensating
// rollback; callers can distinguish this from a plain auth rejection.
var ErrOrphanedSignUp = errors.New("session: identity created without profile")

// ProfileFields carries the profile attributes collected at sign-up.
// Zero-valued Role and Language fall back to patient/en.
type ProfileFields struct {
	Name     string
	Role     store.Role
	Bio      string
	Language store.Language
}

// Snapshot is a read-only copy of the auth state triple.
type Snapshot struct {
	User    *auth.Session
	Profile *store.UserProfile
	Loading bool
}

// Synchronizer reconciles sign-in, sign-out and provider-pushed session
// changes into one consistent {user, profile, loading} view. Writes to the
// triple are last-write-wins by completion order; the provider reports the
// same underlying identity on every path, which keeps the races benign.
type Synchronizer struct {
	provider auth.Provider
	store    store.Store

	mu      sync.RWMutex
	user    *auth.Session
	profile *store.UserProfile
	loading bool
}

// New constructs a Synchronizer in the initial loading state.
func New(provider auth.Provider, st store.Store) *Synchronizer {
	return &Synchronizer{provider: provider, store: st, loading: true}
}

// Start performs the one-shot current-session query and then consumes the
// provider's change notifications until ctx ends. However the initial query
// resolves, loading becomes false; that transition happens exactly once.
// Cancelling ctx deregisters the listener.
func (s *Synchronizer) Start(ctx context.Context) {
	// Subscribe before the initial query so no change slips between them.
	ch := s.provider.Subscribe(ctx)

	current, err := s.provider.CurrentSession(ctx)
	if err != nil {
		obs.LogEvent(map[string]any{"level": "error", "msg": "initial session check failed", "error": err.Error()})
		current = nil
	}

	s.mu.Lock()
	s.user = copySession(current)
	s.loading = false
	s.mu.Unlock()

	if current != nil {
		go s.fetchProfileLogged(ctx, current.UserID)
	}

	go s.consume(ctx, ch)
}

// Snapshot returns a copy of the current triple.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		User:    copySession(s.user),
		Profile: copyProfile(s.profile),
		Loading: s.loading,
	}
}

// SignUp registers an identity and inserts the matching profile, defaulting
// role to patient and language to en. A profile insert failure after the
// identity was created returns ErrOrphanedSignUp wrapping the store error.
func (s *Synchronizer) SignUp(ctx context.Context, email, password string, fields ProfileFields) error {
	sess, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return err
	}

	profile := &store.UserProfile{
		ID:       sess.UserID,
		Name:     fields.Name,
		Email:    sess.Email,
		Role:     fields.Role,
		Bio:      fields.Bio,
		Language: fields.Language,
	}
	if profile.Role == "" {
		profile.Role = store.RolePatient
	}
	if profile.Language == "" {
		profile.Language = store.LanguageEnglish
	}

	if err := s.store.Profiles(ctx).Create(ctx, profile); err != nil {
		return fmt.Errorf("%w: %w", ErrOrphanedSignUp, err)
	}

	s.mu.Lock()
	s.user = copySession(sess)
	s.mu.Unlock()
	return nil
}

// SignIn authenticates, sets user and triggers a profile fetch. A fetch
// failure is logged, not surfaced; the sign-in itself still succeeds.
func (s *Synchronizer) SignIn(ctx context.Context, email, password string) error {
	sess, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.user = copySession(sess)
	s.mu.Unlock()

	s.fetchProfileLogged(ctx, sess.UserID)
	return nil
}

// SignOut terminates the session. User and profile are cleared even when the
// provider reports an error; the error is still returned.
func (s *Synchronizer) SignOut(ctx context.Context) error {
	err := s.provider.SignOut(ctx)

	s.mu.Lock()
	s.user = nil
	s.profile = nil
	s.mu.Unlock()

	return err
}

// FetchProfile retrieves exactly one profile row for userID. On any failure
// the in-memory profile is left unchanged: stale-but-present is preferred over
// clearing, to avoid flicker in consumers.
func (s *Synchronizer) FetchProfile(ctx context.Context, userID string) error {
	profile, err := s.store.Profiles(ctx).Find(ctx, userID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()
	return nil
}

// UpdateProfile issues a partial update scoped by the loaded profile's id and
// merges the accepted fields into the in-memory copy. A call with no loaded
// profile is a no-op.
func (s *Synchronizer) UpdateProfile(ctx context.Context, patch store.ProfilePatch) error {
	s.mu.RLock()
	current := s.profile
	s.mu.RUnlock()
	if current == nil {
		return nil
	}
	if patch.IsZero() {
		return nil
	}

	if err := s.store.Profiles(ctx).Update(ctx, current.ID, patch); err != nil {
		return err
	}

	// Optimistic local merge; no server round-trip for the merged shape.
	s.mu.Lock()
	if s.profile != nil {
		merged := s.profile.Merge(patch)
		s.profile = &merged
	}
	s.mu.Unlock()
	return nil
}

func (s *Synchronizer) consume(ctx context.Context, ch <-chan auth.Change) {
	for chg := range ch {
		s.apply(ctx, chg)
	}
}

// apply installs a provider notification: user follows the notification's
// session unconditionally; a present session triggers an asynchronous profile
// fetch, an absent one clears the profile together with the user.
func (s *Synchronizer) apply(ctx context.Context, chg auth.Change) {
	s.mu.Lock()
	s.user = copySession(chg.Session)
	if chg.Session == nil {
		s.profile = nil
	}
	s.mu.Unlock()

	if chg.Session != nil {
		go s.fetchProfileLogged(ctx, chg.Session.UserID)
	}
}

func (s *Synchronizer) fetchProfileLogged(ctx context.Context, userID string) {
	if err := s.FetchProfile(ctx, userID); err != nil {
		obs.LogEvent(map[string]any{"level": "error", "msg": "profile fetch failed", "user_id": userID, "error": err.Error()})
	}
}

func copySession(s *auth.Session) *auth.Session {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}

func copyProfile(p *store.UserProfile) *store.UserProfile {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}
