package auth

import (
	"context"
	"time"
)

// Session is the opaque proof of an authenticated identity issued by the
// provider. Application code observes sessions; it never constructs them.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Change is a session lifecycle notification pushed by the provider.
// Session is nil when the session ended.
type Change struct {
	Session *Session `json:"session,omitempty"`
	Reason  string   `json:"reason"`
}

// Change reasons emitted by providers.
const (
	ReasonSignedIn  = "signed_in"
	ReasonSignedOut = "signed_out"
	ReasonExpired   = "expired"
)

// RoleLookup resolves the role claim stamped on issued tokens. It returns
// empty when the identity has no profile yet, as on first sign-up.
type RoleLookup func(ctx context.Context, userID string) string

// Provider issues and revokes sessions and pushes change notifications.
type Provider interface {
	// SignUp registers a new identity and signs it in.
	// Returns ErrDuplicateEmail when the address is taken.
	SignUp(ctx context.Context, email, password string) (*Session, error)

	// SignIn authenticates credentials. Returns ErrInvalidCredentials on
	// unknown email or wrong password.
	SignIn(ctx context.Context, email, password string) (*Session, error)

	// SignOut terminates the current session. The current session is cleared
	// and a change published even when revocation partially fails.
	SignOut(ctx context.Context) error

	// CurrentSession returns the active session, or (nil, nil) when absent.
	CurrentSession(ctx context.Context) (*Session, error)

	// Subscribe registers a listener for session changes. The returned channel
	// is closed when ctx ends; cancelling ctx is the unsubscribe call.
	Subscribe(ctx context.Context) <-chan Change
}
