package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"afyalink.org/internal/ids"
)

const defaultSessionTTL = 24 * time.Hour

var _ Provider = (*PGProvider)(nil)

// PGProvider implements Provider with identities and sessions persisted in
// PostgreSQL. The active session is process state: a restarted process starts
// signed out, matching the behaviour callers observe from hosted providers
// without a stored refresh token.
type PGProvider struct {
	db       *sql.DB
	notifier *Notifier
	ttl      time.Duration
	now      func() time.Time
	roleFor  RoleLookup

	mu      sync.Mutex
	current *Session
}

// ProviderOption configures PGProvider behavior.
type ProviderOption func(*PGProvider)

// WithSessionTTL overrides the default session lifetime.
func WithSessionTTL(ttl time.Duration) ProviderOption {
	return func(p *PGProvider) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithRoleLookup sets the resolver for role claims on issued tokens.
func WithRoleLookup(fn RoleLookup) ProviderOption {
	return func(p *PGProvider) {
		p.roleFor = fn
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ProviderOption {
	return func(p *PGProvider) {
		if fn != nil {
			p.now = fn
		}
	}
}

// NewPGProvider constructs a provider over an open database handle.
func NewPGProvider(db *sql.DB, opts ...ProviderOption) *PGProvider {
	p := &PGProvider{
		db:       db,
		notifier: NewNotifier(),
		ttl:      defaultSessionTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *PGProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var existing string
	err := p.db.QueryRowContext(ctx,
		`select id from identities where email=$1`, email,
	).Scan(&existing)
	if err == nil {
		return nil, ErrDuplicateEmail
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lookup identity: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	id := ids.New()
	if _, err := p.db.ExecContext(ctx,
		`insert into identities(id, email, password_hash) values($1,$2,$3)`,
		id, email, hash,
	); err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}

	return p.openSession(ctx, id, email, ReasonSignedIn)
}

func (p *PGProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var (
		id   string
		hash string
	)
	err := p.db.QueryRowContext(ctx,
		`select id, password_hash from identities where email=$1`, email,
	).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup identity: %w", err)
	}
	if err := VerifyPassword(hash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return p.openSession(ctx, id, email, ReasonSignedIn)
}

func (p *PGProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	current := p.current
	p.current = nil
	p.mu.Unlock()

	// The local session is gone regardless of how revocation goes.
	defer p.notifier.Publish(Change{Session: nil, Reason: ReasonSignedOut})

	if current == nil {
		return nil
	}
	if _, err := p.db.ExecContext(ctx,
		`update sessions set revoked=true where token=$1`, current.Token,
	); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (p *PGProvider) CurrentSession(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	current := p.current
	p.mu.Unlock()

	if current == nil {
		return nil, nil
	}
	if p.now().After(current.ExpiresAt) {
		p.mu.Lock()
		if p.current == current {
			p.current = nil
		}
		p.mu.Unlock()
		p.notifier.Publish(Change{Session: nil, Reason: ReasonExpired})
		return nil, nil
	}
	out := *current
	return &out, nil
}

func (p *PGProvider) Subscribe(ctx context.Context) <-chan Change {
	return p.notifier.Subscribe(ctx)
}

func (p *PGProvider) openSession(ctx context.Context, userID, email, reason string) (*Session, error) {
	var role string
	if p.roleFor != nil {
		role = p.roleFor(ctx, userID)
	}
	token, err := GenerateToken(userID, role, p.ttl)
	if err != nil {
		return nil, err
	}
	expires := p.now().UTC().Add(p.ttl)
	if _, err := p.db.ExecContext(ctx,
		`insert into sessions(token, user_id, expires_at) values($1,$2,$3)`,
		token, userID, expires,
	); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	sess := &Session{UserID: userID, Email: email, Token: token, ExpiresAt: expires}

	p.mu.Lock()
	p.current = sess
	p.mu.Unlock()

	copySess := *sess
	p.notifier.Publish(Change{Session: &copySess, Reason: reason})

	out := *sess
	return &out, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
