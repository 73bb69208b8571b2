package auth

import (
	"context"
	"sync"
	"time"

	"afyalink.org/internal/ids"
)

var _ Provider = (*MemoryProvider)(nil)

type identity struct {
	id           string
	email        string
	passwordHash string
}

// MemoryProvider implements Provider entirely in process. It backs tests and
// the smoke tool; semantics mirror PGProvider.
type MemoryProvider struct {
	notifier *Notifier
	ttl      time.Duration
	now      func() time.Time
	roleFor  RoleLookup

	mu         sync.Mutex
	identities map[string]identity // email -> identity
	current    *Session
}

// NewMemoryProvider creates an empty in-process provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		notifier:   NewNotifier(),
		ttl:        defaultSessionTTL,
		now:        time.Now,
		identities: make(map[string]identity),
	}
}

// SetRoleLookup sets the resolver for role claims on issued tokens.
func (p *MemoryProvider) SetRoleLookup(fn RoleLookup) { p.roleFor = fn }

func (p *MemoryProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if _, ok := p.identities[email]; ok {
		p.mu.Unlock()
		return nil, ErrDuplicateEmail
	}
	ident := identity{id: ids.New(), email: email, passwordHash: hash}
	p.identities[email] = ident
	p.mu.Unlock()

	return p.openSession(ctx, ident)
}

func (p *MemoryProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	p.mu.Lock()
	ident, ok := p.identities[email]
	p.mu.Unlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := VerifyPassword(ident.passwordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return p.openSession(ctx, ident)
}

func (p *MemoryProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
	p.notifier.Publish(Change{Session: nil, Reason: ReasonSignedOut})
	return nil
}

func (p *MemoryProvider) CurrentSession(ctx context.Context) (*Session, error) {
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

func (p *MemoryProvider) Subscribe(ctx context.Context) <-chan Change {
	return p.notifier.Subscribe(ctx)
}

// ExpireNow force-expires the active session. Test hook.
func (p *MemoryProvider) ExpireNow() {
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
	p.notifier.Publish(Change{Session: nil, Reason: ReasonExpired})
}

func (p *MemoryProvider) openSession(ctx context.Context, ident identity) (*Session, error) {
	var role string
	if p.roleFor != nil {
		role = p.roleFor(ctx, ident.id)
	}
	token, err := GenerateToken(ident.id, role, p.ttl)
	if err != nil {
		return nil, err
	}
	sess := &Session{
		UserID:    ident.id,
		Email:     ident.email,
		Token:     token,
		ExpiresAt: p.now().UTC().Add(p.ttl),
	}

	p.mu.Lock()
	p.current = sess
	p.mu.Unlock()

	copySess := *sess
	p.notifier.Publish(Change{Session: &copySess, Reason: ReasonSignedIn})

	out := *sess
	return &out, nil
}
