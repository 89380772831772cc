// Package session implements the authentication gate that guards the dashboard.
//
// A Gate resolves once at startup from the persisted token and afterwards
// changes only through Login, Logout and Expire. The request layer reads the
// token through the Gate and never mutates it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Status is the authentication state of the process.
type Status int

// Gate states.
const (
	Uninitialized Status = iota
	CheckingToken
	Authenticated
	Unauthenticated
)

func (s Status) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case CheckingToken:
		return "checking"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

var (
	// ErrInvalidCredentials is the only failure a user sees for a login attempt,
	// whatever the underlying cause.
	ErrInvalidCredentials = errors.New("Invalid username or password")
	// ErrMissingCredentials is returned when username or password is empty.
	ErrMissingCredentials = errors.New("Username and password are required")
	// ErrNotReady is returned while the startup token check has not completed.
	ErrNotReady = errors.New("session check has not completed")
)

// TokenStore persists exactly one session token.
type TokenStore interface {
	Token(ctx context.Context) (string, bool, error)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// Authenticator exchanges credentials for an access token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// Gate is the process-wide session. It is safe for concurrent use.
type Gate struct {
	store TokenStore

	mu      sync.RWMutex
	status  Status
	token   string
	message string
}

// NewGate returns an uninitialized gate backed by store.
func NewGate(store TokenStore) *Gate {
	return &Gate{store: store}
}

// Status returns the current state.
func (g *Gate) Status() Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.status
}

// Initialized reports whether the startup check has completed.
func (g *Gate) Initialized() bool {
	s := g.Status()
	return s == Authenticated || s == Unauthenticated
}

// Token returns the bearer token, or "" when unauthenticated.
func (g *Gate) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.status != Authenticated {
		return ""
	}
	return g.token
}

// Message returns the user-facing message of the last failed login.
func (g *Gate) Message() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.message
}

// Identity returns the claims carried by the current token.
func (g *Gate) Identity() Identity {
	return ParseIdentity(g.Token())
}

// Start resolves the gate from the persisted token. Only the first call
// checks the store; later calls return the current state. A store error
// resolves to Unauthenticated and is returned for logging.
func (g *Gate) Start(ctx context.Context) (Status, error) {
	g.mu.Lock()
	if g.status != Uninitialized {
		s := g.status
		g.mu.Unlock()
		return s, nil
	}
	g.status = CheckingToken
	g.mu.Unlock()

	token, ok, err := g.store.Token(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil && ok && token != "" {
		g.token = token
		g.status = Authenticated
		return g.status, nil
	}
	g.status = Unauthenticated
	if err != nil {
		return g.status, fmt.Errorf("failed to read session token: %w", err)
	}
	return g.status, nil
}

// Login submits credentials. On success the token is persisted before the
// gate flips to Authenticated. Any failure leaves the gate Unauthenticated,
// persists nothing and records the generic invalid-credentials message.
func (g *Gate) Login(ctx context.Context, auth Authenticator, username, password string) error {
	g.mu.Lock()
	switch g.status {
	case Uninitialized, CheckingToken:
		g.mu.Unlock()
		return ErrNotReady
	case Authenticated:
		g.mu.Unlock()
		return nil
	}
	g.message = ""
	g.mu.Unlock()

	if username == "" || password == "" {
		return g.fail(ErrMissingCredentials, ErrMissingCredentials)
	}
	token, err := auth.Login(ctx, username, password)
	if err == nil && token == "" {
		err = errors.New("empty access token")
	}
	if err != nil {
		return g.fail(ErrInvalidCredentials, err)
	}
	if err := g.store.SetToken(ctx, token); err != nil {
		return g.fail(ErrInvalidCredentials, fmt.Errorf("failed to persist token: %w", err))
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.token = token
	g.status = Authenticated
	g.message = ""
	return nil
}

// Logout erases the token and returns to Unauthenticated.
func (g *Gate) Logout(ctx context.Context) error {
	return g.end(ctx)
}

// Expire reacts to an authorization failure from the API: the token is erased
// and the gate returns to Unauthenticated. It is idempotent.
func (g *Gate) Expire(ctx context.Context) error {
	return g.end(ctx)
}

func (g *Gate) end(ctx context.Context) error {
	g.mu.Lock()
	if g.status == Uninitialized || g.status == CheckingToken {
		g.mu.Unlock()
		return ErrNotReady
	}
	g.token = ""
	g.status = Unauthenticated
	g.mu.Unlock()

	if err := g.store.ClearToken(ctx); err != nil {
		return fmt.Errorf("failed to erase session token: %w", err)
	}
	return nil
}

func (g *Gate) fail(shown, cause error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status = Unauthenticated
	g.message = shown.Error()
	if errors.Is(cause, shown) {
		return cause
	}
	return fmt.Errorf("%w: %w", shown, cause)
}
