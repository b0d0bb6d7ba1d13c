package token

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultRefreshInterval = time.Hour

var (
	// ErrNoToken is returned by backends when nothing is stored.
	ErrNoToken = errors.New("token: no token stored")
	// ErrMalformed is returned when a value is not a parseable JWT.
	ErrMalformed = errors.New("token: malformed token")
)

// Store is the token contract consumed by the request facade.
type Store interface {
	// ShouldUpdate reports whether the stored token is due for a refresh.
	ShouldUpdate(ctx context.Context) (bool, error)
	// Set replaces the stored token.
	Set(ctx context.Context, raw string) error
	// AuthorizationHeader returns the header value to send, and false when
	// there is no token (anonymous request).
	AuthorizationHeader(ctx context.Context) (string, bool, error)
}

// Backend persists the raw token string.
type Backend interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, raw string) error
	Remove(ctx context.Context) error
}

// Claims are the session token claims issued by the API.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Manager implements Store on top of a Backend.
type Manager struct {
	backend         Backend
	refreshInterval time.Duration
	now             func() time.Time
	parser          *jwt.Parser
}

var _ Store = (*Manager)(nil)

// Option configures a Manager.
type Option func(*Manager)

// WithRefreshInterval sets the token age after which a refresh is due.
func WithRefreshInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.refreshInterval = d
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a token manager. The default refresh interval is one hour.
func NewManager(backend Backend, opts ...Option) *Manager {
	m := &Manager{
		backend:         backend,
		refreshInterval: defaultRefreshInterval,
		now:             time.Now,
		parser:          jwt.NewParser(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the stored token or ErrNoToken.
func (m *Manager) Get(ctx context.Context) (string, error) {
	raw, err := m.backend.Load(ctx)
	if err != nil {
		return "", err
	}
	if raw == "" {
		return "", ErrNoToken
	}
	return raw, nil
}

// Set validates raw as a JWT and stores it.
func (m *Manager) Set(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if _, err := m.parse(raw); err != nil {
		return err
	}
	return m.backend.Save(ctx, raw)
}

// Remove forgets the stored token.
func (m *Manager) Remove(ctx context.Context) error {
	return m.backend.Remove(ctx)
}

// Claims returns the claims of the stored token.
func (m *Manager) Claims(ctx context.Context) (*Claims, error) {
	raw, err := m.Get(ctx)
	if err != nil {
		return nil, err
	}
	return m.parse(raw)
}

// Age returns how long ago the stored token was issued. ok is false when no
// token is stored or it carries no "iat" claim.
func (m *Manager) Age(ctx context.Context) (age time.Duration, ok bool, err error) {
	claims, err := m.Claims(ctx)
	if errors.Is(err, ErrNoToken) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if claims.IssuedAt == nil {
		return 0, false, nil
	}
	return m.now().Sub(claims.IssuedAt.Time), true, nil
}

// ShouldUpdate reports true once the token is at least refreshInterval old.
// A missing token never needs updating.
func (m *Manager) ShouldUpdate(ctx context.Context) (bool, error) {
	age, ok, err := m.Age(ctx)
	if err != nil || !ok {
		return false, err
	}
	return age >= m.refreshInterval, nil
}

// AuthorizationHeader returns "Bearer <token>" when a token is stored.
func (m *Manager) AuthorizationHeader(ctx context.Context) (string, bool, error) {
	raw, err := m.Get(ctx)
	if errors.Is(err, ErrNoToken) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return "Bearer " + raw, true, nil
}

func (m *Manager) parse(raw string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := m.parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return claims, nil
}
