package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/findosh/moneymanager/internal/api"
	"github.com/findosh/moneymanager/internal/models"
)

// ErrNoToken is returned when an authentication response carried no bearer token
var ErrNoToken = errors.New("authentication response carried no token")

// Authenticator performs the remote login and registration calls
type Authenticator interface {
	Login(ctx context.Context, email, password string) (models.Session, error)
	Register(ctx context.Context, in models.RegisterInput) (models.Session, error)
}

// Fallback authenticates demonstration accounts while the server is
// unreachable. It is never consulted for any other failure.
type Fallback interface {
	Knows(email string) bool
	Authenticate(email, password string) (models.Session, error)
}

// SessionOption configures a SessionStore
type SessionOption func(*SessionStore)

// WithFallback enables offline demonstration accounts
func WithFallback(fb Fallback) SessionOption {
	return func(s *SessionStore) {
		s.fallback = fb
	}
}

// WithSessionLogger sets the logger for persistence failures and fallback use
func WithSessionLogger(logger *log.Logger) SessionOption {
	return func(s *SessionStore) {
		s.logger = logger
	}
}

// SessionStore is the single source of truth for who is logged in. It has
// two states, anonymous and authenticated; failed attempts never change it.
type SessionStore struct {
	mu       sync.RWMutex
	session  models.Session
	auth     Authenticator
	slot     Snapshotter[models.Session]
	fallback Fallback
	logger   *log.Logger
	subs     subscribers[models.Session]
}

// NewSessionStore creates an anonymous store. Call Load once at startup to
// rehydrate the persisted session.
func NewSessionStore(auth Authenticator, slot Snapshotter[models.Session], opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		auth:   auth,
		slot:   slot,
		logger: discardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load rehydrates the persisted snapshot and treats it as authoritative
func (s *SessionStore) Load() models.Session {
	saved, ok, err := s.slot.Load()
	if err != nil {
		s.logger.Printf("failed to load session, starting anonymous: %v", err)
		return models.Session{}
	}
	if !ok || !saved.IsAuthenticated() {
		return models.Session{}
	}

	s.mu.Lock()
	s.session = saved
	s.mu.Unlock()

	s.subs.notify(saved)
	return saved
}

// Login authenticates against the API and installs the resulting session.
// Demonstration accounts are tried only when the server could not be reached.
func (s *SessionStore) Login(ctx context.Context, email, password string) (models.Profile, error) {
	session, err := s.auth.Login(ctx, email, password)
	if err != nil {
		session, err = s.tryFallback(email, password, err)
		if err != nil {
			return models.Profile{}, err
		}
	}

	if err := s.install(session); err != nil {
		return models.Profile{}, err
	}
	return session.Profile, nil
}

// Register creates an account through the API and installs the resulting
// session. Field validation is left to the server.
func (s *SessionStore) Register(ctx context.Context, in models.RegisterInput) (models.Profile, error) {
	session, err := s.auth.Register(ctx, in)
	if err != nil {
		return models.Profile{}, err
	}

	if err := s.install(session); err != nil {
		return models.Profile{}, err
	}
	return session.Profile, nil
}

// Logout clears the in-memory and persisted session. It never fails and is
// a no-op when already anonymous.
func (s *SessionStore) Logout() {
	s.mu.Lock()
	wasAuthenticated := s.session.IsAuthenticated()
	s.session = models.Session{}
	s.mu.Unlock()

	if err := s.slot.Clear(); err != nil {
		s.logger.Printf("failed to clear persisted session: %v", err)
	}

	if wasAuthenticated {
		s.subs.notify(models.Session{})
	}
}

// UpdateProfile merges a server-confirmed profile change into the session.
// It does nothing while anonymous.
func (s *SessionStore) UpdateProfile(update models.ProfileUpdate) models.Profile {
	s.mu.Lock()
	if !s.session.IsAuthenticated() {
		s.mu.Unlock()
		return models.Profile{}
	}
	next := s.session
	next.Profile = update.Apply(next.Profile)
	if err := s.slot.Save(next); err != nil {
		s.logger.Printf("failed to persist profile update: %v", err)
	}
	s.session = next
	s.mu.Unlock()

	s.subs.notify(next)
	return next.Profile
}

// Session returns the current session; the zero value when anonymous
func (s *SessionStore) Session() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Profile returns the authenticated profile
func (s *SessionStore) Profile() models.Profile {
	return s.Session().Profile
}

// IsAuthenticated is true if and only if a bearer token is held
func (s *SessionStore) IsAuthenticated() bool {
	return s.Session().IsAuthenticated()
}

// IsAdmin is true for an authenticated admin
func (s *SessionStore) IsAdmin() bool {
	session := s.Session()
	return session.IsAuthenticated() && session.Profile.IsAdmin()
}

// Token returns the bearer token, empty when anonymous
func (s *SessionStore) Token() string {
	return s.Session().Token
}

// Subscribe registers fn to receive the session after every transition
func (s *SessionStore) Subscribe(fn func(models.Session)) (unsubscribe func()) {
	return s.subs.add(fn)
}

func (s *SessionStore) tryFallback(email, password string, cause error) (models.Session, error) {
	var transportErr *api.TransportError
	if s.fallback == nil || !errors.As(cause, &transportErr) || !s.fallback.Knows(email) {
		return models.Session{}, cause
	}

	s.logger.Printf("server unreachable, signing in demonstration account %s", email)
	session, err := s.fallback.Authenticate(email, password)
	if err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// install persists session and only then makes it current
func (s *SessionStore) install(session models.Session) error {
	if !session.IsAuthenticated() {
		return ErrNoToken
	}
	if err := s.slot.Save(session); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	s.subs.notify(session)
	return nil
}
