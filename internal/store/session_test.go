package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"testing"

	"github.com/findosh/moneymanager/internal/api"
	"github.com/findosh/moneymanager/internal/models"
	"github.com/findosh/moneymanager/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var (
	adaProfile = models.Profile{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: models.RoleUser}
	adaSession = models.Session{Token: "server-token", Profile: adaProfile}

	demoProfile = models.Profile{ID: "demo-user", Name: "Demo User", Email: "user@demo.com", Role: models.RoleUser}
)

type stubAuth struct {
	session     models.Session
	err         error
	loginCalls  int
	registerIn  models.RegisterInput
	registerErr error
}

func (a *stubAuth) Login(ctx context.Context, email, password string) (models.Session, error) {
	a.loginCalls++
	if a.err != nil {
		return models.Session{}, a.err
	}
	return a.session, nil
}

func (a *stubAuth) Register(ctx context.Context, in models.RegisterInput) (models.Session, error) {
	a.registerIn = in
	if a.registerErr != nil {
		return models.Session{}, a.registerErr
	}
	return a.session, nil
}

type stubFallback struct {
	calls int
}

func (f *stubFallback) Knows(email string) bool {
	return email == "user@demo.com"
}

func (f *stubFallback) Authenticate(email, password string) (models.Session, error) {
	f.calls++
	if email != "user@demo.com" || password != "password123" {
		return models.Session{}, errors.New("invalid email or password")
	}
	return models.Session{Token: "demo-token", Profile: demoProfile}, nil
}

func unreachable() error {
	return &api.TransportError{Op: "POST /auth/login", Err: errors.New("connection refused")}
}

type SessionStoreTestSuite struct {
	suite.Suite
	db       *storage.DB
	ns       *storage.Namespace
	auth     *stubAuth
	fallback *stubFallback
	sessions *SessionStore
}

func (s *SessionStoreTestSuite) SetupTest() {
	db, err := storage.Open(":memory:")
	s.Require().NoError(err)
	s.db = db
	s.ns = db.Namespace(storage.NamespaceSession)
	s.auth = &stubAuth{session: adaSession}
	s.fallback = &stubFallback{}
	s.sessions = s.newStore()
}

func (s *SessionStoreTestSuite) TearDownTest() {
	s.db.Close()
}

func (s *SessionStoreTestSuite) newStore() *SessionStore {
	return NewSessionStore(s.auth, storage.NewSlot[models.Session](s.ns, "state"), WithFallback(s.fallback))
}

func (s *SessionStoreTestSuite) persisted() bool {
	_, ok, err := s.ns.Get("state")
	s.Require().NoError(err)
	return ok
}

func (s *SessionStoreTestSuite) TestLoginRoundTrip() {
	profile, err := s.sessions.Login(context.Background(), "ada@example.com", "secret")
	s.Require().NoError(err)

	s.Equal(adaProfile, profile)
	s.Equal(adaProfile, s.sessions.Profile())
	s.True(s.sessions.IsAuthenticated())
	s.Equal("server-token", s.sessions.Token())
	s.True(s.persisted())

	s.sessions.Logout()
	s.False(s.sessions.IsAuthenticated())
	s.Empty(s.sessions.Token())
	s.False(s.persisted(), "persisted session must be gone after logout")
}

func (s *SessionStoreTestSuite) TestRehydrate() {
	_, err := s.sessions.Login(context.Background(), "ada@example.com", "secret")
	s.Require().NoError(err)

	reloaded := s.newStore()
	s.False(reloaded.IsAuthenticated(), "nothing is read before Load")

	got := reloaded.Load()
	s.Equal(adaSession, got)
	s.True(reloaded.IsAuthenticated())
	s.Equal(adaProfile, reloaded.Profile())
}

func (s *SessionStoreTestSuite) TestRehydrateCorruptSnapshot() {
	s.Require().NoError(s.ns.Set("state", "not json"))

	var logs bytes.Buffer
	store := NewSessionStore(s.auth, storage.NewSlot[models.Session](s.ns, "state"), WithSessionLogger(log.New(&logs, "", 0)))
	got := store.Load()

	s.False(got.IsAuthenticated())
	s.False(store.IsAuthenticated())
	s.Contains(logs.String(), "failed to load session")
}

func (s *SessionStoreTestSuite) TestLogoutIdempotent() {
	s.sessions.Logout()
	s.sessions.Logout()
	s.False(s.sessions.IsAuthenticated())
}

func (s *SessionStoreTestSuite) TestFailedLoginLeavesStateUnchanged() {
	_, err := s.sessions.Login(context.Background(), "ada@example.com", "secret")
	s.Require().NoError(err)

	s.auth.err = &api.CredentialsError{StatusCode: http.StatusUnauthorized, Message: "Incorrect email or password"}
	_, err = s.sessions.Login(context.Background(), "someone@example.com", "bad")
	s.Require().Error(err)
	s.Equal("Incorrect email or password", err.Error())

	s.Equal(adaSession, s.sessions.Session())
}

func (s *SessionStoreTestSuite) TestFallbackIsolation() {
	tests := []struct {
		name        string
		authErr     error
		email       string
		password    string
		wantProfile *models.Profile
		wantCalls   int
	}{
		{"transport error unknown email", unreachable(), "ada@example.com", "secret", nil, 0},
		{"transport error demo email", unreachable(), "user@demo.com", "password123", &demoProfile, 1},
		{"wrapped transport error", fmt.Errorf("login: %w", unreachable()), "user@demo.com", "password123", &demoProfile, 1},
		{"transport error wrong demo password", unreachable(), "user@demo.com", "wrong", nil, 1},
		{"credentials error demo email", &api.CredentialsError{StatusCode: 401, Message: "Incorrect email or password"}, "user@demo.com", "password123", nil, 0},
		{"server error demo email", &api.Error{StatusCode: 500, Message: "boom"}, "user@demo.com", "password123", nil, 0},
		{"cancelled demo email", context.Canceled, "user@demo.com", "password123", nil, 0},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.TearDownTest()
			s.SetupTest()
			s.auth.err = tt.authErr

			profile, err := s.sessions.Login(context.Background(), tt.email, tt.password)
			s.Equal(tt.wantCalls, s.fallback.calls)

			if tt.wantProfile == nil {
				s.Error(err)
				s.False(s.sessions.IsAuthenticated())
				s.False(s.persisted())
				return
			}
			s.Require().NoError(err)
			s.Equal(*tt.wantProfile, profile)
			s.Equal("demo-token", s.sessions.Token())
			s.True(s.persisted())
		})
	}
}

func (s *SessionStoreTestSuite) TestFallbackOnlyWhenConfigured() {
	s.auth.err = unreachable()
	store := NewSessionStore(s.auth, storage.NewSlot[models.Session](s.ns, "state"))

	_, err := store.Login(context.Background(), "user@demo.com", "password123")
	s.True(api.IsTransport(err))
	s.False(store.IsAuthenticated())
}

func (s *SessionStoreTestSuite) TestRegister() {
	in := models.RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "secret"}
	profile, err := s.sessions.Register(context.Background(), in)
	s.Require().NoError(err)

	s.Equal(in, s.auth.registerIn)
	s.Equal(adaProfile, profile)
	s.True(s.sessions.IsAuthenticated())
}

func (s *SessionStoreTestSuite) TestRegisterNeverFallsBack() {
	s.auth.registerErr = unreachable()

	_, err := s.sessions.Register(context.Background(), models.RegisterInput{Name: "Demo", Email: "user@demo.com", Password: "password123"})
	s.True(api.IsTransport(err))
	s.Zero(s.fallback.calls)
	s.False(s.sessions.IsAuthenticated())
}

func (s *SessionStoreTestSuite) TestEmptyTokenRejected() {
	s.auth.session = models.Session{Profile: adaProfile}

	_, err := s.sessions.Login(context.Background(), "ada@example.com", "secret")
	s.ErrorIs(err, ErrNoToken)
	s.False(s.sessions.IsAuthenticated())
}

func (s *SessionStoreTestSuite) TestUpdateProfile() {
	_, err := s.sessions.Login(context.Background(), "ada@example.com", "secret")
	s.Require().NoError(err)

	name, phone := "Ada King", "+94 77 123 4567"
	got := s.sessions.UpdateProfile(models.ProfileUpdate{Name: &name, Phone: &phone})

	s.Equal(name, got.Name)
	s.Equal(phone, got.Phone)
	s.Equal("ada@example.com", got.Email, "email is immutable")
	s.Equal("server-token", s.sessions.Token())

	reloaded := s.newStore()
	s.Equal(name, reloaded.Load().Profile.Name, "profile change is persisted")
}

func (s *SessionStoreTestSuite) TestUpdateProfileAnonymousIsNoop() {
	name := "Nobody"
	got := s.sessions.UpdateProfile(models.ProfileUpdate{Name: &name})

	s.Equal(models.Profile{}, got)
	s.False(s.sessions.IsAuthenticated())
	s.False(s.persisted())
}

func (s *SessionStoreTestSuite) TestIsAdmin() {
	s.False(s.sessions.IsAdmin())

	admin := adaSession
	admin.Profile.Role = models.RoleAdmin
	s.auth.session = admin
	_, err := s.sessions.Login(context.Background(), "ada@example.com", "secret")
	s.Require().NoError(err)
	s.True(s.sessions.IsAdmin())
}

func (s *SessionStoreTestSuite) TestSubscribe() {
	var seen []bool
	unsubscribe := s.sessions.Subscribe(func(session models.Session) {
		seen = append(seen, session.IsAuthenticated())
	})

	_, err := s.sessions.Login(context.Background(), "ada@example.com", "secret")
	s.Require().NoError(err)
	s.sessions.Logout()
	s.sessions.Logout()
	unsubscribe()
	_, err = s.sessions.Login(context.Background(), "ada@example.com", "secret")
	s.Require().NoError(err)

	s.Equal([]bool{true, false}, seen)
}

func TestSessionStoreTestSuite(t *testing.T) {
	suite.Run(t, new(SessionStoreTestSuite))
}

func TestSessionStore_PersistFailureInstallsNothing(t *testing.T) {
	slot := &memorySlot[models.Session]{saveErr: errDiskFull}
	sessions := NewSessionStore(&stubAuth{session: adaSession}, slot)

	_, err := sessions.Login(context.Background(), "ada@example.com", "secret")
	require.ErrorIs(t, err, errDiskFull)
	assert.False(t, sessions.IsAuthenticated())
}
