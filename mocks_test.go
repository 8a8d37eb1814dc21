package authstate_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-auth-state"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient implements authstate.Client. Admin() and Profiles() hand out the
// nested mocks so tests wire expectations on them directly.
type MockClient struct {
	mock.Mock
	AdminMock    *MockAdminAPI
	ProfilesMock *MockProfileAPI
}

func NewMockClient() *MockClient {
	return &MockClient{
		AdminMock:    new(MockAdminAPI),
		ProfilesMock: new(MockProfileAPI),
	}
}

func (m *MockClient) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockClient) GetSession(ctx context.Context) (*authstate.Session, error) {
	args := m.Called(ctx)
	var sess *authstate.Session
	if v := args.Get(0); v != nil {
		sess = v.(*authstate.Session)
	}
	return sess, args.Error(1)
}

func (m *MockClient) AuthChanges(ctx context.Context) (<-chan authstate.AuthChange, error) {
	args := m.Called(ctx)
	switch ch := args.Get(0).(type) {
	case <-chan authstate.AuthChange:
		return ch, args.Error(1)
	case chan authstate.AuthChange:
		return ch, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockClient) Admin() authstate.AdminAPI {
	return m.AdminMock
}

func (m *MockClient) Profiles() authstate.ProfileAPI {
	return m.ProfilesMock
}

type MockAdminAPI struct {
	mock.Mock
}

func (m *MockAdminAPI) CreateUser(ctx context.Context, input authstate.CreateUserInput) (*authstate.User, error) {
	args := m.Called(ctx, input)
	var user *authstate.User
	if v := args.Get(0); v != nil {
		user = v.(*authstate.User)
	}
	return user, args.Error(1)
}

type MockProfileAPI struct {
	mock.Mock
}

func (m *MockProfileAPI) Get(ctx context.Context, userID uuid.UUID) (*authstate.Profile, error) {
	args := m.Called(ctx, userID)
	var profile *authstate.Profile
	if v := args.Get(0); v != nil {
		profile = v.(*authstate.Profile)
	}
	return profile, args.Error(1)
}

func (m *MockProfileAPI) Update(ctx context.Context, userID uuid.UUID, changes authstate.ProfileChanges) (*authstate.Profile, error) {
	args := m.Called(ctx, userID, changes)
	var profile *authstate.Profile
	if v := args.Get(0); v != nil {
		profile = v.(*authstate.Profile)
	}
	return profile, args.Error(1)
}

func (m *MockProfileAPI) Insert(ctx context.Context, profile *authstate.Profile) (*authstate.Profile, error) {
	args := m.Called(ctx, profile)
	var stored *authstate.Profile
	if v := args.Get(0); v != nil {
		stored = v.(*authstate.Profile)
	}
	return stored, args.Error(1)
}

type MockSessionIssuer struct {
	mock.Mock
}

func (m *MockSessionIssuer) SignInWithPassword(ctx context.Context, email, password string) (*authstate.Session, error) {
	args := m.Called(ctx, email, password)
	var sess *authstate.Session
	if v := args.Get(0); v != nil {
		sess = v.(*authstate.Session)
	}
	return sess, args.Error(1)
}

type MockHTTPConfig struct {
	mock.Mock
}

func (m *MockHTTPConfig) GetAccessCookieName() string     { return m.Called().String(0) }
func (m *MockHTTPConfig) GetRefreshCookieName() string    { return m.Called().String(0) }
func (m *MockHTTPConfig) GetAuthScheme() string           { return m.Called().String(0) }
func (m *MockHTTPConfig) GetTokenLookup() string          { return m.Called().String(0) }
func (m *MockHTTPConfig) GetSessionDuration() int         { return m.Called().Int(0) }
func (m *MockHTTPConfig) GetExtendedSessionDuration() int { return m.Called().Int(0) }
func (m *MockHTTPConfig) GetRejectedRouteKey() string     { return m.Called().String(0) }
func (m *MockHTTPConfig) GetRejectedRouteDefault() string { return m.Called().String(0) }

func newMockHTTPConfig() *MockHTTPConfig {
	cfg := new(MockHTTPConfig)
	cfg.On("GetAccessCookieName").Return("access_token").Maybe()
	cfg.On("GetRefreshCookieName").Return("refresh_token").Maybe()
	cfg.On("GetAuthScheme").Return("Bearer").Maybe()
	cfg.On("GetTokenLookup").Return("cookie:access_token,header:Authorization").Maybe()
	cfg.On("GetSessionDuration").Return(24).Maybe()
	cfg.On("GetExtendedSessionDuration").Return(168).Maybe()
	cfg.On("GetRejectedRouteKey").Return("rejected_route").Maybe()
	cfg.On("GetRejectedRouteDefault").Return("/dashboard").Maybe()
	return cfg
}

// MockLoginPayload implements authstate.LoginPayload
type MockLoginPayload struct {
	Identifier      string
	Password        string
	ExtendedSession bool
}

func (p MockLoginPayload) GetIdentifier() string    { return p.Identifier }
func (p MockLoginPayload) GetPassword() string      { return p.Password }
func (p MockLoginPayload) GetExtendedSession() bool { return p.ExtendedSession }

// capturingSink records every activity event for end-of-test assertions.
type capturingSink struct {
	mu     sync.Mutex
	events []authstate.ActivityEvent
}

func (s *capturingSink) Record(_ context.Context, event authstate.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *capturingSink) Events() []authstate.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]authstate.ActivityEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *capturingSink) Types() []authstate.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]authstate.ActivityEventType, 0, len(s.events))
	for _, event := range s.events {
		out = append(out, event.EventType)
	}
	return out
}

func (s *capturingSink) Has(eventType authstate.ActivityEventType) bool {
	for _, recorded := range s.Types() {
		if recorded == eventType {
			return true
		}
	}
	return false
}

func (s *capturingSink) First(eventType authstate.ActivityEventType) (authstate.ActivityEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range s.events {
		if event.EventType == eventType {
			return event, true
		}
	}
	return authstate.ActivityEvent{}, false
}

// stubNavigator records the paths handed to Navigate.
type stubNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *stubNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *stubNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.paths))
	copy(out, n.paths)
	return out
}

// stubStoreConfig implements authstate.Config with fixed values.
type stubStoreConfig struct {
	bootstrapTimeout time.Duration
	fetchMaxAttempts int
	fetchBaseDelay   time.Duration
	signOutPath      string
}

func (c stubStoreConfig) GetBootstrapTimeout() time.Duration { return c.bootstrapTimeout }
func (c stubStoreConfig) GetFetchMaxAttempts() int           { return c.fetchMaxAttempts }
func (c stubStoreConfig) GetFetchBaseDelay() time.Duration   { return c.fetchBaseDelay }
func (c stubStoreConfig) GetSignOutPath() string             { return c.signOutPath }

var (
	testUserID  = uuid.MustParse("4fcf8d2e-06c8-4bde-a9a1-0a2c1f6b9d42")
	otherUserID = uuid.MustParse("9a3e1f7c-52d4-4b08-bc6e-7d9f0a4e2c11")
)

func testUser(email string) *authstate.User {
	return &authstate.User{
		ID:    testUserID,
		Email: email,
		Role:  authstate.ProviderRoleAuthenticated,
	}
}

func testSession(user *authstate.User) *authstate.Session {
	return &authstate.Session{
		AccessToken:  "access-token",
		TokenType:    "bearer",
		RefreshToken: "refresh-token",
		ExpiresIn:    3600,
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
		User:         user,
	}
}

func testProfile(role authstate.ProfileRole) *authstate.Profile {
	return &authstate.Profile{
		ID:       testUserID,
		Email:    "user@example.com",
		FullName: "Ada Lovelace",
		Role:     role,
	}
}

// immediateRetry keeps retried operations fast by skipping the backoff waits.
func immediateRetry(attempts int) authstate.RetryPolicy {
	return authstate.RetryPolicy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			return ctx.Err()
		},
	}
}

// waitSettled blocks until the initial bootstrap published its final state.
func waitSettled(t *testing.T, store *authstate.Store) authstate.State {
	t.Helper()
	require.Eventually(t, func() bool {
		return !store.Snapshot().Loading
	}, 2*time.Second, 5*time.Millisecond, "store never finished bootstrapping")
	return store.Snapshot()
}
