package authstate

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultBootstrapTimeout bounds the initial session restore call.
const DefaultBootstrapTimeout = 5 * time.Second

// DefaultSignOutPath is where the navigation hook points after sign-out.
const DefaultSignOutPath = "/"

const (
	// MsgNotConfigured is the user-facing message for missing provider credentials
	MsgNotConfigured = "Authentication is not configured. Add provider credentials to enable sign-in."
	// MsgAuthEventFailed is the generic message surfaced when an auth update
	// could not be applied
	MsgAuthEventFailed = "Something went wrong while updating your session. Try reloading."
)

// Store synchronizes provider auth state into an observable local snapshot.
// It owns the bootstrap sequence, the live auth-change listener, and the
// session mutations; everything provider-specific stays behind the Client
// interface. Construct with New, wire observers with Subscribe, then Start.
type Store struct {
	client    Client
	logger    Logger
	lprovider LoggerProvider
	activity  ActivitySink
	navigator Navigator
	retry     RetryPolicy

	bootstrapTimeout time.Duration
	signOutPath      string

	mu         sync.RWMutex
	state      State
	generation uint64

	notifyMu sync.Mutex
	subs     []subscriber
	nextSub  int

	lifeMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type subscriber struct {
	id int
	fn func(State)
}

// StoreOption configures a Store during construction.
type StoreOption func(*Store) *Store

// WithLogger sets the logger used by the store and its background tasks.
func WithLogger(logger Logger) StoreOption {
	return func(s *Store) *Store {
		if logger != nil {
			s.logger = logger
		}
		return s
	}
}

// WithLoggerProvider sets the provider used to resolve scoped loggers.
func WithLoggerProvider(provider LoggerProvider) StoreOption {
	return func(s *Store) *Store {
		if provider != nil {
			s.lprovider = provider
		}
		return s
	}
}

// WithActivitySink routes audit events to the given sink.
func WithActivitySink(sink ActivitySink) StoreOption {
	return func(s *Store) *Store {
		if sink != nil {
			s.activity = sink
		}
		return s
	}
}

// WithNavigator sets the hook invoked with the sign-out path.
func WithNavigator(nav Navigator) StoreOption {
	return func(s *Store) *Store {
		if nav != nil {
			s.navigator = nav
		}
		return s
	}
}

// WithRetryPolicy overrides the profile fetch retry policy.
func WithRetryPolicy(policy RetryPolicy) StoreOption {
	return func(s *Store) *Store {
		s.retry = policy
		return s
	}
}

// WithBootstrapTimeout overrides the initial session restore timeout.
func WithBootstrapTimeout(d time.Duration) StoreOption {
	return func(s *Store) *Store {
		if d > 0 {
			s.bootstrapTimeout = d
		}
		return s
	}
}

// WithSignOutPath overrides the path handed to the navigator after sign-out.
func WithSignOutPath(path string) StoreOption {
	return func(s *Store) *Store {
		if path != "" {
			s.signOutPath = path
		}
		return s
	}
}

// WithStoreConfig applies every tuning knob from a Config in one option.
func WithStoreConfig(cfg Config) StoreOption {
	return func(s *Store) *Store {
		if cfg == nil {
			return s
		}
		if d := cfg.GetBootstrapTimeout(); d > 0 {
			s.bootstrapTimeout = d
		}
		if n := cfg.GetFetchMaxAttempts(); n > 0 {
			s.retry.MaxAttempts = n
		}
		if d := cfg.GetFetchBaseDelay(); d > 0 {
			s.retry.BaseDelay = d
		}
		if p := cfg.GetSignOutPath(); p != "" {
			s.signOutPath = p
		}
		return s
	}
}

// New creates a Store bound to the given provider client. The store starts
// in the loading state; call Start to run the bootstrap and listener.
func New(client Client, opts ...StoreOption) *Store {
	s := &Store{
		client:           client,
		activity:         noopActivitySink{},
		bootstrapTimeout: DefaultBootstrapTimeout,
		signOutPath:      DefaultSignOutPath,
		state:            State{Loading: true},
	}

	for _, opt := range opts {
		if opt != nil {
			s = opt(s)
		}
	}

	if s.client == nil {
		panic("Missing Client in auth state store...")
	}

	s.lprovider, s.logger = ResolveLogger("authstate.store", s.lprovider, s.logger)

	if s.navigator == nil {
		logger := s.logger
		s.navigator = NavigatorFunc(func(path string) {
			logger.Info("navigation requested", "path", path)
		})
	}

	return s
}

// Start runs the bootstrap sequence and the auth-change listener, both bound
// to ctx. Cancellation of ctx (or Stop) tears both down; state writes after
// teardown are discarded. Start returns once the background tasks are
// launched, not when bootstrap completes; observe Loading for that.
func (s *Store) Start(ctx context.Context) error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.cancel != nil {
		return errors.New("auth state store already started", errors.CategoryConflict)
	}

	if !s.client.Configured() {
		s.logger.Warn("auth provider is not configured, store is inert")
		s.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventBootstrapDegraded,
			Metadata:  map[string]any{"reason": "not_configured"},
		})
		s.commit(func(st *State) bool {
			st.User, st.Profile, st.Session = nil, nil, nil
			st.Error = MsgNotConfigured
			st.Loading = false
			return true
		})
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)

	changes, err := s.client.AuthChanges(runCtx)
	if err != nil {
		s.logger.Warn("auth change subscription failed, live updates disabled", "error", err)
		changes = nil
	}

	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.bootstrap(runCtx)
	}()

	if changes != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runListener(runCtx, changes)
		}()
	}

	go func() {
		wg.Wait()
		close(done)
	}()

	return nil
}

// Stop cancels the listener scope and waits for the background tasks to
// drain. Safe to call more than once.
func (s *Store) Stop() {
	s.lifeMu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.lifeMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Snapshot returns a copy of the current auth state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// View resolves the screen the current state calls for.
func (s *Store) View() View {
	return ResolveView(s.Snapshot())
}

// Subscribe registers an observer. fn is invoked with the current snapshot
// immediately, then after every committed change, always outside the state
// lock. Observers must return promptly and must not call back into the
// store synchronously. The returned function removes the observer.
func (s *Store) Subscribe(fn func(State)) func() {
	if fn == nil {
		return func() {}
	}

	s.notifyMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	fn(s.Snapshot())
	s.notifyMu.Unlock()

	return func() {
		s.notifyMu.Lock()
		defer s.notifyMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// SignOut asks the provider to invalidate the session, clears local state
// regardless of the provider's answer, and always hands the sign-out path to
// the navigator, even when the provider call fails or panics. The provider
// error, if any, is returned for the caller's messaging.
func (s *Store) SignOut(ctx context.Context) (err error) {
	userID := s.currentUserID()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sign out panicked", "recover", r)
			err = errors.New("sign out failed", errors.CategoryInternal)
		}
		s.clearAuth()
		s.navigator.Navigate(s.signOutPath)
	}()

	if err = s.client.SignOut(ctx); err != nil {
		s.logger.Warn("provider sign out failed, clearing local state anyway", "error", err)
		s.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventSignOutFailure,
			UserID:    userID,
			Metadata:  map[string]any{"error": err.Error()},
		})
		return err
	}

	s.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventSignOutSuccess,
		UserID:    userID,
	})

	return nil
}

// commit applies a mutation and, when the mutation reports a change,
// notifies subscribers with the committed snapshot. Notification order
// matches commit order.
func (s *Store) commit(mutate func(*State) bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	changed := mutate(&s.state)
	snap := s.state.clone()
	s.mu.Unlock()

	if !changed {
		return
	}

	for _, sub := range s.subs {
		sub.fn(snap)
	}
}

// adoptSession installs the session and its user, bumping the generation
// when the identity changed. It returns the generation that tags any profile
// fetch started for this adoption.
func (s *Store) adoptSession(sess *Session, clearError bool) uint64 {
	var gen uint64
	s.commit(func(st *State) bool {
		prevID := ""
		if st.User != nil {
			prevID = st.User.ID.String()
		}

		st.User = sess.User.Clone()
		st.Session = sess.Clone()
		if clearError {
			st.Error = ""
		}

		if prevID != sess.User.ID.String() {
			s.generation++
			st.Profile = nil
		}
		gen = s.generation
		return true
	})
	return gen
}

// clearAuth resets user, profile, session, and error, and advances the
// generation so in-flight profile fetches land stale. Loading is never
// touched here.
func (s *Store) clearAuth() {
	s.commit(func(st *State) bool {
		st.User = nil
		st.Profile = nil
		st.Session = nil
		st.Error = ""
		s.generation++
		return true
	})
}

// commitProfile installs a fetched profile if the tagged generation is still
// current; stale results are discarded without notifying observers.
func (s *Store) commitProfile(ctx context.Context, gen uint64, profile *Profile) {
	stale := false

	s.commit(func(st *State) bool {
		if s.generation != gen {
			stale = true
			return false
		}
		if profile == nil && st.Profile == nil {
			return false
		}
		st.Profile = profile.Clone()
		return true
	})

	if stale {
		s.logger.Debug("discarding stale profile fetch result", "generation", gen)
		s.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventProfileStaleDrop,
			Metadata:  map[string]any{"generation": gen},
		})
	}
}

func (s *Store) currentUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User == nil {
		return ""
	}
	return s.state.User.ID.String()
}

// needsProfileFetch reports whether the held profile is missing or belongs
// to a different user.
func (s *Store) needsProfileFetch(userID uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Profile == nil || s.state.Profile.ID != userID
}

func (s *Store) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := s.activity.Record(ctx, event); err != nil {
		s.logger.Debug("activity sink rejected event", "event_type", event.EventType, "error", err)
	}
}
