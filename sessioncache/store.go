// Package sessioncache persists provider sessions across process restarts so
// bootstrap can restore a signed-in state without user interaction.
package sessioncache

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-auth-state"
)

var (
	// ErrNoSession is returned by Load when nothing is stored.
	ErrNoSession = errors.New("no cached session")
	// ErrCacheUnavailable wraps backend failures.
	ErrCacheUnavailable = errors.New("session cache unavailable")
)

// Store persists the provider session between runs. Implementations must be
// safe for concurrent use.
type Store interface {
	Load(ctx context.Context) (*authstate.Session, error)
	Save(ctx context.Context, session *authstate.Session) error
	Clear(ctx context.Context) error
}

// Memory keeps the session in process memory. Useful for tests and for
// deployments that prefer a fresh sign-in on restart.
type Memory struct {
	mu      sync.RWMutex
	session *authstate.Session
}

// NewMemory creates an empty in memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (s *Memory) Load(ctx context.Context) (*authstate.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return nil, ErrNoSession
	}

	return s.session.Clone(), nil
}

func (s *Memory) Save(ctx context.Context, session *authstate.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session == nil {
		s.session = nil
		return nil
	}

	s.session = session.Clone()
	return nil
}

func (s *Memory) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil
	return nil
}
