package authstate

import (
	"context"
	"sync"
	"sync/atomic"
)

// AuthChangeEvent identifies a provider auth lifecycle transition. The values
// mirror the provider's wire-level event names so feeds can be bridged
// without translation.
type AuthChangeEvent string

const (
	// EventInitialSession fires once when the provider finishes restoring
	// whatever session it had persisted, with a nil session when none existed
	EventInitialSession AuthChangeEvent = "INITIAL_SESSION"
	// EventSignedIn fires when a session is established
	EventSignedIn AuthChangeEvent = "SIGNED_IN"
	// EventSignedOut fires when the session is terminated
	EventSignedOut AuthChangeEvent = "SIGNED_OUT"
	// EventTokenRefreshed fires when the access token is rotated
	EventTokenRefreshed AuthChangeEvent = "TOKEN_REFRESHED"
	// EventUserUpdated fires when the provider user record changes
	EventUserUpdated AuthChangeEvent = "USER_UPDATED"
	// EventPasswordRecovery fires when the user lands from a recovery link
	EventPasswordRecovery AuthChangeEvent = "PASSWORD_RECOVERY"
)

// IsValid checks if the event is one of the known lifecycle transitions
func (e AuthChangeEvent) IsValid() bool {
	switch e {
	case EventInitialSession, EventSignedIn, EventSignedOut,
		EventTokenRefreshed, EventUserUpdated, EventPasswordRecovery:
		return true
	default:
		return false
	}
}

// CarriesSession reports whether the event is expected to carry a session
// payload. SIGNED_OUT never does; INITIAL_SESSION may carry nil.
func (e AuthChangeEvent) CarriesSession() bool {
	switch e {
	case EventSignedIn, EventTokenRefreshed, EventUserUpdated:
		return true
	default:
		return false
	}
}

// AuthChange is one provider auth transition: the event plus the session
// that holds after it. Session is nil for SIGNED_OUT and for an
// INITIAL_SESSION with nothing restored.
type AuthChange struct {
	Event   AuthChangeEvent
	Session *Session
}

// changeFeedBuffer bounds each subscriber channel. Auth transitions are
// human-paced, so a stuck consumer is the only way to fill it.
const changeFeedBuffer = 16

// ChangeFeed fans provider auth transitions out to any number of
// subscribers. Emit never blocks: a subscriber that stops draining its
// channel loses events and the loss is counted.
type ChangeFeed struct {
	mu      sync.Mutex
	subs    map[int]chan AuthChange
	nextID  int
	closed  bool
	dropped atomic.Uint64
}

// NewChangeFeed creates an empty feed ready for subscribers.
func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{
		subs: make(map[int]chan AuthChange),
	}
}

// Subscribe registers a new consumer. The returned channel is closed when
// ctx is canceled or the feed shuts down.
func (f *ChangeFeed) Subscribe(ctx context.Context) <-chan AuthChange {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan AuthChange, changeFeedBuffer)
	if f.closed {
		close(ch)
		return ch
	}

	id := f.nextID
	f.nextID++
	f.subs[id] = ch

	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			f.unsubscribe(id)
		}()
	}

	return ch
}

func (f *ChangeFeed) unsubscribe(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if ch, ok := f.subs[id]; ok {
		delete(f.subs, id)
		close(ch)
	}
}

// Emit delivers the change to every live subscriber.
func (f *ChangeFeed) Emit(change AuthChange) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}

	for _, ch := range f.subs {
		select {
		case ch <- change:
		default:
			f.dropped.Add(1)
		}
	}
}

// Dropped returns how many deliveries were discarded because a subscriber
// stopped draining its channel.
func (f *ChangeFeed) Dropped() uint64 {
	return f.dropped.Load()
}

// Close shuts the feed down and closes every subscriber channel. Emit and
// Subscribe become no-ops afterwards.
func (f *ChangeFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true

	for id, ch := range f.subs {
		delete(f.subs, id)
		close(ch)
	}
}
