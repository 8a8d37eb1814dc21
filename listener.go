package authstate

import (
	"context"
)

// runListener consumes provider auth transitions until the channel closes or
// ctx is canceled.
func (s *Store) runListener(ctx context.Context, changes <-chan AuthChange) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				s.logger.Debug("auth change feed closed")
				return
			}
			s.handleChange(ctx, change)
		}
	}
}

// handleChange reconciles one provider transition into local state. A panic
// while handling is caught and surfaced as a generic error so one bad event
// cannot kill the listener.
func (s *Store) handleChange(ctx context.Context, change AuthChange) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("auth change handling panicked",
				"event", change.Event,
				"recover", r,
			)
			s.recordActivity(ctx, ActivityEvent{
				EventType: ActivityEventListenerRecovered,
				AuthEvent: change.Event,
			})
			s.commit(func(st *State) bool {
				st.Error = MsgAuthEventFailed
				return true
			})
		}
	}()

	if ctx.Err() != nil {
		return
	}

	s.logger.Debug("auth change received", "event", change.Event)

	switch change.Event {
	case EventSignedIn, EventTokenRefreshed:
		if change.Session == nil || change.Session.User == nil {
			s.clearAuth()
			return
		}
		gen := s.adoptSession(change.Session, true)
		s.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventSessionAdopted,
			UserID:    change.Session.UserID(),
			AuthEvent: change.Event,
		})
		s.fetchProfile(ctx, gen, change.Session.User.ID)

	case EventSignedOut:
		s.clearAuth()
		s.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventSessionCleared,
			AuthEvent: change.Event,
		})

	case EventUserUpdated:
		if change.Session == nil || change.Session.User == nil {
			s.clearAuth()
			return
		}
		s.adoptSession(change.Session, false)

	default:
		if change.Session == nil || change.Session.User == nil {
			s.clearAuth()
			s.recordActivity(ctx, ActivityEvent{
				EventType: ActivityEventSessionCleared,
				AuthEvent: change.Event,
			})
			return
		}
		gen := s.adoptSession(change.Session, false)
		if s.needsProfileFetch(change.Session.User.ID) {
			s.fetchProfile(ctx, gen, change.Session.User.ID)
		}
	}
}
