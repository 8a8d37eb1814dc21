package authstate

import (
	"context"
	"time"
)

// bootstrap restores whatever session the provider has persisted and settles
// the loading flag. Every path out of here reaches Loading=false exactly
// once; transient restore failures degrade silently to the signed-out state
// instead of surfacing an error.
func (s *Store) bootstrap(ctx context.Context) {
	started := time.Now()

	defer s.commit(func(st *State) bool {
		if !st.Loading {
			return false
		}
		st.Loading = false
		return true
	})

	sessCtx, cancel := context.WithTimeout(ctx, s.bootstrapTimeout)
	sess, err := s.client.GetSession(sessCtx)
	cancel()

	if err != nil {
		s.logger.Warn("session restore failed, starting signed out", "error", err)
		s.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventBootstrapDegraded,
			Metadata: map[string]any{
				"reason":      "session_restore_failed",
				"error":       err.Error(),
				"duration_ms": time.Since(started).Milliseconds(),
			},
		})
		s.clearAuth()
		return
	}

	if sess == nil || sess.User == nil {
		s.logger.Debug("no persisted session, starting signed out")
		s.clearAuth()
		s.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventBootstrapCompleted,
			Metadata:  map[string]any{"duration_ms": time.Since(started).Milliseconds()},
		})
		return
	}

	gen := s.adoptSession(sess, true)
	s.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventSessionAdopted,
		UserID:    sess.UserID(),
	})

	s.fetchProfile(ctx, gen, sess.User.ID)

	s.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventBootstrapCompleted,
		UserID:    sess.UserID(),
		Metadata:  map[string]any{"duration_ms": time.Since(started).Milliseconds()},
	})
}
