package authstate

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// fetchProfile retrieves the profile row for a user with bounded retries and
// commits the outcome under the fetch generation. A missing row is a valid
// terminal outcome, not an error; exhausted retries leave the profile nil
// and never surface in State.Error.
func (s *Store) fetchProfile(ctx context.Context, gen uint64, userID uuid.UUID) {
	policy := s.retry
	policy.Terminal = IsProfileNotFound

	started := time.Now()

	profile, err := Retry(ctx, policy, func(ctx context.Context, attempt int) (*Profile, error) {
		p, err := s.client.Profiles().Get(ctx, userID)
		if err != nil && !IsProfileNotFound(err) {
			s.logger.Debug("profile fetch attempt failed",
				"attempt", attempt,
				"user_id", userID.String(),
				"error", err,
			)
		}
		return p, err
	})

	if err != nil {
		if IsProfileNotFound(err) {
			s.logger.Debug("profile row not provisioned yet", "user_id", userID.String())
			s.commitProfile(ctx, gen, nil)
			return
		}

		if ctx.Err() != nil {
			return
		}

		s.logger.Warn("profile fetch exhausted retries",
			"user_id", userID.String(),
			"error", err,
		)
		s.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventProfileFetchFailed,
			UserID:    userID.String(),
			Metadata: map[string]any{
				"error":       err.Error(),
				"duration_ms": time.Since(started).Milliseconds(),
			},
		})
		s.commitProfile(ctx, gen, nil)
		return
	}

	s.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventProfileFetched,
		UserID:    userID.String(),
		Metadata:  map[string]any{"duration_ms": time.Since(started).Milliseconds()},
	})

	s.commitProfile(ctx, gen, profile)
}

// UpdateProfile applies a partial change set to the signed-in user's profile
// row and adopts the row the provider returns. Callers get the provider
// error untouched; an unauthenticated store returns ErrNotAuthenticated
// without any provider call.
func (s *Store) UpdateProfile(ctx context.Context, changes ProfileChanges) (*Profile, error) {
	snap := s.Snapshot()
	if snap.User == nil {
		return nil, ErrNotAuthenticated
	}

	updated, err := s.client.Profiles().Update(ctx, snap.User.ID, changes)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "profile update failed").
			WithMetadata(map[string]any{"user_id": snap.User.ID.String()})
	}

	userID := snap.User.ID
	s.commit(func(st *State) bool {
		if st.User == nil || st.User.ID != userID {
			return false
		}
		st.Profile = updated.Clone()
		return true
	})

	s.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventProfileUpdated,
		UserID:     userID.String(),
		OccurredAt: time.Now(),
	})

	return updated.Clone(), nil
}
