package authstate

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventBootstrapCompleted  ActivityEventType = "state.bootstrap.completed"
	ActivityEventBootstrapDegraded   ActivityEventType = "state.bootstrap.degraded"
	ActivityEventSessionAdopted      ActivityEventType = "state.session.adopted"
	ActivityEventSessionCleared      ActivityEventType = "state.session.cleared"
	ActivityEventListenerRecovered   ActivityEventType = "state.listener.recovered"
	ActivityEventProfileFetched      ActivityEventType = "profile.fetch.success"
	ActivityEventProfileFetchFailed  ActivityEventType = "profile.fetch.failed"
	ActivityEventProfileStaleDrop    ActivityEventType = "profile.fetch.stale"
	ActivityEventProfileUpdated      ActivityEventType = "profile.update.success"
	ActivityEventSignOutSuccess      ActivityEventType = "auth.signout.success"
	ActivityEventSignOutFailure      ActivityEventType = "auth.signout.failure"
	ActivityEventClientCreated       ActivityEventType = "admin.client.created"
	ActivityEventClientCreateFailure ActivityEventType = "admin.client.create.failure"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	AuthEvent  AuthChangeEvent
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}
