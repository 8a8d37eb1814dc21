package activitymap

import (
	"context"

	"github.com/goliatone/go-auth-state"
)

// Recorder consumes normalized activity records.
type Recorder interface {
	Record(ctx context.Context, record Normalized) error
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(ctx context.Context, record Normalized) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, record Normalized) error {
	if f == nil {
		return nil
	}
	return f(ctx, record)
}

// Sink bridges the store's activity feed into a Recorder, normalizing each
// event with the configured options. Plug it into the store with
// authstate.WithActivitySink.
type Sink struct {
	recorder Recorder
	opts     []Option
}

var _ authstate.ActivitySink = (*Sink)(nil)

// NewSink builds a Sink that forwards normalized records to recorder.
func NewSink(recorder Recorder, opts ...Option) *Sink {
	return &Sink{recorder: recorder, opts: opts}
}

// Record implements authstate.ActivitySink.
func (s *Sink) Record(ctx context.Context, event authstate.ActivityEvent) error {
	if s == nil || s.recorder == nil {
		return nil
	}
	return s.recorder.Record(ctx, Normalize(event, s.opts...))
}
