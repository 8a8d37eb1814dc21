// Package metrics exposes auth state activity as Prometheus series.
package metrics

import (
	"context"
	"net/http"

	"github.com/goliatone/go-auth-state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements authstate.ActivitySink on top of a Prometheus
// registry. Wire it into a store with authstate.WithActivitySink.
type Collector struct {
	activity            *prometheus.CounterVec
	authChanges         *prometheus.CounterVec
	signOutFailures     prometheus.Counter
	staleProfileDrops   prometheus.Counter
	bootstrapSeconds    prometheus.Histogram
	profileFetchSeconds prometheus.Histogram
}

var _ authstate.ActivitySink = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		activity: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authstate_activity_total",
			Help: "Activity events by type",
		}, []string{"event_type"}),
		authChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authstate_auth_changes_total",
			Help: "Provider auth change notifications by event",
		}, []string{"event"}),
		signOutFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authstate_signout_failures_total",
			Help: "Sign out attempts the provider rejected",
		}),
		staleProfileDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authstate_stale_profile_drops_total",
			Help: "Profile fetch results discarded because the session moved on",
		}),
		bootstrapSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "authstate_bootstrap_duration_seconds",
			Help:    "Time spent restoring the persisted session at startup",
			Buckets: prometheus.DefBuckets,
		}),
		profileFetchSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "authstate_profile_fetch_duration_seconds",
			Help:    "Time spent fetching the profile row, retries included",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.activity,
		c.authChanges,
		c.signOutFailures,
		c.staleProfileDrops,
		c.bootstrapSeconds,
		c.profileFetchSeconds,
	)

	return c
}

// Record implements authstate.ActivitySink. It never returns an error so a
// scrape problem cannot disturb state handling.
func (c *Collector) Record(ctx context.Context, event authstate.ActivityEvent) error {
	c.activity.WithLabelValues(string(event.EventType)).Inc()

	if event.AuthEvent != "" {
		c.authChanges.WithLabelValues(string(event.AuthEvent)).Inc()
	}

	switch event.EventType {
	case authstate.ActivityEventSignOutFailure:
		c.signOutFailures.Inc()
	case authstate.ActivityEventProfileStaleDrop:
		c.staleProfileDrops.Inc()
	case authstate.ActivityEventBootstrapCompleted, authstate.ActivityEventBootstrapDegraded:
		if ms, ok := durationMillis(event.Metadata); ok {
			c.bootstrapSeconds.Observe(ms / 1000)
		}
	case authstate.ActivityEventProfileFetched, authstate.ActivityEventProfileFetchFailed:
		if ms, ok := durationMillis(event.Metadata); ok {
			c.profileFetchSeconds.Observe(ms / 1000)
		}
	}

	return nil
}

func durationMillis(metadata map[string]any) (float64, bool) {
	raw, ok := metadata["duration_ms"]
	if !ok {
		return 0, false
	}

	switch v := raw.(type) {
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case float64:
		return v, true
	}

	return 0, false
}

// Handler returns an HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
