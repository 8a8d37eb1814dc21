// Package authstate manages application auth state for services that delegate
// authentication and user storage to an external provider (GoTrue-style auth
// plus a PostgREST-style row store). It does not implement an authentication
// protocol; it turns provider primitives into one observable snapshot.
//
// State lifecycle:
//   - Store holds {User, Profile, Session, Loading, Error} behind a single
//     snapshot. Start runs the session bootstrap (bounded by a timeout) and
//     then reconciles provider auth-change events until its context is
//     cancelled. Loading flips to false exactly once per Start.
//   - Profile rows are fetched with a bounded retry policy; a missing row is
//     a valid terminal outcome, not an error. Fetches are tagged with an
//     identity generation so a stale result can never overwrite state that
//     belongs to a newer sign-in.
//
// Mutations:
//   - SignOut clears local state whether or not the provider call succeeds
//     and always invokes the navigation hook with the configured sign-out path.
//   - UpdateProfile applies a partial change set through the provider row
//     store and adopts the returned row.
//   - CreateClient provisions a provider account through the admin API and
//     inserts the matching profile row with the client role.
//
// Activity sinks:
//   - ActivitySink receives bootstrap, reconcile, fetch, and mutation events
//     best-effort (errors are logged, never block state changes). The metrics
//     subpackage ships a prometheus-backed sink.
package authstate
