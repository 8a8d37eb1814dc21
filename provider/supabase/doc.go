// Package supabase implements the auth state provider interfaces against a
// hosted project (GoTrue auth plus PostgREST row access).
//
// Use this package with authstate.New to drive the state store from a real
// project, and with authstate.NewRouteSession for the HTTP login surface.
package supabase
