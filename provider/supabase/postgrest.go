package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goliatone/go-auth-state"
	"github.com/google/uuid"
)

// pgrstAcceptObject asks the row endpoint for exactly one object. Zero rows
// then surface as 406 with code PGRST116 instead of an empty array.
const (
	pgrstAcceptObject = "application/vnd.pgrst.object+json"
	pgrstCodeNoRows   = "PGRST116"
	preferRepresent   = "return=representation"
)

// profilesAPI implements authstate.ProfileAPI over the REST row endpoint.
// Requests carry the live session token when one exists, so row level
// security applies to end-user reads; sessionless calls fall back to the
// service role key.
type profilesAPI struct {
	client *Client
}

// Profiles implements authstate.Client.
func (c *Client) Profiles() authstate.ProfileAPI {
	return &profilesAPI{client: c}
}

// Get implements authstate.ProfileAPI.
func (p *profilesAPI) Get(ctx context.Context, userID uuid.UUID) (*authstate.Profile, error) {
	c := p.client
	if !c.Configured() {
		return nil, authstate.ErrNotConfigured
	}

	profile := &authstate.Profile{}
	status, err := c.send(ctx, request{
		operation: "profiles_get",
		method:    http.MethodGet,
		endpoint:  p.rowEndpoint(userID),
		apikey:    c.cfg.AnonKey,
		bearer:    c.accessToken(),
		accept:    pgrstAcceptObject,
	}, profile)
	if err != nil {
		if isNoRows(status, err) {
			return nil, authstate.ErrProfileNotFound
		}
		return nil, err
	}

	return profile, nil
}

// Update implements authstate.ProfileAPI. An empty change set degrades to a
// read. The row's updated_at is stamped here so callers never have to.
func (p *profilesAPI) Update(ctx context.Context, userID uuid.UUID, changes authstate.ProfileChanges) (*authstate.Profile, error) {
	c := p.client
	if !c.Configured() {
		return nil, authstate.ErrNotConfigured
	}

	if changes.IsZero() {
		return p.Get(ctx, userID)
	}

	payload := map[string]any{
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if changes.FullName != nil {
		payload["full_name"] = *changes.FullName
	}
	if changes.Email != nil {
		payload["email"] = *changes.Email
	}

	profile := &authstate.Profile{}
	status, err := c.send(ctx, request{
		operation: "profiles_update",
		method:    http.MethodPatch,
		endpoint:  p.rowEndpoint(userID),
		apikey:    c.cfg.AnonKey,
		bearer:    c.accessToken(),
		accept:    pgrstAcceptObject,
		prefer:    preferRepresent,
		payload:   payload,
	}, profile)
	if err != nil {
		if isNoRows(status, err) {
			return nil, authstate.ErrProfileNotFound
		}
		return nil, err
	}

	return profile, nil
}

// Insert implements authstate.ProfileAPI.
func (p *profilesAPI) Insert(ctx context.Context, profile *authstate.Profile) (*authstate.Profile, error) {
	c := p.client
	if !c.Configured() {
		return nil, authstate.ErrNotConfigured
	}

	if profile == nil {
		return nil, fmt.Errorf("supabase: profile is required")
	}

	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.cfg.baseURL(), c.cfg.profilesTable())

	stored := &authstate.Profile{}
	if _, err := c.send(ctx, request{
		operation: "profiles_insert",
		method:    http.MethodPost,
		endpoint:  endpoint,
		apikey:    c.cfg.AnonKey,
		bearer:    c.accessToken(),
		accept:    pgrstAcceptObject,
		prefer:    preferRepresent,
		payload:   profile,
	}, stored); err != nil {
		return nil, err
	}

	return stored, nil
}

func (p *profilesAPI) rowEndpoint(userID uuid.UUID) string {
	c := p.client
	return fmt.Sprintf("%s/rest/v1/%s?id=eq.%s&select=*", c.cfg.baseURL(), c.cfg.profilesTable(), userID)
}

func isNoRows(status int, err error) bool {
	if status == http.StatusNotAcceptable {
		return true
	}

	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == pgrstCodeNoRows
}
