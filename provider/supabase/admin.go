package supabase

import (
	"context"
	"net/http"

	"github.com/goliatone/go-auth-state"
)

// adminAPI implements authstate.AdminAPI over the admin users endpoint.
// Every call authenticates with the service role key, never with the
// end-user session.
type adminAPI struct {
	client *Client
}

// Admin implements authstate.Client. Calls fail with a descriptive APIError
// when the service role key was never configured.
func (c *Client) Admin() authstate.AdminAPI {
	return &adminAPI{client: c}
}

// CreateUser implements authstate.AdminAPI.
func (a *adminAPI) CreateUser(ctx context.Context, input authstate.CreateUserInput) (*authstate.User, error) {
	c := a.client
	if !c.Configured() {
		return nil, authstate.ErrNotConfigured
	}

	if c.cfg.ServiceRoleKey == "" {
		return nil, &APIError{
			Operation: "admin_create_user",
			Code:      "missing_service_role_key",
			Message:   "admin user creation requires the service role key",
		}
	}

	user := &authstate.User{}
	if _, err := c.send(ctx, request{
		operation: "admin_create_user",
		method:    http.MethodPost,
		endpoint:  c.cfg.baseURL() + "/auth/v1/admin/users",
		apikey:    c.cfg.ServiceRoleKey,
		bearer:    c.cfg.ServiceRoleKey,
		payload:   input,
	}, user); err != nil {
		return nil, err
	}

	return user, nil
}
