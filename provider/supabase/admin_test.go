package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-auth-state"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminCreateUser(t *testing.T) {
	userID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/admin/users", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "new@example.com", body["email"])
		assert.Equal(t, true, body["email_confirm"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    userID.String(),
			"email": "new@example.com",
			"role":  "authenticated",
		})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.ServiceRoleKey = "service-key"

	client := New(cfg)
	defer client.Close()

	user, err := client.Admin().CreateUser(context.Background(), authstate.CreateUserInput{
		Email:        "new@example.com",
		Password:     "generated-password",
		EmailConfirm: true,
	})
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "new@example.com", user.Email)
}

func TestAdminCreateUserRequiresServiceKey(t *testing.T) {
	client := New(testConfig("https://abc.supabase.co"))
	defer client.Close()

	_, err := client.Admin().CreateUser(context.Background(), authstate.CreateUserInput{
		Email: "new@example.com",
	})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "missing_service_role_key", apiErr.Code)
}

func TestAdminCreateUserRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 422,
			"msg":  "A user with this email address has already been registered",
		})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.ServiceRoleKey = "service-key"

	client := New(cfg)
	defer client.Close()

	_, err := client.Admin().CreateUser(context.Background(), authstate.CreateUserInput{
		Email: "dupe@example.com",
	})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "admin_create_user", apiErr.Operation)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Contains(t, apiErr.Message, "already been registered")
}
