package embedded

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/goliatone/go-auth-state"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/crypto/bcrypt"
)

func setupDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())
	require.NoError(t, CreateTables(context.Background(), bunDB))

	t.Cleanup(func() {
		_ = bunDB.Close()
	})

	return bunDB
}

func setupClient(t *testing.T) *Client {
	t.Helper()

	client, err := New(Config{
		DB:         setupDB(t),
		SigningKey: []byte("test-signing-key"),
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)

	t.Cleanup(client.Close)

	return client
}

func createAccount(t *testing.T, client *Client, email, password string) *authstate.User {
	t.Helper()

	user, err := client.Admin().CreateUser(context.Background(), authstate.CreateUserInput{
		Email:        email,
		Password:     password,
		EmailConfirm: true,
	})
	require.NoError(t, err)
	require.NotNil(t, user)

	return user
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{})
	require.ErrorContains(t, err, "DB is required")

	_, err = New(Config{DB: setupDB(t)})
	require.ErrorContains(t, err, "SigningKey is required")
}

func TestAdminCreateUser(t *testing.T) {
	client := setupClient(t)

	user := createAccount(t, client, "ada@example.com", "correct horse")
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, authstate.ProviderRoleAuthenticated, user.Role)

	// same email derives the same id, so re-provisioning collides instead
	// of forking a second account
	assert.Equal(t, accountID("ada@example.com"), user.ID)

	_, err := client.Admin().CreateUser(context.Background(), authstate.CreateUserInput{
		Email:    "ada@example.com",
		Password: "other password",
	})
	require.Error(t, err)
}

func TestAdminCreateUserValidation(t *testing.T) {
	client := setupClient(t)

	_, err := client.Admin().CreateUser(context.Background(), authstate.CreateUserInput{
		Password: "some password",
	})
	require.ErrorContains(t, err, "email is required")

	_, err = client.Admin().CreateUser(context.Background(), authstate.CreateUserInput{
		Email: "ada@example.com",
	})
	require.ErrorContains(t, err, "password is required")
}

func TestAdminCreateUserPasswordChangeFlag(t *testing.T) {
	client := setupClient(t)

	user, err := client.Admin().CreateUser(context.Background(), authstate.CreateUserInput{
		Email:    "new@example.com",
		Password: "temp password",
		AppMetadata: map[string]any{
			"password_change_required": true,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, user.AppMetadata)
	assert.Equal(t, true, user.AppMetadata["password_change_required"])
}

func TestSignInWithPassword(t *testing.T) {
	client := setupClient(t)
	created := createAccount(t, client, "ada@example.com", "correct horse")

	changes, err := client.AuthChanges(context.Background())
	require.NoError(t, err)

	sess, err := client.SignInWithPassword(context.Background(), "ada@example.com", "correct horse")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.NotEmpty(t, sess.AccessToken)
	assert.NotEmpty(t, sess.RefreshToken)
	assert.Equal(t, "bearer", sess.TokenType)
	require.NotNil(t, sess.User)
	assert.Equal(t, created.ID, sess.User.ID)

	claims, err := client.TokenService().Validate(sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID.String(), claims.Subject())
	assert.Equal(t, "ada@example.com", claims.Email())

	select {
	case change := <-changes:
		assert.Equal(t, authstate.EventSignedIn, change.Event)
		require.NotNil(t, change.Session)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for auth change")
	}

	current, err := client.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, sess.AccessToken, current.AccessToken)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	client := setupClient(t)
	createAccount(t, client, "ada@example.com", "correct horse")

	_, err := client.SignInWithPassword(context.Background(), "ada@example.com", "wrong")
	assert.ErrorIs(t, err, authstate.ErrInvalidCredentials)

	_, err = client.SignInWithPassword(context.Background(), "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, authstate.ErrInvalidCredentials)
}

func TestRefreshRotatesTokens(t *testing.T) {
	client := setupClient(t)
	createAccount(t, client, "ada@example.com", "correct horse")

	sess, err := client.SignInWithPassword(context.Background(), "ada@example.com", "correct horse")
	require.NoError(t, err)

	client.mu.Lock()
	client.session.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	client.mu.Unlock()

	changes, err := client.AuthChanges(context.Background())
	require.NoError(t, err)

	refreshed, err := client.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, refreshed)
	assert.NotEqual(t, sess.RefreshToken, refreshed.RefreshToken)
	assert.False(t, refreshed.IsExpired(time.Now()))

	select {
	case change := <-changes:
		assert.Equal(t, authstate.EventTokenRefreshed, change.Event)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for auth change")
	}

	// the rotation burned the original token
	_, _, ok := client.refresh.rotate(sess.RefreshToken)
	assert.False(t, ok)
}

func TestSignOutRevokesRefreshTokens(t *testing.T) {
	client := setupClient(t)
	createAccount(t, client, "ada@example.com", "correct horse")

	sess, err := client.SignInWithPassword(context.Background(), "ada@example.com", "correct horse")
	require.NoError(t, err)

	changes, err := client.AuthChanges(context.Background())
	require.NoError(t, err)

	require.NoError(t, client.SignOut(context.Background()))

	select {
	case change := <-changes:
		assert.Equal(t, authstate.EventSignedOut, change.Event)
		assert.Nil(t, change.Session)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for auth change")
	}

	current, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)

	_, _, ok := client.refresh.rotate(sess.RefreshToken)
	assert.False(t, ok)
}

func TestProfilesRoundTrip(t *testing.T) {
	client := setupClient(t)
	user := createAccount(t, client, "ada@example.com", "correct horse")

	ctx := context.Background()

	_, err := client.Profiles().Get(ctx, user.ID)
	assert.ErrorIs(t, err, authstate.ErrProfileNotFound)

	inserted, err := client.Profiles().Insert(ctx, &authstate.Profile{
		ID:       user.ID,
		Email:    user.Email,
		FullName: "Ada Lovelace",
		Role:     authstate.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, inserted.ID)

	fetched, err := client.Profiles().Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", fetched.FullName)
	assert.True(t, fetched.IsAdmin())

	name := "Ada King"
	updated, err := client.Profiles().Update(ctx, user.ID, authstate.ProfileChanges{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ada King", updated.FullName)
	assert.NotNil(t, updated.UpdatedAt)

	same, err := client.Profiles().Update(ctx, user.ID, authstate.ProfileChanges{})
	require.NoError(t, err)
	assert.Equal(t, "Ada King", same.FullName)
}

func TestPasswordHelpers(t *testing.T) {
	_, err := HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NoError(t, ComparePasswordAndHash("correct horse", hash))
	assert.ErrorIs(t, ComparePasswordAndHash("wrong", hash), ErrPasswordMismatch)

	assert.NotEmpty(t, RandomPasswordHash())
}
