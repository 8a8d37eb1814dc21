package authstate

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileIsAdmin(t *testing.T) {
	assert.True(t, (&Profile{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&Profile{Role: RoleClient}).IsAdmin())
	assert.False(t, (&Profile{}).IsAdmin())

	var nilProfile *Profile
	assert.False(t, nilProfile.IsAdmin())
}

func TestProfileClone(t *testing.T) {
	profile := &Profile{
		ID:       uuid.New(),
		Email:    "user@example.com",
		FullName: "Ada Lovelace",
		Role:     RoleClient,
	}

	cp := profile.Clone()
	require.NotSame(t, profile, cp)
	assert.Equal(t, profile.ID, cp.ID)

	cp.FullName = "tampered"
	assert.Equal(t, "Ada Lovelace", profile.FullName)

	var nilProfile *Profile
	assert.Nil(t, nilProfile.Clone())
}

func TestProfileChangesIsZero(t *testing.T) {
	assert.True(t, ProfileChanges{}.IsZero())

	name := "Ada Lovelace"
	assert.False(t, ProfileChanges{FullName: &name}.IsZero())

	email := "new@example.com"
	assert.False(t, ProfileChanges{Email: &email}.IsZero())
}

func TestUserClone(t *testing.T) {
	user := &User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		UserMetadata: map[string]any{"full_name": "Ada Lovelace"},
		AppMetadata:  map[string]any{"password_change_required": true},
	}

	cp := user.Clone()
	require.NotSame(t, user, cp)

	cp.UserMetadata["full_name"] = "tampered"
	cp.AppMetadata["password_change_required"] = false
	assert.Equal(t, "Ada Lovelace", user.UserMetadata["full_name"])
	assert.Equal(t, true, user.AppMetadata["password_change_required"])

	var nilUser *User
	assert.Nil(t, nilUser.Clone())
}

func TestUserFullName(t *testing.T) {
	user := &User{UserMetadata: map[string]any{"full_name": "Ada Lovelace"}}
	assert.Equal(t, "Ada Lovelace", user.FullName())

	assert.Empty(t, (&User{}).FullName())
	assert.Empty(t, (&User{UserMetadata: map[string]any{"full_name": 42}}).FullName())

	var nilUser *User
	assert.Empty(t, nilUser.FullName())
}

func TestUserPasswordChangeRequired(t *testing.T) {
	assert.True(t, (&User{AppMetadata: map[string]any{"password_change_required": true}}).PasswordChangeRequired())
	assert.False(t, (&User{AppMetadata: map[string]any{"password_change_required": false}}).PasswordChangeRequired())
	assert.False(t, (&User{AppMetadata: map[string]any{"password_change_required": "yes"}}).PasswordChangeRequired())
	assert.False(t, (&User{}).PasswordChangeRequired())

	var nilUser *User
	assert.False(t, nilUser.PasswordChangeRequired())
}

func TestProfileRoleIsValid(t *testing.T) {
	assert.True(t, RoleClient.IsValid())
	assert.True(t, RoleAdmin.IsValid())
	assert.False(t, ProfileRole("superuser").IsValid())
	assert.False(t, ProfileRole("").IsValid())
}

func TestProfileRoleCanManageClients(t *testing.T) {
	assert.True(t, RoleAdmin.CanManageClients())
	assert.False(t, RoleClient.CanManageClients())
	assert.False(t, ProfileRole("superuser").CanManageClients())
}

func TestProfileRoleIsAtLeast(t *testing.T) {
	assert.True(t, RoleAdmin.IsAtLeast(RoleClient))
	assert.True(t, RoleAdmin.IsAtLeast(RoleAdmin))
	assert.True(t, RoleClient.IsAtLeast(RoleClient))

	assert.False(t, RoleClient.IsAtLeast(RoleAdmin))
	assert.False(t, ProfileRole("superuser").IsAtLeast(RoleClient))
	assert.False(t, RoleAdmin.IsAtLeast(ProfileRole("superuser")))
}

func TestGetAllRoles(t *testing.T) {
	assert.Equal(t, []ProfileRole{RoleClient, RoleAdmin}, GetAllRoles())
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole("admin")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, role)

	role, ok = ParseRole("client")
	assert.True(t, ok)
	assert.Equal(t, RoleClient, role)

	_, ok = ParseRole("superuser")
	assert.False(t, ok)
}

func TestRoleOrDefault(t *testing.T) {
	assert.Equal(t, RoleAdmin, RoleOrDefault("admin"))
	assert.Equal(t, RoleClient, RoleOrDefault("client"))
	assert.Equal(t, RoleClient, RoleOrDefault("superuser"))
	assert.Equal(t, RoleClient, RoleOrDefault(""))
}
