package authstateadapter

import (
	"context"
	"reflect"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-auth-state"
	"github.com/goliatone/go-featuregate/gate"
	"github.com/google/uuid"
)

func testClaims(subject, role string) authstate.SessionClaims {
	return &authstate.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		UserEmail:        "user@example.com",
		ProviderRole:     role,
	}
}

func TestClaimsFromDefaults(t *testing.T) {
	uid := uuid.New()
	claims := testClaims(uid.String(), "authenticated")
	profile := &authstate.Profile{ID: uid, Role: authstate.RoleAdmin}

	actor := ClaimsFrom(claims, profile)

	if actor.SubjectID != uid.String() {
		t.Fatalf("expected SubjectID to use the claims subject, got %q", actor.SubjectID)
	}
	if !reflect.DeepEqual(actor.Roles, []string{"admin", "authenticated"}) {
		t.Fatalf("unexpected roles: %#v", actor.Roles)
	}
	if !reflect.DeepEqual(actor.Perms, []string{"clients:manage"}) {
		t.Fatalf("unexpected perms: %#v", actor.Perms)
	}
}

func TestClaimsFromClientRole(t *testing.T) {
	uid := uuid.New()
	profile := &authstate.Profile{ID: uid, Role: authstate.RoleClient}

	actor := ClaimsFrom(testClaims(uid.String(), "authenticated"), profile)

	if !reflect.DeepEqual(actor.Roles, []string{"client", "authenticated"}) {
		t.Fatalf("unexpected roles: %#v", actor.Roles)
	}
	if actor.Perms != nil {
		t.Fatalf("expected no derived perms for clients, got %#v", actor.Perms)
	}
}

func TestClaimsProviderClaimsFromContextMissingState(t *testing.T) {
	provider := NewClaimsProvider(
		WithClaimsExtractor(func(context.Context) (authstate.SessionClaims, bool) {
			return nil, false
		}),
		WithProfileExtractor(func(context.Context) (*authstate.Profile, bool) {
			return nil, false
		}),
	)

	actor, err := provider.ClaimsFromContext(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(actor, gate.ActorClaims{}) {
		t.Fatalf("expected empty claims, got %#v", actor)
	}
}

func TestClaimsProviderReadsContextCarriers(t *testing.T) {
	uid := uuid.New()
	ctx := authstate.WithClaimsContext(context.Background(), testClaims(uid.String(), "authenticated"))
	ctx = authstate.WithProfileContext(ctx, &authstate.Profile{ID: uid, Role: authstate.RoleAdmin})

	actor, err := NewClaimsProvider().ClaimsFromContext(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actor.SubjectID != uid.String() {
		t.Fatalf("unexpected subject: %q", actor.SubjectID)
	}
	if !reflect.DeepEqual(actor.Roles, []string{"admin", "authenticated"}) {
		t.Fatalf("unexpected roles: %#v", actor.Roles)
	}
}

func TestClaimsProviderSubjectFallsBackToProfile(t *testing.T) {
	uid := uuid.New()
	ctx := authstate.WithProfileContext(context.Background(), &authstate.Profile{ID: uid, Role: authstate.RoleClient})

	actor, err := NewClaimsProvider().ClaimsFromContext(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actor.SubjectID != uid.String() {
		t.Fatalf("expected SubjectID from profile id, got %q", actor.SubjectID)
	}
}

func TestClaimsProviderCustomFormatter(t *testing.T) {
	provider := NewClaimsProvider(
		WithPermissionFormatter(func(resource, action string) string {
			return resource + "." + action
		}),
	)

	uid := uuid.New()
	ctx := authstate.WithProfileContext(context.Background(), &authstate.Profile{ID: uid, Role: authstate.RoleAdmin})

	actor, err := provider.ClaimsFromContext(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(actor.Perms, []string{"clients.manage"}) {
		t.Fatalf("unexpected perms: %#v", actor.Perms)
	}
}

func TestPermissionProviderMerge(t *testing.T) {
	provider := NewPermissionProvider()

	uid := uuid.New()
	ctx := authstate.WithProfileContext(context.Background(), &authstate.Profile{ID: uid, Role: authstate.RoleAdmin})
	claims := gate.ActorClaims{Perms: []string{"from-claims"}}

	perms, err := provider.Permissions(ctx, claims)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"from-claims", "clients:manage"}
	if !reflect.DeepEqual(perms, expected) {
		t.Fatalf("unexpected perms: %#v", perms)
	}
}

func TestPermissionProviderCustomResolver(t *testing.T) {
	provider := NewPermissionProvider(WithPermConflictResolver(func(existing, derived []string) []string {
		return derived
	}))

	uid := uuid.New()
	ctx := authstate.WithProfileContext(context.Background(), &authstate.Profile{ID: uid, Role: authstate.RoleAdmin})
	claims := gate.ActorClaims{Perms: []string{"from-claims"}}

	perms, err := provider.Permissions(ctx, claims)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(perms, []string{"clients:manage"}) {
		t.Fatalf("unexpected perms: %#v", perms)
	}
}

func TestActorRefFromProfileUsesStableType(t *testing.T) {
	uid := uuid.New()
	ref := ActorRefFromProfile(&authstate.Profile{ID: uid, Role: authstate.RoleAdmin})

	if ref.Type != defaultActorRefType {
		t.Fatalf("expected actor type %q, got %q", defaultActorRefType, ref.Type)
	}
	if ref.ID != uid.String() || ref.Name != "admin" {
		t.Fatalf("unexpected ref: %#v", ref)
	}
}

func TestActorRefFromContextFallsBackToClaims(t *testing.T) {
	if _, ok := ActorRefFromContext(context.Background()); ok {
		t.Fatalf("expected no ref from an empty context")
	}

	uid := uuid.New()
	ctx := authstate.WithClaimsContext(context.Background(), testClaims(uid.String(), "authenticated"))

	ref, ok := ActorRefFromContext(ctx)
	if !ok {
		t.Fatalf("expected a ref derived from claims")
	}
	if ref.ID != uid.String() || ref.Name != "authenticated" {
		t.Fatalf("unexpected ref: %#v", ref)
	}
}
