package authstateadapter

import (
	"context"

	"github.com/goliatone/go-auth-state"
	"github.com/goliatone/go-featuregate/gate"
)

const defaultActorRefType = "user"

// ClaimsExtractor extracts session claims from context.
type ClaimsExtractor func(context.Context) (authstate.SessionClaims, bool)

// ProfileExtractor extracts the resolved application profile from context.
type ProfileExtractor func(context.Context) (*authstate.Profile, bool)

// RoleMapper builds role identifiers from the claims/profile pair.
type RoleMapper func(claims authstate.SessionClaims, profile *authstate.Profile) []string

// PermMapper builds permission identifiers from the resolved profile.
type PermMapper func(profile *authstate.Profile) []string

// PermissionFormatter formats a resource/action pair into a permission string.
type PermissionFormatter func(resource, action string) string

// Option customizes ClaimsProvider behavior.
type Option func(*ClaimsProvider)

// ClaimsProvider derives feature claims from the auth state carried in
// context by the session middleware.
type ClaimsProvider struct {
	claimsExtractor  ClaimsExtractor
	profileExtractor ProfileExtractor
	roleMapper       RoleMapper
	permMapper       PermMapper
	permFormatter    PermissionFormatter
}

// NewClaimsProvider builds a claims provider using the package context extractors.
func NewClaimsProvider(opts ...Option) *ClaimsProvider {
	provider := &ClaimsProvider{
		claimsExtractor:  authstate.GetClaims,
		profileExtractor: authstate.ProfileFromContext,
		permFormatter:    defaultPermissionFormatter,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(provider)
		}
	}
	if provider.claimsExtractor == nil {
		provider.claimsExtractor = authstate.GetClaims
	}
	if provider.profileExtractor == nil {
		provider.profileExtractor = authstate.ProfileFromContext
	}
	if provider.permFormatter == nil {
		provider.permFormatter = defaultPermissionFormatter
	}
	if provider.roleMapper == nil {
		provider.roleMapper = defaultRoleMapper
	}
	if provider.permMapper == nil {
		provider.permMapper = defaultPermMapper(provider.permFormatter)
	}
	return provider
}

// WithClaimsExtractor overrides the session claims extractor.
func WithClaimsExtractor(extractor ClaimsExtractor) Option {
	return func(provider *ClaimsProvider) {
		if provider == nil {
			return
		}
		provider.claimsExtractor = extractor
	}
}

// WithProfileExtractor overrides the profile extractor.
func WithProfileExtractor(extractor ProfileExtractor) Option {
	return func(provider *ClaimsProvider) {
		if provider == nil {
			return
		}
		provider.profileExtractor = extractor
	}
}

// WithRoleMapper overrides the default role mapper.
func WithRoleMapper(mapper RoleMapper) Option {
	return func(provider *ClaimsProvider) {
		if provider == nil {
			return
		}
		provider.roleMapper = mapper
	}
}

// WithPermMapper overrides the default permission mapper.
func WithPermMapper(mapper PermMapper) Option {
	return func(provider *ClaimsProvider) {
		if provider == nil {
			return
		}
		provider.permMapper = mapper
	}
}

// WithPermissionFormatter customizes the resource/action permission formatter.
func WithPermissionFormatter(format PermissionFormatter) Option {
	return func(provider *ClaimsProvider) {
		if provider == nil {
			return
		}
		provider.permFormatter = format
	}
}

// ClaimsFromContext implements gate.ClaimsProvider.
func (p *ClaimsProvider) ClaimsFromContext(ctx context.Context) (gate.ActorClaims, error) {
	if p == nil {
		return gate.ActorClaims{}, nil
	}
	var claims authstate.SessionClaims
	if p.claimsExtractor != nil {
		claims, _ = p.claimsExtractor(ctx)
	}
	var profile *authstate.Profile
	if p.profileExtractor != nil {
		profile, _ = p.profileExtractor(ctx)
	}
	if claims == nil && profile == nil {
		return gate.ActorClaims{}, nil
	}
	return claimsFrom(claims, profile, p.roleMapper, p.permMapper), nil
}

// ClaimsFrom builds ActorClaims from a claims/profile pair using defaults.
func ClaimsFrom(claims authstate.SessionClaims, profile *authstate.Profile) gate.ActorClaims {
	return claimsFrom(claims, profile, defaultRoleMapper, defaultPermMapper(defaultPermissionFormatter))
}

func claimsFrom(claims authstate.SessionClaims, profile *authstate.Profile, roleMapper RoleMapper, permMapper PermMapper) gate.ActorClaims {
	actor := gate.ActorClaims{}
	if claims != nil {
		actor.SubjectID = claims.Subject()
	}
	if actor.SubjectID == "" && profile != nil {
		actor.SubjectID = profile.ID.String()
	}
	if roleMapper != nil {
		actor.Roles = roleMapper(claims, profile)
	}
	if permMapper != nil {
		actor.Perms = permMapper(profile)
	}
	return actor
}

// defaultRoleMapper places the application role first so gates matching on
// roles see the authorization-relevant one before the provider-level role.
func defaultRoleMapper(claims authstate.SessionClaims, profile *authstate.Profile) []string {
	var roles []string
	if profile != nil {
		if role := string(profile.Role); role != "" {
			roles = append(roles, role)
		}
	}
	if claims != nil {
		if role := claims.Role(); role != "" && !containsRole(roles, role) {
			roles = append(roles, role)
		}
	}
	return roles
}

func defaultPermMapper(format PermissionFormatter) PermMapper {
	return func(profile *authstate.Profile) []string {
		if profile == nil {
			return nil
		}
		formatter := format
		if formatter == nil {
			formatter = defaultPermissionFormatter
		}
		var perms []string
		if profile.Role.CanManageClients() {
			perms = append(perms, formatter("clients", "manage"))
		}
		if len(perms) == 0 {
			return nil
		}
		return perms
	}
}

func defaultPermissionFormatter(resource, action string) string {
	return resource + ":" + action
}

func containsRole(roles []string, role string) bool {
	for _, existing := range roles {
		if existing == role {
			return true
		}
	}
	return false
}

// PermConflictResolver combines claims perms with derived perms.
type PermConflictResolver func(existing, derived []string) []string

// PermOption customizes permission provider behavior.
type PermOption func(*PermissionProvider)

// PermissionProvider derives permissions from claims and the resolved profile.
type PermissionProvider struct {
	extractor        ProfileExtractor
	conflictResolver PermConflictResolver
}

// NewPermissionProvider builds a permission provider using the package profile extractor.
func NewPermissionProvider(opts ...PermOption) *PermissionProvider {
	provider := &PermissionProvider{
		extractor:        authstate.ProfileFromContext,
		conflictResolver: mergePerms,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(provider)
		}
	}
	if provider.extractor == nil {
		provider.extractor = authstate.ProfileFromContext
	}
	if provider.conflictResolver == nil {
		provider.conflictResolver = mergePerms
	}
	return provider
}

// WithPermProfileExtractor overrides the profile extractor used to derive permissions.
func WithPermProfileExtractor(extractor ProfileExtractor) PermOption {
	return func(provider *PermissionProvider) {
		if provider == nil {
			return
		}
		provider.extractor = extractor
	}
}

// WithPermConflictResolver overrides how derived permissions are merged.
func WithPermConflictResolver(resolver PermConflictResolver) PermOption {
	return func(provider *PermissionProvider) {
		if provider == nil {
			return
		}
		provider.conflictResolver = resolver
	}
}

// Permissions implements gate.PermissionProvider.
func (p *PermissionProvider) Permissions(ctx context.Context, claims gate.ActorClaims) ([]string, error) {
	if p == nil {
		return claims.Perms, nil
	}
	var derived []string
	if p.extractor != nil {
		profile, ok := p.extractor(ctx)
		if ok && profile != nil {
			derived = defaultPermMapper(defaultPermissionFormatter)(profile)
		}
	}
	if p.conflictResolver == nil {
		return mergePerms(claims.Perms, derived), nil
	}
	return p.conflictResolver(claims.Perms, derived), nil
}

func mergePerms(existing, derived []string) []string {
	if len(existing) == 0 && len(derived) == 0 {
		return nil
	}
	merged := make([]string, 0, len(existing)+len(derived))
	merged = append(merged, existing...)
	merged = append(merged, derived...)
	return merged
}

// ActorRefFromProfile builds an ActorRef from the resolved profile.
func ActorRefFromProfile(profile *authstate.Profile) gate.ActorRef {
	if profile == nil {
		return gate.ActorRef{}
	}
	return gate.ActorRef{
		ID:   profile.ID.String(),
		Type: defaultActorRefType,
		Name: string(profile.Role),
	}
}

// ActorRefFromContext extracts an ActorRef from context, preferring the
// resolved profile and falling back to the session claims.
func ActorRefFromContext(ctx context.Context) (gate.ActorRef, bool) {
	if profile, ok := authstate.ProfileFromContext(ctx); ok && profile != nil {
		return ActorRefFromProfile(profile), true
	}
	claims, ok := authstate.GetClaims(ctx)
	if !ok || claims == nil {
		return gate.ActorRef{}, false
	}
	return gate.ActorRef{
		ID:   claims.Subject(),
		Type: defaultActorRefType,
		Name: claims.Role(),
	}, true
}

var _ gate.ClaimsProvider = (*ClaimsProvider)(nil)
var _ gate.PermissionProvider = (*PermissionProvider)(nil)
