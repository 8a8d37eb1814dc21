package authstate

// View names the screen the current auth state calls for.
type View string

const (
	// ViewLoading renders while the initial bootstrap is in flight
	ViewLoading View = "loading"
	// ViewLogin renders when no user is authenticated
	ViewLogin View = "login"
	// ViewProfilePending renders for an authenticated user whose profile row
	// has not been adopted, either still fetching or not yet provisioned
	ViewProfilePending View = "profile_pending"
	// ViewAdmin renders the administrative surface
	ViewAdmin View = "admin"
	// ViewClient renders the regular client surface
	ViewClient View = "client"
)

// ResolveView maps a state snapshot to the view to render. Pure function,
// re-evaluated on every published snapshot; the priority order is fixed:
// loading wins over everything, then authentication, then profile presence,
// then role.
func ResolveView(s State) View {
	if s.Loading {
		return ViewLoading
	}

	if !s.IsAuthenticated() {
		return ViewLogin
	}

	if !s.HasProfile() {
		return ViewProfilePending
	}

	if s.IsAdmin() {
		return ViewAdmin
	}

	return ViewClient
}

// RouteFor returns the default route path serving the view.
func RouteFor(v View) string {
	switch v {
	case ViewLogin:
		return "/login"
	case ViewProfilePending:
		return "/onboarding"
	case ViewAdmin:
		return "/admin"
	case ViewClient:
		return "/dashboard"
	default:
		return "/"
	}
}
