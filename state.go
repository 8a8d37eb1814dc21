package authstate

// State is the externally visible auth snapshot. Values handed to observers
// are deep copies; mutating one never affects the store.
type State struct {
	// User mirrors the provider identity, nil when signed out
	User *User `json:"user,omitempty"`
	// Profile is the application row for the user, nil while signed out,
	// still loading, or not yet provisioned
	Profile *Profile `json:"profile,omitempty"`
	// Session is the cached provider credential
	Session *Session `json:"session,omitempty"`
	// Loading is true only during the initial bootstrap
	Loading bool `json:"loading"`
	// Error holds a generic human-readable message, "" when none
	Error string `json:"error,omitempty"`
}

// IsAuthenticated reports whether a provider identity is held.
func (s State) IsAuthenticated() bool {
	return s.User != nil
}

// HasProfile reports whether the application profile row has been adopted.
func (s State) HasProfile() bool {
	return s.Profile != nil
}

// IsAdmin reports whether the held profile grants the admin role.
func (s State) IsAdmin() bool {
	return s.Profile.IsAdmin()
}

func (s State) clone() State {
	s.User = s.User.Clone()
	s.Profile = s.Profile.Clone()
	s.Session = s.Session.Clone()
	return s
}
