package authstate

import (
	"time"
)

// Session is the provider-issued session payload. ExpiresAt is an absolute
// unix timestamp; ExpiresIn is the issuance-relative lifetime in seconds and
// is only trustworthy right after the provider hands the session over.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// ExpiryTime returns the absolute expiry of the access token. Sessions with
// no expiry report the zero time.
func (s *Session) ExpiryTime() time.Time {
	if s == nil || s.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(s.ExpiresAt, 0)
}

// IsExpired reports whether the access token has passed its expiry. Sessions
// without an expiry are treated as live; the token verifier still gets the
// final word when the session is used.
func (s *Session) IsExpired(now time.Time) bool {
	expiry := s.ExpiryTime()
	if expiry.IsZero() {
		return false
	}
	return !now.Before(expiry)
}

// TimeToExpiry returns the remaining lifetime of the access token, negative
// once expired and zero when the session carries no expiry.
func (s *Session) TimeToExpiry(now time.Time) time.Duration {
	expiry := s.ExpiryTime()
	if expiry.IsZero() {
		return 0
	}
	return expiry.Sub(now)
}

// Clone returns a deep copy safe to publish in snapshots.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.User = s.User.Clone()
	return &cp
}

// UserID returns the provider user id carried on the session, or the empty
// string when the session has no user.
func (s *Session) UserID() string {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.ID.String()
}
