package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goliatone/go-auth-state"
	"github.com/goliatone/go-auth-state/sessioncache"
)

const refreshRetryDelay = 30 * time.Second

// Client talks to a hosted project. It implements authstate.Client for the
// state store and authstate.SessionIssuer for the HTTP login surface.
//
// The client owns the session lifecycle: it restores the persisted session
// on first use, refreshes the access token ahead of expiry, and publishes
// every transition on its change feed.
type Client struct {
	cfg    Config
	http   *http.Client
	logger authstate.Logger
	store  sessioncache.Store
	feed   *authstate.ChangeFeed

	mu       sync.RWMutex
	session  *authstate.Session
	restored bool

	timerMu      sync.Mutex
	refreshTimer *time.Timer
	closed       bool
}

var (
	_ authstate.Client        = (*Client)(nil)
	_ authstate.SessionIssuer = (*Client)(nil)
)

// New creates a client. Missing or placeholder credentials are not an error;
// the client reports Configured() == false and refuses provider calls so the
// state store can degrade to its signed-out state.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	store := cfg.SessionStore
	if store == nil {
		store = sessioncache.NewMemory()
	}

	_, logger := authstate.ResolveLogger("supabase.client", nil, cfg.Logger)

	return &Client{
		cfg:    cfg,
		http:   httpClient,
		logger: logger,
		store:  store,
		feed:   authstate.NewChangeFeed(),
	}
}

// Configured implements authstate.Client.
func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

// GetSession restores the persisted session, refreshing it when the access
// token is at or past expiry. A clean signed-out state returns (nil, nil).
func (c *Client) GetSession(ctx context.Context) (*authstate.Session, error) {
	if !c.Configured() {
		return nil, authstate.ErrNotConfigured
	}

	sess := c.currentSession(ctx)
	if sess == nil {
		return nil, nil
	}

	if sess.IsExpired(time.Now().Add(c.cfg.refreshMargin())) {
		if sess.RefreshToken == "" {
			c.dropSession(ctx, false)
			return nil, nil
		}
		return c.refresh(ctx, sess.RefreshToken)
	}

	if sess.User == nil {
		user, err := c.fetchUser(ctx, sess.AccessToken)
		if err != nil {
			c.logger.Warn("session user fetch failed", "error", err)
		} else {
			sess.User = user
			c.setSession(ctx, sess)
		}
	} else {
		c.scheduleRefresh(sess)
	}

	return sess, nil
}

// SignInWithPassword implements authstate.SessionIssuer. A successful grant
// is adopted as the current session and emitted as SIGNED_IN.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*authstate.Session, error) {
	if !c.Configured() {
		return nil, authstate.ErrNotConfigured
	}

	sess, err := c.tokenGrant(ctx, "password", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	if sess.User == nil {
		if user, uerr := c.fetchUser(ctx, sess.AccessToken); uerr == nil {
			sess.User = user
		}
	}

	c.adopt(ctx, sess, authstate.EventSignedIn)

	return sess.Clone(), nil
}

// RefreshSession forces a refresh grant with the current refresh token.
func (c *Client) RefreshSession(ctx context.Context) (*authstate.Session, error) {
	if !c.Configured() {
		return nil, authstate.ErrNotConfigured
	}

	sess := c.currentSession(ctx)
	if sess == nil || sess.RefreshToken == "" {
		return nil, nil
	}

	return c.refresh(ctx, sess.RefreshToken)
}

// AuthChanges implements authstate.Client. The channel closes when ctx is
// canceled or the client is closed.
func (c *Client) AuthChanges(ctx context.Context) (<-chan authstate.AuthChange, error) {
	if !c.Configured() {
		return nil, authstate.ErrNotConfigured
	}

	return c.feed.Subscribe(ctx), nil
}

// SignOut drops the local session, then asks the provider to revoke the
// access token. Local state is cleared even when revocation fails.
func (c *Client) SignOut(ctx context.Context) error {
	if !c.Configured() {
		return authstate.ErrNotConfigured
	}

	c.mu.RLock()
	sess := c.session.Clone()
	c.mu.RUnlock()

	c.dropSession(ctx, true)

	if sess == nil || sess.AccessToken == "" {
		return nil
	}

	status, err := c.send(ctx, request{
		operation: "logout",
		method:    http.MethodPost,
		endpoint:  c.cfg.baseURL() + "/auth/v1/logout",
		apikey:    c.cfg.AnonKey,
		bearer:    sess.AccessToken,
	}, nil)
	if err != nil {
		// the token may already be dead server side; that still counts
		if status == http.StatusUnauthorized || status == http.StatusNotFound {
			return nil
		}
		return err
	}

	return nil
}

// Close stops the refresh timer and closes the change feed. The client must
// not be used afterwards.
func (c *Client) Close() {
	c.timerMu.Lock()
	c.closed = true
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
	c.timerMu.Unlock()

	c.feed.Close()
}

// currentSession returns a copy of the active session, restoring it from the
// session store on first use.
func (c *Client) currentSession(ctx context.Context) *authstate.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil || c.restored {
		return c.session.Clone()
	}

	c.restored = true

	loaded, err := c.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, sessioncache.ErrNoSession) {
			c.logger.Warn("cached session unavailable", "error", err)
		}
		return nil
	}

	c.session = loaded
	return c.session.Clone()
}

func (c *Client) setSession(ctx context.Context, sess *authstate.Session) {
	c.mu.Lock()
	c.session = sess.Clone()
	c.restored = true
	c.mu.Unlock()

	if err := c.store.Save(ctx, sess); err != nil {
		c.logger.Warn("session cache save failed", "error", err)
	}

	c.scheduleRefresh(sess)
}

func (c *Client) adopt(ctx context.Context, sess *authstate.Session, event authstate.AuthChangeEvent) {
	c.setSession(ctx, sess)
	c.feed.Emit(authstate.AuthChange{Event: event, Session: sess.Clone()})
}

func (c *Client) dropSession(ctx context.Context, emit bool) {
	c.mu.Lock()
	c.session = nil
	c.restored = true
	c.mu.Unlock()

	c.stopRefresh()

	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("session cache clear failed", "error", err)
	}

	if emit {
		c.feed.Emit(authstate.AuthChange{Event: authstate.EventSignedOut})
	}
}

// refresh runs a refresh grant. A rejected refresh token means the session
// is gone for good: the local session is dropped, SIGNED_OUT is emitted and
// (nil, nil) is returned so callers treat it as a clean signed-out state.
func (c *Client) refresh(ctx context.Context, refreshToken string) (*authstate.Session, error) {
	sess, err := c.tokenGrant(ctx, "refresh_token", map[string]string{
		"refresh_token": refreshToken,
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusUnauthorized) {
			c.logger.Warn("refresh token rejected, dropping session", "status", apiErr.Status)
			c.dropSession(ctx, true)
			return nil, nil
		}
		return nil, err
	}

	if sess.User == nil {
		if user, uerr := c.fetchUser(ctx, sess.AccessToken); uerr == nil {
			sess.User = user
		}
	}

	c.adopt(ctx, sess, authstate.EventTokenRefreshed)

	return sess.Clone(), nil
}

func (c *Client) tokenGrant(ctx context.Context, grantType string, payload any) (*authstate.Session, error) {
	endpoint := fmt.Sprintf("%s/auth/v1/token?grant_type=%s", c.cfg.baseURL(), grantType)

	sess := &authstate.Session{}
	if _, err := c.send(ctx, request{
		operation: "token",
		method:    http.MethodPost,
		endpoint:  endpoint,
		apikey:    c.cfg.AnonKey,
		payload:   payload,
	}, sess); err != nil {
		return nil, err
	}

	if sess.AccessToken == "" {
		return nil, &APIError{
			Operation: "token",
			Code:      "missing_access_token",
			Message:   "token response carried no access token",
		}
	}

	if sess.ExpiresAt == 0 && sess.ExpiresIn > 0 {
		sess.ExpiresAt = time.Now().Unix() + sess.ExpiresIn
	}

	return sess, nil
}

func (c *Client) fetchUser(ctx context.Context, accessToken string) (*authstate.User, error) {
	user := &authstate.User{}
	if _, err := c.send(ctx, request{
		operation: "user",
		method:    http.MethodGet,
		endpoint:  c.cfg.baseURL() + "/auth/v1/user",
		apikey:    c.cfg.AnonKey,
		bearer:    accessToken,
	}, user); err != nil {
		return nil, err
	}

	return user, nil
}

// accessToken resolves the Authorization bearer for row access: the live
// session token when present, then the service role key, then the anon key.
func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.session != nil && c.session.AccessToken != "" {
		return c.session.AccessToken
	}
	if c.cfg.ServiceRoleKey != "" {
		return c.cfg.ServiceRoleKey
	}
	return c.cfg.AnonKey
}

func (c *Client) scheduleRefresh(sess *authstate.Session) {
	if sess == nil || sess.RefreshToken == "" || sess.ExpiresAt == 0 {
		return
	}

	wait := time.Until(sess.ExpiryTime().Add(-c.cfg.refreshMargin()))
	if wait < time.Second {
		wait = time.Second
	}

	token := sess.RefreshToken

	c.timerMu.Lock()
	defer c.timerMu.Unlock()

	if c.closed {
		return
	}

	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
	}

	c.refreshTimer = time.AfterFunc(wait, func() {
		c.backgroundRefresh(token)
	})
}

// backgroundRefresh runs off the refresh timer. A successful grant adopts
// the new session, which schedules the next refresh; a rejected token drops
// the session and the chain stops. Transient failures retry on a fixed delay.
func (c *Client) backgroundRefresh(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultHTTPTimeout)
	defer cancel()

	if _, err := c.refresh(ctx, token); err != nil {
		c.logger.Warn("background token refresh failed", "error", err)
		c.retryRefresh(token)
	}
}

func (c *Client) retryRefresh(token string) {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()

	if c.closed {
		return
	}

	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
	}

	c.refreshTimer = time.AfterFunc(refreshRetryDelay, func() {
		c.backgroundRefresh(token)
	})
}

func (c *Client) stopRefresh() {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()

	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
}

type request struct {
	operation string
	method    string
	endpoint  string
	apikey    string
	bearer    string
	accept    string
	prefer    string
	payload   any
}

func (c *Client) send(ctx context.Context, r request, out any) (int, error) {
	var body io.Reader
	if r.payload != nil {
		data, err := json.Marshal(r.payload)
		if err != nil {
			return 0, &APIError{
				Operation: r.operation,
				Code:      "encode_request",
				Message:   "failed to encode request payload",
				Err:       err,
			}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.endpoint, body)
	if err != nil {
		return 0, err
	}

	bearer := r.bearer
	if bearer == "" {
		bearer = r.apikey
	}

	req.Header.Set("apikey", r.apikey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	if r.payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.accept != "" {
		req.Header.Set("Accept", r.accept)
	}
	if r.prefer != "" {
		req.Header.Set("Prefer", r.prefer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &APIError{
			Operation: r.operation,
			Code:      "transport",
			Message:   "request failed",
			Err:       err,
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &APIError{
			Operation: r.operation,
			Status:    resp.StatusCode,
			Code:      "read_response",
			Message:   "failed to read response",
			Err:       err,
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return resp.StatusCode, apiErrorFrom(r.operation, resp.StatusCode, raw)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, &APIError{
				Operation: r.operation,
				Status:    resp.StatusCode,
				Code:      "invalid_response",
				Message:   "failed to decode response",
				Err:       err,
			}
		}
	}

	return resp.StatusCode, nil
}
