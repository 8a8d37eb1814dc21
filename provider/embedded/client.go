package embedded

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-auth-state"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Client is the provider double. It implements the same contracts as the
// hosted client so the state store, the HTTP surface and integration tests
// run unchanged against a local database.
type Client struct {
	cfg      Config
	db       *bun.DB
	accounts Accounts
	profiles authstate.ProfileAPI
	tokens   authstate.TokenService
	refresh  *refreshRegistry
	feed     *authstate.ChangeFeed
	logger   authstate.Logger

	mu      sync.RWMutex
	session *authstate.Session
}

var (
	_ authstate.Client        = (*Client)(nil)
	_ authstate.SessionIssuer = (*Client)(nil)
)

// New wires the provider against cfg.DB. Tables are expected to exist; run
// CreateTables or the embedded migrations first.
func New(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	_, logger := authstate.ResolveLogger("embedded.client", nil, cfg.Logger)

	tokens := authstate.NewTokenService(
		cfg.SigningKey,
		cfg.accessTokenTTL(),
		cfg.issuer(),
		jwt.ClaimStrings(cfg.audience()),
		logger,
	)

	client := &Client{
		cfg:      cfg,
		db:       cfg.DB,
		accounts: NewAccountsRepository(cfg.DB),
		tokens:   tokens,
		refresh:  newRefreshRegistry(),
		feed:     authstate.NewChangeFeed(),
		logger:   logger,
	}
	client.profiles = &profilesAPI{repo: NewProfilesRepository(cfg.DB), db: cfg.DB}

	return client, nil
}

// Configured implements authstate.Client. A constructed embedded provider
// is always usable.
func (c *Client) Configured() bool {
	return true
}

// TokenService exposes the issuing service so hosts can share its verifier
// with the session middleware.
func (c *Client) TokenService() authstate.TokenService {
	return c.tokens
}

// GetSession returns the in-process session. Sessions do not survive a
// restart; an expired session with a live refresh token rotates in place.
func (c *Client) GetSession(ctx context.Context) (*authstate.Session, error) {
	c.mu.RLock()
	sess := c.session.Clone()
	c.mu.RUnlock()

	if sess == nil {
		return nil, nil
	}

	if !sess.IsExpired(time.Now()) {
		return sess, nil
	}

	if sess.RefreshToken == "" {
		c.drop(false)
		return nil, nil
	}

	return c.refreshSession(ctx, sess.RefreshToken)
}

// SignInWithPassword implements authstate.SessionIssuer.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*authstate.Session, error) {
	account, err := c.accounts.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, authstate.ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "account lookup failed")
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		return nil, authstate.ErrInvalidCredentials
	}

	sess, err := c.issueSession(account)
	if err != nil {
		return nil, err
	}

	if err := c.accounts.TrackSignIn(ctx, account.ID); err != nil {
		c.logger.Warn("sign-in tracking failed", "error", err)
	}

	c.adopt(sess, authstate.EventSignedIn)

	return sess.Clone(), nil
}

// AuthChanges implements authstate.Client.
func (c *Client) AuthChanges(ctx context.Context) (<-chan authstate.AuthChange, error) {
	return c.feed.Subscribe(ctx), nil
}

// SignOut implements authstate.Client. Every refresh token issued to the
// signed-in account is revoked.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.RLock()
	sess := c.session.Clone()
	c.mu.RUnlock()

	if sess != nil && sess.User != nil {
		c.refresh.revokeAccount(sess.User.ID)
	}

	c.drop(true)

	return nil
}

// Admin implements authstate.Client. There is no privileged key in
// process; every caller of Admin is trusted.
func (c *Client) Admin() authstate.AdminAPI {
	return &adminAPI{client: c}
}

// Profiles implements authstate.Client.
func (c *Client) Profiles() authstate.ProfileAPI {
	return c.profiles
}

// Close shuts the change feed down.
func (c *Client) Close() {
	c.feed.Close()
}

func (c *Client) refreshSession(ctx context.Context, token string) (*authstate.Session, error) {
	accountID, next, ok := c.refresh.rotate(token)
	if !ok {
		c.logger.Warn("refresh token rejected, dropping session")
		c.drop(true)
		return nil, nil
	}

	account, err := c.accounts.GetByID(ctx, accountID.String())
	if err != nil {
		c.logger.Warn("account lookup during refresh failed", "error", err)
		c.drop(true)
		return nil, nil
	}

	sess, err := c.issueSessionWithRefresh(account, next)
	if err != nil {
		return nil, err
	}

	c.adopt(sess, authstate.EventTokenRefreshed)

	return sess.Clone(), nil
}

func (c *Client) issueSession(account *Account) (*authstate.Session, error) {
	return c.issueSessionWithRefresh(account, c.refresh.issue(account.ID))
}

func (c *Client) issueSessionWithRefresh(account *Account, refreshToken string) (*authstate.Session, error) {
	user := account.User()

	accessToken, err := c.tokens.Generate(user, uuid.NewString())
	if err != nil {
		return nil, err
	}

	ttl := c.cfg.accessTokenTTL()
	now := time.Now()

	return &authstate.Session{
		AccessToken:  accessToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(ttl / time.Second),
		ExpiresAt:    now.Add(ttl).Unix(),
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

func (c *Client) adopt(sess *authstate.Session, event authstate.AuthChangeEvent) {
	c.mu.Lock()
	c.session = sess.Clone()
	c.mu.Unlock()

	c.feed.Emit(authstate.AuthChange{Event: event, Session: sess.Clone()})
}

func (c *Client) drop(emit bool) {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()

	if emit {
		c.feed.Emit(authstate.AuthChange{Event: authstate.EventSignedOut})
	}
}
