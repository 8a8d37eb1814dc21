package csrf

import (
	"testing"
	"time"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestSecureKey() []byte {
	return []byte("0123456789abcdef0123456789abcdef")
}

func newMockContextWithBase(method string) *router.MockContext {
	ctx := router.NewMockContext()
	ctx.On("Method").Return(method)
	ctx.On("IP").Return("127.0.0.1")
	ctx.On("Locals", DefaultContextKey, mock.Anything).Return(nil)
	ctx.On("Locals", DefaultContextKey+"_field", mock.Anything).Return(nil)
	ctx.On("Locals", DefaultContextKey+"_header", mock.Anything).Return(nil)
	ctx.On("LocalsMerge", mock.Anything, mock.Anything).Return(map[string]any{}).Maybe()
	return ctx
}

type stubSession struct {
	sid string
	sub string
}

func (s stubSession) Subject() string   { return s.sub }
func (s stubSession) SessionID() string { return s.sid }

func TestStatelessTokenRoundTrip(t *testing.T) {
	cfg := Config{
		SecureKey: newTestSecureKey(),
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
	}

	handler := New(cfg)(func(ctx router.Context) error { return nil })

	getCtx := newMockContextWithBase("GET")
	require.NoError(t, handler(getCtx))

	tokenVal, ok := getCtx.LocalsMock[DefaultContextKey].(string)
	require.True(t, ok)
	require.NotEmpty(t, tokenVal)

	postCtx := newMockContextWithBase("POST")
	postCtx.On("FormValue", DefaultFormFieldName).Return(tokenVal)

	require.NoError(t, handler(postCtx))
	require.True(t, postCtx.NextCalled)
}

func TestTamperedTokenRejected(t *testing.T) {
	var captured error
	cfg := Config{
		SecureKey: newTestSecureKey(),
		ErrorHandler: func(ctx router.Context, err error) error {
			captured = err
			return err
		},
	}

	handler := New(cfg)(func(ctx router.Context) error { return nil })

	getCtx := newMockContextWithBase("GET")
	require.NoError(t, handler(getCtx))

	postCtx := newMockContextWithBase("POST")
	postCtx.On("FormValue", DefaultFormFieldName).Return("tampered")

	require.Error(t, handler(postCtx))
	require.ErrorIs(t, captured, ErrTokenMismatch)
	require.False(t, postCtx.NextCalled)
}

func TestMissingTokenRejected(t *testing.T) {
	var captured error
	cfg := Config{
		SecureKey: newTestSecureKey(),
		ErrorHandler: func(ctx router.Context, err error) error {
			captured = err
			return err
		},
	}

	handler := New(cfg)(func(ctx router.Context) error { return nil })

	postCtx := newMockContextWithBase("POST")
	postCtx.On("FormValue", DefaultFormFieldName).Return("")
	postCtx.On("GetString", DefaultHeaderName, "").Return("")

	require.Error(t, handler(postCtx))
	require.ErrorIs(t, captured, ErrTokenMissing)
}

func TestTokenBoundToSession(t *testing.T) {
	var captured error
	cfg := Config{
		SecureKey: newTestSecureKey(),
		ErrorHandler: func(ctx router.Context, err error) error {
			captured = err
			return err
		},
	}

	handler := New(cfg)(func(ctx router.Context) error { return nil })

	getCtx := newMockContextWithBase("GET")
	getCtx.LocalsMock[DefaultSessionKey] = stubSession{sid: "sess-1", sub: "user-1"}
	require.NoError(t, handler(getCtx))

	tokenVal := getCtx.LocalsMock[DefaultContextKey].(string)

	// same session accepts the token
	sameCtx := newMockContextWithBase("POST")
	sameCtx.LocalsMock[DefaultSessionKey] = stubSession{sid: "sess-1", sub: "user-1"}
	sameCtx.On("FormValue", DefaultFormFieldName).Return(tokenVal)
	require.NoError(t, handler(sameCtx))
	require.True(t, sameCtx.NextCalled)

	// replaying it from a different session fails the signature check
	otherCtx := newMockContextWithBase("POST")
	otherCtx.LocalsMock[DefaultSessionKey] = stubSession{sid: "sess-2", sub: "user-2"}
	otherCtx.On("FormValue", DefaultFormFieldName).Return(tokenVal)
	require.Error(t, handler(otherCtx))
	require.ErrorIs(t, captured, ErrTokenMismatch)
}

func TestTokenFallsBackToSubject(t *testing.T) {
	cfg := Config{
		SecureKey: newTestSecureKey(),
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
	}

	handler := New(cfg)(func(ctx router.Context) error { return nil })

	getCtx := newMockContextWithBase("GET")
	getCtx.LocalsMock[DefaultSessionKey] = stubSession{sub: "user-1"}
	require.NoError(t, handler(getCtx))

	tokenVal := getCtx.LocalsMock[DefaultContextKey].(string)

	postCtx := newMockContextWithBase("POST")
	postCtx.LocalsMock[DefaultSessionKey] = stubSession{sub: "user-1"}
	postCtx.On("FormValue", DefaultFormFieldName).Return(tokenVal)
	require.NoError(t, handler(postCtx))
}

func TestTokenExpiration(t *testing.T) {
	cfg := Config{
		SecureKey:  newTestSecureKey(),
		Expiration: time.Nanosecond,
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
	}

	handler := New(cfg)(func(ctx router.Context) error { return nil })

	getCtx := newMockContextWithBase("GET")
	require.NoError(t, handler(getCtx))

	tokenVal := getCtx.LocalsMock[DefaultContextKey].(string)

	time.Sleep(time.Millisecond) // ensure token is expired

	postCtx := newMockContextWithBase("POST")
	postCtx.On("FormValue", DefaultFormFieldName).Return(tokenVal)

	err := handler(postCtx)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestHeaderExtraction(t *testing.T) {
	cfg := Config{
		SecureKey: newTestSecureKey(),
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
	}

	handler := New(cfg)(func(ctx router.Context) error { return nil })

	getCtx := newMockContextWithBase("GET")
	require.NoError(t, handler(getCtx))

	tokenVal := getCtx.LocalsMock[DefaultContextKey].(string)

	postCtx := newMockContextWithBase("POST")
	postCtx.On("FormValue", DefaultFormFieldName).Return("")
	postCtx.On("GetString", DefaultHeaderName, "").Return(tokenVal)

	require.NoError(t, handler(postCtx))
	require.True(t, postCtx.NextCalled)
}

func TestSkipBypassesValidation(t *testing.T) {
	cfg := Config{
		SecureKey: newTestSecureKey(),
		Skip: func(ctx router.Context) bool {
			return true
		},
	}

	handler := New(cfg)(func(ctx router.Context) error { return nil })

	postCtx := router.NewMockContext()
	require.NoError(t, handler(postCtx))
	require.True(t, postCtx.NextCalled)
}

func TestShortSecureKeyPanics(t *testing.T) {
	require.Panics(t, func() {
		New(Config{SecureKey: []byte("short")})
	})
}

func TestCSRFTemplateHelpersWithRouter(t *testing.T) {
	ctx := router.NewMockContext()
	ctx.LocalsMock[DefaultContextKey] = "tok-1"
	ctx.LocalsMock[DefaultContextKey+"_field"] = "_token"
	ctx.LocalsMock[DefaultContextKey+"_header"] = "X-CSRF-Token"

	helpers := CSRFTemplateHelpersWithRouter(ctx, "")
	require.Equal(t, "tok-1", helpers["csrf_token"])
	require.Equal(t, `<input type="hidden" name="_token" value="tok-1">`, helpers["csrf_field"])
	require.Equal(t, `<meta name="csrf-token" content="tok-1">`, helpers["csrf_meta"])
	require.Equal(t, "X-CSRF-Token", helpers["csrf_header_name"])
}
