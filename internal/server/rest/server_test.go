package restserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/markmcclatchy/auth-service/internal/crypto"
	"github.com/markmcclatchy/auth-service/internal/email"
	"github.com/markmcclatchy/auth-service/internal/model"
	"github.com/markmcclatchy/auth-service/internal/repository/memory"
	"github.com/markmcclatchy/auth-service/internal/service"
	"github.com/markmcclatchy/auth-service/internal/token"
)

type testApp struct {
	srv    *httptest.Server
	mail   *email.Mock
	codes  *memory.TwoFACodeStore
	resets *memory.ResetTokenStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	hasher := crypto.NewHasher(crypto.Params{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}, 2)
	mail := email.NewMock()
	codes := memory.NewTwoFACodeStore()
	resets := memory.NewResetTokenStore()
	tokens := token.NewManager([]byte("test-secret"), 10*time.Minute, 15*time.Minute)
	auth := service.NewAuthService(
		memory.NewUserStore(hasher),
		memory.NewBannedTokenStore(),
		codes,
		resets,
		mail,
		tokens,
		hasher,
		5*time.Second,
	)

	srv := httptest.NewServer(New(auth, tokens.AuthTTL(), zap.NewNop()).Handler())
	t.Cleanup(srv.Close)
	return &testApp{srv: srv, mail: mail, codes: codes, resets: resets}
}

func (a *testApp) post(t *testing.T, path string, body any, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, a.srv.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", SessionCookieName)
	return nil
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	resp, err := http.Get(app.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionLifecycleWithoutTwoFactor(t *testing.T) {
	app := newTestApp(t)

	resp := app.post(t, "/signup", map[string]any{"email": "a@x.com", "password": "P@ssw0rd1", "requires2FA": false})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Duplicate signup is a conflict.
	resp = app.post(t, "/signup", map[string]any{"email": "a@x.com", "password": "P@ssw0rd1", "requires2FA": false})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = app.post(t, "/login", map[string]any{"email": "a@x.com", "password": "P@ssw0rd1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookie := sessionCookie(t, resp)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)

	resp = app.post(t, "/verify-token", map[string]any{"token": cookie.Value})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = app.post(t, "/logout", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The revoked token no longer validates.
	resp = app.post(t, "/verify-token", map[string]any{"token": cookie.Value})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Logout without a cookie is a missing-token error.
	resp = app.post(t, "/logout", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionLifecycleWithTwoFactor(t *testing.T) {
	app := newTestApp(t)

	resp := app.post(t, "/signup", map[string]any{"email": "b@x.com", "password": "P@ssw0rd1", "requires2FA": true})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = app.post(t, "/login", map[string]any{"email": "b@x.com", "password": "P@ssw0rd1"})
	require.Equal(t, http.StatusPartialContent, resp.StatusCode)
	var partial struct {
		Message        string `json:"message"`
		LoginAttemptID string `json:"loginAttemptId"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&partial))
	require.NotEmpty(t, partial.LoginAttemptID)
	require.Len(t, app.mail.Sent(), 1)

	em, err := model.ParseEmail("b@x.com")
	require.NoError(t, err)
	_, code, err := app.codes.Get(context.Background(), em)
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code.Expose() {
		wrong = "000001"
	}
	resp = app.post(t, "/verify-2fa", map[string]any{"email": "b@x.com", "loginAttemptId": partial.LoginAttemptID, "2FACode": wrong})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = app.post(t, "/verify-2fa", map[string]any{"email": "b@x.com", "loginAttemptId": partial.LoginAttemptID, "2FACode": code.Expose()})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookie := sessionCookie(t, resp)

	resp = app.post(t, "/verify-token", map[string]any{"token": cookie.Value})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The challenge was consumed; replaying the same pair fails.
	resp = app.post(t, "/verify-2fa", map[string]any{"email": "b@x.com", "loginAttemptId": partial.LoginAttemptID, "2FACode": code.Expose()})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPasswordResetLifecycle(t *testing.T) {
	app := newTestApp(t)

	// Unregistered email gets the same generic message and no email.
	resp := app.post(t, "/initiate-password-reset", map[string]any{"email": "c@x.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var generic struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&generic))
	assert.Equal(t, InitiateResetMessage, generic.Message)
	assert.Empty(t, app.mail.Sent())

	resp = app.post(t, "/signup", map[string]any{"email": "d@x.com", "password": "P@ssw0rd1", "requires2FA": false})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = app.post(t, "/initiate-password-reset", map[string]any{"email": "d@x.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var known struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&known))
	assert.Equal(t, generic.Message, known.Message)
	require.Len(t, app.mail.Sent(), 1)

	em, err := model.ParseEmail("d@x.com")
	require.NoError(t, err)
	resetToken, err := app.resets.Get(context.Background(), em)
	require.NoError(t, err)

	resp = app.post(t, "/reset-password", map[string]any{"token": resetToken, "new_password": "NewP@ss1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sessionCookie(t, resp)

	resp = app.post(t, "/login", map[string]any{"email": "d@x.com", "password": "P@ssw0rd1"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = app.post(t, "/login", map[string]any{"email": "d@x.com", "password": "NewP@ss1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A session token is not a reset credential.
	cookie := sessionCookie(t, resp)
	resp = app.post(t, "/reset-password", map[string]any{"token": cookie.Value, "new_password": "An0therP@ss"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestValidationErrorsAreBadRequests(t *testing.T) {
	app := newTestApp(t)

	for _, tc := range []struct {
		path string
		body map[string]any
	}{
		{"/signup", map[string]any{"email": "nope", "password": "P@ssw0rd1"}},
		{"/signup", map[string]any{"email": "a@x.com", "password": "short"}},
		{"/login", map[string]any{"email": "nope", "password": "P@ssw0rd1"}},
		{"/verify-2fa", map[string]any{"email": "a@x.com", "loginAttemptId": "not-a-uuid", "2FACode": "123456"}},
		{"/verify-2fa", map[string]any{"email": "a@x.com", "loginAttemptId": "8f8e8b1a-7b9f-4a2a-9a3a-1c2d3e4f5a6b", "2FACode": "12"}},
		{"/initiate-password-reset", map[string]any{"email": "nope"}},
	} {
		resp := app.post(t, tc.path, tc.body)
		assert.Equalf(t, http.StatusBadRequest, resp.StatusCode, "%s %v", tc.path, tc.body)
	}
}

func TestUnknownLoginIsUnauthorized(t *testing.T) {
	app := newTestApp(t)
	resp := app.post(t, "/login", map[string]any{"email": fmt.Sprintf("nobody-%d@x.com", time.Now().UnixNano()), "password": "P@ssw0rd1"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
