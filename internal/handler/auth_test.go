package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/swiftsnip/internal/auth"
	"github.com/sakif/swiftsnip/internal/handler"
	sqliteRepo "github.com/sakif/swiftsnip/internal/repository/sqlite"
	"github.com/sakif/swiftsnip/internal/service"
)

// fakeProvider stands in for GitHub.
type fakeProvider struct {
	user *auth.GitHubUser
	err  error
}

func (f *fakeProvider) AuthURL(state string) string {
	return "https://github.example/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeProvider) Exchange(_ context.Context, code string) (*auth.GitHubUser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func newAuthRouter(t *testing.T, provider *fakeProvider) (http.Handler, *auth.TokenService) {
	t.Helper()
	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)

	logger := newTestLogger()
	h := handler.NewAuthHandler(provider, service.NewAuthService(db, tokens, logger), false, logger)

	r := chi.NewRouter()
	r.Get("/auth/github/login", h.HandleGitHubLogin)
	r.Get("/auth/github/callback", h.HandleGitHubCallback)
	r.Post("/auth/logout", h.HandleLogout)
	r.With(auth.RequireAuth(tokens)).Get("/auth/me", h.HandleMe)
	return r, tokens
}

func findCookie(rr interface{ Result() *http.Response }, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func callback(state, cookieState, code string) *http.Request {
	req := newRequest(http.MethodGet, "/auth/github/callback?state="+state+"&code="+code, nil)
	if cookieState != "" {
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: cookieState})
	}
	return req
}

func TestAuthHandler_Login(t *testing.T) {
	h, _ := newAuthRouter(t, &fakeProvider{})

	rr := serve(h, newRequest(http.MethodGet, "/auth/github/login", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	state := findCookie(rr, "oauth_state")
	require.NotNil(t, state)
	assert.True(t, state.HttpOnly)
	assert.Contains(t, rr.Header().Get("Location"), "state="+state.Value)
}

func TestAuthHandler_CallbackSignsIn(t *testing.T) {
	h, tokens := newAuthRouter(t, &fakeProvider{user: &auth.GitHubUser{ID: 42, Login: "octocat"}})

	rr := serve(h, callback("s1", "s1", "code"))

	require.Equal(t, http.StatusSeeOther, rr.Code, rr.Body.String())
	assert.Equal(t, "/", rr.Header().Get("Location"))

	session := findCookie(rr, auth.CookieName)
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	userID, err := tokens.Validate(session.Value)
	require.NoError(t, err)

	// The cookie opens /auth/me.
	me := newRequest(http.MethodGet, "/auth/me", nil)
	me.AddCookie(session)
	rr = serve(h, me)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[map[string]any](t, rr)
	assert.Equal(t, userID, body["id"])
	assert.Equal(t, "octocat", body["login"])
}

func TestAuthHandler_CallbackRejects(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		req      *http.Request
		want     int
	}{
		{"missing state cookie", &fakeProvider{}, callback("s1", "", "code"), http.StatusBadRequest},
		{"state mismatch", &fakeProvider{}, callback("s1", "s2", "code"), http.StatusBadRequest},
		{"missing code", &fakeProvider{}, callback("s1", "s1", ""), http.StatusBadRequest},
		{"exchange fails", &fakeProvider{err: errors.New("bad code")}, callback("s1", "s1", "code"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newAuthRouter(t, tt.provider)

			rr := serve(h, tt.req)

			assert.Equal(t, tt.want, rr.Code)
			assert.Nil(t, findCookie(rr, auth.CookieName), "no session on failure")
		})
	}
}

func TestAuthHandler_CallbackDenied(t *testing.T) {
	h, _ := newAuthRouter(t, &fakeProvider{})
	req := newRequest(http.MethodGet, "/auth/github/callback?state=s1&error=access_denied", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "s1"})

	rr := serve(h, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/?auth=denied", rr.Header().Get("Location"))
}

func TestAuthHandler_Logout(t *testing.T) {
	h, _ := newAuthRouter(t, &fakeProvider{})

	rr := serve(h, newRequest(http.MethodPost, "/auth/logout", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	c := findCookie(rr, auth.CookieName)
	require.NotNil(t, c)
	assert.Less(t, c.MaxAge, 0)
}

func TestAuthHandler_MeRequiresAuth(t *testing.T) {
	h, _ := newAuthRouter(t, &fakeProvider{})

	rr := serve(h, newRequest(http.MethodGet, "/auth/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
