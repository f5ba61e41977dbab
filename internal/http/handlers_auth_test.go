package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameup/gameup-web/internal/domain/access"
	domainauth "github.com/gameup/gameup-web/internal/domain/auth"
	"github.com/gameup/gameup-web/internal/service"
)

// mockAuthService is a test double for service.AuthService.
type mockAuthService struct {
	beginLoginFunc    func(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	beginPersonaFunc  func(ctx context.Context, redirectURL string, persona domainauth.Role) (*service.BeginLoginResult, error)
	completeLoginFunc func(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	getSessionFunc    func(ctx context.Context, sessionID string) (*domainauth.Session, error)
	resolveFunc       func(ctx context.Context, sessionID string) (domainauth.Identity, error)
	logoutFunc        func(ctx context.Context, sessionID string) error
}

func (m *mockAuthService) BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error) {
	if m.beginLoginFunc != nil {
		return m.beginLoginFunc(ctx, redirectURL)
	}
	return &service.BeginLoginResult{
		AuthURL: "https://idp.example.com/auth?state=test-state&nonce=test-nonce",
		State:   "test-state",
		Nonce:   "test-nonce",
	}, nil
}

func (m *mockAuthService) BeginPersonaLogin(
	ctx context.Context,
	redirectURL string,
	persona domainauth.Role,
) (*service.BeginLoginResult, error) {
	if m.beginPersonaFunc != nil {
		return m.beginPersonaFunc(ctx, redirectURL, persona)
	}
	return &service.BeginLoginResult{
		AuthURL: PathAuthCallback + "?code=demo&state=persona-" + string(persona),
		State:   "persona-" + string(persona),
		Nonce:   "test-nonce",
	}, nil
}

func (m *mockAuthService) CompleteLogin(
	ctx context.Context,
	input service.CompleteLoginInput,
) (*service.CompleteLoginResult, error) {
	if m.completeLoginFunc != nil {
		return m.completeLoginFunc(ctx, input)
	}
	return &service.CompleteLoginResult{
		Session: domainauth.Session{
			ID:        "test-session-id",
			UserID:    "test-user",
			Email:     "test@example.com",
			Role:      domainauth.RoleStudent,
			ExpiresAt: time.Now().Add(time.Hour),
		},
		Landing: "/tasks",
	}, nil
}

func (m *mockAuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if m.getSessionFunc != nil {
		return m.getSessionFunc(ctx, sessionID)
	}
	return &domainauth.Session{
		ID:        sessionID,
		UserID:    "test-user",
		Email:     "test@example.com",
		Role:      domainauth.RoleStudent,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (m *mockAuthService) ResolveIdentity(ctx context.Context, sessionID string) (domainauth.Identity, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, sessionID)
	}
	return domainauth.Anonymous(), nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFunc != nil {
		return m.logoutFunc(ctx, sessionID)
	}
	return nil
}

func newAuthHandlers(svc AuthServiceInterface) *AuthHandlers {
	return &AuthHandlers{Svc: svc, Policy: access.NewPolicy(nil)}
}

func TestAuthHandlers_Login_Success(t *testing.T) {
	handlers := newAuthHandlers(&mockAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	w := httptest.NewRecorder()

	handlers.Login(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	resp := w.Result()
	defer resp.Body.Close()
	assert.Len(t, resp.Cookies(), 3) // oauth_state, oauth_nonce, post_login_redirect
	assert.Contains(t, w.Header().Get("Location"), "https://idp.example.com/auth")
}

func TestAuthHandlers_Login_WithRedirectURI(t *testing.T) {
	handlers := newAuthHandlers(&mockAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/auth/login?redirect_uri=/leaderboard/", nil)
	w := httptest.NewRecorder()

	handlers.Login(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	resp := w.Result()
	defer resp.Body.Close()
	c := cookieNamed(resp.Cookies(), CookiePostLoginRedirect)
	require.NotNil(t, c)
	assert.Equal(t, "/leaderboard", c.Value)
}

func TestAuthHandlers_Login_PersonaIgnoredWithoutDemoMode(t *testing.T) {
	var usedPersona bool
	handlers := newAuthHandlers(&mockAuthService{
		beginPersonaFunc: func(context.Context, string, domainauth.Role) (*service.BeginLoginResult, error) {
			usedPersona = true
			return nil, errors.New("unexpected")
		},
	})

	w := httptest.NewRecorder()
	handlers.Login(w, httptest.NewRequest(http.MethodGet, "/auth/login?persona=admin", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.False(t, usedPersona)
}

func TestAuthHandlers_Login_Persona(t *testing.T) {
	var got domainauth.Role
	svc := &mockAuthService{}
	svc.beginPersonaFunc = func(_ context.Context, cb string, persona domainauth.Role) (*service.BeginLoginResult, error) {
		got = persona
		assert.Equal(t, PathAuthCallback, cb)
		return &service.BeginLoginResult{AuthURL: PathAuthCallback + "?code=demo&state=s", State: "s", Nonce: "n"}, nil
	}
	handlers := newAuthHandlers(svc)
	handlers.Personas = domainauth.AllRoles()

	w := httptest.NewRecorder()
	handlers.Login(w, httptest.NewRequest(http.MethodGet, "/auth/login?persona=Teacher", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, domainauth.RoleTeacher, got)

	w = httptest.NewRecorder()
	handlers.Login(w, httptest.NewRequest(http.MethodGet, "/auth/login?persona=janitor", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "unknown_role")
}

func TestAuthHandlers_Login_ServiceError(t *testing.T) {
	handlers := newAuthHandlers(&mockAuthService{
		beginLoginFunc: func(context.Context, string) (*service.BeginLoginResult, error) {
			return nil, errors.New("discovery failed")
		},
	})

	w := httptest.NewRecorder()
	handlers.Login(w, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "login_failed")
}

func TestAuthHandlers_Callback_Success(t *testing.T) {
	var gotInput service.CompleteLoginInput
	handlers := newAuthHandlers(&mockAuthService{
		completeLoginFunc: func(_ context.Context, in service.CompleteLoginInput) (*service.CompleteLoginResult, error) {
			gotInput = in
			return &service.CompleteLoginResult{
				Session: domainauth.Session{ID: "test-session-id", Role: domainauth.RoleStudent, ExpiresAt: time.Now().Add(time.Hour)},
				Landing: "/leaderboard",
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=test-code&state=test-state", nil)
	req.AddCookie(&http.Cookie{Name: CookieOAuthState, Value: "test-state"})
	req.AddCookie(&http.Cookie{Name: CookieOAuthNonce, Value: "test-nonce"})
	req.AddCookie(&http.Cookie{Name: CookiePostLoginRedirect, Value: "/leaderboard"})
	w := httptest.NewRecorder()

	handlers.Callback(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/leaderboard", w.Header().Get("Location"))
	assert.Equal(t, service.CompleteLoginInput{
		Code:          "test-code",
		State:         "test-state",
		Nonce:         "test-nonce",
		RequestedPath: "/leaderboard",
	}, gotInput)

	resp := w.Result()
	defer resp.Body.Close()
	session := cookieNamed(resp.Cookies(), CookieSession)
	require.NotNil(t, session)
	assert.Equal(t, "test-session-id", session.Value)
	assert.Positive(t, session.MaxAge)
}

func TestAuthHandlers_Callback_MissingNonce(t *testing.T) {
	handlers := newAuthHandlers(&mockAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=test-state", nil)
	req.AddCookie(&http.Cookie{Name: CookieOAuthState, Value: "test-state"})
	w := httptest.NewRecorder()

	handlers.Callback(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "missing_nonce")
}

func TestAuthHandlers_Callback_ServiceError(t *testing.T) {
	handlers := newAuthHandlers(&mockAuthService{
		completeLoginFunc: func(context.Context, service.CompleteLoginInput) (*service.CompleteLoginResult, error) {
			return nil, errors.New("token exchange failed")
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=s", nil)
	req.AddCookie(&http.Cookie{Name: CookieOAuthState, Value: "s"})
	req.AddCookie(&http.Cookie{Name: CookieOAuthNonce, Value: "n"})
	w := httptest.NewRecorder()

	handlers.Callback(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "login_completion_failed")
}

func TestAuthHandlers_Logout_ServiceErrorStillClearsCookie(t *testing.T) {
	handlers := newAuthHandlers(&mockAuthService{
		logoutFunc: func(context.Context, string) error { return errors.New("redis down") },
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: CookieSession, Value: "sid"})
	w := httptest.NewRecorder()

	handlers.Logout(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	resp := w.Result()
	defer resp.Body.Close()
	c := cookieNamed(resp.Cookies(), CookieSession)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
}

func TestAuthHandlers_Status_Unauthenticated(t *testing.T) {
	handlers := newAuthHandlers(&mockAuthService{})

	w := httptest.NewRecorder()
	handlers.Status(w, httptest.NewRequest(http.MethodGet, "/auth/status", nil))

	assert.JSONEq(t, `{"authenticated":false}`, w.Body.String())
}

func TestAuthHandlers_SecureCookieBehindProxy(t *testing.T) {
	handlers := newAuthHandlers(&mockAuthService{})
	handlers.CookieDomain = "gameup.example.com"

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w := httptest.NewRecorder()
	handlers.Login(w, req)

	resp := w.Result()
	defer resp.Body.Close()
	c := cookieNamed(resp.Cookies(), CookieOAuthState)
	require.NotNil(t, c)
	assert.True(t, c.Secure)
	assert.Equal(t, "gameup.example.com", c.Domain)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestSafeRedirectPath(t *testing.T) {
	tests := map[string]string{
		"":                       "/",
		"/tasks":                 "/tasks",
		"/tasks/":                "/tasks",
		"/tasks?tab=open#top":    "/tasks",
		"https://evil.example/x": "/",
		"//evil.example/x":       "/",
		"tasks":                  "/",
		"://invalid":             "/",
		"javascript:alert(1)":    "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, safeRedirectPath(in), "input %q", in)
	}
}
