package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gameup/gameup-web/internal/domain/access"
	domainauth "github.com/gameup/gameup-web/internal/domain/auth"
	"github.com/gameup/gameup-web/internal/service"
)

// AuthServiceInterface defines the auth service operations used by the HTTP layer.
type AuthServiceInterface interface {
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	BeginPersonaLogin(ctx context.Context, redirectURL string, persona domainauth.Role) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	ResolveIdentity(ctx context.Context, sessionID string) (domainauth.Identity, error)
	Logout(ctx context.Context, sessionID string) error
}

var _ AuthServiceInterface = (*service.AuthService)(nil)

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	Policy       *access.Policy
	Renderer     *TemplateRenderer
	CookieDomain string
	// CallbackURL is handed to the provider as the OAuth redirect target.
	CallbackURL string
	// Personas enables the demo login page when non-empty.
	Personas []domainauth.Role
	Logger   *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) callbackURL() string {
	if h.CallbackURL != "" {
		return h.CallbackURL
	}
	return PathAuthCallback
}

type personaOption struct {
	Role  domainauth.Role
	Title string
	Href  string
}

type loginPageData struct {
	Personas    []personaOption
	SignInHref  string
	RedirectURI string
	Error       string
}

// LoginPage renders the sign-in page.
// GET /login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	if id, err := h.Svc.ResolveIdentity(r.Context(), sessionID(r)); err == nil && id.Authenticated {
		redirect(w, r, h.Policy.LandingFor(id.Role, redirectURI))
		return
	}

	data := loginPageData{
		SignInHref:  authLoginHref(redirectURI, ""),
		RedirectURI: redirectURI,
	}
	if r.URL.Query().Get("error") == "no_role" {
		data.Error = "Your account is not assigned to a GameUp role."
	}
	for _, role := range h.Personas {
		data.Personas = append(data.Personas, personaOption{
			Role:  role,
			Title: role.Title(),
			Href:  authLoginHref(redirectURI, role),
		})
	}
	h.Renderer.Render(w, http.StatusOK, tmplLogin, data)
}

func authLoginHref(redirectURI string, persona domainauth.Role) string {
	q := url.Values{}
	if redirectURI != "" && redirectURI != access.RootPath {
		q.Set("redirect_uri", redirectURI)
	}
	if persona != "" {
		q.Set("persona", string(persona))
	}
	if len(q) == 0 {
		return PathAuthLogin
	}
	return PathAuthLogin + "?" + q.Encode()
}

// Login handles the login initiation endpoint.
// GET /auth/login?redirect_uri=<optional_redirect>&persona=<optional_role>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	var (
		result *service.BeginLoginResult
		err    error
	)
	if raw := r.URL.Query().Get("persona"); raw != "" && len(h.Personas) > 0 {
		persona, ok := domainauth.ParseRole(raw)
		if !ok {
			WriteAppError(w, &access.UnknownRoleError{Role: domainauth.Role(raw)})
			return
		}
		result, err = h.Svc.BeginPersonaLogin(r.Context(), h.callbackURL(), persona)
	} else {
		result, err = h.Svc.BeginLogin(r.Context(), h.callbackURL())
	}
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     err,
		})
		return
	}

	h.setOAuthCookies(w, r, oauthCookieParams{State: result.State, Nonce: result.Nonce, RedirectURI: redirectURI})
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback handles the OAuth callback endpoint.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_state",
			Err:     errors.New("state parameter is required"),
		})
		return
	}

	stateCookie, err := r.Cookie(CookieOAuthState)
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie(CookieOAuthNonce)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	requested := h.takePostLoginRedirect(w, r)
	h.clearCookie(w, r, CookieOAuthState)
	h.clearCookie(w, r, CookieOAuthNonce)

	result, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:          code,
		State:         state,
		Nonce:         nonceCookie.Value,
		RequestedPath: requested,
	})
	if errors.Is(err, service.ErrNoRole) {
		http.Redirect(w, r, PathLogin+"?error=no_role", http.StatusFound)
		return
	}
	if err != nil {
		h.logger().ErrorContext(r.Context(), "complete login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_completion_failed",
			Err:     err,
		})
		return
	}

	h.setSessionCookie(w, r, result.Session)
	http.Redirect(w, r, result.Landing, http.StatusFound)
}

// Logout handles the logout endpoint.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sid := sessionID(r); sid != "" {
		if logoutErr := h.Svc.Logout(r.Context(), sid); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		}
	}
	h.clearCookie(w, r, CookieSession)

	u := url.URL{Path: PathAuthSignedOut}
	if redirectURI := safeRedirectPath(r.FormValue("redirect_uri")); redirectURI != access.RootPath {
		u.RawQuery = url.Values{"redirect_uri": {redirectURI}}.Encode()
	}
	signedOutURL := u.String()

	isAJAX := strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
	if isAJAX {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": signedOutURL,
		})
		return
	}

	redirect(w, r, signedOutURL)
}

type signedOutData struct {
	SignInHref string
	Reason     string
}

// SignedOut renders the signed-out confirmation.
// GET /auth/signed-out?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) SignedOut(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))
	href := PathLogin
	if redirectURI != access.RootPath {
		href = service.LoginRedirect(redirectURI)
	}
	h.Renderer.Render(w, http.StatusOK, tmplSignedOut, signedOutData{SignInHref: href})
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	session, err := h.Svc.GetSession(r.Context(), sid)
	if err != nil {
		h.clearCookie(w, r, CookieSession)
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"id":    session.UserID,
			"name":  session.Name,
			"email": session.Email,
			"role":  session.Role,
		},
		"default_route": h.Policy.DefaultRouteFor(session.Role),
		"expires_at":    session.ExpiresAt,
	})
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func (h *AuthHandlers) cookie(r *http.Request, name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

// clearCookie expires a cookie, mirroring the attributes used when it was set.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	c := h.cookie(r, name, "", -1)
	c.Expires = time.Unix(0, 0).UTC()
	http.SetCookie(w, c)
}

type oauthCookieParams struct {
	State       string
	Nonce       string
	RedirectURI string
}

// setOAuthCookies stores OAuth state, nonce, and the post-login redirect in short-lived cookies.
func (h *AuthHandlers) setOAuthCookies(w http.ResponseWriter, r *http.Request, p oauthCookieParams) {
	maxAge := int(oauthCookieMaxAge / time.Second)
	http.SetCookie(w, h.cookie(r, CookieOAuthState, p.State, maxAge))
	http.SetCookie(w, h.cookie(r, CookieOAuthNonce, p.Nonce, maxAge))
	http.SetCookie(w, h.cookie(r, CookiePostLoginRedirect, p.RedirectURI, maxAge))
}

// setSessionCookie writes the session cookie based on the session's expiry.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	http.SetCookie(w, h.cookie(r, CookieSession, s.ID, int(time.Until(s.ExpiresAt).Seconds())))
}

// takePostLoginRedirect returns the requested path saved at login start and clears the cookie.
func (h *AuthHandlers) takePostLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(CookiePostLoginRedirect)
	if err != nil {
		return access.RootPath
	}
	h.clearCookie(w, r, CookiePostLoginRedirect)
	return safeRedirectPath(c.Value)
}

// safeRedirectPath ensures the provided redirect is a same-origin path
// starting with "/". Query strings and fragments are dropped. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return access.RootPath
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return access.RootPath
	}
	return normalizePath(u.Path)
}
