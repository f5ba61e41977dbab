package httpx

import "time"

// Cookie names shared by the auth handlers and the guard middleware.
const (
	CookieSession           = "session_id"
	CookieOAuthState        = "oauth_state"
	CookieOAuthNonce        = "oauth_nonce"
	CookiePostLoginRedirect = "post_login_redirect"
)

// HeaderNavigationClient lets non-cookie clients group their navigations for last-navigation-wins.
const HeaderNavigationClient = "X-Navigation-Client"

// Fixed application paths.
const (
	PathLogin         = "/login"
	PathAuthLogin     = "/auth/login"
	PathAuthCallback  = "/auth/callback"
	PathAuthSignedOut = "/auth/signed-out"
	PathHealth        = "/healthz"
)

const (
	// oauthCookieMaxAge bounds how long a login round-trip may take.
	oauthCookieMaxAge = 10 * time.Minute

	// loadingRetryAfter is the refresh hint sent with the loading placeholder.
	loadingRetryAfter = 1 * time.Second
)

// Template names.
const (
	tmplPage      = "page"
	tmplLogin     = "login"
	tmplLoading   = "loading"
	tmplSignedOut = "signed-out"
	tmplError     = "error"
)
