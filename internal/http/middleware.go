package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/gameup/gameup-web/internal/errors"
	"github.com/gameup/gameup-web/internal/ports"
	"github.com/gameup/gameup-web/internal/service"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// browserRequestKey is an unexported context key type for browser request detection.
type browserRequestKey struct{}

// BrowserDetection returns a middleware that detects browser requests vs API requests.
// Downstream handlers use it to choose between redirects/HTML and JSON.
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowserRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest returns true if the current request is from a browser.
func IsBrowserRequest(r *http.Request) bool {
	if isBrowser, ok := r.Context().Value(browserRequestKey{}).(bool); ok {
		return isBrowser
	}
	return isBrowserRequest(r)
}

// isBrowserRequest determines if a request is from a browser based on:
// 1. Path prefix - API routes start with /api/
// 2. HTMX requests are browser requests
// 3. Accept header - browsers accept text/html.
func isBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	if IsHTMX(r) {
		return true
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}
	return strings.Contains(accept, "text/html")
}

// normalizePath trims a single trailing slash so "/tasks/" and "/tasks" gate alike.
func normalizePath(p string) string {
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		return p[:len(p)-1]
	}
	if p == "" {
		return "/"
	}
	return p
}

func sessionID(r *http.Request) string {
	if c, err := r.Cookie(CookieSession); err == nil {
		return c.Value
	}
	return ""
}

// navigationClient identifies the tab for last-navigation-wins.
// Only an explicit X-Navigation-Client header is tracked: tabs sharing a
// session cookie must not cancel each other, and a tab's own abandoned
// request is already cancelled through its context.
func navigationClient(r *http.Request) string {
	return r.Header.Get(HeaderNavigationClient)
}

// GuardConfig groups dependencies for the Guard middleware.
type GuardConfig struct {
	Guard    *service.RouteGuard
	Renderer *TemplateRenderer
	Logger   *slog.Logger
}

// Guard returns a middleware that gates every navigation through the route guard.
// Authorized requests continue with the viewer stored in the context.
func Guard(cfg GuardConfig) func(http.Handler) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := normalizePath(r.URL.Path)
			out := cfg.Guard.Evaluate(r.Context(), service.Navigation{
				ClientID:  navigationClient(r),
				SessionID: sessionID(r),
				Path:      path,
			})

			switch out.State {
			case service.StateSuperseded:
				w.WriteHeader(http.StatusNoContent)
			case service.StateLoading:
				writeLoading(w, r, cfg.Renderer, path)
			case service.StateUnauthenticated:
				if !IsBrowserRequest(r) {
					WriteAppError(w, apperrors.Unauthenticated("authentication required"))
					return
				}
				redirect(w, r, out.Redirect)
			case service.StateDenied:
				if out.Misconfigured {
					writeMisconfigured(w, r, cfg.Renderer, out)
					return
				}
				if !IsBrowserRequest(r) {
					writeDenied(w, out)
					return
				}
				redirect(w, r, out.Redirect)
			case service.StateAuthorized:
				if out.Redirect != "" {
					redirect(w, r, out.Redirect)
					return
				}
				next.ServeHTTP(w, r.WithContext(SetIdentityInContext(r.Context(), out.Identity)))
			default:
				cfg.Logger.ErrorContext(r.Context(), "unexpected guard state", "state", out.State.String())
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		})
	}
}

func writeDenied(w http.ResponseWriter, out service.GuardOutcome) {
	if out.Err != nil {
		WriteAppError(w, out.Err)
		return
	}
	WriteError(w, ErrorParams{
		Code:    http.StatusForbidden,
		ErrCode: string(apperrors.ErrCodeForbidden),
		Err:     errors.New("insufficient permissions"),
	})
}

// writeMisconfigured fails a navigation whose role is missing from the route table.
func writeMisconfigured(w http.ResponseWriter, r *http.Request, renderer *TemplateRenderer, out service.GuardOutcome) {
	if !IsBrowserRequest(r) || renderer == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "role_misconfigured",
			Err:     out.Err,
		})
		return
	}
	renderer.Render(w, http.StatusInternalServerError, tmplError, errorPageData{
		Title:   "Role not configured",
		Message: out.Err.Error(),
	})
}

type loadingData struct {
	Path              string
	RetryAfterSeconds int
}

// writeLoading renders the neutral placeholder shown while the identity is unresolved.
func writeLoading(w http.ResponseWriter, r *http.Request, renderer *TemplateRenderer, path string) {
	secs := int(loadingRetryAfter / time.Second)
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	w.Header().Set("Cache-Control", "no-store")
	if !IsBrowserRequest(r) || renderer == nil {
		WriteAppError(w, service.ErrIdentityPending)
		return
	}
	w.Header().Set("Refresh", strconv.Itoa(secs))
	renderer.Render(w, http.StatusOK, tmplLoading, loadingData{Path: path, RetryAfterSeconds: secs})
}

// Authenticate returns a middleware for API routes that resolves the viewer
// without path gating. Unauthenticated callers get 401 and unresolved identities 503.
func Authenticate(resolver ports.IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := resolver.ResolveIdentity(r.Context(), sessionID(r))
			if err != nil {
				if r.Context().Err() != nil {
					return
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(loadingRetryAfter/time.Second)))
				WriteAppError(w, err)
				return
			}
			if !id.Authenticated {
				WriteAppError(w, apperrors.Unauthenticated("authentication required"))
				return
			}
			next.ServeHTTP(w, r.WithContext(SetIdentityInContext(r.Context(), id)))
		})
	}
}
