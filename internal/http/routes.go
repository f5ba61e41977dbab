package httpx

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	domainauth "github.com/gameup/gameup-web/internal/domain/auth"
	"github.com/gameup/gameup-web/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth  AuthServiceInterface
	Guard *service.RouteGuard
	// TemplateFS holds the *.tmpl pages (required).
	TemplateFS   fs.FS
	CookieDomain string
	CallbackURL  string
	// Personas enables the demo login page.
	Personas []domainauth.Role
	// Sessions, when set, is pinged by /healthz.
	Sessions Pinger
	Logger   *slog.Logger
}

// NewRouter creates the gateway handler: Recover → Logging → BrowserDetection → mux.
func NewRouter(services RouterServices) (http.Handler, error) {
	if services.Auth == nil || services.Guard == nil {
		return nil, errors.New("router: auth service and guard are required")
	}
	if services.Logger == nil {
		services.Logger = slog.Default()
	}

	renderer, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: services.TemplateFS, Logger: services.Logger})
	if err != nil {
		return nil, err
	}

	policy := services.Guard.Policy()
	views := NewViewRegistry(policy.Table())

	mux := http.NewServeMux()

	registerAuthRoutes(mux, &AuthHandlers{
		Svc:          services.Auth,
		Policy:       policy,
		Renderer:     renderer,
		CookieDomain: services.CookieDomain,
		CallbackURL:  services.CallbackURL,
		Personas:     services.Personas,
		Logger:       services.Logger,
	})
	registerAccessRoutes(mux, &AccessHandlers{Policy: policy, Views: views}, services.Auth)

	health := healthHandler(services.Sessions)
	mux.Handle("GET "+PathHealth, health)
	mux.Handle("HEAD "+PathHealth, health)

	guard := Guard(GuardConfig{Guard: services.Guard, Renderer: renderer, Logger: services.Logger})
	viewHandlers := &ViewHandlers{Policy: policy, Views: views, Renderer: renderer}
	registerViewRoutes(mux, views, guard(http.HandlerFunc(viewHandlers.View)))

	var h http.Handler = mux
	h = BrowserDetection()(h)
	h = Logging(services.Logger)(h)
	h = Recover(services.Logger)(h)
	return h, nil
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET "+PathLogin, h.LoginPage)
	mux.HandleFunc("GET "+PathAuthLogin, h.Login)
	mux.HandleFunc("GET "+PathAuthCallback, h.Callback)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/status", h.Status)
	mux.HandleFunc("GET "+PathAuthSignedOut, h.SignedOut)
}

func registerAccessRoutes(mux *http.ServeMux, h *AccessHandlers, auth AuthServiceInterface) {
	authed := Authenticate(auth)
	mux.Handle("GET /api/access/routes", authed(http.HandlerFunc(h.Routes)))
	mux.Handle("GET /api/access/check", authed(http.HandlerFunc(h.Check)))
	mux.Handle("GET /api/access/navigation", authed(http.HandlerFunc(h.Navigation)))
}

// registerViewRoutes mounts every view behind the guard. The catch-all also
// runs through the guard, so the root path redirects to the landing page and
// unknown paths are denied.
func registerViewRoutes(mux *http.ServeMux, views *ViewRegistry, guarded http.Handler) {
	for _, v := range views.Views() {
		mux.Handle("GET "+v.Path, guarded)
		mux.Handle("GET "+v.Path+"/{$}", guarded)
	}
	mux.Handle("GET /", guarded)
}
