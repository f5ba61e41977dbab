package httpx

import (
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gameup/gameup-web/internal/adapters/authroles"
	"github.com/gameup/gameup-web/internal/adapters/devauth"
	"github.com/gameup/gameup-web/internal/domain/access"
	domainauth "github.com/gameup/gameup-web/internal/domain/auth"
	mockauth "github.com/gameup/gameup-web/internal/mocks/auth"
	"github.com/gameup/gameup-web/internal/ports"
	"github.com/gameup/gameup-web/internal/service"
)

// templatePathFromTest locates web/templates from internal/http.
const templatePathFromTest = "../../web/templates"

func testTemplateFS(t *testing.T) fs.FS {
	t.Helper()
	if _, err := os.Stat(templatePathFromTest); err != nil {
		t.Skipf("Templates not available, skipping: %v", err)
	}
	return os.DirFS(templatePathFromTest)
}

func testRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	tr, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: testTemplateFS(t)})
	require.NoError(t, err)
	return tr
}

// testApp bundles a router with the collaborators tests poke at.
type testApp struct {
	handler  http.Handler
	sessions ports.SessionStore
	auth     *service.AuthService
}

type testAppOptions struct {
	sessions       ports.SessionStore
	roles          ports.RoleMapper
	resolveTimeout time.Duration
	strictRoles    bool
}

func newTestApp(t *testing.T, opts testAppOptions) *testApp {
	t.Helper()

	if opts.sessions == nil {
		opts.sessions = mockauth.NewMemorySessionStore()
	}
	if opts.roles == nil {
		opts.roles = authroles.StaticRoleMapper{
			AdminGroup:   "gameup-admins",
			TeacherGroup: "gameup-teachers",
			StudentGroup: "gameup-students",
			ParentGroup:  "gameup-parents",
		}
	}
	if opts.resolveTimeout == 0 {
		opts.resolveTimeout = 100 * time.Millisecond
	}
	provider, err := devauth.NewProvider(devauth.Config{})
	require.NoError(t, err)

	policy := access.NewPolicy(nil)
	authSvc := service.NewAuthService(service.AuthServiceOptions{
		Provider:       provider,
		Sessions:       opts.sessions,
		Roles:          opts.roles,
		Policy:         policy,
		ResolveTimeout: opts.resolveTimeout,
	})
	guard := service.NewRouteGuard(service.RouteGuardOptions{
		Policy:      policy,
		Resolver:    authSvc,
		StrictRoles: opts.strictRoles,
	})

	h, err := NewRouter(RouterServices{
		Auth:       authSvc,
		Guard:      guard,
		TemplateFS: testTemplateFS(t),
		Personas:   provider.Personas(),
	})
	require.NoError(t, err)

	return &testApp{handler: h, sessions: opts.sessions, auth: authSvc}
}

// login stores a live session for role and returns its id.
func (a *testApp) login(t *testing.T, role domainauth.Role) string {
	t.Helper()
	id := "sess-" + string(role)
	require.NoError(t, a.sessions.Save(context.Background(), domainauth.Session{
		ID:        id,
		UserID:    "user-" + string(role),
		Name:      role.Title() + " User",
		Role:      role,
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	return id
}

type reqOpts struct {
	session string
	accept  string
	headers map[string]string
	cookies []*http.Cookie
}

func (a *testApp) do(method, target string, o reqOpts) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, nil)
	if o.accept == "" {
		o.accept = "text/html"
	}
	r.Header.Set("Accept", o.accept)
	for k, v := range o.headers {
		r.Header.Set(k, v)
	}
	if o.session != "" {
		r.AddCookie(&http.Cookie{Name: CookieSession, Value: o.session})
	}
	for _, c := range o.cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, r)
	return w
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// gatedSessionStore blocks the first Get until release is closed.
type gatedSessionStore struct {
	ports.SessionStore
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func newGatedSessionStore() *gatedSessionStore {
	return &gatedSessionStore{
		SessionStore: mockauth.NewMemorySessionStore(),
		entered:      make(chan struct{}),
		release:      make(chan struct{}),
	}
}

func (s *gatedSessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if s.calls.Add(1) == 1 {
		close(s.entered)
		select {
		case <-s.release:
		case <-ctx.Done():
			return domainauth.Session{}, ctx.Err()
		}
	}
	return s.SessionStore.Get(ctx, id)
}
