package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/gameup/gameup-web/internal/domain/access"
	domainauth "github.com/gameup/gameup-web/internal/domain/auth"
	"github.com/gameup/gameup-web/internal/observability/metrics"
	"github.com/gameup/gameup-web/internal/observability/statsd"
	"github.com/gameup/gameup-web/internal/ports"
)

// ErrNavigationSuperseded reports that a newer navigation of the same client
// replaced this one, or that the navigation was abandoned. Its outcome must be discarded.
var ErrNavigationSuperseded = errors.New("navigation superseded")

// GuardState is the terminal state of one guarded navigation.
type GuardState int

const (
	// StateLoading means the identity is unresolved; render a placeholder and do not redirect.
	StateLoading GuardState = iota
	// StateUnauthenticated means there is no viewer; redirect to the login page.
	StateUnauthenticated
	// StateAuthorized means the view may render (or, for the root path, redirect to the landing page).
	StateAuthorized
	// StateDenied means the role may not view the path; redirect to the role's default route.
	StateDenied
	// StateSuperseded means the outcome is stale and nothing should be written.
	StateSuperseded
)

func (s GuardState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthorized:
		return "authorized"
	case StateDenied:
		return "denied"
	case StateSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// Navigation is one request to view a path.
type Navigation struct {
	// ClientID groups navigations of one browser for last-navigation-wins; empty disables tracking.
	ClientID  string
	SessionID string
	Path      string
	// Identity, when set, skips resolution.
	Identity *domainauth.Identity
}

// GuardOutcome is the result of evaluating a navigation.
type GuardOutcome struct {
	State    GuardState
	Identity domainauth.Identity
	// Redirect is the target for Unauthenticated, Denied, and the root path when Authorized.
	Redirect string
	Err      error
	// Misconfigured is set in strict mode when the viewer's role is outside the
	// route table. No redirect is offered; the caller should fail the request.
	Misconfigured bool
}

// RouteGuardOptions groups dependencies for RouteGuard.
type RouteGuardOptions struct {
	Policy   *access.Policy
	Resolver ports.IdentityResolver
	Tracker  *NavigationTracker
	Metrics  statsd.Sink // Optional: per-outcome counters and timings
	Logger   *slog.Logger
	// StrictRoles surfaces unknown roles as Misconfigured outcomes (development).
	StrictRoles bool
}

// RouteGuard gates navigations against the access policy.
type RouteGuard struct {
	policy   *access.Policy
	resolver ports.IdentityResolver
	tracker  *NavigationTracker
	metrics  statsd.Sink
	logger   *slog.Logger
	strict   bool
}

// NewRouteGuard constructs a RouteGuard. Resolver is required.
func NewRouteGuard(opts RouteGuardOptions) *RouteGuard {
	if opts.Policy == nil {
		opts.Policy = access.NewPolicy(nil)
	}
	if opts.Tracker == nil {
		opts.Tracker = NewNavigationTracker(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &RouteGuard{
		policy:   opts.Policy,
		resolver: opts.Resolver,
		tracker:  opts.Tracker,
		metrics:  opts.Metrics,
		logger:   opts.Logger.With("component", "route_guard"),
		strict:   opts.StrictRoles,
	}
}

// Policy returns the policy the guard consults.
func (g *RouteGuard) Policy() *access.Policy { return g.policy }

// Evaluate runs one navigation through Loading, Checking and a terminal state.
func (g *RouteGuard) Evaluate(ctx context.Context, nav Navigation) GuardOutcome {
	start := time.Now()
	out := g.evaluate(ctx, nav)
	if g.metrics != nil {
		metrics.EmitNavigation(g.metrics, metrics.NavigationMetric{
			State:      out.State.String(),
			Role:       string(out.Identity.Role),
			Duration:   time.Since(start),
			ErrorClass: errorClass(out),
		})
	}
	return out
}

func (g *RouteGuard) evaluate(ctx context.Context, nav Navigation) GuardOutcome {
	ticket := g.tracker.Begin(nav.ClientID)

	identity, err := g.identity(ctx, nav)

	if ctx.Err() != nil || !g.tracker.IsCurrent(nav.ClientID, ticket) {
		return GuardOutcome{State: StateSuperseded, Err: ErrNavigationSuperseded}
	}
	if err != nil {
		if !errors.Is(err, ErrIdentityPending) {
			g.logger.ErrorContext(ctx, "identity resolution failed", "path", nav.Path, "error", err)
		}
		return GuardOutcome{State: StateLoading, Err: err}
	}

	if !identity.Authenticated {
		return GuardOutcome{State: StateUnauthenticated, Redirect: LoginRedirect(nav.Path)}
	}

	return g.check(ctx, identity, nav.Path)
}

func (g *RouteGuard) identity(ctx context.Context, nav Navigation) (domainauth.Identity, error) {
	if nav.Identity != nil {
		return *nav.Identity, nil
	}
	if g.resolver == nil {
		return domainauth.Anonymous(), nil
	}
	return g.resolver.ResolveIdentity(ctx, nav.SessionID)
}

func (g *RouteGuard) check(ctx context.Context, identity domainauth.Identity, path string) GuardOutcome {
	d := g.policy.Decide(identity.Role, path)
	if d.Err != nil {
		g.logger.ErrorContext(ctx, "navigation denied: unknown role",
			"role", identity.Role, "user_id", identity.UserID, "path", path, "error", d.Err)
		if g.strict {
			return GuardOutcome{State: StateDenied, Identity: identity, Err: d.Err, Misconfigured: true}
		}
		return GuardOutcome{State: StateDenied, Identity: identity, Redirect: d.Redirect, Err: d.Err}
	}
	if !d.Allowed {
		g.logger.DebugContext(ctx, "navigation denied", "role", identity.Role, "path", path, "redirect", d.Redirect)
		return GuardOutcome{State: StateDenied, Identity: identity, Redirect: d.Redirect}
	}

	out := GuardOutcome{State: StateAuthorized, Identity: identity}
	if path == access.RootPath {
		out.Redirect = g.policy.DefaultRouteFor(identity.Role)
	}
	return out
}

// errorClass names the cause of an error outcome for metric tags.
func errorClass(out GuardOutcome) string {
	switch {
	case out.Err == nil, out.State == StateSuperseded:
		return ""
	case errors.Is(out.Err, ErrIdentityPending):
		return "identity_pending"
	case access.IsUnknownRole(out.Err):
		return "unknown_role"
	default:
		return "resolve_error"
	}
}

// LoginRedirect builds the login URL that returns to path after signing in.
func LoginRedirect(path string) string {
	if path == "" || path == access.RootPath || path == access.LoginPath {
		return access.LoginPath
	}
	return access.LoginPath + "?" + url.Values{"redirect_uri": {path}}.Encode()
}
