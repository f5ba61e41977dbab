package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/gameup/gameup-web/config"
	"github.com/gameup/gameup-web/internal/adapters/authroles"
	"github.com/gameup/gameup-web/internal/adapters/devauth"
	"github.com/gameup/gameup-web/internal/adapters/oidc"
	redisadapter "github.com/gameup/gameup-web/internal/adapters/redis"
	"github.com/gameup/gameup-web/internal/domain/access"
	domainauth "github.com/gameup/gameup-web/internal/domain/auth"
	"github.com/gameup/gameup-web/internal/observability/statsd"
	"github.com/gameup/gameup-web/internal/ports"
	"github.com/gameup/gameup-web/internal/service"
)

// AuthConfig contains configuration for the auth components.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	// SessionPrefix namespaces session keys; empty uses the adapter default.
	SessionPrefix string
	// Routes overrides the canonical role route table (tests).
	Routes map[domainauth.Role][]string
	// Metrics receives route guard outcomes (optional).
	Metrics statsd.Sink
	// StrictRoles fails navigations whose role is missing from the table (DEV).
	StrictRoles bool
	Logger      *slog.Logger
}

// AuthComponents is everything the HTTP layer needs to authenticate and gate navigations.
type AuthComponents struct {
	Service  *service.AuthService
	Guard    *service.RouteGuard
	Sessions *redisadapter.SessionStore
	// Personas is non-empty only in demo mode.
	Personas []domainauth.Role
}

// BuildPolicy validates the route table and returns the access policy.
// A malformed table is returned as an *access.ConfigError and must stop startup.
func BuildPolicy(routes map[domainauth.Role][]string) (*access.Policy, error) {
	if routes == nil {
		routes = access.CanonicalRoutes
	}
	table, err := access.NewRouteTable(routes)
	if err != nil {
		return nil, err
	}
	return access.NewPolicy(table), nil
}

// BuildRoleMapper chains the optional claim expression ahead of group matching.
//
//nolint:ireturn // callers only need the port.
func BuildRoleMapper(cfg config.AuthConfig) (ports.RoleMapper, error) {
	static := authroles.StaticRoleMapper{
		AdminGroup:   cfg.AdminGroup,
		TeacherGroup: cfg.TeacherGroup,
		StudentGroup: cfg.StudentGroup,
		ParentGroup:  cfg.ParentGroup,
	}
	if cfg.RoleExpression == "" {
		return static, nil
	}
	expr, err := authroles.NewExpressionRoleMapper(cfg.RoleExpression)
	if err != nil {
		return nil, fmt.Errorf("ROLE_EXPRESSION: %w", err)
	}
	return authroles.Chain{expr, static}, nil
}

// BuildAuth creates the session store, identity provider, auth service and route guard
// for the configured auth mode.
func BuildAuth(ctx context.Context, cfg AuthConfig) (*AuthComponents, error) {
	if cfg.RedisClient == nil {
		return nil, errors.New("auth: redis client is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	policy, err := BuildPolicy(cfg.Routes)
	if err != nil {
		return nil, err
	}
	roles, err := BuildRoleMapper(cfg.Auth)
	if err != nil {
		return nil, err
	}

	prefix := cfg.SessionPrefix
	if prefix == "" {
		prefix = redisadapter.DefaultKeyPrefix
	}
	sessions := redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, prefix)

	var (
		provider ports.AuthProvider
		personas []domainauth.Role
	)
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		demo, demoErr := buildDevAuthProvider(cfg.Auth)
		if demoErr != nil {
			return nil, demoErr
		}
		provider, personas = demo, demo.Personas()
		logger.WarnContext(ctx, "demo persona login enabled", "personas", personas)
	case config.AuthModeOAuth:
		provider, err = buildOAuthProvider(ctx, cfg.Auth)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("auth: unsupported mode %q", cfg.Auth.Mode)
	}

	svc := service.NewAuthService(service.AuthServiceOptions{
		Provider:       provider,
		Sessions:       sessions,
		Roles:          roles,
		Policy:         policy,
		ResolveTimeout: cfg.Auth.ResolveTimeout,
		Logger:         logger,
	})
	guard := service.NewRouteGuard(service.RouteGuardOptions{
		Policy:      policy,
		Resolver:    svc,
		Metrics:     cfg.Metrics,
		Logger:      logger,
		StrictRoles: cfg.StrictRoles,
	})

	return &AuthComponents{Service: svc, Guard: guard, Sessions: sessions, Personas: personas}, nil
}

func buildDevAuthProvider(cfg config.AuthConfig) (*devauth.Provider, error) {
	var def domainauth.Role
	if cfg.DevAuth.DefaultPersona != "" {
		role, ok := domainauth.ParseRole(cfg.DevAuth.DefaultPersona)
		if !ok {
			return nil, fmt.Errorf("DEV_AUTH_DEFAULT_PERSONA: unknown role %q", cfg.DevAuth.DefaultPersona)
		}
		def = role
	}

	personas := devauth.DefaultPersonas()
	// Demo personas carry the configured group names so the regular mapper resolves them.
	groups := map[domainauth.Role]string{
		domainauth.RoleAdmin:   cfg.AdminGroup,
		domainauth.RoleTeacher: cfg.TeacherGroup,
		domainauth.RoleStudent: cfg.StudentGroup,
		domainauth.RoleParent:  cfg.ParentGroup,
	}
	for role, group := range groups {
		if p, ok := personas[role]; ok && group != "" {
			p.Group = group
			personas[role] = p
		}
	}

	prov, err := devauth.NewProvider(devauth.Config{
		Personas:        personas,
		DefaultPersona:  def,
		SessionDuration: cfg.DevAuth.SessionDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("create dev auth provider: %w", err)
	}
	return prov, nil
}

func buildOAuthProvider(ctx context.Context, cfg config.AuthConfig) (*oidc.Provider, error) {
	oauth := cfg.OAuth
	if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
		return nil, errors.New("auth: oauth mode requires discovery URL, client ID and client secret")
	}

	prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		IssuerURL:    oauth.DiscoveryURL,
		GroupsClaim:  oauth.GroupsClaim,
		Prompt:       oauth.Prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("create OIDC provider: %w", err)
	}
	return prov, nil
}
