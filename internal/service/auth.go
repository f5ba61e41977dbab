package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gameup/gameup-web/internal/domain/access"
	domainauth "github.com/gameup/gameup-web/internal/domain/auth"
	"github.com/gameup/gameup-web/internal/ports"
)

// DefaultResolveTimeout bounds identity resolution when no timeout is configured.
const DefaultResolveTimeout = 2 * time.Second

var (
	// ErrIdentityPending reports that the viewer's identity could not be resolved in time.
	// Callers render a neutral placeholder and retry rather than redirecting.
	ErrIdentityPending = errors.New("identity resolution pending")

	// ErrNoRole reports that the authenticated account carries no GameUp role.
	ErrNoRole = errors.New("account has no GameUp role")

	errSessionExpired = errors.New("session expired")
)

var _ ports.IdentityResolver = (*AuthService)(nil)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.AuthProvider
	Sessions ports.SessionStore
	Roles    ports.RoleMapper
	// Policy picks the post-login landing page. Nil uses the canonical table.
	Policy         *access.Policy
	ResolveTimeout time.Duration
	Logger         *slog.Logger
}

// AuthService orchestrates authentication flows by coordinating provider, role mapping, and session persistence.
type AuthService struct {
	provider       ports.AuthProvider
	sessions       ports.SessionStore
	roles          ports.RoleMapper
	policy         *access.Policy
	resolveTimeout time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	if opts.Policy == nil {
		opts.Policy = access.NewPolicy(nil)
	}
	if opts.ResolveTimeout <= 0 {
		opts.ResolveTimeout = DefaultResolveTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &AuthService{
		provider:       opts.Provider,
		sessions:       opts.Sessions,
		roles:          opts.Roles,
		policy:         opts.Policy,
		resolveTimeout: opts.ResolveTimeout,
		logger:         opts.Logger.With("component", "auth_service"),
		now:            time.Now,
	}
}

// Policy returns the access policy used for landing decisions.
func (s *AuthService) Policy() *access.Policy { return s.policy }

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an authentication flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	return s.BeginPersonaLogin(ctx, redirectURL, "")
}

// BeginPersonaLogin starts a login flow with a persona hint. Only the demo provider honours the hint.
func (s *AuthService) BeginPersonaLogin(
	ctx context.Context,
	redirectURL string,
	persona domainauth.Role,
) (*BeginLoginResult, error) {
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if persona != "" && !persona.Valid() {
		return nil, &access.UnknownRoleError{Role: persona}
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL, Persona: persona})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}

	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
	// RequestedPath is where the viewer was headed before signing in.
	RequestedPath string
}

// CompleteLoginResult contains the result of completing a login flow.
type CompleteLoginResult struct {
	Session domainauth.Session
	// Landing is the page the viewer should see first.
	Landing string
}

// CompleteLogin exchanges the code for claims, maps the role, persists a session,
// and picks the landing page.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*CompleteLoginResult, error) {
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	claims, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	role, ok := s.roles.Map(claims)
	if !ok {
		s.logger.WarnContext(ctx, "login rejected: no role mapping", "user_id", claims.UserID, "groups", claims.Groups)
		return nil, ErrNoRole
	}

	session := domainauth.Session{
		ID:        generateSessionID(),
		UserID:    claims.UserID,
		Name:      claims.Name,
		Email:     claims.Email,
		Role:      role,
		ExpiresAt: claims.ExpiresAt,
	}
	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	s.logger.InfoContext(ctx, "login completed", "user_id", session.UserID, "role", session.Role)
	return &CompleteLoginResult{
		Session: session,
		Landing: s.policy.LandingFor(role, input.RequestedPath),
	}, nil
}

// GetSession retrieves a live session by ID.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if !s.now().Before(session.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(errSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, errSessionExpired
	}

	return &session, nil
}

// ResolveIdentity returns the viewer behind sessionID.
//
// A missing, unknown or expired session yields the anonymous identity. When the
// store does not answer within the resolve timeout, or is unreachable, the error
// wraps ErrIdentityPending. Cancellation of ctx itself is returned unchanged.
func (s *AuthService) ResolveIdentity(ctx context.Context, sessionID string) (domainauth.Identity, error) {
	if sessionID == "" {
		return domainauth.Anonymous(), nil
	}

	rctx, cancel := context.WithTimeout(ctx, s.resolveTimeout)
	defer cancel()

	session, err := s.GetSession(rctx, sessionID)
	switch {
	case err == nil:
		return domainauth.IdentityFromSession(*session), nil
	case ctx.Err() != nil:
		return domainauth.Identity{}, ctx.Err()
	case errors.Is(err, ports.ErrSessionNotFound), errors.Is(err, errSessionExpired):
		return domainauth.Anonymous(), nil
	default:
		s.logger.WarnContext(ctx, "identity resolution pending", "error", err)
		return domainauth.Identity{}, fmt.Errorf("%w: %w", ErrIdentityPending, err)
	}
}

// Logout removes a session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// generateSessionID creates a random, URL-safe session ID.
func generateSessionID() string {
	return uuid.New().String()
}
