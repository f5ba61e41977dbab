package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/gameup/gameup-web/internal/domain/auth"
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
	// Persona is an optional role hint. Only the demo provider honours it.
	Persona domainauth.Role
}

// AuthProvider initiates and completes an authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated claims.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Claims, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// ErrSessionNotFound is returned by SessionStore.Get when no live session exists for the id.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// RoleMapper maps provider claims to an application role.
// ok is false when the claims carry no GameUp role.
type RoleMapper interface {
	Map(claims domainauth.Claims) (role domainauth.Role, ok bool)
}

// IdentityResolver resolves the viewer behind a session identifier.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, sessionID string) (domainauth.Identity, error)
}
