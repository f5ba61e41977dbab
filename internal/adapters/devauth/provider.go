// Package devauth provides the demo AuthProvider that signs a viewer in as a chosen persona.
package devauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	domainauth "github.com/gameup/gameup-web/internal/domain/auth"
	"github.com/gameup/gameup-web/internal/ports"
)

// DefaultMaxPending bounds how many unfinished logins are remembered.
const DefaultMaxPending = 1024

// DefaultPendingTTL is how long a started login may wait for its callback.
const DefaultPendingTTL = 10 * time.Minute

// Persona is the demo user signed in for a role.
type Persona struct {
	UserID string
	Name   string
	Email  string
	// Group is emitted in the groups claim so the regular role mapper resolves the role.
	Group string
}

// Config controls the demo provider.
type Config struct {
	Personas        map[domainauth.Role]Persona
	DefaultPersona  domainauth.Role // used when Begin carries no persona; defaults to student
	SessionDuration time.Duration   // default 8h when zero
	CallbackPath    string          // default /auth/callback
	MaxPending      int             // default DefaultMaxPending; oldest logins are evicted first
	PendingTTL      time.Duration   // default DefaultPendingTTL
}

// DefaultPersonas returns one demo persona per role.
func DefaultPersonas() map[domainauth.Role]Persona {
	return map[domainauth.Role]Persona{
		domainauth.RoleAdmin:   {UserID: "demo-admin", Name: "Ada Admin", Email: "admin@gameup.local", Group: "gameup-admins"},
		domainauth.RoleTeacher: {UserID: "demo-teacher", Name: "Tara Teacher", Email: "teacher@gameup.local", Group: "gameup-teachers"},
		domainauth.RoleStudent: {UserID: "demo-student", Name: "Sam Student", Email: "student@gameup.local", Group: "gameup-students"},
		domainauth.RoleParent:  {UserID: "demo-parent", Name: "Pat Parent", Email: "parent@gameup.local", Group: "gameup-parents"},
	}
}

// Provider implements ports.AuthProvider for demo mode.
// Begin redirects straight back to our own callback; Exchange returns the persona chosen at Begin.
type Provider struct {
	personas        map[domainauth.Role]Persona
	defaultPersona  domainauth.Role
	sessionDuration time.Duration
	callbackPath    string
	now             func() time.Time

	mu         sync.Mutex
	pending    *lru.Cache[string, pendingLogin] // keyed by state
	pendingTTL time.Duration
}

type pendingLogin struct {
	role    domainauth.Role
	started time.Time
}

// NewProvider constructs a demo provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	personas := cfg.Personas
	if len(personas) == 0 {
		personas = DefaultPersonas()
	}
	for role, p := range personas {
		if !role.Valid() {
			return nil, fmt.Errorf("dev auth: unknown persona role %q", role)
		}
		if p.UserID == "" {
			return nil, fmt.Errorf("dev auth: persona %s: UserID is required", role)
		}
	}

	def := cfg.DefaultPersona
	if def == "" {
		def = domainauth.RoleStudent
	}
	if _, ok := personas[def]; !ok {
		return nil, fmt.Errorf("dev auth: default persona %q is not configured", def)
	}

	dur := cfg.SessionDuration
	if dur == 0 {
		dur = 8 * time.Hour
	}
	cb := cfg.CallbackPath
	if cb == "" {
		cb = "/auth/callback"
	}

	maxPending := cfg.MaxPending
	if maxPending <= 0 {
		maxPending = DefaultMaxPending
	}
	pending, err := lru.New[string, pendingLogin](maxPending)
	if err != nil {
		return nil, fmt.Errorf("dev auth: pending logins: %w", err)
	}
	ttl := cfg.PendingTTL
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}

	return &Provider{
		personas:        personas,
		defaultPersona:  def,
		sessionDuration: dur,
		callbackPath:    cb,
		now:             time.Now,
		pending:         pending,
		pendingTTL:      ttl,
	}, nil
}

// PendingLogins returns the number of started logins awaiting their callback.
func (p *Provider) PendingLogins() int {
	return p.pending.Len()
}

// Personas lists the configured roles in declaration order.
func (p *Provider) Personas() []domainauth.Role {
	out := make([]domainauth.Role, 0, len(p.personas))
	for _, r := range domainauth.AllRoles() {
		if _, ok := p.personas[r]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Begin returns a local callback URL with freshly generated state and nonce.
func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	persona := in.Persona
	if persona == "" {
		persona = p.defaultPersona
	}
	if _, ok := p.personas[persona]; !ok {
		return "", "", "", fmt.Errorf("dev auth: no persona for role %q", persona)
	}

	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	p.mu.Lock()
	p.pending.Add(state, pendingLogin{role: persona, started: p.now()})
	p.mu.Unlock()

	q := url.Values{"code": {"demo"}, "state": {state}}
	return p.callbackPath + "?" + q.Encode(), state, nonce, nil
}

// Exchange resolves the persona recorded for the state. Each state is single-use.
func (p *Provider) Exchange(_ context.Context, in ports.ExchangeInput) (domainauth.Claims, error) {
	if in.State == "" {
		return domainauth.Claims{}, errors.New("state is required")
	}

	p.mu.Lock()
	login, ok := p.pending.Peek(in.State)
	p.pending.Remove(in.State)
	p.mu.Unlock()
	if !ok {
		return domainauth.Claims{}, errors.New("dev auth: unknown or replayed state")
	}
	if p.now().Sub(login.started) > p.pendingTTL {
		return domainauth.Claims{}, errors.New("dev auth: login state expired")
	}
	role := login.role

	persona := p.personas[role]
	var groups []string
	if persona.Group != "" {
		groups = []string{persona.Group}
	}
	return domainauth.Claims{
		UserID: persona.UserID,
		Name:   persona.Name,
		Email:  persona.Email,
		Groups: groups,
		Raw: map[string]any{
			"sub":    persona.UserID,
			"name":   persona.Name,
			"email":  persona.Email,
			"groups": groups,
			"role":   string(role),
		},
		ExpiresAt: p.now().Add(p.sessionDuration),
	}, nil
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n], nil
}
