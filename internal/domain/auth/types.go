package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// Role is the GameUp persona that drives which views a session may reach.
// Keep string form for easy persistence and cookies.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
)

// AllRoles returns every role in declaration order.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleTeacher, RoleStudent, RoleParent}
}

// ParseRole maps a role name to a Role. Matching is case-insensitive so the
// upper-case tags used by the dashboard ("STUDENT") resolve as well.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r.Valid() {
		return r, true
	}
	return "", false
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent, RoleParent:
		return true
	default:
		return false
	}
}

// Title is the human-readable persona name.
func (r Role) Title() string {
	if r == "" {
		return ""
	}
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}

func (r Role) String() string { return string(r) }

// Claims is the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Claims struct {
	UserID    string // stable user identifier (e.g., sub)
	Name      string
	Email     string
	Groups    []string
	Raw       map[string]any // full decoded claim set, used by expression role mapping
	ExpiresAt time.Time      // absolute expiry from IdP token
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Identity is the read-only snapshot of the viewer that navigation gating consumes.
// The zero value is an unauthenticated viewer.
type Identity struct {
	Role          Role
	Authenticated bool
	UserID        string
	DisplayName   string
}

// Anonymous returns the unauthenticated identity.
func Anonymous() Identity { return Identity{} }

// IdentityFromSession builds the viewer snapshot for a persisted session.
func IdentityFromSession(s Session) Identity {
	name := s.Name
	if name == "" {
		name = s.Email
	}
	return Identity{
		Role:          s.Role,
		Authenticated: true,
		UserID:        s.UserID,
		DisplayName:   name,
	}
}
