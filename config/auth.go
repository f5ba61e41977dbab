package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth uses OAuth/OIDC for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses the demo persona login (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"gameup"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	// DiscoveryURL is the issuer or its /.well-known/openid-configuration URL.
	DiscoveryURL string `env:"DISCOVERY_URL"`
	GroupsClaim  string `env:"GROUPS_CLAIM"  envDefault:"groups"`
	Prompt       string `env:"PROMPT"`
}

// DevAuthConfig controls the demo persona login.
// Used when AUTH_MODE=mock for development and demos.
type DevAuthConfig struct {
	DefaultPersona  string        `env:"DEFAULT_PERSONA"  envDefault:"student"`
	SessionDuration time.Duration `env:"SESSION_DURATION" envDefault:"8h"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// Group names carried in the IdP groups claim, one per role.
	AdminGroup   string `env:"ADMIN_GROUP"   envDefault:"gameup-admins"`
	TeacherGroup string `env:"TEACHER_GROUP" envDefault:"gameup-teachers"`
	StudentGroup string `env:"STUDENT_GROUP" envDefault:"gameup-students"`
	ParentGroup  string `env:"PARENT_GROUP"  envDefault:"gameup-parents"`

	// RoleExpression is an optional JMESPath expression evaluated against the
	// raw claims. When it yields a role it takes precedence over group matching.
	RoleExpression string `env:"ROLE_EXPRESSION"`

	// ResolveTimeout bounds session lookups; slower lookups render the loading placeholder.
	ResolveTimeout time.Duration `env:"AUTH_RESOLVE_TIMEOUT" envDefault:"2s"`
}

const (
	minResolveTimeout = 50 * time.Millisecond
	maxResolveTimeout = 30 * time.Second
)

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	a.OAuth.DiscoveryURL = strings.TrimSpace(a.OAuth.DiscoveryURL)
	a.OAuth.GroupsClaim = strings.TrimSpace(a.OAuth.GroupsClaim)
	a.RoleExpression = strings.TrimSpace(a.RoleExpression)
	a.DevAuth.DefaultPersona = strings.ToLower(strings.TrimSpace(a.DevAuth.DefaultPersona))

	if a.ResolveTimeout < minResolveTimeout {
		a.ResolveTimeout = minResolveTimeout
	}
	if a.ResolveTimeout > maxResolveTimeout {
		a.ResolveTimeout = maxResolveTimeout
	}
	if a.DevAuth.SessionDuration <= 0 {
		a.DevAuth.SessionDuration = 8 * time.Hour
	}
}

// Validate checks that the selected mode is fully configured.
func (a *AuthConfig) Validate() error {
	if a.Mode == AuthModeOAuth {
		var missing []string
		if a.OAuth.DiscoveryURL == "" {
			missing = append(missing, "OAUTH_DISCOVERY_URL")
		}
		if a.OAuth.ClientID == "" {
			missing = append(missing, "OAUTH_CLIENT_ID")
		}
		if a.OAuth.ClientSecret == "" {
			missing = append(missing, "OAUTH_CLIENT_SECRET")
		}
		if len(missing) > 0 {
			return fmt.Errorf("oauth mode requires %s", strings.Join(missing, ", "))
		}
	}
	if a.AdminGroup == "" && a.TeacherGroup == "" && a.StudentGroup == "" && a.ParentGroup == "" &&
		a.RoleExpression == "" {
		return errors.New("at least one role group or ROLE_EXPRESSION is required")
	}
	return nil
}
