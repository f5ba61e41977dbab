package devauth

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/gameup/gameup-web/internal/domain/auth"
	"github.com/gameup/gameup-web/internal/ports"
)

func TestProvider_BeginAndExchange(t *testing.T) {
	prov, err := NewProvider(Config{})
	require.NoError(t, err)

	authURL, state, nonce, err := prov.Begin(context.Background(), ports.BeginInput{
		RedirectURL: "/",
		Persona:     domainauth.RoleTeacher,
	})
	require.NoError(t, err)
	require.NotEmpty(t, state)
	require.NotEmpty(t, nonce)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, "/auth/callback", u.Path)
	assert.Equal(t, state, u.Query().Get("state"))

	claims, err := prov.Exchange(context.Background(), ports.ExchangeInput{Code: "demo", State: state, Nonce: nonce})
	require.NoError(t, err)
	assert.Equal(t, "demo-teacher", claims.UserID)
	assert.Equal(t, []string{"gameup-teachers"}, claims.Groups)
	assert.Equal(t, "teacher", claims.Raw["role"])
	assert.WithinDuration(t, time.Now().Add(8*time.Hour), claims.ExpiresAt, 5*time.Second)

	_, err = prov.Exchange(context.Background(), ports.ExchangeInput{State: state})
	assert.ErrorContains(t, err, "replayed")
}

func TestProvider_DefaultPersona(t *testing.T) {
	prov, err := NewProvider(Config{})
	require.NoError(t, err)

	_, state, _, err := prov.Begin(context.Background(), ports.BeginInput{RedirectURL: "/"})
	require.NoError(t, err)

	claims, err := prov.Exchange(context.Background(), ports.ExchangeInput{State: state})
	require.NoError(t, err)
	assert.Equal(t, "demo-student", claims.UserID)
}

func TestProvider_Personas(t *testing.T) {
	prov, err := NewProvider(Config{})
	require.NoError(t, err)
	assert.Equal(t, domainauth.AllRoles(), prov.Personas())
}

func TestNewProvider_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "unknown role", cfg: Config{Personas: map[domainauth.Role]Persona{"guest": {UserID: "g"}}}},
		{name: "missing user id", cfg: Config{Personas: map[domainauth.Role]Persona{domainauth.RoleAdmin: {}}}},
		{
			name: "default persona missing",
			cfg: Config{
				Personas:       map[domainauth.Role]Persona{domainauth.RoleAdmin: {UserID: "a"}},
				DefaultPersona: domainauth.RoleParent,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestProvider_BeginUnknownPersona(t *testing.T) {
	prov, err := NewProvider(Config{Personas: map[domainauth.Role]Persona{domainauth.RoleAdmin: {UserID: "a"}}, DefaultPersona: domainauth.RoleAdmin})
	require.NoError(t, err)

	_, _, _, err = prov.Begin(context.Background(), ports.BeginInput{Persona: domainauth.RoleParent})
	assert.Error(t, err)
}

func TestProvider_AbandonedLoginsAreBounded(t *testing.T) {
	prov, err := NewProvider(Config{MaxPending: 8})
	require.NoError(t, err)
	ctx := context.Background()

	_, first, _, err := prov.Begin(ctx, ports.BeginInput{RedirectURL: "/"})
	require.NoError(t, err)
	for range 1000 {
		_, _, _, err := prov.Begin(ctx, ports.BeginInput{RedirectURL: "/"})
		require.NoError(t, err)
	}
	assert.Equal(t, 8, prov.PendingLogins())

	_, err = prov.Exchange(ctx, ports.ExchangeInput{State: first})
	assert.ErrorContains(t, err, "unknown or replayed state")

	_, latest, _, err := prov.Begin(ctx, ports.BeginInput{RedirectURL: "/"})
	require.NoError(t, err)
	_, err = prov.Exchange(ctx, ports.ExchangeInput{State: latest})
	require.NoError(t, err)
	assert.Equal(t, 7, prov.PendingLogins())
}

func TestProvider_ExchangeRejectsStaleState(t *testing.T) {
	prov, err := NewProvider(Config{PendingTTL: time.Minute})
	require.NoError(t, err)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	prov.now = func() time.Time { return now }

	_, state, _, err := prov.Begin(context.Background(), ports.BeginInput{RedirectURL: "/"})
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = prov.Exchange(context.Background(), ports.ExchangeInput{State: state})
	assert.ErrorContains(t, err, "expired")
	assert.Zero(t, prov.PendingLogins())
}
