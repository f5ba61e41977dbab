package auth

import (
	"context"
	"testing"
	"time"

	domainauth "github.com/gameup/gameup-web/internal/domain/auth"
	"github.com/gameup/gameup-web/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockAuthProvider_Begin_Defaults(t *testing.T) {
	provider := NewMockAuthProvider()
	ctx := context.Background()

	input := ports.BeginInput{RedirectURL: "http://localhost:8080/callback"}
	authURL, state, nonce, err := provider.Begin(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", authURL)
	assert.Equal(t, "state-1", state)
	assert.Equal(t, "nonce-1", nonce)

	_, state2, nonce2, err := provider.Begin(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "state-2", state2)
	assert.Equal(t, "nonce-2", nonce2)
}

func TestMockAuthProvider_Exchange_RefreshesExpiry(t *testing.T) {
	provider := NewMockAuthProvider()

	claims, err := provider.Exchange(context.Background(), ports.ExchangeInput{Code: "c"})

	require.NoError(t, err)
	assert.Equal(t, "mock-student-1", claims.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestMemorySessionStore_RoundTrip(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.Error(t, store.Save(ctx, domainauth.Session{}))
	require.NoError(t, store.Save(ctx, domainauth.Session{ID: "s1", Role: domainauth.RoleParent}))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleParent, got.Role)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.Equal(t, ErrNotFound, err)
}

func TestStaticRoleMapper(t *testing.T) {
	m := StaticRoleMapper{Groups: map[string]domainauth.Role{"teachers": domainauth.RoleTeacher}}

	role, ok := m.Map(domainauth.Claims{Groups: []string{"other", "teachers"}})
	assert.True(t, ok)
	assert.Equal(t, domainauth.RoleTeacher, role)

	_, ok = m.Map(domainauth.Claims{Groups: []string{"other"}})
	assert.False(t, ok)
}
