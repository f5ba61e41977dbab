package httpx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameup/gameup-web/internal/domain/access"
)

func TestViewRegistry(t *testing.T) {
	views := NewViewRegistry(access.DefaultTable())

	assert.Len(t, views.Views(), len(access.DefaultTable().KnownPaths()))

	v, ok := views.Lookup("/xp-history")
	require.True(t, ok)
	assert.Equal(t, "XP History", v.Title)

	_, ok = views.Lookup("/nope")
	assert.False(t, ok)

	assert.Equal(t, "User Management", views.Title("/users"))
}

func TestTitleForPath(t *testing.T) {
	assert.Equal(t, "Study Groups", titleForPath("/study-groups"))
	assert.Equal(t, "Calendar", titleForPath("/calendar"))
}
