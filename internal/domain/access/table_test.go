package access

import (
	"testing"

	domainauth "github.com/gameup/gameup-web/internal/domain/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSpec() map[domainauth.Role][]string {
	return map[domainauth.Role][]string{
		domainauth.RoleAdmin:   {"/users", "/settings"},
		domainauth.RoleTeacher: {"/dashboard", "/tasks"},
		domainauth.RoleStudent: {"/tasks"},
		domainauth.RoleParent:  {"/parent-portal", "/tasks"},
	}
}

func TestDefaultTable_EveryRoleHasRoutes(t *testing.T) {
	table := DefaultTable()
	for _, role := range domainauth.AllRoles() {
		routes, err := table.RoutesFor(role)
		require.NoError(t, err)
		assert.NotEmpty(t, routes, "role %s", role)
	}
}

func TestNewRouteTable_Valid(t *testing.T) {
	table, err := NewRouteTable(validSpec())
	require.NoError(t, err)

	routes, err := table.RoutesFor(domainauth.RoleParent)
	require.NoError(t, err)
	assert.Equal(t, []string{"/parent-portal", "/tasks"}, routes)
}

func TestNewRouteTable_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[domainauth.Role][]string)
		role   domainauth.Role
	}{
		{
			name:   "missing role",
			mutate: func(m map[domainauth.Role][]string) { delete(m, domainauth.RoleParent) },
			role:   domainauth.RoleParent,
		},
		{
			name:   "empty list",
			mutate: func(m map[domainauth.Role][]string) { m[domainauth.RoleStudent] = nil },
			role:   domainauth.RoleStudent,
		},
		{
			name:   "duplicate within role",
			mutate: func(m map[domainauth.Role][]string) { m[domainauth.RoleAdmin] = []string{"/users", "/users"} },
			role:   domainauth.RoleAdmin,
		},
		{
			name:   "root listed",
			mutate: func(m map[domainauth.Role][]string) { m[domainauth.RoleTeacher] = []string{"/"} },
			role:   domainauth.RoleTeacher,
		},
		{
			name:   "relative path",
			mutate: func(m map[domainauth.Role][]string) { m[domainauth.RoleTeacher] = []string{"tasks"} },
			role:   domainauth.RoleTeacher,
		},
		{
			name:   "query string",
			mutate: func(m map[domainauth.Role][]string) { m[domainauth.RoleTeacher] = []string{"/tasks?x=1"} },
			role:   domainauth.RoleTeacher,
		},
		{
			name:   "unknown role key",
			mutate: func(m map[domainauth.Role][]string) { m["janitor"] = []string{"/mops"} },
			role:   "janitor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			tt.mutate(spec)

			table, err := NewRouteTable(spec)

			require.Error(t, err)
			assert.Nil(t, table)
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.role, ce.Role)
			assert.True(t, IsConfigError(err))
		})
	}
}

func TestMustRouteTable_PanicsOnMalformed(t *testing.T) {
	spec := validSpec()
	delete(spec, domainauth.RoleAdmin)

	assert.Panics(t, func() { MustRouteTable(spec) })
}

func TestRouteTable_IsFrozen(t *testing.T) {
	spec := validSpec()
	table := MustRouteTable(spec)

	spec[domainauth.RoleStudent][0] = "/hacked"
	routes, err := table.RoutesFor(domainauth.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, []string{"/tasks"}, routes, "table must not alias the input spec")

	routes[0] = "/mutated"
	again, err := table.RoutesFor(domainauth.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, []string{"/tasks"}, again, "callers get copies")
}

func TestRouteTable_RoutesForUnknownRole(t *testing.T) {
	_, err := DefaultTable().RoutesFor("janitor")

	require.Error(t, err)
	assert.True(t, IsUnknownRole(err))
}

func TestRouteTable_KnownPaths(t *testing.T) {
	table := MustRouteTable(validSpec())

	assert.Equal(t, []string{"/users", "/settings", "/dashboard", "/tasks", "/parent-portal"}, table.KnownPaths())
}
