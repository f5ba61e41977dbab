package access

import (
	"strings"
	"sync"

	domainauth "github.com/gameup/gameup-web/internal/domain/auth"
)

// RootPath is universally allowed as a transient redirect target.
const RootPath = "/"

// LoginPath is the generic safe page used when no role default applies.
const LoginPath = "/login"

// RouteTable maps each role to its ordered list of permitted paths.
// The first path of each list is the role's landing route.
// A RouteTable is immutable once constructed.
type RouteTable struct {
	routes  map[domainauth.Role][]string
	members map[domainauth.Role]map[string]struct{}
}

// NewRouteTable validates entries and returns a frozen table.
// Every enumerated role must be present with a non-empty list of unique,
// absolute, non-root paths.
func NewRouteTable(entries map[domainauth.Role][]string) (*RouteTable, error) {
	t := &RouteTable{
		routes:  make(map[domainauth.Role][]string, len(entries)),
		members: make(map[domainauth.Role]map[string]struct{}, len(entries)),
	}

	for role := range entries {
		if !role.Valid() {
			return nil, &ConfigError{Role: role, Reason: "not an enumerated role"}
		}
	}

	for _, role := range domainauth.AllRoles() {
		paths, ok := entries[role]
		if !ok {
			return nil, &ConfigError{Role: role, Reason: "missing from table"}
		}
		if len(paths) == 0 {
			return nil, &ConfigError{Role: role, Reason: "empty route list"}
		}

		set := make(map[string]struct{}, len(paths))
		for _, p := range paths {
			if err := validatePath(role, p); err != nil {
				return nil, err
			}
			if _, dup := set[p]; dup {
				return nil, &ConfigError{Role: role, Reason: "duplicate route " + p}
			}
			set[p] = struct{}{}
		}

		t.routes[role] = append([]string(nil), paths...)
		t.members[role] = set
	}

	return t, nil
}

func validatePath(role domainauth.Role, p string) error {
	switch {
	case p == RootPath:
		return &ConfigError{Role: role, Reason: "root path cannot be a listed route"}
	case !strings.HasPrefix(p, "/"):
		return &ConfigError{Role: role, Reason: "route " + p + " must start with /"}
	case strings.ContainsAny(p, "?# "):
		return &ConfigError{Role: role, Reason: "route " + p + " must be a bare path"}
	}
	return nil
}

// MustRouteTable is NewRouteTable that panics on a malformed table.
// Use it for tables defined in code, where a failure is a startup assertion.
func MustRouteTable(entries map[domainauth.Role][]string) *RouteTable {
	t, err := NewRouteTable(entries)
	if err != nil {
		panic(err)
	}
	return t
}

// RoutesFor returns a copy of the ordered routes for role.
func (t *RouteTable) RoutesFor(role domainauth.Role) ([]string, error) {
	routes, ok := t.routes[role]
	if !ok {
		return nil, &UnknownRoleError{Role: role}
	}
	return append([]string(nil), routes...), nil
}

// Roles returns the roles of the table in declaration order.
func (t *RouteTable) Roles() []domainauth.Role {
	return domainauth.AllRoles()
}

func (t *RouteTable) contains(role domainauth.Role, path string) (bool, error) {
	set, ok := t.members[role]
	if !ok {
		return false, &UnknownRoleError{Role: role}
	}
	_, hit := set[path]
	return hit, nil
}

func (t *RouteTable) first(role domainauth.Role) (string, error) {
	routes, ok := t.routes[role]
	if !ok {
		return "", &UnknownRoleError{Role: role}
	}
	return routes[0], nil
}

// CanonicalRoutes is the GameUp role route table.
//
//nolint:gochecknoglobals // static read-only table; validated once by DefaultTable
var CanonicalRoutes = map[domainauth.Role][]string{
	domainauth.RoleAdmin: {
		"/users",
		"/classes",
		"/analytics",
		"/calendar",
		"/announcements",
		"/messages",
		"/notifications",
		"/settings",
	},
	domainauth.RoleTeacher: {
		"/dashboard",
		"/tasks",
		"/gradebook",
		"/attendance",
		"/leaderboard",
		"/quizzes",
		"/videos",
		"/notes",
		"/flashcards",
		"/resources",
		"/calendar",
		"/announcements",
		"/messages",
		"/notifications",
		"/settings",
	},
	domainauth.RoleStudent: {
		"/tasks",
		"/leaderboard",
		"/rewards",
		"/performance",
		"/badges",
		"/streaks",
		"/challenges",
		"/xp-history",
		"/teams",
		"/study-groups",
		"/quizzes",
		"/videos",
		"/notes",
		"/learning-analytics",
		"/tournaments",
		"/peer-review",
		"/flashcards",
		"/calendar",
		"/announcements",
		"/resources",
		"/reports",
		"/messages",
		"/notifications",
		"/profile",
		"/settings",
	},
	domainauth.RoleParent: {
		"/parent-portal",
		"/tasks",
		"/performance",
		"/rewards",
		"/calendar",
		"/announcements",
		"/reports",
		"/messages",
		"/notifications",
		"/settings",
	},
}

//nolint:gochecknoglobals // lazily validated singleton of CanonicalRoutes
var defaultTable = sync.OnceValue(func() *RouteTable {
	return MustRouteTable(CanonicalRoutes)
})

// DefaultTable returns the validated canonical table.
func DefaultTable() *RouteTable { return defaultTable() }

// KnownPaths returns every path listed for any role, sorted by first appearance.
func (t *RouteTable) KnownPaths() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, role := range t.Roles() {
		for _, p := range t.routes[role] {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
