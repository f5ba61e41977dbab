package access

import (
	"errors"

	domainauth "github.com/gameup/gameup-web/internal/domain/auth"
)

// Policy answers navigation questions over a RouteTable.
// All methods are pure: identical inputs always produce identical outputs.
type Policy struct {
	table *RouteTable
}

// NewPolicy returns a Policy over table. A nil table selects DefaultTable.
func NewPolicy(table *RouteTable) *Policy {
	if table == nil {
		table = DefaultTable()
	}
	return &Policy{table: table}
}

// Table returns the underlying route table.
func (p *Policy) Table() *RouteTable { return p.table }

// RoutesFor returns the ordered routes permitted for role.
func (p *Policy) RoutesFor(role domainauth.Role) ([]string, error) {
	return p.table.RoutesFor(role)
}

// DefaultRouteFor returns the landing route of role. Unknown roles land on
// the login page.
func (p *Policy) DefaultRouteFor(role domainauth.Role) string {
	route, err := p.table.first(role)
	if err != nil {
		return LoginPath
	}
	return route
}

// IsAllowed reports whether role may view path. The root path is allowed for
// every known role; unknown paths and unknown roles are denied.
func (p *Policy) IsAllowed(role domainauth.Role, path string) bool {
	return p.Decide(role, path).Allowed
}

// Decision is the outcome of an access check.
// Redirect is set when access is denied.
type Decision struct {
	Allowed  bool
	Redirect string
	Err      error
}

// Decide evaluates access for role on path. A role outside the enumerated set
// is denied with Err set to an *UnknownRoleError and Redirect set to the login page.
func (p *Policy) Decide(role domainauth.Role, path string) Decision {
	ok, err := p.table.contains(role, path)
	if err != nil {
		return Decision{Redirect: LoginPath, Err: err}
	}
	if ok || path == RootPath {
		return Decision{Allowed: true}
	}
	return Decision{Redirect: p.DefaultRouteFor(role)}
}

// LandingFor picks the post-login destination for role. A requested path the
// role may view is honoured; the root path and anything else land on the
// role's default route.
func (p *Policy) LandingFor(role domainauth.Role, requested string) string {
	if requested != "" && requested != RootPath && p.IsAllowed(role, requested) {
		return requested
	}
	return p.DefaultRouteFor(role)
}

// NavItem is one sidebar entry.
type NavItem struct {
	Path  string `json:"path"`
	Title string `json:"title"`
}

// Navigation returns the sidebar entries for role in table order.
// titleFor supplies the display title of a path; nil uses the path itself.
func (p *Policy) Navigation(role domainauth.Role, titleFor func(path string) string) ([]NavItem, error) {
	routes, err := p.table.RoutesFor(role)
	if err != nil {
		return nil, err
	}
	items := make([]NavItem, 0, len(routes))
	for _, r := range routes {
		title := r
		if titleFor != nil {
			if t := titleFor(r); t != "" {
				title = t
			}
		}
		items = append(items, NavItem{Path: r, Title: title})
	}
	return items, nil
}

// IsUnknownRole reports whether err is an *UnknownRoleError.
func IsUnknownRole(err error) bool {
	var ue *UnknownRoleError
	return errors.As(err, &ue)
}

// IsConfigError reports whether err is a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
