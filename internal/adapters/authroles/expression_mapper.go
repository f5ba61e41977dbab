package authroles

import (
	"errors"
	"fmt"

	"github.com/jmespath-community/go-jmespath"

	domainauth "github.com/gameup/gameup-web/internal/domain/auth"
)

// ExpressionRoleMapper evaluates a JMESPath expression against the raw claim set.
// The expression may yield a role name or a list of candidates; the first
// candidate that names a GameUp role wins.
//
//	role
//	realm_access.roles
//	groups[?starts_with(@, 'gameup-')] | [0]
type ExpressionRoleMapper struct {
	expr     string
	compiled jmespath.JMESPath
}

// NewExpressionRoleMapper compiles expr.
func NewExpressionRoleMapper(expr string) (*ExpressionRoleMapper, error) {
	if expr == "" {
		return nil, errors.New("role expression is empty")
	}
	compiled, err := jmespath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile role expression %q: %w", expr, err)
	}
	return &ExpressionRoleMapper{expr: expr, compiled: compiled}, nil
}

// Expression returns the source expression.
func (m *ExpressionRoleMapper) Expression() string { return m.expr }

func (m *ExpressionRoleMapper) Map(claims domainauth.Claims) (domainauth.Role, bool) {
	if len(claims.Raw) == 0 {
		return "", false
	}
	out, err := m.compiled.Search(claims.Raw)
	if err != nil {
		return "", false
	}
	return roleFromResult(out)
}

func roleFromResult(v any) (domainauth.Role, bool) {
	switch t := v.(type) {
	case string:
		return domainauth.ParseRole(t)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				if r, ok := domainauth.ParseRole(s); ok {
					return r, true
				}
			}
		}
	case []string:
		for _, s := range t {
			if r, ok := domainauth.ParseRole(s); ok {
				return r, true
			}
		}
	}
	return "", false
}
