// Package authroles maps identity-provider claims onto GameUp roles.
package authroles

import (
	domainauth "github.com/gameup/gameup-web/internal/domain/auth"
	"github.com/gameup/gameup-web/internal/ports"
)

var (
	_ ports.RoleMapper = StaticRoleMapper{}
	_ ports.RoleMapper = (*ExpressionRoleMapper)(nil)
	_ ports.RoleMapper = Chain{}
)

// StaticRoleMapper maps groups by simple string membership rules.
// When a user belongs to several groups the most privileged role wins,
// in the order admin, teacher, parent, student.
type StaticRoleMapper struct {
	AdminGroup   string
	TeacherGroup string
	StudentGroup string
	ParentGroup  string
}

func (m StaticRoleMapper) Map(claims domainauth.Claims) (domainauth.Role, bool) {
	rules := []struct {
		group string
		role  domainauth.Role
	}{
		{m.AdminGroup, domainauth.RoleAdmin},
		{m.TeacherGroup, domainauth.RoleTeacher},
		{m.ParentGroup, domainauth.RoleParent},
		{m.StudentGroup, domainauth.RoleStudent},
	}
	for _, rule := range rules {
		if rule.group == "" {
			continue
		}
		for _, g := range claims.Groups {
			if g == rule.group {
				return rule.role, true
			}
		}
	}
	return "", false
}

// Chain tries each mapper in turn and returns the first role found.
type Chain []ports.RoleMapper

func (c Chain) Map(claims domainauth.Claims) (domainauth.Role, bool) {
	for _, m := range c {
		if m == nil {
			continue
		}
		if r, ok := m.Map(claims); ok {
			return r, true
		}
	}
	return "", false
}
