package access

import (
	"fmt"

	domainauth "github.com/gameup/gameup-web/internal/domain/auth"
)

// ConfigError reports a malformed role route table. It is fatal at startup.
type ConfigError struct {
	Role   domainauth.Role
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Role == "" {
		return "route table: " + e.Reason
	}
	return fmt.Sprintf("route table: role %q: %s", e.Role, e.Reason)
}

// UnknownRoleError reports a role outside the enumerated set reaching the policy.
// It is a programming error; the policy recovers by denying.
type UnknownRoleError struct {
	Role domainauth.Role
}

func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("unknown role %q", string(e.Role))
}
