package registry

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/hoststats/internal/errors"
)

// Role identifies one of the daemons hoststats supervises.
type Role int

const (
	RoleCollector Role = iota + 1
	RoleDashboard
)

// Roles returns every role in display order.
func Roles() []Role {
	return []Role{RoleCollector, RoleDashboard}
}

// String returns the role name used on the command line and for pid files.
func (r Role) String() string {
	switch r {
	case RoleCollector:
		return "collector"
	case RoleDashboard:
		return "dashboard"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleCollector || r == RoleDashboard
}

// ParseRole converts a role name into a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "collector":
		return RoleCollector, nil
	case "dashboard":
		return RoleDashboard, nil
	}
	return 0, errors.New(errors.ErrConfig,
		fmt.Sprintf("Unknown daemon role %q", s),
		"Valid roles are: collector, dashboard")
}

func (r Role) pidFileName() string {
	return r.String() + ".pid"
}
