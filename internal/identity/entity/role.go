package entity

import (
	"strconv"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

// Role is the authorization level of an admin.
type Role int

const (
	RoleSuperAdmin       Role = 1
	RoleSupportExecutive Role = 2
	RoleAccounts         Role = 3
)

// Roles lists every valid role in ascending order.
var Roles = []Role{RoleSuperAdmin, RoleSupportExecutive, RoleAccounts}

// ErrInvalidRole is returned for any integer outside Roles.
var ErrInvalidRole = goerror.NewBusiness("Invalid role assigned.", goerror.CodeInvalidRole)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	return r == RoleSuperAdmin || r == RoleSupportExecutive || r == RoleAccounts
}

// Validate returns ErrInvalidRole for unknown roles.
func (r Role) Validate() error {
	if !r.Valid() {
		return ErrInvalidRole
	}
	return nil
}

func (r Role) String() string {
	switch r {
	case RoleSuperAdmin:
		return "SuperAdmin"
	case RoleSupportExecutive:
		return "SupportExecutive"
	case RoleAccounts:
		return "Accounts"
	default:
		return "Unknown(" + strconv.Itoa(int(r)) + ")"
	}
}

// Subject is the authorization subject of the role.
func (r Role) Subject() string {
	return "role:" + strconv.Itoa(int(r))
}

// DashboardScope is what an admin of a given role may list.
type DashboardScope struct {
	AdminRoles   []Role
	IncludeUsers bool
}

// ScopeFor maps a role to its dashboard scope.
func ScopeFor(r Role) (DashboardScope, error) {
	switch r {
	case RoleSuperAdmin:
		return DashboardScope{AdminRoles: []Role{RoleSuperAdmin, RoleSupportExecutive, RoleAccounts}}, nil
	case RoleSupportExecutive:
		return DashboardScope{AdminRoles: []Role{RoleSupportExecutive}, IncludeUsers: true}, nil
	case RoleAccounts:
		return DashboardScope{AdminRoles: []Role{RoleAccounts}}, nil
	default:
		return DashboardScope{}, ErrInvalidRole
	}
}

// Guarded objects and actions.
const (
	ObjectDashboard = "dashboard"
	ObjectUsers     = "users"
	ObjectAdmins    = "admins"
	ObjectPassword  = "password"

	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
)

// Permission is one allowed action of a role.
type Permission struct {
	Role   Role
	Object string
	Action string
}

// Permissions is the complete admin action table.
func Permissions() []Permission {
	perms := make([]Permission, 0, 8)
	for _, r := range Roles {
		perms = append(perms,
			Permission{Role: r, Object: ObjectDashboard, Action: ActionRead},
			Permission{Role: r, Object: ObjectPassword, Action: ActionUpdate},
		)
	}
	return append(perms,
		Permission{Role: RoleSupportExecutive, Object: ObjectUsers, Action: ActionCreate},
		Permission{Role: RoleSuperAdmin, Object: ObjectAdmins, Action: ActionCreate},
	)
}
