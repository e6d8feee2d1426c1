package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleResident   = "resident"
	RoleFrontDesk  = "front_desk"
	RoleManager    = "manager"
	RoleSuperAdmin = "super_admin"
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

func IsStaff(role string) bool {
	return role == RoleFrontDesk || role == RoleManager || role == RoleSuperAdmin
}
