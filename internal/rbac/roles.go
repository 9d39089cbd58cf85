package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleAdmin     = "admin"
	RoleClient    = "client"
	RoleDeveloper = "developer"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

// IsKnown reports whether role is one of the roles above.
func IsKnown(role string) bool {
	switch role {
	case RoleAdmin, RoleClient, RoleDeveloper:
		return true
	default:
		return false
	}
}
