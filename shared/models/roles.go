package models

// Role names as stored in users.role.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// HasRole checks whether targetRole is among userRoles.
func HasRole(userRoles []string, targetRole string) bool {
	for _, role := range userRoles {
		if role == targetRole {
			return true
		}
	}
	return false
}
