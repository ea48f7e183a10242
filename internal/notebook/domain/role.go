package domain

// Role is the authorization level attached to a user and copied into every
// session issued for them.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps a stored value onto a known role. Anything unrecognised
// degrades to RoleUser so a corrupt row can never grant admin access.
func ParseRole(s string) Role {
	if Role(s) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}
