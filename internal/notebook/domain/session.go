package domain

// Session is the identity bound to an issued session token. The role is a
// snapshot taken at login time.
type Session struct {
	Email string
	Role  Role
}

func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }
