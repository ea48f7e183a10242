package domain

import "time"

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string // argon2id PHC string, or bcrypt for accounts migrated from the legacy system
	Role         Role
	LastLogin    *time.Time
	CreatedAt    time.Time
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
