package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           int64
	Username     string
	FullName     string
	Email        string
	PasswordHash string
	Role         Role
	Rating       float64 // mean of all scores against this seller, 0 when unrated
	CreatedAt    time.Time
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserUpdate carries a partial update; nil fields are left untouched.
type UserUpdate struct {
	Username     *string
	FullName     *string
	Email        *string
	PasswordHash *string
}
