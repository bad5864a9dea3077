package domain

import "time"

// Role enumerates the roles supplied by the identity provider.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleAdmin
}

// User mirrors an identity known to the recognition wall. Name and
// department are editable by their owner; everything else comes from the
// identity provider.
type User struct {
	ID         string
	Name       string
	Email      string
	Department string
	Role       Role
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// CanModify reports whether u may mutate content owned by ownerID.
func (u *User) CanModify(ownerID string) bool {
	if u == nil {
		return false
	}
	return u.ID == ownerID || u.IsAdmin()
}
