package model

// Role represents a session's permission level. Admin is granted at login
// time when the shared admin secret is supplied; it never changes afterwards.
type Role int

const (
	RoleUser  Role = iota // can join rooms and talk
	RoleAdmin             // can create/close rooms, kick and ban users
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ParseRole converts a string to a Role.
func ParseRole(s string) Role {
	if s == "admin" {
		return RoleAdmin
	}
	return RoleUser
}

// Valid returns true if the role is a recognised value.
func (r Role) Valid() bool {
	return r >= RoleUser && r <= RoleAdmin
}
