package user

// Role is the access level granted by the auth provider
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleCitizen || r == RoleAdmin
}

// ParseRole maps an untrusted claim to a role, defaulting to citizen
func ParseRole(s string) Role {
	if r := Role(s); r.Valid() {
		return r
	}
	return RoleCitizen
}

// User is a read-only view of an account owned by the auth provider
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the user may triage reports
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
