package domain

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Caller is the verified identity of the requester, taken from the JWT
// issued by the auth service. The reservation service trusts these claims
// as-is and never re-validates them against a user store.
type Caller struct {
	UserID int
	Role   Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}
