package types

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
