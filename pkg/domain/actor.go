package domain

// Actor is the explicit identity on whose behalf an operation runs. Every
// decision function takes one as an argument; nothing reads a current user from
// shared state.
type Actor struct {
	UserID   UserID
	Username string
	Roles    RoleSet
}

// IsAnonymous reports whether the actor carries no identity.
func (a Actor) IsAnonymous() bool {
	return a.UserID.IsNil()
}
