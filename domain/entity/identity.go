package entity

// Identity is the authenticated principal resolved from a bearer token.
type Identity struct {
	Subject string
	User    *User
}

func NewIdentity(user *User) *Identity {
	return &Identity{Subject: user.Username, User: user}
}
