package valueobject

import (
	"errors"
	"strings"
)

var (
	ErrEmptyIdentifier = errors.New("identifier is required")
	ErrEmptyPassword   = errors.New("password is required")
)

// Credentials is a login attempt. The identifier is matched against
// usernames first and emails second.
type Credentials struct {
	identifier string
	password   string
}

func NewCredentials(identifier, password string) (*Credentials, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrEmptyIdentifier
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}
	return &Credentials{
		identifier: identifier,
		password:   password,
	}, nil
}

func (c *Credentials) Identifier() string {
	return c.identifier
}

func (c *Credentials) Password() string {
	return c.password
}
