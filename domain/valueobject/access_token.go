package valueobject

import "time"

const TokenTypeBearer = "bearer"

type AccessToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"-"`
}

func NewAccessToken(token string, issuedAt, expiresAt time.Time) *AccessToken {
	return &AccessToken{
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   int64(expiresAt.Sub(issuedAt).Seconds()),
		ExpiresAt:   expiresAt,
	}
}
