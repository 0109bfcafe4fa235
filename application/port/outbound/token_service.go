package outbound

import (
	"time"

	"github.com/vobe/authz-service/domain/valueobject"
)

// TokenService issues and decodes signed access tokens. DecodeAccessToken
// returns exactly one of the domain token errors on failure.
type TokenService interface {
	IssueAccessToken(subject string, ttl time.Duration) (*valueobject.AccessToken, error)
	DecodeAccessToken(token string) (string, error)
}
