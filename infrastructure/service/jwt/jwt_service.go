package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	domainerr "github.com/vobe/authz-service/domain/error"
	"github.com/vobe/authz-service/domain/valueobject"
)

const (
	AlgorithmHS256    = "HS256"
	DefaultAccessTTL  = 60 * time.Minute
	tokenSegmentCount = 3
)

var (
	ErrEmptySecret          = errors.New("jwt secret must not be empty")
	ErrUnsupportedAlgorithm = errors.New("unsupported JWT algorithm")
	ErrEmptySubject         = errors.New("token subject must not be empty")
)

// Config is fixed at construction and never mutated afterwards.
type Config struct {
	Secret     string
	Algorithm  string
	DefaultTTL time.Duration
}

type JWTService struct {
	secret     []byte
	method     *jwt.SigningMethodHMAC
	defaultTTL time.Duration
	now        func() time.Time
	parser     *jwt.Parser
}

func NewJWTService(cfg Config) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, ErrEmptySecret
	}

	algorithm := cfg.Algorithm
	if algorithm == "" {
		algorithm = AlgorithmHS256
	}
	if algorithm != AlgorithmHS256 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algorithm)
	}

	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = DefaultAccessTTL
	}

	return &JWTService{
		secret:     []byte(cfg.Secret),
		method:     jwt.SigningMethodHS256,
		defaultTTL: ttl,
		now:        time.Now,
		parser:     jwt.NewParser(jwt.WithStrictDecoding()),
	}, nil
}

// WithClock returns a copy of the service that reads time from now.
func (s *JWTService) WithClock(now func() time.Time) *JWTService {
	clone := *s
	clone.now = now
	return &clone
}

func (s *JWTService) DefaultTTL() time.Duration {
	return s.defaultTTL
}

func (s *JWTService) IssueAccessToken(subject string, ttl time.Duration) (*valueobject.AccessToken, error) {
	if subject == "" {
		return nil, ErrEmptySubject
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	issuedAt := jwt.NewNumericDate(s.now())
	expiresAt := jwt.NewNumericDate(issuedAt.Add(ttl))

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}

	tokenString, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return valueobject.NewAccessToken(tokenString, issuedAt.Time, expiresAt.Time), nil
}

// DecodeAccessToken verifies the HMAC over the raw header and payload before
// looking at any claim, so every altered byte surfaces as an invalid
// signature rather than a parse error.
func (s *JWTService) DecodeAccessToken(tokenString string) (string, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != tokenSegmentCount {
		return "", domainerr.Wrap(domainerr.ErrTokenMalformed, "token must have three segments", nil)
	}

	signature, err := s.parser.DecodeSegment(parts[2])
	if err != nil {
		return "", domainerr.Wrap(domainerr.ErrTokenInvalidSignature, "signature segment is not valid base64url", err)
	}
	if err := s.method.Verify(parts[0]+"."+parts[1], signature, s.secret); err != nil {
		return "", domainerr.Wrap(domainerr.ErrTokenInvalidSignature, "", err)
	}

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", s.handleValidationError(err)
	}

	if claims.Subject == "" {
		return "", domainerr.ErrTokenMissingSubject
	}

	return claims.Subject, nil
}

func (s *JWTService) handleValidationError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return domainerr.Wrap(domainerr.ErrTokenExpired, "", err)
	}
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		return domainerr.Wrap(domainerr.ErrTokenInvalidSignature, "", err)
	}
	return domainerr.Wrap(domainerr.ErrTokenMalformed, "", err)
}
