package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vobe/authz-service/application/port/inbound"
	"github.com/vobe/authz-service/application/port/outbound"
	domainerr "github.com/vobe/authz-service/domain/error"
	"github.com/vobe/authz-service/domain/entity"
	"github.com/vobe/authz-service/domain/valueobject"
	"github.com/vobe/authz-service/infrastructure/service/logger"
)

const (
	OutcomeSuccess         = "success"
	OutcomeFailure         = "failure"
	OutcomeAuthorized      = "authorized"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeForbidden       = "forbidden"
	OutcomeError           = "error"
)

// dummyPassword is hashed once at the configured cost so that logins for
// unknown users spend the same bcrypt time as logins for known ones.
const dummyPassword = "authz-dummy-password"

type AuthUseCase struct {
	userRepository    outbound.UserRepository
	serviceRepository outbound.ServiceRepository
	roleRegistry      inbound.RoleRegistry
	tokenService      outbound.TokenService
	passwordService   outbound.PasswordService
	identityCache     outbound.IdentityCache
	recorder          outbound.AuthEventRecorder
	logger            logger.Logger
	accessTokenTTL    time.Duration

	dummyHashOnce sync.Once
	dummyHash     string
}

type AuthOption func(*AuthUseCase)

func WithIdentityCache(cache outbound.IdentityCache) AuthOption {
	return func(uc *AuthUseCase) {
		if cache != nil {
			uc.identityCache = cache
		}
	}
}

func WithEventRecorder(recorder outbound.AuthEventRecorder) AuthOption {
	return func(uc *AuthUseCase) {
		if recorder != nil {
			uc.recorder = recorder
		}
	}
}

func NewAuthUseCase(
	userRepo outbound.UserRepository,
	serviceRepo outbound.ServiceRepository,
	roleRegistry inbound.RoleRegistry,
	tokenService outbound.TokenService,
	passwordService outbound.PasswordService,
	log logger.Logger,
	accessTokenTTL time.Duration,
	opts ...AuthOption,
) *AuthUseCase {
	uc := &AuthUseCase{
		userRepository:    userRepo,
		serviceRepository: serviceRepo,
		roleRegistry:      roleRegistry,
		tokenService:      tokenService,
		passwordService:   passwordService,
		identityCache:     noopIdentityCache{},
		recorder:          outbound.NoopAuthEventRecorder{},
		logger:            log,
		accessTokenTTL:    accessTokenTTL,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

var _ inbound.AuthUseCase = (*AuthUseCase)(nil)

// Login checks the identifier against usernames first, then emails. Every
// failure is ErrAuthenticationFailed; only the log says which one it was.
func (uc *AuthUseCase) Login(ctx context.Context, req inbound.LoginRequest) (*inbound.LoginResponse, error) {
	start := time.Now()
	defer func() {
		logger.LogPerformance(ctx, uc.logger, "login", time.Since(start), nil)
	}()

	credentials, err := valueobject.NewCredentials(req.Identifier, req.Password)
	if err != nil {
		uc.loginFailed(ctx, req.Identifier, "invalid_request")
		return nil, domainerr.ErrAuthenticationFailed
	}

	user, err := uc.findByIdentifier(ctx, credentials.Identifier())
	if err != nil {
		uc.recorder.ObserveLogin(OutcomeError)
		uc.logger.Error(ctx, "Failed to look up user for login", err, nil)
		return nil, err
	}

	if user == nil {
		uc.passwordService.VerifyPassword(credentials.Password(), uc.getDummyHash())
		uc.loginFailed(ctx, credentials.Identifier(), "unknown_user")
		return nil, domainerr.ErrAuthenticationFailed
	}

	if !uc.passwordService.VerifyPassword(credentials.Password(), user.PasswordHash) {
		uc.loginFailed(ctx, credentials.Identifier(), "bad_password")
		return nil, domainerr.ErrAuthenticationFailed
	}

	token, err := uc.tokenService.IssueAccessToken(user.Username, uc.accessTokenTTL)
	if err != nil {
		uc.recorder.ObserveLogin(OutcomeError)
		uc.logger.Error(ctx, "Failed to issue access token", err, map[string]interface{}{
			"username": user.Username,
		})
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	uc.recorder.ObserveLogin(OutcomeSuccess)
	logger.LogAuthEvent(ctx, uc.logger, "login", user.Username, true, nil)

	return &inbound.LoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresIn:   token.ExpiresIn,
	}, nil
}

func (uc *AuthUseCase) loginFailed(ctx context.Context, identifier, reason string) {
	uc.recorder.ObserveLogin(OutcomeFailure)
	logger.LogAuthEvent(ctx, uc.logger, "login", identifier, false, map[string]interface{}{
		"reason": reason,
	})
}

// findByIdentifier returns (nil, nil) when neither a username nor an email
// matches.
func (uc *AuthUseCase) findByIdentifier(ctx context.Context, identifier string) (*entity.User, error) {
	user, err := uc.userRepository.FindByUsername(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, outbound.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}

	// Emails are stored lowercased; usernames stay exact so the username
	// match keeps precedence.
	user, err = uc.userRepository.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(identifier)))
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, outbound.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	return nil, nil
}

func (uc *AuthUseCase) getDummyHash() string {
	uc.dummyHashOnce.Do(func() {
		hash, err := uc.passwordService.HashPassword(dummyPassword)
		if err != nil {
			uc.logger.Error(context.Background(), "Failed to prepare dummy password hash", err, nil)
			return
		}
		uc.dummyHash = hash
	})
	return uc.dummyHash
}

// Authenticate resolves a bearer token to the user it names. The user must
// still exist, so deleting a user revokes its outstanding tokens.
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (*entity.Identity, error) {
	subject, err := uc.tokenService.DecodeAccessToken(token)
	if err != nil {
		logger.LogSecurityEvent(ctx, uc.logger, "token_rejected", "LOW", map[string]interface{}{
			"reason": string(domainerr.ReasonOf(err)),
		})
		return nil, domainerr.Wrap(domainerr.ErrUnauthenticated, "", err)
	}

	user, err := uc.resolveSubject(ctx, subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		logger.LogSecurityEvent(ctx, uc.logger, "token_subject_unknown", "MEDIUM", map[string]interface{}{
			"username": subject,
		})
		return nil, domainerr.ErrUnauthenticated
	}

	return entity.NewIdentity(user), nil
}

func (uc *AuthUseCase) resolveSubject(ctx context.Context, subject string) (*entity.User, error) {
	cached, ok, err := uc.identityCache.Get(ctx, subject)
	if err != nil {
		uc.logger.Warn(ctx, "Identity cache read failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if ok {
		return cached, nil
	}

	user, err := uc.userRepository.FindByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve token subject: %w", err)
	}

	if err := uc.identityCache.Set(ctx, user); err != nil {
		uc.logger.Warn(ctx, "Identity cache write failed", map[string]interface{}{
			"error": err.Error(),
		})
		return user, nil
	}

	// A delete that ran between the read and Set has already invalidated the
	// cache, so the entry just written may be stale. Deletion removes the row
	// before invalidating, so one more read after Set settles it.
	if _, err := uc.userRepository.FindByUsername(ctx, subject); err != nil {
		if invErr := uc.identityCache.Invalidate(ctx, subject); invErr != nil {
			uc.logger.Warn(ctx, "Identity cache invalidate failed", map[string]interface{}{
				"error": invErr.Error(),
			})
		}
		if errors.Is(err, outbound.ErrUserNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve token subject: %w", err)
	}
	return user, nil
}

func (uc *AuthUseCase) Authorize(ctx context.Context, token string, capability inbound.Capability) (*entity.Identity, error) {
	identity, err := uc.Authenticate(ctx, token)
	if err != nil {
		uc.observeAuthorization(string(capability), err)
		return nil, err
	}

	switch capability {
	case inbound.CapabilityAuthenticated:
	case inbound.CapabilityAdmin:
		isAdmin, err := uc.roleRegistry.IsAdmin(ctx, identity.User.ID)
		if err != nil {
			uc.observeAuthorization(string(capability), err)
			return nil, err
		}
		if !isAdmin {
			uc.denied(ctx, identity, string(capability))
			return nil, domainerr.ErrForbidden
		}
	default:
		uc.denied(ctx, identity, string(capability))
		return nil, domainerr.ErrForbidden
	}

	uc.recorder.ObserveAuthorization(string(capability), OutcomeAuthorized)
	return identity, nil
}

// AuthorizeRole answers whether the bearer holds exactly role on the named
// service. Admin grants elsewhere do not satisfy it, and an unknown service
// is simply forbidden.
func (uc *AuthUseCase) AuthorizeRole(ctx context.Context, token, serviceName, role string) (*entity.Identity, error) {
	const capability = "role"

	identity, err := uc.Authenticate(ctx, token)
	if err != nil {
		uc.observeAuthorization(capability, err)
		return nil, err
	}

	service, err := uc.serviceRepository.FindByName(ctx, serviceName)
	if errors.Is(err, outbound.ErrServiceNotFound) {
		uc.denied(ctx, identity, capability)
		return nil, domainerr.ErrForbidden
	}
	if err != nil {
		err = MapStoreError(err)
		uc.observeAuthorization(capability, err)
		return nil, err
	}

	hasRole, err := uc.roleRegistry.HasRole(ctx, identity.User.ID, service.ID, role)
	if err != nil {
		uc.observeAuthorization(capability, err)
		return nil, err
	}
	if !hasRole {
		uc.denied(ctx, identity, capability)
		return nil, domainerr.ErrForbidden
	}

	uc.recorder.ObserveAuthorization(capability, OutcomeAuthorized)
	return identity, nil
}

func (uc *AuthUseCase) denied(ctx context.Context, identity *entity.Identity, capability string) {
	uc.recorder.ObserveAuthorization(capability, OutcomeForbidden)
	logger.LogSecurityEvent(ctx, uc.logger, "authorization_denied", "LOW", map[string]interface{}{
		"username":   identity.Subject,
		"capability": capability,
	})
}

func (uc *AuthUseCase) observeAuthorization(capability string, err error) {
	switch domainerr.KindOf(err) {
	case domainerr.KindUnauthenticated:
		uc.recorder.ObserveAuthorization(capability, OutcomeUnauthenticated)
	case domainerr.KindForbidden:
		uc.recorder.ObserveAuthorization(capability, OutcomeForbidden)
	default:
		uc.recorder.ObserveAuthorization(capability, OutcomeError)
	}
}

func (uc *AuthUseCase) Me(ctx context.Context, identity *entity.Identity) (*inbound.MeResponse, error) {
	if identity == nil || identity.User == nil {
		return nil, domainerr.ErrUnauthenticated
	}

	grants, err := uc.roleRegistry.ListGrants(ctx, identity.User.ID)
	if err != nil {
		return nil, err
	}

	isAdmin := false
	for _, grant := range grants {
		if grant.IsAdmin() {
			isAdmin = true
			break
		}
	}

	return &inbound.MeResponse{
		ID:       identity.User.ID,
		Username: identity.User.Username,
		Email:    identity.User.Email,
		IsAdmin:  isAdmin,
		Roles:    DescribeGrants(ctx, uc.serviceRepository, grants),
	}, nil
}

type noopIdentityCache struct{}

func (noopIdentityCache) Get(context.Context, string) (*entity.User, bool, error) {
	return nil, false, nil
}

func (noopIdentityCache) Set(context.Context, *entity.User) error {
	return nil
}

func (noopIdentityCache) Invalidate(context.Context, string) error {
	return nil
}
