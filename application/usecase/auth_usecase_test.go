package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vobe/authz-service/application/port/inbound"
	"github.com/vobe/authz-service/application/port/outbound"
	"github.com/vobe/authz-service/application/usecase"
	"github.com/vobe/authz-service/application/usecase/user_management"
	domainerr "github.com/vobe/authz-service/domain/error"
	"github.com/vobe/authz-service/domain/entity"
	"github.com/vobe/authz-service/infrastructure/service/cache"
)

func TestAuthUseCase_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("by username", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "u-1", "alice", "alice@example.com", "pw1")

		resp, err := env.auth.Login(ctx, inbound.LoginRequest{Identifier: "alice", Password: "pw1"})
		require.NoError(t, err)
		assert.Equal(t, "bearer", resp.TokenType)
		assert.Equal(t, int64(3600), resp.ExpiresIn)

		subject, err := env.tokens.DecodeAccessToken(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "alice", subject)
		assert.Equal(t, 1, env.recorder.logins[usecase.OutcomeSuccess])
	})

	t.Run("by email issues token for username", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "u-1", "alice", "alice@example.com", "pw1")

		token := env.login(t, "alice@example.com", "pw1")

		subject, err := env.tokens.DecodeAccessToken(token)
		require.NoError(t, err)
		assert.Equal(t, "alice", subject)
	})

	t.Run("email match ignores case and surrounding space", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "u-1", "bob", "bob@example.com", "pw1")

		for _, identifier := range []string{"Bob@Example.com", "  BOB@EXAMPLE.COM "} {
			token := env.login(t, identifier, "pw1")
			subject, err := env.tokens.DecodeAccessToken(token)
			require.NoError(t, err)
			assert.Equal(t, "bob", subject)
		}

		_, err := env.auth.Login(ctx, inbound.LoginRequest{Identifier: "Bob", Password: "pw1"})
		assert.ErrorIs(t, err, domainerr.ErrAuthenticationFailed)
	})

	t.Run("failures are indistinguishable", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "u-1", "alice", "alice@example.com", "pw1")

		cases := []inbound.LoginRequest{
			{Identifier: "alice", Password: "wrong"},
			{Identifier: "alice@example.com", Password: "wrong"},
			{Identifier: "nobody", Password: "pw1"},
			{Identifier: "", Password: "pw1"},
			{Identifier: "alice", Password: ""},
		}
		for _, req := range cases {
			resp, err := env.auth.Login(ctx, req)
			assert.Nil(t, resp)
			assert.Same(t, domainerr.ErrAuthenticationFailed, err)
		}
		assert.Equal(t, len(cases), env.recorder.logins[usecase.OutcomeFailure])
	})

	t.Run("username match beats email match", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "u-1", "shared@example.com", "first@example.com", "first-pw")
		env.register(t, "u-2", "second", "shared@example.com", "second-pw")

		token := env.login(t, "shared@example.com", "first-pw")
		subject, err := env.tokens.DecodeAccessToken(token)
		require.NoError(t, err)
		assert.Equal(t, "shared@example.com", subject)

		_, err = env.auth.Login(ctx, inbound.LoginRequest{Identifier: "shared@example.com", Password: "second-pw"})
		assert.ErrorIs(t, err, domainerr.ErrAuthenticationFailed)
	})

	t.Run("unknown user still runs a bcrypt comparison", func(t *testing.T) {
		users := new(MockUserRepository)
		passwords := new(MockPasswordService)
		env := newTestEnv(t)
		auth := usecase.NewAuthUseCase(users, env.store.Services(), env.registry, env.tokens, passwords, nullLogger(), time.Hour)

		users.On("FindByUsername", mock.Anything, "ghost").Return(nil, outbound.ErrUserNotFound)
		users.On("FindByEmail", mock.Anything, "ghost").Return(nil, outbound.ErrUserNotFound)
		passwords.On("HashPassword", mock.Anything).Return("dummy-hash", nil).Once()
		passwords.On("VerifyPassword", "pw", "dummy-hash").Return(false).Twice()

		for i := 0; i < 2; i++ {
			_, err := auth.Login(ctx, inbound.LoginRequest{Identifier: "ghost", Password: "pw"})
			assert.ErrorIs(t, err, domainerr.ErrAuthenticationFailed)
		}

		users.AssertExpectations(t)
		passwords.AssertExpectations(t)
	})

	t.Run("store failure is not reported as bad credentials", func(t *testing.T) {
		users := new(MockUserRepository)
		env := newTestEnv(t)
		auth := usecase.NewAuthUseCase(users, env.store.Services(), env.registry, env.tokens, env.passwords, nullLogger(), time.Hour)

		users.On("FindByUsername", mock.Anything, "alice").Return(nil, errors.New("connection refused"))

		_, err := auth.Login(ctx, inbound.LoginRequest{Identifier: "alice", Password: "pw1"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, domainerr.ErrAuthenticationFailed)
		assert.Equal(t, domainerr.KindUnknown, domainerr.KindOf(err))
	})
}

func TestAuthUseCase_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.register(t, "u-1", "alice", "alice@example.com", "pw1")
		token := env.login(t, "alice", "pw1")

		identity, err := env.auth.Authenticate(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "alice", identity.Subject)
		assert.Equal(t, user.ID, identity.User.ID)
	})

	t.Run("expired token", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "u-1", "alice", "alice@example.com", "pw1")
		token := env.login(t, "alice", "pw1")

		env.advance(time.Hour)

		_, err := env.auth.Authenticate(ctx, token)
		assert.ErrorIs(t, err, domainerr.ErrUnauthenticated)
		assert.ErrorIs(t, err, domainerr.ErrTokenExpired)
		assert.Equal(t, domainerr.KindUnauthenticated, domainerr.KindOf(err))
	})

	t.Run("tampered token", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "u-1", "alice", "alice@example.com", "pw1")
		token := env.login(t, "alice", "pw1")

		parts := strings.Split(token, ".")
		replacement := "A"
		if parts[1][0] == 'A' {
			replacement = "B"
		}
		parts[1] = replacement + parts[1][1:]

		_, err := env.auth.Authenticate(ctx, strings.Join(parts, "."))
		assert.ErrorIs(t, err, domainerr.ErrUnauthenticated)
		assert.ErrorIs(t, err, domainerr.ErrTokenInvalidSignature)
	})

	t.Run("garbage", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.auth.Authenticate(ctx, "not-a-token")
		assert.ErrorIs(t, err, domainerr.ErrUnauthenticated)
	})
}

func TestAuthUseCase_Authorize(t *testing.T) {
	ctx := context.Background()

	t.Run("admin on one service is admin everywhere", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.register(t, "u-1", "alice", "alice@example.com", "pw1")
		serviceA := env.service(t, "s-a", "service-a")
		env.service(t, "s-b", "service-b")
		token := env.login(t, "alice", "pw1")

		_, err := env.registry.Grant(ctx, user.ID, serviceA.ID, entity.RoleAdmin)
		require.NoError(t, err)

		identity, err := env.auth.Authorize(ctx, token, inbound.CapabilityAdmin)
		require.NoError(t, err)
		assert.Equal(t, "alice", identity.Subject)
	})

	t.Run("authenticated capability needs no grant", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "u-1", "alice", "alice@example.com", "pw1")
		token := env.login(t, "alice", "pw1")

		_, err := env.auth.Authorize(ctx, token, inbound.CapabilityAuthenticated)
		require.NoError(t, err)
	})

	t.Run("non admin is forbidden", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.register(t, "u-1", "alice", "alice@example.com", "pw1")
		service := env.service(t, "s-a", "service-a")
		_, err := env.registry.Grant(ctx, user.ID, service.ID, "viewer")
		require.NoError(t, err)
		token := env.login(t, "alice", "pw1")

		_, err = env.auth.Authorize(ctx, token, inbound.CapabilityAdmin)
		assert.Same(t, domainerr.ErrForbidden, err)
		assert.Equal(t, 1, env.recorder.authorizations["admin/forbidden"])
	})

	t.Run("unknown capability is forbidden", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "u-1", "alice", "alice@example.com", "pw1")
		token := env.login(t, "alice", "pw1")

		_, err := env.auth.Authorize(ctx, token, inbound.Capability("superuser"))
		assert.ErrorIs(t, err, domainerr.ErrForbidden)
	})

	t.Run("AuthorizeRole is exact", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.register(t, "u-1", "alice", "alice@example.com", "pw1")
		billing := env.service(t, "s-a", "billing")
		env.service(t, "s-b", "reports")
		_, err := env.registry.Grant(ctx, user.ID, billing.ID, entity.RoleAdmin)
		require.NoError(t, err)
		token := env.login(t, "alice", "pw1")

		_, err = env.auth.AuthorizeRole(ctx, token, "billing", entity.RoleAdmin)
		require.NoError(t, err)

		_, err = env.auth.AuthorizeRole(ctx, token, "billing", "viewer")
		assert.ErrorIs(t, err, domainerr.ErrForbidden)

		_, err = env.auth.AuthorizeRole(ctx, token, "reports", entity.RoleAdmin)
		assert.ErrorIs(t, err, domainerr.ErrForbidden)

		_, err = env.auth.AuthorizeRole(ctx, token, "missing", entity.RoleAdmin)
		assert.ErrorIs(t, err, domainerr.ErrForbidden)
	})
}

func TestAuthUseCase_Me(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.register(t, "u-1", "alice", "alice@example.com", "pw1")
	service := env.service(t, "s-a", "billing")
	_, err := env.registry.Grant(ctx, user.ID, service.ID, entity.RoleAdmin)
	require.NoError(t, err)

	identity, err := env.auth.Authenticate(ctx, env.login(t, "alice", "pw1"))
	require.NoError(t, err)

	me, err := env.auth.Me(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
	assert.True(t, me.IsAdmin)
	require.Len(t, me.Roles, 1)
	assert.Equal(t, "billing", me.Roles[0].ServiceName)

	_, err = env.auth.Me(ctx, nil)
	assert.ErrorIs(t, err, domainerr.ErrUnauthenticated)
}

func TestUserDeletionRevokesTokens(t *testing.T) {
	ctx := context.Background()
	identityCache := cache.NewLRUIdentityCache(16, time.Hour)
	env := newTestEnv(t, usecase.WithIdentityCache(identityCache))
	management := user_management.NewUserManagementUseCase(
		env.store.Users(), env.store.Services(), env.registry, env.passwords, identityCache, nullLogger(),
	)

	user := env.register(t, "u-1", "alice", "alice@example.com", "pw1")
	service := env.service(t, "s-a", "billing")
	_, err := env.registry.Grant(ctx, user.ID, service.ID, "viewer")
	require.NoError(t, err)
	token := env.login(t, "alice", "pw1")

	// Populate the cache first so deletion has something to invalidate.
	_, err = env.auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, 1, identityCache.Len())

	_, err = management.DeleteUser(ctx, "alice")
	require.NoError(t, err)

	_, err = env.auth.Authenticate(ctx, token)
	assert.ErrorIs(t, err, domainerr.ErrUnauthenticated)

	grants, err := env.store.Grants().FindByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, grants)
}

// deletingUserRepository runs onRead once, right after the next
// FindByUsername returns, to interleave a concurrent change.
type deletingUserRepository struct {
	outbound.UserRepository
	onRead func()
}

func (r *deletingUserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	user, err := r.UserRepository.FindByUsername(ctx, username)
	if hook := r.onRead; hook != nil {
		r.onRead = nil
		hook()
	}
	return user, err
}

func TestUserDeletedDuringAuthenticate(t *testing.T) {
	ctx := context.Background()
	identityCache := cache.NewLRUIdentityCache(16, time.Hour)
	env := newTestEnv(t)
	users := &deletingUserRepository{UserRepository: env.store.Users()}
	auth := usecase.NewAuthUseCase(
		users, env.store.Services(), env.registry, env.tokens, env.passwords, nullLogger(), time.Hour,
		usecase.WithIdentityCache(identityCache),
	)
	management := user_management.NewUserManagementUseCase(
		env.store.Users(), env.store.Services(), env.registry, env.passwords, identityCache, nullLogger(),
	)

	env.register(t, "u-1", "alice", "alice@example.com", "pw1")
	resp, err := auth.Login(ctx, inbound.LoginRequest{Identifier: "alice", Password: "pw1"})
	require.NoError(t, err)

	users.onRead = func() {
		_, err := management.DeleteUser(ctx, "alice")
		require.NoError(t, err)
	}

	t.Run("in flight request is rejected", func(t *testing.T) {
		_, err := auth.Authenticate(ctx, resp.AccessToken)
		assert.ErrorIs(t, err, domainerr.ErrUnauthenticated)
		assert.Nil(t, users.onRead)
	})

	t.Run("deleted user is not left in the cache", func(t *testing.T) {
		_, ok, err := identityCache.Get(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = auth.Authenticate(ctx, resp.AccessToken)
		assert.ErrorIs(t, err, domainerr.ErrUnauthenticated)
	})
}

func TestAliceEndToEnd(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	management := user_management.NewUserManagementUseCase(
		env.store.Users(), env.store.Services(), env.registry, env.passwords, cache.NoopIdentityCache{}, nullLogger(),
	)
	service := env.service(t, "s-1", "S")

	created, err := management.CreateUser(ctx, inbound.CreateUserRequest{Username: "alice", Email: "alice@example.com", Password: "pw1"})
	require.NoError(t, err)

	token := env.login(t, "alice", "pw1")

	_, err = env.auth.Authorize(ctx, token, inbound.CapabilityAdmin)
	assert.ErrorIs(t, err, domainerr.ErrForbidden)

	_, err = management.GrantRole(ctx, "alice", inbound.GrantRoleRequest{Role: entity.RoleAdmin, ServiceID: service.ID})
	require.NoError(t, err)

	identity, err := env.auth.Authorize(ctx, token, inbound.CapabilityAdmin)
	require.NoError(t, err)
	assert.Equal(t, created.ID, identity.User.ID)

	_, err = management.DeleteUser(ctx, "alice")
	require.NoError(t, err)

	_, err = env.auth.Authorize(ctx, token, inbound.CapabilityAdmin)
	assert.ErrorIs(t, err, domainerr.ErrUnauthenticated)
	assert.Equal(t, domainerr.KindUnauthenticated, domainerr.KindOf(err))
}
