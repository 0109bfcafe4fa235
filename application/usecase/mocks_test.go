package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vobe/authz-service/application/port/inbound"
	"github.com/vobe/authz-service/application/usecase"
	"github.com/vobe/authz-service/domain/entity"
	"github.com/vobe/authz-service/infrastructure/adapter/memory"
	"github.com/vobe/authz-service/infrastructure/service/jwt"
	"github.com/vobe/authz-service/infrastructure/service/logger"
	"github.com/vobe/authz-service/infrastructure/service/password"
)

// MockUserRepository is a testify mock of outbound.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, offset, limit int) ([]*entity.User, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*entity.User), args.Int(1), args.Error(2)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPasswordService is a testify mock of outbound.PasswordService.
type MockPasswordService struct {
	mock.Mock
}

func (m *MockPasswordService) HashPassword(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordService) VerifyPassword(password, hash string) bool {
	args := m.Called(password, hash)
	return args.Bool(0)
}

// recorderSpy counts outcomes passed to outbound.AuthEventRecorder.
type recorderSpy struct {
	mu             sync.Mutex
	logins         map[string]int
	authorizations map[string]int
}

func newRecorderSpy() *recorderSpy {
	return &recorderSpy{logins: map[string]int{}, authorizations: map[string]int{}}
}

func (r *recorderSpy) ObserveLogin(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logins[outcome]++
}

func (r *recorderSpy) ObserveAuthorization(capability, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authorizations[capability+"/"+outcome]++
}

func nullLogger() logger.Logger {
	base, _ := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	return logger.NewFromLogrus(base, "test")
}

// testEnv wires the real store, hasher and codec with a controllable clock.
type testEnv struct {
	store     *memory.Store
	passwords *password.BcryptPasswordService
	tokens    *jwt.JWTService
	registry  inbound.RoleRegistry
	auth      *usecase.AuthUseCase
	recorder  *recorderSpy

	mu  sync.Mutex
	now time.Time
}

func newTestEnv(t *testing.T, opts ...usecase.AuthOption) *testEnv {
	t.Helper()

	env := &testEnv{
		store:     memory.NewStore(),
		passwords: password.NewBcryptPasswordService(bcrypt.MinCost),
		recorder:  newRecorderSpy(),
		now:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	tokens, err := jwt.NewJWTService(jwt.Config{Secret: "test-secret", Algorithm: jwt.AlgorithmHS256, DefaultTTL: time.Hour})
	require.NoError(t, err)
	env.tokens = tokens.WithClock(env.clock)

	env.registry = usecase.NewRoleRegistry(env.store.Users(), env.store.Services(), env.store.Grants())
	opts = append([]usecase.AuthOption{usecase.WithEventRecorder(env.recorder)}, opts...)
	env.auth = usecase.NewAuthUseCase(
		env.store.Users(),
		env.store.Services(),
		env.registry,
		env.tokens,
		env.passwords,
		nullLogger(),
		time.Hour,
		opts...,
	)
	return env
}

func (e *testEnv) clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *testEnv) advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.now.Add(d)
}

func (e *testEnv) register(t *testing.T, id, username, email, plaintext string) *entity.User {
	t.Helper()
	hash, err := e.passwords.HashPassword(plaintext)
	require.NoError(t, err)
	user := entity.NewUser(id, username, email, hash)
	require.NoError(t, e.store.Users().Create(context.Background(), user))
	return user
}

func (e *testEnv) service(t *testing.T, id, name string) *entity.Service {
	t.Helper()
	service := entity.NewService(id, name)
	require.NoError(t, e.store.Services().Create(context.Background(), service))
	return service
}

func (e *testEnv) login(t *testing.T, identifier, plaintext string) string {
	t.Helper()
	resp, err := e.auth.Login(context.Background(), inbound.LoginRequest{Identifier: identifier, Password: plaintext})
	require.NoError(t, err)
	return resp.AccessToken
}
