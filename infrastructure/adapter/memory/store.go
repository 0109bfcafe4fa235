package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vobe/authz-service/application/port/outbound"
	"github.com/vobe/authz-service/domain/entity"
)

// Store keeps users, services and grants behind one lock so uniqueness and
// cascade rules hold the same way the database constraints make them hold.
type Store struct {
	mu sync.RWMutex

	users          map[string]entity.User
	userByUsername map[string]string
	userByEmail    map[string]string

	services      map[string]entity.Service
	serviceByName map[string]string

	grants map[grantKey]entity.RoleGrant
}

type grantKey struct {
	userID    string
	serviceID string
}

func NewStore() *Store {
	return &Store{
		users:          make(map[string]entity.User),
		userByUsername: make(map[string]string),
		userByEmail:    make(map[string]string),
		services:       make(map[string]entity.Service),
		serviceByName:  make(map[string]string),
		grants:         make(map[grantKey]entity.RoleGrant),
	}
}

func (s *Store) Users() outbound.UserRepository {
	return &userRepository{store: s}
}

func (s *Store) Services() outbound.ServiceRepository {
	return &serviceRepository{store: s}
}

func (s *Store) Grants() outbound.RoleGrantRepository {
	return &grantRepository{store: s}
}

// deleteGrantsLocked removes every grant for which match is true. Caller holds mu.
func (s *Store) deleteGrantsLocked(match func(grantKey) bool) {
	for key := range s.grants {
		if match(key) {
			delete(s.grants, key)
		}
	}
}

type userRepository struct {
	store *Store
}

func (r *userRepository) Create(_ context.Context, user *entity.User) error {
	if user == nil || strings.TrimSpace(user.ID) == "" {
		return errors.New("user ID is required")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.users[user.ID]; exists {
		return outbound.ErrUserAlreadyExists
	}
	if _, exists := r.store.userByUsername[user.Username]; exists {
		return outbound.ErrUserAlreadyExists
	}
	if _, exists := r.store.userByEmail[user.Email]; exists {
		return outbound.ErrUserAlreadyExists
	}

	r.store.users[user.ID] = *user
	r.store.userByUsername[user.Username] = user.ID
	r.store.userByEmail[user.Email] = user.ID
	return nil
}

func (r *userRepository) FindByID(_ context.Context, id string) (*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	user, ok := r.store.users[id]
	if !ok {
		return nil, outbound.ErrUserNotFound
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.userByUsername[username]
	if !ok {
		return nil, outbound.ErrUserNotFound
	}
	user := r.store.users[id]
	return &user, nil
}

func (r *userRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.userByEmail[email]
	if !ok {
		return nil, outbound.ErrUserNotFound
	}
	user := r.store.users[id]
	return &user, nil
}

func (r *userRepository) FindAll(_ context.Context, offset, limit int) ([]*entity.User, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if offset < 0 {
		offset = 0
	}

	items := make([]entity.User, 0, len(r.store.users))
	for _, user := range r.store.users {
		items = append(items, user)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].Username < items[j].Username
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	total := len(items)
	if offset >= total {
		return []*entity.User{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	page := make([]*entity.User, 0, end-offset)
	for i := offset; i < end; i++ {
		user := items[i]
		page = append(page, &user)
	}
	return page, total, nil
}

func (r *userRepository) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user, ok := r.store.users[id]
	if !ok {
		return outbound.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now().UTC()
	r.store.users[id] = user
	return nil
}

func (r *userRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user, ok := r.store.users[id]
	if !ok {
		return outbound.ErrUserNotFound
	}
	delete(r.store.users, id)
	delete(r.store.userByUsername, user.Username)
	delete(r.store.userByEmail, user.Email)
	r.store.deleteGrantsLocked(func(key grantKey) bool { return key.userID == id })
	return nil
}

type serviceRepository struct {
	store *Store
}

func (r *serviceRepository) Create(_ context.Context, service *entity.Service) error {
	if service == nil || strings.TrimSpace(service.ID) == "" {
		return errors.New("service ID is required")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.services[service.ID]; exists {
		return outbound.ErrServiceAlreadyExists
	}
	if _, exists := r.store.serviceByName[service.Name]; exists {
		return outbound.ErrServiceAlreadyExists
	}
	r.store.services[service.ID] = *service
	r.store.serviceByName[service.Name] = service.ID
	return nil
}

func (r *serviceRepository) FindByID(_ context.Context, id string) (*entity.Service, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	service, ok := r.store.services[id]
	if !ok {
		return nil, outbound.ErrServiceNotFound
	}
	return &service, nil
}

func (r *serviceRepository) FindByName(_ context.Context, name string) (*entity.Service, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.serviceByName[name]
	if !ok {
		return nil, outbound.ErrServiceNotFound
	}
	service := r.store.services[id]
	return &service, nil
}

func (r *serviceRepository) FindAll(_ context.Context) ([]*entity.Service, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	items := make([]*entity.Service, 0, len(r.store.services))
	for _, service := range r.store.services {
		service := service
		items = append(items, &service)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (r *serviceRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	service, ok := r.store.services[id]
	if !ok {
		return outbound.ErrServiceNotFound
	}
	delete(r.store.services, id)
	delete(r.store.serviceByName, service.Name)
	r.store.deleteGrantsLocked(func(key grantKey) bool { return key.serviceID == id })
	return nil
}

type grantRepository struct {
	store *Store
}

func (r *grantRepository) Create(_ context.Context, grant *entity.RoleGrant) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[grant.UserID]; !ok {
		return outbound.ErrUserNotFound
	}
	if _, ok := r.store.services[grant.ServiceID]; !ok {
		return outbound.ErrServiceNotFound
	}

	key := grantKey{userID: grant.UserID, serviceID: grant.ServiceID}
	if _, exists := r.store.grants[key]; exists {
		return outbound.ErrGrantAlreadyExists
	}
	r.store.grants[key] = *grant
	return nil
}

func (r *grantRepository) Find(_ context.Context, userID, serviceID string) (*entity.RoleGrant, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	grant, ok := r.store.grants[grantKey{userID: userID, serviceID: serviceID}]
	if !ok {
		return nil, outbound.ErrGrantNotFound
	}
	return &grant, nil
}

func (r *grantRepository) FindByUser(_ context.Context, userID string) ([]*entity.RoleGrant, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var items []*entity.RoleGrant
	for key, grant := range r.store.grants {
		if key.userID != userID {
			continue
		}
		grant := grant
		items = append(items, &grant)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ServiceID < items[j].ServiceID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (r *grantRepository) Delete(_ context.Context, userID, serviceID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := grantKey{userID: userID, serviceID: serviceID}
	if _, ok := r.store.grants[key]; !ok {
		return outbound.ErrGrantNotFound
	}
	delete(r.store.grants, key)
	return nil
}
