// Package memory holds map-backed repositories used by the development server
// when no MongoDB URI is configured. Data lives for the life of the process.
package memory

import (
	"context"
	"slices"
	"strconv"
	"sync"

	"github.com/bookshelf/bookapp/internal/core/domain"
)

type UserRepository struct {
	mu     sync.RWMutex
	users  map[string]domain.User
	nextID int64
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.UserName]; exists {
		return nil, domain.ErrUserExists
	}
	r.nextID++
	u := copyUser(*user)
	u.ID = strconv.FormatInt(r.nextID, 10)
	r.users[u.UserName] = u

	out := copyUser(u)
	return &out, nil
}

func (r *UserRepository) FindByUserName(_ context.Context, userName string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[userName]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := copyUser(u)
	return &out, nil
}

func copyUser(u domain.User) domain.User {
	u.Roles = slices.Clone(u.Roles)
	if u.FullName != nil {
		name := *u.FullName
		u.FullName = &name
	}
	return u
}
