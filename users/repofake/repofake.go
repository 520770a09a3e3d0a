// Package repofake provides an in-memory user store.
package repofake

import (
	"context"
	"strings"
	"sync"

	"weatherid/users"
)

type UserRepo struct {
	mu      sync.RWMutex
	byEmail map[string]users.User
}

func New() *UserRepo {
	return &UserRepo{byEmail: map[string]users.User{}}
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return &user, nil
}

func (r *UserRepo) Save(_ context.Context, user *users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byEmail[strings.ToLower(user.Email)] = *user
	return nil
}
