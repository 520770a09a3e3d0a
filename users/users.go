// Package users holds the resource-owner model and password handling.
package users

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// ErrUserNotFound is returned by repositories when no user matches.
var ErrUserNotFound = errors.New("user not found")

// User is a resource owner known to the identity provider.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash []byte
}

// Repo is the credential store.
type Repo interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, user *User) error
}

// HashPassword derives the stored form of a password.
func HashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "users.HashPassword")
	}
	return hash, nil
}

// CheckPassword verifies a presented password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) == nil
}
