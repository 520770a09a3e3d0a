// Package sessionrepo stores the relying party's server-side sessions.
// The browser only ever holds the opaque session id.
package sessionrepo

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrSessionNotFound - no session for that id.
var ErrSessionNotFound = errors.New("session not found")

// Session is an authenticated browser session with the tokens obtained at
// login.
type Session struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	Email       string    `json:"email"`
	Name        string    `json:"name,omitempty"`
	AccessToken string    `json:"accessToken"`
	IDToken     string    `json:"idToken,omitempty"`
	TokenExpiry time.Time `json:"tokenExpiry"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Repo stores sessions by id.
type Repo interface {
	Save(ctx context.Context, session *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// MemoryRepo is the in-memory session store.
type MemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{sessions: map[string]Session{}}
}

func (r *MemoryRepo) Save(_ context.Context, session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = *session
	return nil
}

func (r *MemoryRepo) Load(_ context.Context, id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

func (r *MemoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}
