package codes

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	code     AuthorizationCode
	consumed bool
}

// MemoryRepo is the in-memory code store. The consumed flag flips under
// the lock, which is what makes double redemption detectable.
type MemoryRepo struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	nowFunc func() time.Time
}

// MemoryOption configures a MemoryRepo.
type MemoryOption func(*MemoryRepo)

// WithNowFunc overrides the clock used to purge expired entries.
func WithNowFunc(now func() time.Time) MemoryOption {
	return func(r *MemoryRepo) { r.nowFunc = now }
}

func NewMemoryRepo(opts ...MemoryOption) *MemoryRepo {
	repo := &MemoryRepo{
		entries: map[string]*memoryEntry{},
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

func (r *MemoryRepo) Save(_ context.Context, code *AuthorizationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purgeLocked()
	r.entries[code.Code] = &memoryEntry{code: *code}
	return nil
}

func (r *MemoryRepo) Consume(_ context.Context, value string) (*AuthorizationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[value]
	if !ok {
		return nil, ErrCodeNotFound
	}
	if entry.consumed {
		return nil, ErrCodeConsumed
	}
	entry.consumed = true
	code := entry.code
	return &code, nil
}

// purgeLocked drops entries whose expiry is long past. Consumed entries
// stick around until then so a replay is reported as consumed rather than
// unknown.
func (r *MemoryRepo) purgeLocked() {
	now := r.nowFunc()
	for value, entry := range r.entries {
		if now.Sub(entry.code.ExpiresAt) > time.Minute {
			delete(r.entries, value)
		}
	}
}
