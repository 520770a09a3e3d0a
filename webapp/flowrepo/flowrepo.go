// Package flowrepo tracks in-flight authorization flows on the relying
// party, keyed by the state value. An entry is taken exactly once: the
// callback that presents the state consumes it.
package flowrepo

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrFlowNotFound - no flow for that state: never started, expired, or
// already consumed.
var ErrFlowNotFound = errors.New("authorization flow not found")

const flowTTL = 10 * time.Minute

// AuthFlowState is what the relying party must remember between sending
// the user to the identity provider and receiving the callback.
type AuthFlowState struct {
	State     string
	Verifier  string
	Nonce     string
	ReturnURL string
	CreatedAt time.Time
}

// Repo stores flow state. Take removes the entry it returns.
type Repo interface {
	Save(ctx context.Context, flow *AuthFlowState) error
	Take(ctx context.Context, state string) (*AuthFlowState, error)
}

// MemoryRepo is the in-memory flow store.
type MemoryRepo struct {
	mu      sync.Mutex
	flows   map[string]AuthFlowState
	nowFunc func() time.Time
}

// Option configures a MemoryRepo.
type Option func(*MemoryRepo)

// WithNowFunc overrides the clock used for flow expiry.
func WithNowFunc(now func() time.Time) Option {
	return func(r *MemoryRepo) { r.nowFunc = now }
}

func NewMemoryRepo(opts ...Option) *MemoryRepo {
	repo := &MemoryRepo{
		flows:   map[string]AuthFlowState{},
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

func (r *MemoryRepo) Save(_ context.Context, flow *AuthFlowState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purgeLocked()
	r.flows[flow.State] = *flow
	return nil
}

func (r *MemoryRepo) Take(_ context.Context, state string) (*AuthFlowState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	flow, ok := r.flows[state]
	if !ok {
		return nil, ErrFlowNotFound
	}
	delete(r.flows, state)
	if r.nowFunc().Sub(flow.CreatedAt) > flowTTL {
		return nil, ErrFlowNotFound
	}
	return &flow, nil
}

func (r *MemoryRepo) purgeLocked() {
	now := r.nowFunc()
	for state, flow := range r.flows {
		if now.Sub(flow.CreatedAt) > flowTTL {
			delete(r.flows, state)
		}
	}
}
