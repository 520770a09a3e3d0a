// Package repofake provides an in-memory client registration store.
package repofake

import (
	"context"
	"sync"

	"weatherid/clients"
)

type ClientRepo struct {
	mu   sync.RWMutex
	byID map[string]clients.Client
}

func New() *ClientRepo {
	return &ClientRepo{byID: map[string]clients.Client{}}
}

func (r *ClientRepo) FindByID(_ context.Context, id string) (*clients.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.byID[id]
	if !ok {
		return nil, clients.ErrClientNotFound
	}
	return &client, nil
}

func (r *ClientRepo) Save(_ context.Context, client *clients.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[client.ID] = *client
	return nil
}
