package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Apurer/equipment-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/equipment-checkout/internal/domains/checkout/ports"
	"github.com/Apurer/equipment-checkout/internal/shared/persistence"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory staged checkout request adapter.
type Repository struct {
	mu       sync.RWMutex
	requests map[int64]*domain.StagedCheckoutRequest
	nextID   int64
}

func NewRepository() *Repository {
	return &Repository{requests: map[int64]*domain.StagedCheckoutRequest{}}
}

func (r *Repository) Create(_ context.Context, req *domain.StagedCheckoutRequest) (*domain.StagedCheckoutRequest, error) {
	if req == nil {
		return nil, errors.New("staged checkout request is nil")
	}
	clone := req.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	} else {
		if _, ok := r.requests[clone.ID]; ok {
			return nil, ports.ErrAlreadyExists
		}
		if clone.ID > r.nextID {
			r.nextID = clone.ID
		}
	}
	r.requests[clone.ID] = clone
	return clone.Clone(), nil
}

func (r *Repository) Update(_ context.Context, req *domain.StagedCheckoutRequest) (*domain.StagedCheckoutRequest, error) {
	if req == nil {
		return nil, errors.New("staged checkout request is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[req.ID]; !ok {
		return nil, ports.ErrNotFound
	}
	clone := req.Clone()
	r.requests[clone.ID] = clone
	return clone.Clone(), nil
}

// Mutate applies fn to a copy of the stored request while holding the write lock.
func (r *Repository) Mutate(_ context.Context, id int64, fn func(*domain.StagedCheckoutRequest) error) (*domain.StagedCheckoutRequest, error) {
	if fn == nil {
		return nil, errors.New("staged checkout mutation is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.requests[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	working := stored.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	if working.ID != id {
		return nil, fmt.Errorf("%w: cannot update staged checkout request %d from model %d", persistence.ErrIdentityMismatch, id, working.ID)
	}
	r.requests[id] = working
	return working.Clone(), nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.StagedCheckoutRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return req.Clone(), nil
}

func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.requests, id)
	return nil
}

// List returns requests ordered by ID, matching the postgres adapter.
func (r *Repository) List(_ context.Context) ([]*domain.StagedCheckoutRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.StagedCheckoutRequest, 0, len(r.requests))
	for _, req := range r.requests {
		list = append(list, req.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}
