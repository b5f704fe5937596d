package ports

import (
	"context"
	"errors"

	"github.com/Apurer/equipment-checkout/internal/domains/checkout/domain"
)

var (
	ErrNotFound      = errors.New("staged checkout request not found")
	ErrAlreadyExists = errors.New("staged checkout request already exists")
)

// Repository persists staged checkout requests.
type Repository interface {
	// Create inserts a new request; a zero ID is assigned by the store.
	Create(ctx context.Context, req *domain.StagedCheckoutRequest) (*domain.StagedCheckoutRequest, error)
	// Update overwrites every mutable field of the stored request with the same ID.
	Update(ctx context.Context, req *domain.StagedCheckoutRequest) (*domain.StagedCheckoutRequest, error)
	// Mutate loads the request with the given ID, applies fn and persists the result
	// atomically with respect to other writers. An error from fn aborts without writing.
	Mutate(ctx context.Context, id int64, fn func(*domain.StagedCheckoutRequest) error) (*domain.StagedCheckoutRequest, error)
	GetByID(ctx context.Context, id int64) (*domain.StagedCheckoutRequest, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.StagedCheckoutRequest, error)
}
