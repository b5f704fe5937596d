package ports

import (
	"context"

	"github.com/Apurer/equipment-checkout/internal/domains/checkout/domain"
)

// Service exposes staged checkout use cases to adapters.
type Service interface {
	// StageRequest stores a new request. Calls sharing a non-empty idempotency key
	// and payload return the request stored by the first call.
	StageRequest(ctx context.Context, req *domain.StagedCheckoutRequest, idempotencyKey string) (*domain.StagedCheckoutRequest, error)
	UpdateRequest(ctx context.Context, req *domain.StagedCheckoutRequest) (*domain.StagedCheckoutRequest, error)
	SelectEquipment(ctx context.Context, id, equipmentID int64) (*domain.StagedCheckoutRequest, error)
	GetRequest(ctx context.Context, id int64) (*domain.StagedCheckoutRequest, error)
	ListRequests(ctx context.Context) ([]*domain.StagedCheckoutRequest, error)
	DeleteRequest(ctx context.Context, id int64) error
}
