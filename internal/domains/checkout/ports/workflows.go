package ports

import (
	"context"

	"github.com/Apurer/equipment-checkout/internal/domains/checkout/domain"
)

// WorkflowOrchestrator runs the staging flow either durably or inline.
// A non-empty idempotency key makes repeated calls return the first result.
type WorkflowOrchestrator interface {
	StageRequest(ctx context.Context, req *domain.StagedCheckoutRequest, idempotencyKey string) (*domain.StagedCheckoutRequest, error)
}
