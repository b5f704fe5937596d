package staging

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/equipment-checkout/internal/domains/checkout/application"
	"github.com/Apurer/equipment-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/equipment-checkout/internal/domains/checkout/ports"
)

const (
	// StageRequestActivityName persists a new staged checkout request.
	StageRequestActivityName = "checkout.activities.StageRequest"

	// Application error types surfaced to workflow callers.
	ErrTypeInvalidInput        = "checkout.InvalidInput"
	ErrTypeAlreadyExists       = "checkout.AlreadyExists"
	ErrTypeIdempotencyConflict = "checkout.IdempotencyConflict"
)

// StageRequestInput is the activity payload. Every attempt of the activity
// carries the same IdempotencyKey so a retry after a lost response replays
// the stored request.
type StageRequestInput struct {
	Request        domain.StagedCheckoutRequest
	IdempotencyKey string
}

// Activities groups activities that operate on the checkout bounded context.
type Activities struct {
	service ports.Service
}

func NewActivities(service ports.Service) *Activities {
	return &Activities{service: service}
}

// StageRequest stores the request through the checkout service. Validation,
// duplicate-id and idempotency failures are returned as non-retryable application errors.
func (a *Activities) StageRequest(ctx context.Context, input StageRequestInput) (*domain.StagedCheckoutRequest, error) {
	logger := activity.GetLogger(ctx)
	req := input.Request
	if a == nil || a.service == nil {
		logger.Error("stage request activity not initialized", "pid", req.PID)
		return nil, errors.New("stage request activity not initialized")
	}
	logger.Info("StageRequest activity started", "pid", req.PID, "userName", req.UserName, "attempt", activity.GetInfo(ctx).Attempt)
	staged, err := a.service.StageRequest(ctx, &req, input.IdempotencyKey)
	if err != nil {
		logger.Error("StageRequest activity failed", "pid", req.PID, "error", err)
		switch {
		case errors.Is(err, application.ErrInvalidInput):
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidInput, err)
		case errors.Is(err, ports.ErrAlreadyExists):
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeAlreadyExists, err)
		case errors.Is(err, ports.ErrIdempotencyConflict):
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeIdempotencyConflict, err)
		}
		return nil, err
	}
	logger.Info("StageRequest activity completed", "requestId", staged.ID)
	return staged, nil
}
