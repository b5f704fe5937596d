package checkouthttp

import (
	"errors"

	"github.com/Apurer/equipment-checkout/internal/domains/checkout/application"
	"github.com/Apurer/equipment-checkout/internal/domains/checkout/ports"
	apierrors "github.com/Apurer/equipment-checkout/internal/shared/errors"
	"github.com/Apurer/equipment-checkout/internal/shared/persistence"
)

const resourceType = "staged checkout request"

// mapCheckoutError translates checkout service errors into problem documents.
func mapCheckoutError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, application.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, application.ErrInvalidSelection),
		errors.Is(err, persistence.ErrIdentityMismatch):
		return apierrors.ErrUnprocessable.WithDetail(err.Error()), true
	case errors.Is(err, ports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()).WithExtension("resourceType", resourceType), true
	case errors.Is(err, ports.ErrIdempotencyConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()).WithExtension("header", IdempotencyKeyHeader), true
	case errors.Is(err, ports.ErrAlreadyExists):
		return apierrors.ErrConflict.WithDetail(err.Error()).WithExtension("resourceType", resourceType), true
	default:
		return apierrors.ProblemDetail{}, false
	}
}
