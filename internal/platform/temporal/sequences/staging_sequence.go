package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/equipment-checkout/internal/domains/checkout/domain"
	stagingactivities "github.com/Apurer/equipment-checkout/internal/platform/temporal/activities/staging"
)

// RunStagingSequence executes the activities needed to stage a checkout request.
// idempotencyKey is passed to every activity attempt.
func RunStagingSequence(ctx workflow.Context, req domain.StagedCheckoutRequest, idempotencyKey string) (*domain.StagedCheckoutRequest, error) {
	logger := workflow.GetLogger(ctx)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
			NonRetryableErrorTypes: []string{
				stagingactivities.ErrTypeInvalidInput,
				stagingactivities.ErrTypeAlreadyExists,
				stagingactivities.ErrTypeIdempotencyConflict,
			},
		},
	}

	input := stagingactivities.StageRequestInput{Request: req, IdempotencyKey: idempotencyKey}
	var staged domain.StagedCheckoutRequest
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, options), stagingactivities.StageRequestActivityName, input).Get(ctx, &staged)
	if err != nil {
		logger.Error("staging sequence failed", "pid", req.PID, "error", err)
		return nil, err
	}
	logger.Info("staging sequence persisted", "requestId", staged.ID)
	return &staged, nil
}
