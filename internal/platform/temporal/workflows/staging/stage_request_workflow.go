package staging

import (
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/equipment-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/equipment-checkout/internal/platform/temporal/sequences"
)

const (
	// StageRequestWorkflowName is the public identifier for registering the workflow.
	StageRequestWorkflowName = "checkout.workflows.StageRequest"
	// StagedCheckoutTaskQueue is the queue consumed by the worker processing checkout workflows.
	StagedCheckoutTaskQueue = "STAGED_CHECKOUT"
)

type StageRequestWorkflowInput struct {
	Request        domain.StagedCheckoutRequest
	IdempotencyKey string
	TraceID        string
}

// StageRequestWorkflow persists a staged checkout request so an ambassador can pick equipment for it.
func StageRequestWorkflow(ctx workflow.Context, input StageRequestWorkflowInput) (*domain.StagedCheckoutRequest, error) {
	logger := workflow.GetLogger(ctx)
	pid := input.Request.PID
	logger.Info("StageRequestWorkflow started", withTraceID(input.TraceID, "pid", pid)...)
	staged, err := sequences.RunStagingSequence(ctx, input.Request, input.IdempotencyKey)
	if err != nil {
		logger.Error("StageRequestWorkflow failed", withTraceID(input.TraceID, "pid", pid, "error", err)...)
		return nil, err
	}
	logger.Info("StageRequestWorkflow completed", withTraceID(input.TraceID, "requestId", staged.ID)...)
	return staged, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
