package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/equipment-checkout/internal/domains/checkout/application"
	"github.com/Apurer/equipment-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/equipment-checkout/internal/domains/checkout/ports"
	stagingactivities "github.com/Apurer/equipment-checkout/internal/platform/temporal/activities/staging"
	stagingworkflows "github.com/Apurer/equipment-checkout/internal/platform/temporal/workflows/staging"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineWorkflows)(nil)
)

// TemporalWorkflows starts checkout workflows on a Temporal cluster.
type TemporalWorkflows struct {
	client    client.Client
	taskQueue string
}

func NewTemporalWorkflows(c client.Client) *TemporalWorkflows {
	return &TemporalWorkflows{client: c, taskQueue: stagingworkflows.StagedCheckoutTaskQueue}
}

// StageRequest runs the staging workflow and waits for the persisted request.
// Calls with an idempotency key share a workflow ID derived from that key, so a
// retry attaches to the run still in flight. Calls without one get a fresh ID
// and key, which only serves activity retries inside that run.
func (o *TemporalWorkflows) StageRequest(ctx context.Context, req *domain.StagedCheckoutRequest, idempotencyKey string) (*domain.StagedCheckoutRequest, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal checkout workflows not configured")
	}
	if req == nil {
		return nil, errors.New("staged checkout request is nil")
	}
	keyed := idempotencyKey != ""
	workflowID, key := stageWorkflowID(idempotencyKey)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	input := stagingworkflows.StageRequestWorkflowInput{
		Request:        *req.Clone(),
		IdempotencyKey: key,
		TraceID:        workflowTraceID(ctx),
	}
	run, err := o.client.ExecuteWorkflow(ctx, options, stagingworkflows.StageRequestWorkflowName, input)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !keyed || !errors.As(err, &alreadyStarted) {
			return nil, err
		}
		run = o.client.GetWorkflow(ctx, options.ID, alreadyStarted.RunId)
	}
	var staged domain.StagedCheckoutRequest
	if err := run.Get(ctx, &staged); err != nil {
		return nil, mapWorkflowError(err)
	}
	return &staged, nil
}

// stageWorkflowID returns the workflow ID and the idempotency key the activity
// should use. Client keys are hashed so arbitrary header values fit Temporal IDs.
func stageWorkflowID(idempotencyKey string) (string, string) {
	if idempotencyKey == "" {
		id := uuid.NewString()
		return "staged-checkout-" + id, "auto-" + id
	}
	sum := sha256.Sum256([]byte(idempotencyKey))
	return "staged-checkout-key-" + hex.EncodeToString(sum[:16]), idempotencyKey
}

// mapWorkflowError restores checkout sentinels from activity application errors
// so the HTTP edge can keep its status mapping.
func mapWorkflowError(err error) error {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return err
	}
	switch appErr.Type() {
	case stagingactivities.ErrTypeInvalidInput:
		return fmt.Errorf("%w: %s", application.ErrInvalidInput, appErr.Message())
	case stagingactivities.ErrTypeAlreadyExists:
		return fmt.Errorf("%w: %s", ports.ErrAlreadyExists, appErr.Message())
	case stagingactivities.ErrTypeIdempotencyConflict:
		return fmt.Errorf("%w: %s", ports.ErrIdempotencyConflict, appErr.Message())
	}
	return err
}

// InlineWorkflows executes the service directly without Temporal.
type InlineWorkflows struct {
	service ports.Service
}

func NewInlineWorkflows(service ports.Service) *InlineWorkflows {
	return &InlineWorkflows{service: service}
}

func (o *InlineWorkflows) StageRequest(ctx context.Context, req *domain.StagedCheckoutRequest, idempotencyKey string) (*domain.StagedCheckoutRequest, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline checkout workflows not configured")
	}
	return o.service.StageRequest(ctx, req, idempotencyKey)
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
