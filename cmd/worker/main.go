package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/equipment-checkout/internal/app/api"
	platformobservability "github.com/Apurer/equipment-checkout/internal/platform/observability"
	stagingactivities "github.com/Apurer/equipment-checkout/internal/platform/temporal/activities/staging"
	stagingworkflows "github.com/Apurer/equipment-checkout/internal/platform/temporal/workflows/staging"
)

func main() {
	ctx := context.Background()
	const serviceName = "equipment-checkout-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, cfg.ObservabilityOptions(serviceName))
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	stores, cleanupStores := api.BuildStores(ctx, cfg, logger)
	defer cleanupStores()
	activities := stagingactivities.NewActivities(api.NewObservedService(stores, instruments))

	cfg.TemporalDisabled = false
	temporalClient, err := api.ConnectTemporalClient(cfg, instruments)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, stagingworkflows.StagedCheckoutTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(stagingworkflows.StageRequestWorkflow, workflow.RegisterOptions{Name: stagingworkflows.StageRequestWorkflowName})
	w.RegisterActivityWithOptions(activities.StageRequest, activity.RegisterOptions{Name: stagingactivities.StageRequestActivityName})

	logger.Info("worker listening", slog.String("taskQueue", stagingworkflows.StagedCheckoutTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
