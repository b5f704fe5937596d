package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	checkoutcache "github.com/Apurer/equipment-checkout/internal/domains/checkout/adapters/cache"
	checkouthttp "github.com/Apurer/equipment-checkout/internal/domains/checkout/adapters/http"
	checkoutmemory "github.com/Apurer/equipment-checkout/internal/domains/checkout/adapters/memory"
	checkoutobs "github.com/Apurer/equipment-checkout/internal/domains/checkout/adapters/observability"
	checkoutpostgres "github.com/Apurer/equipment-checkout/internal/domains/checkout/adapters/persistence/postgres"
	checkoutworkflows "github.com/Apurer/equipment-checkout/internal/domains/checkout/adapters/workflows"
	checkoutapp "github.com/Apurer/equipment-checkout/internal/domains/checkout/application"
	checkoutports "github.com/Apurer/equipment-checkout/internal/domains/checkout/ports"
	"github.com/Apurer/equipment-checkout/internal/platform/migrations"
	platformobservability "github.com/Apurer/equipment-checkout/internal/platform/observability"
	platformpostgres "github.com/Apurer/equipment-checkout/internal/platform/postgres"
	platformredis "github.com/Apurer/equipment-checkout/internal/platform/redis"
)

const serviceName = "equipment-checkout-api"

// Run boots the equipment checkout HTTP API with observability, repositories, and workflows wired.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, cfg.ObservabilityOptions(serviceName))
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	stores, cleanupStores := BuildStores(ctx, cfg, logger)
	defer cleanupStores()
	service := NewObservedService(stores, instruments)

	var workflows checkoutports.WorkflowOrchestrator = checkoutworkflows.NewInlineWorkflows(service)
	if temporalClient, err := ConnectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, staging requests inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		workflows = checkoutworkflows.NewTemporalWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	router := checkouthttp.NewRouter(
		checkouthttp.NewCheckoutAPI(service, workflows),
		otelgin.Middleware(serviceName),
	)
	addr := cfg.Addr()
	logger.Info("Equipment checkout API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("Equipment checkout API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

// Stores groups the persistence the checkout service needs.
type Stores struct {
	Repository  checkoutports.Repository
	Idempotency checkoutports.IdempotencyStore
}

// NewObservedService wraps the checkout service with tracing, metrics, and logging.
func NewObservedService(stores Stores, instruments *platformobservability.Instruments) checkoutports.Service {
	return checkoutobs.New(
		checkoutapp.NewService(stores.Repository, checkoutapp.WithIdempotencyStore(stores.Idempotency)),
		checkoutobs.WithLogger(effectiveLogger(instruments)),
		checkoutobs.WithTracer(instruments.Tracer("internal.checkout.application")),
		checkoutobs.WithMeter(instruments.Meter("internal.checkout.application")),
	)
}

// BuildStores selects Postgres when configured, falling back to memory, and
// fronts the repository with the Redis cache when REDIS_ADDR is reachable.
// Idempotency keys live next to the requests they point at.
func BuildStores(ctx context.Context, cfg Config, logger *slog.Logger) (Stores, func()) {
	stores := Stores{
		Repository:  checkoutmemory.NewRepository(),
		Idempotency: checkoutmemory.NewIdempotencyStore(),
	}
	db, closeDB := platformpostgres.ConnectDSN(ctx, cfg.PostgresDSN, cfg.PostgresPool(), logger)
	if db != nil {
		if err := migrations.Run(db); err != nil {
			logger.Warn("failed to migrate postgres schema, falling back to memory", slog.String("error", err.Error()))
			closeDB()
			closeDB = func() {}
		} else {
			logger.Info("staged checkout repository configured with postgres")
			stores.Repository = checkoutpostgres.NewRepository(db)
			stores.Idempotency = checkoutpostgres.NewIdempotencyStore(db)
		}
	}

	redisClient, closeRedis := platformredis.ConnectOptional(ctx, cfg.RedisOptions(), logger)
	if redisClient != nil {
		stores.Repository = checkoutcache.NewRepository(stores.Repository, redisClient,
			checkoutcache.WithTTL(cfg.CacheTTL),
			checkoutcache.WithLogger(logger),
		)
	}
	return stores, func() {
		closeRedis()
		closeDB()
	}
}

// ConnectTemporalClient dials Temporal with tracing and structured logging attached.
func ConnectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
