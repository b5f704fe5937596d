package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/equipment-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/equipment-checkout/internal/domains/checkout/ports"
)

const tracerName = "github.com/Apurer/equipment-checkout/internal/domains/checkout/adapters/observability/service"

// Service decorates the checkout service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core checkout service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) StageRequest(ctx context.Context, req *domain.StagedCheckoutRequest, idempotencyKey string) (*domain.StagedCheckoutRequest, error) {
	keyed := idempotencyKey != ""
	ctx, span := s.tracer.Start(ctx, "CheckoutService.StageRequest",
		trace.WithAttributes(append(requestAttributes(req), attribute.Bool("idempotency.keyed", keyed))...))
	defer span.End()

	s.logInfo(ctx, "staging checkout request", append(requestLogAttrs(req), slog.Bool("idempotency.keyed", keyed))...)
	result, err := s.inner.StageRequest(ctx, req, idempotencyKey)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to stage checkout request", requestLogAttrs(req)...)
	}
	span.SetAttributes(attribute.Int64("staged_request.id", result.ID))
	s.metrics.recordStaged(ctx, len(result.IDChoices))
	s.logInfo(ctx, "checkout request staged", slog.Int64("staged_request.id", result.ID), slog.Int("staged_request.choices", len(result.IDChoices)))
	return result, nil
}

func (s *Service) UpdateRequest(ctx context.Context, req *domain.StagedCheckoutRequest) (*domain.StagedCheckoutRequest, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.UpdateRequest", trace.WithAttributes(requestAttributes(req)...))
	defer span.End()

	s.logInfo(ctx, "updating staged checkout request", requestLogAttrs(req)...)
	result, err := s.inner.UpdateRequest(ctx, req)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update staged checkout request", requestLogAttrs(req)...)
	}
	s.logInfo(ctx, "staged checkout request updated", slog.Int64("staged_request.id", result.ID))
	return result, nil
}

func (s *Service) SelectEquipment(ctx context.Context, id, equipmentID int64) (*domain.StagedCheckoutRequest, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.SelectEquipment",
		trace.WithAttributes(attribute.Int64("staged_request.id", id), attribute.Int64("equipment.id", equipmentID)))
	defer span.End()

	s.logInfo(ctx, "selecting equipment", slog.Int64("staged_request.id", id), slog.Int64("equipment.id", equipmentID))
	result, err := s.inner.SelectEquipment(ctx, id, equipmentID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to select equipment", slog.Int64("staged_request.id", id), slog.Int64("equipment.id", equipmentID))
	}
	s.metrics.recordSelected(ctx)
	s.logInfo(ctx, "equipment selected", slog.Int64("staged_request.id", result.ID), slog.Int64("equipment.id", equipmentID))
	return result, nil
}

func (s *Service) GetRequest(ctx context.Context, id int64) (*domain.StagedCheckoutRequest, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.GetRequest", trace.WithAttributes(attribute.Int64("staged_request.id", id)))
	defer span.End()

	result, err := s.inner.GetRequest(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load staged checkout request", slog.Int64("staged_request.id", id))
	}
	return result, nil
}

func (s *Service) ListRequests(ctx context.Context) ([]*domain.StagedCheckoutRequest, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.ListRequests")
	defer span.End()

	result, err := s.inner.ListRequests(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list staged checkout requests")
	}
	span.SetAttributes(attribute.Int("staged_request.count", len(result)))
	return result, nil
}

func (s *Service) DeleteRequest(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.DeleteRequest", trace.WithAttributes(attribute.Int64("staged_request.id", id)))
	defer span.End()

	s.logInfo(ctx, "deleting staged checkout request", slog.Int64("staged_request.id", id))
	if err := s.inner.DeleteRequest(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete staged checkout request", slog.Int64("staged_request.id", id))
	}
	s.metrics.recordDeleted(ctx)
	s.logInfo(ctx, "staged checkout request deleted", slog.Int64("staged_request.id", id))
	return nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func requestAttributes(req *domain.StagedCheckoutRequest) []attribute.KeyValue {
	if req == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.Int64("staged_request.id", req.ID),
		attribute.Int64("staged_request.pid", req.PID),
	}
}

func requestLogAttrs(req *domain.StagedCheckoutRequest) []slog.Attr {
	if req == nil {
		return nil
	}
	return []slog.Attr{slog.Int64("staged_request.id", req.ID), slog.Int64("staged_request.pid", req.PID)}
}

type serviceMetrics struct {
	requestsStaged   metric.Int64Counter
	requestsSelected metric.Int64Counter
	requestsDeleted  metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	staged, _ := m.Int64Counter("checkout.service.requests_staged", metric.WithDescription("Number of staged checkout requests created"))
	selected, _ := m.Int64Counter("checkout.service.requests_selected", metric.WithDescription("Number of ambassador equipment selections"))
	deleted, _ := m.Int64Counter("checkout.service.requests_deleted", metric.WithDescription("Number of staged checkout requests deleted"))
	return serviceMetrics{requestsStaged: staged, requestsSelected: selected, requestsDeleted: deleted}
}

func (m serviceMetrics) recordStaged(ctx context.Context, choices int) {
	if m.requestsStaged != nil {
		m.requestsStaged.Add(ctx, 1, metric.WithAttributes(attribute.Bool("staged_request.has_choices", choices > 0)))
	}
}

func (m serviceMetrics) recordSelected(ctx context.Context) {
	if m.requestsSelected != nil {
		m.requestsSelected.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordDeleted(ctx context.Context) {
	if m.requestsDeleted != nil {
		m.requestsDeleted.Add(ctx, 1)
	}
}

var _ ports.Service = (*Service)(nil)
