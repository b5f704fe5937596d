package application

import (
	"context"
	"errors"
	"strings"

	"github.com/Apurer/equipment-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/equipment-checkout/internal/domains/checkout/ports"
)

// Service orchestrates staged checkout use cases.
type Service struct {
	repo        ports.Repository
	idempotency ports.IdempotencyStore
}

type Option func(*Service)

// WithIdempotencyStore enables replay of staging calls that carry an idempotency key.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{repo: repo}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// StageRequest validates and stores a new staged request. Ids are always assigned
// by the store. Any selection carried by the input is kept; membership in the
// choices is only checked by SelectEquipment.
func (s *Service) StageRequest(ctx context.Context, req *domain.StagedCheckoutRequest, idempotencyKey string) (*domain.StagedCheckoutRequest, error) {
	if req == nil {
		return nil, errors.New("staged checkout request is nil")
	}
	staged := req.Clone()
	if staged.ID != 0 {
		return nil, mapError(ErrIDAssigned)
	}
	if err := staged.Validate(); err != nil {
		return nil, mapError(err)
	}
	key := strings.TrimSpace(idempotencyKey)
	if key == "" || s.idempotency == nil {
		return s.repo.Create(ctx, staged)
	}

	hash, err := FingerprintStageRequest(staged)
	if err != nil {
		return nil, err
	}
	existing, err := s.idempotency.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.replay(ctx, existing, hash)
	}

	created, err := s.repo.Create(ctx, staged)
	if err != nil {
		return nil, err
	}
	saved, err := s.idempotency.Save(ctx, ports.IdempotencyRecord{Key: key, RequestHash: hash, RequestID: created.ID})
	if err == nil {
		return created, nil
	}
	if errors.Is(err, ports.ErrIdempotencyConflict) && saved != nil {
		// A concurrent call with the same key won; drop our copy.
		_ = s.repo.Delete(ctx, created.ID)
		return s.replay(ctx, saved, hash)
	}
	return nil, err
}

func (s *Service) replay(ctx context.Context, record *ports.IdempotencyRecord, hash string) (*domain.StagedCheckoutRequest, error) {
	if record.RequestHash != hash {
		return nil, ports.ErrIdempotencyConflict
	}
	return s.repo.GetByID(ctx, record.RequestID)
}

// UpdateRequest replaces the mutable fields of an existing request.
func (s *Service) UpdateRequest(ctx context.Context, req *domain.StagedCheckoutRequest) (*domain.StagedCheckoutRequest, error) {
	if req == nil {
		return nil, errors.New("staged checkout request is nil")
	}
	updated := req.Clone()
	if err := updated.Validate(); err != nil {
		return nil, mapError(err)
	}
	return s.repo.Update(ctx, updated)
}

// SelectEquipment records the ambassador's pick for request id. The pick is checked
// against the choices stored at the moment the row is locked.
func (s *Service) SelectEquipment(ctx context.Context, id, equipmentID int64) (*domain.StagedCheckoutRequest, error) {
	updated, err := s.repo.Mutate(ctx, id, func(req *domain.StagedCheckoutRequest) error {
		return req.Select(equipmentID)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return updated, nil
}

func (s *Service) GetRequest(ctx context.Context, id int64) (*domain.StagedCheckoutRequest, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListRequests(ctx context.Context) ([]*domain.StagedCheckoutRequest, error) {
	return s.repo.List(ctx)
}

func (s *Service) DeleteRequest(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

var _ ports.Service = (*Service)(nil)
