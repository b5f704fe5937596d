package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Apurer/equipment-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/equipment-checkout/internal/domains/checkout/ports"
)

const (
	DefaultTTL    = 5 * time.Second
	DefaultPrefix = "checkout:staged_requests"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is a read-through Redis cache in front of another repository.
// Reads of the full list and of single requests are cached under keys that
// embed a generation number; every write bumps the generation, so entries
// filled from a read that raced a write are never served. Redis failures
// degrade to the inner repository.
type Repository struct {
	inner  ports.Repository
	client redis.Cmdable
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

type Option func(*Repository)

func WithTTL(ttl time.Duration) Option {
	return func(r *Repository) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func WithPrefix(prefix string) Option {
	return func(r *Repository) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRepository(inner ports.Repository, client redis.Cmdable, opts ...Option) *Repository {
	r := &Repository{
		inner:  inner,
		client: client,
		ttl:    DefaultTTL,
		prefix: DefaultPrefix,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

type cachedRequest struct {
	ID         int64   `json:"id"`
	UserName   string  `json:"user_name"`
	PID        int64   `json:"pid"`
	SelectedID *int64  `json:"selected_id"`
	IDChoices  []int64 `json:"id_choices"`
}

func (r *Repository) Create(ctx context.Context, req *domain.StagedCheckoutRequest) (*domain.StagedCheckoutRequest, error) {
	created, err := r.inner.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return created, nil
}

func (r *Repository) Update(ctx context.Context, req *domain.StagedCheckoutRequest) (*domain.StagedCheckoutRequest, error) {
	updated, err := r.inner.Update(ctx, req)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return updated, nil
}

func (r *Repository) Mutate(ctx context.Context, id int64, fn func(*domain.StagedCheckoutRequest) error) (*domain.StagedCheckoutRequest, error) {
	updated, err := r.inner.Mutate(ctx, id, fn)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return updated, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.StagedCheckoutRequest, error) {
	gen, ok := r.generation(ctx)
	key := r.itemKey(gen, id)
	var cached cachedRequest
	if ok && r.load(ctx, key, &cached) {
		return fromCached(cached), nil
	}
	req, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ok {
		r.store(ctx, key, toCached(req))
	}
	return req, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *Repository) List(ctx context.Context) ([]*domain.StagedCheckoutRequest, error) {
	gen, ok := r.generation(ctx)
	key := r.listKey(gen)
	var cached []cachedRequest
	if ok && r.load(ctx, key, &cached) {
		list := make([]*domain.StagedCheckoutRequest, 0, len(cached))
		for _, c := range cached {
			list = append(list, fromCached(c))
		}
		return list, nil
	}
	list, err := r.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		payload := make([]cachedRequest, 0, len(list))
		for _, req := range list {
			payload = append(payload, toCached(req))
		}
		r.store(ctx, key, payload)
	}
	return list, nil
}

func (r *Repository) generationKey() string { return r.prefix + ":gen" }

func (r *Repository) listKey(gen int64) string { return fmt.Sprintf("%s:v%d:all", r.prefix, gen) }

func (r *Repository) itemKey(gen, id int64) string {
	return fmt.Sprintf("%s:v%d:id:%d", r.prefix, gen, id)
}

// generation reports the current cache generation. It must be read before the
// inner repository so that a concurrent write moves later readers to new keys.
func (r *Repository) generation(ctx context.Context) (int64, bool) {
	if r.client == nil {
		return 0, false
	}
	gen, err := r.client.Get(ctx, r.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		r.logger.WarnContext(ctx, "staged request cache generation read failed", slog.String("error", err.Error()))
		return 0, false
	}
	return gen, true
}

func (r *Repository) load(ctx context.Context, key string, dst any) bool {
	if r.client == nil {
		return false
	}
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.WarnContext(ctx, "staged request cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		r.logger.WarnContext(ctx, "staged request cache entry corrupt", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	return true
}

func (r *Repository) store(ctx context.Context, key string, value any) {
	if r.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "staged request cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// invalidate retires every cached entry by moving to the next generation.
// Retired entries expire with their TTL.
func (r *Repository) invalidate(ctx context.Context) {
	if r.client == nil {
		return
	}
	if err := r.client.Incr(ctx, r.generationKey()).Err(); err != nil {
		r.logger.WarnContext(ctx, "staged request cache invalidation failed", slog.String("error", err.Error()))
	}
}

func toCached(req *domain.StagedCheckoutRequest) cachedRequest {
	return cachedRequest{
		ID:         req.ID,
		UserName:   req.UserName,
		PID:        req.PID,
		SelectedID: domain.CloneIDPtr(req.SelectedID),
		IDChoices:  domain.CloneIDs(req.IDChoices),
	}
}

func fromCached(c cachedRequest) *domain.StagedCheckoutRequest {
	return &domain.StagedCheckoutRequest{
		ID:         c.ID,
		UserName:   c.UserName,
		PID:        c.PID,
		SelectedID: c.SelectedID,
		IDChoices:  domain.CloneIDs(c.IDChoices),
	}
}
