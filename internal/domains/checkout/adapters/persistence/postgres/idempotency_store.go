package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/equipment-checkout/internal/domains/checkout/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore keeps staging idempotency keys in the staged_checkout_idempotency_keys table.
type IdempotencyStore struct {
	db *gorm.DB
}

func NewIdempotencyStore(db *gorm.DB) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

// Get returns nil without error when the key was never saved.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("postgres idempotency store not configured")
	}
	var row IdempotencyKeyEntity
	err := s.db.WithContext(ctx).First(&row, "key = ?", key).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return row.toRecord(), nil
}

// Save relies on the primary key to settle concurrent saves: the loser reads back
// the winning row and reports a conflict when it points elsewhere.
func (s *IdempotencyStore) Save(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("postgres idempotency store not configured")
	}
	row := IdempotencyKeyEntity{
		Key:         record.Key,
		RequestHash: record.RequestHash,
		RequestID:   record.RequestID,
	}
	createErr := s.db.WithContext(ctx).Create(&row).Error
	if createErr == nil {
		return row.toRecord(), nil
	}
	if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
		return nil, createErr
	}
	stored, err := s.Get(ctx, record.Key)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, createErr
	}
	if stored.RequestHash != record.RequestHash || stored.RequestID != record.RequestID {
		return stored, ports.ErrIdempotencyConflict
	}
	return stored, nil
}

// IdempotencyKeyEntity maps a row of staged_checkout_idempotency_keys.
type IdempotencyKeyEntity struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128;not null"`
	RequestID   int64     `gorm:"column:request_id;not null"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (IdempotencyKeyEntity) TableName() string { return "staged_checkout_idempotency_keys" }

func (e *IdempotencyKeyEntity) toRecord() *ports.IdempotencyRecord {
	return &ports.IdempotencyRecord{
		Key:         e.Key,
		RequestHash: e.RequestHash,
		RequestID:   e.RequestID,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
