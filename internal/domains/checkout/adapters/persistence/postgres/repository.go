package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/equipment-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/equipment-checkout/internal/domains/checkout/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists staged checkout requests in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Schema is owned by platform/migrations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new row and returns the stored request with its assigned ID.
// A row inserted with an explicit ID moves the id sequence past it.
func (r *Repository) Create(ctx context.Context, req *domain.StagedCheckoutRequest) (*domain.StagedCheckoutRequest, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errors.New("staged checkout request is nil")
	}
	entity := FromModel(req)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entity).Error; err != nil {
			return err
		}
		if req.ID == 0 {
			return nil
		}
		return tx.Exec(advanceIDSequenceSQL).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ports.ErrAlreadyExists
		}
		return nil, err
	}
	return entity.ToModel(), nil
}

const advanceIDSequenceSQL = `SELECT setval(pg_get_serial_sequence('staged_checkout_requests', 'id'),
	GREATEST((SELECT MAX(id) FROM staged_checkout_requests), 1))`

// Update locks the row, applies the model onto the loaded entity and saves it in one transaction.
func (r *Repository) Update(ctx context.Context, req *domain.StagedCheckoutRequest) (*domain.StagedCheckoutRequest, error) {
	if req == nil {
		return nil, errors.New("staged checkout request is nil")
	}
	return r.withLockedRow(ctx, req.ID, func(entity *StagedCheckoutRequestEntity) error {
		return entity.Update(req)
	})
}

// Mutate hands fn the current state of the row while it is locked FOR UPDATE.
// The row is saved only if fn returns nil.
func (r *Repository) Mutate(ctx context.Context, id int64, fn func(*domain.StagedCheckoutRequest) error) (*domain.StagedCheckoutRequest, error) {
	if fn == nil {
		return nil, errors.New("staged checkout mutation is nil")
	}
	return r.withLockedRow(ctx, id, func(entity *StagedCheckoutRequestEntity) error {
		working := entity.ToModel()
		if err := fn(working); err != nil {
			return err
		}
		return entity.Update(working)
	})
}

func (r *Repository) withLockedRow(ctx context.Context, id int64, apply func(*StagedCheckoutRequestEntity) error) (*domain.StagedCheckoutRequest, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var updated *domain.StagedCheckoutRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entity StagedCheckoutRequestEntity
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&entity, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ports.ErrNotFound
			}
			return err
		}
		if err := apply(&entity); err != nil {
			return err
		}
		if err := tx.Save(&entity).Error; err != nil {
			return err
		}
		updated = entity.ToModel()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetByID fetches a request by identifier.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.StagedCheckoutRequest, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var entity StagedCheckoutRequestEntity
	if err := r.db.WithContext(ctx).First(&entity, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return entity.ToModel(), nil
}

// Delete removes a request by identifier.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&StagedCheckoutRequestEntity{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// List returns every staged request ordered by ID.
func (r *Repository) List(ctx context.Context) ([]*domain.StagedCheckoutRequest, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var entities []StagedCheckoutRequestEntity
	if err := r.db.WithContext(ctx).Order("id").Find(&entities).Error; err != nil {
		return nil, err
	}
	list := make([]*domain.StagedCheckoutRequest, 0, len(entities))
	for i := range entities {
		list = append(list, entities[i].ToModel())
	}
	return list, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres staged checkout repository not configured")
	}
	return nil
}
