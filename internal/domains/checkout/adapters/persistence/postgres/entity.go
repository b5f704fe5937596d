package postgres

import (
	"errors"

	"github.com/lib/pq"

	"github.com/Apurer/equipment-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/equipment-checkout/internal/shared/persistence"
)

var _ persistence.Entity[*domain.StagedCheckoutRequest] = (*StagedCheckoutRequestEntity)(nil)

// StagedCheckoutRequestEntity maps a row of the staged_checkout_requests table.
// Every column corresponds 1:1 to a field of domain.StagedCheckoutRequest.
type StagedCheckoutRequestEntity struct {
	// ID is the primary key; zero until the row is inserted.
	ID int64 `gorm:"primaryKey;column:id"`
	// UserName is the display name of the user requesting the checkout.
	UserName string `gorm:"column:user_name;not null"`
	// PID identifies the requesting user.
	PID int64 `gorm:"column:pid;type:integer;not null;index"`
	// SelectedID is the equipment id picked by the ambassador, NULL until picked.
	SelectedID *int64 `gorm:"column:selected_id;type:integer"`
	// IDChoices lists the equipment ids offered to the ambassador.
	IDChoices pq.Int64Array `gorm:"column:id_choices;type:integer[];default:'{}'"`
}

func (StagedCheckoutRequestEntity) TableName() string { return "staged_checkout_requests" }

// FromModel builds an unpersisted entity from the domain model.
// Absent choices become an empty array.
func FromModel(model *domain.StagedCheckoutRequest) *StagedCheckoutRequestEntity {
	if model == nil {
		return nil
	}
	return &StagedCheckoutRequestEntity{
		ID:         model.ID,
		UserName:   model.UserName,
		PID:        model.PID,
		SelectedID: domain.CloneIDPtr(model.SelectedID),
		IDChoices:  toIDArray(model.IDChoices),
	}
}

func (e *StagedCheckoutRequestEntity) Identity() int64 { return e.ID }

// ToModel returns a domain copy of the row.
func (e *StagedCheckoutRequestEntity) ToModel() *domain.StagedCheckoutRequest {
	return &domain.StagedCheckoutRequest{
		ID:         e.ID,
		UserName:   e.UserName,
		PID:        e.PID,
		SelectedID: domain.CloneIDPtr(e.SelectedID),
		IDChoices:  domain.CloneIDs(e.IDChoices),
	}
}

// Update overwrites the mutable columns from model. The ID is never changed;
// a model with a different ID yields persistence.ErrIdentityMismatch and
// leaves the entity untouched.
func (e *StagedCheckoutRequestEntity) Update(model *domain.StagedCheckoutRequest) error {
	if model == nil {
		return errors.New("cannot update staged checkout request entity from nil model")
	}
	if err := persistence.CheckIdentity(e, "staged checkout request", model.ID); err != nil {
		return err
	}
	e.UserName = model.UserName
	e.PID = model.PID
	e.SelectedID = domain.CloneIDPtr(model.SelectedID)
	e.IDChoices = toIDArray(model.IDChoices)
	return nil
}

func toIDArray(ids []int64) pq.Int64Array {
	return pq.Int64Array(domain.CloneIDs(ids))
}
