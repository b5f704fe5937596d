package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the schema for the checkout bounded context.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&stagedCheckoutRequestRecord{},
		&idempotencyKeyRecord{},
	)
}

// Staged checkout request schema mirrors the checkout Postgres adapter entity.
type stagedCheckoutRequestRecord struct {
	ID         int64         `gorm:"primaryKey;column:id"`
	UserName   string        `gorm:"column:user_name;not null"`
	PID        int64         `gorm:"column:pid;type:integer;not null;index"`
	SelectedID *int64        `gorm:"column:selected_id;type:integer"`
	IDChoices  pq.Int64Array `gorm:"column:id_choices;type:integer[];default:'{}'"`
}

func (stagedCheckoutRequestRecord) TableName() string { return "staged_checkout_requests" }

// Idempotency key schema mirrors the checkout Postgres idempotency store.
type idempotencyKeyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128;not null"`
	RequestID   int64     `gorm:"column:request_id;not null"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (idempotencyKeyRecord) TableName() string { return "staged_checkout_idempotency_keys" }
