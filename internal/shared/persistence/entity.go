// Package persistence holds the contracts shared by table-mapped entities.
package persistence

import (
	"errors"
	"fmt"
)

// ErrIdentityMismatch is returned when an entity is updated from a model
// carrying a different identifier. It signals a caller bug and is not retryable.
var ErrIdentityMismatch = errors.New("model id does not match entity id")

// Identified is implemented by anything carrying a storage identity.
type Identified interface {
	Identity() int64
}

// Entity is a table-mapped row that converts to and from its domain model M.
type Entity[M any] interface {
	Identified
	ToModel() M
	Update(model M) error
}

// CheckIdentity guards in-place updates: it fails unless modelID matches the entity.
func CheckIdentity(entity Identified, kind string, modelID int64) error {
	if entity.Identity() != modelID {
		return fmt.Errorf("%w: cannot update %s %d from model %d", ErrIdentityMismatch, kind, entity.Identity(), modelID)
	}
	return nil
}
