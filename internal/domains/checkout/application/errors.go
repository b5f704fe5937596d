package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/equipment-checkout/internal/domains/checkout/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid staged checkout request input")
	// ErrInvalidSelection signals an ambassador picked an id that was not offered.
	ErrInvalidSelection = errors.New("invalid equipment selection")
	// ErrIDAssigned signals a staging call that tried to choose its own id.
	ErrIDAssigned = errors.New("id is assigned by the server")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyUserName) ||
		errors.Is(err, domain.ErrInvalidPID) ||
		errors.Is(err, ErrIDAssigned) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if errors.Is(err, domain.ErrSelectionNotOffered) {
		return fmt.Errorf("%w: %w", ErrInvalidSelection, err)
	}
	return err
}
