package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/Apurer/equipment-checkout/internal/domains/checkout/domain"
)

type normalizedStageRequest struct {
	UserName   string  `json:"user_name"`
	PID        int64   `json:"pid"`
	SelectedID *int64  `json:"selected_id"`
	IDChoices  []int64 `json:"id_choices"`
}

// FingerprintStageRequest builds a deterministic hash of a validated staging payload.
// Choice order is significant because it is stored as given.
func FingerprintStageRequest(req *domain.StagedCheckoutRequest) (string, error) {
	payload, err := json.Marshal(normalizedStageRequest{
		UserName:   req.UserName,
		PID:        req.PID,
		SelectedID: req.SelectedID,
		IDChoices:  domain.CloneIDs(req.IDChoices),
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
