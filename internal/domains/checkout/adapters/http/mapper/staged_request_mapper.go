package mapper

import (
	"github.com/Apurer/equipment-checkout/internal/domains/checkout/domain"
)

// StagedCheckoutRequest is the JSON shape exchanged with the equipment frontend.
type StagedCheckoutRequest struct {
	ID         int64   `json:"id"`
	UserName   string  `json:"user_name"`
	PID        int64   `json:"pid"`
	SelectedID *int64  `json:"selected_id"`
	IDChoices  []int64 `json:"id_choices"`
}

// Selection carries an ambassador's pick for a staged request.
type Selection struct {
	SelectedID *int64 `json:"selected_id" binding:"required"`
}

// ToDomain converts the transport payload into the checkout domain model.
func ToDomain(payload StagedCheckoutRequest) *domain.StagedCheckoutRequest {
	return &domain.StagedCheckoutRequest{
		ID:         payload.ID,
		UserName:   payload.UserName,
		PID:        payload.PID,
		SelectedID: domain.CloneIDPtr(payload.SelectedID),
		IDChoices:  domain.CloneIDs(payload.IDChoices),
	}
}

func FromDomain(req *domain.StagedCheckoutRequest) StagedCheckoutRequest {
	if req == nil {
		return StagedCheckoutRequest{}
	}
	return StagedCheckoutRequest{
		ID:         req.ID,
		UserName:   req.UserName,
		PID:        req.PID,
		SelectedID: domain.CloneIDPtr(req.SelectedID),
		IDChoices:  domain.CloneIDs(req.IDChoices),
	}
}

func FromDomainList(list []*domain.StagedCheckoutRequest) []StagedCheckoutRequest {
	out := make([]StagedCheckoutRequest, 0, len(list))
	for _, req := range list {
		out = append(out, FromDomain(req))
	}
	return out
}
