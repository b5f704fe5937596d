package domain

import (
	"errors"
	"slices"
	"strings"
)

var (
	ErrEmptyUserName       = errors.New("user name is required")
	ErrInvalidPID          = errors.New("pid must be greater than zero")
	ErrSelectionNotOffered = errors.New("selected equipment id is not among the offered choices")
)

// StagedCheckoutRequest is a checkout awaiting an ambassador's pick among candidate equipment ids.
type StagedCheckoutRequest struct {
	ID         int64
	UserName   string
	PID        int64
	SelectedID *int64
	IDChoices  []int64
}

// NewStagedCheckoutRequest builds an unpersisted request with no selection made yet.
func NewStagedCheckoutRequest(userName string, pid int64, idChoices []int64) (*StagedCheckoutRequest, error) {
	req := &StagedCheckoutRequest{
		UserName:  userName,
		PID:       pid,
		IDChoices: CloneIDs(idChoices),
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// Validate normalises the request and enforces field invariants.
func (r *StagedCheckoutRequest) Validate() error {
	r.UserName = strings.TrimSpace(r.UserName)
	if r.UserName == "" {
		return ErrEmptyUserName
	}
	if r.PID <= 0 {
		return ErrInvalidPID
	}
	if r.IDChoices == nil {
		r.IDChoices = []int64{}
	}
	return nil
}

// Select records the ambassador's choice. The id must be one of IDChoices.
func (r *StagedCheckoutRequest) Select(equipmentID int64) error {
	if !slices.Contains(r.IDChoices, equipmentID) {
		return ErrSelectionNotOffered
	}
	id := equipmentID
	r.SelectedID = &id
	return nil
}

// ClearSelection drops any previous pick.
func (r *StagedCheckoutRequest) ClearSelection() {
	r.SelectedID = nil
}

func (r *StagedCheckoutRequest) HasSelection() bool {
	return r.SelectedID != nil
}

// Clone returns a deep copy.
func (r *StagedCheckoutRequest) Clone() *StagedCheckoutRequest {
	if r == nil {
		return nil
	}
	clone := *r
	clone.SelectedID = CloneIDPtr(r.SelectedID)
	clone.IDChoices = CloneIDs(r.IDChoices)
	return &clone
}

// CloneIDs copies ids into a fresh, never-nil slice.
func CloneIDs(ids []int64) []int64 {
	out := make([]int64, len(ids))
	copy(out, ids)
	return out
}

func CloneIDPtr(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
