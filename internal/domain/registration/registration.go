package registration

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("registration not found")

type Registration struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	EventID      string    `json:"eventId"`
	RegisteredAt time.Time `json:"registeredAt"`
}

type CreateRegistrationRequest struct {
	UserID  string `json:"userId" binding:"required,uuid"`
	EventID string `json:"eventId" binding:"required,uuid"`
}

// UpdateRegistrationRequest fields are independently optional.
type UpdateRegistrationRequest struct {
	UserID  *string `json:"userId" binding:"omitempty,uuid"`
	EventID *string `json:"eventId" binding:"omitempty,uuid"`
}

func (r UpdateRegistrationRequest) Empty() bool {
	return r.UserID == nil && r.EventID == nil
}

// ListFilter narrows a listing; an empty UserID means all registrations.
type ListFilter struct {
	UserID  string
	EventID string
}

// A factory to build a Registration from the incoming DTO
func NewFromCreateRequest(req CreateRegistrationRequest) Registration {
	return Registration{
		ID:           uuid.NewString(),
		UserID:       req.UserID,
		EventID:      req.EventID,
		RegisteredAt: time.Now().UTC(),
	}
}
