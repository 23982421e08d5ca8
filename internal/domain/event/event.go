package event

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultCapacity = 100

var (
	ErrNotFound   = errors.New("event not found")
	ErrTitleTaken = errors.New("event title already exists")
)

type Event struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Date             time.Time `json:"date"`
	Location         string    `json:"location,omitempty"`
	Capacity         int       `json:"capacity"`
	ResponsibleEmail string    `json:"responsibleEmail,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// with pointers if optional, it will be nil
type ListEventsFilter struct {
	Location *string
	From     *time.Time
	To       *time.Time
	Query    *string
	Limit    int
	Offset   int
}

type CreateEventRequest struct {
	Title            string    `json:"title" binding:"required,min=3,max=120"`
	Description      string    `json:"description" binding:"omitempty,max=1000"`
	Date             time.Time `json:"date" binding:"required"`
	Location         string    `json:"location" binding:"omitempty,min=2,max=160"`
	Capacity         *int      `json:"capacity" binding:"omitempty,min=1,max=50000"`
	ResponsibleEmail string    `json:"responsibleEmail" binding:"omitempty,email,max=254"`
}

// UpdateEventRequest is a partial update; nil fields are left unchanged.
type UpdateEventRequest struct {
	Title            *string    `json:"title" binding:"omitempty,min=3,max=120"`
	Description      *string    `json:"description" binding:"omitempty,max=1000"`
	Date             *time.Time `json:"date"`
	Location         *string    `json:"location" binding:"omitempty,min=2,max=160"`
	Capacity         *int       `json:"capacity" binding:"omitempty,min=1,max=50000"`
	ResponsibleEmail *string    `json:"responsibleEmail" binding:"omitempty,email,max=254"`
}

func (r UpdateEventRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.Date == nil &&
		r.Location == nil && r.Capacity == nil && r.ResponsibleEmail == nil
}

// Apply copies the provided fields onto e and bumps UpdatedAt.
func (r UpdateEventRequest) Apply(e *Event) {
	if r.Title != nil {
		e.Title = strings.TrimSpace(*r.Title)
	}
	if r.Description != nil {
		e.Description = *r.Description
	}
	if r.Date != nil {
		e.Date = r.Date.UTC()
	}
	if r.Location != nil {
		e.Location = *r.Location
	}
	if r.Capacity != nil {
		e.Capacity = *r.Capacity
	}
	if r.ResponsibleEmail != nil {
		e.ResponsibleEmail = *r.ResponsibleEmail
	}
	e.UpdatedAt = time.Now().UTC()
}

func NewFromCreateRequest(req CreateEventRequest) Event {
	now := time.Now().UTC()

	capacity := DefaultCapacity
	if req.Capacity != nil {
		capacity = *req.Capacity
	}

	return Event{
		ID:               uuid.NewString(),
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		Date:             req.Date.UTC(),
		Location:         req.Location,
		Capacity:         capacity,
		ResponsibleEmail: req.ResponsibleEmail,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
