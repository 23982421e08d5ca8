package notifications

import (
	"context"
	"time"
)

// RegistrationCreated is published after a registration row is committed.
type RegistrationCreated struct {
	RegistrationID string    `json:"registrationId"`
	UserID         string    `json:"userId"`
	UserEmail      string    `json:"userEmail"`
	UserName       string    `json:"userName"`
	EventID        string    `json:"eventId"`
	EventTitle     string    `json:"eventTitle"`
	RegisteredAt   time.Time `json:"registeredAt"`
}

type Notifier interface {
	RegistrationCreated(ctx context.Context, msg RegistrationCreated) error
}
