package worker

import (
	"context"
	"log/slog"

	"github.com/geocoder89/eventsapp/internal/notifications"
)

// LogConfirmations records the confirmation that would be mailed to the attendee.
type LogConfirmations struct {
	log *slog.Logger
}

func NewLogConfirmations(log *slog.Logger) *LogConfirmations {
	if log == nil {
		log = slog.Default()
	}
	return &LogConfirmations{log: log}
}

func (h *LogConfirmations) Handle(ctx context.Context, msg notifications.RegistrationCreated) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.log.InfoContext(ctx, "registration confirmation sent",
		"registration_id", msg.RegistrationID,
		"email", msg.UserEmail,
		"event_title", msg.EventTitle,
	)
	return nil
}
