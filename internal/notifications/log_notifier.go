package notifications

import (
	"context"
	"log/slog"
)

type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) RegistrationCreated(ctx context.Context, msg RegistrationCreated) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.registration_created",
		"registration_id", msg.RegistrationID,
		"user_id", msg.UserID,
		"email", msg.UserEmail,
		"event_id", msg.EventID,
		"event_title", msg.EventTitle,
	)
	return nil
}
