package worker

import (
	"context"

	"github.com/geocoder89/eventsapp/internal/notifications"
)

// ProcessOne decodes and handles a single delivery, retrying with backoff. The
// delivery is always settled: ack on success, requeue on shutdown, drop after
// MaxAttempts or when the payload cannot be decoded.
func (w *Worker) ProcessOne(ctx context.Context, d notifications.Delivery) {
	msg, err := notifications.DecodeRegistrationCreated(d.Type, d.Body)
	if err != nil {
		w.log.Warn("dropping undecodable message", "type", d.Type, "err", err)
		w.settle(d.Nack(false))
		w.observe("invalid")
		return
	}

	for attempt := 0; attempt < w.cfg.MaxAttempts; attempt++ {
		hctx, cancel := context.WithTimeout(ctx, w.cfg.HandleTimeout)
		err = w.handler.Handle(hctx, msg)
		cancel()

		if err == nil {
			w.settle(d.Ack())
			w.observe("done")
			return
		}

		w.log.Warn("notification attempt failed",
			"registration_id", msg.RegistrationID,
			"attempt", attempt+1,
			"err", err,
		)

		if attempt+1 == w.cfg.MaxAttempts {
			break
		}

		delay := ExponentialBackoff(attempt, w.cfg.BaseBackoff, w.cfg.MaxBackoff)
		if w.sleep(ctx, delay) != nil {
			// shutting down; let another consumer pick it up
			w.settle(d.Nack(true))
			w.observe("requeued")
			return
		}
	}

	w.log.Error("notification failed permanently", "registration_id", msg.RegistrationID, "err", err)
	w.settle(d.Nack(false))
	w.observe("failed")
}

func (w *Worker) settle(err error) {
	if err != nil {
		w.log.Error("settle delivery failed", "err", err)
	}
}
