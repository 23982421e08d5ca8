package service

import (
	"errors"

	"github.com/geocoder89/eventsapp/internal/apperr"
	"github.com/geocoder89/eventsapp/internal/domain/event"
	"github.com/geocoder89/eventsapp/internal/domain/registration"
	"github.com/geocoder89/eventsapp/internal/domain/user"
)

const (
	msgEmailTaken         = "Email is already in use"
	msgTitleTaken         = "An event with this title already exists"
	msgInvalidCredentials = "Invalid credentials"
)

func userNotFound(id string) *apperr.Error {
	return apperr.NotFound("User with id %s not found", id).WithCause(user.ErrNotFound)
}

func eventNotFound(id string) *apperr.Error {
	return apperr.NotFound("Event with id %s not found", id).WithCause(event.ErrNotFound)
}

func registrationNotFound(id string) *apperr.Error {
	return apperr.NotFound("Registration with id %s not found", id).WithCause(registration.ErrNotFound)
}

func emailTaken() *apperr.Error {
	return apperr.Conflict(msgEmailTaken).WithCause(user.ErrEmailTaken)
}

func titleTaken() *apperr.Error {
	return apperr.Conflict(msgTitleTaken).WithCause(event.ErrTitleTaken)
}

// translate maps repository sentinels that can surface from a write.
// userID and eventID name the references for the NotFound message.
func translate(err error, op, userID, eventID string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, user.ErrEmailTaken):
		return emailTaken()
	case errors.Is(err, event.ErrTitleTaken):
		return titleTaken()
	case errors.Is(err, user.ErrNotFound):
		return userNotFound(userID)
	case errors.Is(err, event.ErrNotFound):
		return eventNotFound(eventID)
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperr.Internal(err, "Could not %s", op)
}
