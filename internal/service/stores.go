// Package service holds the application logic between HTTP handlers and the
// repositories: credential checks, uniqueness checks and the referential rules
// for registrations. Every error it returns is an *apperr.Error.
package service

import (
	"context"

	"github.com/geocoder89/eventsapp/internal/domain/event"
	"github.com/geocoder89/eventsapp/internal/domain/registration"
	"github.com/geocoder89/eventsapp/internal/domain/user"
)

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
	Update(ctx context.Context, u user.User) (user.User, error)
	Delete(ctx context.Context, id string) error
}

type EventStore interface {
	Create(ctx context.Context, e event.Event) (event.Event, error)
	GetByID(ctx context.Context, id string) (event.Event, error)
	GetByTitle(ctx context.Context, title string) (event.Event, error)
	List(ctx context.Context, f event.ListEventsFilter) ([]event.Event, int, error)
	Update(ctx context.Context, e event.Event) (event.Event, error)
	Delete(ctx context.Context, id string) error
}

type RegistrationStore interface {
	Create(ctx context.Context, r registration.Registration) (registration.Registration, error)
	GetByID(ctx context.Context, id string) (registration.Registration, error)
	List(ctx context.Context, f registration.ListFilter) ([]registration.Registration, error)
	Update(ctx context.Context, r registration.Registration) (registration.Registration, error)
	Delete(ctx context.Context, id string) error
}
