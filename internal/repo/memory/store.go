// Package memory is a mutex-guarded in-process store with the same constraint
// semantics as the PostgreSQL schema: unique email, unique title, and
// registrations removed together with their user or event.
package memory

import (
	"context"
	"sync"

	"github.com/geocoder89/eventsapp/internal/domain/event"
	"github.com/geocoder89/eventsapp/internal/domain/registration"
	"github.com/geocoder89/eventsapp/internal/domain/user"
)

type Store struct {
	mu            sync.RWMutex
	users         map[string]user.User
	events        map[string]event.Event
	registrations map[string]registration.Registration
}

func NewStore() *Store {
	return &Store{
		users:         make(map[string]user.User),
		events:        make(map[string]event.Event),
		registrations: make(map[string]registration.Registration),
	}
}

func (s *Store) Users() *UsersRepo                 { return &UsersRepo{s: s} }
func (s *Store) Events() *EventsRepo               { return &EventsRepo{s: s} }
func (s *Store) Registrations() *RegistrationsRepo { return &RegistrationsRepo{s: s} }

// Ping satisfies the readiness check.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
