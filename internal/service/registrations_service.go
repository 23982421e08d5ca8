package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/eventsapp/internal/apperr"
	"github.com/geocoder89/eventsapp/internal/auth"
	"github.com/geocoder89/eventsapp/internal/domain/event"
	"github.com/geocoder89/eventsapp/internal/domain/registration"
	"github.com/geocoder89/eventsapp/internal/domain/user"
	"github.com/geocoder89/eventsapp/internal/notifications"
)

type RegistrationsService struct {
	regs     RegistrationStore
	users    UserStore
	events   EventStore
	notifier notifications.Notifier // optional
	log      *slog.Logger
}

func NewRegistrationsService(regs RegistrationStore, users UserStore, events EventStore, notifier notifications.Notifier, log *slog.Logger) *RegistrationsService {
	if log == nil {
		log = slog.Default()
	}
	return &RegistrationsService{regs: regs, users: users, events: events, notifier: notifier, log: log}
}

// Create resolves both references before inserting. The store's foreign keys
// catch a reference deleted in between and surface as the same NotFound.
func (s *RegistrationsService) Create(ctx context.Context, req registration.CreateRegistrationRequest) (registration.Registration, error) {
	u, err := resolveUser(ctx, s.users, req.UserID)
	if err != nil {
		return registration.Registration{}, err
	}
	e, err := resolveEvent(ctx, s.events, req.EventID)
	if err != nil {
		return registration.Registration{}, err
	}

	reg, err := s.regs.Create(ctx, registration.NewFromCreateRequest(req))
	if err != nil {
		return registration.Registration{}, translate(err, "create registration", req.UserID, req.EventID)
	}

	s.log.InfoContext(ctx, "registration created", "registration_id", reg.ID, "user_id", reg.UserID, "event_id", reg.EventID)
	s.notify(ctx, reg, u, e)

	return reg, nil
}

// notify is best effort; a failed notification never fails the request.
func (s *RegistrationsService) notify(ctx context.Context, reg registration.Registration, u user.User, e event.Event) {
	if s.notifier == nil {
		return
	}

	err := s.notifier.RegistrationCreated(ctx, notifications.RegistrationCreated{
		RegistrationID: reg.ID,
		UserID:         u.ID,
		UserEmail:      u.Email,
		UserName:       u.Name,
		EventID:        e.ID,
		EventTitle:     e.Title,
		RegisteredAt:   reg.RegisteredAt,
	})
	if err != nil {
		s.log.WarnContext(ctx, "registration notification failed", "registration_id", reg.ID, "err", err)
	}
}

// List scopes attendees to their own registrations.
func (s *RegistrationsService) List(ctx context.Context, caller auth.Identity, f registration.ListFilter) ([]registration.Registration, error) {
	if caller.Role == auth.RoleAttendee {
		f.UserID = caller.UserID
	}

	regs, err := s.regs.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err, "Could not list registrations")
	}
	return regs, nil
}

func (s *RegistrationsService) Get(ctx context.Context, id string) (registration.Registration, error) {
	return s.resolveRegistration(ctx, id)
}

// Update resolves each supplied reference on its own before substituting it.
func (s *RegistrationsService) Update(ctx context.Context, id string, req registration.UpdateRegistrationRequest) (registration.Registration, error) {
	reg, err := s.resolveRegistration(ctx, id)
	if err != nil {
		return registration.Registration{}, err
	}

	if req.UserID != nil {
		u, err := resolveUser(ctx, s.users, *req.UserID)
		if err != nil {
			return registration.Registration{}, err
		}
		reg.UserID = u.ID
	}

	if req.EventID != nil {
		e, err := resolveEvent(ctx, s.events, *req.EventID)
		if err != nil {
			return registration.Registration{}, err
		}
		reg.EventID = e.ID
	}

	updated, err := s.regs.Update(ctx, reg)
	if err != nil {
		if errors.Is(err, registration.ErrNotFound) {
			return registration.Registration{}, registrationNotFound(id)
		}
		return registration.Registration{}, translate(err, "update registration", reg.UserID, reg.EventID)
	}
	return updated, nil
}

func (s *RegistrationsService) Delete(ctx context.Context, id string) error {
	if err := s.regs.Delete(ctx, id); err != nil {
		if errors.Is(err, registration.ErrNotFound) {
			return registrationNotFound(id)
		}
		return apperr.Internal(err, "Could not delete registration")
	}

	s.log.InfoContext(ctx, "registration deleted", audit(ctx, "registration_id", id)...)
	return nil
}

func (s *RegistrationsService) resolveRegistration(ctx context.Context, id string) (registration.Registration, error) {
	reg, err := s.regs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, registration.ErrNotFound) {
			return registration.Registration{}, registrationNotFound(id)
		}
		return registration.Registration{}, apperr.Internal(err, "Could not load registration")
	}
	return reg, nil
}
