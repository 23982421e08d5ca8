package memory

import (
	"context"
	"sort"

	"github.com/geocoder89/eventsapp/internal/domain/event"
	"github.com/geocoder89/eventsapp/internal/domain/registration"
	"github.com/geocoder89/eventsapp/internal/domain/user"
)

type RegistrationsRepo struct {
	s *Store
}

// Create enforces the foreign keys the way the schema does.
func (r *RegistrationsRepo) Create(ctx context.Context, reg registration.Registration) (registration.Registration, error) {
	if err := ctx.Err(); err != nil {
		return registration.Registration{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkRefsLocked(reg); err != nil {
		return registration.Registration{}, err
	}
	r.s.registrations[reg.ID] = reg

	return reg, nil
}

func (r *RegistrationsRepo) GetByID(ctx context.Context, id string) (registration.Registration, error) {
	if err := ctx.Err(); err != nil {
		return registration.Registration{}, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	reg, ok := r.s.registrations[id]
	if !ok {
		return registration.Registration{}, registration.ErrNotFound
	}
	return reg, nil
}

func (r *RegistrationsRepo) List(ctx context.Context, f registration.ListFilter) ([]registration.Registration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	out := make([]registration.Registration, 0)
	for _, reg := range r.s.registrations {
		if f.UserID != "" && reg.UserID != f.UserID {
			continue
		}
		if f.EventID != "" && reg.EventID != f.EventID {
			continue
		}
		out = append(out, reg)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].RegisteredAt.Before(out[j].RegisteredAt)
	})
	return out, nil
}

func (r *RegistrationsRepo) Update(ctx context.Context, reg registration.Registration) (registration.Registration, error) {
	if err := ctx.Err(); err != nil {
		return registration.Registration{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.registrations[reg.ID]; !ok {
		return registration.Registration{}, registration.ErrNotFound
	}
	if err := r.checkRefsLocked(reg); err != nil {
		return registration.Registration{}, err
	}
	r.s.registrations[reg.ID] = reg

	return reg, nil
}

func (r *RegistrationsRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.registrations[id]; !ok {
		return registration.ErrNotFound
	}
	delete(r.s.registrations, id)
	return nil
}

func (r *RegistrationsRepo) checkRefsLocked(reg registration.Registration) error {
	if _, ok := r.s.users[reg.UserID]; !ok {
		return user.ErrNotFound
	}
	if _, ok := r.s.events[reg.EventID]; !ok {
		return event.ErrNotFound
	}
	return nil
}
