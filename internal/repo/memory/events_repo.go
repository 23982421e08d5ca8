package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/geocoder89/eventsapp/internal/domain/event"
)

type EventsRepo struct {
	s *Store
}

func (r *EventsRepo) Create(ctx context.Context, e event.Event) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.titleTakenLocked(e.Title, "") {
		return event.Event{}, event.ErrTitleTaken
	}
	r.s.events[e.ID] = e

	return e, nil
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.events[id]
	if !ok {
		return event.Event{}, event.ErrNotFound
	}
	return e, nil
}

func (r *EventsRepo) GetByTitle(ctx context.Context, title string) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, e := range r.s.events {
		if e.Title == title {
			return e, nil
		}
	}
	return event.Event{}, event.ErrNotFound
}

// List applies the same filters and ordering as the SQL query: date then id, ascending.
func (r *EventsRepo) List(ctx context.Context, f event.ListEventsFilter) ([]event.Event, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	r.s.mu.RLock()
	matched := make([]event.Event, 0, len(r.s.events))
	for _, e := range r.s.events {
		if matches(e, f) {
			matched = append(matched, e)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Date.Equal(matched[j].Date) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].Date.Before(matched[j].Date)
	})

	total := len(matched)

	start := f.Offset
	if start > total {
		start = total
	}
	end := total
	if f.Limit > 0 && start+f.Limit < total {
		end = start + f.Limit
	}

	return matched[start:end], total, nil
}

func matches(e event.Event, f event.ListEventsFilter) bool {
	if f.Location != nil && !strings.EqualFold(e.Location, *f.Location) {
		return false
	}
	if f.From != nil && e.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Date.After(*f.To) {
		return false
	}
	if f.Query != nil && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(*f.Query)) {
		return false
	}
	return true
}

func (r *EventsRepo) Update(ctx context.Context, e event.Event) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.events[e.ID]; !ok {
		return event.Event{}, event.ErrNotFound
	}
	if r.titleTakenLocked(e.Title, e.ID) {
		return event.Event{}, event.ErrTitleTaken
	}
	r.s.events[e.ID] = e

	return e, nil
}

func (r *EventsRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.events[id]; !ok {
		return event.ErrNotFound
	}
	delete(r.s.events, id)

	for regID, reg := range r.s.registrations {
		if reg.EventID == id {
			delete(r.s.registrations, regID)
		}
	}
	return nil
}

func (r *EventsRepo) titleTakenLocked(title, exceptID string) bool {
	for id, existing := range r.s.events {
		if id != exceptID && existing.Title == title {
			return true
		}
	}
	return false
}
