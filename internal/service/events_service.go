package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/geocoder89/eventsapp/internal/apperr"
	"github.com/geocoder89/eventsapp/internal/cache"
	"github.com/geocoder89/eventsapp/internal/domain/event"
)

const (
	DefaultEventsLimit = 50
	MaxEventsLimit     = 100
)

type EventsService struct {
	events EventStore
	cache  *cache.EventCache // optional
	log    *slog.Logger
}

func NewEventsService(events EventStore, c *cache.EventCache, log *slog.Logger) *EventsService {
	if log == nil {
		log = slog.Default()
	}
	return &EventsService{events: events, cache: c, log: log}
}

func (s *EventsService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.WarnContext(ctx, "event cache invalidation failed", "err", err)
	}
}

func (s *EventsService) Create(ctx context.Context, req event.CreateEventRequest) (event.Event, error) {
	e := event.NewFromCreateRequest(req)

	if err := s.ensureTitleFree(ctx, e.Title, ""); err != nil {
		return event.Event{}, err
	}

	created, err := s.events.Create(ctx, e)
	if err != nil {
		return event.Event{}, translate(err, "create event", "", "")
	}

	s.invalidate(ctx)
	s.log.InfoContext(ctx, "event created", audit(ctx, "event_id", created.ID)...)
	return created, nil
}

// List clamps paging to sane bounds before hitting the cache or the store.
func (s *EventsService) List(ctx context.Context, f event.ListEventsFilter) (cache.EventPage, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultEventsLimit
	}
	if f.Limit > MaxEventsLimit {
		f.Limit = MaxEventsLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return cache.EventPage{}, apperr.Validation("from must be before to")
	}

	gen := cache.NoGeneration
	if s.cache != nil {
		page, g, ok := s.cache.GetList(ctx, f)
		if ok {
			return page, nil
		}
		gen = g
	}

	items, total, err := s.events.List(ctx, f)
	if err != nil {
		return cache.EventPage{}, apperr.Internal(err, "Could not list events")
	}

	page := cache.EventPage{Items: items, Total: total}
	if s.cache != nil {
		s.cache.SetList(ctx, gen, f, page)
	}
	return page, nil
}

func (s *EventsService) Get(ctx context.Context, id string) (event.Event, error) {
	gen := cache.NoGeneration
	if s.cache != nil {
		e, g, ok := s.cache.GetEvent(ctx, id)
		if ok {
			return e, nil
		}
		gen = g
	}

	e, err := s.resolveEvent(ctx, id)
	if err != nil {
		return event.Event{}, err
	}

	if s.cache != nil {
		s.cache.SetEvent(ctx, gen, e)
	}
	return e, nil
}

func (s *EventsService) Update(ctx context.Context, id string, req event.UpdateEventRequest) (event.Event, error) {
	e, err := s.resolveEvent(ctx, id)
	if err != nil {
		return event.Event{}, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title != e.Title {
			if err := s.ensureTitleFree(ctx, title, e.ID); err != nil {
				return event.Event{}, err
			}
		}
	}

	req.Apply(&e)

	updated, err := s.events.Update(ctx, e)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			return event.Event{}, eventNotFound(id)
		}
		return event.Event{}, translate(err, "update event", "", id)
	}

	s.invalidate(ctx)
	return updated, nil
}

func (s *EventsService) Delete(ctx context.Context, id string) error {
	if err := s.events.Delete(ctx, id); err != nil {
		if errors.Is(err, event.ErrNotFound) {
			return eventNotFound(id)
		}
		return apperr.Internal(err, "Could not delete event")
	}

	s.invalidate(ctx)
	s.log.InfoContext(ctx, "event deleted", audit(ctx, "event_id", id)...)
	return nil
}

// advisory; the unique constraint decides races
func (s *EventsService) ensureTitleFree(ctx context.Context, title, exceptID string) error {
	other, err := s.events.GetByTitle(ctx, title)
	switch {
	case err == nil && other.ID != exceptID:
		return titleTaken()
	case err != nil && !errors.Is(err, event.ErrNotFound):
		return apperr.Internal(err, "Could not check event title")
	}
	return nil
}

func (s *EventsService) resolveEvent(ctx context.Context, id string) (event.Event, error) {
	return resolveEvent(ctx, s.events, id)
}

func resolveEvent(ctx context.Context, events EventStore, id string) (event.Event, error) {
	e, err := events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			return event.Event{}, eventNotFound(id)
		}
		return event.Event{}, apperr.Internal(err, "Could not load event")
	}
	return e, nil
}
