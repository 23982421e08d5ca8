package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/geocoder89/eventsapp/internal/domain/event"
)

// Observer receives hit/miss/error outcomes; *observability.Prom satisfies it.
type Observer interface {
	ObserveCache(keyspace, result string)
}

type EventPage struct {
	Items []event.Event `json:"items"`
	Total int           `json:"total"`
}

// EventCache stores events and list pages. Errors from the backend are reported
// as misses so a cache outage only costs latency.
type EventCache struct {
	store Store
	ttl   time.Duration
	obs   Observer
}

func NewEventCache(store Store, ttl time.Duration, obs Observer) *EventCache {
	return &EventCache{store: store, ttl: ttl, obs: obs}
}

func (c *EventCache) observe(keyspace, result string) {
	if c.obs != nil {
		c.obs.ObserveCache(keyspace, result)
	}
}

func (c *EventCache) generation(ctx context.Context) (int64, error) {
	raw, err := c.store.Get(ctx, eventsGenKey)
	if errors.Is(err, ErrMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(string(raw), 10, 64)
}

// Generation is the invalidation counter a lookup ran under. A fill must carry
// the value its miss returned so a concurrent Invalidate is never overwritten.
type Generation int64

// NoGeneration marks a lookup whose counter could not be read; fills are skipped.
const NoGeneration Generation = -1

func (c *EventCache) get(ctx context.Context, keyspace string, key func(int64) string, dst any) (Generation, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.observe(keyspace, "error")
		return NoGeneration, false
	}

	raw, err := c.store.Get(ctx, key(gen))
	switch {
	case errors.Is(err, ErrMiss):
		c.observe(keyspace, "miss")
		return Generation(gen), false
	case err != nil:
		c.observe(keyspace, "error")
		return Generation(gen), false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		c.observe(keyspace, "error")
		return Generation(gen), false
	}
	c.observe(keyspace, "hit")
	return Generation(gen), true
}

// set stores v under gen only while gen is still current. A stale fill written
// after the check lands under a key no reader will build again.
func (c *EventCache) set(ctx context.Context, gen Generation, key func(int64) string, v any) {
	if gen < 0 {
		return
	}
	current, err := c.generation(ctx)
	if err != nil || current != int64(gen) {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.store.Set(ctx, key(int64(gen)), raw, c.ttl)
}

// GetEvent returns the cached event and the generation to pass to SetEvent on a miss.
func (c *EventCache) GetEvent(ctx context.Context, id string) (event.Event, Generation, bool) {
	var e event.Event
	gen, ok := c.get(ctx, "event", func(g int64) string { return eventKey(g, id) }, &e)
	return e, gen, ok
}

func (c *EventCache) SetEvent(ctx context.Context, gen Generation, e event.Event) {
	c.set(ctx, gen, func(g int64) string { return eventKey(g, e.ID) }, e)
}

func (c *EventCache) GetList(ctx context.Context, f event.ListEventsFilter) (EventPage, Generation, bool) {
	var p EventPage
	gen, ok := c.get(ctx, "events_list", func(g int64) string { return eventsListKey(g, f) }, &p)
	return p, gen, ok
}

func (c *EventCache) SetList(ctx context.Context, gen Generation, f event.ListEventsFilter, p EventPage) {
	c.set(ctx, gen, func(g int64) string { return eventsListKey(g, f) }, p)
}

// Invalidate orphans every cached event and list page.
func (c *EventCache) Invalidate(ctx context.Context) error {
	_, err := c.store.Incr(ctx, eventsGenKey)
	return err
}

func (c *EventCache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}
