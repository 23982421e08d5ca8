package cache

import (
	"context"
	"testing"
	"time"

	"github.com/geocoder89/eventsapp/internal/domain/event"
	"github.com/stretchr/testify/require"
)

type countingObserver map[string]int

func (o countingObserver) ObserveCache(keyspace, result string) { o[keyspace+":"+result]++ }

func TestMemory_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory(time.Minute)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), 0))

	got, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	require.Equal(t, "v", string(got))

	now = now.Add(2 * time.Minute)
	_, err = c.Get(context.Background(), "k")
	require.ErrorIs(t, err, ErrMiss)
}

func TestMemory_IncrNeverExpires(t *testing.T) {
	now := time.Now()
	c := NewMemory(time.Second)
	c.now = func() time.Time { return now }

	n, err := c.Incr(context.Background(), "gen")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	now = now.Add(time.Hour)
	c.Sweep()

	n, err = c.Incr(context.Background(), "gen")
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}

func TestEventCache_InvalidateOrphansEntries(t *testing.T) {
	ctx := context.Background()
	obs := countingObserver{}
	ec := NewEventCache(NewMemory(time.Minute), time.Minute, obs)

	_, gen, ok := ec.GetEvent(ctx, "e1")
	require.False(t, ok)

	e := event.Event{ID: "e1", Title: "GopherCon"}
	ec.SetEvent(ctx, gen, e)

	got, _, ok := ec.GetEvent(ctx, "e1")
	require.True(t, ok)
	require.Equal(t, "GopherCon", got.Title)

	require.NoError(t, ec.Invalidate(ctx))

	_, _, ok = ec.GetEvent(ctx, "e1")
	require.False(t, ok)
	require.Equal(t, 1, obs["event:hit"])
	require.Equal(t, 2, obs["event:miss"])
}

func TestEventCache_ListKeyNormalizesFilter(t *testing.T) {
	ctx := context.Background()
	ec := NewEventCache(NewMemory(time.Minute), time.Minute, nil)

	a, b := " Lagos ", "lagos"
	_, gen, _ := ec.GetList(ctx, event.ListEventsFilter{Location: &a, Limit: 10})
	ec.SetList(ctx, gen, event.ListEventsFilter{Location: &a, Limit: 10}, EventPage{Items: []event.Event{{ID: "x"}}, Total: 1})

	page, _, ok := ec.GetList(ctx, event.ListEventsFilter{Location: &b, Limit: 10})
	require.True(t, ok)
	require.Equal(t, 1, page.Total)

	_, _, ok = ec.GetList(ctx, event.ListEventsFilter{Location: &b, Limit: 20})
	require.False(t, ok)
}

func TestEventCache_FillAfterInvalidateIsDropped(t *testing.T) {
	ctx := context.Background()
	ec := NewEventCache(NewMemory(time.Minute), time.Minute, nil)

	// a reader misses and loads the row as it was
	_, gen, ok := ec.GetEvent(ctx, "e1")
	require.False(t, ok)
	stale := event.Event{ID: "e1", Title: "old"}

	// a writer updates the row and invalidates before the reader fills
	require.NoError(t, ec.Invalidate(ctx))
	ec.SetEvent(ctx, gen, stale)

	_, _, ok = ec.GetEvent(ctx, "e1")
	require.False(t, ok, "stale fill must not be served")

	_, listGen, _ := ec.GetList(ctx, event.ListEventsFilter{Limit: 10})
	require.NoError(t, ec.Invalidate(ctx))
	ec.SetList(ctx, listGen, event.ListEventsFilter{Limit: 10}, EventPage{Items: []event.Event{stale}, Total: 1})

	_, _, ok = ec.GetList(ctx, event.ListEventsFilter{Limit: 10})
	require.False(t, ok)
}

func TestEventCache_FillSkippedWhenGenerationUnknown(t *testing.T) {
	ctx := context.Background()
	ec := NewEventCache(NewMemory(time.Minute), time.Minute, nil)

	ec.SetEvent(ctx, NoGeneration, event.Event{ID: "e1"})

	_, _, ok := ec.GetEvent(ctx, "e1")
	require.False(t, ok)
}
