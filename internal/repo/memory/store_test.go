package memory

import (
	"context"
	"testing"
	"time"

	"github.com/geocoder89/eventsapp/internal/auth"
	"github.com/geocoder89/eventsapp/internal/domain/event"
	"github.com/geocoder89/eventsapp/internal/domain/registration"
	"github.com/geocoder89/eventsapp/internal/domain/user"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *Store) (user.User, event.Event) {
	t.Helper()
	ctx := context.Background()

	u, err := s.Users().Create(ctx, user.New("a@example.com", "hash", "A", auth.RoleAttendee))
	require.NoError(t, err)

	e, err := s.Events().Create(ctx, event.NewFromCreateRequest(event.CreateEventRequest{
		Title: "GopherCon",
		Date:  time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, err)

	return u, e
}

func TestUsers_UniqueEmail(t *testing.T) {
	s := NewStore()
	seed(t, s)

	_, err := s.Users().Create(context.Background(), user.New("A@example.com", "h", "B", ""))
	require.ErrorIs(t, err, user.ErrEmailTaken)

	all, err := s.Users().List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestEvents_UniqueTitleOnUpdate(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, first := seed(t, s)

	second, err := s.Events().Create(ctx, event.NewFromCreateRequest(event.CreateEventRequest{
		Title: "RustConf", Date: time.Now(),
	}))
	require.NoError(t, err)

	second.Title = first.Title
	_, err = s.Events().Update(ctx, second)
	require.ErrorIs(t, err, event.ErrTitleTaken)
}

func TestEvents_ListFiltersAndPaging(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, title := range []string{"Go Meetup", "Go Workshop", "Python Day"} {
		_, err := s.Events().Create(ctx, event.NewFromCreateRequest(event.CreateEventRequest{
			Title:    title,
			Date:     base.AddDate(0, 0, i),
			Location: "Lagos",
		}))
		require.NoError(t, err)
	}

	q := "go"
	items, total, err := s.Events().List(ctx, event.ListEventsFilter{Query: &q, Limit: 1})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, items, 1)
	require.Equal(t, "Go Meetup", items[0].Title)

	from := base.AddDate(0, 0, 2)
	items, total, err = s.Events().List(ctx, event.ListEventsFilter{From: &from, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "Python Day", items[0].Title)

	items, _, err = s.Events().List(ctx, event.ListEventsFilter{Limit: 10, Offset: 5})
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestRegistrations_ForeignKeys(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	u, e := seed(t, s)

	_, err := s.Registrations().Create(ctx, registration.NewFromCreateRequest(registration.CreateRegistrationRequest{
		UserID: "missing", EventID: e.ID,
	}))
	require.ErrorIs(t, err, user.ErrNotFound)

	_, err = s.Registrations().Create(ctx, registration.NewFromCreateRequest(registration.CreateRegistrationRequest{
		UserID: u.ID, EventID: "missing",
	}))
	require.ErrorIs(t, err, event.ErrNotFound)

	regs, err := s.Registrations().List(ctx, registration.ListFilter{})
	require.NoError(t, err)
	require.Empty(t, regs)
}

func TestDeleteEvent_CascadesRegistrations(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	u, e := seed(t, s)

	_, err := s.Registrations().Create(ctx, registration.NewFromCreateRequest(registration.CreateRegistrationRequest{
		UserID: u.ID, EventID: e.ID,
	}))
	require.NoError(t, err)

	require.NoError(t, s.Events().Delete(ctx, e.ID))

	regs, err := s.Registrations().List(ctx, registration.ListFilter{UserID: u.ID})
	require.NoError(t, err)
	require.Empty(t, regs)

	require.ErrorIs(t, s.Events().Delete(ctx, e.ID), event.ErrNotFound)
}

func TestCanceledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Users().List(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
