package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/geocoder89/eventsapp/internal/domain/event"
	"github.com/geocoder89/eventsapp/internal/domain/registration"
	"github.com/geocoder89/eventsapp/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		fn   func(error) error
		in   error
		want error
	}{
		{"user no rows", mapUserErr, pgx.ErrNoRows, user.ErrNotFound},
		{"user dup email", mapUserErr, &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}, user.ErrEmailTaken},
		{"event dup title", mapEventErr, fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23505", ConstraintName: "events_title_key"}), event.ErrTitleTaken},
		{"event bad uuid", mapEventErr, &pgconn.PgError{Code: "22P02"}, event.ErrNotFound},
		{"registration missing user", mapRegistrationErr, &pgconn.PgError{Code: "23503", ConstraintName: "registrations_user_id_fkey"}, user.ErrNotFound},
		{"registration missing event", mapRegistrationErr, &pgconn.PgError{Code: "23503", ConstraintName: "registrations_event_id_fkey"}, event.ErrNotFound},
		{"registration no rows", mapRegistrationErr, pgx.ErrNoRows, registration.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); !errors.Is(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorMapping_PassesThroughUnknown(t *testing.T) {
	boom := errors.New("boom")
	if got := mapUserErr(boom); got != boom {
		t.Fatalf("expected passthrough, got %v", got)
	}
}

func TestBuildListQuery(t *testing.T) {
	loc, q := "Lagos", "50%_off"
	query, args := buildListQuery(event.ListEventsFilter{Location: &loc, Query: &q, Limit: 10, Offset: 20})

	if !strings.Contains(query, "lower(location) = lower($1)") {
		t.Fatalf("missing location cond: %s", query)
	}
	if !strings.Contains(query, "title ILIKE '%' || $2 || '%'") {
		t.Fatalf("missing title cond: %s", query)
	}
	if !strings.HasSuffix(query, "LIMIT $3 OFFSET $4") {
		t.Fatalf("unexpected paging: %s", query)
	}
	if len(args) != 4 || args[1] != `50\%\_off` || args[2] != 10 || args[3] != 20 {
		t.Fatalf("unexpected args: %#v", args)
	}
}
