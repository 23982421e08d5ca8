package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/eventsapp/internal/domain/event"
	"github.com/geocoder89/eventsapp/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `id, title, description, date, location, capacity, responsible_email, created_at, updated_at`

type EventsRepo struct {
	base
}

// constructor function

func NewEventsRepo(pool *pgxpool.Pool, prom *observability.Prom) *EventsRepo {
	return &EventsRepo{base{pool: pool, prom: prom}}
}

func scanEvent(row pgx.Row, extra ...any) (event.Event, error) {
	var e event.Event
	dest := append([]any{&e.ID, &e.Title, &e.Description, &e.Date, &e.Location, &e.Capacity, &e.ResponsibleEmail, &e.CreatedAt, &e.UpdatedAt}, extra...)

	if err := row.Scan(dest...); err != nil {
		return event.Event{}, err
	}
	e.Date = e.Date.UTC()
	return e, nil
}

func mapEventErr(err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows), isInvalidUUID(err):
		return event.ErrNotFound
	case IsUniqueViolation(err) && constraintName(err) == "events_title_key":
		return event.ErrTitleTaken
	default:
		return err
	}
}

func (r *EventsRepo) Create(ctx context.Context, e event.Event) (event.Event, error) {
	err := r.observe("events.create", func() error {
		_, x := r.pool.Exec(ctx,
			`INSERT INTO events (`+eventColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			e.ID, e.Title, e.Description, e.Date, e.Location, e.Capacity, e.ResponsibleEmail, e.CreatedAt, e.UpdatedAt,
		)
		return x
	})

	if err != nil {
		return event.Event{}, mapEventErr(err)
	}
	return e, nil
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (e event.Event, err error) {
	err = r.observe("events.get_by_id", func() error {
		var x error
		e, x = scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
		return x
	})

	if err != nil {
		return event.Event{}, mapEventErr(err)
	}
	return e, nil
}

func (r *EventsRepo) GetByTitle(ctx context.Context, title string) (e event.Event, err error) {
	err = r.observe("events.get_by_title", func() error {
		var x error
		e, x = scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE title = $1`, title))
		return x
	})

	if err != nil {
		return event.Event{}, mapEventErr(err)
	}
	return e, nil
}

func (r *EventsRepo) List(ctx context.Context, f event.ListEventsFilter) ([]event.Event, int, error) {
	query, args := buildListQuery(f)

	var rows pgx.Rows
	err := r.observe("events.list", func() error {
		var x error
		rows, x = r.pool.Query(ctx, query, args...)
		return x
	})
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	output := make([]event.Event, 0, f.Limit)
	total := 0

	for rows.Next() {
		var t int
		e, err := scanEvent(rows, &t)
		if err != nil {
			return nil, 0, err
		}
		total = t
		output = append(output, e)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// an offset past the end returns no rows, so the window count is lost
	if len(output) == 0 && f.Offset > 0 {
		total, err = r.count(ctx, f)
		if err != nil {
			return nil, 0, err
		}
	}

	return output, total, nil
}

func (r *EventsRepo) count(ctx context.Context, f event.ListEventsFilter) (int, error) {
	where, args := buildWhere(f)

	var total int
	err := r.observe("events.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events`+where, args...).Scan(&total)
	})
	return total, err
}

func buildWhere(f event.ListEventsFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Location != nil {
		add("lower(location) = lower($%d)", *f.Location)
	}
	if f.From != nil {
		add("date >= $%d", *f.From)
	}
	if f.To != nil {
		add("date <= $%d", *f.To)
	}
	if f.Query != nil {
		add("title ILIKE '%%' || $%d || '%%'", escapeLike(*f.Query))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func buildListQuery(f event.ListEventsFilter) (string, []any) {
	where, args := buildWhere(f)

	query := `SELECT ` + eventColumns + `, COUNT(*) OVER() AS total FROM events` + where

	// stable ordering for pagination
	query += fmt.Sprintf(" ORDER BY date ASC, id ASC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	return query, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *EventsRepo) Update(ctx context.Context, e event.Event) (updated event.Event, err error) {
	err = r.observe("events.update", func() error {
		var x error
		updated, x = scanEvent(r.pool.QueryRow(ctx,
			`UPDATE events
				SET title = $2,
					description = $3,
					date = $4,
					location = $5,
					capacity = $6,
					responsible_email = $7,
					updated_at = $8
			WHERE id = $1
			RETURNING `+eventColumns,
			e.ID, e.Title, e.Description, e.Date, e.Location, e.Capacity, e.ResponsibleEmail, e.UpdatedAt,
		))
		return x
	})

	if err != nil {
		return event.Event{}, mapEventErr(err)
	}
	return updated, nil
}

func (r *EventsRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.observe("events.delete", func() error {
		tag, x := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return x
	})

	if err != nil {
		return mapEventErr(err)
	}

	if affected == 0 {
		return event.ErrNotFound
	}
	return nil
}
