package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/eventsapp/internal/domain/event"
	"github.com/geocoder89/eventsapp/internal/domain/registration"
	"github.com/geocoder89/eventsapp/internal/domain/user"
	"github.com/geocoder89/eventsapp/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const registrationColumns = `id, user_id, event_id, registered_at`

type RegistrationsRepo struct {
	base
}

func NewRegistrationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *RegistrationsRepo {
	return &RegistrationsRepo{base{pool: pool, prom: prom}}
}

func scanRegistration(row pgx.Row) (registration.Registration, error) {
	var reg registration.Registration

	if err := row.Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.RegisteredAt); err != nil {
		return registration.Registration{}, err
	}
	reg.RegisteredAt = reg.RegisteredAt.UTC()
	return reg, nil
}

// mapRegistrationErr turns a FK violation back into the NotFound of the missing side.
func mapRegistrationErr(err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows), isInvalidUUID(err):
		return registration.ErrNotFound
	case IsForeignKeyViolation(err):
		switch constraintName(err) {
		case "registrations_user_id_fkey":
			return user.ErrNotFound
		case "registrations_event_id_fkey":
			return event.ErrNotFound
		}
		return err
	default:
		return err
	}
}

func (repo *RegistrationsRepo) Create(ctx context.Context, reg registration.Registration) (registration.Registration, error) {
	err := repo.observe("registrations.create", func() error {
		_, e := repo.pool.Exec(ctx,
			`INSERT INTO registrations (`+registrationColumns+`) VALUES ($1,$2,$3,$4)`,
			reg.ID, reg.UserID, reg.EventID, reg.RegisteredAt,
		)
		return e
	})

	if err != nil {
		return registration.Registration{}, mapRegistrationErr(err)
	}
	return reg, nil
}

func (repo *RegistrationsRepo) GetByID(ctx context.Context, id string) (reg registration.Registration, err error) {
	err = repo.observe("registrations.get_by_id", func() error {
		var e error
		reg, e = scanRegistration(repo.pool.QueryRow(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id))
		return e
	})

	if err != nil {
		return registration.Registration{}, mapRegistrationErr(err)
	}
	return reg, nil
}

func (repo *RegistrationsRepo) List(ctx context.Context, f registration.ListFilter) ([]registration.Registration, error) {
	var conds []string
	var args []any

	if f.UserID != "" {
		args = append(args, f.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.EventID != "" {
		args = append(args, f.EventID)
		conds = append(conds, fmt.Sprintf("event_id = $%d", len(args)))
	}

	query := `SELECT ` + registrationColumns + ` FROM registrations`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY registered_at ASC, id ASC"

	var rows pgx.Rows
	err := repo.observe("registrations.list", func() error {
		var e error
		rows, e = repo.pool.Query(ctx, query, args...)
		return e
	})
	if err != nil {
		if isInvalidUUID(err) {
			return []registration.Registration{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	regs := make([]registration.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}

	if err := rows.Err(); err != nil {
		if repo.prom != nil {
			repo.prom.DbErrorsTotal.WithLabelValues("registrations.list", "rows_err").Inc()
		}
		return nil, err
	}
	return regs, nil
}

func (repo *RegistrationsRepo) Update(ctx context.Context, reg registration.Registration) (updated registration.Registration, err error) {
	err = repo.observe("registrations.update", func() error {
		var e error
		updated, e = scanRegistration(repo.pool.QueryRow(ctx,
			`UPDATE registrations
				SET user_id = $2,
					event_id = $3
			WHERE id = $1
			RETURNING `+registrationColumns,
			reg.ID, reg.UserID, reg.EventID,
		))
		return e
	})

	if err != nil {
		return registration.Registration{}, mapRegistrationErr(err)
	}
	return updated, nil
}

func (repo *RegistrationsRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := repo.observe("registrations.delete", func() error {
		tag, e := repo.pool.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return e
	})

	if err != nil {
		return mapRegistrationErr(err)
	}

	if affected == 0 {
		return registration.ErrNotFound
	}
	return nil
}
