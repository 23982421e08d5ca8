package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/eventsapp/internal/auth"
	"github.com/geocoder89/eventsapp/internal/config"
	"github.com/geocoder89/eventsapp/internal/domain/user"
	"github.com/geocoder89/eventsapp/internal/security"
)

// AdminStore is the slice of the users repository the seed needs.
type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

// EnsureAdminUser creates the bootstrap admin when ADMIN_EMAIL and ADMIN_PASSWORD
// are set and no account with that email exists. An existing account is left as is.
func EnsureAdminUser(ctx context.Context, users AdminStore, hasher security.Hasher, cfg config.Config, log *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	email := user.NormalizeEmail(cfg.AdminEmail)

	_, err := users.GetByEmail(ctx, email)

	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := hasher.Hash(cfg.AdminPassword)

	if err != nil {
		return err
	}

	u := user.New(email, hash, cfg.AdminName, auth.RoleAdmin)

	_, err = users.Create(ctx, u)

	// lost a race with another instance
	if errors.Is(err, user.ErrEmailTaken) {
		return nil
	}
	if err != nil {
		return err
	}

	if log != nil {
		log.Info("admin user seeded", "email", email, "user_id", u.ID)
	}
	return nil
}
