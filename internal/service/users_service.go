package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/geocoder89/eventsapp/internal/apperr"
	"github.com/geocoder89/eventsapp/internal/auth"
	"github.com/geocoder89/eventsapp/internal/domain/user"
	"github.com/geocoder89/eventsapp/internal/security"
)

type UsersService struct {
	users  UserStore
	hasher security.Hasher
	log    *slog.Logger
}

func NewUsersService(users UserStore, hasher security.Hasher, log *slog.Logger) *UsersService {
	if log == nil {
		log = slog.Default()
	}
	return &UsersService{users: users, hasher: hasher, log: log}
}

func (s *UsersService) Create(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
	role := auth.DefaultRole
	if req.Role != "" {
		r, ok := auth.ParseRole(req.Role)
		if !ok {
			return user.User{}, apperr.Validation("Unknown role %q", req.Role)
		}
		role = r
	}

	u, err := createUser(ctx, s.users, s.hasher, req.Email, req.Password, req.Name, role)
	if err != nil {
		return user.User{}, err
	}

	s.log.InfoContext(ctx, "user created", audit(ctx, "user_id", u.ID, "role", u.Role)...)
	return u, nil
}

func (s *UsersService) List(ctx context.Context) ([]user.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Could not list users")
	}
	return users, nil
}

func (s *UsersService) Get(ctx context.Context, id string) (user.User, error) {
	return s.resolveUser(ctx, id)
}

func (s *UsersService) Update(ctx context.Context, id string, req user.UpdateUserRequest) (user.User, error) {
	u, err := s.resolveUser(ctx, id)
	if err != nil {
		return user.User{}, err
	}

	if req.Email != nil {
		email := user.NormalizeEmail(*req.Email)
		if email != u.Email {
			// advisory; the unique constraint decides races
			other, err := s.users.GetByEmail(ctx, email)
			switch {
			case err == nil && other.ID != u.ID:
				return user.User{}, emailTaken()
			case err != nil && !errors.Is(err, user.ErrNotFound):
				return user.User{}, apperr.Internal(err, "Could not update user")
			}
			u.Email = email
		}
	}

	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}

	if req.Role != nil {
		r, ok := auth.ParseRole(*req.Role)
		if !ok {
			return user.User{}, apperr.Validation("Unknown role %q", *req.Role)
		}
		u.Role = r
	}

	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if errors.Is(err, security.ErrPasswordTooLong) {
			return user.User{}, apperr.Validation("Password must be at most %d bytes", security.MaxPasswordBytes)
		}
		if err != nil {
			return user.User{}, apperr.Internal(err, "Could not update user")
		}
		u.PasswordHash = hash
	}

	u.UpdatedAt = time.Now().UTC()

	updated, err := s.users.Update(ctx, u)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, userNotFound(id)
		}
		return user.User{}, translate(err, "update user", id, "")
	}
	return updated, nil
}

func (s *UsersService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return userNotFound(id)
		}
		return apperr.Internal(err, "Could not delete user")
	}

	s.log.InfoContext(ctx, "user deleted", audit(ctx, "user_id", id)...)
	return nil
}

func (s *UsersService) resolveUser(ctx context.Context, id string) (user.User, error) {
	return resolveUser(ctx, s.users, id)
}

// resolveUser is the one place a missing user becomes NotFound.
func resolveUser(ctx context.Context, users UserStore, id string) (user.User, error) {
	u, err := users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, userNotFound(id)
		}
		return user.User{}, apperr.Internal(err, "Could not load user")
	}
	return u, nil
}
