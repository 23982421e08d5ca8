package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/eventsapp/internal/apperr"
	"github.com/geocoder89/eventsapp/internal/auth"
	"github.com/geocoder89/eventsapp/internal/domain/user"
	"github.com/geocoder89/eventsapp/internal/security"
)

// AuthMetrics is satisfied by *observability.Prom.
type AuthMetrics interface {
	ObserveAuth(op, result string)
}

type AuthOptions struct {
	// AllowRoleOnRegister lets self-registration pick a role other than attendee.
	AllowRoleOnRegister bool
	Metrics             AuthMetrics
}

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,min=1,max=120"`
	Role     string `json:"role" binding:"omitempty,max=32"`
}

type RegisterResult struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginUser struct {
	Name string    `json:"name"`
	Role auth.Role `json:"role"`
}

type LoginResult struct {
	AccessToken string    `json:"accessToken"`
	User        LoginUser `json:"user"`
}

type AuthService struct {
	users     UserStore
	hasher    security.Hasher
	tokens    *auth.Manager
	log       *slog.Logger
	opts      AuthOptions
	dummyHash string
}

func NewAuthService(users UserStore, hasher security.Hasher, tokens *auth.Manager, log *slog.Logger, opts AuthOptions) *AuthService {
	if log == nil {
		log = slog.Default()
	}

	// compared against when the email is unknown so both failure paths cost one bcrypt check
	dummy, _ := hasher.Hash("not-a-real-password")

	return &AuthService{users: users, hasher: hasher, tokens: tokens, log: log, opts: opts, dummyHash: dummy}
}

func (s *AuthService) observe(op, result string) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.ObserveAuth(op, result)
	}
}

// Register creates an account. The role defaults to attendee.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	role := auth.DefaultRole
	if in.Role != "" {
		r, ok := auth.ParseRole(in.Role)
		if !ok {
			s.observe("register", "invalid")
			return RegisterResult{}, apperr.Validation("Unknown role %q", in.Role)
		}
		if r != auth.DefaultRole && !s.opts.AllowRoleOnRegister {
			s.observe("register", "invalid")
			return RegisterResult{}, apperr.Validation("Role cannot be chosen at registration")
		}
		role = r
	}

	u, err := createUser(ctx, s.users, s.hasher, in.Email, in.Password, in.Name, role)
	if err != nil {
		s.observe("register", "rejected")
		return RegisterResult{}, err
	}

	s.observe("register", "ok")
	s.log.InfoContext(ctx, "user registered", "user_id", u.ID, "role", u.Role)

	return RegisterResult{ID: u.ID, Email: u.Email}, nil
}

// Login never reveals whether the email exists.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, user.NormalizeEmail(in.Email))

	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			return LoginResult{}, apperr.Internal(err, "Could not log in")
		}
		_ = s.hasher.Compare(s.dummyHash, in.Password)
		s.observe("login", "invalid_credentials")
		return LoginResult{}, apperr.Unauthenticated(msgInvalidCredentials)
	}

	if err := s.hasher.Compare(u.PasswordHash, in.Password); err != nil {
		s.observe("login", "invalid_credentials")
		return LoginResult{}, apperr.Unauthenticated(msgInvalidCredentials)
	}

	token, err := s.tokens.Issue(auth.Identity{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role})
	if err != nil {
		return LoginResult{}, apperr.Internal(err, "Could not issue token")
	}

	s.observe("login", "ok")

	return LoginResult{
		AccessToken: token,
		User:        LoginUser{Name: u.Name, Role: u.Role},
	}, nil
}

func (s *AuthService) Profile(id auth.Identity) auth.Identity {
	return id
}

// createUser is shared by self-registration and admin user creation.
func createUser(ctx context.Context, users UserStore, hasher security.Hasher, email, password, name string, role auth.Role) (user.User, error) {
	email = user.NormalizeEmail(email)

	// advisory; the unique constraint decides races
	_, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return user.User{}, emailTaken()
	case !errors.Is(err, user.ErrNotFound):
		return user.User{}, apperr.Internal(err, "Could not create user")
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			return user.User{}, apperr.Validation("Password must be at most %d bytes", security.MaxPasswordBytes)
		}
		return user.User{}, apperr.Internal(err, "Could not create user")
	}

	u, err := users.Create(ctx, user.New(email, hash, name, role))
	if err != nil {
		return user.User{}, translate(err, "create user", "", "")
	}
	return u, nil
}
