package user

import (
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/eventsapp/internal/auth"
	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Name         string    `json:"name"`
	Role         auth.Role `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,min=1,max=120"`
	Role     string `json:"role" binding:"omitempty,oneof=admin organizer attendee"`
}

// UpdateUserRequest is a partial update; nil fields are left unchanged.
type UpdateUserRequest struct {
	Email    *string `json:"email" binding:"omitempty,email,max=254"`
	Password *string `json:"password" binding:"omitempty,min=8,max=72"`
	Name     *string `json:"name" binding:"omitempty,min=1,max=120"`
	Role     *string `json:"role" binding:"omitempty,oneof=admin organizer attendee"`
}

func (r UpdateUserRequest) Empty() bool {
	return r.Email == nil && r.Password == nil && r.Name == nil && r.Role == nil
}

// NormalizeEmail is applied before every lookup and write so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func New(email, passwordHash, name string, role auth.Role) User {
	now := time.Now().UTC()

	if role == "" {
		role = auth.DefaultRole
	}

	return User{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(name),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
