package db

import (
	"context"
	"testing"

	"github.com/geocoder89/eventsapp/internal/auth"
	"github.com/geocoder89/eventsapp/internal/config"
	"github.com/geocoder89/eventsapp/internal/repo/memory"
	"github.com/geocoder89/eventsapp/internal/security"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestEnsureAdminUser(t *testing.T) {
	ctx := context.Background()
	users := memory.NewStore().Users()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	cfg := config.Config{AdminEmail: "Root@Example.com", AdminPassword: "supersecret", AdminName: "Root"}

	require.NoError(t, EnsureAdminUser(ctx, users, hasher, cfg, nil))
	// second run is a no-op
	require.NoError(t, EnsureAdminUser(ctx, users, hasher, cfg, nil))

	all, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "root@example.com", all[0].Email)
	require.Equal(t, auth.RoleAdmin, all[0].Role)
	require.NoError(t, hasher.Compare(all[0].PasswordHash, "supersecret"))
}

func TestEnsureAdminUser_SkippedWithoutCredentials(t *testing.T) {
	ctx := context.Background()
	users := memory.NewStore().Users()

	require.NoError(t, EnsureAdminUser(ctx, users, security.NewBcryptHasher(bcrypt.MinCost), config.Config{}, nil))

	all, err := users.List(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)
	require.Len(t, entries, 2)
}
