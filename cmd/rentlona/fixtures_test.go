package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	domainlistings "rentlona/internal/domain/listings"
	domainuser "rentlona/internal/domain/user"
	"rentlona/internal/infra/security"
	"rentlona/internal/infra/storage/memory"
)

const fixtureJSON = `{
  "owners": [
    {"id": "owner-1", "name": "Asha", "email": "asha@example.com", "password": "long enough"}
  ],
  "listings": [
    {
      "id": "camera", "owner": "owner-1", "title": "Camera", "description": "Mirrorless body",
      "category": "electronics", "price": 40, "contactNumber": "555-0100",
      "location": {"city": "Pune"}, "createdAt": "2024-03-01T10:00:00Z"
    },
    {
      "id": "orphan", "owner": "nobody", "title": "Bike", "description": "City bike",
      "category": "vehicles", "price": 10, "contactNumber": "555-0101",
      "location": {"city": "Pune"}
    }
  ]
}`

func newSeeder(t *testing.T) (fixtureSeeder, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listings.json")
	require.NoError(t, os.WriteFile(path, []byte(fixtureJSON), 0o600))
	return fixtureSeeder{
		Users:     memory.NewUserRepository(),
		Listings:  memory.NewListingRepository(),
		Passwords: security.BcryptHasher{Cost: bcrypt.MinCost},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, path
}

func TestFixturesSeedOwnersAndSkipUnresolved(t *testing.T) {
	ctx := context.Background()
	seeder, path := newSeeder(t)
	require.NoError(t, seeder.Load(ctx, path))

	owner, err := seeder.Users.ByID(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"camera"}, owner.Listings)
	assert.NoError(t, security.BcryptHasher{}.Compare(owner.PasswordHash, "long enough"))

	listing, err := seeder.Listings.ByID(ctx, "camera")
	require.NoError(t, err)
	assert.Equal(t, domainlistings.OwnerID("owner-1"), listing.Owner)

	_, err = seeder.Listings.ByID(ctx, "orphan")
	assert.Error(t, err)
	_, err = seeder.Users.ByID(ctx, "nobody")
	assert.ErrorIs(t, err, domainuser.ErrNotFound)
}

func TestFixturesReloadKeepsExistingOwner(t *testing.T) {
	ctx := context.Background()
	seeder, path := newSeeder(t)
	require.NoError(t, seeder.Load(ctx, path))
	first, err := seeder.Users.ByID(ctx, "owner-1")
	require.NoError(t, err)

	require.NoError(t, seeder.Load(ctx, path))
	again, err := seeder.Users.ByID(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, first.PasswordHash, again.PasswordHash)
	assert.Equal(t, []string{"camera"}, again.Listings)
}

func TestFixturesMissingFileIsSkipped(t *testing.T) {
	seeder, _ := newSeeder(t)
	assert.NoError(t, seeder.Load(context.Background(), filepath.Join(t.TempDir(), "absent.json")))
}
