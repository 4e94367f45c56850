package users

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackdeck-app/stackdeck-backend/internal/kvstore"
)

func setupRepo(t *testing.T) *Repo {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRepo(kvstore.NewRedisStore(client))
}

func TestEnsureUser(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	id1, err := repo.EnsureUser(ctx, UpsertUser{Subject: "sub-1", Email: "a@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, id1)

	// a token without an email must not erase the stored one
	id2, err := repo.EnsureUser(ctx, UpsertUser{Subject: "sub-1", DisplayName: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, id1, id2, "record id is stable across upserts")

	email, err := repo.Email(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", email)
}

func TestEnsureUser_RequiresSubject(t *testing.T) {
	repo := setupRepo(t)
	_, err := repo.EnsureUser(context.Background(), UpsertUser{})
	assert.Error(t, err)
}

func TestEmail_UnknownSubject(t *testing.T) {
	repo := setupRepo(t)
	email, err := repo.Email(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, email)
}
