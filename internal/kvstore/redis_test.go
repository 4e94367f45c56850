package kvstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client)
}

func TestRedisStore_GetPutDelete(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "k1", []byte(`{"a":1}`)))
	data, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))

	require.NoError(t, store.Put(ctx, "k1", []byte(`{"a":2}`)))
	data, err = store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(data))

	require.NoError(t, store.Delete(ctx, "k1"))
	_, err = store.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting a missing key is not an error
	require.NoError(t, store.Delete(ctx, "k1"))
}

func TestRedisStore_PutIfAbsent(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	created, err := store.PutIfAbsent(ctx, "lock:p1", []byte(`{"holder":"a"}`))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.PutIfAbsent(ctx, "lock:p1", []byte(`{"holder":"b"}`))
	require.NoError(t, err)
	assert.False(t, created)

	data, err := store.Get(ctx, "lock:p1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"holder":"a"}`, string(data))
}

func TestRedisStore_List(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "draft:a:p1", []byte(`{}`)))
	require.NoError(t, store.Put(ctx, "draft:b:p1", []byte(`{}`)))
	require.NoError(t, store.Put(ctx, "project:p1", []byte(`{}`)))

	keys, err := store.List(ctx, "draft:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"draft:a:p1", "draft:b:p1"}, keys)

	keys, err = store.List(ctx, "nothing:")
	require.NoError(t, err)
	assert.Empty(t, keys)
}
