package catalog

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

func TestMergeTools(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &Document{
		Tools:     []Tool{{ID: "react", Name: "React", Category: "frontend"}},
		Providers: []string{"aws"},
	}))

	require.NoError(t, repo.MergeTools(ctx, []Tool{
		{ID: "react", Name: "React", Category: "framework"},
		{ID: "aws-lambda", Name: "AWSLambda", Category: "cloud-service", Providers: []string{"aws"}},
	}, []string{"aws", "gcp"}))

	doc, err := repo.Get(ctx)
	require.NoError(t, err)

	require.Len(t, doc.Tools, 2)
	assert.Equal(t, "framework", doc.Tools[0].Category, "existing tool updated in place")
	assert.True(t, doc.HasTool("aws-lambda"))
	assert.Equal(t, []string{"aws", "gcp"}, doc.Providers, "providers deduplicated")
}

func TestGet_CachesUntilInvalidated(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	doc, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Tools)

	require.NoError(t, repo.Save(ctx, &Document{
		Tools:     []Tool{{ID: "node", Name: "Node"}},
		Providers: []string{},
	}))

	doc, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.True(t, doc.HasTool("node"), "save invalidates the cache")
}
