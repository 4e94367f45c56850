package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackdeck-app/stackdeck-backend/internal/auth"
	"github.com/stackdeck-app/stackdeck-backend/internal/drafts/repository"
	"github.com/stackdeck-app/stackdeck-backend/internal/drafts/service"
	"github.com/stackdeck-app/stackdeck-backend/internal/kvstore"
	projrepo "github.com/stackdeck-app/stackdeck-backend/internal/projects/repository"
	"github.com/stackdeck-app/stackdeck-backend/internal/roles"
	"github.com/stackdeck-app/stackdeck-backend/internal/users"
)

// identityAs substitutes the verifier middleware: requests carry the
// identity named in X-Test-Sub.
func identityAs() gin.HandlerFunc {
	return func(c *gin.Context) {
		sub := c.GetHeader("X-Test-Sub")
		if sub == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing authorization token"})
			c.Abort()
			return
		}
		c.Set(auth.CtxIdentity, auth.Identity{Subject: sub})
		c.Next()
	}
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := kvstore.NewRedisStore(client)

	projects := projrepo.New(store)
	_, err := projects.Create(ctx, "p1", "Project One", "", "root")
	require.NoError(t, err)

	rolesRepo := roles.NewRepo(store)
	require.NoError(t, rolesRepo.Save(ctx, &roles.Document{
		Editors: map[string][]roles.Entry{
			"p1": {{Subject: "user-a"}, {Subject: "user-b"}},
		},
	}))
	resolver := roles.NewResolver(rolesRepo, "platform-admins")

	svc := service.New(repository.New(store), projects, resolver, users.NewRepo(store))

	r := gin.New()
	api := r.Group("/api/v1/projects")
	api.Use(identityAs())
	NewHandler(svc).Register(api)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, sub, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-Test-Sub", sub)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDraftLockConflictResponse(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, http.MethodPut, "/api/v1/projects/p1/draft", "user-a",
		`{"stack":{"items":["react"]},"subsystems":{}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var putResp struct {
		OK    bool `json:"ok"`
		Draft struct {
			LockedBy  string `json:"lockedBy"`
			LockedAt  string `json:"lockedAt"`
			UpdatedAt string `json:"updatedAt"`
		} `json:"draft"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &putResp))
	assert.True(t, putResp.OK)
	assert.Equal(t, "user-a", putResp.Draft.LockedBy)
	assert.Equal(t, putResp.Draft.LockedAt, putResp.Draft.UpdatedAt)

	// another editor is told who holds the lock and since when
	w = do(t, r, http.MethodGet, "/api/v1/projects/p1/draft", "user-b", "")
	require.Equal(t, http.StatusLocked, w.Code)

	var lockResp struct {
		OK       bool   `json:"ok"`
		LockedBy string `json:"lockedBy"`
		LockedAt string `json:"lockedAt"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lockResp))
	assert.False(t, lockResp.OK)
	assert.Equal(t, "user-a", lockResp.LockedBy)
	assert.Equal(t, putResp.Draft.LockedAt, lockResp.LockedAt)
}

func TestDraftNotFoundAndForbidden(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, http.MethodDelete, "/api/v1/projects/p1/draft", "user-a", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/projects/p1/draft", "stranger", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/projects/nope/draft", "user-a", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/projects/p1/draft", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
