package auth

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stackdeck-app/stackdeck-backend/internal/users"
)

// RegistryTouch records the authenticated identity in the user registry.
// The update is best-effort: attempted once in the background, failure is
// logged and swallowed, and the request never waits on or fails with it.
func RegistryTouch(registry *users.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ident, ok := CurrentIdentity(c); ok {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if _, err := registry.EnsureUser(ctx, users.UpsertUser{
					Subject:     ident.Subject,
					Email:       ident.Email,
					DisplayName: ident.Name,
				}); err != nil {
					log.Printf("registry touch failed for %s: %v", ident.Subject, err)
				}
			}()
		}
		c.Next()
	}
}
