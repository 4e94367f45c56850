package auth

import (
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
)

// Middleware validates Firebase ID tokens and stores the caller's identity
// in the context. Missing or invalid credentials always surface as 401,
// distinct from every other failure mode.
func Middleware(authClient *fbauth.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing authorization token"})
			c.Abort()
			return
		}

		decoded, err := authClient.VerifyIDToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(CtxIdentity, identityFromToken(decoded))
		c.Next()
	}
}

func identityFromToken(decoded *fbauth.Token) Identity {
	ident := Identity{Subject: decoded.UID}

	if email, ok := decoded.Claims["email"].(string); ok {
		ident.Email = email
	}
	if name, ok := decoded.Claims["name"].(string); ok {
		ident.Name = name
	}
	if raw, ok := decoded.Claims["groups"].([]interface{}); ok {
		for _, g := range raw {
			if s, ok := g.(string); ok {
				ident.Groups = append(ident.Groups, s)
			}
		}
	}

	return ident
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	return ""
}
