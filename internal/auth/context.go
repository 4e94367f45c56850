package auth

import "github.com/gin-gonic/gin"

const CtxIdentity = "identity"

// Identity is the verified caller: subject id, email, and the identity
// provider's group claims.
type Identity struct {
	Subject string   `json:"subject"`
	Email   string   `json:"email,omitempty"`
	Name    string   `json:"name,omitempty"`
	Groups  []string `json:"groups,omitempty"`
}

// DisplayName returns the best human-readable name for commit authorship.
func (id Identity) DisplayName() string {
	if id.Name != "" {
		return id.Name
	}
	if id.Email != "" {
		return id.Email
	}
	return id.Subject
}

// CurrentIdentity extracts the verified identity from the Gin context.
// This is set by Middleware.
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(CtxIdentity)
	if !ok {
		return Identity{}, false
	}
	ident, ok := v.(Identity)
	return ident, ok
}
