package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stackdeck-app/stackdeck-backend/internal/auth"
	"github.com/stackdeck-app/stackdeck-backend/internal/roles"
)

type Handler struct {
	repo     *Repo
	resolver *roles.Resolver
}

func NewHandler(repo *Repo, resolver *roles.Resolver) *Handler {
	return &Handler{repo: repo, resolver: resolver}
}

// Register attaches catalog routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.get)
	rg.PUT("", h.put)
}

func (h *Handler) get(c *gin.Context) {
	doc, err := h.repo.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "catalog": doc})
}

func (h *Handler) put(c *gin.Context) {
	ident, ok := auth.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}
	admin, err := h.resolver.IsAdmin(c.Request.Context(), ident)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if !admin {
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "admin rights required"})
		return
	}

	var doc Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if err := h.repo.Save(c.Request.Context(), &doc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "catalog": &doc})
}
