package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stackdeck-app/stackdeck-backend/internal/auth"
	"github.com/stackdeck-app/stackdeck-backend/internal/projects/domain"
	"github.com/stackdeck-app/stackdeck-backend/internal/projects/repository"
	"github.com/stackdeck-app/stackdeck-backend/internal/roles"
)

type Handler struct {
	repo     *repository.Repo
	resolver *roles.Resolver
}

func NewHandler(repo *repository.Repo, resolver *roles.Resolver) *Handler {
	return &Handler{repo: repo, resolver: resolver}
}

type createReq struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) create(c *gin.Context) {
	ident, ok := h.requireAdmin(c)
	if !ok {
		return
	}

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" || !domain.ValidSlug(req.ID) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	p, err := h.repo.Create(c.Request.Context(), req.ID, strings.TrimSpace(req.Name), req.Description, ident.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "project id already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) get(c *gin.Context) {
	projectID := c.Param("id")

	p, err := h.repo.Get(c.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	stack, err := h.repo.GetStack(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	subsystems, err := h.repo.ListSubsystems(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p, "stack": stack, "subsystems": subsystems})
}

func (h *Handler) delete(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	projectID := c.Param("id")
	if err := h.repo.Delete(c.Request.Context(), projectID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) listSubsystems(c *gin.Context) {
	projectID := c.Param("id")

	if _, err := h.repo.Get(c.Request.Context(), projectID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	subsystems, err := h.repo.ListSubsystems(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "subsystems": subsystems})
}

func (h *Handler) getSubsystem(c *gin.Context) {
	projectID := c.Param("id")
	subsystemID := c.Param("sid")

	s, err := h.repo.GetSubsystem(c.Request.Context(), projectID, subsystemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "subsystem not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	stack, err := h.repo.GetStack(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	effective := domain.EffectiveItems(stack.Items, s.Additions, s.Exclusions)
	c.JSON(http.StatusOK, gin.H{"ok": true, "subsystem": s, "effectiveItems": effective})
}

func (h *Handler) requireAdmin(c *gin.Context) (auth.Identity, bool) {
	ident, ok := auth.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return ident, false
	}
	admin, err := h.resolver.IsAdmin(c.Request.Context(), ident)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return ident, false
	}
	if !admin {
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "admin rights required"})
		return ident, false
	}
	return ident, true
}
