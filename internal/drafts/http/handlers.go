package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stackdeck-app/stackdeck-backend/internal/auth"
	"github.com/stackdeck-app/stackdeck-backend/internal/drafts/domain"
	"github.com/stackdeck-app/stackdeck-backend/internal/drafts/service"
	projdomain "github.com/stackdeck-app/stackdeck-backend/internal/projects/domain"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register attaches draft routes under a project group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/:id/draft", h.get)
	rg.PUT("/:id/draft", h.put)
	rg.DELETE("/:id/draft", h.discard)
}

// RegisterAdmin attaches the lock administration routes.
func (h *Handler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.GET("/locks", h.listLocks)
	rg.DELETE("/locks/:id/:sub", h.breakLock)
}

func (h *Handler) get(c *gin.Context) {
	ident, ok := auth.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	draft, err := h.svc.Get(c.Request.Context(), ident, c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "draft": draft})
}

type putReq struct {
	Stack      domain.WorkingStack                `json:"stack"`
	Subsystems map[string]domain.WorkingSubsystem `json:"subsystems"`
}

func (h *Handler) put(c *gin.Context) {
	ident, ok := auth.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	var req putReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	for id, sub := range req.Subsystems {
		if !projdomain.ValidSlug(id) || sub.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid subsystem " + id})
			return
		}
	}

	draft, err := h.svc.Put(c.Request.Context(), ident, c.Param("id"), req.Stack, req.Subsystems)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "draft": draft})
}

func (h *Handler) discard(c *gin.Context) {
	ident, ok := auth.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	// Admins may discard another user's draft via ?owner=<sub>.
	owner := c.Query("owner")
	if err := h.svc.Discard(c.Request.Context(), ident, c.Param("id"), owner); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) listLocks(c *gin.Context) {
	ident, ok := auth.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	locks, err := h.svc.ListLocks(c.Request.Context(), ident)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "locks": locks})
}

func (h *Handler) breakLock(c *gin.Context) {
	ident, ok := auth.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	if err := h.svc.Discard(c.Request.Context(), ident, c.Param("id"), c.Param("sub")); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) renderError(c *gin.Context, err error) {
	var conflict *domain.LockConflictError
	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusLocked, gin.H{
			"ok":       false,
			"error":    "project draft is locked",
			"lockedBy": conflict.LockedBy,
			"lockedAt": conflict.LockedAt,
		})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "editor rights required"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "draft not found"})
	case errors.Is(err, projdomain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}
