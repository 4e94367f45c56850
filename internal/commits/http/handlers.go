package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stackdeck-app/stackdeck-backend/internal/auth"
	"github.com/stackdeck-app/stackdeck-backend/internal/commits/domain"
	"github.com/stackdeck-app/stackdeck-backend/internal/commits/service"
	projdomain "github.com/stackdeck-app/stackdeck-backend/internal/projects/domain"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register attaches commit routes under a project group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/:id/commits", h.create)
	rg.GET("/:id/commits", h.list)
}

type commitReq struct {
	Message string `json:"message"`
}

func (h *Handler) create(c *gin.Context) {
	ident, ok := auth.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	var req commitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	commit, err := h.svc.Commit(c.Request.Context(), ident, c.Param("id"), req.Message)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "commit": commit})
}

func (h *Handler) list(c *gin.Context) {
	commits, err := h.svc.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "commits": commits})
}

func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "editor rights required"})
	case errors.Is(err, domain.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "commit message required"})
	case errors.Is(err, domain.ErrNothingToCommit):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "nothing to commit"})
	case errors.Is(err, projdomain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}
