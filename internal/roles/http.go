package roles

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stackdeck-app/stackdeck-backend/internal/auth"
)

type Handler struct {
	repo     *Repo
	resolver *Resolver
}

func NewHandler(repo *Repo, resolver *Resolver) *Handler {
	return &Handler{repo: repo, resolver: resolver}
}

// Register attaches role management routes to the given router group.
// Every route is admin-only.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.get)
	rg.POST("/admins", h.addAdmin)
	rg.DELETE("/admins/:subject", h.removeAdmin)
	rg.POST("/projects/:id/editors", h.addEditor)
	rg.DELETE("/projects/:id/editors/:subject", h.removeEditor)
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

func (h *Handler) get(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}
	doc, err := h.repo.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "roles": doc})
}

type entryReq struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
}

func (h *Handler) addAdmin(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	var req entryReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Subject) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	doc, err := h.repo.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	updated := *doc
	if !updated.HasAdmin(req.Subject) {
		updated.Admins = append(append([]Entry{}, doc.Admins...), Entry{Subject: strings.TrimSpace(req.Subject), Email: req.Email})
	}
	if err := h.repo.Save(c.Request.Context(), &updated); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "roles": &updated})
}

func (h *Handler) removeAdmin(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	subject := c.Param("subject")
	doc, err := h.repo.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	updated := *doc
	updated.Admins = removeSubject(doc.Admins, subject)
	if err := h.repo.Save(c.Request.Context(), &updated); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "roles": &updated})
}

func (h *Handler) addEditor(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	projectID := c.Param("id")
	var req entryReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Subject) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	doc, err := h.repo.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	updated := *doc
	updated.Editors = copyEditors(doc.Editors)
	if !updated.HasEditor(projectID, req.Subject) {
		updated.Editors[projectID] = append(updated.Editors[projectID], Entry{Subject: strings.TrimSpace(req.Subject), Email: req.Email})
	}
	if err := h.repo.Save(c.Request.Context(), &updated); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "roles": &updated})
}

func (h *Handler) removeEditor(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	projectID := c.Param("id")
	subject := c.Param("subject")

	doc, err := h.repo.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	updated := *doc
	updated.Editors = copyEditors(doc.Editors)
	updated.Editors[projectID] = removeSubject(updated.Editors[projectID], subject)
	if len(updated.Editors[projectID]) == 0 {
		delete(updated.Editors, projectID)
	}
	if err := h.repo.Save(c.Request.Context(), &updated); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "roles": &updated})
}

func removeSubject(entries []Entry, subject string) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Subject != subject {
			out = append(out, e)
		}
	}
	return out
}

func copyEditors(in map[string][]Entry) map[string][]Entry {
	out := make(map[string][]Entry, len(in))
	for k, v := range in {
		out[k] = append([]Entry{}, v...)
	}
	return out
}
