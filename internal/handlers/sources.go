package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/carlesonielfa/isthatslop-sub000/internal/auth"
	"github.com/carlesonielfa/isthatslop-sub000/internal/models"
	"github.com/carlesonielfa/isthatslop-sub000/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SourcesHandler handles HTTP requests for the source hierarchy
type SourcesHandler struct {
	db       *gorm.DB
	registry *services.SourceRegistry
	tree     *services.TreeQueryService
	scores   *services.ScoreService
}

// NewSourcesHandler creates a new sources handler
func NewSourcesHandler(db *gorm.DB) *SourcesHandler {
	return &SourcesHandler{
		db:       db,
		registry: services.NewSourceRegistry(db),
		tree:     services.NewTreeQueryService(db),
		scores:   services.NewScoreService(db),
	}
}

type createSourceRequest struct {
	Name        string  `json:"name" binding:"required"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	URL         string  `json:"url"`
	ParentID    *string `json:"parent_id"`
}

// CreateSource handles POST /api/sources
func (h *SourcesHandler) CreateSource(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req createSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	input := services.CreateSourceInput{
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		URL:         req.URL,
		CreatedBy:   identity.UserID,
	}
	if req.ParentID != nil {
		parentID, err := uuid.Parse(*req.ParentID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parent_id"})
			return
		}
		input.ParentID = &parentID
	}

	source, err := h.registry.Create(input)
	if err != nil {
		switch {
		case services.IsValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrParentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "parent source not found"})
		case errors.Is(err, services.ErrMaxDepthExceeded):
			c.JSON(http.StatusBadRequest, gin.H{"error": "maximum hierarchy depth exceeded"})
		case errors.Is(err, services.ErrDuplicateSlug):
			c.JSON(http.StatusConflict, gin.H{"error": "a source with this name already exists here"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create source"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"source_id": source.ID,
		"slug":      source.Slug,
		"path":      source.Path,
		"depth":     source.Depth,
	})
}

// GetSource handles GET /api/sources/:id
func (h *SourcesHandler) GetSource(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	source, err := h.registry.GetByID(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load source"})
		return
	}

	score, err := h.scores.GetScore(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load score"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"source": source, "score": score})
}

// Resolve handles GET /api/sources/resolve?path=platform/community/channel
func (h *SourcesHandler) Resolve(c *gin.Context) {
	path := strings.Trim(c.Query("path"), "/")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path query parameter required"})
		return
	}

	source, err := h.registry.ResolveBySlugPath(strings.Split(path, "/"))
	if err != nil {
		switch {
		case services.IsValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "no source at this path"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve path"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"source_id": source.ID, "slug": source.Slug, "path": source.Path})
}

// GetChildren handles GET /api/sources/:id/children
func (h *SourcesHandler) GetChildren(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	result, err := h.tree.ChildrenPage(id, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load children"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBreadcrumbs handles GET /api/sources/:id/breadcrumbs
func (h *SourcesHandler) GetBreadcrumbs(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	crumbs, err := h.tree.Breadcrumbs(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load breadcrumbs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"breadcrumbs": crumbs})
}

// Browse handles GET /api/sources
func (h *SourcesHandler) Browse(c *gin.Context) {
	filters := services.BrowseFilters{
		Query: c.Query("q"),
		Type:  c.Query("type"),
	}
	if raw := c.Query("tier_min"); raw != "" {
		if tier, err := strconv.Atoi(raw); err == nil {
			filters.TierMin = &tier
		}
	}
	if raw := c.Query("tier_max"); raw != "" {
		if tier, err := strconv.Atoi(raw); err == nil {
			filters.TierMax = &tier
		}
	}

	nodes, err := h.tree.Browse(filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to browse sources"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sources": nodes})
}

// GetDisputed handles GET /api/sources/disputed
func (h *SourcesHandler) GetDisputed(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
	if limit > 100 {
		limit = 100
	}

	claims, err := h.tree.MostDisputed(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load disputed claims"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"claims": claims})
}

type approvalRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// SetApproval handles PATCH /api/sources/:id/approval (moderators only)
func (h *SourcesHandler) SetApproval(c *gin.Context) {
	identity, ok := requireModerator(c, h.db)
	if !ok {
		return
	}

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req approvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	source, err := h.registry.SetApprovalStatus(identity.UserID, id, req.Status, req.Reason)
	if err != nil {
		switch {
		case services.IsValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update approval"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"source_id": source.ID, "approval_status": source.ApprovalStatus})
}

// DeleteSource handles DELETE /api/sources/:id (moderators only)
func (h *SourcesHandler) DeleteSource(c *gin.Context) {
	identity, ok := requireModerator(c, h.db)
	if !ok {
		return
	}

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	if err := h.registry.Delete(identity.UserID, id, req.Reason); err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
		case errors.Is(err, services.ErrHasChildren):
			c.JSON(http.StatusConflict, gin.H{"error": "source still has children"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete source"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// requireModerator resolves the caller and rejects non-moderators.
func requireModerator(c *gin.Context, db *gorm.DB) (*auth.Identity, bool) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return nil, false
	}

	var actor models.User
	if err := db.First(&actor, "id = ?", identity.UserID).Error; err != nil || !actor.IsModerator {
		c.JSON(http.StatusForbidden, gin.H{"error": "moderator access required"})
		return nil, false
	}
	return identity, true
}

// parseIDParam parses the :id path parameter, writing a 400 on failure.
func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source id"})
		return uuid.Nil, false
	}
	return id, true
}
