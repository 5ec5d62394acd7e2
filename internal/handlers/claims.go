package handlers

import (
	"errors"
	"net/http"

	"github.com/carlesonielfa/isthatslop-sub000/internal/auth"
	"github.com/carlesonielfa/isthatslop-sub000/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClaimsHandler handles HTTP requests for claims and votes
type ClaimsHandler struct {
	db     *gorm.DB
	claims *services.ClaimService
}

// NewClaimsHandler creates a new claims handler
func NewClaimsHandler(db *gorm.DB) *ClaimsHandler {
	return &ClaimsHandler{
		db:     db,
		claims: services.NewClaimService(db, services.NewScoreService(db)),
	}
}

type claimRequest struct {
	Content    string `json:"content" binding:"required"`
	Impact     int    `json:"impact" binding:"required"`
	Confidence int    `json:"confidence" binding:"required"`
}

// SubmitClaim handles POST /api/sources/:id/claims
func (h *ClaimsHandler) SubmitClaim(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	sourceID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	claim, err := h.claims.SubmitClaim(identity.UserID, sourceID, req.Content, req.Impact, req.Confidence)
	if err != nil {
		h.writeClaimError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"claim": claim})
}

// EditClaim handles PUT /api/claims/:id
func (h *ClaimsHandler) EditClaim(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}

	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	claim, err := h.claims.EditClaim(identity.UserID, claimID, req.Content, req.Impact, req.Confidence)
	if err != nil {
		if errors.Is(err, services.ErrNotClaimAuthor) {
			c.JSON(http.StatusForbidden, gin.H{"error": "only the author can edit a claim"})
			return
		}
		h.writeClaimError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"claim": claim})
}

type deleteClaimRequest struct {
	Reason string `json:"reason"`
}

// DeleteClaim handles DELETE /api/claims/:id (moderators only)
func (h *ClaimsHandler) DeleteClaim(c *gin.Context) {
	identity, ok := requireModerator(c, h.db)
	if !ok {
		return
	}

	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}

	var req deleteClaimRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.claims.DeleteClaim(identity.UserID, claimID, req.Reason); err != nil {
		h.writeClaimError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type voteRequest struct {
	IsHelpful *bool `json:"is_helpful" binding:"required"`
}

// Vote handles POST /api/claims/:id/vote
func (h *ClaimsHandler) Vote(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsHelpful == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_helpful required"})
		return
	}

	claim, err := h.claims.Vote(identity.UserID, claimID, *req.IsHelpful)
	if err != nil {
		h.writeClaimError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"claim_id":          claim.ID,
		"helpful_votes":     claim.HelpfulVotes,
		"not_helpful_votes": claim.NotHelpfulVotes,
	})
}

func (h *ClaimsHandler) writeClaimError(c *gin.Context, err error) {
	switch {
	case services.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "request failed"})
	}
}
