package handlers

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/carlesonielfa/isthatslop-sub000/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RecalculateHandler exposes the batch score reconciliation as an HTTP
// trigger, so any external scheduler (cron, uptime pinger) can drive it.
type RecalculateHandler struct {
	recalc *services.RecalculationService
}

// NewRecalculateHandler creates a new recalculate handler
func NewRecalculateHandler(db *gorm.DB) *RecalculateHandler {
	return &RecalculateHandler{
		recalc: services.NewRecalculationService(db, services.NewScoreService(db)),
	}
}

// TriggerRecalculation handles GET /recalculate-scores.
//
// In production the endpoint is bearer-token protected: a missing secret is
// a deployment error (500), a wrong or absent token is 401. Outside
// production it is open so local cron and manual testing just work.
func (h *RecalculateHandler) TriggerRecalculation(c *gin.Context) {
	if os.Getenv("ENVIRONMENT") == "production" {
		secret := os.Getenv("RECALC_AUTH_TOKEN")
		if secret == "" {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "RECALC_AUTH_TOKEN is not configured",
			})
			return
		}

		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token != secret {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid or missing bearer token",
			})
			return
		}
	}

	maxItems, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	start := time.Now()
	result, err := h.recalc.ProcessBatch(maxItems)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "failed to process batch: " + err.Error(),
		})
		return
	}

	response := gin.H{
		"success":     true,
		"processed":   result.Processed,
		"remaining":   result.Remaining,
		"duration_ms": time.Since(start).Milliseconds(),
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}
	if len(result.FailedSourceIDs) > 0 {
		response["errors"] = result.FailedSourceIDs
	}

	c.JSON(http.StatusOK, response)
}
