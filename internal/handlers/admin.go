package handlers

import (
	"net/http"
	"os"
	"strconv"

	"github.com/carlesonielfa/isthatslop-sub000/internal/models"
	"github.com/carlesonielfa/isthatslop-sub000/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminHandler serves the password-protected operations dashboard
type AdminHandler struct {
	db     *gorm.DB
	recalc *services.RecalculationService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{
		db:     db,
		recalc: services.NewRecalculationService(db, services.NewScoreService(db)),
	}
}

// AdminAuth middleware for basic password protection
func (h *AdminHandler) AdminAuth() gin.HandlerFunc {
	return gin.BasicAuth(gin.Accounts{
		"admin": getAdminPassword(),
	})
}

// getAdminPassword returns the admin password from environment or default
func getAdminPassword() string {
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123" // Default password for development
	}
	return password
}

// ServeDashboard serves the main admin dashboard
func (h *AdminHandler) ServeDashboard(c *gin.Context) {
	var sourceCount, claimCount, userCount int64
	h.db.Model(&models.Source{}).Count(&sourceCount)
	h.db.Model(&models.Claim{}).Count(&claimCount)
	h.db.Model(&models.User{}).Count(&userCount)

	staleCount, _ := h.recalc.StaleCount()

	var recentClaims []models.Claim
	h.db.Preload("Source").
		Order("created_at DESC").
		Limit(10).
		Find(&recentClaims)

	html := h.generateDashboardHTML(sourceCount, claimCount, userCount, staleCount, recentClaims)
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, html)
}

// generateDashboardHTML generates the admin dashboard page
func (h *AdminHandler) generateDashboardHTML(sourceCount, claimCount, userCount, staleCount int64, recentClaims []models.Claim) string {
	html := `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>isthatslop Admin</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; background: #f8fafc; margin: 0; padding: 2rem; color: #1e293b; }
        .stats-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 1.5rem; margin-bottom: 2rem; }
        .stat-card { background: white; padding: 1.5rem; border-radius: 12px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); text-align: center; }
        .stat-number { font-size: 2.5rem; font-weight: 700; color: #3b82f6; }
        .stat-label { color: #64748b; font-weight: 500; }
        .recent { background: white; padding: 1.5rem; border-radius: 12px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .claim-item { padding: 1rem 0; border-bottom: 1px solid #e2e8f0; }
        .claim-item:last-child { border-bottom: none; }
        .claim-meta { color: #64748b; font-size: 0.875rem; }
    </style>
</head>
<body>
    <h1>isthatslop Admin</h1>

    <div class="stats-grid">
        <div class="stat-card">
            <div class="stat-number">` + strconv.FormatInt(sourceCount, 10) + `</div>
            <div class="stat-label">Sources</div>
        </div>
        <div class="stat-card">
            <div class="stat-number">` + strconv.FormatInt(claimCount, 10) + `</div>
            <div class="stat-label">Claims</div>
        </div>
        <div class="stat-card">
            <div class="stat-number">` + strconv.FormatInt(userCount, 10) + `</div>
            <div class="stat-label">Users</div>
        </div>
        <div class="stat-card">
            <div class="stat-number">` + strconv.FormatInt(staleCount, 10) + `</div>
            <div class="stat-label">Stale Scores</div>
        </div>
    </div>

    <div class="recent">
        <h2>Recent Claims</h2>
        ` + h.generateRecentClaimsHTML(recentClaims) + `
    </div>
</body>
</html>`

	return html
}

// generateRecentClaimsHTML generates HTML for the recent claims list
func (h *AdminHandler) generateRecentClaimsHTML(claims []models.Claim) string {
	if len(claims) == 0 {
		return `<p>No claims found.</p>`
	}

	html := ""
	for _, claim := range claims {
		content := claim.Content
		if len(content) > 120 {
			content = content[:120] + "..."
		}

		html += `
        <div class="claim-item">
            <div>` + content + `</div>
            <div class="claim-meta">
                on ` + claim.Source.Name + ` • impact ` + strconv.Itoa(claim.Impact) +
			` • confidence ` + strconv.Itoa(claim.Confidence) +
			` • 👍 ` + strconv.Itoa(claim.HelpfulVotes) +
			` / 👎 ` + strconv.Itoa(claim.NotHelpfulVotes) + ` • ` +
			claim.CreatedAt.Format("Jan 2, 3:04 PM") + `
            </div>
        </div>`
	}

	return html
}
