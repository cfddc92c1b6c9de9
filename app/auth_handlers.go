package app

import (
	"log"
	"net/http"

	"github.com/MrBrightsidedev/Docwise/auth"

	"github.com/gin-gonic/gin"
)

// Health is a public health check endpoint.
func (a *App) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Me returns the authenticated user's plan and usage snapshot. Limit and
// remaining are null for unlimited plans.
func (a *App) Me(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	usage, err := a.store.GetUsage(c.Request.Context(), claims.Subject)
	if err != nil {
		log.Printf("me: usage lookup failed sub=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load usage"})
		return
	}

	limits := LimitsFor(usage.Plan)
	var limit any = nil
	var remaining any = nil
	if limits.AIGenerations != Unlimited {
		limit = limits.AIGenerations
		left := limits.AIGenerations - usage.AIGenerationsUsed
		if left < 0 {
			left = 0
		}
		remaining = left
	}

	c.JSON(http.StatusOK, gin.H{
		"plan":      usage.Plan,
		"used":      usage.AIGenerationsUsed,
		"limit":     limit,
		"remaining": remaining,
	})
}
