// Package app wires shared HTTP routes for both local and Lambda execution.
package app

import (
	"time"

	"github.com/MrBrightsidedev/Docwise/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the shared HTTP router for both local and Lambda execution.
func (a *App) NewRouter() (*gin.Engine, error) {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/health", a.Health)
	router.POST("/api/stripe/webhook", a.StripeWebhook)
	router.GET("/api/google/callback", a.GoogleCallback)

	verifier, err := auth.NewVerifierFromEnv()
	if err != nil && !auth.AuthDisabled() {
		return nil, err
	}

	protected := router.Group("/")
	protected.Use(auth.Middleware(verifier, auth.MiddlewareConfig{
		OnAuthenticated: func(c *gin.Context, claims *auth.Claims) error {
			return a.store.EnsureUser(c.Request.Context(), claims.Subject)
		},
	}))

	protected.GET("/me", a.Me)

	protected.GET("/api/documents", a.ListDocuments)
	protected.POST("/api/documents", a.CreateDocument)
	protected.GET("/api/documents/:id", a.GetDocument)
	protected.PUT("/api/documents/:id", a.UpdateDocument)
	protected.DELETE("/api/documents/:id", a.DeleteDocument)

	protected.POST("/api/ai/generate", a.Generate)
	protected.POST("/api/ai/summarize", a.Summarize)

	protected.POST("/api/billing/create-checkout-session", a.CreateCheckoutSession)
	protected.POST("/api/billing/portal-session", a.CreatePortalSession)

	protected.GET("/api/google/status", a.GoogleStatus)
	protected.POST("/api/google/connect", a.GoogleConnect)
	protected.POST("/api/google/disconnect", a.GoogleDisconnect)
	protected.POST("/api/export", a.ExportDocument)

	return router, nil
}
