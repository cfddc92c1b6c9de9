package app

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/MrBrightsidedev/Docwise/app/models"
	"github.com/MrBrightsidedev/Docwise/auth"

	"github.com/gin-gonic/gin"
)

// GoogleStatus reports whether the caller has a Google token on file.
func (a *App) GoogleStatus(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	connected, err := a.exporter.Connected(c.Request.Context(), claims.Subject)
	if err != nil {
		log.Printf("google status failed sub=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load connection status"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": connected})
}

// GoogleConnect returns the consent URL for the caller to visit.
func (a *App) GoogleConnect(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}
	if !a.exporter.Configured() {
		log.Printf("google connect: oauth client not configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "google integration not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"auth_url": a.exporter.AuthURL(claims.Subject)})
}

// GoogleCallback finishes the OAuth flow and stores the token record. The
// state parameter is the signed value issued by GoogleConnect; the route is
// public, so the signature is the only thing binding the token to a user.
func (a *App) GoogleCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" || c.Query("state") == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code or state"})
		return
	}

	userID, err := a.exporter.VerifyState(c.Query("state"))
	if err != nil {
		log.Printf("google callback: state verification failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state"})
		return
	}

	if err := a.exporter.Connect(c.Request.Context(), userID, code); err != nil {
		log.Printf("google callback failed sub=%s err=%v", userID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to connect google account"})
		return
	}

	frontendURL := strings.TrimRight(a.cfg.Stripe.FrontendURL, "/")
	if frontendURL != "" {
		c.Redirect(http.StatusFound, frontendURL+"/settings/integrations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "connected"})
}

// GoogleDisconnect deletes the stored token record.
func (a *App) GoogleDisconnect(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	if err := a.store.DeleteOAuthToken(c.Request.Context(), claims.Subject); err != nil {
		log.Printf("google disconnect failed sub=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to disconnect"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
}

// ExportDocument pushes one of the caller's documents to Google Docs or
// Sheets and returns the shareable URL.
func (a *App) ExportDocument(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ExportResponse{Error: "missing auth context"})
		return
	}

	var req models.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ExportResponse{Error: "invalid request body"})
		return
	}
	if req.ExportType != "docs" && req.ExportType != "sheets" {
		c.JSON(http.StatusBadRequest, models.ExportResponse{Error: "export_type must be docs or sheets"})
		return
	}

	title := strings.TrimSpace(req.Title)
	content := req.Content
	// Prefer the stored document when an id is given; the inline title and
	// content cover unsaved editor state.
	if req.DocumentID != "" {
		doc, err := a.store.GetDocument(c.Request.Context(), claims.Subject, req.DocumentID)
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ExportResponse{Error: "document not found"})
			return
		}
		if err != nil {
			log.Printf("export: document load failed sub=%s err=%v", claims.Subject, err)
			c.JSON(http.StatusInternalServerError, models.ExportResponse{Error: "failed to load document"})
			return
		}
		if title == "" {
			title = doc.Title
		}
		if content == "" {
			content = doc.Content
		}
	}
	if title == "" {
		c.JSON(http.StatusBadRequest, models.ExportResponse{Error: "title must not be empty"})
		return
	}

	url, err := a.exporter.Export(c.Request.Context(), claims.Subject, title, content, req.ExportType)
	switch {
	case errors.Is(err, ErrNotConnected):
		c.JSON(http.StatusUnauthorized, models.ExportResponse{
			RequiresAuth: true,
			Message:      "connect your Google account to export documents",
		})
		return
	case errors.Is(err, ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, models.ExportResponse{
			RequiresAuth: true,
			Message:      "your Google connection expired, please reconnect",
		})
		return
	case err != nil:
		log.Printf("export failed sub=%s type=%s err=%v", claims.Subject, req.ExportType, err)
		c.JSON(http.StatusBadGateway, models.ExportResponse{Error: "export failed, please try again"})
		return
	}

	c.JSON(http.StatusOK, models.ExportResponse{
		Success:   true,
		Message:   "document exported",
		GoogleURL: url,
	})
}
