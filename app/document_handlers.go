package app

import (
	"errors"
	"log"
	"net/http"

	"github.com/MrBrightsidedev/Docwise/app/models"
	"github.com/MrBrightsidedev/Docwise/auth"

	"github.com/gin-gonic/gin"
)

// ListDocuments returns the caller's documents, newest first.
func (a *App) ListDocuments(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	docs, err := a.store.ListDocuments(c.Request.Context(), claims.Subject)
	if err != nil {
		log.Printf("list documents failed sub=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list documents"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs, "count": len(docs)})
}

// CreateDocument creates a blank or pre-filled document, enforcing the plan's
// document-count limit.
func (a *App) CreateDocument(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	var req models.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	usage, err := a.store.GetUsage(ctx, claims.Subject)
	if err != nil {
		log.Printf("create document: usage lookup failed sub=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load usage"})
		return
	}
	count, err := a.store.CountDocuments(ctx, claims.Subject)
	if err != nil {
		log.Printf("create document: count failed sub=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count documents"})
		return
	}
	if !CanPerform(usage.AIGenerationsUsed, count, LimitsFor(usage.Plan)).CanCreateDocument {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":         "document limit reached for your plan",
			"limit_reached": true,
		})
		return
	}

	doc, err := a.store.CreateDocument(ctx, claims.Subject, req.Title, req.Content)
	if errors.Is(err, ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title must not be empty"})
		return
	}
	if err != nil {
		log.Printf("create document failed sub=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create document"})
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// GetDocument returns one document. A document owned by someone else yields
// the same 404 as a missing one.
func (a *App) GetDocument(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	doc, err := a.store.GetDocument(c.Request.Context(), claims.Subject, c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	if err != nil {
		log.Printf("get document failed sub=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load document"})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// UpdateDocument saves title and content for a document the caller owns.
func (a *App) UpdateDocument(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	var req models.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	doc, err := a.store.UpdateDocument(c.Request.Context(), claims.Subject, c.Param("id"), req.Title, req.Content)
	if errors.Is(err, ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title must not be empty"})
		return
	}
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	if err != nil {
		log.Printf("update document failed sub=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update document"})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// DeleteDocument hard-deletes. Deleting an already-deleted id succeeds.
func (a *App) DeleteDocument(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	if err := a.store.DeleteDocument(c.Request.Context(), claims.Subject, c.Param("id")); err != nil {
		log.Printf("delete document failed sub=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete document"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
