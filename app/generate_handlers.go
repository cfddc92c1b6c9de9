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

func snapshot(usage models.UsageCounter) *models.UsageSnapshot {
	return &models.UsageSnapshot{
		Used:  usage.AIGenerationsUsed,
		Limit: LimitsFor(usage.Plan).AIGenerations,
		Plan:  usage.Plan,
	}
}

// Generate runs the AI document pipeline: authenticate, re-check usage, call
// the completion service, persist the document, then increment the counter.
// The counter moves only after a confirmed non-empty completion.
func (a *App) Generate(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, models.GenerateResponse{Error: "missing auth context"})
		return
	}

	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.GenerateResponse{Error: "invalid request body"})
		return
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		c.JSON(http.StatusBadRequest, models.GenerateResponse{Error: "prompt must not be empty"})
		return
	}

	if !a.generator.Configured() {
		log.Printf("generate: completion service not configured")
		c.JSON(http.StatusInternalServerError, models.GenerateResponse{Error: "generation service not configured"})
		return
	}

	ctx := c.Request.Context()
	usage, err := a.store.GetUsage(ctx, claims.Subject)
	if err != nil {
		log.Printf("generate: usage lookup failed sub=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, models.GenerateResponse{Error: "failed to load usage"})
		return
	}

	limits := LimitsFor(usage.Plan)
	if !CanPerform(usage.AIGenerationsUsed, 0, limits).CanUseAI {
		c.JSON(http.StatusTooManyRequests, models.GenerateResponse{
			Error:        "AI generation limit reached for your plan",
			LimitReached: true,
			Usage:        snapshot(usage),
		})
		return
	}

	docType := normalizeDocumentType(req.DocumentType, req.Prompt)
	jurisdiction := strings.ToUpper(strings.TrimSpace(req.Country))
	if jurisdiction == "" {
		jurisdiction = DetectJurisdiction(req.Prompt)
	}
	businessType := strings.TrimSpace(req.BusinessType)
	if businessType == "" {
		businessType = DetectBusinessType(req.Prompt)
	}

	result, err := a.generator.Complete(ctx, systemInstruction, BuildPrompt(req.Prompt, docType, jurisdiction, businessType))
	if err != nil {
		log.Printf("generate: completion call failed sub=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusBadGateway, models.GenerateResponse{Error: "generation failed, please try rephrasing your request"})
		return
	}
	if result.Outcome != CompletionSuccess {
		log.Printf("generate: completion rejected sub=%s outcome=%d status=%d", claims.Subject, result.Outcome, result.Status)
		c.JSON(http.StatusBadGateway, models.GenerateResponse{Error: "generation failed, please try rephrasing your request"})
		return
	}

	doc, err := a.store.CreateDocument(ctx, claims.Subject, documentTitle(docType), result.Content)
	if err != nil {
		log.Printf("generate: document save failed sub=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, models.GenerateResponse{Error: "failed to save document"})
		return
	}

	updated, err := a.store.ConsumeGeneration(ctx, claims.Subject, limits.AIGenerations)
	switch {
	case errors.Is(err, ErrLimitReached):
		// The completion already happened; a concurrent request winning the
		// conditional update just leaves the counter at its cap.
		log.Printf("generate: usage increment lost race sub=%s", claims.Subject)
		updated = usage
	case err != nil:
		log.Printf("generate: usage increment failed sub=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, models.GenerateResponse{
			Error:      "failed to record usage",
			DocumentID: doc.ID,
		})
		return
	}

	c.JSON(http.StatusOK, models.GenerateResponse{
		Success:    true,
		Content:    result.Content,
		DocumentID: doc.ID,
		Usage:      snapshot(updated),
	})
}

var validSummaryTypes = map[string]bool{"brief": true, "detailed": true, "key_points": true}

// Summarize meters against the same generation counter but never creates a
// document row.
func (a *App) Summarize(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, models.GenerateResponse{Error: "missing auth context"})
		return
	}

	var req models.SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.GenerateResponse{Error: "invalid request body"})
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		c.JSON(http.StatusBadRequest, models.GenerateResponse{Error: "content must not be empty"})
		return
	}
	if req.SummaryType == "" {
		req.SummaryType = "brief"
	}
	if !validSummaryTypes[req.SummaryType] {
		c.JSON(http.StatusBadRequest, models.GenerateResponse{Error: "unknown summary_type"})
		return
	}

	if !a.generator.Configured() {
		log.Printf("summarize: completion service not configured")
		c.JSON(http.StatusInternalServerError, models.GenerateResponse{Error: "generation service not configured"})
		return
	}

	ctx := c.Request.Context()
	usage, err := a.store.GetUsage(ctx, claims.Subject)
	if err != nil {
		log.Printf("summarize: usage lookup failed sub=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, models.GenerateResponse{Error: "failed to load usage"})
		return
	}

	limits := LimitsFor(usage.Plan)
	if !CanPerform(usage.AIGenerationsUsed, 0, limits).CanUseAI {
		c.JSON(http.StatusTooManyRequests, models.GenerateResponse{
			Error:        "AI generation limit reached for your plan",
			LimitReached: true,
			Usage:        snapshot(usage),
		})
		return
	}

	result, err := a.generator.Complete(ctx, summaryInstruction(req.SummaryType), req.Content)
	if err != nil {
		log.Printf("summarize: completion call failed sub=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusBadGateway, models.GenerateResponse{Error: "summarization failed, please try again"})
		return
	}
	if result.Outcome != CompletionSuccess {
		log.Printf("summarize: completion rejected sub=%s outcome=%d status=%d", claims.Subject, result.Outcome, result.Status)
		c.JSON(http.StatusBadGateway, models.GenerateResponse{Error: "summarization failed, please try again"})
		return
	}

	updated, err := a.store.ConsumeGeneration(ctx, claims.Subject, limits.AIGenerations)
	switch {
	case errors.Is(err, ErrLimitReached):
		log.Printf("summarize: usage increment lost race sub=%s", claims.Subject)
		updated = usage
	case err != nil:
		log.Printf("summarize: usage increment failed sub=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, models.GenerateResponse{Error: "failed to record usage"})
		return
	}

	c.JSON(http.StatusOK, models.GenerateResponse{
		Success: true,
		Summary: result.Content,
		Usage:   snapshot(updated),
	})
}
