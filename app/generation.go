package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrBrightsidedev/Docwise/app/config"
)

var httpc = &http.Client{Timeout: 60 * time.Second}

// GenerationClient talks to the hosted text-completion service. Responses are
// validated into a tagged CompletionResult at this boundary; raw provider JSON
// never travels further into the system.
type GenerationClient struct {
	cfg    config.GenerationConfig
	client *http.Client
}

func NewGenerationClient(cfg config.GenerationConfig) *GenerationClient {
	return &GenerationClient{cfg: cfg, client: httpc}
}

// Configured reports whether the completion service can be called at all.
// Generation endpoints fail closed when this is false.
func (g *GenerationClient) Configured() bool {
	return g.cfg.APIKey != "" && g.cfg.APIURL != ""
}

type CompletionOutcome int

const (
	CompletionSuccess CompletionOutcome = iota
	CompletionEmpty
	CompletionAPIError
)

// CompletionResult is the strict mapping of the provider's response.
type CompletionResult struct {
	Outcome CompletionOutcome
	Content string
	Status  int
	Body    string
}

type completionRequest struct {
	Model     string `json:"model"`
	System    string `json:"system"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

type completionResponse struct {
	Candidates []struct {
		Text string `json:"text"`
	} `json:"candidates"`
}

const systemInstruction = "You are a legal document drafting assistant. " +
	"Produce a complete, professionally structured document in markdown. " +
	"Include standard clauses for the requested document type and jurisdiction. " +
	"Do not include commentary outside the document itself."

// BuildPrompt embeds the fixed system instruction context plus the detected
// parameters ahead of the user's free-text request.
func BuildPrompt(prompt, docType, jurisdiction, businessType string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Document type: %s\n", docType)
	fmt.Fprintf(&b, "Jurisdiction: %s\n", jurisdiction)
	fmt.Fprintf(&b, "Business type: %s\n\n", businessType)
	b.WriteString(prompt)
	return b.String()
}

// Complete performs one completion call. The returned error covers transport
// and encoding failures only; provider-level failures come back as
// CompletionAPIError or CompletionEmpty outcomes.
func (g *GenerationClient) Complete(ctx context.Context, system, prompt string) (CompletionResult, error) {
	if !g.Configured() {
		return CompletionResult{}, ErrNotConfigured
	}

	payload, err := json.Marshal(completionRequest{
		Model:     g.cfg.Model,
		System:    system,
		Prompt:    prompt,
		MaxTokens: g.cfg.MaxTokens,
	})
	if err != nil {
		return CompletionResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return CompletionResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return CompletionResult{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<22))
	if err != nil {
		return CompletionResult{}, err
	}

	if resp.StatusCode != http.StatusOK {
		return CompletionResult{
			Outcome: CompletionAPIError,
			Status:  resp.StatusCode,
			Body:    string(body),
		}, nil
	}

	var parsed completionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return CompletionResult{Outcome: CompletionAPIError, Status: resp.StatusCode, Body: string(body)}, nil
	}

	for _, cand := range parsed.Candidates {
		if text := strings.TrimSpace(cand.Text); text != "" {
			return CompletionResult{Outcome: CompletionSuccess, Content: text}, nil
		}
	}
	return CompletionResult{Outcome: CompletionEmpty, Status: resp.StatusCode}, nil
}

// summaryInstruction maps the requested summary style to the instruction sent
// ahead of the document content.
func summaryInstruction(summaryType string) string {
	switch summaryType {
	case "detailed":
		return "Summarize the following legal document section by section, preserving every obligation and deadline."
	case "key_points":
		return "Extract the key points of the following legal document as a short bullet list."
	default: // brief
		return "Summarize the following legal document in a short paragraph of plain language."
	}
}
