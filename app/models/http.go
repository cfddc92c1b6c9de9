package models

// Wire types for the generation, summarization, export and billing endpoints.

type GenerateRequest struct {
	Prompt       string `json:"prompt"`
	DocumentType string `json:"document_type"`
	Country      string `json:"country"`
	BusinessType string `json:"business_type"`
}

type SummarizeRequest struct {
	DocumentID  string `json:"document_id"`
	Content     string `json:"content"`
	SummaryType string `json:"summary_type"`
}

// UsageSnapshot is the usage block echoed back on generation responses and /me.
// Limit is -1 for unlimited plans.
type UsageSnapshot struct {
	Used  int  `json:"used"`
	Limit int  `json:"limit"`
	Plan  Plan `json:"plan"`
}

type GenerateResponse struct {
	Success      bool           `json:"success"`
	Content      string         `json:"content,omitempty"`
	Summary      string         `json:"summary,omitempty"`
	DocumentID   string         `json:"document_id,omitempty"`
	Error        string         `json:"error,omitempty"`
	LimitReached bool           `json:"limit_reached,omitempty"`
	Usage        *UsageSnapshot `json:"usage,omitempty"`
}

type ExportRequest struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	ExportType string `json:"export_type"`
}

type ExportResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	GoogleURL    string `json:"google_url,omitempty"`
	RequiresAuth bool   `json:"requires_auth,omitempty"`
	Error        string `json:"error,omitempty"`
}

type CheckoutRequest struct {
	PriceID    string `json:"price_id"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
	Mode       string `json:"mode"`
}

type CreateDocumentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type UpdateDocumentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
