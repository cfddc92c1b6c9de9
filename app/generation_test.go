package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrBrightsidedev/Docwise/app/config"
)

func newTestGenerationClient(url string) *GenerationClient {
	return NewGenerationClient(config.GenerationConfig{
		APIURL:    url,
		APIKey:    "test-key",
		Model:     "test-model",
		MaxTokens: 1024,
	})
}

func TestCompleteSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing api key header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"text":"# NDA\n\nThis agreement..."}]}`))
	}))
	defer server.Close()

	result, err := newTestGenerationClient(server.URL).Complete(context.Background(), systemInstruction, "an nda")
	if err != nil {
		t.Fatalf("Complete error = %v", err)
	}
	if result.Outcome != CompletionSuccess {
		t.Fatalf("outcome = %d, want success", result.Outcome)
	}
	if !strings.Contains(result.Content, "NDA") {
		t.Fatalf("content = %q", result.Content)
	}
}

func TestCompleteEmptyCandidates(t *testing.T) {
	cases := map[string]string{
		"no candidates":    `{"candidates":[]}`,
		"blank text":       `{"candidates":[{"text":"   "}]}`,
		"missing text key": `{"candidates":[{}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer server.Close()

			result, err := newTestGenerationClient(server.URL).Complete(context.Background(), systemInstruction, "an nda")
			if err != nil {
				t.Fatalf("Complete error = %v", err)
			}
			if result.Outcome != CompletionEmpty {
				t.Fatalf("outcome = %d, want empty", result.Outcome)
			}
		})
	}
}

func TestCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"overloaded"}`))
	}))
	defer server.Close()

	result, err := newTestGenerationClient(server.URL).Complete(context.Background(), systemInstruction, "an nda")
	if err != nil {
		t.Fatalf("Complete error = %v", err)
	}
	if result.Outcome != CompletionAPIError {
		t.Fatalf("outcome = %d, want api error", result.Outcome)
	}
	if result.Status != http.StatusTooManyRequests {
		t.Fatalf("status = %d", result.Status)
	}
}

func TestCompleteNotConfigured(t *testing.T) {
	client := NewGenerationClient(config.GenerationConfig{})
	if client.Configured() {
		t.Fatal("expected unconfigured client")
	}
	if _, err := client.Complete(context.Background(), systemInstruction, "an nda"); err != ErrNotConfigured {
		t.Fatalf("Complete error = %v, want ErrNotConfigured", err)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("Draft an NDA", "nda", "DE", "saas")
	for _, want := range []string{"Document type: nda", "Jurisdiction: DE", "Business type: saas", "Draft an NDA"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("BuildPrompt missing %q in %q", want, prompt)
		}
	}
}
