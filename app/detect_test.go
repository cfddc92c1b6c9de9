package app

import "testing"

func TestDetectDocumentType(t *testing.T) {
	cases := []struct {
		prompt string
		want   string
	}{
		{"Create an NDA for a 2-year confidentiality period between two companies in Germany", "nda"},
		{"I need a privacy policy for my website", "privacy-policy"},
		{"Draft terms of service for an online marketplace", "terms-of-service"},
		{"Write an employment contract for a new hire", "employment-contract"},
		{"consulting agreement for a freelance designer", "service-agreement"},
		{"rental agreement for an apartment in Berlin", "lease-agreement"},
		{"Draft a standard lease agreement", "lease-agreement"},
		{"terms of use for a standard membership", "terms-of-service"},
		{"write me something legal", "nda"}, // fallback
	}

	for _, tc := range cases {
		if got := DetectDocumentType(tc.prompt); got != tc.want {
			t.Fatalf("DetectDocumentType(%q) = %q, want %q", tc.prompt, got, tc.want)
		}
	}
}

func TestDetectJurisdiction(t *testing.T) {
	cases := []struct {
		prompt string
		want   string
	}{
		{"Create an NDA for a 2-year confidentiality period between two companies in Germany", "DE"},
		{"privacy policy for a company based in the United States", "US"},
		{"terms for a UK limited company", "UK"},
		{"contract under French law", "FR"},
		{"an agreement for my startup", "US"}, // fallback
	}

	for _, tc := range cases {
		if got := DetectJurisdiction(tc.prompt); got != tc.want {
			t.Fatalf("DetectJurisdiction(%q) = %q, want %q", tc.prompt, got, tc.want)
		}
	}
}

func TestDetectBusinessType(t *testing.T) {
	cases := []struct {
		prompt string
		want   string
	}{
		{"privacy policy for my saas platform", "saas"},
		{"terms for an online store selling shoes", "ecommerce"},
		{"nda for a consulting engagement", "consulting"},
		{"agreement for a medical clinic", "healthcare"},
		{"an nda between two companies", "general"}, // fallback
	}

	for _, tc := range cases {
		if got := DetectBusinessType(tc.prompt); got != tc.want {
			t.Fatalf("DetectBusinessType(%q) = %q, want %q", tc.prompt, got, tc.want)
		}
	}
}

func TestNormalizeDocumentType(t *testing.T) {
	t.Run("recognized explicit type wins", func(t *testing.T) {
		if got := normalizeDocumentType("Privacy-Policy", "draft an nda"); got != "privacy-policy" {
			t.Fatalf("normalizeDocumentType = %q", got)
		}
	})
	t.Run("unrecognized type falls back to detection", func(t *testing.T) {
		if got := normalizeDocumentType("contract-ish", "I need a privacy policy"); got != "privacy-policy" {
			t.Fatalf("normalizeDocumentType = %q", got)
		}
	})
	t.Run("empty type and vague prompt default to nda", func(t *testing.T) {
		if got := normalizeDocumentType("", "help me"); got != DefaultDocumentType {
			t.Fatalf("normalizeDocumentType = %q", got)
		}
	})
}
