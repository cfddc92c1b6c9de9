package app

import "strings"

// Heuristic intent detection over the free-text prompt. Ordered substring
// rules with a fixed fallback; first match wins. Advisory only: a wrong class
// degrades output quality but never changes the metering contract.

const (
	DefaultDocumentType = "nda"
	DefaultJurisdiction = "US"
	DefaultBusinessType = "general"
)

type detectRule struct {
	needles []string
	value   string
}

var documentTypeRules = []detectRule{
	{[]string{" nda ", "non-disclosure", "non disclosure", "confidentiality agreement"}, "nda"},
	{[]string{"privacy policy", "privacy notice", "data protection policy"}, "privacy-policy"},
	{[]string{"terms of service", "terms and conditions", "terms of use"}, "terms-of-service"},
	{[]string{"employment contract", "employment agreement", "work contract", "job offer"}, "employment-contract"},
	{[]string{"service agreement", "services agreement", "consulting agreement", "freelance"}, "service-agreement"},
	{[]string{"lease", "rental agreement", "tenancy"}, "lease-agreement"},
}

var jurisdictionRules = []detectRule{
	{[]string{"germany", "german", "deutschland"}, "DE"},
	{[]string{"united states", "usa", " us ", "american", "california", "new york", "delaware"}, "US"},
	{[]string{"united kingdom", " uk ", "britain", "british", "england"}, "UK"},
	{[]string{"france", "french"}, "FR"},
	{[]string{"spain", "spanish"}, "ES"},
	{[]string{"canada", "canadian"}, "CA"},
	{[]string{"australia", "australian"}, "AU"},
	{[]string{"india", "indian"}, "IN"},
	{[]string{"netherlands", "dutch"}, "NL"},
}

var businessTypeRules = []detectRule{
	{[]string{"saas", "software", "startup", "app "}, "saas"},
	{[]string{"ecommerce", "e-commerce", "online store", "online shop", "webshop"}, "ecommerce"},
	{[]string{"consulting", "consultancy", "agency", "freelanc"}, "consulting"},
	{[]string{"healthcare", "medical", "clinic", "hospital"}, "healthcare"},
	{[]string{"finance", "financial", "fintech", "bank"}, "finance"},
	{[]string{"retail", "shop", "store"}, "retail"},
}

func matchRules(prompt string, rules []detectRule, fallback string) string {
	// Pad so word-boundary needles like " us " can match at the edges.
	haystack := " " + strings.ToLower(prompt) + " "
	for _, rule := range rules {
		for _, needle := range rule.needles {
			if strings.Contains(haystack, needle) {
				return rule.value
			}
		}
	}
	return fallback
}

// DetectDocumentType classifies the prompt into a recognized document type.
func DetectDocumentType(prompt string) string {
	return matchRules(prompt, documentTypeRules, DefaultDocumentType)
}

// DetectJurisdiction resolves a country hint in the prompt to an ISO-ish code.
func DetectJurisdiction(prompt string) string {
	return matchRules(prompt, jurisdictionRules, DefaultJurisdiction)
}

// DetectBusinessType classifies the business context mentioned in the prompt.
func DetectBusinessType(prompt string) string {
	return matchRules(prompt, businessTypeRules, DefaultBusinessType)
}

var knownDocumentTypes = map[string]bool{
	"nda":                 true,
	"privacy-policy":      true,
	"terms-of-service":    true,
	"employment-contract": true,
	"service-agreement":   true,
	"lease-agreement":     true,
}

// normalizeDocumentType accepts an explicit client-supplied type when it is
// recognized and otherwise falls back to detection over the prompt.
func normalizeDocumentType(requested, prompt string) string {
	requested = strings.ToLower(strings.TrimSpace(requested))
	if knownDocumentTypes[requested] {
		return requested
	}
	return DetectDocumentType(prompt)
}

// documentTitle produces the human-readable title for a generated document.
func documentTitle(docType string) string {
	switch docType {
	case "nda":
		return "Non-Disclosure Agreement"
	case "privacy-policy":
		return "Privacy Policy"
	case "terms-of-service":
		return "Terms of Service"
	case "employment-contract":
		return "Employment Contract"
	case "service-agreement":
		return "Service Agreement"
	case "lease-agreement":
		return "Lease Agreement"
	}
	return "Legal Document"
}
