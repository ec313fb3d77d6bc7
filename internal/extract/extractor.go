// Package extract provides the text-extraction collaborator: best-effort
// structured extraction of loan request fields from free-form customer
// messages. Implementations must never fabricate a value that is absent
// from the message; missing fields stay nil.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Fields are the structured values extracted from a customer message.
// Any field may be nil.
type Fields struct {
	RequestedAmount *float64 `json:"requested_amount"`
	TenureMonths    *int     `json:"tenure_months"`
	Purpose         *string  `json:"purpose"`
}

// Extractor is the interface for field-extraction providers.
type Extractor interface {
	// ExtractFields extracts loan request fields from a message, using the
	// recent conversation as context.
	ExtractFields(ctx context.Context, message, contextWindow string) (*Fields, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of extraction provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderHeuristic Provider = "heuristic"
)

// NewExtractor creates an extractor for the given provider.
func NewExtractor(provider Provider, apiKey string) (Extractor, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicExtractor(apiKey)
	case ProviderOpenAI:
		return NewOpenAIExtractor(apiKey)
	case ProviderHeuristic:
		return NewHeuristicExtractor(), nil
	default:
		return NewHeuristicExtractor(), nil
	}
}

const systemPrompt = `You are a loan requirement extraction service. Extract ONLY these fields from the customer's message:
- requested_amount: the loan amount in INR (number only)
- tenure_months: the loan tenure in months (number only)
- purpose: brief reason for the loan, if mentioned

If a field is not mentioned, set it to null. Never guess or invent values.
Respond with ONLY valid JSON in this exact format:
{"requested_amount": <number or null>, "tenure_months": <number or null>, "purpose": <string or null>}`

func buildPrompt(message, contextWindow string) string {
	if contextWindow == "" {
		contextWindow = "No prior context"
	}
	return fmt.Sprintf("CONVERSATION CONTEXT:\n%s\n\nCUSTOMER MESSAGE:\n%s\n\nExtract the loan requirements and respond with ONLY the JSON:",
		contextWindow, message)
}

// parseFields decodes a model response into Fields, tolerating markdown
// code fences and surrounding prose.
func parseFields(response string) (*Fields, error) {
	text := strings.TrimSpace(response)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var fields Fields
	if err := json.Unmarshal([]byte(text), &fields); err == nil {
		return &fields, nil
	}

	// Fall back to the outermost JSON object embedded in the response.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &fields); err == nil {
			return &fields, nil
		}
	}

	return nil, fmt.Errorf("failed to parse extraction response: %q", truncate(response, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
