package extract

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// HeuristicExtractor extracts loan fields with deterministic pattern
// matching. It is the default when no LLM provider is configured, and it
// honors the same contract: a field absent from the message stays nil.
type HeuristicExtractor struct{}

// NewHeuristicExtractor creates a new heuristic extractor.
func NewHeuristicExtractor() *HeuristicExtractor {
	return &HeuristicExtractor{}
}

// Name returns the provider name.
func (e *HeuristicExtractor) Name() string {
	return "heuristic"
}

var (
	amountLakh  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:lakh|lakhs|lac|lacs)\b`)
	amountK     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*k\b`)
	amountPlain = regexp.MustCompile(`(?:rs\.?|inr)?\s*(\d{4,8})\b`)
	tenureYears = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:years|year|yrs|yr)\b`)
	tenureMonth = regexp.MustCompile(`(\d+)\s*(?:months|month|mos|mo)\b`)
	purposeFor  = regexp.MustCompile(`(?:for|to)\s+([a-z][a-z ]{2,40}?)(?:[.,!?]|$)`)
)

// ExtractFields extracts loan request fields from a customer message.
func (e *HeuristicExtractor) ExtractFields(ctx context.Context, message, contextWindow string) (*Fields, error) {
	lower := strings.ToLower(message)
	fields := &Fields{}

	// Tenure first so its digits are not mistaken for an amount.
	remaining := lower
	if m := tenureYears.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			months := int(v * 12)
			fields.TenureMonths = &months
			remaining = strings.Replace(remaining, m[0], "", 1)
		}
	} else if m := tenureMonth.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			fields.TenureMonths = &v
			remaining = strings.Replace(remaining, m[0], "", 1)
		}
	}

	if m := amountLakh.FindStringSubmatch(remaining); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			amount := v * 100000
			fields.RequestedAmount = &amount
		}
	} else if m := amountK.FindStringSubmatch(remaining); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			amount := v * 1000
			fields.RequestedAmount = &amount
		}
	} else if m := amountPlain.FindStringSubmatch(remaining); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			fields.RequestedAmount = &v
		}
	}

	if m := purposeFor.FindStringSubmatch(lower); m != nil {
		purpose := strings.TrimSpace(m[1])
		if purpose != "" && !strings.HasPrefix(purpose, "month") && !strings.HasPrefix(purpose, "year") {
			fields.Purpose = &purpose
		}
	}

	return fields, nil
}
