// Package intent classifies inbound messages before the state machine sees
// them, keeping the machine itself free of string matching. It also hosts
// the deterministic field extractors (phone, salary) the orchestrator uses.
package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Kind is the classification of an inbound message.
type Kind int

const (
	// Continue means the message carries no decline signal and should be
	// processed by the current stage.
	Continue Kind = iota
	// Decline means the customer is backing out of the flow.
	Decline
)

// Classifier matches a message against a stage-specific keyword set.
type Classifier struct {
	keywords []string
}

// NewClassifier creates a classifier over the given decline keywords.
func NewClassifier(keywords ...string) *Classifier {
	return &Classifier{keywords: keywords}
}

// Classify returns Decline when any keyword occurs in the message.
func (c *Classifier) Classify(text string) Kind {
	lower := strings.ToLower(text)
	for _, kw := range c.keywords {
		if strings.Contains(lower, kw) {
			return Decline
		}
	}
	return Continue
}

// OfferDecline detects a customer backing out during offer presentation.
var OfferDecline = NewClassifier(
	"no", "not interested", "decline", "cancel", "don't want", "nevermind", "forget it",
)

// DocumentDecline detects a customer refusing to provide income proof.
var DocumentDecline = NewClassifier(
	"no", "don't have", "can't provide", "later", "not now",
)

var (
	phonePattern = regexp.MustCompile(`\d{10}`)
	lakhPattern  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:lakh|lakhs|lac|lacs|l)\b`)
	kPattern     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*k\b`)
	plainPattern = regexp.MustCompile(`(?:rs\.?|inr)?\s*(\d{4,7})`)
)

// ExtractPhone finds a 10-digit mobile number in free text. A message that
// is itself a parseable Indian number is normalized through the phone
// number library; otherwise country prefix, dashes and spaces are stripped
// and the first 10-digit run is taken.
func ExtractPhone(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if num, err := phonenumbers.Parse(trimmed, "IN"); err == nil && phonenumbers.IsValidNumber(num) {
		return strconv.FormatUint(num.GetNationalNumber(), 10), true
	}

	cleaned := strings.NewReplacer("+91", "", "-", "", " ", "").Replace(text)
	match := phonePattern.FindString(cleaned)
	if match == "" {
		return "", false
	}
	return match, true
}

// ParseSalary extracts a monthly salary figure from free text using
// lakh/k/plain-number heuristics.
func ParseSalary(text string) (float64, bool) {
	lower := strings.ToLower(text)

	if m := lakhPattern.FindStringSubmatch(lower); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return v * 100000, true
		}
	}

	if m := kPattern.FindStringSubmatch(lower); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return v * 1000, true
		}
	}

	if m := plainPattern.FindStringSubmatch(lower); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return v, true
		}
	}

	return 0, false
}

// MentionsUpload reports whether the message signals a document upload
// without necessarily carrying a parsable figure.
func MentionsUpload(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "uploaded") ||
		strings.Contains(lower, "attached") ||
		strings.Contains(lower, "salary slip")
}
