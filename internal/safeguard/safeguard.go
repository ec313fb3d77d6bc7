// Package safeguard implements the anti-loop protection for decision-unit
// calls. A Guard is owned by exactly one conversation and is never shared,
// so no locking is required.
package safeguard

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DefaultMaxCalls is the call budget applied when none is configured.
const DefaultMaxCalls = 6

// Guard tracks decision-unit invocations within a single conversation.
// It rejects a repeated call carrying the exact same input, and it bounds
// the total number of calls across the conversation.
type Guard struct {
	// MaxCalls is the total call budget for the conversation.
	MaxCalls int `json:"-"`

	// History holds call signatures (name:inputHash). Internal bookkeeping,
	// never serialized to callers.
	History []string `json:"-"`

	// TotalCalls is the number of recorded invocations.
	TotalCalls int `json:"total_agent_calls"`

	// LastCalled is the name of the most recently invoked unit.
	LastCalled string `json:"-"`
}

// NewGuard creates a guard with the given call budget.
func NewGuard(maxCalls int) Guard {
	if maxCalls <= 0 {
		maxCalls = DefaultMaxCalls
	}
	return Guard{MaxCalls: maxCalls}
}

// BudgetExhausted reports whether the call budget has been reached.
func (g *Guard) BudgetExhausted() bool {
	return g.TotalCalls >= g.MaxCalls
}

// CanInvoke reports whether a call with this name and input hash is allowed.
// It returns false when the identical signature was already recorded.
func (g *Guard) CanInvoke(name, inputHash string) bool {
	signature := signature(name, inputHash)
	for _, s := range g.History {
		if s == signature {
			return false
		}
	}
	return true
}

// RecordInvocation records a call signature and advances the call counter.
func (g *Guard) RecordInvocation(name, inputHash string) {
	g.History = append(g.History, signature(name, inputHash))
	g.LastCalled = name
	g.TotalCalls++
}

func signature(name, inputHash string) string {
	return fmt.Sprintf("%s:%s", name, inputHash)
}

// InputHash computes a stable, order-independent content digest of a call's
// normalized input map. encoding/json marshals map keys in sorted order, so
// two maps with the same contents always hash identically.
func InputHash(inputs map[string]any) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		// Maps of JSON-encodable values cannot fail; fall back to the
		// formatted value so the guard still discriminates inputs.
		data = []byte(fmt.Sprintf("%v", inputs))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
