// Package model defines data structures for the loan-origination platform.
package model

import (
	"github.com/polaris-lending/loan-origination/internal/safeguard"
)

// Stage is a position in the conversation state machine.
type Stage string

const (
	StageIntro              Stage = "INTRO"
	StageNeedDiscovery      Stage = "NEED_DISCOVERY"
	StageOfferPresentation  Stage = "OFFER_PRESENTATION"
	StageKYCVerification    Stage = "KYC_VERIFICATION"
	StageUnderwriting       Stage = "UNDERWRITING"
	StageDocumentCollection Stage = "DOCUMENT_COLLECTION"
	StageSanction           Stage = "SANCTION"
	StageRejection          Stage = "REJECTION"
	StageEnd                Stage = "END"
)

// Decision is an underwriting outcome.
type Decision string

const (
	DecisionApproved       Decision = "APPROVED"
	DecisionRejected       Decision = "REJECTED"
	DecisionNeedSalarySlip Decision = "NEED_SALARY_SLIP"
)

// TerminalState is a conversation outcome after which no stage advances.
type TerminalState string

const (
	TerminalLoanSanctioned   TerminalState = "LOAN_SANCTIONED"
	TerminalLoanRejected     TerminalState = "LOAN_REJECTED"
	TerminalDocumentRequired TerminalState = "ADDITIONAL_DOCUMENT_REQUIRED"
	TerminalCustomerDropped  TerminalState = "CUSTOMER_DROPPED"
)

// ConversationState is the mutable record threading through one loan
// conversation. It is exclusively owned and mutated by the orchestrator.
type ConversationState struct {
	Stage Stage `json:"stage"`

	// Customer identity, populated progressively and never retracted.
	CustomerID   string `json:"customer_id,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	PANNumber    string `json:"pan_number,omitempty"`

	// Loan request.
	RequestedAmount *float64 `json:"requested_amount,omitempty"`
	TenureMonths    *int     `json:"tenure_months,omitempty"`
	Purpose         string   `json:"purpose,omitempty"`

	// Credit profile, set once from a successful lookup.
	PreapprovedLimit float64 `json:"preapproved_limit,omitempty"`
	CreditScore      int     `json:"credit_score,omitempty"`
	InterestRate     float64 `json:"interest_rate,omitempty"`
	MaxTenureMonths  int     `json:"max_tenure_months,omitempty"`

	// Income.
	Salary             *float64 `json:"salary,omitempty"`
	Employer           string   `json:"employer,omitempty"`
	SalarySlipReceived bool     `json:"salary_slip_received"`

	// Verification.
	KYCVerified bool `json:"kyc_verified"`

	// Derived values. EMI is always recomputed from the current request,
	// never carried over stale.
	EMI             *float64 `json:"emi,omitempty"`
	Decision        Decision `json:"decision,omitempty"`
	RejectionReason string   `json:"rejection_reason,omitempty"`

	// Outcome.
	SanctionID        string        `json:"sanction_id,omitempty"`
	DocumentAvailable bool          `json:"document_available"`
	TerminalState     TerminalState `json:"terminal_state,omitempty"`

	// Anti-loop bookkeeping, owned by this conversation.
	Guard safeguard.Guard `json:"guard"`

	// Conversation history, append-only.
	Messages []Message `json:"messages"`
}

// NewConversationState creates a fresh state with the given call budget.
func NewConversationState(maxAgentCalls int) *ConversationState {
	return &ConversationState{
		Stage: StageIntro,
		Guard: safeguard.NewGuard(maxAgentCalls),
	}
}

// IsTerminal reports whether the conversation has reached a terminal state.
func (s *ConversationState) IsTerminal() bool {
	return s.TerminalState != ""
}

// Terminate sets the terminal state once and moves the stage to END.
// A terminal state already set is never overwritten.
func (s *ConversationState) Terminate(t TerminalState) {
	if s.TerminalState != "" {
		return
	}
	s.TerminalState = t
	s.Stage = StageEnd
}

// AddMessage appends a message to the conversation history.
func (s *ConversationState) AddMessage(role Role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
}

// RecentContext returns the last n messages formatted as extraction context.
func (s *ConversationState) RecentContext(n int) string {
	start := len(s.Messages) - n
	if start < 0 {
		start = 0
	}
	var out string
	for _, m := range s.Messages[start:] {
		out += string(m.Role) + ": " + m.Content + "\n"
	}
	return out
}

// StateView is the serializable snapshot exposed to front ends. It carries
// the call counter but not the call-history hashes.
type StateView struct {
	Stage              Stage         `json:"stage"`
	CustomerID         string        `json:"customer_id,omitempty"`
	CustomerName       string        `json:"customer_name,omitempty"`
	RequestedAmount    *float64      `json:"requested_amount,omitempty"`
	TenureMonths       *int          `json:"tenure_months,omitempty"`
	PreapprovedLimit   float64       `json:"preapproved_limit,omitempty"`
	CreditScore        int           `json:"credit_score,omitempty"`
	Salary             *float64      `json:"salary,omitempty"`
	EMI                *float64      `json:"emi,omitempty"`
	KYCVerified        bool          `json:"kyc_verified"`
	SalarySlipReceived bool          `json:"salary_slip_received"`
	Decision           Decision      `json:"decision,omitempty"`
	SanctionID         string        `json:"sanction_id,omitempty"`
	TerminalState      TerminalState `json:"terminal_state,omitempty"`
	TotalAgentCalls    int           `json:"total_agent_calls"`
}

// View builds the externally visible snapshot of the state.
func (s *ConversationState) View() StateView {
	return StateView{
		Stage:              s.Stage,
		CustomerID:         s.CustomerID,
		CustomerName:       s.CustomerName,
		RequestedAmount:    s.RequestedAmount,
		TenureMonths:       s.TenureMonths,
		PreapprovedLimit:   s.PreapprovedLimit,
		CreditScore:        s.CreditScore,
		Salary:             s.Salary,
		EMI:                s.EMI,
		KYCVerified:        s.KYCVerified,
		SalarySlipReceived: s.SalarySlipReceived,
		Decision:           s.Decision,
		SanctionID:         s.SanctionID,
		TerminalState:      s.TerminalState,
		TotalAgentCalls:    s.Guard.TotalCalls,
	}
}
