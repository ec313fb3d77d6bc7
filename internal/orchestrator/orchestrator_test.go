package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/polaris-lending/loan-origination/internal/extract"
	"github.com/polaris-lending/loan-origination/internal/model"
	"github.com/polaris-lending/loan-origination/internal/offermart"
	"github.com/polaris-lending/loan-origination/internal/sanction"
	"github.com/polaris-lending/loan-origination/internal/underwriting"
	"github.com/polaris-lending/loan-origination/pkg/logger"
)

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	return New(
		offermart.NewStore(offermart.SeedProfiles()),
		extract.NewHeuristicExtractor(),
		sanction.NewLetterGenerator(),
		underwriting.NewEngine(underwriting.DefaultConfig()),
		&logger.Logger{Logger: zap.NewNop()},
	)
}

func send(t *testing.T, o *Orchestrator, st *model.ConversationState, text string) string {
	t.Helper()
	return o.ProcessMessage(context.Background(), st, text)
}

// Happy path: known customer, request within the pre-approved limit,
// sanctioned in a single turn after the requirements message.
func TestHappyPathSanctioned(t *testing.T) {
	o := newTestOrchestrator(t)
	st := model.NewConversationState(6)

	reply := send(t, o, st, "Hi")
	if !strings.Contains(reply, "mobile number") {
		t.Fatalf("expected greeting asking for phone, got %q", reply)
	}

	reply = send(t, o, st, "9876543210")
	if !strings.Contains(reply, "Rahul Sharma") || !strings.Contains(reply, "5,00,000") {
		t.Fatalf("expected offer presentation, got %q", reply)
	}
	if st.Stage != model.StageOfferPresentation {
		t.Fatalf("stage = %s, want OFFER_PRESENTATION", st.Stage)
	}

	reply = send(t, o, st, "I want 300000 for 36 months")
	if st.TerminalState != model.TerminalLoanSanctioned {
		t.Fatalf("terminal = %s, want LOAN_SANCTIONED", st.TerminalState)
	}
	if !strings.Contains(reply, "Congratulations") || !strings.Contains(reply, "Sanction ID") {
		t.Fatalf("expected sanction message, got %q", reply)
	}
	if st.Decision != model.DecisionApproved {
		t.Fatalf("decision = %s, want APPROVED", st.Decision)
	}
	if st.EMI == nil {
		t.Fatal("expected EMI on state")
	}
	if want := underwriting.EMI(300000, 12.5, 36); *st.EMI != want {
		t.Fatalf("EMI = %v, want %v", *st.EMI, want)
	}
	if !st.DocumentAvailable || st.SanctionID == "" {
		t.Fatalf("expected sanction document, got available=%v id=%q", st.DocumentAvailable, st.SanctionID)
	}
	// field-extractor, kyc-verifier, underwriting-engine, sanction-generator.
	if st.Guard.TotalCalls != 4 {
		t.Fatalf("TotalCalls = %d, want 4", st.Guard.TotalCalls)
	}
}

// A phone number in the very first message skips the greeting and lands
// directly on the offer.
func TestPhoneInFirstMessage(t *testing.T) {
	o := newTestOrchestrator(t)
	st := model.NewConversationState(6)

	reply := send(t, o, st, "9876543211")
	if !strings.Contains(reply, "Priya Patel") {
		t.Fatalf("expected offer in first turn, got %q", reply)
	}
	if st.Stage != model.StageOfferPresentation {
		t.Fatalf("stage = %s, want OFFER_PRESENTATION", st.Stage)
	}
}

// Known customer below the credit floor: rejected at discovery, the
// engine is never invoked.
func TestLowCreditScoreRejectedAtDiscovery(t *testing.T) {
	o := newTestOrchestrator(t)
	st := model.NewConversationState(6)

	send(t, o, st, "Hi")
	reply := send(t, o, st, "9876543213")

	if st.TerminalState != model.TerminalLoanRejected {
		t.Fatalf("terminal = %s, want LOAN_REJECTED", st.TerminalState)
	}
	if !strings.Contains(reply, "minimum credit score") {
		t.Fatalf("expected credit-score rejection, got %q", reply)
	}
	if st.Guard.TotalCalls != 0 {
		t.Fatalf("discovery lookup must not consume the call budget, TotalCalls=%d", st.Guard.TotalCalls)
	}
}

func TestUnknownPhoneDropsCustomer(t *testing.T) {
	o := newTestOrchestrator(t)
	st := model.NewConversationState(6)

	send(t, o, st, "Hi")
	reply := send(t, o, st, "1234567890")

	if st.TerminalState != model.TerminalCustomerDropped {
		t.Fatalf("terminal = %s, want CUSTOMER_DROPPED", st.TerminalState)
	}
	if reply != msgNoProfile {
		t.Fatalf("expected not-found message, got %q", reply)
	}
}

// Stretch zone: the request exceeds the limit, income proof is demanded,
// the disclosed salary cannot afford the EMI, and the rejection carries a
// suggested affordable amount.
func TestStretchZoneUnaffordableSalary(t *testing.T) {
	o := newTestOrchestrator(t)
	st := model.NewConversationState(6)

	send(t, o, st, "Hi")
	send(t, o, st, "9876543212")

	reply := send(t, o, st, "I want 500000 for 36 months")
	if st.Stage != model.StageDocumentCollection {
		t.Fatalf("stage = %s, want DOCUMENT_COLLECTION", st.Stage)
	}
	if !strings.Contains(reply, "exceeds your pre-approved limit") {
		t.Fatalf("expected income-proof request, got %q", reply)
	}

	reply = send(t, o, st, "my salary is 30000")
	if st.TerminalState != model.TerminalLoanRejected {
		t.Fatalf("terminal = %s, want LOAN_REJECTED", st.TerminalState)
	}
	if !st.SalarySlipReceived {
		t.Fatal("salary disclosure should mark the slip as received")
	}
	if !strings.Contains(reply, "Maximum affordable loan") {
		t.Fatalf("expected affordability rejection with suggestion, got %q", reply)
	}
}

// Stretch zone with an affordable salary sanctions the loan on the
// second underwriting pass.
func TestStretchZoneAffordableSalarySanctions(t *testing.T) {
	o := newTestOrchestrator(t)
	st := model.NewConversationState(6)

	send(t, o, st, "Hi")
	send(t, o, st, "9876543212")
	send(t, o, st, "I want 500000 for 36 months")

	reply := send(t, o, st, "my salary is 65000")
	if st.TerminalState != model.TerminalLoanSanctioned {
		t.Fatalf("terminal = %s, want LOAN_SANCTIONED (%q)", st.TerminalState, reply)
	}
	// Two underwriting passes with different inputs plus extractor, KYC
	// and sanction generation.
	if st.Guard.TotalCalls != 5 {
		t.Fatalf("TotalCalls = %d, want 5", st.Guard.TotalCalls)
	}
}

func TestOfferDeclineDropsCustomer(t *testing.T) {
	o := newTestOrchestrator(t)
	st := model.NewConversationState(6)

	send(t, o, st, "Hi")
	send(t, o, st, "9876543210")
	reply := send(t, o, st, "Not interested")

	if st.TerminalState != model.TerminalCustomerDropped {
		t.Fatalf("terminal = %s, want CUSTOMER_DROPPED", st.TerminalState)
	}
	if reply != msgOfferDeclined {
		t.Fatalf("expected decline acknowledgement, got %q", reply)
	}
	if st.Guard.TotalCalls != 0 {
		t.Fatalf("no decision units should run on decline, TotalCalls=%d", st.Guard.TotalCalls)
	}
}

func TestDocumentDeclineDropsCustomer(t *testing.T) {
	o := newTestOrchestrator(t)
	st := model.NewConversationState(6)

	send(t, o, st, "Hi")
	send(t, o, st, "9876543212")
	send(t, o, st, "I want 500000 for 36 months")
	reply := send(t, o, st, "I don't have it right here")

	if st.TerminalState != model.TerminalCustomerDropped {
		t.Fatalf("terminal = %s, want CUSTOMER_DROPPED", st.TerminalState)
	}
	if !strings.Contains(reply, "Without income verification") {
		t.Fatalf("expected document-decline message, got %q", reply)
	}
}

func TestDocumentUploadFallsBackToSalaryOnFile(t *testing.T) {
	o := newTestOrchestrator(t)
	st := model.NewConversationState(6)

	send(t, o, st, "Hi")
	send(t, o, st, "9876543212")
	send(t, o, st, "I want 500000 for 36 months")

	// CUST003 earns 65000 on file, which affords the EMI.
	send(t, o, st, "uploaded")
	if st.TerminalState != model.TerminalLoanSanctioned {
		t.Fatalf("terminal = %s, want LOAN_SANCTIONED", st.TerminalState)
	}
	if st.Salary == nil || *st.Salary != 65000 {
		t.Fatalf("salary = %v, want the 65000 on file", st.Salary)
	}
}

func TestDocumentUnparseableSuspendsForDocuments(t *testing.T) {
	o := newTestOrchestrator(t)
	st := model.NewConversationState(6)

	send(t, o, st, "Hi")
	send(t, o, st, "9876543212")
	send(t, o, st, "I want 500000 for 36 months")
	reply := send(t, o, st, "hmm let me check")

	if st.TerminalState != model.TerminalDocumentRequired {
		t.Fatalf("terminal = %s, want ADDITIONAL_DOCUMENT_REQUIRED", st.TerminalState)
	}
	if reply != msgDocumentStillNeeded {
		t.Fatalf("expected document-still-needed message, got %q", reply)
	}
}

// KYC-pending customer: the offer is presented (score clears the floor)
// but verification fails the application.
func TestKYCPendingRejects(t *testing.T) {
	o := newTestOrchestrator(t)
	st := model.NewConversationState(6)

	send(t, o, st, "Hi")
	send(t, o, st, "9876543214")
	reply := send(t, o, st, "I want 200000 for 12 months")

	if st.TerminalState != model.TerminalLoanRejected {
		t.Fatalf("terminal = %s, want LOAN_REJECTED", st.TerminalState)
	}
	if !strings.Contains(reply, "KYC verification is still pending") {
		t.Fatalf("expected KYC-pending message, got %q", reply)
	}
	if st.RejectionReason != "KYC verification pending" {
		t.Fatalf("RejectionReason = %q", st.RejectionReason)
	}
}

// An identical requirements message is never re-extracted; the customer
// is re-prompted instead.
func TestRepeatedMessageReprompts(t *testing.T) {
	o := newTestOrchestrator(t)
	st := model.NewConversationState(6)

	send(t, o, st, "Hi")
	send(t, o, st, "9876543210")

	first := send(t, o, st, "please give me a loan for marriage")
	if first != msgAskAmount {
		t.Fatalf("expected amount prompt, got %q", first)
	}

	second := send(t, o, st, "please give me a loan for marriage")
	if second != msgAskRequirements {
		t.Fatalf("expected re-prompt on identical message, got %q", second)
	}
	if st.Stage != model.StageOfferPresentation {
		t.Fatalf("stage = %s, want OFFER_PRESENTATION", st.Stage)
	}
	if st.Guard.TotalCalls != 1 {
		t.Fatalf("TotalCalls = %d, want 1 (no re-extraction)", st.Guard.TotalCalls)
	}
}

func TestCallBudgetTerminatesConversation(t *testing.T) {
	o := newTestOrchestrator(t)
	st := model.NewConversationState(1)

	send(t, o, st, "Hi")
	send(t, o, st, "9876543210")
	reply := send(t, o, st, "I want 300000 for 36 months")

	if st.TerminalState != model.TerminalCustomerDropped {
		t.Fatalf("terminal = %s, want CUSTOMER_DROPPED", st.TerminalState)
	}
	if !strings.Contains(reply, "Maximum processing attempts exceeded") {
		t.Fatalf("expected budget message, got %q", reply)
	}
}

// Terminal conversations answer every further message with a fixed
// closing line and never advance.
func TestTerminalConversationRepliesWithClosing(t *testing.T) {
	o := newTestOrchestrator(t)
	st := model.NewConversationState(6)

	send(t, o, st, "Hi")
	send(t, o, st, "9876543210")
	send(t, o, st, "I want 300000 for 36 months")

	calls := st.Guard.TotalCalls
	reply := send(t, o, st, "thanks!")

	if reply != msgClosingSanctioned {
		t.Fatalf("expected sanctioned closing, got %q", reply)
	}
	if st.Guard.TotalCalls != calls {
		t.Fatal("terminal messages must not invoke decision units")
	}
	if st.TerminalState != model.TerminalLoanSanctioned {
		t.Fatalf("terminal state changed to %s", st.TerminalState)
	}
}

type failingGenerator struct{}

func (failingGenerator) Generate(ctx context.Context, req sanction.Request) (*sanction.Document, error) {
	return nil, errors.New("render failed")
}

// Sanction-document failure does not block the sanction itself.
func TestGeneratorFailureStillSanctions(t *testing.T) {
	o := New(
		offermart.NewStore(offermart.SeedProfiles()),
		extract.NewHeuristicExtractor(),
		failingGenerator{},
		underwriting.NewEngine(underwriting.DefaultConfig()),
		&logger.Logger{Logger: zap.NewNop()},
	)
	st := model.NewConversationState(6)

	send(t, o, st, "Hi")
	send(t, o, st, "9876543210")
	reply := send(t, o, st, "I want 300000 for 36 months")

	if st.TerminalState != model.TerminalLoanSanctioned {
		t.Fatalf("terminal = %s, want LOAN_SANCTIONED", st.TerminalState)
	}
	if st.DocumentAvailable || st.SanctionID != "" {
		t.Fatalf("document must be unavailable on failure, got available=%v id=%q", st.DocumentAvailable, st.SanctionID)
	}
	if !strings.Contains(reply, "sanction letter will be shared separately") {
		t.Fatalf("expected deferred-letter note, got %q", reply)
	}
}

type failingLookup struct{}

func (failingLookup) Lookup(ctx context.Context, phoneOrID string) (*offermart.Result, error) {
	return nil, errors.New("offer mart unavailable")
}

func TestLookupFaultDropsCustomer(t *testing.T) {
	o := New(
		failingLookup{},
		extract.NewHeuristicExtractor(),
		sanction.NewLetterGenerator(),
		underwriting.NewEngine(underwriting.DefaultConfig()),
		&logger.Logger{Logger: zap.NewNop()},
	)
	st := model.NewConversationState(6)

	send(t, o, st, "Hi")
	reply := send(t, o, st, "9876543210")

	if st.TerminalState != model.TerminalCustomerDropped {
		t.Fatalf("terminal = %s, want CUSTOMER_DROPPED", st.TerminalState)
	}
	if reply != msgCollaboratorFault {
		t.Fatalf("expected fault message, got %q", reply)
	}
}
