// Package orchestrator implements the conversation state machine for loan
// origination. It owns the per-conversation state, sequences stages,
// invokes the rule engine and collaborators under the anti-loop safeguard,
// and produces the next outbound message.
package orchestrator

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/polaris-lending/loan-origination/internal/extract"
	"github.com/polaris-lending/loan-origination/internal/intent"
	"github.com/polaris-lending/loan-origination/internal/model"
	"github.com/polaris-lending/loan-origination/internal/offermart"
	"github.com/polaris-lending/loan-origination/internal/safeguard"
	"github.com/polaris-lending/loan-origination/internal/sanction"
	"github.com/polaris-lending/loan-origination/internal/underwriting"
	"github.com/polaris-lending/loan-origination/pkg/logger"
	"github.com/polaris-lending/loan-origination/pkg/metrics"
)

// Decision-unit names used in safeguard call signatures.
const (
	callFieldExtractor = "field-extractor"
	callKYCVerifier    = "kyc-verifier"
	callUnderwriting   = "underwriting-engine"
	callSanction       = "sanction-generator"
)

// autoContinue lists the stages that keep processing within the same turn
// once entered. DOCUMENT_COLLECTION and END always yield back to the
// caller and wait for the next inbound message.
var autoContinue = map[model.Stage]bool{
	model.StageNeedDiscovery:   true,
	model.StageKYCVerification: true,
	model.StageUnderwriting:    true,
	model.StageSanction:        true,
	model.StageRejection:       true,
}

// contextMessages is how many recent messages are passed to the extractor.
const contextMessages = 4

// Orchestrator drives loan conversations. It is stateless across
// conversations; all mutable state lives in the ConversationState it is
// handed, so one orchestrator serves any number of conversations.
type Orchestrator struct {
	lookup    offermart.Client
	extractor extract.Extractor
	generator sanction.Generator
	engine    *underwriting.Engine
	logger    *logger.Logger
}

// New creates an orchestrator over the given collaborators.
func New(
	lookup offermart.Client,
	extractor extract.Extractor,
	generator sanction.Generator,
	engine *underwriting.Engine,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		lookup:    lookup,
		extractor: extractor,
		generator: generator,
		engine:    engine,
		logger:    log,
	}
}

// stepResult is the outcome of one stage handler invocation.
type stepResult struct {
	reply string
	// cont requests same-turn continuation into the new stage. The run
	// loop still gates on the autoContinue table and terminal status.
	cont bool
}

// ProcessMessage processes one inbound message and returns the outbound
// reply. Exactly one reply is produced per call; several stages may advance
// within the call before a suspend point is reached.
func (o *Orchestrator) ProcessMessage(ctx context.Context, st *model.ConversationState, text string) string {
	st.AddMessage(model.RoleUser, text)

	if st.IsTerminal() {
		reply := o.closingMessage(st)
		st.AddMessage(model.RoleAssistant, reply)
		return reply
	}

	if st.Guard.BudgetExhausted() {
		metrics.SafeguardTripsTotal.WithLabelValues("budget").Inc()
		st.Terminate(model.TerminalCustomerDropped)
		st.AddMessage(model.RoleAssistant, msgCallBudgetExceeded)
		return msgCallBudgetExceeded
	}

	reply := o.run(ctx, st, text)
	st.AddMessage(model.RoleAssistant, reply)
	return reply
}

// run advances the state machine until a suspend point: a stage that needs
// the next inbound message, a terminal state, or a stage outside the
// auto-continue table.
func (o *Orchestrator) run(ctx context.Context, st *model.ConversationState, text string) string {
	var parts []string
	for {
		before := st.Stage
		res := o.handle(ctx, st, text)
		if res.reply != "" {
			parts = append(parts, res.reply)
		}
		if st.Stage != before {
			metrics.RecordStageTransition(string(before), string(st.Stage))
		}
		if !res.cont || st.IsTerminal() || !autoContinue[st.Stage] {
			break
		}
	}
	return strings.Join(parts, "\n\n")
}

func (o *Orchestrator) handle(ctx context.Context, st *model.ConversationState, text string) stepResult {
	switch st.Stage {
	case model.StageIntro:
		return o.handleIntro(st, text)
	case model.StageNeedDiscovery:
		return o.handleNeedDiscovery(ctx, st, text)
	case model.StageOfferPresentation:
		return o.handleOfferPresentation(ctx, st, text)
	case model.StageKYCVerification:
		return o.handleKYCVerification(ctx, st)
	case model.StageUnderwriting:
		return o.handleUnderwriting(ctx, st)
	case model.StageDocumentCollection:
		return o.handleDocumentCollection(ctx, st, text)
	case model.StageSanction:
		return o.handleSanction(ctx, st)
	case model.StageRejection:
		return o.handleRejection(st)
	case model.StageEnd:
		return stepResult{reply: o.closingMessage(st)}
	default:
		return o.handleIntro(st, text)
	}
}

// INTRO greets the customer. A message that already carries a phone number
// jumps straight into need discovery within the same turn.
func (o *Orchestrator) handleIntro(st *model.ConversationState, text string) stepResult {
	st.Stage = model.StageNeedDiscovery

	if phone, ok := intent.ExtractPhone(text); ok {
		st.Phone = phone
		return stepResult{cont: true}
	}
	return stepResult{reply: msgGreeting}
}

// NEED_DISCOVERY requires a phone number, then consults the offer lookup.
func (o *Orchestrator) handleNeedDiscovery(ctx context.Context, st *model.ConversationState, text string) stepResult {
	if st.Phone == "" {
		phone, ok := intent.ExtractPhone(text)
		if !ok {
			return stepResult{reply: msgAskPhone}
		}
		st.Phone = phone
	}

	result, err := o.lookup.Lookup(ctx, st.Phone)
	if err != nil {
		return o.fault(st, "offer-lookup", err)
	}
	metrics.RecordCollaboratorCall("offer-lookup", "ok")

	if !result.Found {
		st.Terminate(model.TerminalCustomerDropped)
		return stepResult{reply: msgNoProfile}
	}

	profile := result.Profile
	if profile.CreditScore < o.engine.MinCreditScore() {
		st.Terminate(model.TerminalLoanRejected)
		st.RejectionReason = "credit score below minimum requirement"
		return stepResult{reply: msgNoOffer}
	}

	st.CustomerID = profile.CustomerID
	st.CustomerName = profile.Name
	st.PANNumber = profile.PANNumber
	st.PreapprovedLimit = profile.PreapprovedLimit
	st.CreditScore = profile.CreditScore
	st.InterestRate = profile.InterestRate
	st.MaxTenureMonths = profile.MaxTenureMonths

	st.Stage = model.StageOfferPresentation
	return stepResult{reply: msgOffer(st)}
}

// OFFER_PRESENTATION collects the requested amount and tenure, calling the
// field-extraction collaborator under the safeguard.
func (o *Orchestrator) handleOfferPresentation(ctx context.Context, st *model.ConversationState, text string) stepResult {
	if intent.OfferDecline.Classify(text) == intent.Decline {
		st.Terminate(model.TerminalCustomerDropped)
		return stepResult{reply: msgOfferDeclined}
	}

	hash := safeguard.InputHash(map[string]any{"message": text})
	if !st.Guard.CanInvoke(callFieldExtractor, hash) {
		// Identical message already extracted once; re-prompt instead of
		// re-invoking the collaborator.
		metrics.SafeguardTripsTotal.WithLabelValues("repeat").Inc()
		return stepResult{reply: msgAskRequirements}
	}
	if done := o.enforceBudget(st); done != nil {
		return *done
	}
	st.Guard.RecordInvocation(callFieldExtractor, hash)

	fields, err := o.extractor.ExtractFields(ctx, text, st.RecentContext(contextMessages))
	if err != nil {
		return o.fault(st, callFieldExtractor, err)
	}
	metrics.RecordCollaboratorCall(callFieldExtractor, "ok")

	if fields.RequestedAmount != nil && *fields.RequestedAmount > 0 {
		st.RequestedAmount = fields.RequestedAmount
	}
	if fields.TenureMonths != nil && *fields.TenureMonths > 0 {
		st.TenureMonths = fields.TenureMonths
	}
	if fields.Purpose != nil {
		st.Purpose = *fields.Purpose
	}

	if st.RequestedAmount == nil {
		return stepResult{reply: msgAskAmount}
	}
	if st.TenureMonths == nil {
		return stepResult{reply: msgAskTenure(*st.RequestedAmount)}
	}

	st.Stage = model.StageKYCVerification
	return stepResult{reply: msgProcessing(st), cont: true}
}

// KYC_VERIFICATION verifies the customer's KYC status via the lookup
// collaborator, safeguard-keyed on the phone number.
func (o *Orchestrator) handleKYCVerification(ctx context.Context, st *model.ConversationState) stepResult {
	hash := safeguard.InputHash(map[string]any{"phone": st.Phone})
	if !st.Guard.CanInvoke(callKYCVerifier, hash) {
		metrics.SafeguardTripsTotal.WithLabelValues("repeat").Inc()
		st.Terminate(model.TerminalLoanRejected)
		st.RejectionReason = "verification could not be repeated"
		return stepResult{reply: msgVerificationIssue}
	}
	if done := o.enforceBudget(st); done != nil {
		return *done
	}
	st.Guard.RecordInvocation(callKYCVerifier, hash)

	result, err := o.lookup.Lookup(ctx, st.Phone)
	if err != nil {
		return o.fault(st, callKYCVerifier, err)
	}
	metrics.RecordCollaboratorCall(callKYCVerifier, "ok")

	if !result.Found {
		st.Terminate(model.TerminalLoanRejected)
		st.RejectionReason = "customer record not found during verification"
		return stepResult{reply: msgKYCNotFound}
	}
	if !result.Profile.KYCVerified {
		st.Terminate(model.TerminalLoanRejected)
		st.RejectionReason = "KYC verification pending"
		return stepResult{reply: msgKYCPending}
	}

	st.KYCVerified = true
	if result.Profile.MonthlySalary > 0 {
		salary := result.Profile.MonthlySalary
		st.Salary = &salary
	}
	if result.Profile.Employer != "" {
		st.Employer = result.Profile.Employer
	}

	st.Stage = model.StageUnderwriting
	return stepResult{cont: true}
}

// UNDERWRITING invokes the rule engine, safeguard-keyed on the full input
// tuple so a changed amount, tenure or salary permits a fresh decision.
func (o *Orchestrator) handleUnderwriting(ctx context.Context, st *model.ConversationState) stepResult {
	input := underwriting.Input{
		PreapprovedLimit: st.PreapprovedLimit,
		CreditScore:      st.CreditScore,
		InterestRate:     st.InterestRate,
	}
	if st.RequestedAmount != nil {
		input.RequestedAmount = *st.RequestedAmount
	}
	if st.TenureMonths != nil {
		input.TenureMonths = *st.TenureMonths
	}
	// Salary participates only once income proof has been received.
	if st.SalarySlipReceived {
		input.Salary = st.Salary
	}

	hashInput := map[string]any{
		"requested_amount":  input.RequestedAmount,
		"tenure_months":     input.TenureMonths,
		"preapproved_limit": input.PreapprovedLimit,
		"credit_score":      input.CreditScore,
		"interest_rate":     input.InterestRate,
	}
	if input.Salary != nil {
		hashInput["salary"] = *input.Salary
	}

	hash := safeguard.InputHash(hashInput)
	if !st.Guard.CanInvoke(callUnderwriting, hash) {
		metrics.SafeguardTripsTotal.WithLabelValues("repeat").Inc()
		st.Terminate(model.TerminalCustomerDropped)
		return stepResult{reply: msgProcessingIssue}
	}
	if done := o.enforceBudget(st); done != nil {
		return *done
	}
	st.Guard.RecordInvocation(callUnderwriting, hash)

	result := o.engine.Decide(input)
	metrics.RecordCollaboratorCall(callUnderwriting, "ok")
	metrics.DecisionsTotal.WithLabelValues(string(result.Decision)).Inc()

	st.EMI = result.EMI
	st.Decision = result.Decision
	if result.EMI != nil {
		metrics.EMIAmount.Observe(*result.EMI)
	}

	switch result.Decision {
	case model.DecisionApproved:
		st.Stage = model.StageSanction
		return stepResult{cont: true}

	case model.DecisionNeedSalarySlip:
		st.Stage = model.StageDocumentCollection
		return stepResult{reply: msgNeedSalarySlip(st)}

	default:
		st.RejectionReason = result.Reason
		st.Stage = model.StageRejection
		return stepResult{cont: true}
	}
}

// DOCUMENT_COLLECTION waits for income proof: a salary figure in free text,
// or an upload signal that falls back to the salary on file.
func (o *Orchestrator) handleDocumentCollection(ctx context.Context, st *model.ConversationState, text string) stepResult {
	if intent.DocumentDecline.Classify(text) == intent.Decline {
		st.Terminate(model.TerminalCustomerDropped)
		return stepResult{reply: msgDocumentDeclined(st)}
	}

	if salary, ok := intent.ParseSalary(text); ok {
		st.Salary = &salary
		st.SalarySlipReceived = true
		st.Stage = model.StageUnderwriting
		return stepResult{cont: true}
	}

	if intent.MentionsUpload(text) {
		// Simulated document upload: fall back to the salary on file.
		result, err := o.lookup.Lookup(ctx, st.Phone)
		if err != nil {
			return o.fault(st, "offer-lookup", err)
		}
		if result.Found && result.Profile.MonthlySalary > 0 {
			salary := result.Profile.MonthlySalary
			st.Salary = &salary
			st.SalarySlipReceived = true
			st.Stage = model.StageUnderwriting
			return stepResult{cont: true}
		}
	}

	st.Terminate(model.TerminalDocumentRequired)
	return stepResult{reply: msgDocumentStillNeeded}
}

// SANCTION calls the document generator. The call is recorded for the
// audit trail but never safeguard-blocked: it runs at most once per
// approval. Generator failure does not block sanctioning.
func (o *Orchestrator) handleSanction(ctx context.Context, st *model.ConversationState) stepResult {
	req := sanction.Request{
		CustomerName: st.CustomerName,
		CustomerID:   st.CustomerID,
		TenureMonths: orZeroInt(st.TenureMonths),
		InterestRate: st.InterestRate,
		EMI:          orZero(st.EMI),
	}
	if st.RequestedAmount != nil {
		req.Amount = *st.RequestedAmount
	}

	hash := safeguard.InputHash(map[string]any{
		"customer_id": req.CustomerID,
		"amount":      req.Amount,
		"tenure":      req.TenureMonths,
	})
	st.Guard.RecordInvocation(callSanction, hash)

	doc, err := o.generator.Generate(ctx, req)
	if err != nil || !doc.Success {
		if err != nil {
			o.logger.Warn("sanction document generation failed", zap.Error(err))
		}
		metrics.RecordCollaboratorCall(callSanction, "error")
		st.DocumentAvailable = false
	} else {
		metrics.RecordCollaboratorCall(callSanction, "ok")
		st.SanctionID = doc.ID
		st.DocumentAvailable = true
	}

	st.Terminate(model.TerminalLoanSanctioned)
	return stepResult{reply: msgSanctioned(st)}
}

// REJECTION emits the stored rejection reason and ends the conversation.
func (o *Orchestrator) handleRejection(st *model.ConversationState) stepResult {
	st.Terminate(model.TerminalLoanRejected)
	return stepResult{reply: msgRejected(st)}
}

// fault handles an unexpected collaborator error: it is surfaced to the
// customer and the conversation terminates rather than stalling or
// silently retrying.
func (o *Orchestrator) fault(st *model.ConversationState, name string, err error) stepResult {
	o.logger.Error("collaborator fault",
		zap.String("collaborator", name),
		zap.String("stage", string(st.Stage)),
		zap.Error(err),
	)
	metrics.RecordCollaboratorCall(name, "error")
	st.Terminate(model.TerminalCustomerDropped)
	return stepResult{reply: msgCollaboratorFault}
}

// enforceBudget terminates the conversation when the call budget is spent
// mid-turn, before another invocation would exceed it.
func (o *Orchestrator) enforceBudget(st *model.ConversationState) *stepResult {
	if !st.Guard.BudgetExhausted() {
		return nil
	}
	metrics.SafeguardTripsTotal.WithLabelValues("budget").Inc()
	st.Terminate(model.TerminalCustomerDropped)
	return &stepResult{reply: msgCallBudgetExceeded}
}

func (o *Orchestrator) closingMessage(st *model.ConversationState) string {
	if st.TerminalState == model.TerminalLoanSanctioned {
		return msgClosingSanctioned
	}
	return msgClosingEnded
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func orZeroInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
