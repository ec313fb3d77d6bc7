package orchestrator

import (
	"fmt"
	"strings"

	"github.com/polaris-lending/loan-origination/internal/model"
)

// Outbound reply texts. Business values are interpolated; the texts
// themselves are fixed so tests can assert on them.
const (
	msgGreeting = "Hello! Welcome to Polaris Personal Loans. I'm here to help you with a quick and easy loan today. " +
		"May I know your mobile number so I can check if you have a pre-approved offer waiting for you?"

	msgAskPhone = "I didn't catch your mobile number. Could you please share your 10-digit mobile number?"

	msgNoProfile = "I'm sorry, but I couldn't find your profile in our system. " +
		"You may need to register with us first. Thank you for your interest in Polaris!"

	msgNoOffer = "I'm sorry, but I wasn't able to find a pre-approved offer for you at this time. " +
		"Our loan products require a minimum credit score. " +
		"You may want to work on improving your credit score and try again in a few months."

	msgOfferDeclined = "I understand. Thank you for considering Polaris Personal Loans. " +
		"If you change your mind, our pre-approved offer will be available for 30 days. Have a great day!"

	msgAskRequirements = "I need to understand your loan requirement better. Could you please tell me " +
		"how much you want to borrow, and over how many months you would like to repay it?"

	msgAskAmount = "What amount would you like to borrow? Please specify in rupees."

	msgVerificationIssue = "There was an issue with the verification process. Please try again later."

	msgKYCNotFound = "I'm sorry, but we couldn't verify your details. " +
		"Please ensure your registration is complete and try again. Thank you!"

	msgKYCPending = "I'm sorry, but your KYC verification is still pending. " +
		"Please complete your KYC and try again. Thank you!"

	msgProcessingIssue = "We encountered an issue processing your application. Please try again later."

	msgDocumentStillNeeded = "I still need your salary details to proceed. " +
		"Please share your monthly salary amount or upload your salary slip. " +
		"You can reply later when you have the document ready."

	msgCollaboratorFault = "I'm sorry, something went wrong while processing your request. " +
		"Please start a new application later."

	msgCallBudgetExceeded = "Maximum processing attempts exceeded. This conversation has ended; " +
		"please start a new application."

	msgClosingSanctioned = "Your loan has been sanctioned! Is there anything else I can help you with regarding your loan?"

	msgClosingEnded = "This conversation has ended. If you'd like to start a new loan application, " +
		"please start again. Thank you!"
)

func msgOffer(st *model.ConversationState) string {
	return fmt.Sprintf(
		"Great news, %s! You have a pre-approved personal loan offer of up to Rs %s. "+
			"Interest rate: %.1f%% per annum, maximum tenure: %d months. "+
			"How much would you like to borrow, and for how many months?",
		st.CustomerName, formatINR(st.PreapprovedLimit), st.InterestRate, st.MaxTenureMonths)
}

func msgAskTenure(amount float64) string {
	return fmt.Sprintf("Got it, Rs %s. For how many months would you like the loan?", formatINR(amount))
}

func msgProcessing(st *model.ConversationState) string {
	return fmt.Sprintf("Perfect! You want Rs %s for %d months. Let me verify your details and process this request...",
		formatINR(*st.RequestedAmount), *st.TenureMonths)
}

func msgNeedSalarySlip(st *model.ConversationState) string {
	return fmt.Sprintf(
		"Almost there! Your requested amount of Rs %s exceeds your pre-approved limit of Rs %s. "+
			"To process this, I need to verify your income. "+
			"Could you please upload your latest salary slip or confirm your monthly salary?",
		formatINR(*st.RequestedAmount), formatINR(st.PreapprovedLimit))
}

func msgDocumentDeclined(st *model.ConversationState) string {
	return fmt.Sprintf(
		"I understand. Without income verification, I'm unable to process this loan amount. "+
			"You can still apply for a loan within your pre-approved limit of Rs %s. "+
			"Thank you for your interest in Polaris!",
		formatINR(st.PreapprovedLimit))
}

func msgSanctioned(st *model.ConversationState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Congratulations, %s! Your personal loan has been approved.\n", st.CustomerName)
	if st.SanctionID != "" {
		fmt.Fprintf(&b, "Sanction ID: %s\n", st.SanctionID)
	} else {
		b.WriteString("Your sanction letter will be shared separately.\n")
	}
	fmt.Fprintf(&b, "Approved amount: Rs %s\n", formatINR(orZero(st.RequestedAmount)))
	fmt.Fprintf(&b, "Tenure: %d months\n", orZeroInt(st.TenureMonths))
	fmt.Fprintf(&b, "Interest rate: %.1f%% p.a.\n", st.InterestRate)
	fmt.Fprintf(&b, "Monthly EMI: Rs %s\n", formatINR(orZero(st.EMI)))
	b.WriteString("The loan amount will be disbursed to your registered bank account within 24 hours. " +
		"Thank you for choosing Polaris Personal Loans!")
	return b.String()
}

func msgRejected(st *model.ConversationState) string {
	reason := st.RejectionReason
	if reason == "" {
		reason = "your application did not meet our criteria"
	}
	name := st.CustomerName
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(
		"I'm sorry, %s, we're unable to approve this loan at this time. Reason: %s. "+
			"You can try applying for a smaller amount within your pre-approved limit, "+
			"or improve your credit score and reapply after a few months. "+
			"Thank you for considering Polaris Personal Loans.",
		name, reason)
}

// formatINR renders a whole-rupee amount with Indian digit grouping:
// the last three digits, then groups of two (5,00,000).
func formatINR(amount float64) string {
	digits := fmt.Sprintf("%.0f", amount)
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}
	if len(digits) > 3 {
		head := digits[:len(digits)-3]
		tail := digits[len(digits)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		digits = strings.Join(groups, ",") + "," + tail
	}
	if neg {
		return "-" + digits
	}
	return digits
}
