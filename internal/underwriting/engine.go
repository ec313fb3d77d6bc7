// Package underwriting implements the eligibility rule engine. The engine
// is a pure function over a loan request and credit profile: no state, no
// I/O, no retries. Retry policy belongs to the caller.
package underwriting

import (
	"fmt"
	"math"

	"github.com/polaris-lending/loan-origination/internal/model"
)

// Config holds the named policy thresholds the engine evaluates against.
type Config struct {
	MinCreditScore      int
	MaxEMIToSalaryRatio float64
	DefaultTenureMonths int
}

// DefaultConfig returns the standard lending policy.
func DefaultConfig() Config {
	return Config{
		MinCreditScore:      700,
		MaxEMIToSalaryRatio: 0.5,
		DefaultTenureMonths: 12,
	}
}

// Input is the full tuple the engine decides on.
type Input struct {
	RequestedAmount  float64
	TenureMonths     int
	PreapprovedLimit float64
	CreditScore      int
	InterestRate     float64

	// Salary is nil until income has been verified.
	Salary *float64
}

// Result is the engine's decision.
type Result struct {
	Decision model.Decision

	// EMI is nil when the request was rejected before EMI computation
	// (invalid amount or credit floor). Some rejection branches still
	// report EMI for display.
	EMI *float64

	Reason          string
	ApprovedAmount  *float64
	SuggestedAmount *float64
	MaxEligible     *float64
}

// Engine evaluates loan eligibility deterministically.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with the given policy.
func NewEngine(cfg Config) *Engine {
	if cfg.DefaultTenureMonths <= 0 {
		cfg.DefaultTenureMonths = 12
	}
	return &Engine{cfg: cfg}
}

// MinCreditScore returns the configured credit floor.
func (e *Engine) MinCreditScore() int {
	return e.cfg.MinCreditScore
}

// Decide maps a loan request and credit profile to a decision.
//
// Rules, in order:
//  1. credit score below the floor rejects unconditionally, no EMI
//  2. amount within the pre-approved limit approves instantly
//  3. amount within twice the limit requires income proof; with salary
//     known, approve when EMI stays within the affordability ratio,
//     otherwise reject with a suggested affordable amount
//  4. amount above twice the limit rejects at the ceiling
func (e *Engine) Decide(in Input) Result {
	if in.RequestedAmount <= 0 {
		return Result{
			Decision: model.DecisionRejected,
			Reason:   "Invalid loan amount requested",
		}
	}

	// Non-positive tenure is a policy default, not an error.
	tenure := in.TenureMonths
	if tenure <= 0 {
		tenure = e.cfg.DefaultTenureMonths
	}

	if in.CreditScore < e.cfg.MinCreditScore {
		return Result{
			Decision: model.DecisionRejected,
			Reason: fmt.Sprintf("Credit score (%d/900) is below minimum requirement (%d)",
				in.CreditScore, e.cfg.MinCreditScore),
		}
	}

	emi := EMI(in.RequestedAmount, in.InterestRate, tenure)

	if in.RequestedAmount <= in.PreapprovedLimit {
		approved := in.RequestedAmount
		return Result{
			Decision: model.DecisionApproved,
			EMI:      &emi,
			Reason: fmt.Sprintf("Loan approved within pre-approved limit of %.0f. Credit score: %d/900",
				in.PreapprovedLimit, in.CreditScore),
			ApprovedAmount: &approved,
		}
	}

	doubleLimit := in.PreapprovedLimit * 2

	if in.RequestedAmount <= doubleLimit {
		if in.Salary == nil || *in.Salary <= 0 {
			return Result{
				Decision: model.DecisionNeedSalarySlip,
				EMI:      &emi,
				Reason: fmt.Sprintf("Requested amount (%.0f) exceeds pre-approved limit (%.0f). Income verification required",
					in.RequestedAmount, in.PreapprovedLimit),
			}
		}

		salary := *in.Salary
		maxEMIAllowed := salary * e.cfg.MaxEMIToSalaryRatio

		if emi <= maxEMIAllowed {
			approved := in.RequestedAmount
			return Result{
				Decision: model.DecisionApproved,
				EMI:      &emi,
				Reason: fmt.Sprintf("Loan approved after income verification. EMI %.0f is %.1f%% of monthly salary %.0f",
					emi, emi/salary*100, salary),
				ApprovedAmount: &approved,
			}
		}

		suggested := MaxPrincipal(maxEMIAllowed, in.InterestRate, tenure)
		return Result{
			Decision: model.DecisionRejected,
			EMI:      &emi,
			Reason: fmt.Sprintf("EMI (%.0f) exceeds %.0f%% of monthly salary (%.0f). Maximum affordable loan is %.0f",
				emi, e.cfg.MaxEMIToSalaryRatio*100, salary, suggested),
			SuggestedAmount: &suggested,
		}
	}

	return Result{
		Decision: model.DecisionRejected,
		EMI:      &emi,
		Reason: fmt.Sprintf("Requested amount (%.0f) exceeds maximum eligible limit (%.0f)",
			in.RequestedAmount, doubleLimit),
		MaxEligible: &doubleLimit,
	}
}

// EMI computes the equated monthly installment via the standard
// reducing-balance annuity formula, rounded to 2 decimal places.
func EMI(principal, annualRate float64, tenureMonths int) float64 {
	r := annualRate / 12 / 100
	if r == 0 {
		return round2(principal / float64(tenureMonths))
	}
	factor := math.Pow(1+r, float64(tenureMonths))
	return round2(principal * r * factor / (factor - 1))
}

// MaxPrincipal inverts the EMI formula: the largest principal whose EMI at
// the given rate and tenure does not exceed maxEMI, rounded to the nearest
// whole unit.
func MaxPrincipal(maxEMI, annualRate float64, tenureMonths int) float64 {
	r := annualRate / 12 / 100
	if r == 0 {
		return math.Round(maxEMI * float64(tenureMonths))
	}
	factor := math.Pow(1+r, float64(tenureMonths))
	return math.Round(maxEMI * (factor - 1) / (r * factor))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
