// Package offermart provides the customer/credit/offer lookup collaborator.
// The orchestrator consumes the Client interface only; the in-memory store
// here stands in for the CRM and offer-mart services in production.
package offermart

import (
	"context"
	"strings"
)

// Profile is a customer record with credit profile and pre-approved terms.
type Profile struct {
	CustomerID       string  `json:"customer_id"`
	Name             string  `json:"name"`
	Phone            string  `json:"phone"`
	Email            string  `json:"email"`
	PANNumber        string  `json:"pan_number"`
	CreditScore      int     `json:"credit_score"`
	PreapprovedLimit float64 `json:"preapproved_limit"`
	InterestRate     float64 `json:"interest_rate"`
	MaxTenureMonths  int     `json:"max_tenure_months"`
	Employer         string  `json:"employer,omitempty"`
	MonthlySalary    float64 `json:"monthly_salary,omitempty"`
	KYCVerified      bool    `json:"kyc_verified"`
}

// Result is a lookup outcome. Found distinguishes "no record" from every
// other case; the caller branches on CreditScore and KYCVerified to
// separate "record but ineligible" from "record but KYC pending".
type Result struct {
	Found          bool
	Profile        *Profile
	NotFoundReason string
}

// Client is the lookup interface consumed by the orchestrator.
type Client interface {
	// Lookup resolves a phone number or customer ID to a profile.
	Lookup(ctx context.Context, phoneOrID string) (*Result, error)
}

// Store is an in-memory customer book keyed by phone number.
type Store struct {
	byPhone map[string]*Profile
}

// NewStore creates a store over the given profiles.
func NewStore(profiles []Profile) *Store {
	byPhone := make(map[string]*Profile, len(profiles))
	for i := range profiles {
		p := profiles[i]
		byPhone[p.Phone] = &p
	}
	return &Store{byPhone: byPhone}
}

// Lookup resolves a phone number or customer ID to a profile.
func (s *Store) Lookup(ctx context.Context, phoneOrID string) (*Result, error) {
	phone := normalizePhone(phoneOrID)
	if p, ok := s.byPhone[phone]; ok {
		return &Result{Found: true, Profile: p}, nil
	}

	for _, p := range s.byPhone {
		if p.CustomerID == phoneOrID {
			return &Result{Found: true, Profile: p}, nil
		}
	}

	return &Result{Found: false, NotFoundReason: "no record for " + phoneOrID}, nil
}

func normalizePhone(phone string) string {
	phone = strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(phone))
	phone = strings.TrimPrefix(phone, "+91")
	if len(phone) == 12 && strings.HasPrefix(phone, "91") {
		phone = phone[2:]
	}
	return phone
}

// SeedProfiles returns the development customer book.
func SeedProfiles() []Profile {
	return []Profile{
		{
			CustomerID:       "CUST001",
			Name:             "Rahul Sharma",
			Phone:            "9876543210",
			Email:            "rahul.sharma@email.com",
			PANNumber:        "ABCDE1234F",
			CreditScore:      780,
			PreapprovedLimit: 500000,
			InterestRate:     12.5,
			MaxTenureMonths:  60,
			Employer:         "TCS",
			MonthlySalary:    85000,
			KYCVerified:      true,
		},
		{
			CustomerID:       "CUST002",
			Name:             "Priya Patel",
			Phone:            "9876543211",
			Email:            "priya.patel@email.com",
			PANNumber:        "FGHIJ5678K",
			CreditScore:      820,
			PreapprovedLimit: 750000,
			InterestRate:     11.0,
			MaxTenureMonths:  72,
			Employer:         "Infosys",
			MonthlySalary:    120000,
			KYCVerified:      true,
		},
		{
			CustomerID:       "CUST003",
			Name:             "Amit Kumar",
			Phone:            "9876543212",
			Email:            "amit.kumar@email.com",
			PANNumber:        "KLMNO9012P",
			CreditScore:      750,
			PreapprovedLimit: 300000,
			InterestRate:     13.5,
			MaxTenureMonths:  48,
			Employer:         "Wipro",
			MonthlySalary:    65000,
			KYCVerified:      true,
		},
		{
			// Below the credit floor; used to exercise the rejection path.
			CustomerID:       "CUST004",
			Name:             "Vikram Singh",
			Phone:            "9876543213",
			Email:            "vikram.singh@email.com",
			PANNumber:        "PQRST3456Q",
			CreditScore:      650,
			PreapprovedLimit: 0,
			InterestRate:     18.0,
			MaxTenureMonths:  24,
			Employer:         "Self-employed",
			MonthlySalary:    45000,
			KYCVerified:      true,
		},
		{
			// KYC pending; used to exercise the verification-failure path.
			CustomerID:       "CUST005",
			Name:             "Sneha Reddy",
			Phone:            "9876543214",
			Email:            "sneha.reddy@email.com",
			PANNumber:        "UVWXY7890R",
			CreditScore:      760,
			PreapprovedLimit: 400000,
			InterestRate:     12.0,
			MaxTenureMonths:  48,
			Employer:         "Amazon",
			MonthlySalary:    95000,
			KYCVerified:      false,
		},
	}
}
