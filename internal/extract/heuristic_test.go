package extract

import (
	"context"
	"testing"
)

func TestHeuristicExtractsAmountAndTenure(t *testing.T) {
	e := NewHeuristicExtractor()

	fields, err := e.ExtractFields(context.Background(), "I want 5 lakhs for 3 years", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields.RequestedAmount == nil || *fields.RequestedAmount != 500000 {
		t.Fatalf("RequestedAmount = %v, want 500000", fields.RequestedAmount)
	}
	if fields.TenureMonths == nil || *fields.TenureMonths != 36 {
		t.Fatalf("TenureMonths = %v, want 36", fields.TenureMonths)
	}
}

func TestHeuristicTenureDigitsNotMistakenForAmount(t *testing.T) {
	e := NewHeuristicExtractor()

	fields, err := e.ExtractFields(context.Background(), "need 250000 for 18 months for home renovation", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields.RequestedAmount == nil || *fields.RequestedAmount != 250000 {
		t.Fatalf("RequestedAmount = %v, want 250000", fields.RequestedAmount)
	}
	if fields.TenureMonths == nil || *fields.TenureMonths != 18 {
		t.Fatalf("TenureMonths = %v, want 18", fields.TenureMonths)
	}
	if fields.Purpose == nil || *fields.Purpose != "home renovation" {
		t.Fatalf("Purpose = %v, want home renovation", fields.Purpose)
	}
}

func TestHeuristicFractionalYears(t *testing.T) {
	e := NewHeuristicExtractor()

	fields, err := e.ExtractFields(context.Background(), "1.5 years please", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields.TenureMonths == nil || *fields.TenureMonths != 18 {
		t.Fatalf("TenureMonths = %v, want 18", fields.TenureMonths)
	}
}

func TestHeuristicLeavesMissingFieldsNil(t *testing.T) {
	e := NewHeuristicExtractor()

	fields, err := e.ExtractFields(context.Background(), "hello there", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields.RequestedAmount != nil || fields.TenureMonths != nil {
		t.Fatalf("expected nil fields, got amount=%v tenure=%v", fields.RequestedAmount, fields.TenureMonths)
	}
}
