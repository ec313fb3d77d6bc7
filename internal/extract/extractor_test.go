package extract

import "testing"

func TestParseFieldsPlainJSON(t *testing.T) {
	fields, err := parseFields(`{"requested_amount": 500000, "tenure_months": 36, "purpose": "wedding"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *fields.RequestedAmount != 500000 || *fields.TenureMonths != 36 || *fields.Purpose != "wedding" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
}

func TestParseFieldsMarkdownFence(t *testing.T) {
	fields, err := parseFields("```json\n{\"requested_amount\": 200000, \"tenure_months\": null, \"purpose\": null}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *fields.RequestedAmount != 200000 {
		t.Fatalf("RequestedAmount = %v, want 200000", fields.RequestedAmount)
	}
	if fields.TenureMonths != nil {
		t.Fatal("null tenure should stay nil")
	}
}

func TestParseFieldsEmbeddedInProse(t *testing.T) {
	fields, err := parseFields(`Here is the extraction: {"requested_amount": null, "tenure_months": 12, "purpose": null} as requested.`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields.RequestedAmount != nil {
		t.Fatal("null amount should stay nil")
	}
	if fields.TenureMonths == nil || *fields.TenureMonths != 12 {
		t.Fatalf("TenureMonths = %v, want 12", fields.TenureMonths)
	}
}

func TestParseFieldsGarbage(t *testing.T) {
	if _, err := parseFields("I could not process that request"); err == nil {
		t.Fatal("expected parse error for non-JSON response")
	}
}
