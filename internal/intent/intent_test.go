package intent

import "testing"

func TestExtractPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"9876543210", "9876543210", true},
		{"+91 98765 43210", "9876543210", true},
		{"+919876543210", "9876543210", true},
		{"call me on 98765-43210", "9876543210", true},
		{"my number is 9876543210 thanks", "9876543210", true},
		{"hello", "", false},
		{"12345", "", false},
	}

	for _, tc := range tests {
		got, ok := ExtractPhone(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ExtractPhone(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestOfferDeclineClassifier(t *testing.T) {
	declines := []string{
		"Not interested, thanks",
		"I'd like to cancel",
		"nevermind",
		"I don't want this",
	}
	for _, msg := range declines {
		if OfferDecline.Classify(msg) != Decline {
			t.Fatalf("expected %q to classify as decline", msg)
		}
	}

	if OfferDecline.Classify("I want 5 lakhs") != Continue {
		t.Fatal("a plain requirement should classify as continue")
	}
}

func TestDocumentDeclineClassifier(t *testing.T) {
	if DocumentDecline.Classify("I don't have it right here") != Decline {
		t.Fatal("expected decline")
	}
	if DocumentDecline.Classify("my salary is 45000") != Continue {
		t.Fatal("a salary figure should classify as continue")
	}
}

func TestParseSalary(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"my salary is 2 lakhs", 200000, true},
		{"I earn 50k per month", 50000, true},
		{"45000", 45000, true},
		{"my monthly salary is 85000", 85000, true},
		{"hello", 0, false},
	}

	for _, tc := range tests {
		got, ok := ParseSalary(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseSalary(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestMentionsUpload(t *testing.T) {
	if !MentionsUpload("I have uploaded the document") {
		t.Fatal("expected upload mention")
	}
	if !MentionsUpload("salary slip attached") {
		t.Fatal("expected upload mention")
	}
	if MentionsUpload("what do you need from me") {
		t.Fatal("unexpected upload mention")
	}
}
