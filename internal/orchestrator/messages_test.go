package orchestrator

import "testing"

func TestFormatINR(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{999, "999"},
		{1000, "1,000"},
		{100000, "1,00,000"},
		{500000, "5,00,000"},
		{1234567, "12,34,567"},
		{75000000, "7,50,00,000"},
		{-500000, "-5,00,000"},
	}

	for _, tc := range tests {
		if got := formatINR(tc.in); got != tc.want {
			t.Fatalf("formatINR(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
