package offermart

import (
	"context"
	"testing"
)

func TestLookupByPhoneNormalizes(t *testing.T) {
	store := NewStore(SeedProfiles())

	for _, phone := range []string{"9876543210", "+91 9876543210", "919876543210", "98765-43210"} {
		res, err := store.Lookup(context.Background(), phone)
		if err != nil {
			t.Fatalf("Lookup(%q): unexpected error: %v", phone, err)
		}
		if !res.Found {
			t.Fatalf("Lookup(%q): expected a match", phone)
		}
		if res.Profile.CustomerID != "CUST001" {
			t.Fatalf("Lookup(%q) = %s, want CUST001", phone, res.Profile.CustomerID)
		}
	}
}

func TestLookupByCustomerID(t *testing.T) {
	store := NewStore(SeedProfiles())

	res, err := store.Lookup(context.Background(), "CUST003")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Found || res.Profile.Phone != "9876543212" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestLookupMissIsNotAnError(t *testing.T) {
	store := NewStore(SeedProfiles())

	res, err := store.Lookup(context.Background(), "1234567890")
	if err != nil {
		t.Fatalf("a miss must not be an error: %v", err)
	}
	if res.Found {
		t.Fatal("expected no match")
	}
	if res.NotFoundReason == "" {
		t.Fatal("expected a not-found reason")
	}
}
