// Package sanction provides the sanction-document generation collaborator.
package sanction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Request carries the approved-loan parameters for document generation.
type Request struct {
	CustomerName string
	CustomerID   string
	Amount       float64
	TenureMonths int
	InterestRate float64
	EMI          float64
}

// Document is a generated sanction artifact.
type Document struct {
	ID      string
	Success bool
	Body    string
}

// Generator is the document-generation interface consumed by the
// orchestrator. A failed generation does not block sanctioning; the caller
// records the document as unavailable.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Document, error)
}

// LetterGenerator renders plain-text sanction letters.
type LetterGenerator struct {
	now func() time.Time
}

// NewLetterGenerator creates a letter generator.
func NewLetterGenerator() *LetterGenerator {
	return &LetterGenerator{now: time.Now}
}

// Generate renders a sanction letter and assigns a sanction ID.
func (g *LetterGenerator) Generate(ctx context.Context, req Request) (*Document, error) {
	id := newSanctionID(g.now())

	var b strings.Builder
	fmt.Fprintf(&b, "LOAN SANCTION LETTER\n\n")
	fmt.Fprintf(&b, "Sanction ID: %s\n", id)
	fmt.Fprintf(&b, "Date: %s\n\n", g.now().Format("January 2, 2006"))
	fmt.Fprintf(&b, "Dear %s,\n\n", req.CustomerName)
	fmt.Fprintf(&b, "Your personal loan application has been approved.\n\n")
	fmt.Fprintf(&b, "Customer ID:       %s\n", req.CustomerID)
	fmt.Fprintf(&b, "Sanctioned Amount: Rs. %.2f\n", req.Amount)
	fmt.Fprintf(&b, "Interest Rate:     %.2f%% per annum\n", req.InterestRate)
	fmt.Fprintf(&b, "Tenure:            %d months\n", req.TenureMonths)
	fmt.Fprintf(&b, "Monthly EMI:       Rs. %.2f\n", req.EMI)
	fmt.Fprintf(&b, "Total Repayment:   Rs. %.2f\n\n", req.EMI*float64(req.TenureMonths))
	fmt.Fprintf(&b, "This sanction is valid for 30 days from the date of issue.\n")

	return &Document{
		ID:      id,
		Success: true,
		Body:    b.String(),
	}, nil
}

func newSanctionID(now time.Time) string {
	suffix := strings.ToUpper(uuid.New().String()[:6])
	return fmt.Sprintf("PL-%s-%s", now.Format("20060102150405"), suffix)
}
