package payables

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BillComparisonRecord is the minimal projection of a bill used for duplicate
// scoring. It is read-only; the detector never mutates it.
type BillComparisonRecord struct {
	VendorID            string          `json:"vendor_id"`
	VendorInvoiceNumber string          `json:"vendor_invoice_number"`
	Total               decimal.Decimal `json:"total"`
	BillDate            time.Time       `json:"bill_date"`
}

// SimilarityResult pairs a [0,1] score with ordered human-readable reasons for
// each scoring contribution.
type SimilarityResult struct {
	Similarity float64  `json:"similarity"`
	Reasons    []string `json:"reasons"`
}

// Scoring weights. Behavioral constants; downstream review thresholds depend
// on them, so they are not tunable.
const (
	weightSameVendor     = 0.3
	weightExactInvoice   = 0.4
	weightPartialInvoice = 0.2
	weightSimilarAmount  = 0.2
	weightCloseDates     = 0.1

	amountTolerancePct = 0.01
	dateWindowDays     = 30
)

// GenerateDuplicateCheckHash builds the content fingerprint used to pre-screen
// candidate duplicate bills. Insensitive to invoice-number case and surrounding
// whitespace; always 64 lowercase hex characters.
func GenerateDuplicateCheckHash(vendorID, vendorInvoiceNumber string, amount decimal.Decimal) string {
	payload := fmt.Sprintf(
		"%s-%s-%s",
		vendorID,
		normalizeInvoiceNumber(vendorInvoiceNumber),
		amount.StringFixed(2),
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// CalculateDuplicateSimilarity scores how likely two bills are duplicate
// entries of each other. Vendor identity is a hard gate; the remaining factors
// contribute fixed weights, capped at 1.0. Advisory only: false positives are
// acceptable.
func CalculateDuplicateSimilarity(a, b BillComparisonRecord) SimilarityResult {
	if a.VendorID != b.VendorID {
		return SimilarityResult{Similarity: 0, Reasons: []string{"Different vendors"}}
	}

	score := weightSameVendor
	reasons := make([]string, 0, 3)

	invoiceA := normalizeInvoiceNumber(a.VendorInvoiceNumber)
	invoiceB := normalizeInvoiceNumber(b.VendorInvoiceNumber)
	switch {
	case invoiceA == invoiceB:
		score += weightExactInvoice
		reasons = append(reasons, "Exact invoice number match")
	case strings.Contains(invoiceA, invoiceB) || strings.Contains(invoiceB, invoiceA):
		score += weightPartialInvoice
		reasons = append(reasons, "Partial invoice number match")
	}

	diff := a.Total.Sub(b.Total).Abs()
	tolerance := decimal.Max(a.Total, b.Total).Mul(decimal.NewFromFloat(amountTolerancePct))
	if diff.LessThanOrEqual(tolerance) {
		score += weightSimilarAmount
		reasons = append(reasons, fmt.Sprintf("Similar amounts (%s vs %s)", a.Total.StringFixed(2), b.Total.StringFixed(2)))
	}

	daysDiff := math.Round(math.Abs(a.BillDate.Sub(b.BillDate).Hours()) / 24)
	if daysDiff <= dateWindowDays {
		score += weightCloseDates
		reasons = append(reasons, fmt.Sprintf("Bills within %d days of each other", int(daysDiff)))
	}

	return SimilarityResult{
		Similarity: math.Min(score, 1.0),
		Reasons:    reasons,
	}
}

func normalizeInvoiceNumber(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
