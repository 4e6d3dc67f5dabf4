// Package payables holds the accounts-payable calculation engine: bill amount
// aggregation, duplicate detection, aging classification, and the display
// formatting tables consumed by the AP views.
//
// Everything here is a pure function of its inputs. Inputs are trusted; no
// validation is performed and no errors are returned.
package payables

import "github.com/shopspring/decimal"

// LineItem is an ephemeral bill line used for amount calculation.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	SortOrder   int             `json:"sort_order,omitempty"`
}

// TaxLine is a percentage tax applied against the aggregate subtotal.
// Multiple tax lines are additive, not compounded.
type TaxLine struct {
	TaxName       string          `json:"tax_name"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
	TaxType       string          `json:"tax_type,omitempty"`
}

// AmountSummary carries the rounded results of a bill calculation.
// Total always equals Subtotal + TaxAmount at two decimals.
type AmountSummary struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
	Total     decimal.Decimal `json:"total"`
}

var oneHundred = decimal.NewFromInt(100)

// CalculateBillAmounts computes subtotal, tax and total for a set of line
// items and tax lines. Per-line products stay unrounded; tax contributions are
// taken from the unrounded subtotal. Rounding to two decimals happens once per
// output figure.
func CalculateBillAmounts(items []LineItem, taxes []TaxLine) AmountSummary {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Quantity.Mul(item.UnitPrice))
	}

	taxAmount := decimal.Zero
	for _, tax := range taxes {
		taxAmount = taxAmount.Add(subtotal.Mul(tax.TaxPercentage).Div(oneHundred))
	}

	roundedSubtotal := subtotal.Round(2)
	roundedTax := taxAmount.Round(2)

	return AmountSummary{
		Subtotal:  roundedSubtotal,
		TaxAmount: roundedTax,
		Total:     roundedSubtotal.Add(roundedTax).Round(2),
	}
}
