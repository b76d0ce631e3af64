package quotations

// Totals holds the derived aggregate fields of a document.
type Totals struct {
	Subtotal       float64
	DiscountAmount float64
	TaxAmount      float64
	Total          float64
}

// CalculateTotals derives document totals from line items in the fixed
// order: subtotal, discount, taxable base, tax, total. Idempotent.
func CalculateTotals(items []Item, discountPct, taxPct float64) Totals {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Quantity * item.UnitPrice
	}
	discountAmount := subtotal * (discountPct / 100)
	taxable := subtotal - discountAmount
	taxAmount := taxable * (taxPct / 100)
	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		TaxAmount:      taxAmount,
		Total:          taxable + taxAmount,
	}
}

// LineTotal computes one line's extended amount.
func LineTotal(quantity, unitPrice float64) float64 {
	return quantity * unitPrice
}
