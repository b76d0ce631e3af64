package invoices

import "time"

// ClearedAmount sums the amounts of CLEARED payments.
func ClearedAmount(payments []Payment) float64 {
	var sum float64
	for _, p := range payments {
		if p.Status == PaymentCleared {
			sum += p.Amount
		}
	}
	return sum
}

// AmountDue returns the open balance, clamped at zero so overpayment
// never produces a negative balance.
func AmountDue(total, paid float64) float64 {
	due := total - paid
	if due < 0 {
		return 0
	}
	return due
}

// DeriveStatus maps the current status and cleared amount to the
// settlement status the invoice should carry. DRAFT and CANCELLED are
// never touched by reconciliation. A PARTIAL invoice whose cleared sum
// drops back to zero returns to SENT; the caller flips it to OVERDUE
// when the due date has passed.
func DeriveStatus(current Status, paid, total float64) Status {
	switch current {
	case StatusDraft, StatusCancelled, StatusPaid:
		return current
	}
	if total > 0 && paid >= total {
		return StatusPaid
	}
	if paid > 0 {
		return StatusPartial
	}
	if current == StatusPartial {
		return StatusSent
	}
	return current
}

// AgingBucket names one receivables aging band.
type AgingBucket string

const (
	BucketCurrent AgingBucket = "current"
	Bucket1To30   AgingBucket = "1_30"
	Bucket31To60  AgingBucket = "31_60"
	Bucket61To90  AgingBucket = "61_90"
	BucketOver90  AgingBucket = "over_90"
)

// AgingLine is one outstanding invoice placed in its bucket.
type AgingLine struct {
	InvoiceID   int64       `json:"invoice_id"`
	DocNumber   string      `json:"doc_number"`
	CustomerID  *int64      `json:"customer_id,omitempty"`
	DueDate     time.Time   `json:"due_date"`
	AmountDue   float64     `json:"amount_due"`
	DaysOverdue int         `json:"days_overdue"`
	Bucket      AgingBucket `json:"bucket"`
}

// AgingSummary totals outstanding balances per bucket.
type AgingSummary struct {
	AsOf    time.Time               `json:"as_of"`
	Lines   []AgingLine             `json:"lines"`
	Buckets map[AgingBucket]float64 `json:"buckets"`
	Total   float64                 `json:"total"`
}

// BucketFor places a count of days overdue into its aging band.
func BucketFor(daysOverdue int) AgingBucket {
	switch {
	case daysOverdue <= 0:
		return BucketCurrent
	case daysOverdue <= 30:
		return Bucket1To30
	case daysOverdue <= 60:
		return Bucket31To60
	case daysOverdue <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}

// CalculateAging builds an aging report from outstanding invoices.
func CalculateAging(invoices []Invoice, asOf time.Time) AgingSummary {
	summary := AgingSummary{
		AsOf:    asOf,
		Buckets: make(map[AgingBucket]float64),
	}
	for _, inv := range invoices {
		if inv.AmountDue <= 0 {
			continue
		}
		days := int(asOf.Sub(inv.DueDate).Hours() / 24)
		line := AgingLine{
			InvoiceID:   inv.ID,
			DocNumber:   inv.DocNumber,
			CustomerID:  inv.CustomerID,
			DueDate:     inv.DueDate,
			AmountDue:   inv.AmountDue,
			DaysOverdue: days,
			Bucket:      BucketFor(days),
		}
		summary.Lines = append(summary.Lines, line)
		summary.Buckets[line.Bucket] += line.AmountDue
		summary.Total += line.AmountDue
	}
	return summary
}
