package invoices

import "time"

// Status is the invoice lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusPartial   Status = "PARTIAL"
	StatusPaid      Status = "PAID"
	StatusOverdue   Status = "OVERDUE"
	StatusCancelled Status = "CANCELLED"
)

// PaymentStatus is the clearing state of a single payment record.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCleared   PaymentStatus = "CLEARED"
	PaymentBounced   PaymentStatus = "BOUNCED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// transitions is the adjacency list of legal invoice status moves.
// PARTIAL, PAID and OVERDUE are derived during reconciliation, but the
// moves still have to be legal.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusSent, StatusCancelled},
	StatusSent:      {StatusPartial, StatusPaid, StatusOverdue, StatusCancelled},
	StatusPartial:   {StatusSent, StatusPaid, StatusOverdue, StatusCancelled},
	StatusOverdue:   {StatusPartial, StatusPaid, StatusCancelled},
	StatusPaid:      {},
	StatusCancelled: {},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:   {PaymentCleared, PaymentBounced, PaymentCancelled},
	PaymentCleared:   {PaymentBounced, PaymentCancelled},
	PaymentBounced:   {},
	PaymentCancelled: {},
}

// CanTransition reports whether an invoice status move is legal.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanTransitionPayment reports whether a payment status move is legal.
func CanTransitionPayment(from, to PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Invoice is a billable document. AmountPaid and AmountDue are derived
// from CLEARED payment records, never written directly by callers.
type Invoice struct {
	ID             int64      `json:"id"`
	DocNumber      string     `json:"doc_number"`
	CompanyID      int64      `json:"company_id"`
	QuotationID    *int64     `json:"quotation_id,omitempty"`
	LeadID         *int64     `json:"lead_id,omitempty"`
	CustomerID     *int64     `json:"customer_id,omitempty"`
	Status         Status     `json:"status"`
	IssueDate      time.Time  `json:"issue_date"`
	DueDate        time.Time  `json:"due_date"`
	Currency       string     `json:"currency"`
	DiscountPct    float64    `json:"discount_percentage"`
	TaxPct         float64    `json:"tax_percentage"`
	Subtotal       float64    `json:"subtotal"`
	DiscountAmount float64    `json:"discount_amount"`
	TaxAmount      float64    `json:"tax_amount"`
	Total          float64    `json:"total"`
	AmountPaid     float64    `json:"amount_paid"`
	AmountDue      float64    `json:"amount_due"`
	Notes          *string    `json:"notes,omitempty"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CreatedBy      int64      `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Items          []Item     `json:"items,omitempty"`
	Payments       []Payment  `json:"payments,omitempty"`
}

// Item is one invoice line, usually copied from an accepted quotation.
// IsLocked is set on every line once the invoice is fully paid.
type Item struct {
	ID            int64   `json:"id"`
	InvoiceID     int64   `json:"invoice_id"`
	PricingItemID *int64  `json:"pricing_item_id,omitempty"`
	Description   string  `json:"description"`
	UOM           string  `json:"uom"`
	Quantity      float64 `json:"quantity"`
	UnitPrice     float64 `json:"unit_price"`
	LineTotal     float64 `json:"line_total"`
	SortOrder     int     `json:"sort_order"`
	IsLocked      bool    `json:"is_locked"`
}

// Payment is one payment record against an invoice. Only CLEARED
// payments count toward the invoice balance.
type Payment struct {
	ID            int64         `json:"id"`
	InvoiceID     int64         `json:"invoice_id"`
	CompanyID     int64         `json:"company_id"`
	ReceiptNumber string        `json:"receipt_number"`
	Method        string        `json:"method"`
	Reference     *string       `json:"reference,omitempty"`
	Amount        float64       `json:"amount"`
	Status        PaymentStatus `json:"status"`
	ReceivedAt    time.Time     `json:"received_at"`
	ClearedAt     *time.Time    `json:"cleared_at,omitempty"`
	Notes         *string       `json:"notes,omitempty"`
	CreatedBy     int64         `json:"created_by"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Editable reports whether header and item mutation is still allowed.
func (inv *Invoice) Editable() bool {
	return inv.Status == StatusDraft
}

// AcceptsPayments reports whether payments may be recorded.
func (inv *Invoice) AcceptsPayments() bool {
	switch inv.Status {
	case StatusSent, StatusPartial, StatusOverdue:
		return true
	}
	return false
}
