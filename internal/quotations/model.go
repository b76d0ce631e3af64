package quotations

import "time"

// Status is the quotation lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusViewed    Status = "VIEWED"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusExpired   Status = "EXPIRED"
	StatusConverted Status = "CONVERTED"
)

// transitions is the adjacency list of legal status moves.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusSent},
	StatusSent:      {StatusViewed, StatusAccepted, StatusRejected, StatusExpired},
	StatusViewed:    {StatusAccepted, StatusRejected, StatusExpired},
	StatusAccepted:  {StatusConverted},
	StatusRejected:  {},
	StatusExpired:   {},
	StatusConverted: {},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Quotation is a priced document built from items, optionally grouped
// into sections. All aggregate fields are derived server-side.
type Quotation struct {
	ID              int64      `json:"id"`
	DocNumber       string     `json:"doc_number"`
	CompanyID       int64      `json:"company_id"`
	LeadID          *int64     `json:"lead_id,omitempty"`
	SegmentID       *int64     `json:"segment_id,omitempty"`
	Status          Status     `json:"status"`
	IssueDate       time.Time  `json:"issue_date"`
	ValidUntil      time.Time  `json:"valid_until"`
	Currency        string     `json:"currency"`
	DiscountPct     float64    `json:"discount_percentage"`
	TaxPct          float64    `json:"tax_percentage"`
	Subtotal        float64    `json:"subtotal"`
	DiscountAmount  float64    `json:"discount_amount"`
	TaxAmount       float64    `json:"tax_amount"`
	Total           float64    `json:"total"`
	Notes           *string    `json:"notes,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	SentAt          *time.Time `json:"sent_at,omitempty"`
	ViewedAt        *time.Time `json:"viewed_at,omitempty"`
	AcceptedAt      *time.Time `json:"accepted_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	ConvertedAt     *time.Time `json:"converted_at,omitempty"`
	CreatedBy       int64      `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Sections        []Section  `json:"sections,omitempty"`
	Items           []Item     `json:"items,omitempty"`
}

// Section groups quotation items under a heading.
type Section struct {
	ID          int64  `json:"id"`
	QuotationID int64  `json:"quotation_id"`
	Title       string `json:"title"`
	SortOrder   int    `json:"sort_order"`
}

// Item is one quotation line.
type Item struct {
	ID            int64   `json:"id"`
	QuotationID   int64   `json:"quotation_id"`
	SectionID     *int64  `json:"section_id,omitempty"`
	PricingItemID *int64  `json:"pricing_item_id,omitempty"`
	Description   string  `json:"description"`
	UOM           string  `json:"uom"`
	Quantity      float64 `json:"quantity"`
	UnitPrice     float64 `json:"unit_price"`
	LineTotal     float64 `json:"line_total"`
	SortOrder     int     `json:"sort_order"`
}

// Editable reports whether the document still accepts item mutation.
func (q *Quotation) Editable() bool {
	return q.Status == StatusDraft
}
