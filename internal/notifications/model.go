package notifications

import "time"

// Domain event names used for preferences, webhooks and in-app feeds.
const (
	EventLeadCreated       = "lead.created"
	EventLeadWon           = "lead.won"
	EventLeadLost          = "lead.lost"
	EventQuotationSent     = "quotation.sent"
	EventQuotationAccepted = "quotation.accepted"
	EventQuotationRejected = "quotation.rejected"
	EventInvoiceSent       = "invoice.sent"
	EventInvoicePaid       = "invoice.paid"
	EventPaymentRecorded   = "invoice.payment_recorded"
)

// Preference is a per-user, per-event opt-out with channel flags.
// Absence of a row means both channels enabled.
type Preference struct {
	ID           int64     `json:"id"`
	CompanyID    int64     `json:"company_id"`
	UserID       int64     `json:"user_id"`
	Event        string    `json:"event"`
	EmailEnabled bool      `json:"email_enabled"`
	InAppEnabled bool      `json:"in_app_enabled"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Notification is one in-app feed entry.
type Notification struct {
	ID        int64      `json:"id"`
	CompanyID int64      `json:"company_id"`
	UserID    int64      `json:"user_id"`
	Event     string     `json:"event"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Recipient is a user eligible to receive an event on a channel.
type Recipient struct {
	UserID       int64
	Email        string
	EmailEnabled bool
	InAppEnabled bool
}
