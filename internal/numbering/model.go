package numbering

import "time"

// DocType identifies the document family a sequence numbers.
type DocType string

const (
	DocTypeQuotation  DocType = "quotation"
	DocTypeInvoice    DocType = "invoice"
	DocTypeAssessment DocType = "assessment"
	DocTypeReceipt    DocType = "receipt"
)

// Sequence is one counter row per (company, doc type, period year).
// Year is zero for sequences that never reset.
type Sequence struct {
	ID            int64     `json:"id"`
	CompanyID     int64     `json:"company_id"`
	DocType       DocType   `json:"doc_type"`
	Year          int       `json:"year"`
	Prefix        string    `json:"prefix"`
	Format        string    `json:"format"`
	Padding       int       `json:"padding"`
	YearlyReset   bool      `json:"yearly_reset"`
	CurrentNumber int64     `json:"current_number"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Profile describes how documents of one type are numbered.
type Profile struct {
	Prefix      string
	Format      string
	Padding     int
	YearlyReset bool
}

// DefaultProfiles returns the built-in numbering profiles per document type.
func DefaultProfiles() map[DocType]Profile {
	return map[DocType]Profile{
		DocTypeQuotation:  {Prefix: "QT", Format: "{prefix}-{year}-{number}", Padding: 4, YearlyReset: true},
		DocTypeInvoice:    {Prefix: "INV", Format: "{prefix}-{year}-{number}", Padding: 4, YearlyReset: true},
		DocTypeAssessment: {Prefix: "ASM", Format: "{prefix}-{year}-{number}", Padding: 4, YearlyReset: true},
		DocTypeReceipt:    {Prefix: "RCP", Format: "{prefix}-{number}", Padding: 6, YearlyReset: false},
	}
}
