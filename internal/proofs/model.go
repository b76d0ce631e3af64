package proofs

import (
	"time"

	"github.com/quotient-crm/quotient/internal/shared"
)

// ProofType categorizes a trust artifact.
type ProofType string

const (
	ProofBeforeAfter ProofType = "before_after"
	ProofSiteReport  ProofType = "site_report"
	ProofGallery     ProofType = "gallery"
	ProofDocument    ProofType = "document"
)

// Proof is a marketing/trust artifact attached to a lead, quotation or
// invoice. View and click counters only ever increase.
type Proof struct {
	ID          int64        `json:"id"`
	CompanyID   int64        `json:"company_id"`
	Scope       shared.Scope `json:"scope"`
	Type        ProofType    `json:"type"`
	Title       string       `json:"title"`
	Description *string      `json:"description,omitempty"`
	ViewCount   int64        `json:"view_count"`
	ClickCount  int64        `json:"click_count"`
	Published   bool         `json:"published"`
	CreatedBy   int64        `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Assets      []Asset      `json:"assets,omitempty"`
}

// Asset is one file belonging to a proof.
type Asset struct {
	ID        int64     `json:"id"`
	ProofID   int64     `json:"proof_id"`
	Path      string    `json:"path"`
	URL       string    `json:"url,omitempty"`
	MimeType  string    `json:"mime_type"`
	Caption   *string   `json:"caption,omitempty"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// View is one engagement event against a proof.
type View struct {
	ID        int64     `json:"id"`
	ProofID   int64     `json:"proof_id"`
	ViewerIP  *string   `json:"viewer_ip,omitempty"`
	UserAgent *string   `json:"user_agent,omitempty"`
	Clicked   bool      `json:"clicked"`
	ViewedAt  time.Time `json:"viewed_at"`
}

// Testimonial is a customer quote. At most one testimonial per company
// is featured at a time.
type Testimonial struct {
	ID           int64     `json:"id"`
	CompanyID    int64     `json:"company_id"`
	CustomerName string    `json:"customer_name"`
	Content      string    `json:"content"`
	Rating       *int      `json:"rating,omitempty"`
	Published    bool      `json:"published"`
	Featured     bool      `json:"featured"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CaseStudy is a long-form success story. Soft-deleted.
type CaseStudy struct {
	ID        int64      `json:"id"`
	CompanyID int64      `json:"company_id"`
	Title     string     `json:"title"`
	Summary   *string    `json:"summary,omitempty"`
	Body      string     `json:"body"`
	Published bool       `json:"published"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Certification is an accreditation or license record. Soft-deleted.
type Certification struct {
	ID        int64      `json:"id"`
	CompanyID int64      `json:"company_id"`
	Name      string     `json:"name"`
	Issuer    string     `json:"issuer"`
	IssuedAt  *time.Time `json:"issued_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Published bool       `json:"published"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
