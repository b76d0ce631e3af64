package proofs

import "time"

type CreateProofRequest struct {
	ScopeType   string    `json:"scope_type" validate:"required"`
	ScopeID     int64     `json:"scope_id" validate:"required,gt=0"`
	Type        ProofType `json:"type" validate:"required,oneof=before_after site_report gallery document"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description *string   `json:"description,omitempty"`
	Published   bool      `json:"published"`
}

type UpdateProofRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty"`
	Published   *bool   `json:"published,omitempty"`
}

type AddAssetRequest struct {
	Filename  string  `json:"filename" validate:"required,max=200"`
	MimeType  string  `json:"mime_type" validate:"required,max=100"`
	Caption   *string `json:"caption,omitempty" validate:"omitempty,max=300"`
	SortOrder int     `json:"sort_order" validate:"gte=0"`
}

type RecordViewRequest struct {
	ViewerIP  *string `json:"viewer_ip,omitempty" validate:"omitempty,max=45"`
	UserAgent *string `json:"user_agent,omitempty" validate:"omitempty,max=300"`
	Clicked   bool    `json:"clicked"`
}

type CreateTestimonialRequest struct {
	CustomerName string `json:"customer_name" validate:"required,max=200"`
	Content      string `json:"content" validate:"required,max=2000"`
	Rating       *int   `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	Published    bool   `json:"published"`
}

type CreateCaseStudyRequest struct {
	Title     string  `json:"title" validate:"required,max=200"`
	Summary   *string `json:"summary,omitempty" validate:"omitempty,max=500"`
	Body      string  `json:"body" validate:"required"`
	Published bool    `json:"published"`
}

type CreateCertificationRequest struct {
	Name      string     `json:"name" validate:"required,max=200"`
	Issuer    string     `json:"issuer" validate:"required,max=200"`
	IssuedAt  *time.Time `json:"issued_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Published bool       `json:"published"`
}

type ListProofsRequest struct {
	CompanyID int64
	ScopeType *string
	ScopeID   *int64
	Published *bool
	Limit     int
	Offset    int
}
