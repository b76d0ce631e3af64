package quotations

import "time"

type CreateQuotationRequest struct {
	LeadID      *int64             `json:"lead_id,omitempty"`
	SegmentID   *int64             `json:"segment_id,omitempty"`
	IssueDate   time.Time          `json:"issue_date" validate:"required"`
	ValidUntil  time.Time          `json:"valid_until" validate:"required"`
	Currency    string             `json:"currency" validate:"required,len=3"`
	DiscountPct float64            `json:"discount_percentage" validate:"gte=0,lte=100"`
	TaxPct      float64            `json:"tax_percentage" validate:"gte=0,lte=100"`
	Notes       *string            `json:"notes,omitempty"`
	Sections    []SectionRequest    `json:"sections,omitempty" validate:"dive"`
	Items       []CreateItemRequest `json:"items,omitempty" validate:"dive"`
}

type SectionRequest struct {
	Title     string `json:"title" validate:"required,max=200"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}

type CreateItemRequest struct {
	SectionID     *int64  `json:"section_id,omitempty"`
	PricingItemID *int64  `json:"pricing_item_id,omitempty"`
	Description   string  `json:"description" validate:"required,max=500"`
	UOM           string  `json:"uom" validate:"max=20"`
	Quantity      float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice     float64 `json:"unit_price" validate:"gte=0"`
	SortOrder     int     `json:"sort_order" validate:"gte=0"`
}

type UpdateItemRequest struct {
	Description *string  `json:"description,omitempty" validate:"omitempty,max=500"`
	UOM         *string  `json:"uom,omitempty" validate:"omitempty,max=20"`
	Quantity    *float64 `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	UnitPrice   *float64 `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	SortOrder   *int     `json:"sort_order,omitempty" validate:"omitempty,gte=0"`
}

type UpdateQuotationRequest struct {
	IssueDate   *time.Time `json:"issue_date,omitempty"`
	ValidUntil  *time.Time `json:"valid_until,omitempty"`
	DiscountPct *float64   `json:"discount_percentage,omitempty" validate:"omitempty,gte=0,lte=100"`
	TaxPct      *float64   `json:"tax_percentage,omitempty" validate:"omitempty,gte=0,lte=100"`
	Notes       *string    `json:"notes,omitempty"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type ListQuotationsRequest struct {
	CompanyID int64
	LeadID    *int64
	Status    *Status
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	Offset    int
}
