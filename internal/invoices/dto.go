package invoices

import "time"

type CreateInvoiceRequest struct {
	CustomerID  *int64              `json:"customer_id,omitempty"`
	LeadID      *int64              `json:"lead_id,omitempty"`
	IssueDate   time.Time           `json:"issue_date" validate:"required"`
	DueDate     time.Time           `json:"due_date" validate:"required"`
	Currency    string              `json:"currency" validate:"required,len=3"`
	DiscountPct float64             `json:"discount_percentage" validate:"gte=0,lte=100"`
	TaxPct      float64             `json:"tax_percentage" validate:"gte=0,lte=100"`
	Notes       *string             `json:"notes,omitempty"`
	Items       []CreateItemRequest `json:"items,omitempty" validate:"dive"`
}

type CreateItemRequest struct {
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

type UpdateInvoiceRequest struct {
	CustomerID  *int64     `json:"customer_id,omitempty"`
	IssueDate   *time.Time `json:"issue_date,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	DiscountPct *float64   `json:"discount_percentage,omitempty" validate:"omitempty,gte=0,lte=100"`
	TaxPct      *float64   `json:"tax_percentage,omitempty" validate:"omitempty,gte=0,lte=100"`
	Notes       *string    `json:"notes,omitempty"`
}

type RecordPaymentRequest struct {
	Amount     float64    `json:"amount" validate:"required,gt=0"`
	Method     string     `json:"method" validate:"required,oneof=cash bank_transfer cheque card online"`
	Reference  *string    `json:"reference,omitempty" validate:"omitempty,max=100"`
	ReceivedAt *time.Time `json:"received_at,omitempty"`
	Cleared    bool       `json:"cleared"`
	Notes      *string    `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type ListInvoicesRequest struct {
	CompanyID  int64
	CustomerID *int64
	Status     *Status
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}
