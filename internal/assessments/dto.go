package assessments

import "time"

type CreateAssessmentRequest struct {
	LeadID      *int64           `json:"lead_id,omitempty"`
	ServiceType string           `json:"service_type" validate:"required,max=50"`
	ScheduledAt time.Time        `json:"scheduled_at" validate:"required"`
	Location    *string          `json:"location,omitempty" validate:"omitempty,max=300"`
	Notes       *string          `json:"notes,omitempty"`
	Sections    []SectionRequest `json:"sections" validate:"required,min=1,dive"`
}

type SectionRequest struct {
	Title     string        `json:"title" validate:"required,max=200"`
	Weight    float64       `json:"weight" validate:"gt=0"`
	MaxScore  float64       `json:"max_score" validate:"gte=0,lte=100"`
	SortOrder int           `json:"sort_order" validate:"gte=0"`
	Items     []ItemRequest `json:"items" validate:"required,min=1,dive"`
}

type ItemRequest struct {
	Type      ItemType `json:"type" validate:"required,oneof=rating yes_no measurement multiple_choice free_text photo"`
	Prompt    string   `json:"prompt" validate:"required,max=500"`
	MaxPoints float64  `json:"max_points" validate:"gt=0"`
	SortOrder int      `json:"sort_order" validate:"gte=0"`

	RatingScale    *int               `json:"rating_scale,omitempty" validate:"omitempty,gt=1"`
	ReverseScoring bool               `json:"reverse_scoring,omitempty"`
	PositiveAnswer *bool              `json:"positive_answer,omitempty"`
	MinAcceptable  *float64           `json:"min_acceptable,omitempty"`
	MaxAcceptable  *float64           `json:"max_acceptable,omitempty"`
	ChoicePoints   map[string]float64 `json:"choice_points,omitempty"`
}

type RecordResponseRequest struct {
	RatingValue   *int     `json:"rating_value,omitempty"`
	BoolValue     *bool    `json:"bool_value,omitempty"`
	MeasuredValue *float64 `json:"measured_value,omitempty"`
	ChoiceValue   *string  `json:"choice_value,omitempty"`
	TextValue     *string  `json:"text_value,omitempty"`
	ManualPoints  *float64 `json:"manual_points,omitempty" validate:"omitempty,gte=0"`

	Recommendation *string  `json:"recommendation,omitempty" validate:"omitempty,max=500"`
	EstimatedCost  *float64 `json:"estimated_cost,omitempty" validate:"omitempty,gte=0"`
	PricingItemID  *int64   `json:"pricing_item_id,omitempty"`
}

type AttachPhotoRequest struct {
	ItemID   *int64  `json:"item_id,omitempty"`
	Filename string  `json:"filename" validate:"required,max=200"`
	Caption  *string `json:"caption,omitempty" validate:"omitempty,max=300"`
}

type GenerateQuotationRequest struct {
	ValidDays   int     `json:"valid_days" validate:"omitempty,gt=0"`
	Currency    string  `json:"currency" validate:"required,len=3"`
	DiscountPct float64 `json:"discount_percentage" validate:"gte=0,lte=100"`
	TaxPct      float64 `json:"tax_percentage" validate:"gte=0,lte=100"`
}

type ListAssessmentsRequest struct {
	CompanyID int64
	LeadID    *int64
	Status    *Status
	Limit     int
	Offset    int
}
