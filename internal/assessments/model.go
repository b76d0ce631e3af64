package assessments

import "time"

// Status is the assessment lifecycle state.
type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

var transitions = map[Status][]Status{
	StatusScheduled:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// CanTransition reports whether a status move is legal.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ItemType selects the scoring rule for an assessment item.
type ItemType string

const (
	ItemRating         ItemType = "rating"
	ItemYesNo          ItemType = "yes_no"
	ItemMeasurement    ItemType = "measurement"
	ItemMultipleChoice ItemType = "multiple_choice"
	ItemFreeText       ItemType = "free_text"
	ItemPhoto          ItemType = "photo"
)

// RiskLevel classifies the overall assessment outcome.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Assessment is an on-site inspection producing a weighted score.
type Assessment struct {
	ID           int64      `json:"id"`
	DocNumber    string     `json:"doc_number"`
	CompanyID    int64      `json:"company_id"`
	LeadID       *int64     `json:"lead_id,omitempty"`
	ServiceType  string     `json:"service_type"`
	Status       Status     `json:"status"`
	ScheduledAt  time.Time  `json:"scheduled_at"`
	Location     *string    `json:"location,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	OverallScore *float64   `json:"overall_score,omitempty"`
	RiskLevel    *RiskLevel `json:"risk_level,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	AssessorID   int64      `json:"assessor_id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Sections     []Section  `json:"sections,omitempty"`
	Photos       []Photo    `json:"photos,omitempty"`
}

// Section groups assessment items and carries a weight toward the
// overall score.
type Section struct {
	ID           int64    `json:"id"`
	AssessmentID int64    `json:"assessment_id"`
	Title        string   `json:"title"`
	Weight       float64  `json:"weight"`
	MaxScore     float64  `json:"max_score"`
	ActualScore  *float64 `json:"actual_score,omitempty"`
	SortOrder    int      `json:"sort_order"`
	Items        []Item   `json:"items,omitempty"`
}

// Item is one checklist entry. The config fields used depend on Type;
// unused fields stay nil. ActualPoints is derived by scoring, except
// for free-text and photo items where the assessor enters it manually.
type Item struct {
	ID        int64    `json:"id"`
	SectionID int64    `json:"section_id"`
	Type      ItemType `json:"type"`
	Prompt    string   `json:"prompt"`
	MaxPoints float64  `json:"max_points"`
	SortOrder int      `json:"sort_order"`

	RatingScale    *int               `json:"rating_scale,omitempty"`
	ReverseScoring bool               `json:"reverse_scoring,omitempty"`
	PositiveAnswer *bool              `json:"positive_answer,omitempty"`
	MinAcceptable  *float64           `json:"min_acceptable,omitempty"`
	MaxAcceptable  *float64           `json:"max_acceptable,omitempty"`
	ChoicePoints   map[string]float64 `json:"choice_points,omitempty"`

	RatingValue   *int     `json:"rating_value,omitempty"`
	BoolValue     *bool    `json:"bool_value,omitempty"`
	MeasuredValue *float64 `json:"measured_value,omitempty"`
	ChoiceValue   *string  `json:"choice_value,omitempty"`
	TextValue     *string  `json:"text_value,omitempty"`
	ManualPoints  *float64 `json:"manual_points,omitempty"`

	ActualPoints *float64 `json:"actual_points,omitempty"`

	Recommendation *string  `json:"recommendation,omitempty"`
	EstimatedCost  *float64 `json:"estimated_cost,omitempty"`
	PricingItemID  *int64   `json:"pricing_item_id,omitempty"`
}

// Photo is an evidence image captured during the assessment. Processed
// is false when thumbnail or EXIF extraction failed; the row is kept.
type Photo struct {
	ID           int64     `json:"id"`
	AssessmentID int64     `json:"assessment_id"`
	ItemID       *int64    `json:"item_id,omitempty"`
	Path         string    `json:"path"`
	URL          string    `json:"url,omitempty"`
	Caption      *string   `json:"caption,omitempty"`
	Processed    bool      `json:"processed"`
	CreatedAt    time.Time `json:"created_at"`
}

// Answered reports whether the item has a response for its type.
func (it *Item) Answered() bool {
	switch it.Type {
	case ItemRating:
		return it.RatingValue != nil
	case ItemYesNo:
		return it.BoolValue != nil
	case ItemMeasurement:
		return it.MeasuredValue != nil
	case ItemMultipleChoice:
		return it.ChoiceValue != nil
	case ItemFreeText, ItemPhoto:
		return it.ManualPoints != nil
	}
	return false
}
