package pricing

import "time"

// CustomerSegment groups customers for discount and tier resolution.
type CustomerSegment struct {
	ID                 int64     `json:"id"`
	CompanyID          int64     `json:"company_id"`
	Code               string    `json:"code"`
	Name               string    `json:"name"`
	DefaultDiscountPct float64   `json:"default_discount_percentage"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Category groups pricing items. Soft-deleted.
type Category struct {
	ID        int64      `json:"id"`
	CompanyID int64      `json:"company_id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Item is a sellable product or service with a base price and optional
// per-segment overrides. Soft-deleted.
type Item struct {
	ID            int64              `json:"id"`
	CompanyID     int64              `json:"company_id"`
	CategoryID    *int64             `json:"category_id,omitempty"`
	Code          string             `json:"code"`
	Name          string             `json:"name"`
	UOM           string             `json:"uom"`
	UnitPrice     float64            `json:"unit_price"`
	CostPrice     *float64           `json:"cost_price,omitempty"`
	MinimumPrice  *float64           `json:"minimum_price,omitempty"`
	SegmentPrices map[string]float64 `json:"segment_selling_prices,omitempty"`
	Active        bool               `json:"active"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	DeletedAt     *time.Time         `json:"deleted_at,omitempty"`
}

// Tier overrides the unit price for a (item, segment) pair within a
// quantity range. MaxQuantity nil means unbounded. Soft-deleted.
type Tier struct {
	ID          int64      `json:"id"`
	ItemID      int64      `json:"item_id"`
	SegmentID   int64      `json:"segment_id"`
	MinQuantity float64    `json:"min_quantity"`
	MaxQuantity *float64   `json:"max_quantity,omitempty"`
	UnitPrice   float64    `json:"unit_price"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// PriceSource records which rule produced a resolved price.
type PriceSource string

const (
	SourceBase            PriceSource = "base"
	SourceSegmentDiscount PriceSource = "segment_discount"
	SourceSegmentOverride PriceSource = "segment_override"
	SourceTier            PriceSource = "tier"
)

// Resolution is the outcome of resolving a price for (item, segment, quantity).
type Resolution struct {
	UnitPrice float64     `json:"unit_price"`
	Source    PriceSource `json:"source"`
	TierID    *int64      `json:"tier_id,omitempty"`
}

// ValidationResult aggregates rule violations so callers can surface all
// problems at once instead of failing on the first.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues,omitempty"`
}

func (v *ValidationResult) addIssue(issue string) {
	v.Valid = false
	v.Issues = append(v.Issues, issue)
}
