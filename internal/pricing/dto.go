package pricing

type CreateItemRequest struct {
	CategoryID    *int64             `json:"category_id,omitempty"`
	Code          string             `json:"code" validate:"required,max=50"`
	Name          string             `json:"name" validate:"required,max=200"`
	UOM           string             `json:"uom" validate:"required,max=20"`
	UnitPrice     float64            `json:"unit_price" validate:"gte=0"`
	CostPrice     *float64           `json:"cost_price,omitempty" validate:"omitempty,gte=0"`
	MinimumPrice  *float64           `json:"minimum_price,omitempty" validate:"omitempty,gte=0"`
	SegmentPrices map[string]float64 `json:"segment_selling_prices,omitempty"`
}

type UpdateItemRequest struct {
	CategoryID    *int64             `json:"category_id,omitempty"`
	Code          *string            `json:"code,omitempty" validate:"omitempty,max=50"`
	Name          *string            `json:"name,omitempty" validate:"omitempty,max=200"`
	UOM           *string            `json:"uom,omitempty" validate:"omitempty,max=20"`
	UnitPrice     *float64           `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	CostPrice     *float64           `json:"cost_price,omitempty" validate:"omitempty,gte=0"`
	MinimumPrice  *float64           `json:"minimum_price,omitempty" validate:"omitempty,gte=0"`
	SegmentPrices map[string]float64 `json:"segment_selling_prices,omitempty"`
	Active        *bool              `json:"active,omitempty"`
}

type TierRequest struct {
	SegmentID   int64    `json:"segment_id" validate:"required,gt=0"`
	MinQuantity float64  `json:"min_quantity" validate:"gte=0"`
	MaxQuantity *float64 `json:"max_quantity,omitempty" validate:"omitempty,gte=0"`
	UnitPrice   float64  `json:"unit_price" validate:"gte=0"`
}

type ReplaceTiersRequest struct {
	Tiers []TierRequest `json:"tiers" validate:"dive"`
}

type ResolvePriceRequest struct {
	ItemID    int64   `json:"item_id" validate:"required,gt=0"`
	SegmentID *int64  `json:"segment_id,omitempty"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
}

type CreateSegmentRequest struct {
	Code               string  `json:"code" validate:"required,max=50"`
	Name               string  `json:"name" validate:"required,max=200"`
	DefaultDiscountPct float64 `json:"default_discount_percentage" validate:"gte=0,lte=100"`
}
