package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestResolveUnitPriceBase(t *testing.T) {
	item := Item{UnitPrice: 100}
	res := ResolveUnitPrice(item, nil, nil, 5)
	require.Equal(t, SourceBase, res.Source)
	require.InDelta(t, 100.0, res.UnitPrice, 1e-9)
}

func TestResolveUnitPriceTierInRange(t *testing.T) {
	item := Item{ID: 1, UnitPrice: 100}
	segment := &CustomerSegment{ID: 7, Code: "commercial"}
	tiers := []Tier{
		{ID: 11, ItemID: 1, SegmentID: 7, MinQuantity: 1, MaxQuantity: f64(9), UnitPrice: 95, Active: true},
		{ID: 12, ItemID: 1, SegmentID: 7, MinQuantity: 10, MaxQuantity: nil, UnitPrice: 90, Active: true},
	}

	res := ResolveUnitPrice(item, segment, tiers, 10)
	require.Equal(t, SourceTier, res.Source)
	require.InDelta(t, 90.0, res.UnitPrice, 1e-9)
	require.NotNil(t, res.TierID)
	require.Equal(t, int64(12), *res.TierID)
}

func TestResolveUnitPriceTierPrefersHighestMin(t *testing.T) {
	item := Item{ID: 1, UnitPrice: 100}
	segment := &CustomerSegment{ID: 7}
	tiers := []Tier{
		{ID: 11, ItemID: 1, SegmentID: 7, MinQuantity: 1, MaxQuantity: nil, UnitPrice: 95, Active: true},
		{ID: 12, ItemID: 1, SegmentID: 7, MinQuantity: 50, MaxQuantity: nil, UnitPrice: 85, Active: true},
	}

	res := ResolveUnitPrice(item, segment, tiers, 60)
	require.InDelta(t, 85.0, res.UnitPrice, 1e-9)
}

func TestResolveUnitPriceTierOutOfRange(t *testing.T) {
	item := Item{ID: 1, UnitPrice: 100, SegmentPrices: map[string]float64{"commercial": 92}}
	segment := &CustomerSegment{ID: 7, Code: "commercial"}
	tiers := []Tier{
		{ItemID: 1, SegmentID: 7, MinQuantity: 10, MaxQuantity: f64(99), UnitPrice: 90, Active: true},
	}

	res := ResolveUnitPrice(item, segment, tiers, 5)
	require.Equal(t, SourceSegmentOverride, res.Source)
	require.InDelta(t, 92.0, res.UnitPrice, 1e-9)
}

func TestResolveUnitPriceSegmentDiscountFallback(t *testing.T) {
	item := Item{ID: 1, UnitPrice: 200}
	segment := &CustomerSegment{ID: 7, Code: "residential", DefaultDiscountPct: 10}

	res := ResolveUnitPrice(item, segment, nil, 1)
	require.Equal(t, SourceSegmentDiscount, res.Source)
	require.InDelta(t, 180.0, res.UnitPrice, 1e-9)
}

func TestResolveUnitPriceIgnoresInactiveTiers(t *testing.T) {
	item := Item{ID: 1, UnitPrice: 100}
	segment := &CustomerSegment{ID: 7, DefaultDiscountPct: 5}
	tiers := []Tier{
		{ItemID: 1, SegmentID: 7, MinQuantity: 1, UnitPrice: 50, Active: false},
	}

	res := ResolveUnitPrice(item, segment, tiers, 5)
	require.Equal(t, SourceSegmentDiscount, res.Source)
	require.InDelta(t, 95.0, res.UnitPrice, 1e-9)
}

func TestValidateTiersOverlap(t *testing.T) {
	tiers := []Tier{
		{ItemID: 1, SegmentID: 7, MinQuantity: 1, MaxQuantity: f64(10), Active: true},
		{ItemID: 1, SegmentID: 7, MinQuantity: 10, MaxQuantity: f64(20), Active: true},
	}

	result := ValidateTiers(tiers)
	require.False(t, result.Valid)
	require.NotEmpty(t, result.Issues)
}

func TestValidateTiersDisjoint(t *testing.T) {
	tiers := []Tier{
		{ItemID: 1, SegmentID: 7, MinQuantity: 1, MaxQuantity: f64(9), Active: true},
		{ItemID: 1, SegmentID: 7, MinQuantity: 10, MaxQuantity: nil, Active: true},
		{ItemID: 1, SegmentID: 8, MinQuantity: 5, MaxQuantity: f64(15), Active: true},
	}

	result := ValidateTiers(tiers)
	require.True(t, result.Valid)
	require.Empty(t, result.Issues)
}

func TestValidateTiersInvertedRange(t *testing.T) {
	tiers := []Tier{
		{ItemID: 1, SegmentID: 7, MinQuantity: 10, MaxQuantity: f64(5), Active: true},
	}

	result := ValidateTiers(tiers)
	require.False(t, result.Valid)
}

func TestValidateSellingPrice(t *testing.T) {
	item := Item{UnitPrice: 100, CostPrice: f64(60), MinimumPrice: f64(80)}

	require.True(t, ValidateSellingPrice(item, 85).Valid)

	below := ValidateSellingPrice(item, 70)
	require.False(t, below.Valid)
	require.Len(t, below.Issues, 1)

	belowCost := ValidateSellingPrice(item, 50)
	require.False(t, belowCost.Valid)
	require.Len(t, belowCost.Issues, 2)
}
