package pricing

// ResolveUnitPrice picks the unit price for an item given an optional
// segment and a quantity. Tiers win over segment overrides, overrides win
// over the segment's flat discount, and the base price is the fallback.
// When several tiers contain the quantity the one with the highest
// min_quantity is the most specific match.
func ResolveUnitPrice(item Item, segment *CustomerSegment, tiers []Tier, quantity float64) Resolution {
	if segment == nil {
		return Resolution{UnitPrice: item.UnitPrice, Source: SourceBase}
	}

	var best *Tier
	for i := range tiers {
		t := &tiers[i]
		if !t.Active || t.DeletedAt != nil || t.SegmentID != segment.ID {
			continue
		}
		if quantity < t.MinQuantity {
			continue
		}
		if t.MaxQuantity != nil && quantity > *t.MaxQuantity {
			continue
		}
		if best == nil || t.MinQuantity > best.MinQuantity {
			best = t
		}
	}
	if best != nil {
		id := best.ID
		return Resolution{UnitPrice: best.UnitPrice, Source: SourceTier, TierID: &id}
	}

	if price, ok := item.SegmentPrices[segment.Code]; ok {
		return Resolution{UnitPrice: price, Source: SourceSegmentOverride}
	}

	price := item.UnitPrice * (1 - segment.DefaultDiscountPct/100)
	return Resolution{UnitPrice: price, Source: SourceSegmentDiscount}
}

// ValidateTiers rejects tier sets whose quantity ranges overlap for the
// same (item, segment) pair. Inactive and deleted tiers are ignored.
func ValidateTiers(tiers []Tier) ValidationResult {
	result := ValidationResult{Valid: true}

	type key struct {
		item    int64
		segment int64
	}
	grouped := make(map[key][]Tier)
	for _, t := range tiers {
		if !t.Active || t.DeletedAt != nil {
			continue
		}
		if t.MinQuantity < 0 {
			result.addIssue("tier min_quantity must not be negative")
		}
		if t.MaxQuantity != nil && *t.MaxQuantity < t.MinQuantity {
			result.addIssue("tier max_quantity must not be below min_quantity")
		}
		k := key{item: t.ItemID, segment: t.SegmentID}
		grouped[k] = append(grouped[k], t)
	}

	for _, group := range grouped {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if tiersOverlap(group[i], group[j]) {
					result.addIssue("tier quantity ranges overlap for the same item and segment")
				}
			}
		}
	}
	return result
}

func tiersOverlap(a, b Tier) bool {
	aMax := a.MaxQuantity
	bMax := b.MaxQuantity
	if aMax != nil && *aMax < b.MinQuantity {
		return false
	}
	if bMax != nil && *bMax < a.MinQuantity {
		return false
	}
	return true
}

// ValidateSellingPrice flags a proposed selling price that undercuts the
// item's minimum or cost price. Violations are reported, not fatal.
func ValidateSellingPrice(item Item, price float64) ValidationResult {
	result := ValidationResult{Valid: true}
	if price < 0 {
		result.addIssue("selling price must not be negative")
	}
	if item.MinimumPrice != nil && price < *item.MinimumPrice {
		result.addIssue("selling price is below the minimum price")
	}
	if item.CostPrice != nil && price < *item.CostPrice {
		result.addIssue("selling price is below cost")
	}
	return result
}
