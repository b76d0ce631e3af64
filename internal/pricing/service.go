package pricing

import (
	"context"
	"errors"
	"fmt"
)

// ErrPriceRejected indicates a price that violates minimum/cost rules.
var ErrPriceRejected = errors.New("pricing: price rejected")

// Service handles pricing business logic.
type Service struct {
	repo  Repository
	cache *Cache
}

// NewService builds a Service instance.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Resolve returns the unit price for an item given an optional segment and
// quantity, applying tier, override and segment-discount rules in order.
func (s *Service) Resolve(ctx context.Context, companyID int64, req ResolvePriceRequest) (*Resolution, error) {
	item, err := s.repo.GetItem(ctx, companyID, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	var segment *CustomerSegment
	if req.SegmentID != nil {
		segment, err = s.repo.GetSegment(ctx, companyID, *req.SegmentID)
		if err != nil {
			return nil, fmt.Errorf("get segment: %w", err)
		}
	}

	var tiers []Tier
	if segment != nil {
		tiers, err = s.cache.FetchTiers(ctx, item.ID, func(ctx context.Context) ([]Tier, error) {
			return s.repo.ListTiers(ctx, item.ID)
		})
		if err != nil {
			return nil, fmt.Errorf("list tiers: %w", err)
		}
	}

	res := ResolveUnitPrice(*item, segment, tiers, req.Quantity)
	return &res, nil
}

// CreateItem validates and stores a new pricing item.
func (s *Service) CreateItem(ctx context.Context, companyID int64, req CreateItemRequest) (*Item, error) {
	item := Item{
		CompanyID:     companyID,
		CategoryID:    req.CategoryID,
		Code:          req.Code,
		Name:          req.Name,
		UOM:           req.UOM,
		UnitPrice:     req.UnitPrice,
		CostPrice:     req.CostPrice,
		MinimumPrice:  req.MinimumPrice,
		SegmentPrices: req.SegmentPrices,
		Active:        true,
	}
	if result := ValidateSellingPrice(item, item.UnitPrice); !result.Valid {
		return nil, fmt.Errorf("%w: %v", ErrPriceRejected, result.Issues)
	}

	id, err := s.repo.CreateItem(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return s.repo.GetItem(ctx, companyID, id)
}

// UpdateItem applies a partial update and invalidates cached tiers.
func (s *Service) UpdateItem(ctx context.Context, companyID, itemID int64, req UpdateItemRequest) (*Item, error) {
	item, err := s.repo.GetItem(ctx, companyID, itemID)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	if req.CategoryID != nil {
		item.CategoryID = req.CategoryID
	}
	if req.Code != nil {
		item.Code = *req.Code
	}
	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.UOM != nil {
		item.UOM = *req.UOM
	}
	if req.UnitPrice != nil {
		item.UnitPrice = *req.UnitPrice
	}
	if req.CostPrice != nil {
		item.CostPrice = req.CostPrice
	}
	if req.MinimumPrice != nil {
		item.MinimumPrice = req.MinimumPrice
	}
	if req.SegmentPrices != nil {
		item.SegmentPrices = req.SegmentPrices
	}
	if req.Active != nil {
		item.Active = *req.Active
	}

	if err := s.repo.UpdateItem(ctx, *item); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	s.cache.InvalidateItem(ctx, itemID)
	return s.repo.GetItem(ctx, companyID, itemID)
}

// DeleteItem soft-deletes an item.
func (s *Service) DeleteItem(ctx context.Context, companyID, itemID int64) error {
	if err := s.repo.DeleteItem(ctx, companyID, itemID); err != nil {
		return err
	}
	s.cache.InvalidateItem(ctx, itemID)
	return nil
}

// ListItems returns a page of items.
func (s *Service) ListItems(ctx context.Context, companyID int64, limit, offset int) ([]Item, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListItems(ctx, companyID, limit, offset)
}

// GetItem returns one item.
func (s *Service) GetItem(ctx context.Context, companyID, itemID int64) (*Item, error) {
	return s.repo.GetItem(ctx, companyID, itemID)
}

// ReplaceTiers swaps an item's tier set after validating range overlaps.
// Rule violations come back as a ValidationResult so the caller can show
// every problem at once.
func (s *Service) ReplaceTiers(ctx context.Context, companyID, itemID int64, req ReplaceTiersRequest) (*ValidationResult, error) {
	if _, err := s.repo.GetItem(ctx, companyID, itemID); err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	tiers := make([]Tier, 0, len(req.Tiers))
	for _, tr := range req.Tiers {
		tiers = append(tiers, Tier{
			ItemID:      itemID,
			SegmentID:   tr.SegmentID,
			MinQuantity: tr.MinQuantity,
			MaxQuantity: tr.MaxQuantity,
			UnitPrice:   tr.UnitPrice,
			Active:      true,
		})
	}

	result := ValidateTiers(tiers)
	if !result.Valid {
		return &result, nil
	}

	if err := s.repo.ReplaceTiers(ctx, itemID, tiers); err != nil {
		return nil, fmt.Errorf("replace tiers: %w", err)
	}
	s.cache.InvalidateItem(ctx, itemID)
	return &result, nil
}

// ListTiers returns the active tiers for an item.
func (s *Service) ListTiers(ctx context.Context, companyID, itemID int64) ([]Tier, error) {
	if _, err := s.repo.GetItem(ctx, companyID, itemID); err != nil {
		return nil, err
	}
	return s.repo.ListTiers(ctx, itemID)
}

// CreateSegment stores a new customer segment.
func (s *Service) CreateSegment(ctx context.Context, companyID int64, req CreateSegmentRequest) (*CustomerSegment, error) {
	id, err := s.repo.CreateSegment(ctx, CustomerSegment{
		CompanyID:          companyID,
		Code:               req.Code,
		Name:               req.Name,
		DefaultDiscountPct: req.DefaultDiscountPct,
		Active:             true,
	})
	if err != nil {
		return nil, fmt.Errorf("create segment: %w", err)
	}
	return s.repo.GetSegment(ctx, companyID, id)
}

// ListSegments returns the company's segments.
func (s *Service) ListSegments(ctx context.Context, companyID int64) ([]CustomerSegment, error) {
	return s.repo.ListSegments(ctx, companyID)
}
