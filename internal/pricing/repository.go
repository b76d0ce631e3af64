package pricing

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates resource not found.
var ErrNotFound = errors.New("pricing: not found")

// Repository provides PostgreSQL backed persistence for pricing data.
type Repository interface {
	GetItem(ctx context.Context, companyID, itemID int64) (*Item, error)
	CreateItem(ctx context.Context, item Item) (int64, error)
	UpdateItem(ctx context.Context, item Item) error
	DeleteItem(ctx context.Context, companyID, itemID int64) error
	ListItems(ctx context.Context, companyID int64, limit, offset int) ([]Item, int, error)

	GetSegment(ctx context.Context, companyID, segmentID int64) (*CustomerSegment, error)
	ListSegments(ctx context.Context, companyID int64) ([]CustomerSegment, error)
	CreateSegment(ctx context.Context, segment CustomerSegment) (int64, error)

	ListTiers(ctx context.Context, itemID int64) ([]Tier, error)
	ReplaceTiers(ctx context.Context, itemID int64, tiers []Tier) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) GetItem(ctx context.Context, companyID, itemID int64) (*Item, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, company_id, category_id, code, name, uom, unit_price, cost_price,
		       minimum_price, segment_selling_prices, active, created_at, updated_at
		FROM pricing_items
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
	`, itemID, companyID)
	return scanItem(row)
}

func scanItem(row pgx.Row) (*Item, error) {
	var item Item
	var categoryID pgtype.Int8
	var costPrice, minimumPrice pgtype.Float8
	var segmentPrices []byte
	err := row.Scan(&item.ID, &item.CompanyID, &categoryID, &item.Code, &item.Name, &item.UOM,
		&item.UnitPrice, &costPrice, &minimumPrice, &segmentPrices, &item.Active,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if categoryID.Valid {
		item.CategoryID = &categoryID.Int64
	}
	if costPrice.Valid {
		item.CostPrice = &costPrice.Float64
	}
	if minimumPrice.Valid {
		item.MinimumPrice = &minimumPrice.Float64
	}
	if len(segmentPrices) > 0 {
		if err := json.Unmarshal(segmentPrices, &item.SegmentPrices); err != nil {
			return nil, err
		}
	}
	return &item, nil
}

func (r *repository) CreateItem(ctx context.Context, item Item) (int64, error) {
	segmentPrices, err := json.Marshal(item.SegmentPrices)
	if err != nil {
		return 0, err
	}
	var id int64
	err = r.pool.QueryRow(ctx, `
		INSERT INTO pricing_items (company_id, category_id, code, name, uom, unit_price,
			cost_price, minimum_price, segment_selling_prices, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id
	`, item.CompanyID, item.CategoryID, item.Code, item.Name, item.UOM, item.UnitPrice,
		item.CostPrice, item.MinimumPrice, segmentPrices, item.Active).Scan(&id)
	return id, err
}

func (r *repository) UpdateItem(ctx context.Context, item Item) error {
	segmentPrices, err := json.Marshal(item.SegmentPrices)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE pricing_items
		SET category_id = $1, code = $2, name = $3, uom = $4, unit_price = $5,
		    cost_price = $6, minimum_price = $7, segment_selling_prices = $8,
		    active = $9, updated_at = NOW()
		WHERE id = $10 AND company_id = $11 AND deleted_at IS NULL
	`, item.CategoryID, item.Code, item.Name, item.UOM, item.UnitPrice,
		item.CostPrice, item.MinimumPrice, segmentPrices, item.Active, item.ID, item.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) DeleteItem(ctx context.Context, companyID, itemID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE pricing_items SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
	`, itemID, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListItems(ctx context.Context, companyID int64, limit, offset int) ([]Item, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM pricing_items WHERE company_id = $1 AND deleted_at IS NULL`,
		companyID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, company_id, category_id, code, name, uom, unit_price, cost_price,
		       minimum_price, segment_selling_prices, active, created_at, updated_at
		FROM pricing_items
		WHERE company_id = $1 AND deleted_at IS NULL
		ORDER BY name, id
		LIMIT $2 OFFSET $3
	`, companyID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *item)
	}
	return items, total, rows.Err()
}

func (r *repository) GetSegment(ctx context.Context, companyID, segmentID int64) (*CustomerSegment, error) {
	var s CustomerSegment
	err := r.pool.QueryRow(ctx, `
		SELECT id, company_id, code, name, default_discount_percentage, active, created_at, updated_at
		FROM customer_segments
		WHERE id = $1 AND company_id = $2
	`, segmentID, companyID).Scan(&s.ID, &s.CompanyID, &s.Code, &s.Name, &s.DefaultDiscountPct,
		&s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) ListSegments(ctx context.Context, companyID int64) ([]CustomerSegment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, company_id, code, name, default_discount_percentage, active, created_at, updated_at
		FROM customer_segments
		WHERE company_id = $1
		ORDER BY name
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segments []CustomerSegment
	for rows.Next() {
		var s CustomerSegment
		if err := rows.Scan(&s.ID, &s.CompanyID, &s.Code, &s.Name, &s.DefaultDiscountPct,
			&s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		segments = append(segments, s)
	}
	return segments, rows.Err()
}

func (r *repository) CreateSegment(ctx context.Context, segment CustomerSegment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO customer_segments (company_id, code, name, default_discount_percentage, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id
	`, segment.CompanyID, segment.Code, segment.Name, segment.DefaultDiscountPct, segment.Active).Scan(&id)
	return id, err
}

func (r *repository) ListTiers(ctx context.Context, itemID int64) ([]Tier, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, item_id, segment_id, min_quantity, max_quantity, unit_price, active, created_at, updated_at
		FROM pricing_tiers
		WHERE item_id = $1 AND deleted_at IS NULL
		ORDER BY segment_id, min_quantity
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []Tier
	for rows.Next() {
		var t Tier
		var maxQty pgtype.Float8
		if err := rows.Scan(&t.ID, &t.ItemID, &t.SegmentID, &t.MinQuantity, &maxQty,
			&t.UnitPrice, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		if maxQty.Valid {
			t.MaxQuantity = &maxQty.Float64
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

func (r *repository) ReplaceTiers(ctx context.Context, itemID int64, tiers []Tier) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`UPDATE pricing_tiers SET deleted_at = NOW() WHERE item_id = $1 AND deleted_at IS NULL`,
		itemID); err != nil {
		return err
	}
	for _, t := range tiers {
		if _, err := tx.Exec(ctx, `
			INSERT INTO pricing_tiers (item_id, segment_id, min_quantity, max_quantity, unit_price, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		`, itemID, t.SegmentID, t.MinQuantity, t.MaxQuantity, t.UnitPrice, t.Active); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
