package quotations

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates resource not found.
var ErrNotFound = errors.New("quotations: not found")

// Repository provides PostgreSQL backed persistence for quotations.
type Repository interface {
	Get(ctx context.Context, companyID, id int64) (*Quotation, error)
	Create(ctx context.Context, q Quotation) (int64, error)
	UpdateHeader(ctx context.Context, q Quotation) error
	UpdateTotals(ctx context.Context, id int64, totals Totals) error
	UpdateStatus(ctx context.Context, q Quotation) error
	List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error)

	InsertSection(ctx context.Context, section Section) (int64, error)
	InsertItem(ctx context.Context, item Item) (int64, error)
	UpdateItem(ctx context.Context, item Item) error
	DeleteItem(ctx context.Context, quotationID, itemID int64) error
	ListItems(ctx context.Context, quotationID int64) ([]Item, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const quotationColumns = `id, doc_number, company_id, lead_id, segment_id, status, issue_date,
	valid_until, currency, discount_percentage, tax_percentage, subtotal, discount_amount,
	tax_amount, total, notes, rejection_reason, sent_at, viewed_at, accepted_at, rejected_at,
	converted_at, created_by, created_at, updated_at`

func scanQuotation(row pgx.Row) (*Quotation, error) {
	var q Quotation
	var leadID, segmentID pgtype.Int8
	var notes, rejectionReason pgtype.Text
	var sentAt, viewedAt, acceptedAt, rejectedAt, convertedAt pgtype.Timestamptz
	err := row.Scan(&q.ID, &q.DocNumber, &q.CompanyID, &leadID, &segmentID, &q.Status,
		&q.IssueDate, &q.ValidUntil, &q.Currency, &q.DiscountPct, &q.TaxPct, &q.Subtotal,
		&q.DiscountAmount, &q.TaxAmount, &q.Total, &notes, &rejectionReason,
		&sentAt, &viewedAt, &acceptedAt, &rejectedAt, &convertedAt,
		&q.CreatedBy, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if leadID.Valid {
		q.LeadID = &leadID.Int64
	}
	if segmentID.Valid {
		q.SegmentID = &segmentID.Int64
	}
	if notes.Valid {
		q.Notes = &notes.String
	}
	if rejectionReason.Valid {
		q.RejectionReason = &rejectionReason.String
	}
	if sentAt.Valid {
		q.SentAt = &sentAt.Time
	}
	if viewedAt.Valid {
		q.ViewedAt = &viewedAt.Time
	}
	if acceptedAt.Valid {
		q.AcceptedAt = &acceptedAt.Time
	}
	if rejectedAt.Valid {
		q.RejectedAt = &rejectedAt.Time
	}
	if convertedAt.Valid {
		q.ConvertedAt = &convertedAt.Time
	}
	return &q, nil
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (*Quotation, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM quotations WHERE id = $1 AND company_id = $2
	`, quotationColumns), id, companyID)
	q, err := scanQuotation(row)
	if err != nil {
		return nil, err
	}

	sections, err := r.listSections(ctx, id)
	if err != nil {
		return nil, err
	}
	q.Sections = sections

	items, err := r.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	q.Items = items
	return q, nil
}

func (r *repository) listSections(ctx context.Context, quotationID int64) ([]Section, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, quotation_id, title, sort_order
		FROM quotation_sections WHERE quotation_id = $1
		ORDER BY sort_order, id
	`, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []Section
	for rows.Next() {
		var s Section
		if err := rows.Scan(&s.ID, &s.QuotationID, &s.Title, &s.SortOrder); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

func (r *repository) ListItems(ctx context.Context, quotationID int64) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, quotation_id, section_id, pricing_item_id, description, uom,
		       quantity, unit_price, line_total, sort_order
		FROM quotation_items WHERE quotation_id = $1
		ORDER BY sort_order, id
	`, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		var sectionID, pricingItemID pgtype.Int8
		if err := rows.Scan(&item.ID, &item.QuotationID, &sectionID, &pricingItemID,
			&item.Description, &item.UOM, &item.Quantity, &item.UnitPrice,
			&item.LineTotal, &item.SortOrder); err != nil {
			return nil, err
		}
		if sectionID.Valid {
			item.SectionID = &sectionID.Int64
		}
		if pricingItemID.Valid {
			item.PricingItemID = &pricingItemID.Int64
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) Create(ctx context.Context, q Quotation) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO quotations (doc_number, company_id, lead_id, segment_id, status, issue_date,
			valid_until, currency, discount_percentage, tax_percentage, subtotal,
			discount_amount, tax_amount, total, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
		RETURNING id
	`, q.DocNumber, q.CompanyID, q.LeadID, q.SegmentID, string(q.Status), q.IssueDate,
		q.ValidUntil, q.Currency, q.DiscountPct, q.TaxPct, q.Subtotal,
		q.DiscountAmount, q.TaxAmount, q.Total, q.Notes, q.CreatedBy).Scan(&id)
	return id, err
}

func (r *repository) UpdateHeader(ctx context.Context, q Quotation) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quotations
		SET issue_date = $1, valid_until = $2, discount_percentage = $3, tax_percentage = $4,
		    notes = $5, updated_at = NOW()
		WHERE id = $6 AND company_id = $7
	`, q.IssueDate, q.ValidUntil, q.DiscountPct, q.TaxPct, q.Notes, q.ID, q.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) UpdateTotals(ctx context.Context, id int64, totals Totals) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE quotations
		SET subtotal = $1, discount_amount = $2, tax_amount = $3, total = $4, updated_at = NOW()
		WHERE id = $5
	`, totals.Subtotal, totals.DiscountAmount, totals.TaxAmount, totals.Total, id)
	return err
}

func (r *repository) UpdateStatus(ctx context.Context, q Quotation) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quotations
		SET status = $1, rejection_reason = $2, sent_at = $3, viewed_at = $4,
		    accepted_at = $5, rejected_at = $6, converted_at = $7, updated_at = NOW()
		WHERE id = $8 AND company_id = $9
	`, string(q.Status), q.RejectionReason, q.SentAt, q.ViewedAt,
		q.AcceptedAt, q.RejectedAt, q.ConvertedAt, q.ID, q.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	conditions := []string{"company_id = $1"}
	args := []any{req.CompanyID}
	argPos := 2

	if req.LeadID != nil {
		conditions = append(conditions, fmt.Sprintf("lead_id = $%d", argPos))
		args = append(args, *req.LeadID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("issue_date >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("issue_date <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM quotations %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM quotations %s
		ORDER BY issue_date DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, quotationColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *q)
	}
	return result, total, rows.Err()
}

func (r *repository) InsertSection(ctx context.Context, section Section) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO quotation_sections (quotation_id, title, sort_order)
		VALUES ($1, $2, $3)
		RETURNING id
	`, section.QuotationID, section.Title, section.SortOrder).Scan(&id)
	return id, err
}

func (r *repository) InsertItem(ctx context.Context, item Item) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO quotation_items (quotation_id, section_id, pricing_item_id, description,
			uom, quantity, unit_price, line_total, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, item.QuotationID, item.SectionID, item.PricingItemID, item.Description,
		item.UOM, item.Quantity, item.UnitPrice, item.LineTotal, item.SortOrder).Scan(&id)
	return id, err
}

func (r *repository) UpdateItem(ctx context.Context, item Item) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quotation_items
		SET description = $1, uom = $2, quantity = $3, unit_price = $4,
		    line_total = $5, sort_order = $6
		WHERE id = $7 AND quotation_id = $8
	`, item.Description, item.UOM, item.Quantity, item.UnitPrice,
		item.LineTotal, item.SortOrder, item.ID, item.QuotationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) DeleteItem(ctx context.Context, quotationID, itemID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM quotation_items WHERE id = $1 AND quotation_id = $2`, itemID, quotationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
