package leads

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates resource not found.
var ErrNotFound = errors.New("leads: not found")

// Repository provides PostgreSQL backed persistence for leads.
type Repository interface {
	Get(ctx context.Context, companyID, id int64) (*Lead, error)
	Create(ctx context.Context, lead Lead) (int64, error)
	Update(ctx context.Context, lead Lead) error
	SoftDelete(ctx context.Context, companyID, id int64) error
	List(ctx context.Context, req ListLeadsRequest) ([]Lead, int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const leadColumns = `id, company_id, name, phone, email, source, service_type, status,
	assigned_to, notes, lost_reason, contact_count, quote_count,
	last_contacted_at, last_quoted_at, converted_at, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, companyID, id int64) (*Lead, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
	`, leadColumns), id, companyID)
	return scanLead(row)
}

func scanLead(row pgx.Row) (*Lead, error) {
	var l Lead
	var email, notes, lostReason pgtype.Text
	var assignedTo pgtype.Int8
	var lastContactedAt, lastQuotedAt, convertedAt pgtype.Timestamptz
	err := row.Scan(&l.ID, &l.CompanyID, &l.Name, &l.Phone, &email, &l.Source, &l.ServiceType,
		&l.Status, &assignedTo, &notes, &lostReason, &l.ContactCount, &l.QuoteCount,
		&lastContactedAt, &lastQuotedAt, &convertedAt, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if email.Valid {
		l.Email = &email.String
	}
	if notes.Valid {
		l.Notes = &notes.String
	}
	if lostReason.Valid {
		l.LostReason = &lostReason.String
	}
	if assignedTo.Valid {
		l.AssignedTo = &assignedTo.Int64
	}
	if lastContactedAt.Valid {
		l.LastContactedAt = &lastContactedAt.Time
	}
	if lastQuotedAt.Valid {
		l.LastQuotedAt = &lastQuotedAt.Time
	}
	if convertedAt.Valid {
		l.ConvertedAt = &convertedAt.Time
	}
	return &l, nil
}

func (r *repository) Create(ctx context.Context, lead Lead) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO leads (company_id, name, phone, email, source, service_type, status,
			assigned_to, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id
	`, lead.CompanyID, lead.Name, lead.Phone, lead.Email, lead.Source, lead.ServiceType,
		string(lead.Status), lead.AssignedTo, lead.Notes, lead.CreatedBy).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, lead Lead) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET name = $1, phone = $2, email = $3, source = $4, service_type = $5, status = $6,
		    assigned_to = $7, notes = $8, lost_reason = $9, contact_count = $10,
		    quote_count = $11, last_contacted_at = $12, last_quoted_at = $13,
		    converted_at = $14, updated_at = NOW()
		WHERE id = $15 AND company_id = $16 AND deleted_at IS NULL
	`, lead.Name, lead.Phone, lead.Email, lead.Source, lead.ServiceType, string(lead.Status),
		lead.AssignedTo, lead.Notes, lead.LostReason, lead.ContactCount, lead.QuoteCount,
		lead.LastContactedAt, lead.LastQuotedAt, lead.ConvertedAt, lead.ID, lead.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, companyID, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
	`, id, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, req ListLeadsRequest) ([]Lead, int, error) {
	conditions := []string{"company_id = $1", "deleted_at IS NULL"}
	args := []any{req.CompanyID}
	argPos := 2

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	if req.AssignedTo != nil {
		conditions = append(conditions, fmt.Sprintf("assigned_to = $%d", argPos))
		args = append(args, *req.AssignedTo)
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM leads %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM leads %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, leadColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *lead)
	}
	return result, total, rows.Err()
}
