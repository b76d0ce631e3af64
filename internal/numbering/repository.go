package numbering

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for number sequences.
type Repository interface {
	// NextNumber atomically increments and returns the counter for the
	// given key, creating the row at 1 when absent. The upsert must be a
	// single statement so concurrent requests never observe duplicates.
	NextNumber(ctx context.Context, companyID int64, docType DocType, year int) (int64, error)
	GetSequence(ctx context.Context, companyID int64, docType DocType, year int) (*Sequence, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) NextNumber(ctx context.Context, companyID int64, docType DocType, year int) (int64, error) {
	var seq int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO number_sequences (company_id, doc_type, year, current_number, created_at, updated_at)
		VALUES ($1, $2, $3, 1, NOW(), NOW())
		ON CONFLICT (company_id, doc_type, year)
		DO UPDATE SET current_number = number_sequences.current_number + 1, updated_at = NOW()
		RETURNING current_number
	`, companyID, string(docType), year).Scan(&seq)
	if err != nil {
		return 0, err
	}
	return seq, nil
}

func (r *repository) GetSequence(ctx context.Context, companyID int64, docType DocType, year int) (*Sequence, error) {
	var s Sequence
	var docTypeStr string
	err := r.pool.QueryRow(ctx, `
		SELECT id, company_id, doc_type, year, current_number, created_at, updated_at
		FROM number_sequences
		WHERE company_id = $1 AND doc_type = $2 AND year = $3
	`, companyID, string(docType), year).Scan(&s.ID, &s.CompanyID, &docTypeStr, &s.Year, &s.CurrentNumber, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.DocType = DocType(docTypeStr)
	return &s, nil
}
