package proofs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotient-crm/quotient/internal/platform/db"
	"github.com/quotient-crm/quotient/internal/shared"
)

// ErrNotFound indicates resource not found.
var ErrNotFound = errors.New("proofs: not found")

// Repository provides PostgreSQL backed persistence for proofs and the
// related trust artifacts.
type Repository interface {
	Get(ctx context.Context, companyID, id int64) (*Proof, error)
	Create(ctx context.Context, p Proof) (int64, error)
	Update(ctx context.Context, p Proof) error
	List(ctx context.Context, req ListProofsRequest) ([]Proof, int, error)
	RecordView(ctx context.Context, v View) (int64, error)
	RecordClick(ctx context.Context, proofID int64) error

	InsertAsset(ctx context.Context, a Asset) (int64, error)
	DeleteAsset(ctx context.Context, proofID, assetID int64) error
	ListAssets(ctx context.Context, proofID int64) ([]Asset, error)

	CreateTestimonial(ctx context.Context, t Testimonial) (int64, error)
	GetTestimonial(ctx context.Context, companyID, id int64) (*Testimonial, error)
	ListTestimonials(ctx context.Context, companyID int64) ([]Testimonial, error)
	SetFeaturedTestimonial(ctx context.Context, companyID, id int64) error

	CreateCaseStudy(ctx context.Context, cs CaseStudy) (int64, error)
	ListCaseStudies(ctx context.Context, companyID int64) ([]CaseStudy, error)
	DeleteCaseStudy(ctx context.Context, companyID, id int64) error

	CreateCertification(ctx context.Context, c Certification) (int64, error)
	ListCertifications(ctx context.Context, companyID int64) ([]Certification, error)
	DeleteCertification(ctx context.Context, companyID, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const proofColumns = `id, company_id, scope_type, scope_id, type, title, description,
	view_count, click_count, published, created_by, created_at, updated_at`

func scanProof(row pgx.Row) (*Proof, error) {
	var p Proof
	var scopeType string
	var description pgtype.Text
	err := row.Scan(&p.ID, &p.CompanyID, &scopeType, &p.Scope.ID, &p.Type, &p.Title,
		&description, &p.ViewCount, &p.ClickCount, &p.Published,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Scope.Type = shared.ScopeType(scopeType)
	if description.Valid {
		p.Description = &description.String
	}
	return &p, nil
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (*Proof, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM proofs WHERE id = $1 AND company_id = $2
	`, proofColumns), id, companyID)
	p, err := scanProof(row)
	if err != nil {
		return nil, err
	}
	assets, err := r.ListAssets(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Assets = assets
	return p, nil
}

func (r *repository) Create(ctx context.Context, p Proof) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO proofs (company_id, scope_type, scope_id, type, title, description,
			published, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id
	`, p.CompanyID, string(p.Scope.Type), p.Scope.ID, string(p.Type), p.Title,
		p.Description, p.Published, p.CreatedBy).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, p Proof) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE proofs
		SET title = $1, description = $2, published = $3, updated_at = NOW()
		WHERE id = $4 AND company_id = $5
	`, p.Title, p.Description, p.Published, p.ID, p.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, req ListProofsRequest) ([]Proof, int, error) {
	conditions := []string{"company_id = $1"}
	args := []any{req.CompanyID}
	argPos := 2

	if req.ScopeType != nil {
		conditions = append(conditions, fmt.Sprintf("scope_type = $%d", argPos))
		args = append(args, *req.ScopeType)
		argPos++
	}
	if req.ScopeID != nil {
		conditions = append(conditions, fmt.Sprintf("scope_id = $%d", argPos))
		args = append(args, *req.ScopeID)
		argPos++
	}
	if req.Published != nil {
		conditions = append(conditions, fmt.Sprintf("published = $%d", argPos))
		args = append(args, *req.Published)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM proofs %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM proofs %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, proofColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Proof
	for rows.Next() {
		p, err := scanProof(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *p)
	}
	return result, total, rows.Err()
}

// RecordView inserts the view event and bumps the counter in one
// transaction. Counters only move forward.
func (r *repository) RecordView(ctx context.Context, v View) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO proof_views (proof_id, viewer_ip, user_agent, clicked, viewed_at)
			VALUES ($1, $2, $3, $4, NOW())
			RETURNING id
		`, v.ProofID, v.ViewerIP, v.UserAgent, v.Clicked).Scan(&id); err != nil {
			return err
		}
		increment := `UPDATE proofs SET view_count = view_count + 1, updated_at = NOW() WHERE id = $1`
		if v.Clicked {
			increment = `UPDATE proofs
				SET view_count = view_count + 1, click_count = click_count + 1, updated_at = NOW()
				WHERE id = $1`
		}
		tag, err := tx.Exec(ctx, increment, v.ProofID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	return id, err
}

func (r *repository) RecordClick(ctx context.Context, proofID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE proofs SET click_count = click_count + 1, updated_at = NOW() WHERE id = $1
	`, proofID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) InsertAsset(ctx context.Context, a Asset) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO proof_assets (proof_id, path, mime_type, caption, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id
	`, a.ProofID, a.Path, a.MimeType, a.Caption, a.SortOrder).Scan(&id)
	return id, err
}

func (r *repository) DeleteAsset(ctx context.Context, proofID, assetID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM proof_assets WHERE id = $1 AND proof_id = $2`, assetID, proofID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListAssets(ctx context.Context, proofID int64) ([]Asset, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, proof_id, path, mime_type, caption, sort_order, created_at
		FROM proof_assets WHERE proof_id = $1
		ORDER BY sort_order, id
	`, proofID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var a Asset
		var caption pgtype.Text
		if err := rows.Scan(&a.ID, &a.ProofID, &a.Path, &a.MimeType, &caption,
			&a.SortOrder, &a.CreatedAt); err != nil {
			return nil, err
		}
		if caption.Valid {
			a.Caption = &caption.String
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (r *repository) CreateTestimonial(ctx context.Context, t Testimonial) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO testimonials (company_id, customer_name, content, rating, published,
			featured, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, false, NOW(), NOW())
		RETURNING id
	`, t.CompanyID, t.CustomerName, t.Content, t.Rating, t.Published).Scan(&id)
	return id, err
}

func (r *repository) GetTestimonial(ctx context.Context, companyID, id int64) (*Testimonial, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, company_id, customer_name, content, rating, published, featured,
		       created_at, updated_at
		FROM testimonials WHERE id = $1 AND company_id = $2
	`, id, companyID)
	return scanTestimonial(row)
}

func scanTestimonial(row pgx.Row) (*Testimonial, error) {
	var t Testimonial
	var rating pgtype.Int4
	err := row.Scan(&t.ID, &t.CompanyID, &t.CustomerName, &t.Content, &rating,
		&t.Published, &t.Featured, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if rating.Valid {
		v := int(rating.Int32)
		t.Rating = &v
	}
	return &t, nil
}

func (r *repository) ListTestimonials(ctx context.Context, companyID int64) ([]Testimonial, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, company_id, customer_name, content, rating, published, featured,
		       created_at, updated_at
		FROM testimonials WHERE company_id = $1
		ORDER BY featured DESC, created_at DESC
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Testimonial
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	return result, rows.Err()
}

// SetFeaturedTestimonial clears any currently featured sibling and sets
// the new one inside a single transaction, so two featured rows can
// never coexist under concurrent writes.
func (r *repository) SetFeaturedTestimonial(ctx context.Context, companyID, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			UPDATE testimonials SET featured = false, updated_at = NOW()
			WHERE company_id = $1 AND featured = true
		`, companyID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			UPDATE testimonials SET featured = true, updated_at = NOW()
			WHERE id = $1 AND company_id = $2
		`, id, companyID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *repository) CreateCaseStudy(ctx context.Context, cs CaseStudy) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO case_studies (company_id, title, summary, body, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id
	`, cs.CompanyID, cs.Title, cs.Summary, cs.Body, cs.Published).Scan(&id)
	return id, err
}

func (r *repository) ListCaseStudies(ctx context.Context, companyID int64) ([]CaseStudy, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, company_id, title, summary, body, published, created_at, updated_at
		FROM case_studies WHERE company_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CaseStudy
	for rows.Next() {
		var cs CaseStudy
		var summary pgtype.Text
		if err := rows.Scan(&cs.ID, &cs.CompanyID, &cs.Title, &summary, &cs.Body,
			&cs.Published, &cs.CreatedAt, &cs.UpdatedAt); err != nil {
			return nil, err
		}
		if summary.Valid {
			cs.Summary = &summary.String
		}
		result = append(result, cs)
	}
	return result, rows.Err()
}

func (r *repository) DeleteCaseStudy(ctx context.Context, companyID, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE case_studies SET deleted_at = NOW()
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

func (r *repository) CreateCertification(ctx context.Context, c Certification) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO certifications (company_id, name, issuer, issued_at, expires_at,
			published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id
	`, c.CompanyID, c.Name, c.Issuer, c.IssuedAt, c.ExpiresAt, c.Published).Scan(&id)
	return id, err
}

func (r *repository) ListCertifications(ctx context.Context, companyID int64) ([]Certification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, company_id, name, issuer, issued_at, expires_at, published,
		       created_at, updated_at
		FROM certifications WHERE company_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Certification
	for rows.Next() {
		var c Certification
		var issuedAt, expiresAt pgtype.Timestamptz
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Issuer, &issuedAt, &expiresAt,
			&c.Published, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if issuedAt.Valid {
			c.IssuedAt = &issuedAt.Time
		}
		if expiresAt.Valid {
			c.ExpiresAt = &expiresAt.Time
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *repository) DeleteCertification(ctx context.Context, companyID, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE certifications SET deleted_at = NOW()
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
