package webhooks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates resource not found.
var ErrNotFound = errors.New("webhooks: not found")

// Repository provides PostgreSQL backed persistence for endpoints and
// deliveries.
type Repository interface {
	GetEndpoint(ctx context.Context, companyID, id int64) (*Endpoint, error)
	CreateEndpoint(ctx context.Context, e Endpoint) (int64, error)
	UpdateEndpoint(ctx context.Context, e Endpoint) error
	DeleteEndpoint(ctx context.Context, companyID, id int64) error
	ListEndpoints(ctx context.Context, companyID int64) ([]Endpoint, error)
	ListSubscribed(ctx context.Context, companyID int64, event string) ([]Endpoint, error)
	IncrementSuccess(ctx context.Context, endpointID int64) error
	IncrementFailure(ctx context.Context, endpointID int64) error

	GetDelivery(ctx context.Context, id int64) (*Delivery, error)
	CreateDelivery(ctx context.Context, d Delivery) (int64, error)
	ClaimDelivery(ctx context.Context, id int64, now time.Time) (bool, error)
	RecordAttempt(ctx context.Context, d Delivery) error
	ListDeliveries(ctx context.Context, companyID, endpointID int64, limit, offset int) ([]Delivery, int, error)
	ListDueRetries(ctx context.Context, now time.Time, limit int) ([]int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const endpointColumns = `id, company_id, name, url, secret, events, active, max_retries,
	timeout_seconds, success_count, failure_count, created_at, updated_at`

func scanEndpoint(row pgx.Row) (*Endpoint, error) {
	var e Endpoint
	err := row.Scan(&e.ID, &e.CompanyID, &e.Name, &e.URL, &e.Secret, &e.Events, &e.Active,
		&e.MaxRetries, &e.TimeoutSeconds, &e.SuccessCount, &e.FailureCount,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *repository) GetEndpoint(ctx context.Context, companyID, id int64) (*Endpoint, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM webhook_endpoints WHERE id = $1 AND company_id = $2
	`, endpointColumns), id, companyID)
	return scanEndpoint(row)
}

func (r *repository) CreateEndpoint(ctx context.Context, e Endpoint) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO webhook_endpoints (company_id, name, url, secret, events, active,
			max_retries, timeout_seconds, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id
	`, e.CompanyID, e.Name, e.URL, e.Secret, e.Events, e.Active,
		e.MaxRetries, e.TimeoutSeconds).Scan(&id)
	return id, err
}

func (r *repository) UpdateEndpoint(ctx context.Context, e Endpoint) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE webhook_endpoints
		SET name = $1, url = $2, events = $3, active = $4, max_retries = $5,
		    timeout_seconds = $6, updated_at = NOW()
		WHERE id = $7 AND company_id = $8
	`, e.Name, e.URL, e.Events, e.Active, e.MaxRetries, e.TimeoutSeconds, e.ID, e.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) DeleteEndpoint(ctx context.Context, companyID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM webhook_endpoints WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListEndpoints(ctx context.Context, companyID int64) ([]Endpoint, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM webhook_endpoints WHERE company_id = $1 ORDER BY id
	`, endpointColumns), companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Endpoint
	for rows.Next() {
		e, err := scanEndpoint(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

func (r *repository) ListSubscribed(ctx context.Context, companyID int64, event string) ([]Endpoint, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM webhook_endpoints
		WHERE company_id = $1 AND active = true AND (events @> ARRAY[$2]::text[] OR events @> ARRAY['*']::text[])
		ORDER BY id
	`, endpointColumns), companyID, event)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Endpoint
	for rows.Next() {
		e, err := scanEndpoint(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

func (r *repository) IncrementSuccess(ctx context.Context, endpointID int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE webhook_endpoints SET success_count = success_count + 1, updated_at = NOW()
		WHERE id = $1
	`, endpointID)
	return err
}

func (r *repository) IncrementFailure(ctx context.Context, endpointID int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE webhook_endpoints SET failure_count = failure_count + 1, updated_at = NOW()
		WHERE id = $1
	`, endpointID)
	return err
}

const deliveryColumns = `id, endpoint_id, company_id, event, payload, status, attempts,
	last_status_code, response_body, next_retry_at, sent_at, created_at, updated_at`

func scanDelivery(row pgx.Row) (*Delivery, error) {
	var d Delivery
	var lastStatusCode pgtype.Int4
	var responseBody pgtype.Text
	var nextRetryAt, sentAt pgtype.Timestamptz
	err := row.Scan(&d.ID, &d.EndpointID, &d.CompanyID, &d.Event, &d.Payload, &d.Status,
		&d.Attempts, &lastStatusCode, &responseBody, &nextRetryAt, &sentAt,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if lastStatusCode.Valid {
		v := int(lastStatusCode.Int32)
		d.LastStatusCode = &v
	}
	if responseBody.Valid {
		d.ResponseBody = &responseBody.String
	}
	if nextRetryAt.Valid {
		d.NextRetryAt = &nextRetryAt.Time
	}
	if sentAt.Valid {
		d.SentAt = &sentAt.Time
	}
	return &d, nil
}

func (r *repository) GetDelivery(ctx context.Context, id int64) (*Delivery, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM webhook_deliveries WHERE id = $1
	`, deliveryColumns), id)
	return scanDelivery(row)
}

func (r *repository) CreateDelivery(ctx context.Context, d Delivery) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO webhook_deliveries (endpoint_id, company_id, event, payload, status,
			attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, NOW(), NOW())
		RETURNING id
	`, d.EndpointID, d.CompanyID, d.Event, d.Payload, string(d.Status)).Scan(&id)
	return id, err
}

// ClaimDelivery marks a pending or due retrying delivery as claimed by
// flipping it back to pending with its retry timer cleared. The
// conditional update makes concurrent sweeps idempotent: only one
// caller wins the claim.
func (r *repository) ClaimDelivery(ctx context.Context, id int64, now time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE webhook_deliveries
		SET status = 'pending', next_retry_at = NULL, updated_at = NOW()
		WHERE id = $1
		  AND (status = 'pending' OR (status = 'retrying' AND next_retry_at <= $2))
	`, id, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repository) RecordAttempt(ctx context.Context, d Delivery) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE webhook_deliveries
		SET status = $1, attempts = $2, last_status_code = $3, response_body = $4,
		    next_retry_at = $5, sent_at = $6, updated_at = NOW()
		WHERE id = $7
	`, string(d.Status), d.Attempts, d.LastStatusCode, d.ResponseBody,
		d.NextRetryAt, d.SentAt, d.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListDeliveries(ctx context.Context, companyID, endpointID int64, limit, offset int) ([]Delivery, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM webhook_deliveries WHERE company_id = $1 AND endpoint_id = $2
	`, companyID, endpointID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM webhook_deliveries
		WHERE company_id = $1 AND endpoint_id = $2
		ORDER BY id DESC
		LIMIT $3 OFFSET $4
	`, deliveryColumns), companyID, endpointID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *d)
	}
	return result, total, rows.Err()
}

func (r *repository) ListDueRetries(ctx context.Context, now time.Time, limit int) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM webhook_deliveries
		WHERE status = 'retrying' AND next_retry_at <= $1
		ORDER BY next_retry_at
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
