package notifications

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates resource not found.
var ErrNotFound = errors.New("notifications: not found")

// Repository provides PostgreSQL backed persistence for preferences and
// in-app notifications.
type Repository interface {
	ListPreferences(ctx context.Context, companyID, userID int64) ([]Preference, error)
	UpsertPreference(ctx context.Context, p Preference) error
	ListRecipients(ctx context.Context, companyID int64, event string) ([]Recipient, error)

	InsertNotification(ctx context.Context, n Notification) (int64, error)
	ListNotifications(ctx context.Context, companyID, userID int64, limit, offset int) ([]Notification, error)
	MarkRead(ctx context.Context, companyID, userID, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) ListPreferences(ctx context.Context, companyID, userID int64) ([]Preference, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, company_id, user_id, event, email_enabled, in_app_enabled, updated_at
		FROM notification_preferences
		WHERE company_id = $1 AND user_id = $2
		ORDER BY event
	`, companyID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Preference
	for rows.Next() {
		var p Preference
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.UserID, &p.Event,
			&p.EmailEnabled, &p.InAppEnabled, &p.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *repository) UpsertPreference(ctx context.Context, p Preference) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_preferences (company_id, user_id, event, email_enabled,
			in_app_enabled, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (company_id, user_id, event)
		DO UPDATE SET email_enabled = EXCLUDED.email_enabled,
		              in_app_enabled = EXCLUDED.in_app_enabled,
		              updated_at = NOW()
	`, p.CompanyID, p.UserID, p.Event, p.EmailEnabled, p.InAppEnabled)
	return err
}

// ListRecipients returns the company's active users with their channel
// flags for the event. Users without a preference row get both
// channels enabled.
func (r *repository) ListRecipients(ctx context.Context, companyID int64, event string) ([]Recipient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.email,
		       COALESCE(p.email_enabled, true),
		       COALESCE(p.in_app_enabled, true)
		FROM users u
		LEFT JOIN notification_preferences p
		  ON p.user_id = u.id AND p.company_id = u.company_id AND p.event = $2
		WHERE u.company_id = $1 AND u.active = true
		ORDER BY u.id
	`, companyID, event)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Recipient
	for rows.Next() {
		var rec Recipient
		if err := rows.Scan(&rec.UserID, &rec.Email, &rec.EmailEnabled, &rec.InAppEnabled); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (r *repository) InsertNotification(ctx context.Context, n Notification) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (company_id, user_id, event, title, body, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id
	`, n.CompanyID, n.UserID, n.Event, n.Title, n.Body).Scan(&id)
	return id, err
}

func (r *repository) ListNotifications(ctx context.Context, companyID, userID int64, limit, offset int) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, company_id, user_id, event, title, body, read_at, created_at
		FROM notifications
		WHERE company_id = $1 AND user_id = $2
		ORDER BY id DESC
		LIMIT $3 OFFSET $4
	`, companyID, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Notification
	for rows.Next() {
		var n Notification
		var readAt pgtype.Timestamptz
		if err := rows.Scan(&n.ID, &n.CompanyID, &n.UserID, &n.Event, &n.Title, &n.Body,
			&readAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		if readAt.Valid {
			n.ReadAt = &readAt.Time
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *repository) MarkRead(ctx context.Context, companyID, userID, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET read_at = NOW()
		WHERE id = $1 AND company_id = $2 AND user_id = $3 AND read_at IS NULL
	`, id, companyID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
