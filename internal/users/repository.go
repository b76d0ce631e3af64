package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates resource not found.
var ErrNotFound = errors.New("users: not found")

// ErrEmailTaken indicates the email is already registered.
var ErrEmailTaken = errors.New("users: email already registered")

// Repository provides PostgreSQL backed persistence for user accounts.
type Repository interface {
	Create(ctx context.Context, u User, passwordHash string) (int64, error)
	Get(ctx context.Context, companyID, id int64) (*User, error)
	List(ctx context.Context, companyID int64) ([]User, error)
	Update(ctx context.Context, u User) error
	SetPassword(ctx context.Context, companyID, id int64, passwordHash string) error
	SoftDelete(ctx context.Context, companyID, id int64) error
	EmailExists(ctx context.Context, email string) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const userColumns = `id, company_id, email, name, role, active, created_at, updated_at, deleted_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var deletedAt pgtype.Timestamptz
	err := row.Scan(&u.ID, &u.CompanyID, &u.Email, &u.Name, &u.Role, &u.Active,
		&u.CreatedAt, &u.UpdatedAt, &deletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if deletedAt.Valid {
		u.DeletedAt = &deletedAt.Time
	}
	return &u, nil
}

func (r *repository) Create(ctx context.Context, u User, passwordHash string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (company_id, email, name, role, password_hash, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id
	`, u.CompanyID, u.Email, u.Name, u.Role, passwordHash, u.Active).Scan(&id)
	return id, err
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
	`, id, companyID)
	return scanUser(row)
}

func (r *repository) List(ctx context.Context, companyID int64) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE company_id = $1 AND deleted_at IS NULL
		ORDER BY name
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *u)
	}
	return result, rows.Err()
}

func (r *repository) Update(ctx context.Context, u User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET name = $1, role = $2, active = $3, updated_at = NOW()
		WHERE id = $4 AND company_id = $5 AND deleted_at IS NULL
	`, u.Name, u.Role, u.Active, u.ID, u.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SetPassword(ctx context.Context, companyID, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = NOW()
		WHERE id = $2 AND company_id = $3 AND deleted_at IS NULL
	`, passwordHash, id, companyID)
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
		UPDATE users SET deleted_at = NOW(), active = false, updated_at = NOW()
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

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}
