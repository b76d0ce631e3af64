package exports

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
var ErrNotFound = errors.New("exports: not found")

// Repository provides PostgreSQL backed persistence for export jobs and
// scheduled reports, plus the read queries that feed the workbooks.
type Repository interface {
	CreateExport(ctx context.Context, e Export) (int64, error)
	GetExport(ctx context.Context, companyID, id int64) (*Export, error)
	GetExportByID(ctx context.Context, id int64) (*Export, error)
	ListExports(ctx context.Context, companyID int64, limit, offset int) ([]Export, error)
	ClaimExport(ctx context.Context, id int64) (bool, error)
	CompleteExport(ctx context.Context, id int64, filePath string, rowCount int) error
	FailExport(ctx context.Context, id int64, cause string) error

	CreateSchedule(ctx context.Context, s ScheduledReport) (int64, error)
	ListSchedules(ctx context.Context, companyID int64) ([]ScheduledReport, error)
	DeleteSchedule(ctx context.Context, companyID, id int64) error
	ListDueSchedules(ctx context.Context, now time.Time, limit int) ([]ScheduledReport, error)
	ClaimDueSchedule(ctx context.Context, id int64, now, nextRun time.Time) (bool, error)

	FetchDataset(ctx context.Context, companyID int64, reportType ReportType, from, to *time.Time) ([]string, [][]any, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const exportColumns = `id, company_id, report_type, status, date_from, date_to, file_path,
	row_count, error, requested_by, created_at, started_at, completed_at`

func scanExport(row pgx.Row) (*Export, error) {
	var e Export
	var dateFrom, dateTo, startedAt, completedAt pgtype.Timestamptz
	var filePath, errMsg pgtype.Text
	var rowCount pgtype.Int4
	err := row.Scan(&e.ID, &e.CompanyID, &e.ReportType, &e.Status, &dateFrom, &dateTo,
		&filePath, &rowCount, &errMsg, &e.RequestedBy, &e.CreatedAt, &startedAt, &completedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if dateFrom.Valid {
		e.DateFrom = &dateFrom.Time
	}
	if dateTo.Valid {
		e.DateTo = &dateTo.Time
	}
	if filePath.Valid {
		e.FilePath = &filePath.String
	}
	if rowCount.Valid {
		v := int(rowCount.Int32)
		e.RowCount = &v
	}
	if errMsg.Valid {
		e.Error = &errMsg.String
	}
	if startedAt.Valid {
		e.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		e.CompletedAt = &completedAt.Time
	}
	return &e, nil
}

func (r *repository) CreateExport(ctx context.Context, e Export) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO export_history (company_id, report_type, status, date_from, date_to,
			requested_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id
	`, e.CompanyID, string(e.ReportType), string(e.Status), e.DateFrom, e.DateTo,
		e.RequestedBy).Scan(&id)
	return id, err
}

func (r *repository) GetExport(ctx context.Context, companyID, id int64) (*Export, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM export_history WHERE id = $1 AND company_id = $2
	`, exportColumns), id, companyID)
	return scanExport(row)
}

func (r *repository) GetExportByID(ctx context.Context, id int64) (*Export, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM export_history WHERE id = $1
	`, exportColumns), id)
	return scanExport(row)
}

func (r *repository) ListExports(ctx context.Context, companyID int64, limit, offset int) ([]Export, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM export_history WHERE company_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`, exportColumns), companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Export
	for rows.Next() {
		e, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

// ClaimExport flips pending to running; only one worker wins.
func (r *repository) ClaimExport(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE export_history SET status = 'running', started_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repository) CompleteExport(ctx context.Context, id int64, filePath string, rowCount int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE export_history
		SET status = 'completed', file_path = $1, row_count = $2, completed_at = NOW()
		WHERE id = $3
	`, filePath, rowCount, id)
	return err
}

func (r *repository) FailExport(ctx context.Context, id int64, cause string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE export_history SET status = 'failed', error = $1, completed_at = NOW()
		WHERE id = $2
	`, cause, id)
	return err
}

func (r *repository) CreateSchedule(ctx context.Context, s ScheduledReport) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO scheduled_reports (company_id, report_type, frequency, next_run_at,
			active, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id
	`, s.CompanyID, string(s.ReportType), string(s.Frequency), s.NextRunAt,
		s.Active, s.CreatedBy).Scan(&id)
	return id, err
}

func (r *repository) ListSchedules(ctx context.Context, companyID int64) ([]ScheduledReport, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, company_id, report_type, frequency, next_run_at, last_run_at, active,
		       created_by, created_at
		FROM scheduled_reports WHERE company_id = $1
		ORDER BY id
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ScheduledReport
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func scanSchedule(row pgx.Row) (*ScheduledReport, error) {
	var s ScheduledReport
	var lastRunAt pgtype.Timestamptz
	err := row.Scan(&s.ID, &s.CompanyID, &s.ReportType, &s.Frequency, &s.NextRunAt,
		&lastRunAt, &s.Active, &s.CreatedBy, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if lastRunAt.Valid {
		s.LastRunAt = &lastRunAt.Time
	}
	return &s, nil
}

func (r *repository) DeleteSchedule(ctx context.Context, companyID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM scheduled_reports WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListDueSchedules(ctx context.Context, now time.Time, limit int) ([]ScheduledReport, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, company_id, report_type, frequency, next_run_at, last_run_at, active,
		       created_by, created_at
		FROM scheduled_reports
		WHERE active = true AND next_run_at <= $1
		ORDER BY next_run_at
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ScheduledReport
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

// ClaimDueSchedule advances next_run_at only if the row is still due,
// so concurrent sweeps act on each due report exactly once.
func (r *repository) ClaimDueSchedule(ctx context.Context, id int64, now, nextRun time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE scheduled_reports
		SET next_run_at = $1, last_run_at = $2
		WHERE id = $3 AND active = true AND next_run_at <= $2
	`, nextRun, now, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// FetchDataset runs the read query feeding one report type.
func (r *repository) FetchDataset(ctx context.Context, companyID int64, reportType ReportType, from, to *time.Time) ([]string, [][]any, error) {
	var query string
	var headers []string

	switch reportType {
	case ReportLeads:
		headers = []string{"ID", "Name", "Phone", "Email", "Status", "Source", "Created At"}
		query = `SELECT id, name, phone, COALESCE(email, ''), status, COALESCE(source, ''), created_at
			FROM leads
			WHERE company_id = $1 AND deleted_at IS NULL
			  AND ($2::timestamptz IS NULL OR created_at >= $2)
			  AND ($3::timestamptz IS NULL OR created_at <= $3)
			ORDER BY id`
	case ReportQuotations:
		headers = []string{"ID", "Number", "Status", "Issue Date", "Subtotal", "Discount", "Tax", "Total"}
		query = `SELECT id, doc_number, status, issue_date, subtotal, discount_amount, tax_amount, total
			FROM quotations
			WHERE company_id = $1
			  AND ($2::timestamptz IS NULL OR issue_date >= $2)
			  AND ($3::timestamptz IS NULL OR issue_date <= $3)
			ORDER BY id`
	case ReportInvoices:
		headers = []string{"ID", "Number", "Status", "Issue Date", "Due Date", "Total", "Paid", "Due"}
		query = `SELECT id, doc_number, status, issue_date, due_date, total, amount_paid, amount_due
			FROM invoices
			WHERE company_id = $1
			  AND ($2::timestamptz IS NULL OR issue_date >= $2)
			  AND ($3::timestamptz IS NULL OR issue_date <= $3)
			ORDER BY id`
	case ReportPayments:
		headers = []string{"ID", "Receipt", "Invoice", "Method", "Amount", "Status", "Received At"}
		query = `SELECT p.id, p.receipt_number, i.doc_number, p.method, p.amount, p.status, p.received_at
			FROM invoice_payments p
			JOIN invoices i ON i.id = p.invoice_id
			WHERE p.company_id = $1
			  AND ($2::timestamptz IS NULL OR p.received_at >= $2)
			  AND ($3::timestamptz IS NULL OR p.received_at <= $3)
			ORDER BY p.id`
	case ReportAging:
		headers = []string{"Invoice", "Customer", "Due Date", "Amount Due", "Days Overdue"}
		query = `SELECT doc_number, COALESCE(customer_id, 0), due_date, amount_due,
			GREATEST(0, EXTRACT(DAY FROM NOW() - due_date))::int
			FROM invoices
			WHERE company_id = $1 AND status IN ('SENT', 'PARTIAL', 'OVERDUE') AND amount_due > 0
			  AND ($2::timestamptz IS NULL OR due_date >= $2)
			  AND ($3::timestamptz IS NULL OR due_date <= $3)
			ORDER BY due_date`
	default:
		return nil, nil, fmt.Errorf("exports: unknown report type %q", reportType)
	}

	rows, err := r.pool.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var data [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, nil, err
		}
		data = append(data, values)
	}
	return headers, data, rows.Err()
}
