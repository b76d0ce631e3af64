package invoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotient-crm/quotient/internal/quotations"
)

// ErrNotFound indicates resource not found.
var ErrNotFound = errors.New("invoices: not found")

// Repository provides PostgreSQL backed persistence for invoices.
type Repository interface {
	Get(ctx context.Context, companyID, id int64) (*Invoice, error)
	Create(ctx context.Context, inv Invoice) (int64, error)
	UpdateHeader(ctx context.Context, inv Invoice) error
	UpdateTotals(ctx context.Context, id int64, totals quotations.Totals) error
	UpdateSettlement(ctx context.Context, inv Invoice) error
	UpdateStatus(ctx context.Context, inv Invoice) error
	List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error)
	ListOutstanding(ctx context.Context, companyID int64) ([]Invoice, error)

	InsertItem(ctx context.Context, item Item) (int64, error)
	UpdateItem(ctx context.Context, item Item) error
	DeleteItem(ctx context.Context, invoiceID, itemID int64) error
	ListItems(ctx context.Context, invoiceID int64) ([]Item, error)
	LockItems(ctx context.Context, invoiceID int64, locked bool) error

	InsertPayment(ctx context.Context, p Payment) (int64, error)
	GetPayment(ctx context.Context, invoiceID, paymentID int64) (*Payment, error)
	UpdatePaymentStatus(ctx context.Context, p Payment) error
	ListPayments(ctx context.Context, invoiceID int64) ([]Payment, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const invoiceColumns = `id, doc_number, company_id, quotation_id, lead_id, customer_id, status,
	issue_date, due_date, currency, discount_percentage, tax_percentage, subtotal,
	discount_amount, tax_amount, total, amount_paid, amount_due, notes, sent_at, paid_at,
	cancelled_at, created_by, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var quotationID, leadID, customerID pgtype.Int8
	var notes pgtype.Text
	var sentAt, paidAt, cancelledAt pgtype.Timestamptz
	err := row.Scan(&inv.ID, &inv.DocNumber, &inv.CompanyID, &quotationID, &leadID, &customerID,
		&inv.Status, &inv.IssueDate, &inv.DueDate, &inv.Currency, &inv.DiscountPct, &inv.TaxPct,
		&inv.Subtotal, &inv.DiscountAmount, &inv.TaxAmount, &inv.Total, &inv.AmountPaid,
		&inv.AmountDue, &notes, &sentAt, &paidAt, &cancelledAt,
		&inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if quotationID.Valid {
		inv.QuotationID = &quotationID.Int64
	}
	if leadID.Valid {
		inv.LeadID = &leadID.Int64
	}
	if customerID.Valid {
		inv.CustomerID = &customerID.Int64
	}
	if notes.Valid {
		inv.Notes = &notes.String
	}
	if sentAt.Valid {
		inv.SentAt = &sentAt.Time
	}
	if paidAt.Valid {
		inv.PaidAt = &paidAt.Time
	}
	if cancelledAt.Valid {
		inv.CancelledAt = &cancelledAt.Time
	}
	return &inv, nil
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM invoices WHERE id = $1 AND company_id = $2
	`, invoiceColumns), id, companyID)
	inv, err := scanInvoice(row)
	if err != nil {
		return nil, err
	}

	items, err := r.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Items = items

	payments, err := r.ListPayments(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Payments = payments
	return inv, nil
}

func (r *repository) Create(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO invoices (doc_number, company_id, quotation_id, lead_id, customer_id, status,
			issue_date, due_date, currency, discount_percentage, tax_percentage, subtotal,
			discount_amount, tax_amount, total, amount_paid, amount_due, notes, created_by,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, NOW(), NOW())
		RETURNING id
	`, inv.DocNumber, inv.CompanyID, inv.QuotationID, inv.LeadID, inv.CustomerID,
		string(inv.Status), inv.IssueDate, inv.DueDate, inv.Currency, inv.DiscountPct,
		inv.TaxPct, inv.Subtotal, inv.DiscountAmount, inv.TaxAmount, inv.Total,
		inv.AmountPaid, inv.AmountDue, inv.Notes, inv.CreatedBy).Scan(&id)
	return id, err
}

func (r *repository) UpdateHeader(ctx context.Context, inv Invoice) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices
		SET customer_id = $1, issue_date = $2, due_date = $3, discount_percentage = $4,
		    tax_percentage = $5, notes = $6, updated_at = NOW()
		WHERE id = $7 AND company_id = $8
	`, inv.CustomerID, inv.IssueDate, inv.DueDate, inv.DiscountPct, inv.TaxPct,
		inv.Notes, inv.ID, inv.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) UpdateTotals(ctx context.Context, id int64, totals quotations.Totals) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE invoices
		SET subtotal = $1, discount_amount = $2, tax_amount = $3, total = $4,
		    amount_due = GREATEST($4 - amount_paid, 0), updated_at = NOW()
		WHERE id = $5
	`, totals.Subtotal, totals.DiscountAmount, totals.TaxAmount, totals.Total, id)
	return err
}

func (r *repository) UpdateSettlement(ctx context.Context, inv Invoice) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices
		SET status = $1, amount_paid = $2, amount_due = $3, paid_at = $4, updated_at = NOW()
		WHERE id = $5 AND company_id = $6
	`, string(inv.Status), inv.AmountPaid, inv.AmountDue, inv.PaidAt, inv.ID, inv.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, inv Invoice) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices
		SET status = $1, sent_at = $2, paid_at = $3, cancelled_at = $4, updated_at = NOW()
		WHERE id = $5 AND company_id = $6
	`, string(inv.Status), inv.SentAt, inv.PaidAt, inv.CancelledAt, inv.ID, inv.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	conditions := []string{"company_id = $1"}
	args := []any{req.CompanyID}
	argPos := 2

	if req.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *req.CustomerID)
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
		fmt.Sprintf("SELECT COUNT(*) FROM invoices %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM invoices %s
		ORDER BY issue_date DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, invoiceColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *inv)
	}
	return result, total, rows.Err()
}

func (r *repository) ListOutstanding(ctx context.Context, companyID int64) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM invoices
		WHERE company_id = $1 AND status IN ('SENT', 'PARTIAL', 'OVERDUE') AND amount_due > 0
		ORDER BY due_date, id
	`, invoiceColumns), companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *inv)
	}
	return result, rows.Err()
}

func (r *repository) InsertItem(ctx context.Context, item Item) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO invoice_items (invoice_id, pricing_item_id, description, uom,
			quantity, unit_price, line_total, sort_order, is_locked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, item.InvoiceID, item.PricingItemID, item.Description, item.UOM,
		item.Quantity, item.UnitPrice, item.LineTotal, item.SortOrder, item.IsLocked).Scan(&id)
	return id, err
}

func (r *repository) UpdateItem(ctx context.Context, item Item) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoice_items
		SET description = $1, uom = $2, quantity = $3, unit_price = $4,
		    line_total = $5, sort_order = $6
		WHERE id = $7 AND invoice_id = $8
	`, item.Description, item.UOM, item.Quantity, item.UnitPrice,
		item.LineTotal, item.SortOrder, item.ID, item.InvoiceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) DeleteItem(ctx context.Context, invoiceID, itemID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM invoice_items WHERE id = $1 AND invoice_id = $2`, itemID, invoiceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListItems(ctx context.Context, invoiceID int64) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, pricing_item_id, description, uom, quantity,
		       unit_price, line_total, sort_order, is_locked
		FROM invoice_items WHERE invoice_id = $1
		ORDER BY sort_order, id
	`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		var pricingItemID pgtype.Int8
		if err := rows.Scan(&item.ID, &item.InvoiceID, &pricingItemID, &item.Description,
			&item.UOM, &item.Quantity, &item.UnitPrice, &item.LineTotal, &item.SortOrder,
			&item.IsLocked); err != nil {
			return nil, err
		}
		if pricingItemID.Valid {
			item.PricingItemID = &pricingItemID.Int64
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) LockItems(ctx context.Context, invoiceID int64, locked bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE invoice_items SET is_locked = $1 WHERE invoice_id = $2`, locked, invoiceID)
	return err
}

func (r *repository) InsertPayment(ctx context.Context, p Payment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO invoice_payments (invoice_id, company_id, receipt_number, method, reference,
			amount, status, received_at, cleared_at, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		RETURNING id
	`, p.InvoiceID, p.CompanyID, p.ReceiptNumber, p.Method, p.Reference,
		p.Amount, string(p.Status), p.ReceivedAt, p.ClearedAt, p.Notes, p.CreatedBy).Scan(&id)
	return id, err
}

func (r *repository) GetPayment(ctx context.Context, invoiceID, paymentID int64) (*Payment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, invoice_id, company_id, receipt_number, method, reference, amount, status,
		       received_at, cleared_at, notes, created_by, created_at
		FROM invoice_payments WHERE id = $1 AND invoice_id = $2
	`, paymentID, invoiceID)
	return scanPayment(row)
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	var reference, notes pgtype.Text
	var clearedAt pgtype.Timestamptz
	err := row.Scan(&p.ID, &p.InvoiceID, &p.CompanyID, &p.ReceiptNumber, &p.Method,
		&reference, &p.Amount, &p.Status, &p.ReceivedAt, &clearedAt, &notes,
		&p.CreatedBy, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if reference.Valid {
		p.Reference = &reference.String
	}
	if notes.Valid {
		p.Notes = &notes.String
	}
	if clearedAt.Valid {
		p.ClearedAt = &clearedAt.Time
	}
	return &p, nil
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, p Payment) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoice_payments
		SET status = $1, cleared_at = $2
		WHERE id = $3 AND invoice_id = $4
	`, string(p.Status), p.ClearedAt, p.ID, p.InvoiceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListPayments(ctx context.Context, invoiceID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, company_id, receipt_number, method, reference, amount, status,
		       received_at, cleared_at, notes, created_by, created_at
		FROM invoice_payments WHERE invoice_id = $1
		ORDER BY received_at, id
	`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}
