package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quotient-crm/quotient/internal/numbering"
	"github.com/quotient-crm/quotient/internal/quotations"
	"github.com/quotient-crm/quotient/internal/shared"
)

var (
	// ErrInvalidTransition indicates an illegal status move.
	ErrInvalidTransition = errors.New("invoices: invalid status transition")
	// ErrNotEditable indicates mutation of a non-DRAFT invoice.
	ErrNotEditable = errors.New("invoices: only DRAFT invoices can be edited")
	// ErrPaymentsClosed indicates a payment against an invoice that does
	// not accept payments in its current status.
	ErrPaymentsClosed = errors.New("invoices: invoice does not accept payments")
)

// defaultPaymentTermDays applies when a converted quotation carries no
// explicit due date.
const defaultPaymentTermDays = 30

// NumberGenerator issues document and receipt numbers.
type NumberGenerator interface {
	GenerateNext(ctx context.Context, companyID int64, docType numbering.DocType) (string, error)
}

// Notifier receives invoice lifecycle events.
type Notifier interface {
	InvoiceSent(ctx context.Context, inv Invoice)
	InvoicePaid(ctx context.Context, inv Invoice)
	PaymentRecorded(ctx context.Context, inv Invoice, p Payment)
}

// Auditor records who did what.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles invoice business logic. The invoice balance is always
// re-derived from payment records; nothing writes amount_paid directly.
type Service struct {
	repo     Repository
	numbers  NumberGenerator
	notifier Notifier
	auditor  Auditor
	now      func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, numbers NumberGenerator, notifier Notifier, auditor Auditor) *Service {
	return &Service{
		repo:     repo,
		numbers:  numbers,
		notifier: notifier,
		auditor:  auditor,
		now:      time.Now,
	}
}

// Create stores a new DRAFT invoice with its items.
func (s *Service) Create(ctx context.Context, actor shared.Actor, req CreateInvoiceRequest) (*Invoice, error) {
	if req.DueDate.Before(req.IssueDate) {
		return nil, errors.New("invoices: due_date must be after issue_date")
	}

	docNumber, err := s.numbers.GenerateNext(ctx, actor.CompanyID, numbering.DocTypeInvoice)
	if err != nil {
		return nil, fmt.Errorf("generate doc number: %w", err)
	}

	inv := Invoice{
		DocNumber:   docNumber,
		CompanyID:   actor.CompanyID,
		CustomerID:  req.CustomerID,
		LeadID:      req.LeadID,
		Status:      StatusDraft,
		IssueDate:   req.IssueDate,
		DueDate:     req.DueDate,
		Currency:    req.Currency,
		DiscountPct: req.DiscountPct,
		TaxPct:      req.TaxPct,
		Notes:       req.Notes,
		CreatedBy:   actor.UserID,
	}

	id, err := s.repo.Create(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	for i, ir := range req.Items {
		item := Item{
			InvoiceID:     id,
			PricingItemID: ir.PricingItemID,
			Description:   ir.Description,
			UOM:           ir.UOM,
			Quantity:      ir.Quantity,
			UnitPrice:     ir.UnitPrice,
			LineTotal:     quotations.LineTotal(ir.Quantity, ir.UnitPrice),
			SortOrder:     ir.SortOrder,
		}
		if item.SortOrder == 0 {
			item.SortOrder = i + 1
		}
		if _, err := s.repo.InsertItem(ctx, item); err != nil {
			return nil, fmt.Errorf("insert item: %w", err)
		}
	}

	if err := s.recomputeTotals(ctx, id, inv.DiscountPct, inv.TaxPct); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "invoice.created", id, map[string]any{"doc_number": docNumber})
	return s.repo.Get(ctx, actor.CompanyID, id)
}

// CreateFromQuotation copies an accepted quotation into a new DRAFT
// invoice carrying the same lines, percentages and currency.
func (s *Service) CreateFromQuotation(ctx context.Context, actor shared.Actor, q quotations.Quotation) (int64, error) {
	docNumber, err := s.numbers.GenerateNext(ctx, actor.CompanyID, numbering.DocTypeInvoice)
	if err != nil {
		return 0, fmt.Errorf("generate doc number: %w", err)
	}

	issueDate := s.now()
	inv := Invoice{
		DocNumber:      docNumber,
		CompanyID:      q.CompanyID,
		QuotationID:    &q.ID,
		LeadID:         q.LeadID,
		Status:         StatusDraft,
		IssueDate:      issueDate,
		DueDate:        issueDate.AddDate(0, 0, defaultPaymentTermDays),
		Currency:       q.Currency,
		DiscountPct:    q.DiscountPct,
		TaxPct:         q.TaxPct,
		Subtotal:       q.Subtotal,
		DiscountAmount: q.DiscountAmount,
		TaxAmount:      q.TaxAmount,
		Total:          q.Total,
		AmountDue:      q.Total,
		Notes:          q.Notes,
		CreatedBy:      actor.UserID,
	}

	id, err := s.repo.Create(ctx, inv)
	if err != nil {
		return 0, fmt.Errorf("create invoice: %w", err)
	}

	for _, qi := range q.Items {
		item := Item{
			InvoiceID:     id,
			PricingItemID: qi.PricingItemID,
			Description:   qi.Description,
			UOM:           qi.UOM,
			Quantity:      qi.Quantity,
			UnitPrice:     qi.UnitPrice,
			LineTotal:     qi.LineTotal,
			SortOrder:     qi.SortOrder,
		}
		if _, err := s.repo.InsertItem(ctx, item); err != nil {
			return 0, fmt.Errorf("copy item: %w", err)
		}
	}

	s.audit(ctx, actor, "invoice.created_from_quotation", id, map[string]any{
		"doc_number":   docNumber,
		"quotation_id": q.ID,
	})
	return id, nil
}

func (s *Service) recomputeTotals(ctx context.Context, invoiceID int64, discountPct, taxPct float64) error {
	items, err := s.repo.ListItems(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	lines := make([]quotations.Item, len(items))
	for i, item := range items {
		lines[i] = quotations.Item{Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	}
	totals := quotations.CalculateTotals(lines, discountPct, taxPct)
	if err := s.repo.UpdateTotals(ctx, invoiceID, totals); err != nil {
		return fmt.Errorf("update totals: %w", err)
	}
	return nil
}

// Update edits header fields of a DRAFT invoice.
func (s *Service) Update(ctx context.Context, actor shared.Actor, id int64, req UpdateInvoiceRequest) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if !inv.Editable() {
		return nil, ErrNotEditable
	}

	if req.CustomerID != nil {
		inv.CustomerID = req.CustomerID
	}
	if req.IssueDate != nil {
		inv.IssueDate = *req.IssueDate
	}
	if req.DueDate != nil {
		inv.DueDate = *req.DueDate
	}
	if req.DiscountPct != nil {
		inv.DiscountPct = *req.DiscountPct
	}
	if req.TaxPct != nil {
		inv.TaxPct = *req.TaxPct
	}
	if req.Notes != nil {
		inv.Notes = req.Notes
	}

	if err := s.repo.UpdateHeader(ctx, *inv); err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}
	if req.DiscountPct != nil || req.TaxPct != nil {
		if err := s.recomputeTotals(ctx, id, inv.DiscountPct, inv.TaxPct); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, actor.CompanyID, id)
}

// AddItem appends a line to a DRAFT invoice and recomputes totals.
func (s *Service) AddItem(ctx context.Context, actor shared.Actor, invoiceID int64, req CreateItemRequest) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, actor.CompanyID, invoiceID)
	if err != nil {
		return nil, err
	}
	if !inv.Editable() {
		return nil, ErrNotEditable
	}

	item := Item{
		InvoiceID:     invoiceID,
		PricingItemID: req.PricingItemID,
		Description:   req.Description,
		UOM:           req.UOM,
		Quantity:      req.Quantity,
		UnitPrice:     req.UnitPrice,
		LineTotal:     quotations.LineTotal(req.Quantity, req.UnitPrice),
		SortOrder:     req.SortOrder,
	}
	if item.SortOrder == 0 {
		item.SortOrder = len(inv.Items) + 1
	}
	if _, err := s.repo.InsertItem(ctx, item); err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	if err := s.recomputeTotals(ctx, invoiceID, inv.DiscountPct, inv.TaxPct); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, actor.CompanyID, invoiceID)
}

// UpdateItem edits a line of a DRAFT invoice and recomputes totals.
func (s *Service) UpdateItem(ctx context.Context, actor shared.Actor, invoiceID, itemID int64, req UpdateItemRequest) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, actor.CompanyID, invoiceID)
	if err != nil {
		return nil, err
	}
	if !inv.Editable() {
		return nil, ErrNotEditable
	}

	var target *Item
	for i := range inv.Items {
		if inv.Items[i].ID == itemID {
			target = &inv.Items[i]
			break
		}
	}
	if target == nil {
		return nil, ErrNotFound
	}

	if req.Description != nil {
		target.Description = *req.Description
	}
	if req.UOM != nil {
		target.UOM = *req.UOM
	}
	if req.Quantity != nil {
		target.Quantity = *req.Quantity
	}
	if req.UnitPrice != nil {
		target.UnitPrice = *req.UnitPrice
	}
	if req.SortOrder != nil {
		target.SortOrder = *req.SortOrder
	}
	target.LineTotal = quotations.LineTotal(target.Quantity, target.UnitPrice)

	if err := s.repo.UpdateItem(ctx, *target); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	if err := s.recomputeTotals(ctx, invoiceID, inv.DiscountPct, inv.TaxPct); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, actor.CompanyID, invoiceID)
}

// DeleteItem removes a line from a DRAFT invoice and recomputes totals.
func (s *Service) DeleteItem(ctx context.Context, actor shared.Actor, invoiceID, itemID int64) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, actor.CompanyID, invoiceID)
	if err != nil {
		return nil, err
	}
	if !inv.Editable() {
		return nil, ErrNotEditable
	}
	if err := s.repo.DeleteItem(ctx, invoiceID, itemID); err != nil {
		return nil, err
	}
	if err := s.recomputeTotals(ctx, invoiceID, inv.DiscountPct, inv.TaxPct); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, actor.CompanyID, invoiceID)
}

// Get returns one invoice. Reconcile on load: a SENT or PARTIAL invoice
// past its due date is persisted as OVERDUE before being returned.
func (s *Service) Get(ctx context.Context, companyID, id int64) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return s.reconcileOverdue(ctx, inv)
}

func (s *Service) reconcileOverdue(ctx context.Context, inv *Invoice) (*Invoice, error) {
	if (inv.Status == StatusSent || inv.Status == StatusPartial) && s.now().After(inv.DueDate) {
		inv.Status = StatusOverdue
		if err := s.repo.UpdateStatus(ctx, *inv); err != nil {
			return nil, fmt.Errorf("reconcile overdue: %w", err)
		}
	}
	return inv, nil
}

// MarkAsSent transitions DRAFT -> SENT. The invoice is locked for item
// edits from here on.
func (s *Service) MarkAsSent(ctx context.Context, actor shared.Actor, id int64) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(inv.Status, StatusSent) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inv.Status, StatusSent)
	}
	now := s.now()
	inv.Status = StatusSent
	inv.SentAt = &now
	if err := s.repo.UpdateStatus(ctx, *inv); err != nil {
		return nil, fmt.Errorf("mark sent: %w", err)
	}
	s.audit(ctx, actor, "invoice.sent", id, nil)
	s.notifier.InvoiceSent(ctx, *inv)
	return s.repo.Get(ctx, actor.CompanyID, id)
}

// Cancel voids an invoice that has not been paid.
func (s *Service) Cancel(ctx context.Context, actor shared.Actor, id int64) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(inv.Status, StatusCancelled) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inv.Status, StatusCancelled)
	}
	now := s.now()
	from := inv.Status
	inv.Status = StatusCancelled
	inv.CancelledAt = &now
	if err := s.repo.UpdateStatus(ctx, *inv); err != nil {
		return nil, fmt.Errorf("cancel invoice: %w", err)
	}
	s.audit(ctx, actor, "invoice.cancelled", id, map[string]any{"from": from})
	return s.repo.Get(ctx, actor.CompanyID, id)
}

// RecordPayment stores a payment record with its own receipt number and
// reconciles the invoice balance.
func (s *Service) RecordPayment(ctx context.Context, actor shared.Actor, invoiceID int64, req RecordPaymentRequest) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, actor.CompanyID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv, err = s.reconcileOverdue(ctx, inv); err != nil {
		return nil, err
	}
	if !inv.AcceptsPayments() {
		return nil, fmt.Errorf("%w: status %s", ErrPaymentsClosed, inv.Status)
	}

	receipt, err := s.numbers.GenerateNext(ctx, actor.CompanyID, numbering.DocTypeReceipt)
	if err != nil {
		return nil, fmt.Errorf("generate receipt number: %w", err)
	}

	now := s.now()
	receivedAt := now
	if req.ReceivedAt != nil {
		receivedAt = *req.ReceivedAt
	}
	p := Payment{
		InvoiceID:     invoiceID,
		CompanyID:     actor.CompanyID,
		ReceiptNumber: receipt,
		Method:        req.Method,
		Reference:     req.Reference,
		Amount:        req.Amount,
		Status:        PaymentPending,
		ReceivedAt:    receivedAt,
		Notes:         req.Notes,
		CreatedBy:     actor.UserID,
	}
	if req.Cleared {
		p.Status = PaymentCleared
		p.ClearedAt = &now
	}

	paymentID, err := s.repo.InsertPayment(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	p.ID = paymentID

	inv, err = s.reconcile(ctx, actor, invoiceID)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, actor, "invoice.payment_recorded", invoiceID, map[string]any{
		"payment_id": paymentID,
		"receipt":    receipt,
		"amount":     req.Amount,
		"status":     p.Status,
	})
	s.notifier.PaymentRecorded(ctx, *inv, p)
	if inv.Status == StatusPaid {
		s.notifier.InvoicePaid(ctx, *inv)
	}
	return inv, nil
}

// UpdatePaymentStatus moves a payment through its clearing lifecycle and
// reconciles the invoice. Bouncing or cancelling a cleared payment can
// move a PAID invoice back only through reconciliation of the remaining
// records.
func (s *Service) UpdatePaymentStatus(ctx context.Context, actor shared.Actor, invoiceID, paymentID int64, to PaymentStatus) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, actor.CompanyID, invoiceID)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetPayment(ctx, invoiceID, paymentID)
	if err != nil {
		return nil, err
	}
	if !CanTransitionPayment(p.Status, to) {
		return nil, fmt.Errorf("%w: payment %s -> %s", ErrInvalidTransition, p.Status, to)
	}

	from := p.Status
	p.Status = to
	if to == PaymentCleared {
		now := s.now()
		p.ClearedAt = &now
	}
	if err := s.repo.UpdatePaymentStatus(ctx, *p); err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}

	// A bounced or cancelled payment reopens a PAID invoice before
	// rebalancing, releasing the item lock it acquired on settlement.
	if inv.Status == StatusPaid && (to == PaymentBounced || to == PaymentCancelled) {
		inv.Status = StatusPartial
		inv.PaidAt = nil
		if err := s.repo.UpdateStatus(ctx, *inv); err != nil {
			return nil, fmt.Errorf("reopen invoice: %w", err)
		}
		if err := s.repo.LockItems(ctx, invoiceID, false); err != nil {
			return nil, fmt.Errorf("unlock items: %w", err)
		}
	}

	inv, err = s.reconcile(ctx, actor, invoiceID)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, actor, "invoice.payment_status_changed", invoiceID, map[string]any{
		"payment_id": paymentID,
		"from":       from,
		"to":         to,
	})
	if inv.Status == StatusPaid {
		s.notifier.InvoicePaid(ctx, *inv)
	}
	return inv, nil
}

// reconcile re-derives amount_paid, amount_due and the settlement status
// from the stored payment records.
func (s *Service) reconcile(ctx context.Context, actor shared.Actor, invoiceID int64) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, actor.CompanyID, invoiceID)
	if err != nil {
		return nil, err
	}

	paid := ClearedAmount(inv.Payments)
	next := DeriveStatus(inv.Status, paid, inv.Total)
	if next == StatusSent && s.now().After(inv.DueDate) {
		next = StatusOverdue
	}
	if next != inv.Status && !CanTransition(inv.Status, next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inv.Status, next)
	}

	inv.AmountPaid = paid
	inv.AmountDue = AmountDue(inv.Total, paid)
	if next == StatusPaid && inv.Status != StatusPaid {
		now := s.now()
		inv.PaidAt = &now
		if err := s.repo.LockItems(ctx, invoiceID, true); err != nil {
			return nil, fmt.Errorf("lock items: %w", err)
		}
	}
	if paid == 0 && inv.Status == StatusPartial {
		inv.PaidAt = nil
	}
	inv.Status = next

	if err := s.repo.UpdateSettlement(ctx, *inv); err != nil {
		return nil, fmt.Errorf("update settlement: %w", err)
	}
	return s.repo.Get(ctx, actor.CompanyID, invoiceID)
}

// List returns a page of invoices.
func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	req.Limit, req.Offset = shared.ClampPage(req.Limit, req.Offset)
	return s.repo.List(ctx, req)
}

// Aging builds a receivables aging report over outstanding invoices.
func (s *Service) Aging(ctx context.Context, companyID int64) (*AgingSummary, error) {
	outstanding, err := s.repo.ListOutstanding(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list outstanding: %w", err)
	}
	summary := CalculateAging(outstanding, s.now())
	return &summary, nil
}

func (s *Service) audit(ctx context.Context, actor shared.Actor, action string, invoiceID int64, meta map[string]any) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Record(ctx, shared.AuditLog{
		CompanyID: actor.CompanyID,
		ActorID:   actor.UserID,
		Action:    action,
		Scope:     shared.Scope{Type: shared.ScopeInvoice, ID: invoiceID},
		Meta:      meta,
	})
}
