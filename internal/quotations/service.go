package quotations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quotient-crm/quotient/internal/numbering"
	"github.com/quotient-crm/quotient/internal/shared"
)

var (
	// ErrInvalidTransition indicates an illegal status move. Callers must
	// check for it; transitions never panic.
	ErrInvalidTransition = errors.New("quotations: invalid status transition")
	// ErrNotEditable indicates item mutation on a non-DRAFT document.
	ErrNotEditable = errors.New("quotations: only DRAFT quotations can be edited")
)

// NumberGenerator issues document numbers.
type NumberGenerator interface {
	GenerateNext(ctx context.Context, companyID int64, docType numbering.DocType) (string, error)
}

// LeadTracker reflects quotation activity back onto the linked lead.
// Implementations tolerate leads that already advanced past QUOTED.
type LeadTracker interface {
	RecordQuote(ctx context.Context, actor shared.Actor, leadID int64) error
	MarkQuoted(ctx context.Context, actor shared.Actor, leadID int64) error
}

// Notifier receives quotation lifecycle events.
type Notifier interface {
	QuotationSent(ctx context.Context, q Quotation)
	QuotationAccepted(ctx context.Context, q Quotation)
	QuotationRejected(ctx context.Context, q Quotation)
}

// Converter turns an accepted quotation into an invoice.
type Converter interface {
	CreateFromQuotation(ctx context.Context, actor shared.Actor, q Quotation) (int64, error)
}

// Auditor records who did what.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles quotation business logic. Totals are recomputed here,
// explicitly, after every item write; nothing recomputes implicitly.
type Service struct {
	repo      Repository
	numbers   NumberGenerator
	leads     LeadTracker
	notifier  Notifier
	converter Converter
	auditor   Auditor
	now       func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, numbers NumberGenerator, leads LeadTracker, notifier Notifier, auditor Auditor) *Service {
	return &Service{
		repo:     repo,
		numbers:  numbers,
		leads:    leads,
		notifier: notifier,
		auditor:  auditor,
		now:      time.Now,
	}
}

// SetConverter wires the invoice converter after construction, breaking
// the package dependency cycle between quotations and invoices.
func (s *Service) SetConverter(c Converter) {
	s.converter = c
}

// Create stores a new DRAFT quotation with its sections and items.
func (s *Service) Create(ctx context.Context, actor shared.Actor, req CreateQuotationRequest) (*Quotation, error) {
	if req.ValidUntil.Before(req.IssueDate) {
		return nil, errors.New("quotations: valid_until must be after issue_date")
	}

	docNumber, err := s.numbers.GenerateNext(ctx, actor.CompanyID, numbering.DocTypeQuotation)
	if err != nil {
		return nil, fmt.Errorf("generate doc number: %w", err)
	}

	q := Quotation{
		DocNumber:   docNumber,
		CompanyID:   actor.CompanyID,
		LeadID:      req.LeadID,
		SegmentID:   req.SegmentID,
		Status:      StatusDraft,
		IssueDate:   req.IssueDate,
		ValidUntil:  req.ValidUntil,
		Currency:    req.Currency,
		DiscountPct: req.DiscountPct,
		TaxPct:      req.TaxPct,
		Notes:       req.Notes,
		CreatedBy:   actor.UserID,
	}

	id, err := s.repo.Create(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("create quotation: %w", err)
	}

	sectionIDs := make([]int64, len(req.Sections))
	for i, sr := range req.Sections {
		sectionID, err := s.repo.InsertSection(ctx, Section{
			QuotationID: id,
			Title:       sr.Title,
			SortOrder:   sr.SortOrder,
		})
		if err != nil {
			return nil, fmt.Errorf("insert section: %w", err)
		}
		sectionIDs[i] = sectionID
	}

	for i, ir := range req.Items {
		item := Item{
			QuotationID:   id,
			SectionID:     ir.SectionID,
			PricingItemID: ir.PricingItemID,
			Description:   ir.Description,
			UOM:           ir.UOM,
			Quantity:      ir.Quantity,
			UnitPrice:     ir.UnitPrice,
			LineTotal:     LineTotal(ir.Quantity, ir.UnitPrice),
			SortOrder:     ir.SortOrder,
		}
		if item.SortOrder == 0 {
			item.SortOrder = i + 1
		}
		if _, err := s.repo.InsertItem(ctx, item); err != nil {
			return nil, fmt.Errorf("insert item: %w", err)
		}
	}

	if err := s.recomputeTotals(ctx, id, q.DiscountPct, q.TaxPct); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "quotation.created", id, map[string]any{"doc_number": docNumber})
	return s.repo.Get(ctx, actor.CompanyID, id)
}

// recomputeTotals re-derives the parent aggregates from the stored items.
// A single UPDATE of derived columns; it does not trigger itself again.
func (s *Service) recomputeTotals(ctx context.Context, quotationID int64, discountPct, taxPct float64) error {
	items, err := s.repo.ListItems(ctx, quotationID)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	totals := CalculateTotals(items, discountPct, taxPct)
	if err := s.repo.UpdateTotals(ctx, quotationID, totals); err != nil {
		return fmt.Errorf("update totals: %w", err)
	}
	return nil
}

// Update edits header fields of a DRAFT quotation and recomputes totals
// when the discount or tax percentage changed.
func (s *Service) Update(ctx context.Context, actor shared.Actor, id int64, req UpdateQuotationRequest) (*Quotation, error) {
	q, err := s.repo.Get(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if !q.Editable() {
		return nil, ErrNotEditable
	}

	if req.IssueDate != nil {
		q.IssueDate = *req.IssueDate
	}
	if req.ValidUntil != nil {
		q.ValidUntil = *req.ValidUntil
	}
	if req.DiscountPct != nil {
		q.DiscountPct = *req.DiscountPct
	}
	if req.TaxPct != nil {
		q.TaxPct = *req.TaxPct
	}
	if req.Notes != nil {
		q.Notes = req.Notes
	}

	if err := s.repo.UpdateHeader(ctx, *q); err != nil {
		return nil, fmt.Errorf("update quotation: %w", err)
	}
	if req.DiscountPct != nil || req.TaxPct != nil {
		if err := s.recomputeTotals(ctx, id, q.DiscountPct, q.TaxPct); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, actor.CompanyID, id)
}

// AddItem appends a line to a DRAFT quotation and recomputes totals.
func (s *Service) AddItem(ctx context.Context, actor shared.Actor, quotationID int64, req CreateItemRequest) (*Quotation, error) {
	q, err := s.repo.Get(ctx, actor.CompanyID, quotationID)
	if err != nil {
		return nil, err
	}
	if !q.Editable() {
		return nil, ErrNotEditable
	}

	item := Item{
		QuotationID:   quotationID,
		SectionID:     req.SectionID,
		PricingItemID: req.PricingItemID,
		Description:   req.Description,
		UOM:           req.UOM,
		Quantity:      req.Quantity,
		UnitPrice:     req.UnitPrice,
		LineTotal:     LineTotal(req.Quantity, req.UnitPrice),
		SortOrder:     req.SortOrder,
	}
	if item.SortOrder == 0 {
		item.SortOrder = len(q.Items) + 1
	}
	if _, err := s.repo.InsertItem(ctx, item); err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	if err := s.recomputeTotals(ctx, quotationID, q.DiscountPct, q.TaxPct); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, actor.CompanyID, quotationID)
}

// UpdateItem edits a line of a DRAFT quotation and recomputes totals.
func (s *Service) UpdateItem(ctx context.Context, actor shared.Actor, quotationID, itemID int64, req UpdateItemRequest) (*Quotation, error) {
	q, err := s.repo.Get(ctx, actor.CompanyID, quotationID)
	if err != nil {
		return nil, err
	}
	if !q.Editable() {
		return nil, ErrNotEditable
	}

	var target *Item
	for i := range q.Items {
		if q.Items[i].ID == itemID {
			target = &q.Items[i]
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
	target.LineTotal = LineTotal(target.Quantity, target.UnitPrice)

	if err := s.repo.UpdateItem(ctx, *target); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	if err := s.recomputeTotals(ctx, quotationID, q.DiscountPct, q.TaxPct); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, actor.CompanyID, quotationID)
}

// DeleteItem removes a line from a DRAFT quotation and recomputes totals.
func (s *Service) DeleteItem(ctx context.Context, actor shared.Actor, quotationID, itemID int64) (*Quotation, error) {
	q, err := s.repo.Get(ctx, actor.CompanyID, quotationID)
	if err != nil {
		return nil, err
	}
	if !q.Editable() {
		return nil, ErrNotEditable
	}
	if err := s.repo.DeleteItem(ctx, quotationID, itemID); err != nil {
		return nil, err
	}
	if err := s.recomputeTotals(ctx, quotationID, q.DiscountPct, q.TaxPct); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, actor.CompanyID, quotationID)
}

// Get returns one quotation. Reconcile on load: a SENT or VIEWED document
// past its valid_until date is persisted as EXPIRED before being
// returned. This read deliberately mutates state.
func (s *Service) Get(ctx context.Context, companyID, id int64) (*Quotation, error) {
	q, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return s.reconcileExpiry(ctx, q)
}

func (s *Service) reconcileExpiry(ctx context.Context, q *Quotation) (*Quotation, error) {
	if (q.Status == StatusSent || q.Status == StatusViewed) && s.now().After(q.ValidUntil) {
		q.Status = StatusExpired
		if err := s.repo.UpdateStatus(ctx, *q); err != nil {
			return nil, fmt.Errorf("reconcile expiry: %w", err)
		}
	}
	return q, nil
}

// MarkAsSent transitions DRAFT -> SENT and records quote activity on the
// linked lead.
func (s *Service) MarkAsSent(ctx context.Context, actor shared.Actor, id int64) (*Quotation, error) {
	q, err := s.transition(ctx, actor, id, StatusSent, nil)
	if err != nil {
		return nil, err
	}
	if q.LeadID != nil {
		if err := s.leads.RecordQuote(ctx, actor, *q.LeadID); err != nil {
			return nil, fmt.Errorf("record lead quote: %w", err)
		}
	}
	s.notifier.QuotationSent(ctx, *q)
	return q, nil
}

// MarkAsViewed transitions SENT -> VIEWED, typically from a tracking hit.
func (s *Service) MarkAsViewed(ctx context.Context, actor shared.Actor, id int64) (*Quotation, error) {
	return s.transition(ctx, actor, id, StatusViewed, nil)
}

// MarkAsAccepted transitions to ACCEPTED and moves the linked lead to
// QUOTED when it has not advanced there yet.
func (s *Service) MarkAsAccepted(ctx context.Context, actor shared.Actor, id int64) (*Quotation, error) {
	q, err := s.transition(ctx, actor, id, StatusAccepted, nil)
	if err != nil {
		return nil, err
	}
	if q.LeadID != nil {
		if err := s.leads.MarkQuoted(ctx, actor, *q.LeadID); err != nil {
			return nil, fmt.Errorf("mark lead quoted: %w", err)
		}
	}
	s.notifier.QuotationAccepted(ctx, *q)
	return q, nil
}

// MarkAsRejected transitions to REJECTED with a reason.
func (s *Service) MarkAsRejected(ctx context.Context, actor shared.Actor, id int64, reason string) (*Quotation, error) {
	q, err := s.transition(ctx, actor, id, StatusRejected, &reason)
	if err != nil {
		return nil, err
	}
	s.notifier.QuotationRejected(ctx, *q)
	return q, nil
}

// Convert creates an invoice from an ACCEPTED quotation and marks the
// quotation CONVERTED.
func (s *Service) Convert(ctx context.Context, actor shared.Actor, id int64) (int64, error) {
	if s.converter == nil {
		return 0, errors.New("quotations: converter not configured")
	}
	q, err := s.repo.Get(ctx, actor.CompanyID, id)
	if err != nil {
		return 0, err
	}
	if !CanTransition(q.Status, StatusConverted) {
		return 0, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, q.Status, StatusConverted)
	}

	invoiceID, err := s.converter.CreateFromQuotation(ctx, actor, *q)
	if err != nil {
		return 0, fmt.Errorf("convert quotation: %w", err)
	}

	now := s.now()
	q.Status = StatusConverted
	q.ConvertedAt = &now
	if err := s.repo.UpdateStatus(ctx, *q); err != nil {
		return 0, fmt.Errorf("mark converted: %w", err)
	}
	s.audit(ctx, actor, "quotation.converted", q.ID, map[string]any{"invoice_id": invoiceID})
	return invoiceID, nil
}

func (s *Service) transition(ctx context.Context, actor shared.Actor, id int64, to Status, reason *string) (*Quotation, error) {
	q, err := s.repo.Get(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if q, err = s.reconcileExpiry(ctx, q); err != nil {
		return nil, err
	}
	if !CanTransition(q.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, q.Status, to)
	}

	from := q.Status
	now := s.now()
	q.Status = to
	switch to {
	case StatusSent:
		q.SentAt = &now
	case StatusViewed:
		q.ViewedAt = &now
	case StatusAccepted:
		q.AcceptedAt = &now
	case StatusRejected:
		q.RejectedAt = &now
		q.RejectionReason = reason
	}

	if err := s.repo.UpdateStatus(ctx, *q); err != nil {
		return nil, fmt.Errorf("transition quotation: %w", err)
	}
	s.audit(ctx, actor, "quotation.status_changed", q.ID, map[string]any{"from": from, "to": to})
	return s.repo.Get(ctx, actor.CompanyID, id)
}

// List returns a page of quotations.
func (s *Service) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	req.Limit, req.Offset = shared.ClampPage(req.Limit, req.Offset)
	return s.repo.List(ctx, req)
}

func (s *Service) audit(ctx context.Context, actor shared.Actor, action string, quotationID int64, meta map[string]any) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Record(ctx, shared.AuditLog{
		CompanyID: actor.CompanyID,
		ActorID:   actor.UserID,
		Action:    action,
		Scope:     shared.Scope{Type: shared.ScopeQuotation, ID: quotationID},
		Meta:      meta,
	})
}
