package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quotient-crm/quotient/internal/invoices"
	"github.com/quotient-crm/quotient/internal/leads"
	"github.com/quotient-crm/quotient/internal/quotations"
)

// EmailEnqueuer hands email sends to the background queue.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, to, subject, body string) error
}

// WebhookDispatcher fans an event out to subscribed endpoints.
type WebhookDispatcher interface {
	Dispatch(ctx context.Context, companyID int64, event string, data any)
}

// Dispatcher receives domain events from the services and owns the
// transport: in-app rows, queued emails and webhook fan-out. Delivery
// failures are logged, never propagated back to the caller.
type Dispatcher struct {
	logger   *slog.Logger
	repo     Repository
	emails   EmailEnqueuer
	webhooks WebhookDispatcher
}

// NewDispatcher builds a Dispatcher. emails and webhooks may be nil in
// tests or trimmed deployments.
func NewDispatcher(logger *slog.Logger, repo Repository, emails EmailEnqueuer, webhooks WebhookDispatcher) *Dispatcher {
	return &Dispatcher{logger: logger, repo: repo, emails: emails, webhooks: webhooks}
}

// LeadCreated implements the leads notifier.
func (d *Dispatcher) LeadCreated(ctx context.Context, lead leads.Lead) {
	d.notify(ctx, lead.CompanyID, EventLeadCreated,
		"New lead",
		fmt.Sprintf("Lead %q was created", lead.Name),
		lead)
}

// LeadWon implements the leads notifier.
func (d *Dispatcher) LeadWon(ctx context.Context, lead leads.Lead) {
	d.notify(ctx, lead.CompanyID, EventLeadWon,
		"Lead won",
		fmt.Sprintf("Lead %q was marked won", lead.Name),
		lead)
}

// LeadLost implements the leads notifier.
func (d *Dispatcher) LeadLost(ctx context.Context, lead leads.Lead) {
	d.notify(ctx, lead.CompanyID, EventLeadLost,
		"Lead lost",
		fmt.Sprintf("Lead %q was marked lost", lead.Name),
		lead)
}

// QuotationSent implements the quotations notifier.
func (d *Dispatcher) QuotationSent(ctx context.Context, q quotations.Quotation) {
	d.notify(ctx, q.CompanyID, EventQuotationSent,
		"Quotation sent",
		fmt.Sprintf("Quotation %s was sent", q.DocNumber),
		q)
}

// QuotationAccepted implements the quotations notifier.
func (d *Dispatcher) QuotationAccepted(ctx context.Context, q quotations.Quotation) {
	d.notify(ctx, q.CompanyID, EventQuotationAccepted,
		"Quotation accepted",
		fmt.Sprintf("Quotation %s was accepted", q.DocNumber),
		q)
}

// QuotationRejected implements the quotations notifier.
func (d *Dispatcher) QuotationRejected(ctx context.Context, q quotations.Quotation) {
	d.notify(ctx, q.CompanyID, EventQuotationRejected,
		"Quotation rejected",
		fmt.Sprintf("Quotation %s was rejected", q.DocNumber),
		q)
}

// InvoiceSent implements the invoices notifier.
func (d *Dispatcher) InvoiceSent(ctx context.Context, inv invoices.Invoice) {
	d.notify(ctx, inv.CompanyID, EventInvoiceSent,
		"Invoice sent",
		fmt.Sprintf("Invoice %s was sent", inv.DocNumber),
		inv)
}

// InvoicePaid implements the invoices notifier.
func (d *Dispatcher) InvoicePaid(ctx context.Context, inv invoices.Invoice) {
	d.notify(ctx, inv.CompanyID, EventInvoicePaid,
		"Invoice paid",
		fmt.Sprintf("Invoice %s is fully paid", inv.DocNumber),
		inv)
}

// PaymentRecorded implements the invoices notifier.
func (d *Dispatcher) PaymentRecorded(ctx context.Context, inv invoices.Invoice, p invoices.Payment) {
	d.notify(ctx, inv.CompanyID, EventPaymentRecorded,
		"Payment recorded",
		fmt.Sprintf("Payment %s of %.2f recorded against invoice %s",
			p.ReceiptNumber, p.Amount, inv.DocNumber),
		map[string]any{"invoice": inv, "payment": p})
}

func (d *Dispatcher) notify(ctx context.Context, companyID int64, event, title, body string, data any) {
	recipients, err := d.repo.ListRecipients(ctx, companyID, event)
	if err != nil {
		d.logger.Error("notification recipients lookup failed",
			slog.String("event", event), slog.Any("error", err))
	}

	for _, rec := range recipients {
		if rec.InAppEnabled {
			if _, err := d.repo.InsertNotification(ctx, Notification{
				CompanyID: companyID,
				UserID:    rec.UserID,
				Event:     event,
				Title:     title,
				Body:      body,
			}); err != nil {
				d.logger.Error("in-app notification failed",
					slog.Int64("user_id", rec.UserID), slog.Any("error", err))
			}
		}
		if rec.EmailEnabled && d.emails != nil && rec.Email != "" {
			if err := d.emails.EnqueueEmail(ctx, rec.Email, title, body); err != nil {
				d.logger.Error("email enqueue failed",
					slog.Int64("user_id", rec.UserID), slog.Any("error", err))
			}
		}
	}

	if d.webhooks != nil {
		d.webhooks.Dispatch(ctx, companyID, event, data)
	}
}
