package invoices

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quotient-crm/quotient/internal/numbering"
	"github.com/quotient-crm/quotient/internal/quotations"
	"github.com/quotient-crm/quotient/internal/shared"
)

type memoryRepo struct {
	nextID   int64
	invoices map[int64]Invoice
	items    map[int64][]Item
	payments map[int64][]Payment
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		invoices: make(map[int64]Invoice),
		items:    make(map[int64][]Item),
		payments: make(map[int64][]Payment),
	}
}

func (r *memoryRepo) Get(ctx context.Context, companyID, id int64) (*Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok || inv.CompanyID != companyID {
		return nil, ErrNotFound
	}
	inv.Items = append([]Item(nil), r.items[id]...)
	inv.Payments = append([]Payment(nil), r.payments[id]...)
	return &inv, nil
}

func (r *memoryRepo) Create(ctx context.Context, inv Invoice) (int64, error) {
	r.nextID++
	inv.ID = r.nextID
	r.invoices[inv.ID] = inv
	return inv.ID, nil
}

func (r *memoryRepo) UpdateHeader(ctx context.Context, inv Invoice) error {
	stored, ok := r.invoices[inv.ID]
	if !ok {
		return ErrNotFound
	}
	stored.CustomerID = inv.CustomerID
	stored.IssueDate = inv.IssueDate
	stored.DueDate = inv.DueDate
	stored.DiscountPct = inv.DiscountPct
	stored.TaxPct = inv.TaxPct
	stored.Notes = inv.Notes
	r.invoices[inv.ID] = stored
	return nil
}

func (r *memoryRepo) UpdateTotals(ctx context.Context, id int64, totals quotations.Totals) error {
	inv, ok := r.invoices[id]
	if !ok {
		return ErrNotFound
	}
	inv.Subtotal = totals.Subtotal
	inv.DiscountAmount = totals.DiscountAmount
	inv.TaxAmount = totals.TaxAmount
	inv.Total = totals.Total
	inv.AmountDue = AmountDue(totals.Total, inv.AmountPaid)
	r.invoices[id] = inv
	return nil
}

func (r *memoryRepo) UpdateSettlement(ctx context.Context, inv Invoice) error {
	stored, ok := r.invoices[inv.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Status = inv.Status
	stored.AmountPaid = inv.AmountPaid
	stored.AmountDue = inv.AmountDue
	stored.PaidAt = inv.PaidAt
	r.invoices[inv.ID] = stored
	return nil
}

func (r *memoryRepo) UpdateStatus(ctx context.Context, inv Invoice) error {
	stored, ok := r.invoices[inv.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Status = inv.Status
	stored.SentAt = inv.SentAt
	stored.PaidAt = inv.PaidAt
	stored.CancelledAt = inv.CancelledAt
	r.invoices[inv.ID] = stored
	return nil
}

func (r *memoryRepo) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	var result []Invoice
	for _, inv := range r.invoices {
		if inv.CompanyID == req.CompanyID {
			result = append(result, inv)
		}
	}
	return result, len(result), nil
}

func (r *memoryRepo) ListOutstanding(ctx context.Context, companyID int64) ([]Invoice, error) {
	var result []Invoice
	for _, inv := range r.invoices {
		if inv.CompanyID != companyID || inv.AmountDue <= 0 {
			continue
		}
		switch inv.Status {
		case StatusSent, StatusPartial, StatusOverdue:
			result = append(result, inv)
		}
	}
	return result, nil
}

func (r *memoryRepo) InsertItem(ctx context.Context, item Item) (int64, error) {
	r.nextID++
	item.ID = r.nextID
	r.items[item.InvoiceID] = append(r.items[item.InvoiceID], item)
	return item.ID, nil
}

func (r *memoryRepo) UpdateItem(ctx context.Context, item Item) error {
	items := r.items[item.InvoiceID]
	for i := range items {
		if items[i].ID == item.ID {
			items[i] = item
			return nil
		}
	}
	return ErrNotFound
}

func (r *memoryRepo) DeleteItem(ctx context.Context, invoiceID, itemID int64) error {
	items := r.items[invoiceID]
	for i := range items {
		if items[i].ID == itemID {
			r.items[invoiceID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *memoryRepo) ListItems(ctx context.Context, invoiceID int64) ([]Item, error) {
	return append([]Item(nil), r.items[invoiceID]...), nil
}

func (r *memoryRepo) LockItems(ctx context.Context, invoiceID int64, locked bool) error {
	items := r.items[invoiceID]
	for i := range items {
		items[i].IsLocked = locked
	}
	return nil
}

func (r *memoryRepo) InsertPayment(ctx context.Context, p Payment) (int64, error) {
	r.nextID++
	p.ID = r.nextID
	r.payments[p.InvoiceID] = append(r.payments[p.InvoiceID], p)
	return p.ID, nil
}

func (r *memoryRepo) GetPayment(ctx context.Context, invoiceID, paymentID int64) (*Payment, error) {
	for _, p := range r.payments[invoiceID] {
		if p.ID == paymentID {
			out := p
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepo) UpdatePaymentStatus(ctx context.Context, p Payment) error {
	payments := r.payments[p.InvoiceID]
	for i := range payments {
		if payments[i].ID == p.ID {
			payments[i].Status = p.Status
			payments[i].ClearedAt = p.ClearedAt
			return nil
		}
	}
	return ErrNotFound
}

func (r *memoryRepo) ListPayments(ctx context.Context, invoiceID int64) ([]Payment, error) {
	return append([]Payment(nil), r.payments[invoiceID]...), nil
}

type stubNumbers struct {
	count int
}

func (n *stubNumbers) GenerateNext(ctx context.Context, companyID int64, docType numbering.DocType) (string, error) {
	n.count++
	return fmt.Sprintf("%s-%04d", docType, n.count), nil
}

type recordedEvents struct {
	sent     int
	paid     int
	payments int
}

func (e *recordedEvents) InvoiceSent(ctx context.Context, inv Invoice) { e.sent++ }
func (e *recordedEvents) InvoicePaid(ctx context.Context, inv Invoice) { e.paid++ }

func (e *recordedEvents) PaymentRecorded(ctx context.Context, inv Invoice, p Payment) {
	e.payments++
}

func testActor() shared.Actor {
	return shared.Actor{UserID: 1, CompanyID: 1, Name: "Test User", Role: "admin"}
}

func newTestService(t *testing.T) (*Service, *memoryRepo, *recordedEvents) {
	t.Helper()
	repo := newMemoryRepo()
	events := &recordedEvents{}
	svc := NewService(repo, &stubNumbers{}, events, nil)
	svc.now = func() time.Time {
		return time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	}
	return svc, repo, events
}

func createSentInvoice(t *testing.T, svc *Service, total float64) *Invoice {
	t.Helper()
	ctx := context.Background()
	issue := svc.now()
	inv, err := svc.Create(ctx, testActor(), CreateInvoiceRequest{
		IssueDate: issue,
		DueDate:   issue.AddDate(0, 0, 30),
		Currency:  "USD",
		Items: []CreateItemRequest{
			{Description: "Service work", Quantity: 1, UnitPrice: total},
		},
	})
	require.NoError(t, err)
	inv, err = svc.MarkAsSent(ctx, testActor(), inv.ID)
	require.NoError(t, err)
	return inv
}

func TestRecordPaymentPartialThenPaid(t *testing.T) {
	svc, _, events := newTestService(t)
	ctx := context.Background()
	inv := createSentInvoice(t, svc, 1000)

	inv, err := svc.RecordPayment(ctx, testActor(), inv.ID, RecordPaymentRequest{
		Amount: 400, Method: "bank_transfer", Cleared: true,
	})
	require.NoError(t, err)
	require.Equal(t, StatusPartial, inv.Status)
	require.InDelta(t, 400.0, inv.AmountPaid, 1e-9)
	require.InDelta(t, 600.0, inv.AmountDue, 1e-9)
	require.Nil(t, inv.PaidAt)
	require.False(t, inv.Items[0].IsLocked)

	inv, err = svc.RecordPayment(ctx, testActor(), inv.ID, RecordPaymentRequest{
		Amount: 600, Method: "cash", Cleared: true,
	})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, inv.Status)
	require.InDelta(t, 1000.0, inv.AmountPaid, 1e-9)
	require.Zero(t, inv.AmountDue)
	require.NotNil(t, inv.PaidAt)
	require.Equal(t, 1, events.paid)
	require.Equal(t, 2, events.payments)
	for _, item := range inv.Items {
		require.True(t, item.IsLocked)
	}
}

func TestRecordPaymentPendingDoesNotSettle(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	inv := createSentInvoice(t, svc, 1000)

	inv, err := svc.RecordPayment(ctx, testActor(), inv.ID, RecordPaymentRequest{
		Amount: 1000, Method: "cheque", Cleared: false,
	})
	require.NoError(t, err)
	require.Equal(t, StatusSent, inv.Status)
	require.Zero(t, inv.AmountPaid)
	require.InDelta(t, 1000.0, inv.AmountDue, 1e-9)
}

func TestClearingPendingPaymentSettles(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	inv := createSentInvoice(t, svc, 1000)

	inv, err := svc.RecordPayment(ctx, testActor(), inv.ID, RecordPaymentRequest{
		Amount: 1000, Method: "cheque", Cleared: false,
	})
	require.NoError(t, err)
	paymentID := inv.Payments[0].ID

	inv, err = svc.UpdatePaymentStatus(ctx, testActor(), inv.ID, paymentID, PaymentCleared)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, inv.Status)
}

func TestOverpaymentClampsAmountDue(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	inv := createSentInvoice(t, svc, 1000)

	inv, err := svc.RecordPayment(ctx, testActor(), inv.ID, RecordPaymentRequest{
		Amount: 1200, Method: "bank_transfer", Cleared: true,
	})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, inv.Status)
	require.InDelta(t, 1200.0, inv.AmountPaid, 1e-9)
	require.Zero(t, inv.AmountDue)
}

func TestBouncedPaymentReopensPaidInvoice(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	inv := createSentInvoice(t, svc, 1000)

	inv, err := svc.RecordPayment(ctx, testActor(), inv.ID, RecordPaymentRequest{
		Amount: 400, Method: "bank_transfer", Cleared: true,
	})
	require.NoError(t, err)
	inv, err = svc.RecordPayment(ctx, testActor(), inv.ID, RecordPaymentRequest{
		Amount: 600, Method: "cheque", Cleared: true,
	})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, inv.Status)

	bounced := inv.Payments[1].ID
	inv, err = svc.UpdatePaymentStatus(ctx, testActor(), inv.ID, bounced, PaymentBounced)
	require.NoError(t, err)
	require.Equal(t, StatusPartial, inv.Status)
	require.InDelta(t, 400.0, inv.AmountPaid, 1e-9)
	require.InDelta(t, 600.0, inv.AmountDue, 1e-9)
	require.Nil(t, inv.PaidAt)
	require.False(t, inv.Items[0].IsLocked)
}

func TestBouncingSolePaymentReturnsInvoiceToSent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	inv := createSentInvoice(t, svc, 1000)

	inv, err := svc.RecordPayment(ctx, testActor(), inv.ID, RecordPaymentRequest{
		Amount: 400, Method: "cheque", Cleared: true,
	})
	require.NoError(t, err)
	require.Equal(t, StatusPartial, inv.Status)

	inv, err = svc.UpdatePaymentStatus(ctx, testActor(), inv.ID, inv.Payments[0].ID, PaymentBounced)
	require.NoError(t, err)
	require.Equal(t, StatusSent, inv.Status)
	require.Zero(t, inv.AmountPaid)
	require.InDelta(t, 1000.0, inv.AmountDue, 1e-9)
}

func TestBouncingSolePaymentPastDueGoesOverdue(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	inv := createSentInvoice(t, svc, 1000)

	inv, err := svc.RecordPayment(ctx, testActor(), inv.ID, RecordPaymentRequest{
		Amount: 400, Method: "cheque", Cleared: true,
	})
	require.NoError(t, err)

	svc.now = func() time.Time {
		return time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)
	}
	inv, err = svc.UpdatePaymentStatus(ctx, testActor(), inv.ID, inv.Payments[0].ID, PaymentBounced)
	require.NoError(t, err)
	require.Equal(t, StatusOverdue, inv.Status)
	require.Zero(t, inv.AmountPaid)
}

func TestCancellingClearedPaymentReopensPaidInvoice(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	inv := createSentInvoice(t, svc, 1000)

	inv, err := svc.RecordPayment(ctx, testActor(), inv.ID, RecordPaymentRequest{
		Amount: 1000, Method: "bank_transfer", Cleared: true,
	})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, inv.Status)
	require.True(t, inv.Items[0].IsLocked)

	inv, err = svc.UpdatePaymentStatus(ctx, testActor(), inv.ID, inv.Payments[0].ID, PaymentCancelled)
	require.NoError(t, err)
	require.Equal(t, StatusSent, inv.Status)
	require.Zero(t, inv.AmountPaid)
	require.InDelta(t, 1000.0, inv.AmountDue, 1e-9)
	require.Nil(t, inv.PaidAt)
	require.False(t, inv.Items[0].IsLocked)
}

func TestSentInvoiceLocksItems(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	inv := createSentInvoice(t, svc, 1000)

	_, err := svc.AddItem(ctx, testActor(), inv.ID, CreateItemRequest{
		Description: "Extra", Quantity: 1, UnitPrice: 50,
	})
	require.ErrorIs(t, err, ErrNotEditable)

	itemID := inv.Items[0].ID
	_, err = svc.DeleteItem(ctx, testActor(), inv.ID, itemID)
	require.ErrorIs(t, err, ErrNotEditable)
}

func TestDraftInvoiceRejectsPayments(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	issue := svc.now()
	inv, err := svc.Create(ctx, testActor(), CreateInvoiceRequest{
		IssueDate: issue,
		DueDate:   issue.AddDate(0, 0, 30),
		Currency:  "USD",
		Items:     []CreateItemRequest{{Description: "Work", Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, testActor(), inv.ID, RecordPaymentRequest{
		Amount: 100, Method: "cash", Cleared: true,
	})
	require.ErrorIs(t, err, ErrPaymentsClosed)
}

func TestGetReconcilesOverdue(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	inv := createSentInvoice(t, svc, 1000)

	svc.now = func() time.Time {
		return time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)
	}
	inv, err := svc.Get(ctx, testActor().CompanyID, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusOverdue, inv.Status)
}

func TestAgingSkipsDraftAndPaid(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	open := createSentInvoice(t, svc, 500)
	paid := createSentInvoice(t, svc, 300)
	_, err := svc.RecordPayment(ctx, testActor(), paid.ID, RecordPaymentRequest{
		Amount: 300, Method: "cash", Cleared: true,
	})
	require.NoError(t, err)

	summary, err := svc.Aging(ctx, testActor().CompanyID)
	require.NoError(t, err)
	require.Len(t, summary.Lines, 1)
	require.Equal(t, open.ID, summary.Lines[0].InvoiceID)
	require.InDelta(t, 500.0, summary.Total, 1e-9)
}
