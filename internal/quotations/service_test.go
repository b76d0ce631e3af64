package quotations

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quotient-crm/quotient/internal/numbering"
	"github.com/quotient-crm/quotient/internal/shared"
)

type memoryRepo struct {
	nextID     int64
	quotations map[int64]Quotation
	sections   map[int64][]Section
	items      map[int64][]Item
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		quotations: make(map[int64]Quotation),
		sections:   make(map[int64][]Section),
		items:      make(map[int64][]Item),
	}
}

func (r *memoryRepo) Get(ctx context.Context, companyID, id int64) (*Quotation, error) {
	q, ok := r.quotations[id]
	if !ok || q.CompanyID != companyID {
		return nil, ErrNotFound
	}
	q.Sections = append([]Section(nil), r.sections[id]...)
	q.Items = append([]Item(nil), r.items[id]...)
	return &q, nil
}

func (r *memoryRepo) Create(ctx context.Context, q Quotation) (int64, error) {
	r.nextID++
	q.ID = r.nextID
	r.quotations[q.ID] = q
	return q.ID, nil
}

func (r *memoryRepo) UpdateHeader(ctx context.Context, q Quotation) error {
	stored, ok := r.quotations[q.ID]
	if !ok {
		return ErrNotFound
	}
	stored.IssueDate = q.IssueDate
	stored.ValidUntil = q.ValidUntil
	stored.DiscountPct = q.DiscountPct
	stored.TaxPct = q.TaxPct
	stored.Notes = q.Notes
	r.quotations[q.ID] = stored
	return nil
}

func (r *memoryRepo) UpdateTotals(ctx context.Context, id int64, totals Totals) error {
	q, ok := r.quotations[id]
	if !ok {
		return ErrNotFound
	}
	q.Subtotal = totals.Subtotal
	q.DiscountAmount = totals.DiscountAmount
	q.TaxAmount = totals.TaxAmount
	q.Total = totals.Total
	r.quotations[id] = q
	return nil
}

func (r *memoryRepo) UpdateStatus(ctx context.Context, q Quotation) error {
	stored, ok := r.quotations[q.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Status = q.Status
	stored.RejectionReason = q.RejectionReason
	stored.SentAt = q.SentAt
	stored.ViewedAt = q.ViewedAt
	stored.AcceptedAt = q.AcceptedAt
	stored.RejectedAt = q.RejectedAt
	stored.ConvertedAt = q.ConvertedAt
	r.quotations[q.ID] = stored
	return nil
}

func (r *memoryRepo) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	var result []Quotation
	for _, q := range r.quotations {
		if q.CompanyID == req.CompanyID {
			result = append(result, q)
		}
	}
	return result, len(result), nil
}

func (r *memoryRepo) InsertSection(ctx context.Context, section Section) (int64, error) {
	r.nextID++
	section.ID = r.nextID
	r.sections[section.QuotationID] = append(r.sections[section.QuotationID], section)
	return section.ID, nil
}

func (r *memoryRepo) InsertItem(ctx context.Context, item Item) (int64, error) {
	r.nextID++
	item.ID = r.nextID
	r.items[item.QuotationID] = append(r.items[item.QuotationID], item)
	return item.ID, nil
}

func (r *memoryRepo) UpdateItem(ctx context.Context, item Item) error {
	items := r.items[item.QuotationID]
	for i := range items {
		if items[i].ID == item.ID {
			items[i] = item
			return nil
		}
	}
	return ErrNotFound
}

func (r *memoryRepo) DeleteItem(ctx context.Context, quotationID, itemID int64) error {
	items := r.items[quotationID]
	for i := range items {
		if items[i].ID == itemID {
			r.items[quotationID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *memoryRepo) ListItems(ctx context.Context, quotationID int64) ([]Item, error) {
	return append([]Item(nil), r.items[quotationID]...), nil
}

type stubNumbers struct {
	count int
}

func (n *stubNumbers) GenerateNext(ctx context.Context, companyID int64, docType numbering.DocType) (string, error) {
	n.count++
	return fmt.Sprintf("QT-2024-%04d", n.count), nil
}

type trackerRecorder struct {
	quoted []int64
	marked []int64
}

func (t *trackerRecorder) RecordQuote(ctx context.Context, actor shared.Actor, leadID int64) error {
	t.quoted = append(t.quoted, leadID)
	return nil
}

func (t *trackerRecorder) MarkQuoted(ctx context.Context, actor shared.Actor, leadID int64) error {
	t.marked = append(t.marked, leadID)
	return nil
}

type notifierRecorder struct {
	sent     int
	accepted int
	rejected int
}

func (n *notifierRecorder) QuotationSent(ctx context.Context, q Quotation)     { n.sent++ }
func (n *notifierRecorder) QuotationAccepted(ctx context.Context, q Quotation) { n.accepted++ }
func (n *notifierRecorder) QuotationRejected(ctx context.Context, q Quotation) { n.rejected++ }

type converterStub struct {
	invoiceID int64
	converted []int64
}

func (c *converterStub) CreateFromQuotation(ctx context.Context, actor shared.Actor, q Quotation) (int64, error) {
	c.converted = append(c.converted, q.ID)
	return c.invoiceID, nil
}

func testActor() shared.Actor {
	return shared.Actor{UserID: 1, CompanyID: 1, Name: "Test User", Role: "manager"}
}

func newTestService(t *testing.T) (*Service, *trackerRecorder, *notifierRecorder) {
	t.Helper()
	tracker := &trackerRecorder{}
	notifier := &notifierRecorder{}
	svc := NewService(newMemoryRepo(), &stubNumbers{}, tracker, notifier, nil)
	svc.now = func() time.Time {
		return time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	}
	return svc, tracker, notifier
}

func createQuotation(t *testing.T, svc *Service, leadID *int64) *Quotation {
	t.Helper()
	issue := svc.now()
	q, err := svc.Create(context.Background(), testActor(), CreateQuotationRequest{
		LeadID:      leadID,
		IssueDate:   issue,
		ValidUntil:  issue.AddDate(0, 0, 14),
		Currency:    "USD",
		DiscountPct: 10,
		TaxPct:      6,
		Items: []CreateItemRequest{
			{Description: "General pest treatment", Quantity: 2, UnitPrice: 100},
			{Description: "Rodent station", Quantity: 1, UnitPrice: 50},
		},
	})
	require.NoError(t, err)
	return q
}

func TestCreateComputesTotals(t *testing.T) {
	svc, _, _ := newTestService(t)
	q := createQuotation(t, svc, nil)

	require.Equal(t, StatusDraft, q.Status)
	require.Equal(t, "QT-2024-0001", q.DocNumber)
	require.InDelta(t, 250.0, q.Subtotal, 1e-9)
	require.InDelta(t, 25.0, q.DiscountAmount, 1e-9)
	require.InDelta(t, 13.5, q.TaxAmount, 1e-9)
	require.InDelta(t, 238.5, q.Total, 1e-9)
	require.Len(t, q.Items, 2)
}

func TestMarkAsSentRecordsLeadQuote(t *testing.T) {
	svc, tracker, notifier := newTestService(t)
	leadID := int64(99)
	q := createQuotation(t, svc, &leadID)

	q, err := svc.MarkAsSent(context.Background(), testActor(), q.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSent, q.Status)
	require.NotNil(t, q.SentAt)
	require.Equal(t, []int64{99}, tracker.quoted)
	require.Equal(t, 1, notifier.sent)
}

func TestAcceptMarksLeadQuoted(t *testing.T) {
	svc, tracker, notifier := newTestService(t)
	leadID := int64(99)
	q := createQuotation(t, svc, &leadID)
	ctx := context.Background()

	_, err := svc.MarkAsSent(ctx, testActor(), q.ID)
	require.NoError(t, err)
	_, err = svc.MarkAsViewed(ctx, testActor(), q.ID)
	require.NoError(t, err)
	q, err = svc.MarkAsAccepted(ctx, testActor(), q.ID)
	require.NoError(t, err)

	require.Equal(t, StatusAccepted, q.Status)
	require.NotNil(t, q.AcceptedAt)
	require.Equal(t, []int64{99}, tracker.marked)
	require.Equal(t, 1, notifier.accepted)
}

func TestAcceptFromDraftFails(t *testing.T) {
	svc, _, _ := newTestService(t)
	q := createQuotation(t, svc, nil)

	_, err := svc.MarkAsAccepted(context.Background(), testActor(), q.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRejectStoresReason(t *testing.T) {
	svc, _, notifier := newTestService(t)
	q := createQuotation(t, svc, nil)
	ctx := context.Background()

	_, err := svc.MarkAsSent(ctx, testActor(), q.ID)
	require.NoError(t, err)
	q, err = svc.MarkAsRejected(ctx, testActor(), q.ID, "price too high")
	require.NoError(t, err)

	require.Equal(t, StatusRejected, q.Status)
	require.NotNil(t, q.RejectionReason)
	require.Equal(t, "price too high", *q.RejectionReason)
	require.Equal(t, 1, notifier.rejected)
}

func TestConvertAcceptedQuotation(t *testing.T) {
	svc, _, _ := newTestService(t)
	converter := &converterStub{invoiceID: 555}
	svc.SetConverter(converter)
	q := createQuotation(t, svc, nil)
	ctx := context.Background()

	_, err := svc.MarkAsSent(ctx, testActor(), q.ID)
	require.NoError(t, err)
	_, err = svc.MarkAsAccepted(ctx, testActor(), q.ID)
	require.NoError(t, err)

	invoiceID, err := svc.Convert(ctx, testActor(), q.ID)
	require.NoError(t, err)
	require.Equal(t, int64(555), invoiceID)
	require.Equal(t, []int64{q.ID}, converter.converted)

	q, err = svc.Get(ctx, testActor().CompanyID, q.ID)
	require.NoError(t, err)
	require.Equal(t, StatusConverted, q.Status)
	require.NotNil(t, q.ConvertedAt)
}

func TestConvertRequiresAccepted(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.SetConverter(&converterStub{invoiceID: 555})
	q := createQuotation(t, svc, nil)

	_, err := svc.Convert(context.Background(), testActor(), q.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGetReconcilesExpiry(t *testing.T) {
	svc, _, _ := newTestService(t)
	q := createQuotation(t, svc, nil)
	ctx := context.Background()

	_, err := svc.MarkAsSent(ctx, testActor(), q.ID)
	require.NoError(t, err)

	svc.now = func() time.Time {
		return time.Date(2024, time.April, 1, 10, 0, 0, 0, time.UTC)
	}
	q, err = svc.Get(ctx, testActor().CompanyID, q.ID)
	require.NoError(t, err)
	require.Equal(t, StatusExpired, q.Status)

	_, err = svc.MarkAsAccepted(ctx, testActor(), q.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSentQuotationLocksItems(t *testing.T) {
	svc, _, _ := newTestService(t)
	q := createQuotation(t, svc, nil)
	ctx := context.Background()

	_, err := svc.MarkAsSent(ctx, testActor(), q.ID)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, testActor(), q.ID, CreateItemRequest{
		Description: "Extra visit", Quantity: 1, UnitPrice: 75,
	})
	require.ErrorIs(t, err, ErrNotEditable)
}

func TestAddItemRecomputesTotals(t *testing.T) {
	svc, _, _ := newTestService(t)
	q := createQuotation(t, svc, nil)

	q, err := svc.AddItem(context.Background(), testActor(), q.ID, CreateItemRequest{
		Description: "Extra visit", Quantity: 1, UnitPrice: 50,
	})
	require.NoError(t, err)
	require.InDelta(t, 300.0, q.Subtotal, 1e-9)
	require.InDelta(t, 286.2, q.Total, 1e-9)
}
