package invoices

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClearedAmount(t *testing.T) {
	payments := []Payment{
		{Amount: 400, Status: PaymentCleared},
		{Amount: 250, Status: PaymentPending},
		{Amount: 100, Status: PaymentBounced},
		{Amount: 600, Status: PaymentCleared},
	}
	require.InDelta(t, 1000.0, ClearedAmount(payments), 1e-9)
}

func TestAmountDueClampsAtZero(t *testing.T) {
	require.InDelta(t, 600.0, AmountDue(1000, 400), 1e-9)
	require.Zero(t, AmountDue(1000, 1200))
	require.Zero(t, AmountDue(1000, 1000))
}

func TestDeriveStatus(t *testing.T) {
	require.Equal(t, StatusPartial, DeriveStatus(StatusSent, 400, 1000))
	require.Equal(t, StatusPaid, DeriveStatus(StatusPartial, 1000, 1000))
	require.Equal(t, StatusPaid, DeriveStatus(StatusSent, 1200, 1000))
	require.Equal(t, StatusSent, DeriveStatus(StatusSent, 0, 1000))
	require.Equal(t, StatusSent, DeriveStatus(StatusPartial, 0, 1000))
	require.Equal(t, StatusPartial, DeriveStatus(StatusOverdue, 100, 1000))
	require.Equal(t, StatusOverdue, DeriveStatus(StatusOverdue, 0, 1000))

	require.Equal(t, StatusDraft, DeriveStatus(StatusDraft, 1000, 1000))
	require.Equal(t, StatusCancelled, DeriveStatus(StatusCancelled, 1000, 1000))
	require.Equal(t, StatusPaid, DeriveStatus(StatusPaid, 0, 1000))
}

func TestBucketFor(t *testing.T) {
	require.Equal(t, BucketCurrent, BucketFor(-5))
	require.Equal(t, BucketCurrent, BucketFor(0))
	require.Equal(t, Bucket1To30, BucketFor(1))
	require.Equal(t, Bucket1To30, BucketFor(30))
	require.Equal(t, Bucket31To60, BucketFor(31))
	require.Equal(t, Bucket61To90, BucketFor(90))
	require.Equal(t, BucketOver90, BucketFor(91))
}

func TestCalculateAging(t *testing.T) {
	asOf := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	invoices := []Invoice{
		{ID: 1, DocNumber: "INV-2024-0001", DueDate: asOf.AddDate(0, 0, 10), AmountDue: 100},
		{ID: 2, DocNumber: "INV-2024-0002", DueDate: asOf.AddDate(0, 0, -15), AmountDue: 200},
		{ID: 3, DocNumber: "INV-2024-0003", DueDate: asOf.AddDate(0, 0, -45), AmountDue: 300},
		{ID: 4, DocNumber: "INV-2024-0004", DueDate: asOf.AddDate(0, 0, -120), AmountDue: 400},
		{ID: 5, DocNumber: "INV-2024-0005", DueDate: asOf.AddDate(0, 0, -120), AmountDue: 0},
	}

	summary := CalculateAging(invoices, asOf)

	require.Len(t, summary.Lines, 4)
	require.InDelta(t, 100.0, summary.Buckets[BucketCurrent], 1e-9)
	require.InDelta(t, 200.0, summary.Buckets[Bucket1To30], 1e-9)
	require.InDelta(t, 300.0, summary.Buckets[Bucket31To60], 1e-9)
	require.InDelta(t, 400.0, summary.Buckets[BucketOver90], 1e-9)
	require.InDelta(t, 1000.0, summary.Total, 1e-9)
}

func TestCanTransition(t *testing.T) {
	require.True(t, CanTransition(StatusDraft, StatusSent))
	require.True(t, CanTransition(StatusSent, StatusPartial))
	require.True(t, CanTransition(StatusPartial, StatusSent))
	require.True(t, CanTransition(StatusPartial, StatusPaid))
	require.True(t, CanTransition(StatusOverdue, StatusPaid))

	require.False(t, CanTransition(StatusDraft, StatusPaid))
	require.False(t, CanTransition(StatusPaid, StatusPartial))
	require.False(t, CanTransition(StatusCancelled, StatusSent))
}

func TestCanTransitionPayment(t *testing.T) {
	require.True(t, CanTransitionPayment(PaymentPending, PaymentCleared))
	require.True(t, CanTransitionPayment(PaymentCleared, PaymentBounced))
	require.True(t, CanTransitionPayment(PaymentCleared, PaymentCancelled))

	require.False(t, CanTransitionPayment(PaymentBounced, PaymentCleared))
	require.False(t, CanTransitionPayment(PaymentCancelled, PaymentCleared))
}
